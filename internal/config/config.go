package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Cache struct {
		Enabled    bool   `yaml:"enabled"`
		DefaultTTL string `yaml:"default_ttl"`
		// memory-first | remote-first | write-through
		Strategy  string `yaml:"strategy"`
		KeyPrefix string `yaml:"key_prefix"`

		Memory struct {
			MaxEntries int    `yaml:"max_entries"`
			Eviction   string `yaml:"eviction"`
			// Período del janitor de limpieza.
			CleanupInterval string `yaml:"cleanup_interval"`
		} `yaml:"memory"`

		Redis struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Cluster  bool   `yaml:"cluster"`
		} `yaml:"redis"`

		Tenant struct {
			Enabled    bool   `yaml:"enabled"`
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"tenant"`

		Metrics struct {
			Enabled  bool   `yaml:"enabled"`
			Interval string `yaml:"interval"`
		} `yaml:"metrics"`
	} `yaml:"cache"`
}

// Load lee el YAML, aplica defaults, pisa con variables de entorno y
// valida. path vacío usa "config.yaml"; si el archivo no existe se parte
// de una config vacía (todo defaults + env).
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = "config.yaml"
	}

	var c Config
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	// Defaults
	if strings.TrimSpace(c.App.Env) == "" {
		c.App.Env = "dev"
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":8085"
	}
	if strings.TrimSpace(c.Cache.DefaultTTL) == "" {
		c.Cache.DefaultTTL = "1h"
	}
	if strings.TrimSpace(c.Cache.Strategy) == "" {
		c.Cache.Strategy = "memory-first"
	}
	if strings.TrimSpace(c.Cache.KeyPrefix) == "" {
		c.Cache.KeyPrefix = "cache"
	}
	if c.Cache.Memory.MaxEntries == 0 {
		c.Cache.Memory.MaxEntries = 1000
	}
	if strings.TrimSpace(c.Cache.Memory.Eviction) == "" {
		c.Cache.Memory.Eviction = "oldest"
	}
	if strings.TrimSpace(c.Cache.Memory.CleanupInterval) == "" {
		c.Cache.Memory.CleanupInterval = "60s"
	}
	if c.Cache.Redis.Port == 0 {
		c.Cache.Redis.Port = 6379
	}
	if strings.TrimSpace(c.Cache.Tenant.DefaultTTL) == "" {
		c.Cache.Tenant.DefaultTTL = "30m"
	}
	if strings.TrimSpace(c.Cache.Metrics.Interval) == "" {
		c.Cache.Metrics.Interval = "15s"
	}

	// Overrides por env
	c.applyEnvOverrides()

	// Validation
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate verifica duraciones y selectores. Un TTL/estrategia inválidos
// no tumban el arranque: caen a los defaults documentados.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Cache.DefaultTTL); err != nil {
		c.Cache.DefaultTTL = "1h"
	}
	if _, err := time.ParseDuration(c.Cache.Tenant.DefaultTTL); err != nil {
		c.Cache.Tenant.DefaultTTL = "30m"
	}
	if _, err := time.ParseDuration(c.Cache.Memory.CleanupInterval); err != nil {
		c.Cache.Memory.CleanupInterval = "60s"
	}
	if _, err := time.ParseDuration(c.Cache.Metrics.Interval); err != nil {
		c.Cache.Metrics.Interval = "15s"
	}
	switch strings.ToLower(c.Cache.Strategy) {
	case "memory-first", "remote-first", "write-through":
	default:
		c.Cache.Strategy = "memory-first"
	}
	if c.Cache.Memory.MaxEntries < 0 {
		return fmt.Errorf("config: cache.memory.max_entries must be >= 0")
	}
	return nil
}

// ─── Duraciones ya validadas ───

func (c *Config) DefaultTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.DefaultTTL)
	return d
}

func (c *Config) TenantTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.Tenant.DefaultTTL)
	return d
}

func (c *Config) CleanupInterval() time.Duration {
	d, _ := time.ParseDuration(c.Cache.Memory.CleanupInterval)
	return d
}

func (c *Config) MetricsInterval() time.Duration {
	d, _ := time.ParseDuration(c.Cache.Metrics.Interval)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// CACHE
	if v, ok := getEnvBool("CACHE_ENABLED"); ok {
		c.Cache.Enabled = v
	}
	if v, ok := getEnvStr("CACHE_DEFAULT_TTL"); ok {
		c.Cache.DefaultTTL = v
	}
	if v, ok := getEnvStr("CACHE_STRATEGY"); ok {
		c.Cache.Strategy = v
	}
	if v, ok := getEnvStr("CACHE_KEY_PREFIX"); ok {
		c.Cache.KeyPrefix = v
	}
	if v, ok := getEnvInt("CACHE_MEMORY_MAX_ENTRIES"); ok {
		c.Cache.Memory.MaxEntries = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_CLEANUP_INTERVAL"); ok {
		c.Cache.Memory.CleanupInterval = v
	}

	// REDIS
	if v, ok := getEnvStr("CACHE_REDIS_HOST"); ok {
		c.Cache.Redis.Host = v
	}
	if v, ok := getEnvInt("CACHE_REDIS_PORT"); ok {
		c.Cache.Redis.Port = v
	}
	if v, ok := getEnvStr("CACHE_REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("CACHE_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvBool("CACHE_REDIS_CLUSTER"); ok {
		c.Cache.Redis.Cluster = v
	}

	// TENANT
	if v, ok := getEnvBool("CACHE_TENANT_ENABLED"); ok {
		c.Cache.Tenant.Enabled = v
	}
	if v, ok := getEnvStr("CACHE_TENANT_DEFAULT_TTL"); ok {
		c.Cache.Tenant.DefaultTTL = v
	}

	// METRICS
	if v, ok := getEnvBool("CACHE_METRICS_ENABLED"); ok {
		c.Cache.Metrics.Enabled = v
	}
	if v, ok := getEnvStr("CACHE_METRICS_INTERVAL"); ok {
		c.Cache.Metrics.Interval = v
	}
}
