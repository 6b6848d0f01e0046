package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// Missing file: everything comes from defaults.
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if c.App.Env != "dev" {
		t.Errorf("env = %q", c.App.Env)
	}
	if c.Server.Addr != ":8085" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	if c.Cache.Strategy != "memory-first" {
		t.Errorf("strategy = %q", c.Cache.Strategy)
	}
	if c.Cache.KeyPrefix != "cache" {
		t.Errorf("key prefix = %q", c.Cache.KeyPrefix)
	}
	if c.Cache.Memory.MaxEntries != 1000 {
		t.Errorf("max entries = %d", c.Cache.Memory.MaxEntries)
	}
	if c.DefaultTTL() != time.Hour {
		t.Errorf("default ttl = %v", c.DefaultTTL())
	}
	if c.TenantTTL() != 30*time.Minute {
		t.Errorf("tenant ttl = %v", c.TenantTTL())
	}
	if c.CleanupInterval() != 60*time.Second {
		t.Errorf("cleanup interval = %v", c.CleanupInterval())
	}
}

func TestLoad_FromYAML(t *testing.T) {
	p := writeYAML(t, `
app:
  app_env: prod
server:
  addr: ":9090"
cache:
  enabled: true
  default_ttl: 2h
  strategy: write-through
  key_prefix: idp
  memory:
    max_entries: 500
    cleanup_interval: 30s
  redis:
    host: redis.internal
    port: 6380
    db: 2
  tenant:
    enabled: true
    default_ttl: 15m
`)

	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}

	if c.App.Env != "prod" {
		t.Errorf("env = %q", c.App.Env)
	}
	if c.Server.Addr != ":9090" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	if !c.Cache.Enabled || !c.Cache.Tenant.Enabled {
		t.Error("enabled flags not read")
	}
	if c.Cache.Strategy != "write-through" {
		t.Errorf("strategy = %q", c.Cache.Strategy)
	}
	if c.Cache.KeyPrefix != "idp" {
		t.Errorf("key prefix = %q", c.Cache.KeyPrefix)
	}
	if c.Cache.Memory.MaxEntries != 500 {
		t.Errorf("max entries = %d", c.Cache.Memory.MaxEntries)
	}
	if c.Cache.Redis.Host != "redis.internal" || c.Cache.Redis.Port != 6380 || c.Cache.Redis.DB != 2 {
		t.Errorf("redis = %+v", c.Cache.Redis)
	}
	if c.DefaultTTL() != 2*time.Hour {
		t.Errorf("default ttl = %v", c.DefaultTTL())
	}
	if c.TenantTTL() != 15*time.Minute {
		t.Errorf("tenant ttl = %v", c.TenantTTL())
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	p := writeYAML(t, `
cache:
  default_ttl: 2h
  strategy: write-through
  redis:
    host: from-yaml
`)

	t.Setenv("CACHE_DEFAULT_TTL", "45m")
	t.Setenv("CACHE_STRATEGY", "remote-first")
	t.Setenv("CACHE_REDIS_HOST", "from-env")
	t.Setenv("CACHE_REDIS_PORT", "7000")
	t.Setenv("CACHE_ENABLED", "true")

	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}

	if c.DefaultTTL() != 45*time.Minute {
		t.Errorf("default ttl = %v", c.DefaultTTL())
	}
	if c.Cache.Strategy != "remote-first" {
		t.Errorf("strategy = %q", c.Cache.Strategy)
	}
	if c.Cache.Redis.Host != "from-env" || c.Cache.Redis.Port != 7000 {
		t.Errorf("redis = %+v", c.Cache.Redis)
	}
	if !c.Cache.Enabled {
		t.Error("CACHE_ENABLED not applied")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	p := writeYAML(t, `
cache:
  default_ttl: not-a-duration
  strategy: sideways
  tenant:
    default_ttl: "???"
`)

	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}

	// Bad durations and strategies do not kill startup.
	if c.DefaultTTL() != time.Hour {
		t.Errorf("default ttl = %v", c.DefaultTTL())
	}
	if c.Cache.Strategy != "memory-first" {
		t.Errorf("strategy = %q", c.Cache.Strategy)
	}
	if c.TenantTTL() != 30*time.Minute {
		t.Errorf("tenant ttl = %v", c.TenantTTL())
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	p := writeYAML(t, "cache: [not a mapping")
	if _, err := Load(p); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_NegativeMaxEntries(t *testing.T) {
	p := writeYAML(t, `
cache:
  memory:
    max_entries: -5
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected validation error")
	}
}
