package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tenantcache/internal/cache"
	"github.com/dropDatabas3/tenantcache/internal/config"
	"github.com/dropDatabas3/tenantcache/internal/httpapi"
	"github.com/dropDatabas3/tenantcache/internal/metrics"
	"github.com/dropDatabas3/tenantcache/internal/observability/logger"
)

var version = "dev"

func main() {
	// .env es opcional; las env reales pisan al archivo.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:     "tenantcache",
		Short:   "Capa de cache multi-nivel con aislamiento por tenant",
		Version: version,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("TENANTCACHE_CONFIG", "config.yaml"), "ruta del config YAML")

	root.AddCommand(serveCmd(&cfgPath))
	root.AddCommand(statsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor de observación/administración del cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       os.Getenv("LOG_LEVEL"),
				ServiceName: "tenantcache",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			keys := cache.NewBuilder(cfg.Cache.KeyPrefix)

			mem := cache.NewMemory(cache.MemoryConfig{
				MaxEntries:    cfg.Cache.Memory.MaxEntries,
				DefaultTTL:    cfg.DefaultTTL(),
				SweepInterval: cfg.CleanupInterval(),
				Eviction:      cfg.Cache.Memory.Eviction,
				Logger:        log,
			})

			// Tier 2 opcional: sin host, o con Redis caído, arrancamos en
			// modo memoria sola (fallback silencioso, como siempre).
			var remote cache.Store
			if host := strings.TrimSpace(cfg.Cache.Redis.Host); host != "" {
				r, err := cache.NewRedis(cache.RedisConfig{
					Host:     host,
					Port:     cfg.Cache.Redis.Port,
					Password: cfg.Cache.Redis.Password,
					DB:       cfg.Cache.Redis.DB,
					Cluster:  cfg.Cache.Redis.Cluster,
					Prefix:   "tenantcache",
				})
				if err != nil {
					log.Warn("redis unavailable, running memory-only", logger.Err(err))
				} else {
					remote = r
				}
			}

			ml := cache.NewMultiLevel(mem, remote, cache.MultiLevelConfig{
				Strategy:   cache.ParseStrategy(cfg.Cache.Strategy),
				DefaultTTL: cfg.DefaultTTL(),
				Logger:     log,
			})
			defer func() { _ = ml.Close() }()

			tc := cache.NewTenantCache(ml, keys, cache.TenantCacheConfig{
				DefaultTTL: cfg.TenantTTL(),
				Logger:     log,
			})

			if cfg.Cache.Metrics.Enabled {
				if err := metrics.Register(nil, metrics.NewCollector(ml.Stats)); err != nil {
					log.Warn("metrics registration failed", logger.Err(err))
				}
				obsCtx, obsCancel := context.WithCancel(context.Background())
				defer obsCancel()
				go metrics.Observe(obsCtx, cfg.MetricsInterval(), ml.Stats, log)
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           httpapi.NewRouter(httpapi.Deps{Tenant: tc, Multi: ml}),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			log.Info("tenantcache listening",
				logger.String("addr", cfg.Server.Addr),
				logger.Strategy(cfg.Cache.Strategy),
				logger.Bool("redis", remote != nil),
			)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-stop:
			}

			log.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}

func statsCmd() *cobra.Command {
	var baseURL, tenant string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Imprime las estadísticas del cache de un server corriendo",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimRight(baseURL, "/") + "/v1/cache/stats"
			req, err := http.NewRequest(http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			if tenant != "" {
				req.Header.Set("X-Tenant", tenant)
			}

			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			var v any
			if json.Unmarshal(body, &v) == nil {
				pretty, _ := json.MarshalIndent(v, "", "  ")
				fmt.Println(string(pretty))
				return nil
			}
			fmt.Println(string(body))
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", envOr("TENANTCACHE_URL", "http://localhost:8085"), "URL base del server (env TENANTCACHE_URL)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant para el scope del request")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
