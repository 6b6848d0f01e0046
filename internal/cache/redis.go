package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configura el Tier 2.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// Cluster usa un ClusterClient en lugar de un Client simple.
	// En modo cluster DB se ignora (Redis Cluster solo tiene el db 0).
	Cluster bool

	// Prefix aísla las keys de esta aplicación dentro de un Redis
	// compartido. Se antepone a toda key con ":".
	Prefix string
}

// Redis es el Tier 2: el nivel remoto compartido entre instancias.
// Los TTL se delegan a Redis (expiración por key con precisión de ms).
type Redis struct {
	c      redis.Cmdable
	closer interface{ Close() error }
	prefix string
}

// NewRedis crea el cliente del Tier 2 y verifica la conexión con un ping
// (timeout 5s). Si Redis no responde retorna error; el caller decide si
// degrada a Tier-1-only.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	port := cfg.Port
	if port == 0 {
		port = 6379
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)

	var c redis.Cmdable
	var closer interface{ Close() error }

	if cfg.Cluster {
		cc := redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    []string{addr},
			Password: cfg.Password,
		})
		c, closer = cc, cc
	} else {
		sc := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		c, closer = sc, sc
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	return &Redis{c: c, closer: closer, prefix: cfg.Prefix}, nil
}

// newRedisFromClient es para tests (miniredis) y wiring custom.
func newRedisFromClient(c *redis.Client, prefix string) *Redis {
	return &Redis{c: c, closer: c, prefix: prefix}
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.c.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: redis get: %w", err)
	}
	return b, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := r.c.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.c.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.c.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cache: redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.closer.Close()
}

var _ Store = (*Redis)(nil)
