package cache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MultiLevelConfig configura el orquestador.
type MultiLevelConfig struct {
	// Strategy por defecto para escrituras. Default: memory-first.
	Strategy Strategy

	// DefaultTTL cuando Options no trae uno. Default: DefaultTTL.
	DefaultTTL time.Duration

	// WarmUpConcurrency acota el fan-out de WarmUp. Default: 8.
	WarmUpConcurrency int

	Logger *zap.Logger
}

// MultiLevel coordina el Tier 1 con un Tier 2 remoto opcional.
//
// Lecturas: Tier 1 primero; en miss consulta Tier 2 y, si hay hit, hace
// backfill del Tier 1 antes de responder. Cualquier falla del Tier 2 se
// loguea, se cuenta y se trata como miss: un Redis caído degrada a
// comportamiento Tier-1-only, jamás voltea el request del caller.
type MultiLevel struct {
	l1 *Memory
	l2 Store // nil ⇒ sin nivel remoto

	strategy   Strategy
	defaultTTL time.Duration
	warmConc   int
	log        *zap.Logger

	remoteHits    atomic.Int64
	remoteMisses  atomic.Int64
	remoteErrors  atomic.Int64
	totalRequests atomic.Int64
}

// NewMultiLevel crea el orquestador. l2 puede ser nil (modo memoria sola).
func NewMultiLevel(l1 *Memory, l2 Store, cfg MultiLevelConfig) *MultiLevel {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.WarmUpConcurrency <= 0 {
		cfg.WarmUpConcurrency = 8
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &MultiLevel{
		l1:         l1,
		l2:         l2,
		strategy:   ParseStrategy(string(cfg.Strategy)),
		defaultTTL: cfg.DefaultTTL,
		warmConc:   cfg.WarmUpConcurrency,
		log:        cfg.Logger,
	}
}

// Get busca en Tier 1, cae a Tier 2 y hace backfill en hit remoto.
func (c *MultiLevel) Get(ctx context.Context, key string) ([]byte, error) {
	c.totalRequests.Add(1)

	if v, err := c.l1.Get(ctx, key); err == nil {
		return v, nil
	}

	if c.l2 == nil {
		return nil, ErrNotFound
	}

	v, err := c.l2.Get(ctx, key)
	if err != nil {
		if IsNotFound(err) {
			c.remoteMisses.Add(1)
			return nil, ErrNotFound
		}
		// Falla remota = miss, nunca error para el caller.
		c.remoteErrors.Add(1)
		c.log.Warn("cache: tier 2 get failed, treating as miss",
			zap.String("key", key), zap.Error(err))
		return nil, ErrNotFound
	}

	c.remoteHits.Add(1)

	// Backfill: el próximo Get de esta key se sirve del Tier 1.
	_ = c.l1.Set(ctx, key, v, 0)

	return v, nil
}

// Set escribe según la estrategia (la de opts pisa la del orquestador).
func (c *MultiLevel) Set(ctx context.Context, key string, value []byte, opts *Options) error {
	ttl := c.defaultTTL
	strategy := c.strategy
	var tags []string
	if opts != nil {
		if opts.TTL > 0 {
			ttl = opts.TTL
		}
		if opts.Strategy != "" {
			strategy = ParseStrategy(string(opts.Strategy))
		}
		tags = opts.Tags
	}

	switch strategy {
	case StrategyRemoteFirst:
		c.setRemote(ctx, key, value, ttl)
		return c.l1.SetWithTags(key, value, ttl, tags)

	case StrategyWriteThrough:
		if err := c.l1.SetWithTags(key, value, ttl, tags); err != nil {
			return err
		}
		c.setRemote(ctx, key, value, ttl)
		return nil

	default: // memory-first
		if err := c.l1.SetWithTags(key, value, ttl, tags); err != nil {
			return err
		}
		c.setRemote(ctx, key, value, ttl)
		return nil
	}
}

// setRemote escribe el Tier 2 best-effort: el fallo se loguea y se cuenta.
func (c *MultiLevel) setRemote(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c.l2 == nil {
		return
	}
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		c.remoteErrors.Add(1)
		c.log.Warn("cache: tier 2 set failed",
			zap.String("key", key), zap.Error(err))
	}
}

// Delete elimina la key de ambos niveles incondicionalmente.
func (c *MultiLevel) Delete(ctx context.Context, key string) error {
	_ = c.l1.Delete(ctx, key)
	if c.l2 != nil {
		if err := c.l2.Delete(ctx, key); err != nil {
			c.remoteErrors.Add(1)
			c.log.Warn("cache: tier 2 delete failed",
				zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// Exists reporta true si CUALQUIER nivel tiene la key viva.
func (c *MultiLevel) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := c.l1.Exists(ctx, key); ok {
		return true, nil
	}
	if c.l2 == nil {
		return false, nil
	}
	ok, err := c.l2.Exists(ctx, key)
	if err != nil {
		c.remoteErrors.Add(1)
		c.log.Warn("cache: tier 2 exists failed",
			zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return ok, nil
}

// Clear limpia el Tier 1 ("" = todo). Nunca hace flush del Tier 2: es
// estado compartido entre procesos y no tiene clear por patrón (limitación
// conocida). Retorna cuántas keys eliminó.
func (c *MultiLevel) Clear(pattern string) int {
	return c.l1.Clear(pattern)
}

// InvalidateByPattern elimina del Tier 1 toda key que matchee. Es la
// primitiva de la invalidación declarativa por patrón. Misma limitación
// Tier-1-only que Clear.
func (c *MultiLevel) InvalidateByPattern(pattern string) int {
	return c.l1.Clear(pattern)
}

// InvalidateMatching elimina del Tier 1 toda key que el predicado acepte.
// La invalidación por tenant usa esta variante: el predicado entiende la
// estructura de la key, cosa que un glob no puede garantizar.
func (c *MultiLevel) InvalidateMatching(match func(key string) bool) int {
	return c.l1.ClearFunc(match)
}

// WarmUp lee cada key del Tier 2 y la empuja al Tier 1 si está presente.
// Reduce latencia de arranque en frío. Retorna cuántas keys cargó.
func (c *MultiLevel) WarmUp(ctx context.Context, keys []string) int {
	if c.l2 == nil || len(keys) == 0 {
		return 0
	}

	var warmed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.warmConc)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			v, err := c.l2.Get(gctx, key)
			if err != nil {
				if !IsNotFound(err) {
					c.remoteErrors.Add(1)
					c.log.Warn("cache: warm-up read failed",
						zap.String("key", key), zap.Error(err))
				}
				return nil // best-effort, nunca corta el grupo
			}
			if c.l1.SetWithTags(key, v, 0, nil) == nil {
				warmed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	n := int(warmed.Load())
	c.log.Info("cache: warm-up complete",
		zap.Int("requested", len(keys)), zap.Int("warmed", n))
	return n
}

// Ping verifica ambos niveles; el Tier 2 solo si está configurado.
func (c *MultiLevel) Ping(ctx context.Context) error {
	if err := c.l1.Ping(ctx); err != nil {
		return err
	}
	if c.l2 != nil {
		return c.l2.Ping(ctx)
	}
	return nil
}

// Close cierra ambos niveles.
func (c *MultiLevel) Close() error {
	err := c.l1.Close()
	if c.l2 != nil {
		if e := c.l2.Close(); err == nil {
			err = e
		}
	}
	return err
}

// Stats combina los contadores del Tier 1 con los hits remotos propios.
func (c *MultiLevel) Stats() CombinedStats {
	mem := c.l1.Stats()
	remoteHits := c.remoteHits.Load()
	total := c.totalRequests.Load()

	rate := 0.0
	if total > 0 {
		rate = float64(mem.Hits+remoteHits) / float64(total)
		if rate > 1 {
			rate = 1
		}
	}

	return CombinedStats{
		Memory:        mem,
		RemoteHits:    remoteHits,
		RemoteMisses:  c.remoteMisses.Load(),
		RemoteErrors:  c.remoteErrors.Load(),
		TotalRequests: total,
		HitRate:       rate,
	}
}
