package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Observe loguea un resumen de los contadores cada interval hasta que el
// contexto se cancele. Es el complemento push del Collector: deja rastro
// en los logs aunque nadie scrapee /metrics. Corre en su propia goroutine.
func Observe(ctx context.Context, interval time.Duration, stats StatsFunc, log *zap.Logger) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s := stats()
			log.Info("cache stats",
				zap.Int64("memory_hits", s.Memory.Hits),
				zap.Int64("memory_misses", s.Memory.Misses),
				zap.Int64("remote_hits", s.RemoteHits),
				zap.Int64("remote_misses", s.RemoteMisses),
				zap.Int64("remote_errors", s.RemoteErrors),
				zap.Int("entries", s.Memory.Entries),
				zap.Int64("requests", s.TotalRequests),
				zap.Float64("hit_rate", s.HitRate),
			)
		}
	}
}
