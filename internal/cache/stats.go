package cache

import "sync/atomic"

// counters acumula métricas de una instancia de cache.
// Todos los campos son atómicos; no requiere lock propio.
type counters struct {
	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
	errors  atomic.Int64
}

// Stats es un snapshot de los contadores de una instancia.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Deletes int64   `json:"deletes"`
	Errors  int64   `json:"errors"`
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate"`
}

func (c *counters) snapshot() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Deletes: c.deletes.Load(),
		Errors:  c.errors.Load(),
		HitRate: hitRate(hits, misses),
	}
}

// hitRate = hits/(hits+misses); 0 cuando todavía no hubo requests.
// Siempre está en [0,1].
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// CombinedStats agrega los contadores de ambos niveles vistos desde el
// orquestador. El hit rate global cuenta un hit si CUALQUIER nivel
// respondió: (tier1Hits + tier2Hits) / totalRequests.
type CombinedStats struct {
	Memory        Stats   `json:"memory"`
	RemoteHits    int64   `json:"remote_hits"`
	RemoteMisses  int64   `json:"remote_misses"`
	RemoteErrors  int64   `json:"remote_errors"`
	TotalRequests int64   `json:"total_requests"`
	HitRate       float64 `json:"hit_rate"`
}
