// Package metrics expone los contadores de la capa de cache en Prometheus.
// Va en un paquete propio para evitar ciclos de import entre cache y HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/tenantcache/internal/cache"
)

// StatsFunc entrega un snapshot de los contadores del orquestador.
type StatsFunc func() cache.CombinedStats

// Collector traduce snapshots de CombinedStats a métricas const en cada
// scrape. Los contadores viven en la capa de cache; acá solo se exponen.
type Collector struct {
	stats StatsFunc

	hits     *prometheus.Desc
	misses   *prometheus.Desc
	sets     *prometheus.Desc
	deletes  *prometheus.Desc
	errors   *prometheus.Desc
	entries  *prometheus.Desc
	requests *prometheus.Desc
	hitRate  *prometheus.Desc
}

// NewCollector crea el collector sobre la función de stats dada.
func NewCollector(stats StatsFunc) *Collector {
	tier := []string{"tier"}
	return &Collector{
		stats: stats,
		hits: prometheus.NewDesc("tenantcache_hits_total",
			"Hits de cache por nivel", tier, nil),
		misses: prometheus.NewDesc("tenantcache_misses_total",
			"Misses de cache por nivel", tier, nil),
		sets: prometheus.NewDesc("tenantcache_sets_total",
			"Escrituras al Tier 1", nil, nil),
		deletes: prometheus.NewDesc("tenantcache_deletes_total",
			"Deletes del Tier 1", nil, nil),
		errors: prometheus.NewDesc("tenantcache_errors_total",
			"Fallos internos por nivel (nunca visibles al caller)", tier, nil),
		entries: prometheus.NewDesc("tenantcache_entries",
			"Entries vivos en el Tier 1", nil, nil),
		requests: prometheus.NewDesc("tenantcache_requests_total",
			"Requests vistos por el orquestador", nil, nil),
		hitRate: prometheus.NewDesc("tenantcache_hit_ratio",
			"Hit rate global (tier1+tier2)/total, en [0,1]", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.sets
	ch <- c.deletes
	ch <- c.errors
	ch <- c.entries
	ch <- c.requests
	ch <- c.hitRate
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()

	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue,
		float64(s.Memory.Hits), "memory")
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue,
		float64(s.RemoteHits), "redis")
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue,
		float64(s.Memory.Misses), "memory")
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue,
		float64(s.RemoteMisses), "redis")
	ch <- prometheus.MustNewConstMetric(c.sets, prometheus.CounterValue,
		float64(s.Memory.Sets))
	ch <- prometheus.MustNewConstMetric(c.deletes, prometheus.CounterValue,
		float64(s.Memory.Deletes))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue,
		float64(s.Memory.Errors), "memory")
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue,
		float64(s.RemoteErrors), "redis")
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue,
		float64(s.Memory.Entries))
	ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue,
		float64(s.TotalRequests))
	ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue,
		s.HitRate)
}

// Register registra el collector en el registry dado (default si es nil).
func Register(reg prometheus.Registerer, col *Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(col); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}

var _ prometheus.Collector = (*Collector)(nil)
