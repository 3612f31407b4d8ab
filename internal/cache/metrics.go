package cache

import "github.com/prometheus/client_golang/prometheus"

// metrics are the cache's Prometheus instruments, registered lazily
// so a Cache used purely in tests never touches the default registry
// unless the caller opts in via RegisterMetrics.
type metrics struct {
	bytesInUse prometheus.Gauge
	evictions  prometheus.Counter
	openFiles  prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		bytesInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "freyafs_cache_bytes_in_use",
			Help: "Plaintext bytes currently held in the FreyaFS cache.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freyafs_cache_evictions_total",
			Help: "Number of cache entries evicted to free memory.",
		}),
		openFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "freyafs_cache_open_files",
			Help: "Number of distinct path_ids currently resident in the cache (loaded or evicted-but-open).",
		}),
	}
}

// RegisterMetrics registers c's instruments with reg.
func (c *Cache) RegisterMetrics(reg prometheus.Registerer) error {
	for _, coll := range []prometheus.Collector{c.metrics.bytesInUse, c.metrics.evictions, c.metrics.openFiles} {
		if err := reg.Register(coll); err != nil {
			return err
		}
	}
	return nil
}
