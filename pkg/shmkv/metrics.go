package shmkv

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a store's counters to prometheus. Both values come
// from the gate-free atomic peeks, so scraping never blocks behind a
// mutation in another process.
type Collector struct {
	store   *Store
	version *prometheus.Desc
	entries *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector builds a collector for the given store handle.
func NewCollector(s *Store) *Collector {
	labels := prometheus.Labels{"region": s.Name()}
	return &Collector{
		store: s,
		version: prometheus.NewDesc(
			"shmkv_version",
			"Mutation counter of the shared table. Wraps at 2^32.",
			nil, labels,
		),
		entries: prometheus.NewDesc(
			"shmkv_entries",
			"Number of occupied slots in the shared table.",
			nil, labels,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.version
	ch <- c.entries
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.version, prometheus.CounterValue, float64(c.store.Version()))
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(c.store.EntryCount()))
}
