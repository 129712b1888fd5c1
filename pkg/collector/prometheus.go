package collector

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cirocosta/ether-exporter/pkg/snapshot"
)

// SnapshotCollector exposes an already built snapshot through the
// Prometheus collector interface. Collecting from it repeatedly always
// yields the same metrics.
//
type SnapshotCollector struct {
	snapshot *snapshot.Snapshot
}

var _ prometheus.Collector = (*SnapshotCollector)(nil)

// FromSnapshot wraps `s` so that it can be registered into a prometheus
// registry.
//
func FromSnapshot(s *snapshot.Snapshot) *SnapshotCollector {
	return &SnapshotCollector{snapshot: s}
}

// Describe implements the Describe function of the Collector interface.
//
func (c *SnapshotCollector) Describe(_ chan<- *prometheus.Desc) {}

// Collect implements the Collect function of the Collector interface.
//
func (c *SnapshotCollector) Collect(ch chan<- prometheus.Metric) {
	emit(c.snapshot, ch)
}

func emit(s *snapshot.Snapshot, ch chan<- prometheus.Metric) {
	for _, name := range s.Names() {
		def, _ := s.Definition(name)
		readings, _ := s.Readings(name)

		desc := prometheus.NewDesc(def.Name, def.Help, def.Labels, nil)

		for _, r := range readings {
			metric, err := prometheus.NewConstMetric(
				desc,
				valueType(def.Kind),
				r.Value,
				r.LabelValues...,
			)
			if err != nil {
				ch <- prometheus.NewInvalidMetric(desc, err)
				continue
			}

			ch <- metric
		}
	}
}

func valueType(k snapshot.Kind) prometheus.ValueType {
	if k == snapshot.Counter {
		return prometheus.CounterValue
	}

	return prometheus.GaugeValue
}
