package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the Prometheus counters, gauges, and histograms for one
// pipeline invocation. The pipeline is a batch process with no HTTP
// surface, so metrics are collected on a private registry and, when
// configured, dumped in text exposition format for a node-exporter
// textfile collector.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec // labels: outcome={forecast,gate_closed,error}
	FramesLoaded    prometheus.Counter
	EnsembleMembers prometheus.Gauge

	EngineDuration prometheus.Histogram
	RunDuration    prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics on a fresh
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nowcast",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		FramesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nowcast",
			Name:      "frames_loaded_total",
			Help:      "Radar history frames consumed from the input artifact.",
		}),
		EnsembleMembers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nowcast",
			Name:      "ensemble_members",
			Help:      "Ensemble size of the last completed forecast.",
		}),
		EngineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nowcast",
			Name:      "engine_duration_seconds",
			Help:      "Wall time of the external engine invocation.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nowcast",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a complete pipeline run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.FramesLoaded,
		m.EnsembleMembers,
		m.EngineDuration,
		m.RunDuration,
	)
	return m
}

// WriteTextfile dumps the registry in text exposition format, written
// via a temp file and rename so a scraping collector never sees a
// partial dump.
func (m *Metrics) WriteTextfile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
