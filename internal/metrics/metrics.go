// Package metrics exposes Prometheus counters for normalization runs.
//
// Metrics are fed by wrapping the run ledger: every recorded run is
// observed once, whichever entry point produced it.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/csvnorm/internal/ledger"
)

const namespace = "csvnorm"

// Metrics owns a private registry with the run collectors.
type Metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	rows     *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the collectors and registers them alongside the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Normalization runs by source and outcome.",
		}, []string{"source", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Data rows written by successful runs.",
		}, []string{"source"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_bytes_total",
			Help:      "Input bytes read by successful runs.",
		}, []string{"source"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of finished runs.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"source"}),
	}

	m.registry.MustRegister(
		m.runs, m.rows, m.bytes, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe counts one finished run.
func (m *Metrics) Observe(run ledger.Run) {
	source := string(run.Source)
	m.runs.WithLabelValues(source, string(run.Status)).Inc()
	m.duration.WithLabelValues(source).Observe(run.Duration().Seconds())

	if run.Status == ledger.StatusSucceeded {
		m.rows.WithLabelValues(source).Add(float64(run.Rows))
		m.bytes.WithLabelValues(source).Add(float64(run.BytesRead))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// InstrumentStore returns a Store that observes every recorded run before
// handing it to store.
func (m *Metrics) InstrumentStore(store ledger.Store) ledger.Store {
	return &observedStore{Store: store, metrics: m}
}

type observedStore struct {
	ledger.Store
	metrics *Metrics
}

func (s *observedStore) Record(ctx context.Context, run ledger.Run) error {
	s.metrics.Observe(run)
	return s.Store.Record(ctx, run)
}
