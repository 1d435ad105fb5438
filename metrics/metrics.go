// Package metrics defines the Prometheus metric collectors used by chatter
// and exposes an HTTP handler for scraping.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes recorded by QueriesTotal.
const (
	OutcomeMatch   = "match"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	QueriesTotal        *prometheus.CounterVec
	MatchLatency        prometheus.Histogram
	MatchScore          prometheus.Histogram
	SnapshotEntries     prometheus.Gauge
	SnapshotVocabulary  prometheus.Gauge
	TrainingsTotal      prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them with reg.
// A nil reg uses a fresh registry, so repeated calls never collide.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatter_queries_total",
				Help: "Total queries answered by outcome (match, no_match, error).",
			},
			[]string{"outcome"},
		),
		MatchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chatter_match_latency_seconds",
				Help:    "Time spent scoring a query against the knowledge base.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
			},
		),
		MatchScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chatter_match_score",
				Help:    "Score of the winning knowledge base entry.",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
		SnapshotEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chatter_snapshot_entries",
				Help: "Number of knowledge base entries in the loaded snapshot.",
			},
		),
		SnapshotVocabulary: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chatter_snapshot_vocabulary",
				Help: "Number of vocabulary tokens in the loaded snapshot.",
			},
		),
		TrainingsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chatter_trainings_total",
				Help: "Total completed training runs.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatter_http_requests_total",
				Help: "Total number of HTTP requests by path and status.",
			},
			[]string{"path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatter_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"path"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.QueriesTotal,
		m.MatchLatency,
		m.MatchScore,
		m.SnapshotEntries,
		m.SnapshotVocabulary,
		m.TrainingsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// ObserveQuery records one answered query.
func (m *Metrics) ObserveQuery(outcome string, score float64, elapsed time.Duration) {
	m.QueriesTotal.WithLabelValues(outcome).Inc()
	m.MatchLatency.Observe(elapsed.Seconds())
	if outcome == OutcomeMatch {
		m.MatchScore.Observe(score)
	}
}

// SetSnapshot records the size of the loaded snapshot.
func (m *Metrics) SetSnapshot(vocabulary, entries int) {
	m.SnapshotVocabulary.Set(float64(vocabulary))
	m.SnapshotEntries.Set(float64(entries))
}

// Handler returns the Prometheus scrape HTTP handler for these collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
