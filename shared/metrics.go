package shared

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus collectors exported by the service
type Metrics struct {
	registry      *prometheus.Registry
	sourceFetches *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	replayScrapes *prometheus.CounterVec
	jobRuns       *prometheus.CounterVec
}

// NewMetrics registers all collectors on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		sourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nba_watcher",
			Name:      "source_fetches_total",
			Help:      "Upstream fetches by source and outcome.",
		}, []string{"source", "status"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nba_watcher",
			Name:      "source_fetch_duration_seconds",
			Help:      "Upstream fetch latency by source.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"source"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nba_watcher",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		replayScrapes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nba_watcher",
			Name:      "replay_scrapes_total",
			Help:      "Replay embed extraction outcomes.",
		}, []string{"outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nba_watcher",
			Name:      "job_runs_total",
			Help:      "Background job runs by job and result.",
		}, []string{"job", "result"}),
	}

	registry.MustRegister(m.sourceFetches, m.fetchDuration, m.cacheLookups, m.replayScrapes, m.jobRuns)
	return m
}

// RecordFetch records one upstream fetch
func (m *Metrics) RecordFetch(source, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sourceFetches.WithLabelValues(source, status).Inc()
	m.fetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordCacheLookup records a cache hit, miss or error
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordReplayScrape records the terminal state of one replay extraction
func (m *Metrics) RecordReplayScrape(outcome string) {
	if m == nil {
		return
	}
	m.replayScrapes.WithLabelValues(outcome).Inc()
}

// RecordJobRun records a background job completion
func (m *Metrics) RecordJobRun(job, result string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
