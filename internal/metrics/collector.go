// Package metrics exposes Prometheus collectors for evidence submissions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "evidence_sync"

// Collector groups the submission metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	submissions      *prometheus.CounterVec
	recordsEmitted   *prometheus.CounterVec
	recordsUnchanged prometheus.Counter
	unclassified     prometheus.Counter
	latency          *prometheus.HistogramVec
}

// NewCollector registers the collectors on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Backend submissions by evidence kind, operation and status.",
		}, []string{"kind", "operation", "status"}),
		recordsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Evidence records sent to the backend by kind.",
		}, []string{"kind"}),
		recordsUnchanged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_unchanged_total",
			Help:      "Evidence records skipped because their content was already submitted.",
		}),
		unclassified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unclassified_paths_total",
			Help:      "Accepted edits without a backend representation.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Submission latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	registry.MustRegister(
		c.submissions,
		c.recordsEmitted,
		c.recordsUnchanged,
		c.unclassified,
		c.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the collectors live in.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveSubmission records one finished submission.
func (c *Collector) ObserveSubmission(kind, operation, status string, records int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.submissions.WithLabelValues(kind, operation, status).Inc()
	if records > 0 {
		c.recordsEmitted.WithLabelValues(kind).Add(float64(records))
	}
	c.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordsUnchanged counts records skipped by the fingerprint check.
func (c *Collector) RecordsUnchanged(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.recordsUnchanged.Add(float64(n))
}

// Unclassified counts an accepted edit that has no evidence.
func (c *Collector) Unclassified() {
	if c == nil {
		return
	}
	c.unclassified.Inc()
}
