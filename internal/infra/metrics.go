package infra

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors exposed on /metrics. One
// instance is shared by the API and the worker.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	JobRuns     *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec

	InvoicesCreated   prometheus.Counter
	BatchesCreated    prometheus.Counter
	CollectionResults *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledenbeheer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledenbeheer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledenbeheer",
			Subsystem: "worker",
			Name:      "job_runs_total",
			Help:      "Background job runs by type and outcome.",
		}, []string{"type", "outcome"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledenbeheer",
			Subsystem: "worker",
			Name:      "job_duration_seconds",
			Help:      "Background job run time by type.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"type"}),
		InvoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledenbeheer",
			Subsystem: "billing",
			Name:      "invoices_created_total",
			Help:      "Dues invoices generated.",
		}),
		BatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledenbeheer",
			Subsystem: "sepa",
			Name:      "batches_created_total",
			Help:      "Direct debit batches created.",
		}),
		CollectionResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledenbeheer",
			Subsystem: "sepa",
			Name:      "collection_results_total",
			Help:      "Collection outcomes by result (paid, failed).",
		}, []string{"result"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledenbeheer",
			Subsystem: "outbox",
			Name:      "notifications_total",
			Help:      "Outbox deliveries by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests, m.HTTPDuration,
		m.JobRuns, m.JobDuration,
		m.InvoicesCreated, m.BatchesCreated, m.CollectionResults, m.NotificationsSent,
	)
	return m
}

// Handler serves the metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request. Plugged into the router as
// middleware so infra stays free of router imports.
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveJob records one finished job run.
func (m *Metrics) ObserveJob(jobType, outcome string, elapsed time.Duration) {
	m.JobRuns.WithLabelValues(jobType, outcome).Inc()
	m.JobDuration.WithLabelValues(jobType).Observe(elapsed.Seconds())
}
