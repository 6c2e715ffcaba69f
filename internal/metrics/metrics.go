// Package metrics exposes Prometheus instrumentation for the grievance backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grievance"

// Metrics holds all backend Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Submission pipeline
	Submissions          *prometheus.CounterVec
	EmbeddingUnavailable prometheus.Counter
	DuplicateScore       prometheus.Histogram

	// SLA sweep
	Escalations        prometheus.Counter
	EscalationFailures prometheus.Counter
	SweepDuration      prometheus.Histogram
	SweepsSkipped      prometheus.Counter

	// Notifications
	NotificationsSent *prometheus.CounterVec
	WebsocketClients  prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers every metric on a fresh registry, so tests can build as many
// instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Grievance submissions by outcome (assigned, submitted, duplicate, failed).",
		}, []string{"outcome"}),
		EmbeddingUnavailable: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_unavailable_total",
			Help:      "Submissions routed to the fallback path because no embedding was available.",
		}),
		DuplicateScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duplicate_best_score",
			Help:      "Cosine similarity of detected duplicates.",
			Buckets:   []float64{0.5, 0.6, 0.7, 0.8, 0.84, 0.86, 0.88, 0.9, 0.95, 1},
		}),
		Escalations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Grievances escalated by the SLA sweep.",
		}),
		EscalationFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalation_failures_total",
			Help:      "Per-record failures during the SLA sweep.",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sla_sweep_duration_seconds",
			Help:      "Duration of SLA sweep runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		SweepsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_sweeps_skipped_total",
			Help:      "Scheduled sweeps skipped because another replica held the lock.",
		}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Officer notifications by channel and result.",
		}, []string{"channel", "result"}),
		WebsocketClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected live feed clients.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler serves the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
