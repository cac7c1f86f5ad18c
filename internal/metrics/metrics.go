package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const divisor = 100

// Metrics holds the Prometheus collectors of the relay.
type Metrics struct {
	// RED (Rate, Errors, Duration) for HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestDuration  *prometheus.HistogramVec

	// Business metrics
	SubscriptionsTotal *prometheus.CounterVec // by result

	EmailSentTotal    *prometheus.CounterVec
	EmailErrorsTotal  *prometheus.CounterVec
	EmailSendDuration *prometheus.HistogramVec

	ServiceStartTime prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics under the given namespace on
// a private registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests total",
			},
			[]string{"method", "endpoint", "status_class"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "In-flight HTTP requests",
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		SubscriptionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscriptions_total",
				Help:      "Subscription requests by result",
			},
			[]string{"result"},
		),
		EmailSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "email_sent_total",
				Help:      "Total number of emails accepted by the mail channel",
			},
			[]string{"channel"},
		),
		EmailErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "email_errors_total",
				Help:      "Total number of email send failures",
			},
			[]string{"channel"},
		),
		EmailSendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "email_send_duration_seconds",
				Help:      "Duration of mail channel calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"channel"},
		),
		ServiceStartTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_start_timestamp_seconds",
				Help:      "UNIX time the service started",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.HTTPRequestDuration,
		m.SubscriptionsTotal,
		m.EmailSentTotal,
		m.EmailErrorsTotal,
		m.EmailSendDuration,
		m.ServiceStartTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.ServiceStartTime.SetToCurrentTime()

	return m
}

// Handler exposes the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPMiddleware instruments Gin HTTP handlers for RED metrics.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		statusClass := fmt.Sprintf("%dxx", c.Writer.Status()/divisor)

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, statusClass).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// RecordSubscription counts a handled subscription by result
// ("sent", "failed" or "invalid").
func (m *Metrics) RecordSubscription(result string) {
	m.SubscriptionsTotal.WithLabelValues(result).Inc()
}

// RecordEmail records one mail channel call.
func (m *Metrics) RecordEmail(channel string, duration time.Duration, err error) {
	m.EmailSendDuration.WithLabelValues(channel).Observe(duration.Seconds())
	if err != nil {
		m.EmailErrorsTotal.WithLabelValues(channel).Inc()
		return
	}
	m.EmailSentTotal.WithLabelValues(channel).Inc()
}
