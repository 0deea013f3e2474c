package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "callforward"

// Sweep row outcomes
const (
	OutcomeReleased       = "released"
	OutcomeProviderFailed = "provider_failed"
	OutcomeLedgerFailed   = "ledger_failed"
	OutcomeSkipped        = "skipped"
)

// Assignment outcomes
const (
	OutcomePurchased = "purchased"
	OutcomeReused    = "reused"
	OutcomeFailed    = "failed"
)

// Notification channels and statuses
const (
	ChannelCallerSMS     = "caller_sms"
	ChannelOperatorAlert = "operator_alert"
	ChannelPush          = "push"
	ChannelSMSCallback   = "sms_callback"

	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusGone    = "gone"
)

// Collector wraps the Prometheus metrics of the service.
// It keeps its own registry so tests can build as many collectors as they need.
type Collector struct {
	registry *prometheus.Registry

	ReconciliationGaps  *prometheus.CounterVec
	SweepRows           *prometheus.CounterVec
	Assignments         *prometheus.CounterVec
	WebhookEvents       *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector with every metric registered
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		ReconciliationGaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_gaps_total",
			Help:      "Purchased numbers that could not be released after a failed ledger write",
		}, []string{"stage"}),
		SweepRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_rows_total",
			Help:      "Expired bindings handled by the sweeper by outcome",
		}, []string{"outcome"}),
		Assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_total",
			Help:      "Number assignment invocations by outcome",
		}, []string{"outcome"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment webhook events by type and result",
		}, []string{"event_type", "result"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outbound notifications by channel and status",
		}, []string{"channel", "status"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	reg.MustRegister(
		c.ReconciliationGaps,
		c.SweepRows,
		c.Assignments,
		c.WebhookEvents,
		c.NotificationsSent,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Handler returns an HTTP handler that serves Prometheus metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordReconciliationGap(stage string) {
	c.ReconciliationGaps.WithLabelValues(stage).Inc()
}

func (c *Collector) RecordSweepRow(outcome string) {
	c.SweepRows.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordAssignment(outcome string) {
	c.Assignments.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordWebhookEvent(eventType, result string) {
	c.WebhookEvents.WithLabelValues(eventType, result).Inc()
}

func (c *Collector) RecordNotification(channel, status string) {
	c.NotificationsSent.WithLabelValues(channel, status).Inc()
}

// RecordHTTPRequest records an HTTP request metric
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	c.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
