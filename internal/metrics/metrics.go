package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry with the HTTP and domain collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	service  string

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	statuses *prometheus.CounterVec

	sessions     *prometheus.CounterVec
	logins       *prometheus.CounterVec
	transactions *prometheus.CounterVec
}

// New creates and registers the collectors for service.
func New(service string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		service:  service,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path", "status"}),
		statuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		}, []string{"service", "category"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_sessions_created_total",
			Help: "Sessions created by register and login",
		}, []string{"service", "source"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_failures_total",
			Help: "Rejected login attempts by reason",
		}, []string{"service", "reason"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_recorded_total",
			Help: "Transactions written by the recorder, split by whether a conversion snapshot was stored",
		}, []string{"service", "converted"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.statuses,
		m.sessions, m.logins, m.transactions,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requests.WithLabelValues(m.service, method, path, code).Inc()
	m.duration.WithLabelValues(m.service, method, path, code).Observe(elapsed.Seconds())
	if category := statusCategory(status); category != "" {
		m.statuses.WithLabelValues(m.service, category).Inc()
	}
}

// SessionCreated counts a new session; source is "register" or "login".
func (m *Metrics) SessionCreated(source string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(m.service, source).Inc()
}

// LoginFailed counts a rejected login.
func (m *Metrics) LoginFailed(reason string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(m.service, reason).Inc()
}

// TransactionRecorded counts a created or updated transaction.
func (m *Metrics) TransactionRecorded(converted bool) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(m.service, strconv.FormatBool(converted)).Inc()
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return ""
	}
}
