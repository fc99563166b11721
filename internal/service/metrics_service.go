package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "classroom"

// Grant cache lookup results.
const (
	GrantLookupHit   = "hit"
	GrantLookupMiss  = "miss"
	GrantLookupError = "error"
)

// MetricsService owns the Prometheus registry and the collectors of the API. All recording
// methods are safe on a nil receiver so services can run without instrumentation.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	grantLookups    *prometheus.CounterVec
	grantLatency    *prometheus.HistogramVec
	gateDecisions   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	quizAllocations *prometheus.CounterVec
}

// NewMetricsService registers the API collectors plus the Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &MetricsService{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests by route template and status.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		grantLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rbac",
			Name:      "grant_cache_lookups_total",
			Help:      "Role grant cache lookups by result.",
		}, []string{"result"}),
		grantLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "rbac",
			Name:      "grant_cache_seconds",
			Help:      "Latency of role grant cache operations.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"op"}),
		gateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rbac",
			Name:      "gate_decisions_total",
			Help:      "Authorization gate decisions by stage and outcome.",
		}, []string{"stage", "outcome"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		quizAllocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "quiz",
			Name:      "allocations_total",
			Help:      "Quiz allocation runs by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordGrantLookup counts a grant cache read.
func (m *MetricsService) RecordGrantLookup(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.grantLookups.WithLabelValues(result).Inc()
	m.grantLatency.WithLabelValues("get").Observe(duration.Seconds())
}

// ObserveGrantWrite records the latency of a grant cache write or eviction.
func (m *MetricsService) ObserveGrantWrite(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.grantLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordAuthorization counts a gate decision. stage is authenticate, role or permission.
func (m *MetricsService) RecordAuthorization(stage string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.gateDecisions.WithLabelValues(stage, outcome).Inc()
}

// RecordLogin counts a login attempt.
func (m *MetricsService) RecordLogin(success bool) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcomeLabel(success)).Inc()
}

// RecordQuizAllocation counts a finished allocation run.
func (m *MetricsService) RecordQuizAllocation(success bool) {
	if m == nil {
		return
	}
	m.quizAllocations.WithLabelValues(outcomeLabel(success)).Inc()
}

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
