// Package monitoring collects Prometheus metrics for the client and the
// stub backend.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/snackhack/client/internal/application/session"
	"github.com/snackhack/client/internal/application/typeahead"
	"github.com/snackhack/client/internal/infrastructure/api"
)

var (
	_ typeahead.Recorder = (*MetricsCollector)(nil)
	_ session.Recorder   = (*MetricsCollector)(nil)
	_ api.Recorder       = (*MetricsCollector)(nil)
)

// MetricsCollector handles Prometheus metrics collection. Each collector
// owns its registry so several can coexist in one process.
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// Typeahead metrics
	lookupsIssued  prometheus.Counter
	lookupFailures *prometheus.CounterVec
	staleDiscarded *prometheus.CounterVec

	// Session metrics
	recipeRequests        *prometheus.CounterVec
	recipeRequestDuration *prometheus.HistogramVec
	guardRejections       *prometheus.CounterVec
	incompleteRecipes     prometheus.Counter

	// Backend calls made by the client
	apiRequests        *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec

	// HTTP metrics for the stub backend
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetricsCollector creates a new metrics collector under namespace
func NewMetricsCollector(namespace string, logger *zap.Logger) *MetricsCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger,
		registry: reg,

		lookupsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_issued_total",
			Help:      "Debounced validation and autocomplete rounds issued",
		}),
		lookupFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_failures_total",
			Help:      "Lookups that degraded because the service failed",
		}, []string{"kind"}),
		staleDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_stale_discarded_total",
			Help:      "Lookup results dropped because the input had moved on",
		}, []string{"kind"}),

		recipeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipe_requests_total",
			Help:      "Recipe requests that reached the backend, by outcome",
		}, []string{"outcome"}),
		recipeRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recipe_request_duration_seconds",
			Help:      "Time from request to settle, including the completeness delay",
			Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"outcome"}),
		guardRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipe_guard_rejections_total",
			Help:      "Recipe requests refused before any network call",
		}, []string{"code"}),
		incompleteRecipes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incomplete_recipes_total",
			Help:      "Recipes that looked truncated on arrival",
		}),

		apiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Backend requests by endpoint and status",
		}, []string{"endpoint", "status_code"}),
		apiRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Backend request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		}, []string{"method", "path", "status_code"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// LookupIssued implements typeahead.Recorder
func (m *MetricsCollector) LookupIssued() {
	m.lookupsIssued.Inc()
}

// LookupFailed implements typeahead.Recorder
func (m *MetricsCollector) LookupFailed(kind string) {
	m.lookupFailures.WithLabelValues(kind).Inc()
}

// StaleDiscarded implements typeahead.Recorder
func (m *MetricsCollector) StaleDiscarded(kind string) {
	m.staleDiscarded.WithLabelValues(kind).Inc()
}

// RecipeRequestSettled implements session.Recorder
func (m *MetricsCollector) RecipeRequestSettled(outcome string, elapsed time.Duration) {
	m.recipeRequests.WithLabelValues(outcome).Inc()
	m.recipeRequestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecipeGuardRejected implements session.Recorder
func (m *MetricsCollector) RecipeGuardRejected(code string) {
	m.guardRejections.WithLabelValues(code).Inc()
}

// IncompleteRecipes implements session.Recorder
func (m *MetricsCollector) IncompleteRecipes(n int) {
	if n > 0 {
		m.incompleteRecipes.Add(float64(n))
	}
}

// RequestCompleted implements api.Recorder. Status 0 means the request
// never got a response.
func (m *MetricsCollector) RequestCompleted(endpoint string, status int, elapsed time.Duration) {
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(endpoint, code).Inc()
	m.apiRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// HTTPMiddleware records request counts and durations for served routes,
// labelled by route pattern when chi has matched one
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(m.logger),
	})
}
