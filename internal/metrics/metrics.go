package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_http_requests_total",
			Help: "Total HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messaging_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	sendAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_send_attempts_total",
			Help: "Carrier send attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	fallbacksUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_fallbacks_total",
			Help: "Fallback activations by primary and fallback provider",
		},
		[]string{"primary", "fallback"},
	)

	templateResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_template_resolutions_total",
			Help: "Template resolutions by type and winning source tier",
		},
		[]string{"template_type", "source"},
	)

	settingsCacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_settings_cache_events_total",
			Help: "Settings cache hits, refreshes, and storage fallbacks",
		},
		[]string{"event"},
	)

	webhookProvisioning = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_webhook_provisioning_total",
			Help: "Webhook provisioning runs by outcome",
		},
		[]string{"outcome"},
	)

	rateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_rate_limit_rejections_total",
			Help: "Requests rejected by rate limiter",
		},
		[]string{"client_id"},
	)

	idempotencyHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_idempotency_hits_total",
			Help: "Send requests served from idempotency cache",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSendAttempt records one carrier attempt outcome.
func RecordSendAttempt(provider, outcome string) {
	sendAttempts.WithLabelValues(provider, outcome).Inc()
}

// RecordFallback records a fallback activation.
func RecordFallback(primary, fallback string) {
	fallbacksUsed.WithLabelValues(primary, fallback).Inc()
}

// RecordTemplateResolution records which tier won a resolution.
func RecordTemplateResolution(templateType, source string) {
	templateResolutions.WithLabelValues(templateType, source).Inc()
}

// RecordSettingsCacheEvent records a cache hit, refresh, or default fallback.
func RecordSettingsCacheEvent(event string) {
	settingsCacheEvents.WithLabelValues(event).Inc()
}

// RecordWebhookProvisioning records a provisioning outcome.
func RecordWebhookProvisioning(outcome string) {
	webhookProvisioning.WithLabelValues(outcome).Inc()
}

// RecordRateLimitRejection records a rate limit rejection
func RecordRateLimitRejection(clientID string) {
	rateLimitRejections.WithLabelValues(clientID).Inc()
}

// RecordIdempotencyHit records a cache hit for idempotency
func RecordIdempotencyHit() {
	idempotencyHits.Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns HTTP middleware that records request metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		RecordRequest(r.Method, r.URL.Path, wrapped.status, time.Since(start))
	})
}
