package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatRequestsTotal     *prometheus.CounterVec
	chatResultCount       *prometheus.HistogramVec
	chatDuration          *prometheus.HistogramVec
	admissionBlockedTotal *prometheus.CounterVec
	sourcesRegistered     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nba",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nba",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nba",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nba",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total successful chat requests by retrieval outcome.",
		},
		[]string{"service", "outcome"},
	)
	chatResultCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nba",
			Subsystem: "chat",
			Name:      "retrieved_results",
			Help:      "Distribution of ranked results per chat request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nba",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	admissionBlockedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nba",
			Subsystem: "admission",
			Name:      "blocked_total",
			Help:      "Total sources rejected by the content filter.",
		},
		[]string{"service", "stage"},
	)
	sourcesRegistered := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nba",
			Subsystem: "sources",
			Name:      "registered_total",
			Help:      "Total sources accepted for processing by kind.",
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatRequestsTotal,
		chatResultCount,
		chatDuration,
		admissionBlockedTotal,
		sourcesRegistered,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		chatRequestsTotal:     chatRequestsTotal,
		chatResultCount:       chatResultCount,
		chatDuration:          chatDuration,
		admissionBlockedTotal: admissionBlockedTotal,
		sourcesRegistered:     sourcesRegistered,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterSessionGauge exposes the live conversation session count from the
// memory store.
func (m *HTTPServerMetrics) RegisterSessionGauge(service string, sessions func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "nba",
			Subsystem: "memory",
			Name:      "sessions",
			Help:      "Current number of retained conversation sessions.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		sessions,
	))
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/sources/"):
		return "/v1/sources/{source_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordChat(service string, resultCount int, duration time.Duration) {
	outcome := "answered"
	if resultCount == 0 {
		outcome = "no_context"
	}
	m.chatRequestsTotal.WithLabelValues(service, outcome).Inc()
	m.chatResultCount.WithLabelValues(service).Observe(float64(resultCount))
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordAdmissionBlock(service, stage string) {
	if stage == "" {
		stage = "unknown"
	}
	m.admissionBlockedTotal.WithLabelValues(service, stage).Inc()
}

func (m *HTTPServerMetrics) RecordSourceRegistered(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.sourcesRegistered.WithLabelValues(service, kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
