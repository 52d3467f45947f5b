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

	assessmentsTotal    *prometheus.CounterVec
	pagesStreamedTotal  *prometheus.CounterVec
	fallbackPagesTotal  *prometheus.CounterVec
	streamDuration      *prometheus.HistogramVec
	complexityObserved  *prometheus.HistogramVec
	documentPagesSeen   *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstream",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstream",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docstream",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	assessmentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstream",
			Subsystem: "pipeline",
			Name:      "assessments_total",
			Help:      "Total document assessments by recommended strategy.",
		},
		[]string{"service", "strategy"},
	)
	pagesStreamedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstream",
			Subsystem: "pipeline",
			Name:      "pages_streamed_total",
			Help:      "Total pages delivered through the streaming pipeline.",
		},
		[]string{"service"},
	)
	fallbackPagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstream",
			Subsystem: "pipeline",
			Name:      "fallback_pages_total",
			Help:      "Total pages extracted through the fallback path by reason.",
		},
		[]string{"service", "reason"},
	)
	streamDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstream",
			Subsystem: "pipeline",
			Name:      "stream_duration_seconds",
			Help:      "Full document stream duration in seconds by strategy.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "strategy"},
	)
	complexityObserved := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstream",
			Subsystem: "pipeline",
			Name:      "complexity_score",
			Help:      "Distribution of assessed complexity scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"service"},
	)
	documentPagesSeen := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstream",
			Subsystem: "pipeline",
			Name:      "document_pages",
			Help:      "Distribution of page counts per assessed document.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		assessmentsTotal,
		pagesStreamedTotal,
		fallbackPagesTotal,
		streamDuration,
		complexityObserved,
		documentPagesSeen,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		assessmentsTotal:   assessmentsTotal,
		pagesStreamedTotal: pagesStreamedTotal,
		fallbackPagesTotal: fallbackPagesTotal,
		streamDuration:     streamDuration,
		complexityObserved: complexityObserved,
		documentPagesSeen:  documentPagesSeen,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
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
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAssessment(service, strategy string, complexity float64, pageCount int) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.assessmentsTotal.WithLabelValues(service, strategy).Inc()
	m.complexityObserved.WithLabelValues(service).Observe(complexity)
	m.documentPagesSeen.WithLabelValues(service).Observe(float64(pageCount))
}

func (m *HTTPServerMetrics) RecordPagesStreamed(service string, pages int) {
	if pages <= 0 {
		return
	}
	m.pagesStreamedTotal.WithLabelValues(service).Add(float64(pages))
}

func (m *HTTPServerMetrics) RecordFallbackPages(service, reason string, count int64) {
	if count <= 0 {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.fallbackPagesTotal.WithLabelValues(service, reason).Add(float64(count))
}

func (m *HTTPServerMetrics) RecordStreamDuration(service, strategy string, duration time.Duration) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.streamDuration.WithLabelValues(service, strategy).Observe(duration.Seconds())
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
