package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	assessTotal    *prometheus.CounterVec
	assessDuration *prometheus.HistogramVec
	assessInFlight prometheus.Gauge
	queueLag       *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	assessTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstream",
			Subsystem: "worker",
			Name:      "document_assess_total",
			Help:      "Total assessed documents by status.",
		},
		[]string{"service", "status"},
	)
	assessDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstream",
			Subsystem: "worker",
			Name:      "document_assess_duration_seconds",
			Help:      "Document assessment duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	assessInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docstream",
			Subsystem: "worker",
			Name:      "document_assess_in_flight",
			Help:      "Number of in-flight document assessments.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstream",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and assessment start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(assessTotal, assessDuration, assessInFlight, queueLag)

	return &WorkerMetrics{
		registry:       registry,
		assessTotal:    assessTotal,
		assessDuration: assessDuration,
		assessInFlight: assessInFlight,
		queueLag:       queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.assessInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, err error) {
	m.assessInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.assessTotal.WithLabelValues(service, status).Inc()
	m.assessDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
