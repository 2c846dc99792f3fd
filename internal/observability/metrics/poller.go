package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PollerMetrics instruments the routing loop. It implements the
// usecase Observer interface.
type PollerMetrics struct {
	service  string
	registry *prometheus.Registry

	iterationsTotal   *prometheus.CounterVec
	iterationDuration *prometheus.HistogramVec
	documentsTotal    *prometheus.CounterVec
	classifierCalls   *prometheus.CounterVec
	forwardsTotal     *prometheus.CounterVec
}

func NewPollerMetrics(service string) *PollerMetrics {
	registry := prometheus.NewRegistry()

	iterationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperroute",
			Subsystem: "router",
			Name:      "iterations_total",
			Help:      "Total poll iterations by outcome.",
		},
		[]string{"service", "status"},
	)
	iterationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paperroute",
			Subsystem: "router",
			Name:      "iteration_duration_seconds",
			Help:      "Poll iteration duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperroute",
			Subsystem: "router",
			Name:      "documents_total",
			Help:      "Documents seen by evaluation status.",
		},
		[]string{"service", "status"},
	)
	classifierCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperroute",
			Subsystem: "router",
			Name:      "classifier_calls_total",
			Help:      "Classifier invocations by cascade stage.",
		},
		[]string{"service", "stage"},
	)
	forwardsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperroute",
			Subsystem: "router",
			Name:      "forwards_total",
			Help:      "Forwarded invoices by topic.",
		},
		[]string{"service", "topic"},
	)

	registry.MustRegister(iterationsTotal, iterationDuration, documentsTotal, classifierCalls, forwardsTotal)

	return &PollerMetrics{
		service:           service,
		registry:          registry,
		iterationsTotal:   iterationsTotal,
		iterationDuration: iterationDuration,
		documentsTotal:    documentsTotal,
		classifierCalls:   classifierCalls,
		forwardsTotal:     forwardsTotal,
	}
}

func (m *PollerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PollerMetrics) IterationFinished(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.iterationsTotal.WithLabelValues(m.service, status).Inc()
	m.iterationDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *PollerMetrics) DocumentEvaluated(status string) {
	m.documentsTotal.WithLabelValues(m.service, status).Inc()
}

func (m *PollerMetrics) ClassifierCall(stage string) {
	m.classifierCalls.WithLabelValues(m.service, stage).Inc()
}

func (m *PollerMetrics) Forwarded(topic string) {
	m.forwardsTotal.WithLabelValues(m.service, topic).Inc()
}
