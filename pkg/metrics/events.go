package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EventMetrics records inbound event processing and order lifecycle counts.
type EventMetrics struct {
	processed  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	lifecycle  *prometheus.CounterVec
	publishDur *prometheus.HistogramVec
}

// NewEventMetrics registers the event metrics on the provided registerer.
func NewEventMetrics(reg prometheus.Registerer) *EventMetrics {
	if reg == nil {
		return &EventMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_processed_total",
		Help: "Inbound events processed successfully, by topic.",
	}, []string{"topic"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_failed_total",
		Help: "Inbound events whose handling failed, by topic.",
	}, []string{"topic"})
	lifecycle := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_lifecycle_total",
		Help: "Order lifecycle transitions, by outcome.",
	}, []string{"outcome"})
	publishDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "event_publish_duration_seconds",
		Help:    "Duration of broker publish calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
	reg.MustRegister(processed, failed, lifecycle, publishDur)
	return &EventMetrics{
		processed:  processed,
		failed:     failed,
		lifecycle:  lifecycle,
		publishDur: publishDur,
	}
}

// IncProcessed increments the processed counter for the topic.
func (m *EventMetrics) IncProcessed(topic string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(topic)).Inc()
}

// IncFailed increments the failure counter for the topic.
func (m *EventMetrics) IncFailed(topic string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(topic)).Inc()
}

// IncLifecycle increments the lifecycle counter for the outcome
// (created, placed, rejected, compensated).
func (m *EventMetrics) IncLifecycle(outcome string) {
	if m == nil || m.lifecycle == nil {
		return
	}
	m.lifecycle.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObservePublish records the duration of a broker publish call.
func (m *EventMetrics) ObservePublish(topic string, duration time.Duration) {
	if m == nil || m.publishDur == nil {
		return
	}
	m.publishDur.WithLabelValues(normalizeLabel(topic)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
