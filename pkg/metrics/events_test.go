package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestEventMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewEventMetrics(reg)
	topic := "user/user/created"
	metrics.IncProcessed(topic)
	metrics.IncFailed(topic)
	metrics.IncLifecycle("placed")
	metrics.ObservePublish("order/order/created", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "events_processed_total", "topic", topic); err != nil {
		t.Fatalf("fetch processed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected processed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "events_failed_total", "topic", topic); err != nil {
		t.Fatalf("fetch failed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "order_lifecycle_total", "outcome", "placed"); err != nil {
		t.Fatalf("fetch lifecycle: %v", err)
	} else if got != 1 {
		t.Fatalf("expected lifecycle=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "event_publish_duration_seconds", "topic", "order/order/created"); err != nil {
		t.Fatalf("fetch publish duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected publish duration sum > 0, got %f", got)
	}
}

func TestEventMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *EventMetrics
	metrics.IncProcessed("x")
	metrics.IncFailed("x")
	metrics.IncLifecycle("x")
	metrics.ObservePublish("x", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if hasLabel(metric, label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%s not found", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if hasLabel(metric, label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%s not found", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func hasLabel(metric *dto.Metric, label, value string) bool {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == label && pair.GetValue() == value {
			return true
		}
	}
	return false
}
