package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestConsumerMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConsumerMetrics(reg, "analytics-worker")

	m.ObserveDelivery("invoice_paid", "handled", 20*time.Millisecond)
	m.ObserveDelivery("invoice_paid", "duplicate", 0)
	m.ObserveDelivery("", "invalid", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	handled := labelled(mfs, "catering_consumer_deliveries_total", map[string]string{
		"consumer": "analytics-worker", "event_type": "invoice_paid", "outcome": "handled",
	})
	if handled == nil || handled.GetCounter().GetValue() != 1 {
		t.Fatalf("expected one handled delivery, got %v", handled)
	}
	invalid := labelled(mfs, "catering_consumer_deliveries_total", map[string]string{"event_type": "unknown", "outcome": "invalid"})
	if invalid == nil {
		t.Fatal("blank event type should be labelled unknown")
	}

	hist := labelled(mfs, "catering_consumer_handle_seconds", map[string]string{"event_type": "invoice_paid"})
	if hist == nil || hist.GetHistogram().GetSampleCount() != 1 {
		t.Fatalf("only handled deliveries should be timed, got %v", hist)
	}
}

func TestConsumerMetricsNilSafe(t *testing.T) {
	m := NewConsumerMetrics(nil, "analytics-worker")
	if m != nil {
		t.Fatal("nil registerer should yield a nil recorder")
	}
	m.ObserveDelivery("invoice_paid", "handled", time.Second)
}
