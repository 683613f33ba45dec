package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsumerMetrics tracks Pub/Sub consumers by how each delivery ended.
type ConsumerMetrics struct {
	deliveries *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

func NewConsumerMetrics(reg prometheus.Registerer, consumer string) *ConsumerMetrics {
	if reg == nil {
		return nil
	}
	constLabels := prometheus.Labels{"consumer": normalizeLabel(consumer)}
	m := &ConsumerMetrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "catering_consumer_deliveries_total",
			Help:        "Pub/Sub deliveries by event type and outcome.",
			ConstLabels: constLabels,
		}, []string{"event_type", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "catering_consumer_handle_seconds",
			Help:        "Time spent handling one delivery.",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"event_type"}),
	}
	reg.MustRegister(m.deliveries, m.latency)
	return m
}

// ObserveDelivery counts one delivery; took is only recorded for deliveries
// that reached a handler.
func (m *ConsumerMetrics) ObserveDelivery(eventType, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	eventType = normalizeLabel(eventType)
	m.deliveries.WithLabelValues(eventType, normalizeLabel(outcome)).Inc()
	if took > 0 {
		m.latency.WithLabelValues(eventType).Observe(took.Seconds())
	}
}
