package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics tracks the quote-to-invoice pipeline.
type WorkflowMetrics struct {
	quotes     prometheus.Counter
	generated  *prometheus.HistogramVec
	flatRate   prometheus.Counter
	remainder  prometheus.Histogram
	documents  *prometheus.CounterVec
	rateLimits prometheus.Counter
}

// NewWorkflowMetrics registers the workflow metrics on reg. A nil registerer
// yields a no-op recorder.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	m := &WorkflowMetrics{
		quotes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catering_quotes_submitted_total",
			Help: "Quote requests accepted by public intake.",
		}),
		generated: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catering_line_items_generated",
			Help:    "Line items produced per generator run.",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 10, 12},
		}, []string{"source"}),
		flatRate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catering_flat_rate_applied_total",
			Help: "Flat per-guest pricing runs persisted to an invoice.",
		}),
		remainder: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catering_flat_rate_remainder_cents",
			Help:    "Cents spread as +1 adjustments by flat-rate pricing.",
			Buckets: []float64{0, 1, 2, 4, 8, 16},
		}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catering_documents_total",
			Help: "Estimate and invoice lifecycle transitions.",
		}, []string{"action"}),
		rateLimits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catering_intake_rate_limited_total",
			Help: "Public quote submissions rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(m.quotes, m.generated, m.flatRate, m.remainder, m.documents, m.rateLimits)
	return m
}

// IncQuoteSubmitted counts an accepted quote request.
func (m *WorkflowMetrics) IncQuoteSubmitted() {
	if m == nil || m.quotes == nil {
		return
	}
	m.quotes.Inc()
}

// ObserveGenerated records how many line items a generator run produced.
func (m *WorkflowMetrics) ObserveGenerated(source string, items int) {
	if m == nil || m.generated == nil {
		return
	}
	m.generated.WithLabelValues(normalizeLabel(source)).Observe(float64(items))
}

// ObserveFlatRate records a persisted flat-rate pricing run.
func (m *WorkflowMetrics) ObserveFlatRate(remainder int64) {
	if m == nil || m.flatRate == nil {
		return
	}
	m.flatRate.Inc()
	m.remainder.Observe(float64(remainder))
}

// IncDocument counts a document lifecycle action such as "issued" or "paid".
func (m *WorkflowMetrics) IncDocument(action string) {
	if m == nil || m.documents == nil {
		return
	}
	m.documents.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncRateLimited counts a throttled intake request.
func (m *WorkflowMetrics) IncRateLimited() {
	if m == nil || m.rateLimits == nil {
		return
	}
	m.rateLimits.Inc()
}
