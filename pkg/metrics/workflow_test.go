package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestWorkflowMetricsRecordsPipeline(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkflowMetrics(reg)

	m.IncQuoteSubmitted()
	m.ObserveGenerated("create", 6)
	m.ObserveFlatRate(3)
	m.IncDocument("paid")
	m.IncDocument("paid")
	m.IncRateLimited()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	paid, err := fetchCounterValue(mfs, "catering_documents_total", "action", "paid")
	require.NoError(t, err)
	require.Equal(t, float64(2), paid)

	sum, err := fetchHistogramSum(mfs, "catering_line_items_generated", "source", "create")
	require.NoError(t, err)
	require.Equal(t, float64(6), sum)

	require.NotNil(t, findMetricFamily(mfs, "catering_quotes_submitted_total"))
	require.NotNil(t, findMetricFamily(mfs, "catering_flat_rate_remainder_cents"))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var workflow *WorkflowMetrics
	workflow.IncQuoteSubmitted()
	workflow.ObserveGenerated("preview", 2)
	NewWorkflowMetrics(nil).ObserveFlatRate(1)

	var outbox *OutboxMetrics
	outbox.IncPublished("invoice_paid")
	NewOutboxMetrics(nil).IncDeadLettered("invoice_paid", "max_attempts")
}

func TestOutboxMetricsLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("quote_submitted")
	m.IncFailed("")
	m.IncDeadLettered("invoice_paid", "decode_failed")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "catering_outbox_published_total", "event_type", "quote_submitted")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "catering_outbox_publish_failures_total", "event_type", "unknown")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)
}
