package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateQuoteRequest OutboxAggregateType = "quote_request"
	AggregateInvoice      OutboxAggregateType = "invoice"
	AggregateContract     OutboxAggregateType = "contract"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateQuoteRequest,
	AggregateInvoice,
	AggregateContract,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventQuoteSubmitted            OutboxEventType = "quote_submitted"
	EventQuoteStatusChanged        OutboxEventType = "quote_status_changed"
	EventEstimateCreated           OutboxEventType = "estimate_created"
	EventEstimateSendRequested     OutboxEventType = "estimate_send_requested"
	EventPDFDocumentRequested      OutboxEventType = "pdf_document_requested"
	EventInvoiceIssued             OutboxEventType = "invoice_issued"
	EventInvoicePaid               OutboxEventType = "invoice_paid"
	EventInvoiceOverdue            OutboxEventType = "invoice_overdue"
	EventInvoiceCancelled          OutboxEventType = "invoice_cancelled"
	EventContractSent              OutboxEventType = "contract_sent"
	EventContractSigned            OutboxEventType = "contract_signed"
	EventContractReminderRequested OutboxEventType = "contract_reminder_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventQuoteSubmitted,
	EventQuoteStatusChanged,
	EventEstimateCreated,
	EventEstimateSendRequested,
	EventPDFDocumentRequested,
	EventInvoiceIssued,
	EventInvoicePaid,
	EventInvoiceOverdue,
	EventInvoiceCancelled,
	EventContractSent,
	EventContractSigned,
	EventContractReminderRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why a row left the outbox without being
// published.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts: transient failures exhausted the budget.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable: the row itself is malformed.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	// OutboxDLQReasonUnroutable: the row is valid but this deployment has
	// no publisher for its topic.
	OutboxDLQReasonUnroutable OutboxDLQErrorReason = "unroutable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable, OutboxDLQReasonUnroutable:
		return true
	}
	return false
}
