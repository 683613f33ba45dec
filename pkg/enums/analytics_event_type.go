package enums

import "fmt"

// AnalyticsEventType is a domain event the analytics worker records as a
// catering_events row.
type AnalyticsEventType string

const (
	AnalyticsEventQuoteSubmitted   AnalyticsEventType = "quote_submitted"
	AnalyticsEventEstimateCreated  AnalyticsEventType = "estimate_created"
	AnalyticsEventInvoiceIssued    AnalyticsEventType = "invoice_issued"
	AnalyticsEventInvoicePaid      AnalyticsEventType = "invoice_paid"
	AnalyticsEventInvoiceCancelled AnalyticsEventType = "invoice_cancelled"
	AnalyticsEventContractSigned   AnalyticsEventType = "contract_signed"
)

var validAnalyticsEventTypes = []AnalyticsEventType{
	AnalyticsEventQuoteSubmitted,
	AnalyticsEventEstimateCreated,
	AnalyticsEventInvoiceIssued,
	AnalyticsEventInvoicePaid,
	AnalyticsEventInvoiceCancelled,
	AnalyticsEventContractSigned,
}

// IsValid reports whether the value is a tracked analytics event.
func (a AnalyticsEventType) IsValid() bool {
	for _, candidate := range validAnalyticsEventTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAnalyticsEventType converts the raw string to AnalyticsEventType.
func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	for _, candidate := range validAnalyticsEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid analytics event type %q", value)
}
