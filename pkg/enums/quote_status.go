package enums

import "fmt"

// QuoteStatus tracks a quote request through the sales pipeline.
type QuoteStatus string

const (
	QuoteStatusNew       QuoteStatus = "new"
	QuoteStatusReviewing QuoteStatus = "reviewing"
	QuoteStatusEstimated QuoteStatus = "estimated"
	QuoteStatusBooked    QuoteStatus = "booked"
	QuoteStatusDeclined  QuoteStatus = "declined"
	QuoteStatusArchived  QuoteStatus = "archived"
)

var validQuoteStatuses = []QuoteStatus{
	QuoteStatusNew,
	QuoteStatusReviewing,
	QuoteStatusEstimated,
	QuoteStatusBooked,
	QuoteStatusDeclined,
	QuoteStatusArchived,
}

// String implements fmt.Stringer.
func (q QuoteStatus) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuoteStatus.
func (q QuoteStatus) IsValid() bool {
	for _, candidate := range validQuoteStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuoteStatus converts raw input into a QuoteStatus.
func ParseQuoteStatus(value string) (QuoteStatus, error) {
	for _, candidate := range validQuoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote status %q", value)
}

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusNew:       {QuoteStatusReviewing, QuoteStatusDeclined, QuoteStatusArchived},
	QuoteStatusReviewing: {QuoteStatusEstimated, QuoteStatusDeclined, QuoteStatusArchived},
	QuoteStatusEstimated: {QuoteStatusBooked, QuoteStatusDeclined, QuoteStatusArchived},
	QuoteStatusBooked:    {QuoteStatusArchived},
	QuoteStatusDeclined:  {QuoteStatusArchived},
}

// CanTransitionTo reports whether a quote may move from q to next.
func (q QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	for _, allowed := range quoteTransitions[q] {
		if allowed == next {
			return true
		}
	}
	return false
}
