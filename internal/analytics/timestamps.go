package analytics

import "time"

// EventTimestamp picks the business timestamp for a fact row: the payload's
// own moment (paid_at, signed_at) when present, otherwise when the event was
// recorded.
func EventTimestamp(primary *time.Time, fallback time.Time) time.Time {
	if primary != nil && !primary.IsZero() {
		return primary.UTC()
	}
	return fallback.UTC()
}
