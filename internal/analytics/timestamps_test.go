package analytics

import (
	"testing"
	"time"
)

func TestEventTimestampPriority(t *testing.T) {
	recorded := time.Date(2026, 9, 1, 9, 0, 0, 0, time.FixedZone("CDT", -5*3600))
	paid := recorded.Add(-2 * time.Hour)

	got := EventTimestamp(&paid, recorded)
	if !got.Equal(paid) || got.Location() != time.UTC {
		t.Fatalf("expected paid timestamp in UTC, got %v", got)
	}

	got = EventTimestamp(nil, recorded)
	if !got.Equal(recorded) {
		t.Fatalf("expected fallback timestamp, got %v", got)
	}

	zero := time.Time{}
	got = EventTimestamp(&zero, recorded)
	if !got.Equal(recorded) {
		t.Fatalf("zero primary should fall back, got %v", got)
	}
}
