// Package types holds the analytics worker's decoded events and warehouse
// rows.
package types

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/angelmondragon/catering-backend/pkg/enums"
)

// Envelope is one domain event after attribute and schema validation.
type Envelope struct {
	EventID       string
	EventType     enums.AnalyticsEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	OccurredAt    time.Time
	Payload       json.RawMessage
}

// Decode unmarshals the payload into dst. A missing or JSON null payload is
// an error.
func (e Envelope) Decode(dst any) error {
	trimmed := bytes.TrimSpace(e.Payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return errEmptyPayload
	}
	return json.Unmarshal(trimmed, dst)
}
