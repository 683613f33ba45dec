package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/catering-backend/internal/analytics/types"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
)

// errUntracked marks domain events that exist on the topic but have no
// analytics row, such as quote status moves.
var errUntracked = errors.New("event not tracked by analytics")

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error)
}

// decodeMessage validates a delivery against the publisher's attribute set
// and the versioned payload decoders. The event id and timestamp come from
// the stored envelope, falling back to the attributes.
func decodeMessage(msg *gcppubsub.Message, decoders payloadDecoder) (types.Envelope, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return types.Envelope{}, fmt.Errorf("decode payload envelope: %w", err)
	}
	attr := func(name string) string { return strings.TrimSpace(msg.Attributes[name]) }

	rawType := attr("event_type")
	eventType, err := enums.ParseAnalyticsEventType(rawType)
	if err != nil {
		if _, domainErr := enums.ParseOutboxEventType(rawType); domainErr == nil {
			return types.Envelope{}, errUntracked
		}
		return types.Envelope{}, fmt.Errorf("event_type: %w", err)
	}

	aggregateType, err := enums.ParseOutboxAggregateType(attr("aggregate_type"))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("aggregate_type: %w", err)
	}
	aggregateID := attr("aggregate_id")
	if aggregateID == "" {
		return types.Envelope{}, errors.New("aggregate_id missing")
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = attr("event_id")
	}
	if eventID == "" {
		return types.Envelope{}, errors.New("event_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		occurredAt, _ = time.Parse(time.RFC3339Nano, attr("created_at"))
	}

	version := max(stored.Version, 1)
	if _, err := decoders.Decode(enums.OutboxEventType(eventType), version, stored.Data); err != nil {
		return types.Envelope{}, fmt.Errorf("payload: %w", err)
	}

	return types.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       stored.Data,
	}, nil
}
