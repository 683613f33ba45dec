package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Actor sources recorded on emitted events.
const (
	ActorSourceAdmin  = "admin"
	ActorSourcePublic = "public_intake"
	ActorSourceSystem = "system"
)

// ActorRef identifies who produced the event. AdminID is empty for events
// raised by the public intake form or scheduled jobs.
type ActorRef struct {
	AdminID *uuid.UUID `json:"adminId,omitempty"`
	Email   string     `json:"email,omitempty"`
	Source  string     `json:"source"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// SystemActor is attached to events raised by workers and cron jobs.
func SystemActor() *ActorRef {
	return &ActorRef{Source: ActorSourceSystem}
}

// PublicActor is attached to events raised by unauthenticated intake.
func PublicActor(email string) *ActorRef {
	return &ActorRef{Email: email, Source: ActorSourcePublic}
}

// AdminActor is attached to events raised from the back-office API. The
// auth provider's subject is stored when it is a UUID.
func AdminActor(subject, email string) *ActorRef {
	ref := &ActorRef{Email: email, Source: ActorSourceAdmin}
	if id, err := uuid.Parse(subject); err == nil {
		ref.AdminID = &id
	}
	return ref
}
