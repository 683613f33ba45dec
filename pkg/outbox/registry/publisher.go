package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/catering-backend/pkg/config"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
	"github.com/angelmondragon/catering-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

type destination int

const (
	toFunctions destination = iota
	toDomain
)

// catalogEntry is one event the outbox may carry.
type catalogEntry struct {
	eventType enums.OutboxEventType
	aggregate enums.OutboxAggregateType
	dest      destination
	payload   func() any
}

func entry[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, dest destination) catalogEntry {
	return catalogEntry{eventType: eventType, aggregate: aggregate, dest: dest, payload: func() any { return new(T) }}
}

// catalog lists every event type. Function requests drive the serverless
// email and PDF functions; domain facts feed analytics.
var catalog = []catalogEntry{
	entry[payloads.EstimateSendRequestedEvent](enums.EventEstimateSendRequested, enums.AggregateInvoice, toFunctions),
	entry[payloads.PDFDocumentRequestedEvent](enums.EventPDFDocumentRequested, enums.AggregateInvoice, toFunctions),
	entry[payloads.ContractEvent](enums.EventContractSent, enums.AggregateContract, toFunctions),
	entry[payloads.ContractEvent](enums.EventContractReminderRequested, enums.AggregateContract, toFunctions),

	entry[payloads.QuoteSubmittedEvent](enums.EventQuoteSubmitted, enums.AggregateQuoteRequest, toDomain),
	entry[payloads.QuoteStatusChangedEvent](enums.EventQuoteStatusChanged, enums.AggregateQuoteRequest, toDomain),
	entry[payloads.EstimateCreatedEvent](enums.EventEstimateCreated, enums.AggregateInvoice, toDomain),
	entry[payloads.InvoiceIssuedEvent](enums.EventInvoiceIssued, enums.AggregateInvoice, toDomain),
	entry[payloads.InvoicePaidEvent](enums.EventInvoicePaid, enums.AggregateInvoice, toDomain),
	entry[payloads.InvoiceOverdueEvent](enums.EventInvoiceOverdue, enums.AggregateInvoice, toDomain),
	entry[payloads.InvoiceCancelledEvent](enums.EventInvoiceCancelled, enums.AggregateInvoice, toDomain),
	entry[payloads.ContractEvent](enums.EventContractSigned, enums.AggregateContract, toDomain),
}

// NewEventRegistry binds the catalog to the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	switch {
	case cfg.FunctionsTopic == "":
		return nil, fmt.Errorf("functions topic is required")
	case cfg.DomainTopic == "":
		return nil, fmt.Errorf("domain topic is required")
	}

	topics := map[destination]string{toFunctions: cfg.FunctionsTopic, toDomain: cfg.DomainTopic}
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(catalog))}
	for _, e := range catalog {
		reg.register(EventDescriptor{
			EventType:      e.eventType,
			AggregateType:  e.aggregate,
			Topic:          topics[e.dest],
			PayloadFactory: e.payload,
		})
	}
	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Descriptor returns the registered descriptor for an event type.
func (r *EventRegistry) Descriptor(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	desc, ok := r.entries[eventType]
	return desc, ok
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
