// Package estimates hands finished documents to the serverless email and PDF
// functions. Delivery happens out of process; this package only records the
// request in the outbox alongside the status change.
package estimates

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catering-backend/internal/invoices"
	"github.com/angelmondragon/catering-backend/internal/quotes"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/metrics"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
	"github.com/angelmondragon/catering-backend/pkg/outbox/payloads"
)

const maxMessageLength = 4000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventLister interface {
	ListByAggregate(ctx context.Context, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) ([]models.OutboxEvent, error)
}

type deadLetterLister interface {
	ListByAggregate(ctx context.Context, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) ([]models.OutboxDLQ, error)
}

// SendInput customizes an email delivery. An empty recipient falls back to
// the quote contact.
type SendInput struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// Delivery is one queued email or PDF request for a document.
type Delivery struct {
	EventID     uuid.UUID             `json:"event_id"`
	Kind        enums.OutboxEventType `json:"kind"`
	Recipient   string                `json:"recipient,omitempty"`
	RequestedAt time.Time             `json:"requested_at"`
	PublishedAt *time.Time            `json:"published_at,omitempty"`
	Attempts    int                   `json:"attempts"`
	LastError   *string               `json:"last_error,omitempty"`
	// DeadLetter is set once the publisher has given up on the request.
	DeadLetter *DeadLetter `json:"dead_letter,omitempty"`
}

type DeadLetter struct {
	Reason   enums.OutboxDLQErrorReason `json:"reason"`
	Message  *string                    `json:"message,omitempty"`
	FailedAt time.Time                  `json:"failed_at"`
}

type Service interface {
	Send(ctx context.Context, invoiceID uuid.UUID, input SendInput, actor *outbox.ActorRef) (*models.Invoice, error)
	RequestDocument(ctx context.Context, invoiceID uuid.UUID, actor *outbox.ActorRef) error
	Deliveries(ctx context.Context, invoiceID uuid.UUID) ([]Delivery, error)
}

type service struct {
	invoices invoices.Repository
	quotes   quotes.Repository
	events   eventLister
	dead     deadLetterLister
	tx       txRunner
	outbox   outbox.Emitter
	metrics  *metrics.WorkflowMetrics
	logg     *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService wires estimate delivery. deadLetters may be nil, in which case
// Deliveries never reports a dead letter.
func NewService(invoiceRepo invoices.Repository, quoteRepo quotes.Repository, events eventLister, deadLetters deadLetterLister, tx txRunner, emitter outbox.Emitter, m *metrics.WorkflowMetrics, logg *logger.Logger) (Service, error) {
	if invoiceRepo == nil || quoteRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "estimate repositories required")
	}
	if events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{
		invoices: invoiceRepo,
		quotes:   quoteRepo,
		events:   events,
		dead:     deadLetters,
		tx:       tx,
		outbox:   emitter,
		metrics:  m,
		logg:     logg,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Send(ctx context.Context, invoiceID uuid.UUID, input SendInput, actor *outbox.ActorRef) (*models.Invoice, error) {
	recipient := strings.ToLower(strings.TrimSpace(input.Recipient))
	if recipient != "" {
		if err := s.validate.Var(recipient, "email"); err != nil {
			return nil, pkgerrors.Field("recipient", "must be a valid email address")
		}
	}
	message := strings.TrimSpace(input.Message)
	if len(message) > maxMessageLength {
		return nil, pkgerrors.Field("message", "is too long")
	}

	var out *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		invoiceRepo := s.invoices.WithTx(tx)
		invoice, quote, err := s.load(ctx, invoiceRepo, s.quotes.WithTx(tx), invoiceID)
		if err != nil {
			return err
		}
		if !invoice.Status.IsOpen() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "closed documents cannot be sent").
				WithDetails(map[string]any{"status": invoice.Status})
		}
		if recipient == "" {
			recipient = quote.Email
		}

		sentAt := s.now()
		invoice.SentAt = &sentAt
		if invoice.DocumentType == enums.DocumentTypeEstimate {
			invoice.EstimateSentAt = &sentAt
		}
		if invoice.Status == enums.InvoiceStatusDraft {
			invoice.Status = enums.InvoiceStatusSent
		}
		if err := invoiceRepo.SaveHeader(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark document sent")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventEstimateSendRequested,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         actor,
			Data: payloads.EstimateSendRequestedEvent{
				InvoiceID:    invoice.ID,
				QuoteID:      quote.ID,
				Number:       invoice.Number,
				DocumentType: invoice.DocumentType,
				Recipient:    recipient,
				ContactName:  quote.ContactName,
				Message:      message,
				TotalCents:   invoice.TotalAmountCents,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit send request")
		}
		out = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDocument("sent")
	if s.logg != nil {
		logCtx := s.logg.WithInvoiceID(ctx, out.ID.String())
		logCtx = s.logg.WithField(logCtx, "document_type", out.DocumentType)
		s.logg.Info(logCtx, "document send requested")
	}
	return out, nil
}

func (s *service) RequestDocument(ctx context.Context, invoiceID uuid.UUID, actor *outbox.ActorRef) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		invoice, quote, err := s.load(ctx, s.invoices.WithTx(tx), s.quotes.WithTx(tx), invoiceID)
		if err != nil {
			return err
		}
		id := invoice.ID
		event := outbox.DomainEvent{
			EventType:     enums.EventPDFDocumentRequested,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         actor,
			Data: payloads.PDFDocumentRequestedEvent{
				Type:      string(invoice.DocumentType),
				QuoteID:   quote.ID,
				InvoiceID: &id,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit pdf request")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncDocument("pdf_requested")
	return nil
}

// Deliveries lists the email and PDF requests recorded for a document, oldest
// first, with their publish state.
func (s *service) Deliveries(ctx context.Context, invoiceID uuid.UUID) ([]Delivery, error) {
	if _, _, err := s.load(ctx, s.invoices, s.quotes, invoiceID); err != nil {
		return nil, err
	}
	rows, err := s.events.ListByAggregate(ctx, enums.AggregateInvoice, invoiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deliveries")
	}
	dead, err := s.deadLetters(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	out := make([]Delivery, 0, len(rows))
	for _, row := range rows {
		if row.EventType != enums.EventEstimateSendRequested && row.EventType != enums.EventPDFDocumentRequested {
			continue
		}
		out = append(out, Delivery{
			EventID:     row.ID,
			Kind:        row.EventType,
			Recipient:   recipientOf(row),
			RequestedAt: row.CreatedAt,
			PublishedAt: row.PublishedAt,
			Attempts:    row.AttemptCount,
			LastError:   row.LastError,
			DeadLetter:  dead[row.ID],
		})
	}
	return out, nil
}

func (s *service) deadLetters(ctx context.Context, invoiceID uuid.UUID) (map[uuid.UUID]*DeadLetter, error) {
	if s.dead == nil {
		return nil, nil
	}
	rows, err := s.dead.ListByAggregate(ctx, enums.AggregateInvoice, invoiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dead letters")
	}
	byEvent := make(map[uuid.UUID]*DeadLetter, len(rows))
	for _, row := range rows {
		byEvent[row.EventID] = &DeadLetter{Reason: row.ErrorReason, Message: row.ErrorMessage, FailedAt: row.FailedAt}
	}
	return byEvent, nil
}

func (s *service) load(ctx context.Context, invoiceRepo invoices.Repository, quoteRepo quotes.Repository, invoiceID uuid.UUID) (*models.Invoice, *models.QuoteRequest, error) {
	if invoiceID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	invoice, err := invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.NotFound("invoice")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invoice")
	}
	quote, err := quoteRepo.FindByID(ctx, invoice.QuoteRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.NotFound("quote request")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup quote request")
	}
	return invoice, quote, nil
}

func recipientOf(row models.OutboxEvent) string {
	if row.EventType != enums.EventEstimateSendRequested {
		return ""
	}
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return ""
	}
	var data payloads.EstimateSendRequestedEvent
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return ""
	}
	return data.Recipient
}
