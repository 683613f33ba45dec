package quotes

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/metrics"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
	"github.com/angelmondragon/catering-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers public intake and the admin quote pipeline.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.QuoteRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.QuoteStatus, actor *outbox.ActorRef) (*models.QuoteRequest, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.WorkflowMetrics
	logg    *logger.Logger
}

// NewService wires quote dependencies. metrics may be nil.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, m *metrics.WorkflowMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quote repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, metrics: m, logg: logg}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.QuoteRequest, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	quote := input.toModel()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quote request")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventQuoteSubmitted,
			AggregateType: enums.AggregateQuoteRequest,
			AggregateID:   quote.ID,
			Actor:         outbox.PublicActor(quote.Email),
			Data: payloads.QuoteSubmittedEvent{
				QuoteID:     quote.ID,
				ContactName: quote.ContactName,
				Email:       quote.Email,
				EventType:   quote.EventType,
				EventDate:   quote.EventDate.Format(eventDateLayout),
				GuestCount:  quote.GuestCount,
				ServiceType: quote.ServiceType,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit quote submitted")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncQuoteSubmitted()

	if s.logg != nil {
		logCtx := s.logg.WithQuoteID(ctx, quote.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "guest_count", quote.GuestCount), "quote request submitted")
	}
	return &quote, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id is required")
	}
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("quote request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup quote request")
	}
	return quote, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listQuery{
		search: strings.TrimSpace(params.Search),
		limit:  pagination.LimitWithBuffer(params.Limit),
	}
	if raw := strings.TrimSpace(params.Status); raw != "" {
		status, err := enums.ParseQuoteStatus(raw)
		if err != nil {
			return nil, pkgerrors.Field("status", "is not a known quote status")
		}
		query.status = status
	}
	from, err := parseOptionalDate("event_from", params.EventFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDate("event_to", params.EventTo)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, pkgerrors.Field("event_to", "must not be before event_from")
	}
	query.eventFrom, query.eventTo = from, to

	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quote requests")
	}
	items, next := pagination.Trim(rows, params.Limit, cursorOf)
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.QuoteStatus, actor *outbox.ActorRef) (*models.QuoteRequest, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Field("status", "is not a known quote status")
	}

	var updated *models.QuoteRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		quote, err := Transition(ctx, s.repo.WithTx(tx), s.outbox, tx, id, status, actor)
		if err != nil {
			return err
		}
		updated = quote
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Transition applies a guarded status change inside the caller's transaction
// and queues quote_status_changed. Invoices and contracts use it to advance
// the quote alongside their own writes.
func Transition(ctx context.Context, repo Repository, emitter outbox.Emitter, tx *gorm.DB, id uuid.UUID, to enums.QuoteStatus, actor *outbox.ActorRef) (*models.QuoteRequest, error) {
	quote, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("quote request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup quote request")
	}
	from := quote.Status
	if from == to {
		return quote, nil
	}
	if !from.CanTransitionTo(to) {
		return nil, pkgerrors.Transition("quote request", string(from), string(to))
	}

	ok, err := repo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quote status")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "quote request was modified concurrently")
	}

	if actor == nil {
		actor = outbox.SystemActor()
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventQuoteStatusChanged,
		AggregateType: enums.AggregateQuoteRequest,
		AggregateID:   id,
		Actor:         actor,
		Data:          payloads.QuoteStatusChangedEvent{QuoteID: id, From: from, To: to},
	}
	if err := emitter.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit quote status change")
	}

	quote.Status = to
	return quote, nil
}
