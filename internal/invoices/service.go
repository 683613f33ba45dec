package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catering-backend/internal/lineitems"
	"github.com/angelmondragon/catering-backend/internal/pricing"
	"github.com/angelmondragon/catering-backend/internal/quotes"
	"github.com/angelmondragon/catering-backend/pkg/config"
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

// dedupEmitter is implemented by *outbox.Service.
type dedupEmitter interface {
	EmitOnce(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages estimates and invoices for quote requests.
type Service interface {
	PreviewLineItems(ctx context.Context, quoteID uuid.UUID) ([]lineitems.LineItem, error)
	CreateFromQuote(ctx context.Context, quoteID uuid.UUID, params CreateParams, actor *outbox.ActorRef) (*models.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	RegenerateLineItems(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ReplaceLineItems(ctx context.Context, id uuid.UUID, items []LineItemInput) (*models.Invoice, error)
	ApplyFlatRate(ctx context.Context, id uuid.UUID, input FlatRateInput) (*FlatRateResult, error)
	UpdateTax(ctx context.Context, id uuid.UUID, input TaxInput) (*models.Invoice, error)
	ConvertToInvoice(ctx context.Context, id uuid.UUID, input ConvertInput, actor *outbox.ActorRef) (*models.Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*models.Invoice, error)
	Cancel(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*models.Invoice, error)
	MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error)
}

type service struct {
	repo     Repository
	quotes   quotes.Repository
	tx       txRunner
	outbox   outbox.Emitter
	business config.BusinessConfig
	metrics  *metrics.WorkflowMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires invoice dependencies. metrics may be nil.
func NewService(repo Repository, quoteRepo quotes.Repository, tx txRunner, emitter outbox.Emitter, business config.BusinessConfig, m *metrics.WorkflowMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invoice repository required")
	}
	if quoteRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quote repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{
		repo:     repo,
		quotes:   quoteRepo,
		tx:       tx,
		outbox:   emitter,
		business: business,
		metrics:  m,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) PreviewLineItems(ctx context.Context, quoteID uuid.UUID) ([]lineitems.LineItem, error) {
	quote, err := s.loadQuote(ctx, s.quotes, quoteID)
	if err != nil {
		return nil, err
	}
	items := lineitems.Generate(*quote)
	s.metrics.ObserveGenerated("preview", len(items))
	return items, nil
}

func (s *service) CreateFromQuote(ctx context.Context, quoteID uuid.UUID, params CreateParams, actor *outbox.ActorRef) (*models.Invoice, error) {
	taxRate := s.business.TaxRate()
	if params.TaxRate != nil {
		rate, err := parseTaxRate(*params.TaxRate)
		if err != nil {
			return nil, err
		}
		taxRate = rate
	}

	var created *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		quoteRepo := s.quotes.WithTx(tx)
		repo := s.repo.WithTx(tx)

		quote, err := s.loadQuote(ctx, quoteRepo, quoteID)
		if err != nil {
			return err
		}
		exists, err := repo.ExistsForQuote(ctx, quoteID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing estimate")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "quote request already has an estimate")
		}

		isGovernment := quote.IsGovernment()
		if params.IsGovernment != nil {
			isGovernment = *params.IsGovernment
		}

		items := lineitems.Generate(*quote)
		totals := pricing.Calculate(items, taxRate, isGovernment)
		now := s.now()
		invoice := &models.Invoice{
			ID:                   uuid.New(),
			QuoteRequestID:       quote.ID,
			DocumentType:         enums.DocumentTypeEstimate,
			Status:               enums.InvoiceStatusDraft,
			TaxRate:              taxRate,
			IsGovernmentContract: isGovernment,
			Notes:                trimmedOrNil(params.Notes),
			LineItems:            toModelItems(items),
		}
		invoice.Number = documentNumber(invoice.DocumentType, invoice.ID, now)
		applyTotals(invoice, totals)

		if err := repo.Create(ctx, invoice); err != nil {
			if IsLiveDocumentConflict(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "quote request already has an estimate")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create estimate")
		}

		if quote.Status == enums.QuoteStatusNew {
			if _, err := quotes.Transition(ctx, quoteRepo, s.outbox, tx, quote.ID, enums.QuoteStatusReviewing, actor); err != nil {
				return err
			}
		}
		if _, err := quotes.Transition(ctx, quoteRepo, s.outbox, tx, quote.ID, enums.QuoteStatusEstimated, actor); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventEstimateCreated,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         actor,
			Data: payloads.EstimateCreatedEvent{
				InvoiceID:     invoice.ID,
				QuoteID:       quote.ID,
				Number:        invoice.Number,
				LineItemCount: len(items),
				GuestCount:    quote.GuestCount,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit estimate created")
		}
		created = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveGenerated("create", len(created.LineItems))
	s.metrics.IncDocument("estimate_created")
	s.logInfo(ctx, created, "estimate created")
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.loadInvoice(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listQuery{
		quoteID: params.QuoteID,
		limit:   pagination.LimitWithBuffer(params.Limit),
	}
	if raw := strings.TrimSpace(params.Status); raw != "" {
		status, err := enums.ParseInvoiceStatus(raw)
		if err != nil {
			return nil, pkgerrors.Field("status", "is not a known invoice status")
		}
		query.status = status
	}
	if raw := strings.TrimSpace(params.DocumentType); raw != "" {
		docType, err := enums.ParseDocumentType(raw)
		if err != nil {
			return nil, pkgerrors.Field("document_type", "must be estimate or invoice")
		}
		query.documentType = docType
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	items, next := pagination.Trim(rows, params.Limit, cursorOf)
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) RegenerateLineItems(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var out *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.loadInvoice(ctx, repo, id)
		if err != nil {
			return err
		}
		if invoice.Status != enums.InvoiceStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "line items can only be regenerated on a draft").
				WithDetails(map[string]any{"status": invoice.Status})
		}
		quote, err := s.loadQuote(ctx, s.quotes.WithTx(tx), invoice.QuoteRequestID)
		if err != nil {
			return err
		}

		items := lineitems.Generate(*quote)
		out, err = s.persistItems(ctx, repo, invoice, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveGenerated("regenerate", len(out.LineItems))
	return out, nil
}

func (s *service) ReplaceLineItems(ctx context.Context, id uuid.UUID, inputs []LineItemInput) (*models.Invoice, error) {
	items := make([]lineitems.LineItem, 0, len(inputs))
	for i, input := range inputs {
		item, err := input.toLineItem(i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := pricing.CheckItems(items); err != nil {
		return nil, pkgerrors.Field("items", "subtotal exceeds the maximum amount")
	}

	var out *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.loadEditable(ctx, repo, id)
		if err != nil {
			return err
		}
		out, err = s.persistItems(ctx, repo, invoice, items)
		return err
	})
	return out, err
}

func (s *service) ApplyFlatRate(ctx context.Context, id uuid.UUID, input FlatRateInput) (*FlatRateResult, error) {
	if input.PerGuestRateCents < 0 {
		return nil, pkgerrors.Field("per_guest_rate_cents", "must not be negative")
	}
	if input.PerGuestRateCents > MaxPerGuestRateCents {
		return nil, pkgerrors.Field("per_guest_rate_cents", "is too large")
	}
	if input.GuestCount != nil && (*input.GuestCount < 1 || *input.GuestCount > quotes.MaxGuestCount) {
		return nil, pkgerrors.Field("guest_count", fmt.Sprintf("must be between 1 and %d", quotes.MaxGuestCount))
	}

	var result *FlatRateResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.loadEditable(ctx, repo, id)
		if err != nil {
			return err
		}
		if len(invoice.LineItems) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice has no line items to price")
		}

		guests := 0
		if input.GuestCount != nil {
			guests = *input.GuestCount
		} else {
			quote, err := s.loadQuote(ctx, s.quotes.WithTx(tx), invoice.QuoteRequestID)
			if err != nil {
				return err
			}
			guests = quote.GuestCount
		}

		if err := pricing.CheckFlatRate(input.PerGuestRateCents, guests); err != nil {
			return pkgerrors.Field("per_guest_rate_cents", "times guest count exceeds the maximum amount")
		}
		priced := pricing.ApplyFlatRate(fromModelItems(invoice.LineItems), input.PerGuestRateCents, guests, invoice.TaxRate, invoice.IsGovernmentContract)
		if err := pricing.CheckItems(priced.Items); err != nil {
			return pkgerrors.Field("per_guest_rate_cents", "line totals exceed the maximum amount")
		}
		updated, err := s.persistItems(ctx, repo, invoice, priced.Items)
		if err != nil {
			return err
		}
		result = &FlatRateResult{
			Invoice:     updated,
			TargetCents: priced.TargetCents,
			BaseCents:   priced.BaseCents,
			Remainder:   priced.Remainder,
			GuestCount:  guests,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveFlatRate(result.Remainder)
	return result, nil
}

func (s *service) UpdateTax(ctx context.Context, id uuid.UUID, input TaxInput) (*models.Invoice, error) {
	rate, err := parseTaxRate(input.TaxRate)
	if err != nil {
		return nil, err
	}

	var out *models.Invoice
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.loadEditable(ctx, repo, id)
		if err != nil {
			return err
		}
		invoice.TaxRate = rate
		invoice.IsGovernmentContract = input.IsGovernment
		applyTotals(invoice, pricing.TotalsFor(invoice.SubtotalCents, rate, input.IsGovernment))
		if err := repo.SaveHeader(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tax")
		}
		out = invoice
		return nil
	})
	return out, err
}

func (s *service) ConvertToInvoice(ctx context.Context, id uuid.UUID, input ConvertInput, actor *outbox.ActorRef) (*models.Invoice, error) {
	now := s.now()
	dueDate := truncateDay(now).AddDate(0, 0, s.dueDays())
	if raw := strings.TrimSpace(input.DueDate); raw != "" {
		parsed, err := time.Parse(dueDateLayout, raw)
		if err != nil {
			return nil, pkgerrors.Field("due_date", "must be a YYYY-MM-DD date")
		}
		if parsed.Before(truncateDay(now)) {
			return nil, pkgerrors.Field("due_date", "must not be in the past")
		}
		dueDate = parsed
	}

	var out *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.loadInvoice(ctx, repo, id)
		if err != nil {
			return err
		}
		if invoice.DocumentType == enums.DocumentTypeInvoice {
			return pkgerrors.New(pkgerrors.CodeConflict, "document is already an invoice")
		}
		if !invoice.Status.IsOpen() {
			return pkgerrors.Transition("estimate", string(invoice.Status), "invoice")
		}

		invoice.DocumentType = enums.DocumentTypeInvoice
		invoice.Number = documentNumber(enums.DocumentTypeInvoice, invoice.ID, now)
		invoice.Status = enums.InvoiceStatusDraft
		invoice.DueDate = &dueDate
		// the estimate send stays on EstimateSentAt
		invoice.SentAt = nil
		if err := repo.SaveHeader(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert estimate")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventInvoiceIssued,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         actor,
			Data: payloads.InvoiceIssuedEvent{
				InvoiceID:  invoice.ID,
				QuoteID:    invoice.QuoteRequestID,
				Number:     invoice.Number,
				TotalCents: invoice.TotalAmountCents,
				DueDate:    invoice.DueDate,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit invoice issued")
		}
		out = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncDocument("invoice_issued")
	s.logInfo(ctx, out, "estimate converted to invoice")
	return out, nil
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*models.Invoice, error) {
	var out *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.loadInvoice(ctx, repo, id)
		if err != nil {
			return err
		}
		if invoice.DocumentType != enums.DocumentTypeInvoice {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "convert the estimate to an invoice before recording payment")
		}
		if !invoice.Status.IsOpen() {
			return pkgerrors.Transition("invoice", string(invoice.Status), string(enums.InvoiceStatusPaid))
		}

		paidAt := s.now()
		invoice.Status = enums.InvoiceStatusPaid
		invoice.PaidAt = &paidAt
		if err := repo.SaveHeader(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invoice paid")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventInvoicePaid,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         actor,
			Data: payloads.InvoicePaidEvent{
				InvoiceID:     invoice.ID,
				QuoteID:       invoice.QuoteRequestID,
				Number:        invoice.Number,
				SubtotalCents: invoice.SubtotalCents,
				TaxCents:      invoice.TaxAmountCents,
				TotalCents:    invoice.TotalAmountCents,
				IsGovernment:  invoice.IsGovernmentContract,
				PaidAt:        paidAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit invoice paid")
		}
		out = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncDocument("invoice_paid")
	s.logInfo(ctx, out, "invoice marked paid")
	return out, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*models.Invoice, error) {
	var out *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.loadInvoice(ctx, repo, id)
		if err != nil {
			return err
		}
		if !invoice.Status.IsOpen() {
			return pkgerrors.Transition(string(invoice.DocumentType), string(invoice.Status), string(enums.InvoiceStatusCancelled))
		}
		invoice.Status = enums.InvoiceStatusCancelled
		if err := repo.SaveHeader(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel invoice")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventInvoiceCancelled,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         actor,
			Data: payloads.InvoiceCancelledEvent{
				InvoiceID: invoice.ID,
				QuoteID:   invoice.QuoteRequestID,
				Number:    invoice.Number,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit invoice cancelled")
		}
		out = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncDocument("cancelled")
	return out, nil
}

// MarkOverdue flips sent or approved invoices past their due date to overdue
// and queues one invoice_overdue event per invoice.
func (s *service) MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.repo.ListOverdue(ctx, truncateDay(asOf), limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue invoices")
	}

	marked := 0
	for i := range rows {
		invoice := rows[i]
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			invoice.Status = enums.InvoiceStatusOverdue
			if err := s.repo.WithTx(tx).SaveHeader(ctx, &invoice); err != nil {
				return err
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventInvoiceOverdue,
				AggregateType: enums.AggregateInvoice,
				AggregateID:   invoice.ID,
				Actor:         outbox.SystemActor(),
				Data: payloads.InvoiceOverdueEvent{
					InvoiceID:  invoice.ID,
					QuoteID:    invoice.QuoteRequestID,
					Number:     invoice.Number,
					TotalCents: invoice.TotalAmountCents,
					DueDate:    *invoice.DueDate,
				},
			}
			if emitter, ok := s.outbox.(dedupEmitter); ok {
				return emitter.EmitOnce(ctx, tx, event)
			}
			return s.outbox.Emit(ctx, tx, event)
		})
		if err != nil {
			return marked, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invoice overdue")
		}
		marked++
	}
	if marked > 0 {
		s.metrics.IncDocument("overdue")
	}
	return marked, nil
}

func (s *service) persistItems(ctx context.Context, repo Repository, invoice *models.Invoice, items []lineitems.LineItem) (*models.Invoice, error) {
	rows := toModelItems(items)
	if err := repo.ReplaceLineItems(ctx, invoice.ID, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace line items")
	}
	applyTotals(invoice, pricing.Calculate(items, invoice.TaxRate, invoice.IsGovernmentContract))
	if err := repo.SaveHeader(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice totals")
	}
	invoice.LineItems = rows
	return invoice, nil
}

func (s *service) loadInvoice(ctx context.Context, repo Repository, id uuid.UUID) (*models.Invoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	invoice, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("invoice")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invoice")
	}
	return invoice, nil
}

func (s *service) loadEditable(ctx context.Context, repo Repository, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.loadInvoice(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if !invoice.Status.IsEditable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is no longer editable").
			WithDetails(map[string]any{"status": invoice.Status})
	}
	return invoice, nil
}

func (s *service) loadQuote(ctx context.Context, repo quotes.Repository, id uuid.UUID) (*models.QuoteRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id is required")
	}
	quote, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("quote request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup quote request")
	}
	return quote, nil
}

func (s *service) dueDays() int {
	if s.business.InvoiceDueDays > 0 {
		return s.business.InvoiceDueDays
	}
	return 14
}

func (s *service) logInfo(ctx context.Context, invoice *models.Invoice, msg string) {
	if s.logg == nil || invoice == nil {
		return
	}
	ctx = s.logg.WithInvoiceID(ctx, invoice.ID.String())
	ctx = s.logg.WithFields(ctx, map[string]any{
		"number":      invoice.Number,
		"total_cents": invoice.TotalAmountCents,
	})
	s.logg.Info(ctx, msg)
}

func applyTotals(invoice *models.Invoice, totals pricing.Totals) {
	invoice.SubtotalCents = totals.SubtotalCents
	invoice.TaxAmountCents = totals.TaxAmountCents
	invoice.TotalAmountCents = totals.TotalCents
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
