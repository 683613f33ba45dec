// Package contracts tracks catering agreements from draft to signature.
package contracts

import (
	"context"
	"errors"
	"strings"
	"time"

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
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	Create(ctx context.Context, input CreateInput, actor *outbox.ActorRef) (*models.Contract, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Send(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*models.Contract, error)
	MarkSigned(ctx context.Context, id uuid.UUID, input SignInput, actor *outbox.ActorRef) (*models.Contract, error)
	Void(ctx context.Context, id uuid.UUID, input VoidInput, actor *outbox.ActorRef) (*models.Contract, error)
	AwaitingReminder(ctx context.Context, asOf time.Time, afterDays, limit int) ([]models.Contract, error)
	Remind(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	invoices invoices.Repository
	quotes   quotes.Repository
	tx       txRunner
	outbox   outbox.Emitter
	metrics  *metrics.WorkflowMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, invoiceRepo invoices.Repository, quoteRepo quotes.Repository, tx txRunner, emitter outbox.Emitter, m *metrics.WorkflowMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "contract repository required")
	}
	if invoiceRepo == nil || quoteRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invoice and quote repositories required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{
		repo:     repo,
		invoices: invoiceRepo,
		quotes:   quoteRepo,
		tx:       tx,
		outbox:   emitter,
		metrics:  m,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput, actor *outbox.ActorRef) (*models.Contract, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var created *models.Contract
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.invoices.WithTx(tx).FindByID(ctx, input.InvoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("invoice")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invoice")
		}
		if !invoice.Status.IsOpen() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "contracts require an open estimate or invoice")
		}
		active, err := repo.ActiveForInvoice(ctx, invoice.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing contract")
		}
		if active {
			return pkgerrors.New(pkgerrors.CodeConflict, "invoice already has an active contract")
		}
		quote, err := s.quotes.WithTx(tx).FindByID(ctx, invoice.QuoteRequestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup quote request")
		}

		contract := &models.Contract{
			InvoiceID:      invoice.ID,
			QuoteRequestID: quote.ID,
			Status:         enums.ContractStatusDraft,
			SignerName:     firstNonEmpty(input.SignerName, quote.ContactName),
			SignerEmail:    strings.ToLower(firstNonEmpty(input.SignerEmail, quote.Email)),
			DocumentURL:    optionalString(input.DocumentURL),
		}
		if err := repo.Create(ctx, contract); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contract")
		}
		created = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncDocument("contract_created")
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	return s.load(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listQuery{
		invoiceID: params.InvoiceID,
		limit:     pagination.LimitWithBuffer(params.Limit),
	}
	if raw := strings.TrimSpace(params.Status); raw != "" {
		status, err := enums.ParseContractStatus(raw)
		if err != nil {
			return nil, pkgerrors.Field("status", "is not a known contract status")
		}
		query.status = status
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contracts")
	}
	items, next := pagination.Trim(rows, params.Limit, cursorOf)
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) Send(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*models.Contract, error) {
	var out *models.Contract
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		contract, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if contract.Status != enums.ContractStatusDraft && contract.Status != enums.ContractStatusSent {
			return pkgerrors.Transition("contract", string(contract.Status), string(enums.ContractStatusSent))
		}
		sentAt := s.now()
		contract.Status = enums.ContractStatusSent
		contract.SentAt = &sentAt
		contract.RemindedAt = nil
		if err := repo.Save(ctx, contract); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send contract")
		}
		if err := s.emit(ctx, tx, enums.EventContractSent, contract, actor); err != nil {
			return err
		}
		out = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncDocument("contract_sent")
	s.logInfo(ctx, out, "contract sent")
	return out, nil
}

// MarkSigned books the quote and approves the underlying document in the same
// transaction as the signature.
func (s *service) MarkSigned(ctx context.Context, id uuid.UUID, input SignInput, actor *outbox.ActorRef) (*models.Contract, error) {
	signedAt := s.now()
	if input.SignedAt != nil {
		if input.SignedAt.After(signedAt) {
			return nil, pkgerrors.Field("signed_at", "must not be in the future")
		}
		signedAt = input.SignedAt.UTC()
	}

	var out *models.Contract
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		contract, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if contract.Status != enums.ContractStatusDraft && contract.Status != enums.ContractStatusSent {
			return pkgerrors.Transition("contract", string(contract.Status), string(enums.ContractStatusSigned))
		}

		contract.Status = enums.ContractStatusSigned
		contract.SignedAt = &signedAt
		if name := strings.TrimSpace(input.SignerName); name != "" {
			contract.SignerName = name
		}
		if ip := optionalString(input.SignatureIP); ip != nil {
			contract.SignatureIP = ip
		}
		if err := repo.Save(ctx, contract); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign contract")
		}

		if _, err := quotes.Transition(ctx, s.quotes.WithTx(tx), s.outbox, tx, contract.QuoteRequestID, enums.QuoteStatusBooked, actor); err != nil {
			return err
		}

		invoiceRepo := s.invoices.WithTx(tx)
		invoice, err := invoiceRepo.FindByID(ctx, contract.InvoiceID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invoice")
		}
		if invoice.Status.IsEditable() {
			invoice.Status = enums.InvoiceStatusApproved
			if err := invoiceRepo.SaveHeader(ctx, invoice); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve invoice")
			}
		}

		if err := s.emit(ctx, tx, enums.EventContractSigned, contract, actor); err != nil {
			return err
		}
		out = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncDocument("contract_signed")
	s.logInfo(ctx, out, "contract signed")
	return out, nil
}

func (s *service) Void(ctx context.Context, id uuid.UUID, input VoidInput, actor *outbox.ActorRef) (*models.Contract, error) {
	var out *models.Contract
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		contract, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if contract.Status == enums.ContractStatusSigned || contract.Status == enums.ContractStatusVoid {
			return pkgerrors.Transition("contract", string(contract.Status), string(enums.ContractStatusVoid))
		}
		contract.Status = enums.ContractStatusVoid
		contract.VoidReason = optionalString(input.Reason)
		if err := repo.Save(ctx, contract); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void contract")
		}
		out = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logInfo(ctx, out, "contract voided")
	return out, nil
}

// AwaitingReminder lists sent contracts that have gone unsigned for afterDays
// since they were sent or last reminded.
func (s *service) AwaitingReminder(ctx context.Context, asOf time.Time, afterDays, limit int) ([]models.Contract, error) {
	if afterDays <= 0 {
		afterDays = 3
	}
	if limit <= 0 {
		limit = 100
	}
	cutoff := asOf.UTC().AddDate(0, 0, -afterDays)
	rows, err := s.repo.ListAwaitingReminder(ctx, cutoff, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contracts awaiting reminder")
	}
	return rows, nil
}

// Remind queues a reminder email for one sent contract.
func (s *service) Remind(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		contract, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if contract.Status != enums.ContractStatusSent {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only sent contracts can be reminded")
		}
		remindedAt := s.now()
		contract.RemindedAt = &remindedAt
		if err := repo.Save(ctx, contract); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record reminder")
		}
		return s.emit(ctx, tx, enums.EventContractReminderRequested, contract, outbox.SystemActor())
	})
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, contract *models.Contract, actor *outbox.ActorRef) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateContract,
		AggregateID:   contract.ID,
		Actor:         actor,
		Data: payloads.ContractEvent{
			ContractID:  contract.ID,
			InvoiceID:   contract.InvoiceID,
			QuoteID:     contract.QuoteRequestID,
			Status:      contract.Status,
			SignerName:  contract.SignerName,
			SignerEmail: contract.SignerEmail,
			SignedAt:    contract.SignedAt,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit "+string(eventType))
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Contract, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contract id is required")
	}
	contract, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("contract")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup contract")
	}
	return contract, nil
}

func (s *service) logInfo(ctx context.Context, contract *models.Contract, msg string) {
	if s.logg == nil || contract == nil {
		return
	}
	ctx = s.logg.WithContractID(ctx, contract.ID.String())
	ctx = s.logg.WithInvoiceID(ctx, contract.InvoiceID.String())
	s.logg.Info(ctx, msg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
