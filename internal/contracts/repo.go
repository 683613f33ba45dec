package contracts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

// Repository exposes contract persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, contract *models.Contract) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	ActiveForInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error)
	List(ctx context.Context, query listQuery) ([]models.Contract, error)
	Save(ctx context.Context, contract *models.Contract) error
	ListAwaitingReminder(ctx context.Context, sentBefore time.Time, limit int) ([]models.Contract, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listQuery struct {
	status    enums.ContractStatus
	invoiceID uuid.UUID
	limit     int
	cursor    *pagination.Cursor
}

var mutableColumns = []string{
	"status",
	"signer_name",
	"signer_email",
	"document_url",
	"sent_at",
	"signed_at",
	"signature_ip",
	"reminded_at",
	"void_reason",
	"updated_at",
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

// ActiveForInvoice reports whether a non-void contract exists for the invoice.
func (r *repositoryImpl) ActiveForInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("invoice_id = ? AND status <> ?", invoiceID, enums.ContractStatusVoid).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) List(ctx context.Context, q listQuery) ([]models.Contract, error) {
	query := r.db.WithContext(ctx).Model(&models.Contract{})
	if q.status != "" {
		query = query.Where("status = ?", q.status)
	}
	if q.invoiceID != uuid.Nil {
		query = query.Where("invoice_id = ?", q.invoiceID)
	}
	query = query.Scopes(pagination.After(q.cursor))

	var rows []models.Contract
	if err := query.Order("created_at DESC").Order("id DESC").Limit(q.limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Save(ctx context.Context, contract *models.Contract) error {
	contract.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(contract).
		Select(mutableColumns).
		Updates(contract).Error
}

// ListAwaitingReminder returns sent contracts whose last nudge (or send) is
// older than sentBefore.
func (r *repositoryImpl) ListAwaitingReminder(ctx context.Context, sentBefore time.Time, limit int) ([]models.Contract, error) {
	var rows []models.Contract
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ContractStatusSent).
		Where("sent_at IS NOT NULL AND sent_at < ?", sentBefore).
		Where("reminded_at IS NULL OR reminded_at < ?", sentBefore).
		Order("sent_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
