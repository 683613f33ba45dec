package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catering-backend/pkg/db"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

// Repository exposes invoice and line item persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ExistsForQuote(ctx context.Context, quoteID uuid.UUID) (bool, error)
	List(ctx context.Context, query listQuery) ([]models.Invoice, error)
	SaveHeader(ctx context.Context, invoice *models.Invoice) error
	ReplaceLineItems(ctx context.Context, invoiceID uuid.UUID, items []models.InvoiceLineItem) error
	ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]models.Invoice, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listQuery struct {
	status       enums.InvoiceStatus
	documentType enums.DocumentType
	quoteID      uuid.UUID
	limit        int
	cursor       *pagination.Cursor
}

// liveDocumentIndex allows one non-cancelled invoice row per quote.
const liveDocumentIndex = "invoices_live_quote_key"

// headerColumns are the invoice columns rewritten by SaveHeader.
var headerColumns = []string{
	"number",
	"document_type",
	"status",
	"subtotal_cents",
	"tax_rate",
	"tax_amount_cents",
	"total_amount_cents",
	"is_government_contract",
	"due_date",
	"notes",
	"sent_at",
	"estimate_sent_at",
	"paid_at",
	"updated_at",
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Create inserts the invoice with its line items. A second live document for
// the same quote fails on liveDocumentIndex.
func (r *repositoryImpl) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

// IsLiveDocumentConflict reports whether err came from the one-live-document
// index. Postgres names the constraint; sqlite only names the column.
func IsLiveDocumentConflict(err error) bool {
	return db.IsUniqueViolation(err, liveDocumentIndex) ||
		db.IsUniqueViolation(err, "invoices.quote_request_id")
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repositoryImpl) ExistsForQuote(ctx context.Context, quoteID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("quote_request_id = ? AND status <> ?", quoteID, enums.InvoiceStatusCancelled).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) List(ctx context.Context, q listQuery) ([]models.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{})
	if q.status != "" {
		query = query.Where("status = ?", q.status)
	}
	if q.documentType != "" {
		query = query.Where("document_type = ?", q.documentType)
	}
	if q.quoteID != uuid.Nil {
		query = query.Where("quote_request_id = ?", q.quoteID)
	}
	query = query.Scopes(pagination.After(q.cursor))

	var rows []models.Invoice
	if err := query.Order("created_at DESC").Order("id DESC").Limit(q.limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) SaveHeader(ctx context.Context, invoice *models.Invoice) error {
	invoice.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(invoice).
		Select(headerColumns).
		Updates(invoice).Error
}

// ReplaceLineItems deletes the current rows and inserts items in order.
func (r *repositoryImpl) ReplaceLineItems(ctx context.Context, invoiceID uuid.UUID, items []models.InvoiceLineItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&models.InvoiceLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].InvoiceID = invoiceID
		items[i].Position = i
	}
	return db.Create(&items).Error
}

// ListOverdue returns final invoices awaiting payment whose due date is
// before asOf.
func (r *repositoryImpl) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := r.db.WithContext(ctx).
		Where("document_type = ?", enums.DocumentTypeInvoice).
		Where("status IN ?", []enums.InvoiceStatus{enums.InvoiceStatusSent, enums.InvoiceStatusApproved}).
		Where("due_date IS NOT NULL AND due_date < ?", asOf).
		Order("due_date ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
