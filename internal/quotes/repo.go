package quotes

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

// Repository exposes persistence helpers for quote requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quote *models.QuoteRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error)
	List(ctx context.Context, query listQuery) ([]models.QuoteRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.QuoteStatus) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a quote repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listQuery struct {
	status    enums.QuoteStatus
	eventFrom *time.Time
	eventTo   *time.Time
	search    string
	limit     int
	cursor    *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, quote *models.QuoteRequest) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	var quote models.QuoteRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repositoryImpl) List(ctx context.Context, q listQuery) ([]models.QuoteRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.QuoteRequest{})
	if q.status != "" {
		query = query.Where("status = ?", q.status)
	}
	if q.eventFrom != nil {
		query = query.Where("event_date >= ?", *q.eventFrom)
	}
	if q.eventTo != nil {
		query = query.Where("event_date <= ?", *q.eventTo)
	}
	if q.search != "" {
		like := "%" + strings.ToLower(q.search) + "%"
		query = query.Where("LOWER(contact_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(event_name) LIKE ?", like, like, like, like)
	}
	query = query.Scopes(pagination.After(q.cursor))

	var rows []models.QuoteRequest
	if err := query.Order("created_at DESC").Order("id DESC").Limit(q.limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus moves a quote only if it is still in the expected state.
func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.QuoteStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.QuoteRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
