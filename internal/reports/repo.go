package reports

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/catering-backend/internal/repo"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
)

// Repository runs the read-only aggregate queries behind the reports. Date
// bucketing happens in Go so the same queries work on Postgres and sqlite.
type Repository interface {
	QuoteStatusCounts(ctx context.Context, r Range) (map[enums.QuoteStatus]int64, error)
	CountSent(ctx context.Context, r Range) (int64, error)
	PaidInvoices(ctx context.Context, r Range) ([]models.Invoice, error)
	QuoteSelections(ctx context.Context, r Range) ([]models.QuoteRequest, error)
	Invoices(ctx context.Context, r Range) ([]models.Invoice, error)
}

type repositoryImpl struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{Base: repo.NewBase(db)}
}

type statusCount struct {
	Status enums.QuoteStatus
	Count  int64
}

func (r *repositoryImpl) QuoteStatusCounts(ctx context.Context, rng Range) (map[enums.QuoteStatus]int64, error) {
	var rows []statusCount
	err := r.DB(ctx).
		Model(&models.QuoteRequest{}).
		Select("status, COUNT(*) AS count").
		Scopes(repo.Within("created_at", rng.From, rng.To)).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.QuoteStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// CountSent counts estimates sent in the range, including ones since
// converted to invoices. Sends of final invoices are not counted.
func (r *repositoryImpl) CountSent(ctx context.Context, rng Range) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Invoice{}).
		Scopes(repo.Within("estimate_sent_at", rng.From, rng.To)).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) PaidInvoices(ctx context.Context, rng Range) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := r.DB(ctx).
		Where("status = ?", enums.InvoiceStatusPaid).
		Scopes(repo.Within("paid_at", rng.From, rng.To)).
		Order("paid_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) QuoteSelections(ctx context.Context, rng Range) ([]models.QuoteRequest, error) {
	var rows []models.QuoteRequest
	err := r.DB(ctx).
		Select("id", "proteins", "sides", "appetizers", "desserts", "drinks", "vegetarian_entrees").
		Scopes(repo.Within("created_at", rng.From, rng.To)).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) Invoices(ctx context.Context, rng Range) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := r.DB(ctx).
		Scopes(repo.Within("created_at", rng.From, rng.To)).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// Range is a half-open [From, To) window in UTC.
type Range struct {
	From time.Time
	To   time.Time
}
