// Package reports aggregates quotes and invoices for the back-office
// dashboard and spreadsheet export.
package reports

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catering-backend/internal/menu"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/logger"
)

const (
	dateLayout       = "2006-01-02"
	monthLayout      = "2006-01"
	defaultRangeDays = 365
	maxRangeDays     = 3 * 366
	defaultItemLimit = 10
	maxItemLimit     = 100
)

// Summary is the dashboard headline for a date range.
type Summary struct {
	From                string                      `json:"from"`
	To                  string                      `json:"to"`
	QuotesByStatus      map[enums.QuoteStatus]int64 `json:"quotes_by_status"`
	TotalQuotes         int64                       `json:"total_quotes"`
	EstimatesSent       int64                       `json:"estimates_sent"`
	InvoicesPaid        int64                       `json:"invoices_paid"`
	PaidRevenueCents    int64                       `json:"paid_revenue_cents"`
	AverageInvoiceCents int64                       `json:"average_invoice_cents"`
	ConversionRate      decimal.Decimal             `json:"conversion_rate"`
}

type MonthlyRevenue struct {
	Month        string `json:"month"`
	InvoiceCount int    `json:"invoice_count"`
	RevenueCents int64  `json:"revenue_cents"`
}

type MenuItemCount struct {
	ID     string      `json:"id"`
	Label  string      `json:"label"`
	Course menu.Course `json:"course"`
	Count  int         `json:"count"`
}

type Service interface {
	Summary(ctx context.Context, from, to string) (*Summary, error)
	RevenueByMonth(ctx context.Context, from, to string) ([]MonthlyRevenue, error)
	PopularMenuItems(ctx context.Context, from, to string, limit int) ([]MenuItemCount, error)
	ExportXLSX(ctx context.Context, from, to string) ([]byte, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reports repository required")
	}
	return &service{repo: repo, logg: logg, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Summary(ctx context.Context, from, to string) (*Summary, error) {
	rng, err := s.parseRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, rng)
}

func (s *service) summary(ctx context.Context, rng Range) (*Summary, error) {
	counts, err := s.repo.QuoteStatusCounts(ctx, rng)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quotes")
	}
	sent, err := s.repo.CountSent(ctx, rng)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sent documents")
	}
	paid, err := s.repo.PaidInvoices(ctx, rng)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load paid invoices")
	}

	out := &Summary{
		From:           rng.From.Format(dateLayout),
		To:             rng.To.AddDate(0, 0, -1).Format(dateLayout),
		QuotesByStatus: counts,
		EstimatesSent:  sent,
		InvoicesPaid:   int64(len(paid)),
		ConversionRate: decimal.Zero,
	}
	for _, n := range counts {
		out.TotalQuotes += n
	}
	for _, inv := range paid {
		out.PaidRevenueCents += inv.TotalAmountCents
	}
	if len(paid) > 0 {
		out.AverageInvoiceCents = decimal.NewFromInt(out.PaidRevenueCents).
			Div(decimal.NewFromInt(int64(len(paid)))).
			Round(0).
			IntPart()
	}
	if out.TotalQuotes > 0 {
		out.ConversionRate = decimal.NewFromInt(counts[enums.QuoteStatusBooked]).
			Div(decimal.NewFromInt(out.TotalQuotes)).
			Round(4)
	}
	return out, nil
}

// RevenueByMonth buckets paid invoices by the month they were paid. Months
// with no payments are included with zero totals.
func (s *service) RevenueByMonth(ctx context.Context, from, to string) ([]MonthlyRevenue, error) {
	rng, err := s.parseRange(from, to)
	if err != nil {
		return nil, err
	}
	paid, err := s.repo.PaidInvoices(ctx, rng)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load paid invoices")
	}

	buckets := map[string]*MonthlyRevenue{}
	var out []MonthlyRevenue
	last := rng.To.AddDate(0, 0, -1)
	for m := monthStart(rng.From); !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, MonthlyRevenue{Month: m.Format(monthLayout)})
	}
	for i := range out {
		buckets[out[i].Month] = &out[i]
	}
	for _, inv := range paid {
		if inv.PaidAt == nil {
			continue
		}
		bucket, ok := buckets[inv.PaidAt.UTC().Format(monthLayout)]
		if !ok {
			continue
		}
		bucket.InvoiceCount++
		bucket.RevenueCents += inv.TotalAmountCents
	}
	return out, nil
}

// PopularMenuItems counts how often each menu item was selected across quote
// requests, most requested first.
func (s *service) PopularMenuItems(ctx context.Context, from, to string, limit int) ([]MenuItemCount, error) {
	rng, err := s.parseRange(from, to)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultItemLimit
	}
	if limit > maxItemLimit {
		limit = maxItemLimit
	}
	rows, err := s.repo.QuoteSelections(ctx, rng)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote selections")
	}

	counts := map[string]*MenuItemCount{}
	add := func(ids []string, course menu.Course) {
		for _, raw := range ids {
			id := strings.ToLower(strings.TrimSpace(raw))
			if id == "" {
				continue
			}
			entry, ok := counts[id]
			if !ok {
				entry = &MenuItemCount{ID: id, Label: menu.Format(id), Course: course}
				if item, known := menu.Lookup(id); known {
					entry.Course = item.Course
				}
				counts[id] = entry
			}
			entry.Count++
		}
	}
	for _, q := range rows {
		add(q.Proteins, menu.CourseProtein)
		add(q.Sides, menu.CourseSide)
		add(q.Appetizers, menu.CourseAppetizer)
		add(q.Desserts, menu.CourseDessert)
		add(q.Drinks, menu.CourseDrink)
		add(q.VegetarianEntrees, menu.CourseVegetarian)
	}

	out := make([]MenuItemCount, 0, len(counts))
	for _, entry := range counts {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// parseRange reads inclusive YYYY-MM-DD bounds. A missing "to" means today;
// a missing "from" means a year before "to".
func (s *service) parseRange(from, to string) (Range, error) {
	end := dayStart(s.now())
	if raw := strings.TrimSpace(to); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Range{}, pkgerrors.Field("to", "must be a YYYY-MM-DD date")
		}
		end = parsed
	}
	start := end.AddDate(0, 0, -defaultRangeDays)
	if raw := strings.TrimSpace(from); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Range{}, pkgerrors.Field("from", "must be a YYYY-MM-DD date")
		}
		start = parsed
	}
	if start.After(end) {
		return Range{}, pkgerrors.Field("from", "must not be after to")
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return Range{}, pkgerrors.Field("from", "range is too large")
	}
	return Range{From: start, To: end.AddDate(0, 0, 1)}, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
