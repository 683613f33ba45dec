package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catering-backend/internal/pricing"
	"github.com/angelmondragon/catering-backend/internal/quotes"
	"github.com/angelmondragon/catering-backend/pkg/config"
	"github.com/angelmondragon/catering-backend/pkg/db/dbtest"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

var fixedNow = time.Date(2026, 10, 1, 15, 0, 0, 0, time.UTC)

type harness struct {
	svc    Service
	quotes quotes.Repository
	events *outbox.Repository
}

func newHarness(t *testing.T) harness {
	t.Helper()
	client := dbtest.Client(t)
	events := outbox.NewRepository(client.DB())
	quoteRepo := quotes.NewRepository(client.DB())
	business := config.BusinessConfig{DefaultTaxRate: "8.25", InvoiceDueDays: 14}

	svc, err := NewService(NewRepository(client.DB()), quoteRepo, client, outbox.NewService(events, nil), business, nil, nil)
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return fixedNow }
	return harness{svc: svc, quotes: quoteRepo, events: events}
}

func (h harness) seedQuote(t *testing.T, mutate func(*models.QuoteRequest)) *models.QuoteRequest {
	t.Helper()
	quote := &models.QuoteRequest{
		Status:           enums.QuoteStatusNew,
		ContactName:      "Dana Whitfield",
		Email:            "dana@example.com",
		EventType:        "wedding",
		EventDate:        time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC),
		GuestCount:       50,
		ServiceType:      "full-service",
		Proteins:         []string{"fried-chicken"},
		Sides:            []string{"mac-and-cheese", "collard-greens", "cornbread"},
		ChafersRequested: true,
	}
	if mutate != nil {
		mutate(quote)
	}
	require.NoError(t, h.quotes.Create(context.Background(), quote))
	return quote
}

func (h harness) eventTypes(t *testing.T, aggType enums.OutboxAggregateType, id uuid.UUID) []enums.OutboxEventType {
	t.Helper()
	rows, err := h.events.ListByAggregate(context.Background(), aggType, id)
	require.NoError(t, err)
	out := make([]enums.OutboxEventType, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.EventType)
	}
	return out
}

func sumLineTotals(inv *models.Invoice) int64 {
	var total int64
	for _, item := range inv.LineItems {
		total += item.TotalPriceCents
	}
	return total
}

func TestCreateFromQuoteBuildsEstimateAndAdvancesQuote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, nil)

	inv, err := h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.NoError(t, err)

	assert.Equal(t, enums.DocumentTypeEstimate, inv.DocumentType)
	assert.Equal(t, enums.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, documentNumber(enums.DocumentTypeEstimate, inv.ID, fixedNow), inv.Number)
	assert.Regexp(t, `^EST-2026-[0-9A-F]{8}$`, inv.Number)
	assert.True(t, inv.TaxRate.Equal(decimal.RequireFromString("8.25")))
	assert.Len(t, inv.LineItems, 4)

	stored, err := h.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.LineItems, 4)
	assert.Equal(t, "Catering Package", stored.LineItems[0].Title)
	for i, item := range stored.LineItems {
		assert.Equal(t, i, item.Position)
	}

	advanced, err := h.quotes.FindByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuoteStatusEstimated, advanced.Status)

	assert.Equal(t, []enums.OutboxEventType{enums.EventQuoteStatusChanged, enums.EventQuoteStatusChanged}, h.eventTypes(t, enums.AggregateQuoteRequest, quote.ID))
	assert.Equal(t, []enums.OutboxEventType{enums.EventEstimateCreated}, h.eventTypes(t, enums.AggregateInvoice, inv.ID))
}

func TestCreateFromQuoteRejectsSecondEstimate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, nil)

	_, err := h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.NoError(t, err)

	_, err = h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateFromQuoteHonoursOverrides(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, func(q *models.QuoteRequest) { q.GovernmentComplianceLevel = "federal" })

	rate := "7.5"
	notes := "  gate code 4411  "
	inv, err := h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{TaxRate: &rate, Notes: &notes}, nil)
	require.NoError(t, err)

	assert.True(t, inv.IsGovernmentContract)
	assert.True(t, inv.TaxRate.Equal(decimal.RequireFromString("7.5")))
	assert.Zero(t, inv.TaxAmountCents)
	require.NotNil(t, inv.Notes)
	assert.Equal(t, "gate code 4411", *inv.Notes)

	bad := "140"
	_, err = h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{TaxRate: &bad}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateFromQuoteMissingQuote(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.CreateFromQuote(context.Background(), uuid.New(), CreateParams{}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPreviewLineItemsDoesNotPersist(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, nil)

	items, err := h.svc.PreviewLineItems(ctx, quote.ID)
	require.NoError(t, err)
	assert.Len(t, items, 4)

	list, err := h.svc.List(ctx, ListParams{QuoteID: quote.ID})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestApplyFlatRateDistributesRemainder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, nil)
	inv, err := h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.NoError(t, err)

	res, err := h.svc.ApplyFlatRate(ctx, inv.ID, FlatRateInput{PerGuestRateCents: 1001})
	require.NoError(t, err)

	assert.Equal(t, 50, res.GuestCount)
	assert.Equal(t, int64(50050), res.TargetCents)
	assert.Equal(t, int64(12512), res.BaseCents)
	assert.Equal(t, int64(2), res.Remainder)

	stored, err := h.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	var units int64
	for i, item := range stored.LineItems {
		units += item.UnitPriceCents
		assert.Equal(t, item.UnitPriceCents*int64(item.Quantity), item.TotalPriceCents)
		if i < 2 {
			assert.Equal(t, int64(12513), item.UnitPriceCents)
		} else {
			assert.Equal(t, int64(12512), item.UnitPriceCents)
		}
	}
	assert.Equal(t, res.TargetCents, units)
	assert.Equal(t, sumLineTotals(stored), stored.SubtotalCents)
	assert.Equal(t, stored.SubtotalCents+stored.TaxAmountCents, stored.TotalAmountCents)

	guests := 10
	res, err = h.svc.ApplyFlatRate(ctx, inv.ID, FlatRateInput{PerGuestRateCents: 400, GuestCount: &guests})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), res.TargetCents)
	assert.Equal(t, int64(1000), res.BaseCents)
	assert.Zero(t, res.Remainder)
}

func TestPricingRejectsAmountsPastTheLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv, err := h.svc.CreateFromQuote(ctx, h.seedQuote(t, nil).ID, CreateParams{}, nil)
	require.NoError(t, err)

	fieldOf := func(err error) map[string]string {
		t.Helper()
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		details, _ := pkgerrors.As(err).Details().(map[string]string)
		return details
	}

	_, err = h.svc.ApplyFlatRate(ctx, inv.ID, FlatRateInput{PerGuestRateCents: 1 << 58})
	assert.Contains(t, fieldOf(err), "per_guest_rate_cents")

	guests := 5000
	_, err = h.svc.ApplyFlatRate(ctx, inv.ID, FlatRateInput{PerGuestRateCents: MaxPerGuestRateCents, GuestCount: &guests})
	assert.Contains(t, fieldOf(err), "per_guest_rate_cents")

	guests = 5001
	_, err = h.svc.ApplyFlatRate(ctx, inv.ID, FlatRateInput{PerGuestRateCents: 100, GuestCount: &guests})
	assert.Contains(t, fieldOf(err), "guest_count")

	_, err = h.svc.ReplaceLineItems(ctx, inv.ID, []LineItemInput{
		{Title: "Gold Leaf", Quantity: 100000, UnitPriceCents: 1 << 40, Category: "package"},
	})
	assert.Contains(t, fieldOf(err), "items[0].unit_price_cents")

	half := pricing.MaxAmountCents/2 + 1
	_, err = h.svc.ReplaceLineItems(ctx, inv.ID, []LineItemInput{
		{Title: "Venue", Quantity: 1, UnitPriceCents: half, Category: "service"},
		{Title: "Venue Again", Quantity: 1, UnitPriceCents: half, Category: "service"},
	})
	assert.Contains(t, fieldOf(err), "items")

	stored, err := h.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.SubtotalCents)
	assert.Equal(t, sumLineTotals(stored), stored.SubtotalCents)
}

func TestReplaceLineItemsRecomputesTotals(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, nil)
	inv, err := h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.NoError(t, err)

	updated, err := h.svc.ReplaceLineItems(ctx, inv.ID, []LineItemInput{
		{Title: "Catering Package", Quantity: 50, UnitPriceCents: 2200, Category: "package"},
		{Title: "Delivery", Quantity: 1, UnitPriceCents: 7500, Category: "service"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(117500), updated.SubtotalCents)
	assert.Equal(t, int64(9694), updated.TaxAmountCents)
	assert.Equal(t, int64(127194), updated.TotalAmountCents)

	stored, err := h.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.LineItems, 2)
	assert.Equal(t, "Delivery", stored.LineItems[1].Title)

	_, err = h.svc.ReplaceLineItems(ctx, inv.ID, []LineItemInput{{Title: "Mystery", Quantity: 1, Category: "bogus"}})
	require.Error(t, err)
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	assert.Contains(t, details, "items[0].category")
}

func TestUpdateTaxAppliesGovernmentExemption(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, nil)
	inv, err := h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.NoError(t, err)
	_, err = h.svc.ReplaceLineItems(ctx, inv.ID, []LineItemInput{
		{Title: "Catering Package", Quantity: 100, UnitPriceCents: 1000, Category: "package"},
	})
	require.NoError(t, err)

	updated, err := h.svc.UpdateTax(ctx, inv.ID, TaxInput{TaxRate: "10", IsGovernment: false})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), updated.TaxAmountCents)
	assert.Equal(t, int64(110000), updated.TotalAmountCents)

	updated, err = h.svc.UpdateTax(ctx, inv.ID, TaxInput{TaxRate: "10", IsGovernment: true})
	require.NoError(t, err)
	assert.Zero(t, updated.TaxAmountCents)
	assert.Equal(t, int64(100000), updated.TotalAmountCents)
}

func TestInvoiceLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, nil)
	inv, err := h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.NoError(t, err)

	_, err = h.svc.MarkPaid(ctx, inv.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "estimates cannot be paid")

	converted, err := h.svc.ConvertToInvoice(ctx, inv.ID, ConvertInput{}, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.DocumentTypeInvoice, converted.DocumentType)
	assert.Regexp(t, `^INV-2026-[0-9A-F]{8}$`, converted.Number)
	require.NotNil(t, converted.DueDate)
	assert.Equal(t, "2026-10-15", converted.DueDate.Format(dueDateLayout))

	_, err = h.svc.ConvertToInvoice(ctx, inv.ID, ConvertInput{}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	paid, err := h.svc.MarkPaid(ctx, inv.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = h.svc.Cancel(ctx, inv.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.RegenerateLineItems(ctx, inv.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventEstimateCreated,
		enums.EventInvoiceIssued,
		enums.EventInvoicePaid,
	}, h.eventTypes(t, enums.AggregateInvoice, inv.ID))
}

func TestConvertRejectsPastDueDate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, nil)
	inv, err := h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.NoError(t, err)

	_, err = h.svc.ConvertToInvoice(ctx, inv.ID, ConvertInput{DueDate: "2026-09-01"}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	converted, err := h.svc.ConvertToInvoice(ctx, inv.ID, ConvertInput{DueDate: "2026-12-01"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-12-01", converted.DueDate.Format(dueDateLayout))
}

func TestCancelLocksEditing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, nil)
	inv, err := h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.NoError(t, err)

	cancelled, err := h.svc.Cancel(ctx, inv.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusCancelled, cancelled.Status)

	_, err = h.svc.ApplyFlatRate(ctx, inv.ID, FlatRateInput{PerGuestRateCents: 1000})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	// a cancelled estimate no longer blocks a fresh one
	_, err = h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.NoError(t, err)
}

func TestMarkOverdueIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quote := h.seedQuote(t, nil)
	inv, err := h.svc.CreateFromQuote(ctx, quote.ID, CreateParams{}, nil)
	require.NoError(t, err)
	_, err = h.svc.ConvertToInvoice(ctx, inv.ID, ConvertInput{}, nil)
	require.NoError(t, err)

	// drafts are never flagged
	marked, err := h.svc.MarkOverdue(ctx, fixedNow.AddDate(0, 1, 0), 10)
	require.NoError(t, err)
	assert.Zero(t, marked)

	repo := h.svc.(*service).repo
	stored, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	stored.Status = enums.InvoiceStatusSent
	require.NoError(t, repo.SaveHeader(ctx, stored))

	marked, err = h.svc.MarkOverdue(ctx, fixedNow, 10)
	require.NoError(t, err)
	assert.Zero(t, marked, "not yet due")

	marked, err = h.svc.MarkOverdue(ctx, fixedNow.AddDate(0, 1, 0), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	marked, err = h.svc.MarkOverdue(ctx, fixedNow.AddDate(0, 2, 0), 10)
	require.NoError(t, err)
	assert.Zero(t, marked)

	overdue, err := h.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusOverdue, overdue.Status)

	// overdue invoices can still be paid
	_, err = h.svc.MarkPaid(ctx, inv.ID, nil)
	require.NoError(t, err)
}

func TestListFiltersByDocumentType(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.CreateFromQuote(ctx, h.seedQuote(t, nil).ID, CreateParams{}, nil)
	require.NoError(t, err)
	_, err = h.svc.CreateFromQuote(ctx, h.seedQuote(t, nil).ID, CreateParams{}, nil)
	require.NoError(t, err)
	_, err = h.svc.ConvertToInvoice(ctx, first.ID, ConvertInput{}, nil)
	require.NoError(t, err)

	invoicesOnly, err := h.svc.List(ctx, ListParams{DocumentType: "invoice"})
	require.NoError(t, err)
	require.Len(t, invoicesOnly.Items, 1)
	assert.Equal(t, first.ID, invoicesOnly.Items[0].ID)

	all, err := h.svc.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = h.svc.List(ctx, ListParams{Status: "lost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListCursorWalksEveryInvoiceOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	want := map[uuid.UUID]bool{}
	for i := 0; i < 5; i++ {
		inv, err := h.svc.CreateFromQuote(ctx, h.seedQuote(t, nil).ID, CreateParams{}, nil)
		require.NoError(t, err)
		want[inv.ID] = true
	}

	seen := map[uuid.UUID]int{}
	cursor := ""
	for pages := 1; ; pages++ {
		require.LessOrEqual(t, pages, 3)
		page, err := h.svc.List(ctx, ListParams{Params: pagination.Params{Limit: 2, Cursor: cursor}})
		require.NoError(t, err)
		for _, item := range page.Items {
			seen[item.ID]++
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	require.Len(t, seen, len(want))
	for id, count := range seen {
		assert.True(t, want[id])
		assert.Equal(t, 1, count, "invoice %s listed more than once", id)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil, config.BusinessConfig{}, nil, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
