package invoices

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catering-backend/internal/lineitems"
	"github.com/angelmondragon/catering-backend/internal/pricing"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

const dueDateLayout = "2006-01-02"

// MaxPerGuestRateCents caps a flat per-guest rate at $100,000.00.
const MaxPerGuestRateCents int64 = 10_000_000

// CreateParams overrides the defaults applied to a new estimate. Nil fields
// fall back to configuration and the quote's compliance level.
type CreateParams struct {
	TaxRate      *string `json:"tax_rate"`
	IsGovernment *bool   `json:"is_government"`
	Notes        *string `json:"notes" validate:"omitempty,max=4000"`
}

// LineItemInput is one manually edited row.
type LineItemInput struct {
	Title          string            `json:"title" validate:"required,max=200"`
	Description    string            `json:"description" validate:"max=2000"`
	Quantity       int               `json:"quantity" validate:"min=0,max=100000"`
	UnitPriceCents int64             `json:"unit_price_cents" validate:"min=0,max=10000000000"`
	Category       string            `json:"category" validate:"required"`
	Metadata       map[string]string `json:"metadata"`
}

// FlatRateInput prices an invoice at a per-guest rate. GuestCount defaults to
// the quote's guest count.
type FlatRateInput struct {
	PerGuestRateCents int64 `json:"per_guest_rate_cents" validate:"min=0,max=10000000"`
	GuestCount        *int  `json:"guest_count" validate:"omitempty,min=1,max=5000"`
}

// TaxInput updates the tax settings of an editable document.
type TaxInput struct {
	TaxRate      string `json:"tax_rate" validate:"required"`
	IsGovernment bool   `json:"is_government"`
}

// ConvertInput turns an estimate into a final invoice.
type ConvertInput struct {
	DueDate string `json:"due_date"`
}

// ListParams filters the admin invoice list.
type ListParams struct {
	Status       string
	DocumentType string
	QuoteID      uuid.UUID
	pagination.Params
}

// ListResult wraps a page of invoices and the cursor for the next page.
type ListResult struct {
	Items  []models.Invoice `json:"items"`
	Cursor string           `json:"cursor"`
}

// FlatRateResult reports how the per-guest target was spread.
type FlatRateResult struct {
	Invoice     *models.Invoice `json:"invoice"`
	TargetCents int64           `json:"target_cents"`
	BaseCents   int64           `json:"base_cents"`
	Remainder   int64           `json:"remainder"`
	GuestCount  int             `json:"guest_count"`
}

func parseTaxRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Field("tax_rate", "must be a decimal percentage")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, pkgerrors.Field("tax_rate", "must be between 0 and 100")
	}
	return rate, nil
}

// documentNumber derives a stable number from the row id so numbering needs
// no shared sequence.
func documentNumber(docType enums.DocumentType, id uuid.UUID, at time.Time) string {
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return fmt.Sprintf("%s-%d-%s", docType.NumberPrefix(), at.Year(), hex[:8])
}

func toModelItems(items []lineitems.LineItem) []models.InvoiceLineItem {
	out := make([]models.InvoiceLineItem, len(items))
	for i, item := range items {
		out[i] = models.InvoiceLineItem{
			Position:        i,
			Title:           item.Title,
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: item.TotalPriceCents,
			Category:        item.Category,
			Metadata:        item.Metadata,
		}
	}
	return out
}

func fromModelItems(items []models.InvoiceLineItem) []lineitems.LineItem {
	out := make([]lineitems.LineItem, len(items))
	for i, item := range items {
		out[i] = lineitems.LineItem{
			Title:           item.Title,
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: item.TotalPriceCents,
			Category:        item.Category,
			Metadata:        item.Metadata,
		}
	}
	return out
}

func (in LineItemInput) toLineItem(index int) (lineitems.LineItem, error) {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", index, name) }
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return lineitems.LineItem{}, pkgerrors.Field(field("title"), "is required")
	}
	if in.Quantity < 0 {
		return lineitems.LineItem{}, pkgerrors.Field(field("quantity"), "must not be negative")
	}
	if in.UnitPriceCents < 0 {
		return lineitems.LineItem{}, pkgerrors.Field(field("unit_price_cents"), "must not be negative")
	}
	total, err := pricing.LineTotal(in.UnitPriceCents, in.Quantity)
	if err != nil {
		return lineitems.LineItem{}, pkgerrors.Field(field("unit_price_cents"), "times quantity exceeds the maximum amount")
	}
	category, err := enums.ParseLineItemCategory(strings.TrimSpace(in.Category))
	if err != nil {
		return lineitems.LineItem{}, pkgerrors.Field(field("category"), "is not a known category")
	}
	return lineitems.LineItem{
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		Quantity:        in.Quantity,
		UnitPriceCents:  in.UnitPriceCents,
		TotalPriceCents: total,
		Category:        category,
		Metadata:        in.Metadata,
	}, nil
}

func cursorOf(inv models.Invoice) pagination.Cursor {
	return pagination.Cursor{CreatedAt: inv.CreatedAt, ID: inv.ID}
}
