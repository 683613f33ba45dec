// Package pricing assigns prices to generated line items and keeps invoice
// totals consistent. All money is integer cents.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catering-backend/internal/lineitems"
)

// MaxAmountCents bounds every price, line total and subtotal at
// $100,000,000.00. Tax is at most 100%, so totals stay far inside int64.
const MaxAmountCents int64 = 10_000_000_000

// ErrAmountTooLarge is returned when a product or sum passes MaxAmountCents.
var ErrAmountTooLarge = errors.New("pricing: amount exceeds limit")

// Totals are the invoice-level amounts derived from a set of line items.
type Totals struct {
	SubtotalCents  int64 `json:"subtotal_cents"`
	TaxAmountCents int64 `json:"tax_amount_cents"`
	TotalCents     int64 `json:"total_cents"`
}

// Result is the outcome of a flat-rate pricing pass.
type Result struct {
	Items       []lineitems.LineItem `json:"items"`
	TargetCents int64                `json:"target_cents"`
	BaseCents   int64                `json:"base_cents"`
	Remainder   int64                `json:"remainder"`
	Totals      Totals               `json:"totals"`
}

// ApplyFlatRate spreads perGuestRateCents*guestCount evenly across items. The
// first target%len(items) items take one extra cent so the unit prices always
// add up to the target. Each item's total is unit price times quantity.
//
// The input slice is not modified. Negative rates or guest counts are treated
// as zero. An empty item list yields a zero result. Callers bound the inputs
// with CheckFlatRate first.
func ApplyFlatRate(items []lineitems.LineItem, perGuestRateCents int64, guestCount int, taxRate decimal.Decimal, isGovernment bool) Result {
	out := cloneItems(items)
	n := int64(len(out))
	if n == 0 {
		return Result{Items: out}
	}

	target := perGuestRateCents * int64(guestCount)
	if perGuestRateCents < 0 || guestCount < 0 {
		target = 0
	}

	base := target / n
	remainder := target % n
	for i := range out {
		unit := base
		if int64(i) < remainder {
			unit++
		}
		out[i].UnitPriceCents = unit
		out[i].TotalPriceCents = unit * int64(out[i].Quantity)
	}

	return Result{
		Items:       out,
		TargetCents: target,
		BaseCents:   base,
		Remainder:   remainder,
		Totals:      Calculate(out, taxRate, isGovernment),
	}
}

// Calculate recomputes subtotal, tax and total from the items' total prices.
func Calculate(items []lineitems.LineItem, taxRate decimal.Decimal, isGovernment bool) Totals {
	var subtotal int64
	for _, item := range items {
		subtotal += item.TotalPriceCents
	}
	return TotalsFor(subtotal, taxRate, isGovernment)
}

// TotalsFor derives tax and total for a known subtotal.
func TotalsFor(subtotalCents int64, taxRate decimal.Decimal, isGovernment bool) Totals {
	tax := Tax(subtotalCents, taxRate, isGovernment)
	return Totals{
		SubtotalCents:  subtotalCents,
		TaxAmountCents: tax,
		TotalCents:     subtotalCents + tax,
	}
}

// Tax is round(subtotal * rate / 100), half away from zero. Government
// contracts are tax exempt.
func Tax(subtotalCents int64, taxRate decimal.Decimal, isGovernment bool) int64 {
	if isGovernment {
		return 0
	}
	return decimal.NewFromInt(subtotalCents).Mul(taxRate).Shift(-2).Round(0).IntPart()
}

// LineTotal is the extended price of a single row.
func LineTotal(unitPriceCents int64, quantity int) (int64, error) {
	return MulCents(unitPriceCents, int64(quantity))
}

// MulCents multiplies two non-negative operands, failing with
// ErrAmountTooLarge instead of passing MaxAmountCents.
func MulCents(cents, n int64) (int64, error) {
	if cents < 0 || n < 0 {
		return 0, fmt.Errorf("pricing: negative operand %d x %d", cents, n)
	}
	if n != 0 && cents > MaxAmountCents/n {
		return 0, ErrAmountTooLarge
	}
	return cents * n, nil
}

// CheckFlatRate reports whether perGuestRateCents*guestCount is in range.
func CheckFlatRate(perGuestRateCents int64, guestCount int) error {
	_, err := MulCents(perGuestRateCents, int64(guestCount))
	return err
}

// CheckItems verifies each row's unit price times quantity and the running
// subtotal against MaxAmountCents.
func CheckItems(items []lineitems.LineItem) error {
	var subtotal int64
	for i, item := range items {
		total, err := LineTotal(item.UnitPriceCents, item.Quantity)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		subtotal += total
		if subtotal > MaxAmountCents {
			return ErrAmountTooLarge
		}
	}
	return nil
}

func cloneItems(items []lineitems.LineItem) []lineitems.LineItem {
	out := make([]lineitems.LineItem, len(items))
	for i, item := range items {
		out[i] = item
		if item.Metadata != nil {
			meta := make(map[string]string, len(item.Metadata))
			for k, v := range item.Metadata {
				meta[k] = v
			}
			out[i].Metadata = meta
		}
	}
	return out
}
