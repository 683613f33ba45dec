package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/money"
)

const (
	summarySheet  = "Summary"
	invoicesSheet = "Invoices"
)

var invoiceHeaders = []string{"Number", "Type", "Status", "Created", "Due", "Paid", "Subtotal", "Tax", "Total", "Government", "Notes"}

// ExportXLSX builds a workbook with a Summary sheet and one row per invoice
// created in the range.
func (s *service) ExportXLSX(ctx context.Context, from, to string) ([]byte, error) {
	rng, err := s.parseRange(from, to)
	if err != nil {
		return nil, err
	}
	summary, err := s.summary(ctx, rng)
	if err != nil {
		return nil, err
	}
	invoices, err := s.repo.Invoices(ctx, rng)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoices")
	}

	data, err := buildWorkbook(summary, invoices)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build workbook")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"from": summary.From, "to": summary.To, "rows": len(invoices)})
		s.logg.Info(logCtx, "report export generated")
	}
	return data, nil
}

func buildWorkbook(summary *Summary, invoices []models.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(invoicesSheet); err != nil {
		return nil, fmt.Errorf("add invoices sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := writeSummary(f, summary, header); err != nil {
		return nil, err
	}
	if err := writeInvoices(f, invoices, header); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, summary *Summary, header int) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"From", summary.From},
		{"To", summary.To},
		{"Total quotes", summary.TotalQuotes},
	}
	for _, status := range []enums.QuoteStatus{
		enums.QuoteStatusNew,
		enums.QuoteStatusReviewing,
		enums.QuoteStatusEstimated,
		enums.QuoteStatusBooked,
		enums.QuoteStatusDeclined,
		enums.QuoteStatusArchived,
	} {
		rows = append(rows, []any{"Quotes " + string(status), summary.QuotesByStatus[status]})
	}
	rows = append(rows,
		[]any{"Documents sent", summary.EstimatesSent},
		[]any{"Invoices paid", summary.InvoicesPaid},
		[]any{"Paid revenue", money.FormatUSD(summary.PaidRevenueCents)},
		[]any{"Average invoice", money.FormatUSD(summary.AverageInvoiceCents)},
		[]any{"Conversion rate", summary.ConversionRate.Shift(2).StringFixed(2) + "%"},
	)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", header); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	return f.SetColWidth(summarySheet, "A", "B", 22)
}

func writeInvoices(f *excelize.File, invoices []models.Invoice, header int) error {
	headers := make([]any, len(invoiceHeaders))
	for i, h := range invoiceHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(invoicesSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write invoice header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(invoiceHeaders), 1)
	if err := f.SetCellStyle(invoicesSheet, "A1", last, header); err != nil {
		return fmt.Errorf("style invoice header: %w", err)
	}

	for i, inv := range invoices {
		row := []any{
			sanitizeCell(inv.Number),
			string(inv.DocumentType),
			string(inv.Status),
			inv.CreatedAt.UTC().Format(dateLayout),
			formatDate(inv.DueDate),
			formatDate(inv.PaidAt),
			money.FormatCents(inv.SubtotalCents),
			money.FormatCents(inv.TaxAmountCents),
			money.FormatCents(inv.TotalAmountCents),
			yesNo(inv.IsGovernmentContract),
			sanitizeCell(notesOf(inv)),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(invoicesSheet, cell, &row); err != nil {
			return fmt.Errorf("write invoice row: %w", err)
		}
	}
	return f.SetColWidth(invoicesSheet, "A", "K", 16)
}

// sanitizeCell keeps user-controlled text from being evaluated as a formula.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func notesOf(inv models.Invoice) string {
	if inv.Notes == nil {
		return ""
	}
	return *inv.Notes
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
