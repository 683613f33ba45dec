package types

import (
	"errors"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

var errEmptyPayload = errors.New("payload is empty")

// CateringEventRow mirrors the catering_events BigQuery schema. Columns that
// only some event types fill are nullable.
type CateringEventRow struct {
	EventID       string               `bigquery:"event_id"`
	EventType     string               `bigquery:"event_type"`
	OccurredAt    time.Time            `bigquery:"occurred_at"`
	QuoteID       cbigquery.NullString `bigquery:"quote_id"`
	InvoiceID     cbigquery.NullString `bigquery:"invoice_id"`
	ContractID    cbigquery.NullString `bigquery:"contract_id"`
	DocumentNo    cbigquery.NullString `bigquery:"document_number"`
	GuestCount    cbigquery.NullInt64  `bigquery:"guest_count"`
	ServiceType   cbigquery.NullString `bigquery:"service_type"`
	EventDate     cbigquery.NullDate   `bigquery:"event_date"`
	SubtotalCents cbigquery.NullInt64  `bigquery:"subtotal_cents"`
	TaxCents      cbigquery.NullInt64  `bigquery:"tax_cents"`
	TotalCents    cbigquery.NullInt64  `bigquery:"total_cents"`
	IsGovernment  cbigquery.NullBool   `bigquery:"is_government"`
	Payload       cbigquery.NullJSON   `bigquery:"payload"`
}

// Schema is the table layout derived from CateringEventRow.
func Schema() (cbigquery.Schema, error) {
	return cbigquery.InferSchema(CateringEventRow{})
}
