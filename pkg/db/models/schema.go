package models

// Schema lists the persisted models in dependency order. It drives the sqlite
// dev schema and test databases; Postgres uses the goose migrations.
func Schema() []any {
	return []any{
		&QuoteRequest{},
		&Invoice{},
		&InvoiceLineItem{},
		&Contract{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
