package router

import (
	"context"
	"fmt"

	analytics "github.com/angelmondragon/catering-backend/internal/analytics"
	"github.com/angelmondragon/catering-backend/internal/analytics/types"
	"github.com/angelmondragon/catering-backend/pkg/outbox/payloads"
)

func (r *Router) quoteSubmittedHandler() EventHandler {
	return func(ctx context.Context, envelope types.Envelope) error {
		var payload payloads.QuoteSubmittedEvent
		row, err := r.baseRow(envelope, &payload)
		if err != nil {
			return err
		}
		row.OccurredAt = envelope.OccurredAt.UTC()
		row.QuoteID = id(payload.QuoteID)
		row.GuestCount = cents(int64(payload.GuestCount))
		row.ServiceType = text(payload.ServiceType)
		row.EventDate = date(payload.EventDate)
		return r.writer.Insert(ctx, row)
	}
}

func (r *Router) estimateCreatedHandler() EventHandler {
	return func(ctx context.Context, envelope types.Envelope) error {
		var payload payloads.EstimateCreatedEvent
		row, err := r.baseRow(envelope, &payload)
		if err != nil {
			return err
		}
		row.OccurredAt = envelope.OccurredAt.UTC()
		row.QuoteID = id(payload.QuoteID)
		row.InvoiceID = id(payload.InvoiceID)
		row.DocumentNo = text(payload.Number)
		row.GuestCount = cents(int64(payload.GuestCount))
		return r.writer.Insert(ctx, row)
	}
}

func (r *Router) invoiceIssuedHandler() EventHandler {
	return func(ctx context.Context, envelope types.Envelope) error {
		var payload payloads.InvoiceIssuedEvent
		row, err := r.baseRow(envelope, &payload)
		if err != nil {
			return err
		}
		row.OccurredAt = envelope.OccurredAt.UTC()
		row.QuoteID = id(payload.QuoteID)
		row.InvoiceID = id(payload.InvoiceID)
		row.DocumentNo = text(payload.Number)
		row.TotalCents = cents(payload.TotalCents)
		return r.writer.Insert(ctx, row)
	}
}

// Paid rows carry the revenue split so the warehouse can report tax
// separately from government sales.
func (r *Router) invoicePaidHandler() EventHandler {
	return func(ctx context.Context, envelope types.Envelope) error {
		var payload payloads.InvoicePaidEvent
		row, err := r.baseRow(envelope, &payload)
		if err != nil {
			return err
		}
		paidAt := payload.PaidAt
		row.OccurredAt = analytics.EventTimestamp(&paidAt, envelope.OccurredAt)
		row.QuoteID = id(payload.QuoteID)
		row.InvoiceID = id(payload.InvoiceID)
		row.DocumentNo = text(payload.Number)
		row.SubtotalCents = cents(payload.SubtotalCents)
		row.TaxCents = cents(payload.TaxCents)
		row.TotalCents = cents(payload.TotalCents)
		row.IsGovernment = flag(payload.IsGovernment)
		return r.writer.Insert(ctx, row)
	}
}

func (r *Router) invoiceCancelledHandler() EventHandler {
	return func(ctx context.Context, envelope types.Envelope) error {
		var payload payloads.InvoiceCancelledEvent
		row, err := r.baseRow(envelope, &payload)
		if err != nil {
			return err
		}
		row.OccurredAt = envelope.OccurredAt.UTC()
		row.QuoteID = id(payload.QuoteID)
		row.InvoiceID = id(payload.InvoiceID)
		row.DocumentNo = text(payload.Number)
		return r.writer.Insert(ctx, row)
	}
}

func (r *Router) contractSignedHandler() EventHandler {
	return func(ctx context.Context, envelope types.Envelope) error {
		var payload payloads.ContractEvent
		row, err := r.baseRow(envelope, &payload)
		if err != nil {
			return err
		}
		row.OccurredAt = analytics.EventTimestamp(payload.SignedAt, envelope.OccurredAt)
		row.QuoteID = id(payload.QuoteID)
		row.InvoiceID = id(payload.InvoiceID)
		row.ContractID = id(payload.ContractID)
		return r.writer.Insert(ctx, row)
	}
}

// baseRow decodes the payload into dst and fills the columns every row shares.
func (r *Router) baseRow(envelope types.Envelope, dst any) (types.CateringEventRow, error) {
	if err := envelope.Decode(dst); err != nil {
		return types.CateringEventRow{}, fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}
	return types.CateringEventRow{
		EventID:   envelope.EventID,
		EventType: string(envelope.EventType),
		Payload:   document(envelope.Payload),
	}, nil
}
