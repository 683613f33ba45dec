package invoices

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/catering-backend/api/middleware"
	"github.com/angelmondragon/catering-backend/api/responses"
	"github.com/angelmondragon/catering-backend/api/validators"
	internalinvoices "github.com/angelmondragon/catering-backend/internal/invoices"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

type replaceLineItemsRequest struct {
	Items []internalinvoices.LineItemInput `json:"items" validate:"max=200,dive"`
}

// PreviewLineItems returns generator output for a quote without saving it.
func PreviewLineItems(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := validators.ParseUUIDParam(r, "quoteId", "quote")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.PreviewLineItems(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// CreateFromQuote opens the estimate for a quote.
func CreateFromQuote(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := validators.ParseUUIDParam(r, "quoteId", "quote")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var params internalinvoices.CreateParams
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &params); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithQuoteID(ctx, quoteID.String())
		}
		invoice, err := svc.CreateFromQuote(ctx, quoteID, params, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

func List(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quoteID, err := validators.ParseQueryUUID(r, "quote_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), internalinvoices.ListParams{
			Status:       validators.QueryString(r, "status"),
			DocumentType: validators.QueryString(r, "document_type"),
			QuoteID:      quoteID,
			Params: pagination.Params{
				Limit:  limit,
				Cursor: validators.QueryString(r, "cursor"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Detail(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, noBody, http.StatusOK, func(ctx context.Context, id uuid.UUID, _ struct{}, _ *outbox.ActorRef) (*models.Invoice, error) {
		return svc.Get(ctx, id)
	})
}

// ReplaceLineItems stores a manually edited item list.
func ReplaceLineItems(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, requiredBody, http.StatusOK, func(ctx context.Context, id uuid.UUID, body replaceLineItemsRequest, _ *outbox.ActorRef) (*models.Invoice, error) {
		return svc.ReplaceLineItems(ctx, id, body.Items)
	})
}

func RegenerateLineItems(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, noBody, http.StatusOK, func(ctx context.Context, id uuid.UUID, _ struct{}, _ *outbox.ActorRef) (*models.Invoice, error) {
		return svc.RegenerateLineItems(ctx, id)
	})
}

// ApplyFlatRate spreads a per-guest price over the invoice items.
func ApplyFlatRate(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, requiredBody, http.StatusOK, func(ctx context.Context, id uuid.UUID, in internalinvoices.FlatRateInput, _ *outbox.ActorRef) (*internalinvoices.FlatRateResult, error) {
		return svc.ApplyFlatRate(ctx, id, in)
	})
}

func UpdateTax(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, requiredBody, http.StatusOK, func(ctx context.Context, id uuid.UUID, in internalinvoices.TaxInput, _ *outbox.ActorRef) (*models.Invoice, error) {
		return svc.UpdateTax(ctx, id, in)
	})
}

// Convert turns an estimate into a final invoice.
func Convert(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, optionalBody, http.StatusOK, svc.ConvertToInvoice)
}

func MarkPaid(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, noBody, http.StatusOK, func(ctx context.Context, id uuid.UUID, _ struct{}, actor *outbox.ActorRef) (*models.Invoice, error) {
		return svc.MarkPaid(ctx, id, actor)
	})
}

func Cancel(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, noBody, http.StatusOK, func(ctx context.Context, id uuid.UUID, _ struct{}, actor *outbox.ActorRef) (*models.Invoice, error) {
		return svc.Cancel(ctx, id, actor)
	})
}
