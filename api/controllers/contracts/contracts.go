package contracts

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/catering-backend/api/middleware"
	"github.com/angelmondragon/catering-backend/api/responses"
	"github.com/angelmondragon/catering-backend/api/validators"
	internalcontracts "github.com/angelmondragon/catering-backend/internal/contracts"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

func Create(svc internalcontracts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input internalcontracts.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithInvoiceID(ctx, input.InvoiceID.String())
		}
		contract, err := svc.Create(ctx, input, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, contract)
	}
}

func List(svc internalcontracts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := validators.ParseQueryUUID(r, "invoice_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), internalcontracts.ListParams{
			Status:    validators.QueryString(r, "status"),
			InvoiceID: invoiceID,
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

func Detail(svc internalcontracts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contractID, err := validators.ParseUUIDParam(r, "contractId", "contract")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contract, err := svc.Get(r.Context(), contractID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contract)
	}
}

// step serves the POST /contracts/{contractId}/<action> routes. The body is
// optional; an empty one leaves In at its zero value.
func step[In any](logg *logger.Logger, status int, run func(context.Context, uuid.UUID, In, *outbox.ActorRef) (*models.Contract, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contractID, err := validators.ParseUUIDParam(r, "contractId", "contract")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var in In
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &in); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithContractID(ctx, contractID.String())
		}
		contract, err := run(ctx, contractID, in, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, contract)
	}
}

// Send hands the contract to the signing email function.
func Send(svc internalcontracts.Service, logg *logger.Logger) http.HandlerFunc {
	send := func(ctx context.Context, id uuid.UUID, _ struct{}, actor *outbox.ActorRef) (*models.Contract, error) {
		return svc.Send(ctx, id, actor)
	}
	return step(logg, http.StatusAccepted, send)
}

// MarkSigned records a signature and books the quote.
func MarkSigned(svc internalcontracts.Service, logg *logger.Logger) http.HandlerFunc {
	return step(logg, http.StatusOK, svc.MarkSigned)
}

func Void(svc internalcontracts.Service, logg *logger.Logger) http.HandlerFunc {
	return step(logg, http.StatusOK, svc.Void)
}
