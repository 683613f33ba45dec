package invoices

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/catering-backend/api/middleware"
	"github.com/angelmondragon/catering-backend/api/responses"
	"github.com/angelmondragon/catering-backend/api/validators"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
)

type bodyMode int

const (
	noBody bodyMode = iota
	optionalBody
	requiredBody
)

// invoiceAction serves a route under /invoices/{invoiceId}: it parses the id,
// decodes In according to mode, tags the log context and writes run's result
// with status.
func invoiceAction[In, Out any](logg *logger.Logger, mode bodyMode, status int, run func(context.Context, uuid.UUID, In, *outbox.ActorRef) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceID, err := validators.ParseUUIDParam(r, "invoiceId", "invoice")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var in In
		if mode == requiredBody || (mode == optionalBody && r.ContentLength != 0) {
			if err := validators.DecodeJSONBody(r, &in); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithInvoiceID(ctx, invoiceID.String())
		}
		out, err := run(ctx, invoiceID, in, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, out)
	}
}
