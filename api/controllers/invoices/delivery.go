package invoices

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/catering-backend/internal/estimates"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
)

// Send queues the estimate or invoice email for the client.
func Send(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, optionalBody, http.StatusAccepted, svc.Send)
}

// RequestDocument asks the PDF function to render the document.
func RequestDocument(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, noBody, http.StatusAccepted, func(ctx context.Context, id uuid.UUID, _ struct{}, actor *outbox.ActorRef) (map[string]string, error) {
		if err := svc.RequestDocument(ctx, id, actor); err != nil {
			return nil, err
		}
		return map[string]string{"invoice_id": id.String(), "status": "requested"}, nil
	})
}

// Deliveries lists what was queued for the serverless functions and whether
// each request went out.
func Deliveries(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(logg, noBody, http.StatusOK, func(ctx context.Context, id uuid.UUID, _ struct{}, _ *outbox.ActorRef) (map[string]any, error) {
		items, err := svc.Deliveries(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"items": items}, nil
	})
}
