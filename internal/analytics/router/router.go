package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/catering-backend/internal/analytics/types"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	"github.com/angelmondragon/catering-backend/pkg/logger"
)

// ErrUnsupportedEventType is returned for events without a registered handler.
var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer persists catering event rows.
type Writer interface {
	Insert(ctx context.Context, rows ...types.CateringEventRow) error
}

// EventHandler turns one envelope into warehouse rows.
type EventHandler func(ctx context.Context, envelope types.Envelope) error

type handlerFactory func(r *Router) EventHandler

type handlerEntry struct {
	factory handlerFactory
	handler EventHandler
}

// Router dispatches analytics envelopes to per-event handlers.
type Router struct {
	writer   Writer
	logg     *logger.Logger
	handlers map[enums.AnalyticsEventType]*handlerEntry
}

// NewRouter registers the default handlers; overrides replace them by event type.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.AnalyticsEventType]EventHandler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("analytics writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	r := &Router{
		writer: writer,
		logg:   logg,
		handlers: map[enums.AnalyticsEventType]*handlerEntry{
			enums.AnalyticsEventQuoteSubmitted:   {factory: (*Router).quoteSubmittedHandler},
			enums.AnalyticsEventEstimateCreated:  {factory: (*Router).estimateCreatedHandler},
			enums.AnalyticsEventInvoiceIssued:    {factory: (*Router).invoiceIssuedHandler},
			enums.AnalyticsEventInvoicePaid:      {factory: (*Router).invoicePaidHandler},
			enums.AnalyticsEventInvoiceCancelled: {factory: (*Router).invoiceCancelledHandler},
			enums.AnalyticsEventContractSigned:   {factory: (*Router).contractSignedHandler},
		},
	}

	for eventType, handler := range overrides {
		if handler == nil {
			continue
		}
		r.handlers[eventType] = &handlerEntry{handler: handler}
	}
	return r, nil
}

// Handle routes the envelope to its handler.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	entry, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if entry.handler == nil {
		entry.handler = entry.factory(r)
	}
	return entry.handler(ctx, envelope)
}
