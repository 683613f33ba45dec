package worker

import (
	"context"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/catering-backend/internal/analytics/router"
	"github.com/angelmondragon/catering-backend/internal/analytics/types"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/outbox/registry"
)

// ConsumerName scopes this worker's idempotency markers and metrics.
const ConsumerName = "analytics-worker"

const defaultHandleTimeout = 30 * time.Second

// Handler turns a decoded envelope into warehouse rows.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

// Subscription is satisfied by *pubsub.Subscriber.
type Subscription interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type claimer interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type deliveryRecorder interface {
	ObserveDelivery(eventType, outcome string, took time.Duration)
}

type Params struct {
	Subscription  Subscription
	Handler       Handler
	Guard         claimer
	Logger        *logger.Logger
	Metrics       deliveryRecorder
	HandleTimeout time.Duration
}

// Service consumes the domain-events subscription. Each event is handled at
// most once per marker TTL; a failed handler releases its marker and nacks
// so Pub/Sub redelivers.
type Service struct {
	sub      Subscription
	handler  Handler
	guard    claimer
	logg     *logger.Logger
	metrics  deliveryRecorder
	decoders payloadDecoder
	timeout  time.Duration
}

func NewService(p Params) (*Service, error) {
	switch {
	case p.Subscription == nil:
		return nil, errors.New("analytics subscription is required")
	case p.Handler == nil:
		return nil, errors.New("analytics handler is required")
	case p.Guard == nil:
		return nil, errors.New("idempotency guard is required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	}
	svc := &Service{
		sub:      p.Subscription,
		handler:  p.Handler,
		guard:    p.Guard,
		logg:     p.Logger,
		metrics:  p.Metrics,
		decoders: registry.NewDomainDecoders(),
		timeout:  p.HandleTimeout,
	}
	if svc.metrics == nil {
		svc.metrics = discardDeliveries{}
	}
	if svc.timeout <= 0 {
		svc.timeout = defaultHandleTimeout
	}
	return svc, nil
}

// Run blocks until ctx is cancelled or the subscription fails.
func (s *Service) Run(ctx context.Context) error {
	return s.sub.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		if s.handle(msgCtx, msg) == redeliver {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type verdict int

const (
	settle verdict = iota
	redeliver
)

// Outcome labels for the deliveries counter.
const (
	outcomeHandled     = "handled"
	outcomeDuplicate   = "duplicate"
	outcomeUntracked   = "untracked"
	outcomeInvalid     = "invalid"
	outcomeUnsupported = "unsupported"
	outcomeFailed      = "failed"
)

func (s *Service) handle(ctx context.Context, msg *gcppubsub.Message) verdict {
	ctx = s.logg.WithField(ctx, "message_id", msg.ID)
	rawType := msg.Attributes["event_type"]

	env, err := decodeMessage(msg, s.decoders)
	switch {
	case errors.Is(err, errUntracked):
		s.logg.Debug(ctx, "event not tracked by analytics")
		s.metrics.ObserveDelivery(rawType, outcomeUntracked, 0)
		return settle
	case err != nil:
		// Malformed messages are acked, never redelivered.
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "invalid analytics envelope")
		s.metrics.ObserveDelivery(rawType, outcomeInvalid, 0)
		return settle
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":       env.EventID,
		"event_type":     env.EventType,
		"aggregate_type": env.AggregateType,
		"aggregate_id":   env.AggregateID,
		"occurred_at":    env.OccurredAt.Format(time.RFC3339Nano),
	})
	eventType := string(env.EventType)

	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		s.logg.Warn(ctx, "event id is not a uuid")
		s.metrics.ObserveDelivery(eventType, outcomeInvalid, 0)
		return settle
	}

	fresh, err := s.guard.Claim(ctx, ConsumerName, eventID)
	if err != nil {
		s.logg.Error(ctx, "idempotency claim failed", err)
		s.metrics.ObserveDelivery(eventType, outcomeFailed, 0)
		return redeliver
	}
	if !fresh {
		s.logg.Info(ctx, "event already processed")
		s.metrics.ObserveDelivery(eventType, outcomeDuplicate, 0)
		return settle
	}

	started := time.Now()
	handleCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err = s.handler.Handle(handleCtx, env)
	cancel()
	took := time.Since(started)

	switch {
	case err == nil:
		s.logg.Info(ctx, "analytics event handled")
		s.metrics.ObserveDelivery(eventType, outcomeHandled, took)
		return settle
	case errors.Is(err, router.ErrUnsupportedEventType):
		s.logg.Warn(ctx, "no analytics handler for event")
		s.metrics.ObserveDelivery(eventType, outcomeUnsupported, took)
		return settle
	}

	s.logg.Error(ctx, "analytics handler failed", err)
	s.metrics.ObserveDelivery(eventType, outcomeFailed, took)
	if relErr := s.guard.Release(context.WithoutCancel(ctx), ConsumerName, eventID); relErr != nil {
		s.logg.Error(ctx, "failed to release idempotency marker", relErr)
	}
	return redeliver
}

type discardDeliveries struct{}

func (discardDeliveries) ObserveDelivery(string, string, time.Duration) {}
