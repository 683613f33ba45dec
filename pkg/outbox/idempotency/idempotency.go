// Package idempotency keeps at-least-once Pub/Sub delivery from producing
// duplicate side effects in a consumer.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL applies when the guard is built with a zero TTL. It should
// outlast the subscription's message retention.
const DefaultTTL = 30 * 24 * time.Hour

// Store is the slice of the Redis client the guard uses.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Guard records which events a consumer has handled. Markers live under
// cb:idempotency:consumed:<consumer>:<event_id>.
type Guard struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewGuard(store Store, ttl time.Duration) (*Guard, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, errors.New("idempotency ttl must not be negative")
	case ttl == 0:
		ttl = DefaultTTL
	}
	return &Guard{store: store, ttl: ttl, now: time.Now}, nil
}

// Claim marks eventID as taken by consumer. It reports false when an earlier
// delivery already holds the marker, in which case the message should be
// acked without handling.
func (g *Guard) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, g.now().UTC().Format(time.RFC3339), g.ttl)
}

// Release drops the marker after a failed handler so redelivery runs again.
func (g *Guard) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey("consumed:"+consumer, eventID.String()), nil
}
