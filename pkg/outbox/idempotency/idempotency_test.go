package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore behaves like SETNX/DEL against a map.
type memoryStore struct {
	values map[string]any
	ttls   map[string]time.Duration
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]any{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, taken := m.values[key]; taken {
		return false, nil
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return m.err
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "cb:idempotency:" + scope + ":" + id
}

func TestClaimIsFirstWriterWins(t *testing.T) {
	store := newMemoryStore()
	guard, err := NewGuard(store, 48*time.Hour)
	require.NoError(t, err)
	guard.now = func() time.Time { return time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC) }

	eventID := uuid.New()
	key := "cb:idempotency:consumed:analytics-worker:" + eventID.String()

	first, err := guard.Claim(context.Background(), "analytics-worker", eventID)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, "2026-10-01T08:00:00Z", store.values[key])
	assert.Equal(t, 48*time.Hour, store.ttls[key])

	second, err := guard.Claim(context.Background(), "analytics-worker", eventID)
	require.NoError(t, err)
	assert.False(t, second)

	other, err := guard.Claim(context.Background(), "mailer", eventID)
	require.NoError(t, err)
	assert.True(t, other, "markers are scoped per consumer")
}

func TestReleaseAllowsRedelivery(t *testing.T) {
	store := newMemoryStore()
	guard, err := NewGuard(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	claimed, err := guard.Claim(context.Background(), "analytics-worker", eventID)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, guard.Release(context.Background(), "analytics-worker", eventID))

	claimed, err = guard.Claim(context.Background(), "analytics-worker", eventID)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestClaimRejectsBadInput(t *testing.T) {
	guard, err := NewGuard(newMemoryStore(), time.Hour)
	require.NoError(t, err)

	_, err = guard.Claim(context.Background(), "", uuid.New())
	assert.Error(t, err)
	_, err = guard.Claim(context.Background(), "analytics-worker", uuid.Nil)
	assert.Error(t, err)
	assert.Error(t, guard.Release(context.Background(), "", uuid.New()))
}

func TestClaimSurfacesStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection refused")
	guard, err := NewGuard(store, time.Hour)
	require.NoError(t, err)

	_, err = guard.Claim(context.Background(), "analytics-worker", uuid.New())
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewGuard(t *testing.T) {
	_, err := NewGuard(nil, time.Hour)
	assert.Error(t, err)

	_, err = NewGuard(newMemoryStore(), -time.Second)
	assert.Error(t, err)

	guard, err := NewGuard(newMemoryStore(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, guard.ttl)
}
