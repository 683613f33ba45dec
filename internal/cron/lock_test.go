package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	holder  string
	ttl     time.Duration
	extends int
	down    bool
}

func (m *memoryLockStore) AcquireLock(_ context.Context, _ string, owner string, ttl time.Duration) (bool, error) {
	if m.down {
		return false, errors.New("redis down")
	}
	if m.holder != "" {
		return false, nil
	}
	m.holder, m.ttl = owner, ttl
	return true, nil
}

func (m *memoryLockStore) ExtendLock(_ context.Context, _ string, owner string, ttl time.Duration) (bool, error) {
	if m.down {
		return false, errors.New("redis down")
	}
	if m.holder != owner {
		return false, nil
	}
	m.ttl = ttl
	m.extends++
	return true, nil
}

func (m *memoryLockStore) ReleaseLock(_ context.Context, _ string, owner string) error {
	if m.holder == owner {
		m.holder = ""
	}
	return nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := &memoryLockStore{}
	first, err := NewRedisLock(store, "cron", 0)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "cron", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, defaultLockTTL, store.ttl)

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(context.Background()))
	assert.NotEmpty(t, store.holder, "non-owner release must not free the lock")

	require.NoError(t, first.Release(context.Background()))
	assert.Empty(t, store.holder)
}

func TestRedisLockExtend(t *testing.T) {
	store := &memoryLockStore{}
	lock, err := NewRedisLock(store, "cron", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Extend(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "extend before acquire")

	_, err = lock.Acquire(context.Background())
	require.NoError(t, err)
	ok, err = lock.Extend(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, store.extends)

	store.holder = "someone-else"
	ok, err = lock.Extend(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, lock.Release(context.Background()))
	assert.Equal(t, "someone-else", store.holder, "a lost lease is not released")
}

func TestRedisLockErrors(t *testing.T) {
	_, err := NewRedisLock(nil, "cron", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(&memoryLockStore{}, "", time.Minute)
	assert.Error(t, err)

	lock, err := NewRedisLock(&memoryLockStore{down: true}, "cron", time.Minute)
	require.NoError(t, err)
	_, err = lock.Acquire(context.Background())
	assert.ErrorContains(t, err, "redis down")
}
