package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catering-backend/pkg/config"
)

// scriptedStore emulates the handful of commands and Lua scripts the client
// issues, keeping values and TTLs in maps.
type scriptedStore struct {
	values   map[string]string
	counters map[string]int64
	ttls     map[string]time.Duration
}

func newScriptedStore() *scriptedStore {
	return &scriptedStore{
		values:   map[string]string{},
		counters: map[string]int64{},
		ttls:     map[string]time.Duration{},
	}
}

func (s *scriptedStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (s *scriptedStore) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := s.values[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (s *scriptedStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, taken := s.values[key]; taken {
		return redis.NewBoolResult(false, nil)
	}
	s.values[key] = fmt.Sprint(value)
	s.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (s *scriptedStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(s.values, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (s *scriptedStore) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	if script == windowScript {
		s.counters[key]++
		if s.counters[key] == 1 {
			s.ttls[key] = time.Duration(args[0].(int64)) * time.Millisecond
		}
		return redis.NewCmdResult(s.counters[key], nil)
	}

	if s.values[key] != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	switch script {
	case releaseScript:
		delete(s.values, key)
	case extendScript:
		s.ttls[key] = time.Duration(args[1].(int64)) * time.Millisecond
	case swapScript:
		s.values[key] = fmt.Sprint(args[1])
		s.ttls[key] = time.Duration(args[2].(int64)) * time.Millisecond
	}
	return redis.NewCmdResult(int64(1), nil)
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	store := newScriptedStore()
	client := &Client{store: store}

	var verdicts []bool
	for range 3 {
		allowed, _, err := client.FixedWindowAllow(ctx, "quote:ip:198.51.100.4", 2, 10*time.Minute)
		require.NoError(t, err)
		verdicts = append(verdicts, allowed)
	}

	assert.Equal(t, []bool{true, true, false}, verdicts)
	key := client.RateLimitKey("quote:ip:198.51.100.4")
	assert.Equal(t, int64(3), store.counters[key])
	assert.Equal(t, 10*time.Minute, store.ttls[key])

	allowed, count, err := client.FixedWindowAllow(ctx, "quote:ip:198.51.100.5", 2, 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)
}

func TestLockLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newScriptedStore()
	client := &Client{store: store}
	key := client.LockKey("catering-cron")

	ok, err := client.AcquireLock(ctx, "catering-cron", "worker-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, store.ttls[key])

	ok, err = client.AcquireLock(ctx, "catering-cron", "worker-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lock")

	extended, err := client.ExtendLock(ctx, "catering-cron", "worker-b", time.Hour)
	require.NoError(t, err)
	assert.False(t, extended, "non-owner extend")
	assert.Equal(t, time.Minute, store.ttls[key])

	extended, err = client.ExtendLock(ctx, "catering-cron", "worker-a", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, extended)
	assert.Equal(t, 2*time.Minute, store.ttls[key])

	require.NoError(t, client.ReleaseLock(ctx, "catering-cron", "worker-b"))
	assert.Contains(t, store.values, key, "non-owner release keeps the lock")

	require.NoError(t, client.ReleaseLock(ctx, "catering-cron", "worker-a"))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
	assert.NoError(t, client.ReleaseLock(ctx, "catering-cron", "worker-a"), "releasing a free lock")

	_, err = client.AcquireLock(ctx, "catering-cron", "", time.Minute)
	assert.ErrorIs(t, err, errNoOwner)
	_, err = client.ExtendLock(ctx, "catering-cron", "", time.Minute)
	assert.ErrorIs(t, err, errNoOwner)
}

func TestKeyLayout(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "cb:idempotency:admin-1|POST|/api/admin/v1/contracts:k-1", client.IdempotencyKey("admin-1|POST|/api/admin/v1/contracts", "k-1"))
	assert.Equal(t, "cb:rate_limit:quote:ip:203.0.113.9", client.RateLimitKey("quote:ip:203.0.113.9"))
	assert.Equal(t, "cb:lock:catering-cron", client.LockKey("catering-cron"))
	assert.Equal(t, "cb:a:b", buildKey("a", " ", "b "), "blank parts are skipped")
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://:secret@cache.internal:6380/3",
		DB:          1,
		PoolSize:    12,
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB, "url db wins")
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 12, opts.PoolSize)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	_, err = optionsFromConfig(config.RedisConfig{URL: "http://not-redis"})
	assert.Error(t, err)
	_, err = optionsFromConfig(config.RedisConfig{})
	assert.EqualError(t, err, "redis url or address is required")
}

func TestSwapIfValueOnlyReplacesOwnMarker(t *testing.T) {
	ctx := context.Background()
	store := newScriptedStore()
	client := &Client{store: store}
	key := client.IdempotencyKey("admin-1", "key-1")

	ok, err := client.SetNX(ctx, key, "in-flight-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	swapped, err := client.SwapIfValue(ctx, key, "in-flight-b", "response-b", time.Hour)
	require.NoError(t, err)
	assert.False(t, swapped, "another request's marker")
	assert.Equal(t, "in-flight-a", store.values[key])

	swapped, err = client.SwapIfValue(ctx, key, "in-flight-a", "response-a", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, swapped)
	assert.Equal(t, "response-a", store.values[key])
	assert.Equal(t, 24*time.Hour, store.ttls[key])

	deleted, err := client.DeleteIfValue(ctx, key, "in-flight-a")
	require.NoError(t, err)
	assert.False(t, deleted, "stored response is not the marker")
	assert.Contains(t, store.values, key)

	deleted, err = client.DeleteIfValue(ctx, key, "response-a")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotContains(t, store.values, key)
}

func TestUninitializedClient(t *testing.T) {
	ctx := context.Background()
	client := &Client{}

	assert.ErrorIs(t, client.Ping(ctx), errNotInitialized)
	_, _, err := client.FixedWindowAllow(ctx, "x", 1, time.Second)
	assert.ErrorIs(t, err, errNotInitialized)
	_, err = client.ExtendLock(ctx, "x", "owner", time.Second)
	assert.ErrorIs(t, err, errNotInitialized)
	assert.NoError(t, client.Close())
}
