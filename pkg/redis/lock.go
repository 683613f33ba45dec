package redis

import (
	"context"
	"errors"
	"time"
)

// Each script acts only while the key still holds the caller's value.
const (
	releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

	extendScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

	swapScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0`
)

var errNoOwner = errors.New("lock owner is required")

// AcquireLock claims the named lock for owner until ttl expires. It reports
// false when another owner already holds it.
func (c *Client) AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	if owner == "" {
		return false, errNoOwner
	}
	return c.SetNX(ctx, c.LockKey(name), owner, ttl)
}

// ExtendLock resets the TTL of a lock owner still holds. It reports false
// when the lock expired or changed hands.
func (c *Client) ExtendLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	if owner == "" {
		return false, errNoOwner
	}
	n, err := c.evalInt(ctx, extendScript, c.LockKey(name), owner, ttl.Milliseconds())
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseLock drops the lock only when owner still holds it. An expired or
// stolen lock is left alone.
func (c *Client) ReleaseLock(ctx context.Context, name, owner string) error {
	_, err := c.DeleteIfValue(ctx, c.LockKey(name), owner)
	return err
}

// SwapIfValue overwrites key with value and a fresh ttl in one step, but only
// while key still holds expected.
func (c *Client) SwapIfValue(ctx context.Context, key, expected, value string, ttl time.Duration) (bool, error) {
	n, err := c.evalInt(ctx, swapScript, key, expected, value, ttl.Milliseconds())
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteIfValue removes key only while it still holds expected.
func (c *Client) DeleteIfValue(ctx context.Context, key, expected string) (bool, error) {
	n, err := c.evalInt(ctx, releaseScript, key, expected)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
