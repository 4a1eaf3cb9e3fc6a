package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// CacheClient is a thin generic JSON cache and distributed-lock wrapper
// around the shared Redis client, grounded on DriverPool's SetNX-based
// locking idiom (driverLockKey/matchingLockTTL) and pipelined-write style.
// It backs the Tier Engine's short-lived tier cache and the auth
// middleware's token blacklist check.
type CacheClient struct {
	client *redis.Client
}

// NewCacheClient wraps an existing Redis client for generic use.
func NewCacheClient(client *redis.Client) *CacheClient {
	return &CacheClient{client: client}
}

// GetJSON returns the raw bytes stored at key, or ok=false on miss or error.
func (c *CacheClient) GetJSON(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// SetJSON stores payload at key with the given TTL. Errors are swallowed —
// a cache write failure must never fail the caller's request.
func (c *CacheClient) SetJSON(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	c.client.Set(ctx, key, payload, ttl)
}

// Delete removes a cached key. Nothing in the service calls it; tier cache
// entries expire only through their TTL.
func (c *CacheClient) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, key)
}

// Exists reports whether key is currently set, without modifying it — used
// for read-only membership checks like the auth middleware's token
// blacklist, where marking-as-seen on every request (as SeenEvent does)
// would be the wrong semantics.
func (c *CacheClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AcquireLock sets a short-lived exclusivity marker at key, returning true
// if the caller won the lock. Mirrors DriverPool.LockDriver's SetNX idiom,
// generalized to any key (webhook event_id dedupe, per-user settlement
// serialization outside a DB transaction).
func (c *CacheClient) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, "1", ttl).Result()
}

// ReleaseLock drops a lock acquired via AcquireLock.
func (c *CacheClient) ReleaseLock(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// SeenEvent reports whether eventID has already been processed, recording
// it with ttl if not. Nothing in the service calls it; the webhook handler
// dedupes vendor callbacks through the trip row's WebhookEventIDs slice.
func (c *CacheClient) SeenEvent(ctx context.Context, namespace, eventID string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, "event:seen:"+namespace+":"+eventID, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
