package charts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionPrefix = "stockbook:charts:version:"
	// BumpChannel carries the owner id of every cache bump.
	BumpChannel = "stockbook:charts:bump"
)

// Cache keeps rendered chart data in Redis under per owner versions.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the owner's cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, ownerID int64) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := cacheVersionPrefix + strconv.FormatInt(ownerID, 10)
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the owner's current version.
func (c *Cache) BuildKey(ctx context.Context, ownerID int64, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"stockbook", "charts", strconv.FormatInt(ownerID, 10)}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using the loader.
// It reports whether the value came from the cache.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) (bool, error) {
	if loader == nil {
		return false, errors.New("charts: cache loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return true, json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return false, err
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return false, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return false, err
		}
	}
	return false, json.Unmarshal(raw, dest)
}

// Bump invalidates the owner's entries by incrementing the version and
// publishing the owner id.
func (c *Cache) Bump(ctx context.Context, ownerID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, cacheVersionPrefix+strconv.FormatInt(ownerID, 10)).Err(); err != nil {
		return err
	}
	return c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ownerID, 10)).Err()
}

// ListenForBumps calls fn with the owner id of every bump until ctx ends.
// The subscription is confirmed before ListenForBumps returns.
func (c *Cache) ListenForBumps(ctx context.Context, fn func(ownerID int64)) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, BumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if ownerID, err := strconv.ParseInt(msg.Payload, 10, 64); err == nil {
					fn(ownerID)
				}
			}
		}
	}()
	return nil
}
