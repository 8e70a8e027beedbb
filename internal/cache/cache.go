// Package cache provides a small JSON cache over Redis used for the
// public course catalog.  Entries are written cache-aside by the course
// handlers and invalidated whenever a course mutates (update, review,
// successful order).  A nil *Cache is valid and behaves as a permanent
// miss so the application keeps working when Redis is unavailable.
package cache

import (
    "context"
    "encoding/json"
    "errors"
    "log"
    "strconv"

    "github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent (or caching is
// disabled entirely).
var ErrMiss = errors.New("cache miss")

// CourseKey is the cache key for a single sanitized course view.
func CourseKey(id uint64) string { return "course:" + strconv.FormatUint(id, 10) }

// AllCoursesKey is the cache key for the sanitized course list.
const AllCoursesKey = "courses:all"

// Cache wraps a Redis client with JSON serialization.
type Cache struct {
    client *redis.Client
}

// New returns a Cache over the given client.  Passing nil yields a
// disabled cache rather than an error.
func New(client *redis.Client) *Cache {
    if client == nil {
        return nil
    }
    return &Cache{client: client}
}

// Get unmarshals the cached value into target, or returns ErrMiss.
func (c *Cache) Get(ctx context.Context, key string, target any) error {
    if c == nil {
        return ErrMiss
    }
    data, err := c.client.Get(ctx, key).Bytes()
    if err == redis.Nil {
        return ErrMiss
    }
    if err != nil {
        return err
    }
    if err := json.Unmarshal(data, target); err != nil {
        // A corrupt entry is treated as a miss; the caller will
        // overwrite it with fresh data.
        return ErrMiss
    }
    return nil
}

// Set marshals value and stores it under key with no expiry.  Errors
// are logged and swallowed: the catalog cache is an optimization, not
// a source of truth.
func (c *Cache) Set(ctx context.Context, key string, value any) {
    if c == nil {
        return
    }
    data, err := json.Marshal(value)
    if err != nil {
        log.Printf("cache: marshal %s failed: %v", key, err)
        return
    }
    if err := c.client.Set(ctx, key, data, 0).Err(); err != nil {
        log.Printf("cache: set %s failed: %v", key, err)
    }
}

// Del removes the given keys.  Missing keys are ignored.
func (c *Cache) Del(ctx context.Context, keys ...string) {
    if c == nil || len(keys) == 0 {
        return
    }
    if err := c.client.Del(ctx, keys...).Err(); err != nil {
        log.Printf("cache: del %v failed: %v", keys, err)
    }
}
