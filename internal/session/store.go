package session // package session implements the server-side session cache

import (
    "context"
    "errors"
    "fmt"

    "github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when no session entry exists for the
// user.  A missing entry means the user is logged out regardless of
// any token they may still hold.
var ErrNotFound = errors.New("session not found")

// Store is the key/value collaborator the token service and the
// authentication middleware depend on.  Values are opaque serialized
// user snapshots; the store imposes no structure on them.  Presence
// of an entry is the sole authority for "is this user still logged
// in" — deleting the entry is the revocation mechanism.
type Store interface {
    Get(ctx context.Context, userID uint64) (string, error)
    Set(ctx context.Context, userID uint64, snapshot string) error
    Del(ctx context.Context, userID uint64) error
}

// RedisStore keeps sessions in Redis under session:<id> keys.
// Entries are written without an explicit TTL: the cache's own
// eviction policy owns entry lifetime, deliberately independent of
// the refresh token's claimed expiry.
type RedisStore struct {
    Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
    return &RedisStore{Client: client}
}

func key(userID uint64) string { return fmt.Sprintf("session:%d", userID) }

// Get returns the serialized snapshot for a user or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, userID uint64) (string, error) {
    v, err := s.Client.Get(ctx, key(userID)).Result()
    if err == redis.Nil {
        return "", ErrNotFound
    }
    if err != nil {
        return "", err
    }
    return v, nil
}

// Set writes the serialized snapshot for a user with no expiry.
func (s *RedisStore) Set(ctx context.Context, userID uint64, snapshot string) error {
    return s.Client.Set(ctx, key(userID), snapshot, 0).Err()
}

// Del removes the session entry.  Deleting an absent key is not an
// error, which makes revocation idempotent.
func (s *RedisStore) Del(ctx context.Context, userID uint64) error {
    return s.Client.Del(ctx, key(userID)).Err()
}
