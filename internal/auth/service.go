package auth

import (
    "context"
    "encoding/json"
    "errors"

    "github.com/iliyamo/learning-platform/internal/model"
    "github.com/iliyamo/learning-platform/internal/session"
)

// ErrSessionExpired is returned by Refresh when the refresh token
// itself verifies but no session entry exists for its user.  This is
// the only revocation signal: logout deletes the cache entry and all
// future refreshes fail here even though the JWT stays
// cryptographically valid until its expiry.
var ErrSessionExpired = errors.New("session expired")

// TokenPair bundles the two credentials returned on login, activation
// and refresh.
type TokenPair struct {
    Access  AccessToken
    Refresh RefreshToken
}

// TokenService issues, refreshes and revokes token pairs.  Token
// validity is stateless (signature checked); session validity is
// stateful (cache checked).  Splitting the two allows instant logout
// without a token blacklist at the cost of one cache read per
// protected request.
type TokenService struct {
    AccessSecret   string
    RefreshSecret  string
    AccessTTLMin   int
    RefreshTTLDays int
    Sessions       session.Store
}

func NewTokenService(accessSecret, refreshSecret string, accessTTLMin, refreshTTLDays int, store session.Store) *TokenService {
    return &TokenService{
        AccessSecret:   accessSecret,
        RefreshSecret:  refreshSecret,
        AccessTTLMin:   accessTTLMin,
        RefreshTTLDays: refreshTTLDays,
        Sessions:       store,
    }
}

// Issue mints an access/refresh pair for the user and writes the
// user snapshot into the session cache.  The snapshot is what the
// authentication middleware serves protected requests from.
func (s *TokenService) Issue(ctx context.Context, u *model.User) (TokenPair, error) {
    access, err := NewAccessToken(s.AccessSecret, u.ID, ParseRole(u.Role), s.AccessTTLMin)
    if err != nil {
        return TokenPair{}, err
    }
    refresh, err := NewRefreshToken(s.RefreshSecret, u.ID, s.RefreshTTLDays)
    if err != nil {
        return TokenPair{}, err
    }
    if err := s.writeSnapshot(ctx, u); err != nil {
        return TokenPair{}, err
    }
    return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new pair.  It fails
// with ErrInvalidToken when the token does not verify and with
// ErrSessionExpired when the session entry is gone.  On success both
// tokens are re-issued and the snapshot is returned so the caller can
// act on behalf of the user without an extra store read.
func (s *TokenService) Refresh(ctx context.Context, rawRefresh string) (TokenPair, *model.User, error) {
    userID, err := ParseRefresh(s.RefreshSecret, rawRefresh)
    if err != nil {
        return TokenPair{}, nil, ErrInvalidToken
    }
    snapshot, err := s.Sessions.Get(ctx, userID)
    if err != nil {
        if errors.Is(err, session.ErrNotFound) {
            return TokenPair{}, nil, ErrSessionExpired
        }
        return TokenPair{}, nil, err
    }
    u, err := DecodeSnapshot(snapshot)
    if err != nil {
        return TokenPair{}, nil, ErrSessionExpired
    }
    pair, err := s.Issue(ctx, u)
    if err != nil {
        return TokenPair{}, nil, err
    }
    return pair, u, nil
}

// Revoke deletes the user's session entry.  Idempotent: revoking an
// absent session is not an error.
func (s *TokenService) Revoke(ctx context.Context, userID uint64) error {
    return s.Sessions.Del(ctx, userID)
}

// Sync rewrites the session snapshot after a profile mutation so the
// cached copy never lags the persistent store.
func (s *TokenService) Sync(ctx context.Context, u *model.User) error {
    return s.writeSnapshot(ctx, u)
}

func (s *TokenService) writeSnapshot(ctx context.Context, u *model.User) error {
    b, err := EncodeSnapshot(u)
    if err != nil {
        return err
    }
    return s.Sessions.Set(ctx, u.ID, b)
}

// snapshot is the session copy of a user.  The password hash is
// carried inside it (the cache is trusted server state) so refreshed
// requests keep the full record, while the model's JSON tags keep the
// hash out of anything returned to clients.
type snapshot struct {
    model.User
    PasswordHash string `json:"password_hash"`
}

// EncodeSnapshot serializes a user for the session cache.
func EncodeSnapshot(u *model.User) (string, error) {
    b, err := json.Marshal(snapshot{User: *u, PasswordHash: u.PasswordHash})
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// DecodeSnapshot restores a user from a session cache value.
func DecodeSnapshot(s string) (*model.User, error) {
    var snap snapshot
    if err := json.Unmarshal([]byte(s), &snap); err != nil {
        return nil, err
    }
    u := snap.User
    u.PasswordHash = snap.PasswordHash
    return &u, nil
}
