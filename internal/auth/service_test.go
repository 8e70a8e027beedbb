package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/learning-platform/internal/model"
	"github.com/iliyamo/learning-platform/internal/session"
)

// memStore is an in-memory session.Store for tests.
type memStore struct {
	entries map[uint64]string
}

func newMemStore() *memStore { return &memStore{entries: map[uint64]string{}} }

func (m *memStore) Get(_ context.Context, userID uint64) (string, error) {
	v, ok := m.entries[userID]
	if !ok {
		return "", session.ErrNotFound
	}
	return v, nil
}
func (m *memStore) Set(_ context.Context, userID uint64, snapshot string) error {
	m.entries[userID] = snapshot
	return nil
}
func (m *memStore) Del(_ context.Context, userID uint64) error {
	delete(m.entries, userID)
	return nil
}

func newTestService(store session.Store) *TokenService {
	return NewTokenService("access-secret", "refresh-secret", 15, 30, store)
}

func testUser() *model.User {
	return &model.User{
		ID:           1,
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         string(RoleUser),
		IsVerified:   true,
		CourseIDs:    []uint64{3},
	}
}

func TestIssueWritesSnapshot(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store)
	u := testUser()

	pair, err := svc.Issue(context.Background(), u)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access.Token)
	assert.NotEmpty(t, pair.Refresh.Token)
	assert.True(t, pair.Refresh.Exp.After(pair.Access.Exp))

	raw, err := store.Get(context.Background(), u.ID)
	require.NoError(t, err)
	got, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	// The snapshot keeps the hash even though the model hides it from
	// client-facing JSON.
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.Equal(t, []uint64{3}, got.CourseIDs)
}

func TestRefreshRotatesPair(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store)
	u := testUser()

	first, err := svc.Issue(context.Background(), u)
	require.NoError(t, err)

	second, got, err := svc.Refresh(context.Background(), first.Refresh.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	// Rotation must hand out fresh credentials even when the refresh
	// lands within the same second as the original issue.
	assert.NotEqual(t, first.Access.Token, second.Access.Token)
	assert.NotEqual(t, first.Refresh.Token, second.Refresh.Token)
	assert.True(t, second.Access.Exp.After(first.Access.Exp))
}

func TestRefreshAfterRevoke(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store)
	u := testUser()

	pair, err := svc.Issue(context.Background(), u)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), u.ID))

	// The refresh JWT is still cryptographically valid, but the session
	// entry is gone, so the exchange must fail.
	_, _, err = svc.Refresh(context.Background(), pair.Refresh.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestRevokeIsIdempotent(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemStore())
	require.NoError(t, svc.Revoke(context.Background(), 99))
	require.NoError(t, svc.Revoke(context.Background(), 99))
}

func TestRefreshInvalidToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemStore())
	_, _, err := svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSyncOverwritesSnapshot(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store)
	u := testUser()

	_, err := svc.Issue(context.Background(), u)
	require.NoError(t, err)

	u.Name = "Ada Lovelace"
	u.CourseIDs = append(u.CourseIDs, 8)
	require.NoError(t, svc.Sync(context.Background(), u))

	raw, err := store.Get(context.Background(), u.ID)
	require.NoError(t, err)
	got, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, []uint64{3, 8}, got.CourseIDs)
}
