package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessToken("secret", 42, RoleAdmin, 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	uid, role, err := ParseAccess("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, RoleAdmin, role)
}

func TestAccessTokensAreUnique(t *testing.T) {
	t.Parallel()

	// iat/exp carry second precision, so uniqueness rests on the jti
	// claim: two back-to-back mints must never collide.
	a, err := NewAccessToken("secret", 42, RoleUser, 15)
	require.NoError(t, err)
	b, err := NewAccessToken("secret", 42, RoleUser, 15)
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)

	ra, err := NewRefreshToken("secret", 42, 30)
	require.NoError(t, err)
	rb, err := NewRefreshToken("secret", 42, 30)
	require.NoError(t, err)
	assert.NotEqual(t, ra.Token, rb.Token)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessToken("secret", 42, RoleUser, 15)
	require.NoError(t, err)

	_, _, err = ParseAccess("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpired(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessToken("secret", 42, RoleUser, -1)
	require.NoError(t, err)

	_, _, err = ParseAccess("secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenGarbage(t *testing.T) {
	t.Parallel()

	_, _, err := ParseAccess("secret", "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := NewRefreshToken("refresh-secret", 7, 30)
	require.NoError(t, err)

	uid, err := ParseRefresh("refresh-secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), uid)
}

func TestRefreshTokenRejectedByAccessParser(t *testing.T) {
	t.Parallel()

	// Access and refresh tokens use distinct secrets, so one can never
	// be replayed in the other's slot.
	tok, err := NewRefreshToken("refresh-secret", 7, 30)
	require.NoError(t, err)

	_, _, err = ParseAccess("access-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestActivationTokenRoundTrip(t *testing.T) {
	t.Parallel()

	pending := PendingUser{Name: "Ada", Email: "ada@example.com", Password: "hunter22"}
	token, code, err := NewActivationToken("act-secret", pending, 10)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	got, gotCode, err := ParseActivationToken("act-secret", token)
	require.NoError(t, err)
	assert.Equal(t, pending, got)
	assert.Equal(t, code, gotCode)
}

func TestActivationTokenWrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := NewActivationToken("act-secret", PendingUser{Name: "Ada", Email: "a@b.c", Password: "pw"}, 10)
	require.NoError(t, err)

	_, _, err = ParseActivationToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole("anything-else"))
	assert.True(t, RoleAdmin.In(RoleUser, RoleAdmin))
	assert.False(t, RoleUser.In(RoleAdmin))
}
