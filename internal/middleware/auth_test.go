package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/learning-platform/internal/auth"
	"github.com/iliyamo/learning-platform/internal/model"
	"github.com/iliyamo/learning-platform/internal/session"
)

const testSecret = "access-secret"

func newTestSessions(t *testing.T) session.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewRedisStore(client)
}

func login(t *testing.T, sessions session.Store, u *model.User) string {
	t.Helper()
	snap, err := auth.EncodeSnapshot(u)
	require.NoError(t, err)
	require.NoError(t, sessions.Set(context.Background(), u.ID, snap))
	tok, err := auth.NewAccessToken(testSecret, u.ID, auth.ParseRole(u.Role), 15)
	require.NoError(t, err)
	return tok.Token
}

func doRequest(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newTestApp(sessions session.Store, roles ...auth.Role) *echo.Echo {
	e := echo.New()
	mws := []echo.MiddlewareFunc{Authenticate(testSecret, sessions)}
	if len(roles) > 0 {
		mws = append(mws, RequireRole(roles...))
	}
	e.GET("/protected", func(c echo.Context) error {
		u := c.Get(CtxUser).(*model.User)
		return c.JSON(http.StatusOK, echo.Map{"email": u.Email})
	}, mws...)
	return e
}

func TestAuthenticateNoToken(t *testing.T) {
	e := newTestApp(newTestSessions(t))
	rec := doRequest(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateValidSession(t *testing.T) {
	sessions := newTestSessions(t)
	u := &model.User{ID: 1, Email: "ada@example.com", Role: "user"}
	token := login(t, sessions, u)

	rec := doRequest(newTestApp(sessions), token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ada@example.com")
}

func TestAuthenticateRevokedSession(t *testing.T) {
	sessions := newTestSessions(t)
	u := &model.User{ID: 1, Email: "ada@example.com", Role: "user"}
	token := login(t, sessions, u)
	require.NoError(t, sessions.Del(context.Background(), u.ID))

	// The token still verifies but the session entry is gone, so the
	// gate must refuse.
	rec := doRequest(newTestApp(sessions), token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateCookieToken(t *testing.T) {
	sessions := newTestSessions(t)
	u := &model.User{ID: 4, Email: "cookie@example.com", Role: "user"}
	token := login(t, sessions, u)

	e := newTestApp(sessions)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleForbidsUser(t *testing.T) {
	sessions := newTestSessions(t)
	u := &model.User{ID: 2, Email: "user@example.com", Role: "user"}
	token := login(t, sessions, u)

	rec := doRequest(newTestApp(sessions, auth.RoleAdmin), token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	sessions := newTestSessions(t)
	u := &model.User{ID: 3, Email: "admin@example.com", Role: "admin"}
	token := login(t, sessions, u)

	rec := doRequest(newTestApp(sessions, auth.RoleAdmin), token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// The session snapshot, not the token claim, decides the effective
// role: an admin token whose snapshot says "user" stays a user.
func TestSnapshotRoleWinsOverClaim(t *testing.T) {
	sessions := newTestSessions(t)
	u := &model.User{ID: 5, Email: "demoted@example.com", Role: "user"}
	snap, err := auth.EncodeSnapshot(u)
	require.NoError(t, err)
	require.NoError(t, sessions.Set(context.Background(), u.ID, snap))
	tok, err := auth.NewAccessToken(testSecret, u.ID, auth.RoleAdmin, 15)
	require.NoError(t, err)

	rec := doRequest(newTestApp(sessions, auth.RoleAdmin), tok.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
