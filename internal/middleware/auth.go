package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "net/http" // HTTP status codes for responses
    "strconv"  // formatting the numeric user id for the context
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/learning-platform/internal/auth"
    "github.com/iliyamo/learning-platform/internal/session"
)

// Context keys populated by Authenticate and consumed by handlers.
const (
    CtxUser   = "user"    // *model.User deserialized from the session snapshot
    CtxUserID = "user_id" // string form of the user id (also used by the rate limiter)
    CtxRole   = "role"    // auth.Role of the session user
)

// Authenticate returns an Echo middleware implementing the authorization
// gate.  Resolution is two-step: the access token must verify (stateless
// signature/expiry check) AND a session entry must exist for its subject
// (stateful cache check).  The effective user context for the rest of
// the request is the deserialized cache snapshot, not the token claims,
// so a revoked or edited account takes effect on the next request.  The
// middleware performs a pure read; it never mutates the cache.
//
// The access token is taken from the access_token cookie or, failing
// that, from a Bearer Authorization header.
func Authenticate(accessSecret string, sessions session.Store) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := accessTokenFrom(c)
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "please login to access this resource"})
            }
            // Stateless half: verify signature and expiry, extract the
            // claimed user id.  The role claim is ignored here; the
            // session snapshot is authoritative.
            userID, _, err := auth.ParseAccess(accessSecret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "access token is not valid"})
            }
            // Stateful half: the session entry must still exist.  A
            // valid token with no session means the user logged out or
            // was revoked.
            snapshot, err := sessions.Get(c.Request().Context(), userID)
            if err != nil {
                if errors.Is(err, session.ErrNotFound) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "please login to access this resource"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "session lookup failed"})
            }
            u, err := auth.DecodeSnapshot(snapshot)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "please login to access this resource"})
            }
            c.Set(CtxUser, u)
            c.Set(CtxUserID, strconv.FormatUint(u.ID, 10))
            c.Set(CtxRole, auth.ParseRole(u.Role))
            return next(c)
        }
    }
}

// RequireRole returns a middleware that enforces that the authenticated
// user's role is in the allowed set.  It assumes Authenticate already
// ran; a missing role is treated as forbidden, not unauthenticated,
// because the request got past the gate.
func RequireRole(roles ...auth.Role) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get(CtxRole).(auth.Role)
            if !ok || !role.In(roles...) {
                return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "role is not allowed to access this resource"})
            }
            return next(c)
        }
    }
}

// accessTokenFrom extracts the raw access token from the request.
// Cookies are preferred (the browser client), Bearer headers are the
// fallback (API clients).
func accessTokenFrom(c echo.Context) string {
    if ck, err := c.Cookie("access_token"); err == nil && ck.Value != "" {
        return ck.Value
    }
    authz := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(authz, "Bearer ") {
        return strings.TrimPrefix(authz, "Bearer ")
    }
    return ""
}
