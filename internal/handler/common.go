package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/learning-platform/internal/auth"
    "github.com/iliyamo/learning-platform/internal/middleware"
    "github.com/iliyamo/learning-platform/internal/model"
)

// dbTimeout bounds the duration of database calls made by handlers.
const dbTimeout = 5 * time.Second

// currentUser returns the session user placed in context by the
// authentication middleware.
func currentUser(c echo.Context) (*model.User, bool) {
    u, ok := c.Get(middleware.CtxUser).(*model.User)
    return u, ok
}

// setAuthCookies writes the access_token and refresh_token cookies.
// Both are HttpOnly with SameSite=Lax; Secure is enabled outside of
// dev so local HTTP development keeps working.
func setAuthCookies(c echo.Context, pair auth.TokenPair, secure bool) {
    c.SetCookie(authCookie("access_token", pair.Access.Token, pair.Access.Exp, secure))
    c.SetCookie(authCookie("refresh_token", pair.Refresh.Token, pair.Refresh.Exp, secure))
}

// clearAuthCookies expires both token cookies.
func clearAuthCookies(c echo.Context, secure bool) {
    c.SetCookie(authCookie("access_token", "", time.Unix(0, 0), secure))
    c.SetCookie(authCookie("refresh_token", "", time.Unix(0, 0), secure))
}

func authCookie(name, value string, exp time.Time, secure bool) *http.Cookie {
    return &http.Cookie{
        Name:     name,
        Value:    value,
        Path:     "/",
        Expires:  exp,
        HttpOnly: true,
        Secure:   secure,
        SameSite: http.SameSiteLaxMode,
    }
}
