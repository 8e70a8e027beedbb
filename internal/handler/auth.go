package handler

import (
    "context"
    "crypto/rand"
    "encoding/hex"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/learning-platform/internal/auth"
    "github.com/iliyamo/learning-platform/internal/config"
    "github.com/iliyamo/learning-platform/internal/mail"
    "github.com/iliyamo/learning-platform/internal/repository"
)

// AuthHandler bundles dependencies for registration, activation and
// session endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *auth.TokenService
    Mail   mail.Mailer
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *auth.TokenService, m mail.Mailer) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Mail: m}
}

// ----- DTOs -----

type registerReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
}
type activateReq struct {
    ActivationToken string `json:"activation_token"`
    ActivationCode  string `json:"activation_code"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type socialAuthReq struct {
    Name   string `json:"name"`
    Email  string `json:"email"`
    Avatar string `json:"avatar"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type authResp struct {
    Success bool      `json:"success"`
    User    any       `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func (h *AuthHandler) secureCookies() bool { return h.Cfg.Env == "prod" }

// Register handles POST /v1/auth/register.  No user row is created
// yet: the handler mints a short-lived activation token embedding the
// pending registration and a 6-digit code, mails the code, and returns
// the token.  Account creation happens at activation.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" || req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "name, email and password are required"})
    }
    if !strings.Contains(req.Email, "@") {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid email"})
    }
    if len(req.Password) < 6 {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "password must be at least 6 characters"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
        return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "email already exists"})
    } else if !errors.Is(err, repository.ErrUserNotFound) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
    }

    pending := auth.PendingUser{Name: req.Name, Email: req.Email, Password: req.Password}
    token, code, err := auth.NewActivationToken(h.Cfg.ActivationSecret, pending, h.Cfg.ActivationTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "issue activation token failed"})
    }
    data := map[string]any{"Name": req.Name, "Code": code, "Minutes": h.Cfg.ActivationTTLMin}
    if err := h.Mail.Send(req.Email, "Activate your account", "activation-mail", data); err != nil {
        // Without the code the user cannot activate, so this failure
        // is surfaced instead of being treated as best-effort.
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "sending activation mail failed"})
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "success":          true,
        "message":          "please check your email to activate your account",
        "activation_token": token,
    })
}

// Activate handles POST /v1/auth/activate.  It verifies the
// activation token and code and creates the user record.
func (h *AuthHandler) Activate(c echo.Context) error {
    var req activateReq
    if err := c.Bind(&req); err != nil || req.ActivationToken == "" || req.ActivationCode == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "activation_token and activation_code are required"})
    }
    pending, code, err := auth.ParseActivationToken(h.Cfg.ActivationSecret, req.ActivationToken)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "activation token is not valid"})
    }
    if code != strings.TrimSpace(req.ActivationCode) {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid activation code"})
    }

    hash, err := auth.HashPassword(pending.Password, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "hash password failed"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if _, err := h.Users.Create(ctx, pending.Name, pending.Email, hash, string(auth.RoleUser), true); err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "create user failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "account activated successfully"})
}

// Login handles POST /v1/auth/login.  Invalid credentials never issue
// a token and are reported with a 400-class status.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "please enter email and password"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "email or password are incorrect"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
    }
    if !auth.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "email or password are incorrect"})
    }

    pair, err := h.Tokens.Issue(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "issue tokens failed"})
    }
    setAuthCookies(c, pair, h.secureCookies())
    return c.JSON(http.StatusOK, authResp{
        Success: true,
        User:    u,
        Access:  tokenPart{Token: pair.Access.Token, Expires: pair.Access.Exp},
        Refresh: tokenPart{Token: pair.Refresh.Token, Expires: pair.Refresh.Exp},
    })
}

// Logout handles POST /v1/logout (protected).  Revocation is a
// session cache delete: every outstanding refresh token for the user
// dies with it, no blacklist required.
func (h *AuthHandler) Logout(c echo.Context) error {
    u, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    if err := h.Tokens.Revoke(ctx, u.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "logout failed"})
    }
    clearAuthCookies(c, h.secureCookies())
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "logged out successfully"})
}

// RefreshToken handles POST /v1/auth/refresh.  The refresh token
// comes from the refresh_token cookie or the request body.  Both
// tokens are rotated on success.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
    raw := ""
    if ck, err := c.Cookie("refresh_token"); err == nil {
        raw = ck.Value
    }
    if raw == "" {
        var body struct {
            RefreshToken string `json:"refresh_token"`
        }
        _ = c.Bind(&body)
        raw = strings.TrimSpace(body.RefreshToken)
    }
    if raw == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "refresh token required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    pair, u, err := h.Tokens.Refresh(ctx, raw)
    if err != nil {
        switch {
        case errors.Is(err, auth.ErrInvalidToken):
            return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "refresh token is not valid"})
        case errors.Is(err, auth.ErrSessionExpired):
            return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "please login to access this resource"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "refresh failed"})
        }
    }
    setAuthCookies(c, pair, h.secureCookies())
    return c.JSON(http.StatusOK, authResp{
        Success: true,
        User:    u,
        Access:  tokenPart{Token: pair.Access.Token, Expires: pair.Access.Exp},
        Refresh: tokenPart{Token: pair.Refresh.Token, Expires: pair.Refresh.Exp},
    })
}

// Me handles GET /v1/me.  It serves the session snapshot the
// authentication middleware already resolved; the password hash is
// excluded by the model's JSON tags.
func (h *AuthHandler) Me(c echo.Context) error {
    u, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u})
}

// SocialAuth handles POST /v1/auth/social.  Users arriving from
// an external identity provider are created on first sight with a
// random password and logged in immediately.
func (h *AuthHandler) SocialAuth(c echo.Context) error {
    var req socialAuthReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "name and email are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if errors.Is(err, repository.ErrUserNotFound) {
        hash, herr := auth.HashPassword(randomPassword(), h.Cfg.BcryptCost)
        if herr != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "hash password failed"})
        }
        id, cerr := h.Users.Create(ctx, req.Name, req.Email, hash, string(auth.RoleUser), true)
        if cerr != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "create user failed"})
        }
        if req.Avatar != "" {
            _ = h.Users.UpdateAvatar(ctx, id, req.Avatar)
        }
        if u, err = h.Users.GetByID(ctx, id); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "load user failed"})
        }
    } else if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
    }

    pair, err := h.Tokens.Issue(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "issue tokens failed"})
    }
    setAuthCookies(c, pair, h.secureCookies())
    return c.JSON(http.StatusOK, authResp{
        Success: true,
        User:    u,
        Access:  tokenPart{Token: pair.Access.Token, Expires: pair.Access.Exp},
        Refresh: tokenPart{Token: pair.Refresh.Token, Expires: pair.Refresh.Exp},
    })
}

// randomPassword returns 40 hex chars of secure randomness for
// accounts created via social auth.
func randomPassword() string {
    buf := make([]byte, 20)
    if _, err := rand.Read(buf); err != nil {
        return "fallback-not-random" // rand.Read practically never fails
    }
    return hex.EncodeToString(buf)
}
