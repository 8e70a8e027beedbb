package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/learning-platform/internal/auth"
    "github.com/iliyamo/learning-platform/internal/config"
    "github.com/iliyamo/learning-platform/internal/repository"
)

// UserHandler bundles dependencies for profile mutations and the
// admin user listing.  Every mutation re-syncs the session snapshot
// so the cached copy never lags the persistent store.
type UserHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *auth.TokenService
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, t *auth.TokenService) *UserHandler {
    return &UserHandler{Cfg: cfg, Users: u, Tokens: t}
}

type updateInfoReq struct {
    Name  string `json:"name"`
    Email string `json:"email"`
}
type updatePasswordReq struct {
    OldPassword string `json:"old_password"`
    NewPassword string `json:"new_password"`
}
type updateAvatarReq struct {
    Avatar string `json:"avatar"`
}

// UpdateInfo handles POST /v1/users/update-user-info.  Empty fields
// are left untouched; a taken email reports a conflict.
func (h *UserHandler) UpdateInfo(c echo.Context) error {
    u, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
    }
    var req updateInfoReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Name == "" && req.Email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "nothing to update"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if req.Email != "" && req.Email != u.Email {
        if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
            return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "email already exists"})
        } else if !errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
        }
    }
    if err := h.Users.UpdateInfo(ctx, u.ID, req.Name, req.Email); err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "update failed"})
    }
    return h.reloadAndSync(c, u.ID, "user updated successfully")
}

// UpdatePassword handles PATCH /v1/users/update-password.  The old
// password is verified against the persistent store, not the session
// snapshot, so a stale snapshot can never authorize a change.
func (h *UserHandler) UpdatePassword(c echo.Context) error {
    u, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
    }
    var req updatePasswordReq
    if err := c.Bind(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "please enter old and new password"})
    }
    if len(req.NewPassword) < 6 {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "password must be at least 6 characters"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    fresh, err := h.Users.GetByID(ctx, u.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "load user failed"})
    }
    if !auth.VerifyPassword(fresh.PasswordHash, req.OldPassword) {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "current password is incorrect"})
    }
    hash, err := auth.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "hash password failed"})
    }
    if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "update failed"})
    }
    return h.reloadAndSync(c, u.ID, "password updated successfully")
}

// UpdateAvatar handles PATCH /v1/users/update-avatar.  Image storage
// is an external concern; the platform stores only the URL.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
    u, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
    }
    var req updateAvatarReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Avatar) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "please enter avatar"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Users.UpdateAvatar(ctx, u.ID, strings.TrimSpace(req.Avatar)); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "update failed"})
    }
    return h.reloadAndSync(c, u.ID, "avatar updated successfully")
}

// ListAll handles GET /v1/users (admin only), newest first.
func (h *UserHandler) ListAll(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    users, err := h.Users.ListAll(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "users": users})
}

// reloadAndSync reloads the user, rewrites the session snapshot and
// returns the fresh record.
func (h *UserHandler) reloadAndSync(c echo.Context, id uint64, msg string) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    fresh, err := h.Users.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "load user failed"})
    }
    if err := h.Tokens.Sync(ctx, fresh); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "session sync failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msg, "user": fresh})
}
