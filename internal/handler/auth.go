package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // sentinel comparisons against repository errors
	"fmt"      // lockout error messages carry remaining time
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls and lockout arithmetic

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/vescom/vescom-api/internal/config"     // app configuration
	"github.com/vescom/vescom-api/internal/model"      // admin model
	"github.com/vescom/vescom-api/internal/repository" // DB repositories
	"github.com/vescom/vescom-api/internal/utils"      // token issuing and hashing helpers
)

// Login lockout policy: after maxLoginAttempts consecutive failures the
// account is blocked for lockoutMinutes.
const (
	maxLoginAttempts = 3
	lockoutMinutes   = 5
)

// AuthHandler bundles dependencies for auth and admin-management endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Admins *repository.AdminRepo
}

func NewAuthHandler(cfg config.Config, a *repository.AdminRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Admins: a}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expires     time.Time `json:"expires"`
}

type adminReq struct {
	Name     string  `json:"name"`
	Surname  string  `json:"surname"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Password string  `json:"password"`
}

// Login: verify credentials and return a fresh access token. Exactly one
// live session exists per client; the returned token replaces whatever the
// client held before.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Do not reveal whether the email exists.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	now := time.Now().UTC()
	if a.LockedUntil != nil {
		if now.Before(*a.LockedUntil) {
			secs := int(a.LockedUntil.Sub(now).Seconds())
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": fmt.Sprintf("account locked, retry in %d seconds", secs),
			})
		}
		// Lock expired, reset the counter before evaluating this attempt.
		a.FailedAttempts = 0
		a.LockedUntil = nil
		_ = h.Admins.ResetLoginFailures(ctx, a.ID)
	}

	if !a.Active {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated"})
	}

	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		attempts := a.FailedAttempts + 1
		if attempts >= maxLoginAttempts {
			until := now.Add(lockoutMinutes * time.Minute)
			_ = h.Admins.SetLoginFailure(ctx, a.ID, 0, &until)
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": fmt.Sprintf("too many failed attempts, account locked for %d minutes", lockoutMinutes),
			})
		}
		_ = h.Admins.SetLoginFailure(ctx, a.ID, attempts, nil)
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": fmt.Sprintf("invalid credentials, %d attempts remaining", maxLoginAttempts-attempts),
		})
	}

	if err := h.Admins.ResetLoginFailures(ctx, a.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, a.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, loginResp{
		AccessToken: access.Token,
		TokenType:   "bearer",
		Expires:     access.Exp,
	})
}

// Me resolves the caller's token to the full admin profile. Clients use it
// to hydrate a stored session on startup; a 401 here tells them the token
// is dead and must be cleared.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := adminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !a.Active {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, a)
}

// CreateAdmin registers another administrator. Only an authenticated admin
// reaches this handler.
func (h *AuthHandler) CreateAdmin(c echo.Context) error {
	var req adminReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Surname) == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, surname, email and password are required"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}

	a := model.Admin{
		Name:         strings.TrimSpace(req.Name),
		Surname:      strings.TrimSpace(req.Surname),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Active:       true,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Admins.Create(ctx, &a); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create admin failed"})
	}
	return c.JSON(http.StatusCreated, a)
}

// ListAdmins returns all admins, active and deactivated.
func (h *AuthHandler) ListAdmins(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Admins.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetAdmin returns one admin by id.
func (h *AuthHandler) GetAdmin(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, a)
}

// UpdateAdmin overwrites an admin's profile; a non-empty password in the
// body rotates the credential.
func (h *AuthHandler) UpdateAdmin(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adminReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Surname) == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, surname and email are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	a.Name = strings.TrimSpace(req.Name)
	a.Surname = strings.TrimSpace(req.Surname)
	a.Email = req.Email
	a.Phone = req.Phone
	a.PasswordHash = ""
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
		}
		a.PasswordHash = hash
	}

	if err := h.Admins.Update(ctx, &a); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	updated, err := h.Admins.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, updated)
}

// DeactivateAdmin soft-deletes an admin account. An admin can never
// deactivate its own account: the console would lock itself out.
func (h *AuthHandler) DeactivateAdmin(c echo.Context) error {
	caller, err := adminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if id == caller {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot deactivate your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Admins.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
