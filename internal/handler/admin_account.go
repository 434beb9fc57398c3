package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examhall/booking-api/internal/config"
	"github.com/examhall/booking-api/internal/feed"
	"github.com/examhall/booking-api/internal/repository"
)

// AdminAccountHandler manages sub-admin accounts.  Its routes are
// restricted to the super admin by role middleware.
type AdminAccountHandler struct {
	Cfg    config.Config
	Admins *repository.AdminRepo
	Tokens *repository.TokenRepo
	Feed   *feed.Feed
}

func NewAdminAccountHandler(cfg config.Config, admins *repository.AdminRepo, tokens *repository.TokenRepo, fd *feed.Feed) *AdminAccountHandler {
	if admins == nil || tokens == nil {
		panic("nil repository passed to NewAdminAccountHandler")
	}
	return &AdminAccountHandler{Cfg: cfg, Admins: admins, Tokens: tokens, Feed: fd}
}

type createAdminReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// List returns all admin accounts.  Password hashes never serialize.
func (h *AdminAccountHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	admins, err := h.Admins.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list admins failed"})
	}
	return c.JSON(http.StatusOK, admins)
}

// Create adds a sub-admin account.
func (h *AdminAccountHandler) Create(c echo.Context) error {
	var req createAdminReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and a password of at least 8 characters required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Admins.Create(ctx, req.Name, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create admin failed"})
	}
	a, err := h.Admins.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load admin failed"})
	}
	h.Feed.Publish(feed.Event{Collection: feed.CollectionAdmins, Action: feed.ActionCreated, ID: a.ID, Payload: a})
	return c.JSON(http.StatusCreated, a)
}

// Delete removes a sub-admin account and revokes its sessions.  The
// bootstrap super admin account cannot be deleted.
func (h *AdminAccountHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load admin failed"})
	}
	if strings.EqualFold(a.Email, h.Cfg.SuperAdminEmail) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot delete super admin"})
	}

	if err := h.Admins.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete admin failed"})
	}
	// Best effort; the account is already gone.
	_ = h.Tokens.RevokeAllForAdmin(ctx, id)
	h.Feed.Publish(feed.Event{Collection: feed.CollectionAdmins, Action: feed.ActionDeleted, ID: id})
	return c.NoContent(http.StatusNoContent)
}
