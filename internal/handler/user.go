package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share/internal/config"
	"github.com/iliyamo/photo-share/internal/model"
	"github.com/iliyamo/photo-share/internal/repository"
	"github.com/iliyamo/photo-share/internal/utils"
)

// UserHandler bundles dependencies for user profile and admin endpoints.
type UserHandler struct {
	Cfg    config.Config
	Users  UserStore
	Photos PhotoStore
}

func NewUserHandler(cfg config.Config, users UserStore, photos PhotoStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Photos: photos}
}

type profileResp struct {
	Username   string    `json:"username"`
	PhotoCount int       `json:"photo_count"`
	JoinedAt   time.Time `json:"joined_at"`
}

type adminUserResp struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile handles GET /v1/users/:username, the public view of a user.
func (h *UserHandler) Profile(c echo.Context) error {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	count, err := h.Photos.CountByUser(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, profileResp{Username: u.Username, PhotoCount: count, JoinedAt: u.CreatedAt})
}

type profileUpdateReq struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateMe handles PATCH /v1/users/me: self-service partial update of
// email and password. A body with neither field set is a no-op returning
// the current state.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	var passwordHash *string
	if req.Password != nil {
		if *req.Password == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must not be empty"})
		}
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
		}
		passwordHash = &hash
	}

	if err := h.Users.UpdateProfile(ctx, id.UserID, req.Email, passwordHash); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	u, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
}

// ListUsers handles GET /v1/admin/users. Route-gated to ADMIN.
func (h *UserHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]adminUserResp, 0, len(users))
	for _, u := range users {
		items = append(items, adminUserResp{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Role:      u.Role,
			IsActive:  u.IsActive,
			Confirmed: u.Confirmed,
			CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type roleReq struct {
	Role string `json:"role"`
}

// SetRole handles PATCH /v1/admin/users/:id/role. The role must come
// from the closed set; anything else is a client error.
func (h *UserHandler) SetRole(c echo.Context) error {
	userID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if !model.ValidRole(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.SetRole(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": userID, "role": role})
}

type activeReq struct {
	Active *bool `json:"active"`
}

// SetActive handles PATCH /v1/admin/users/:id/active. Deactivated users
// keep their rows and photos; they just cannot log in anymore.
func (h *UserHandler) SetActive(c echo.Context) error {
	userID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req activeReq
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.SetActive(ctx, userID, *req.Active); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	// Deactivation also kills the active session.
	if !*req.Active {
		_ = h.Users.ClearRefresh(ctx, userID)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": userID, "active": *req.Active})
}
