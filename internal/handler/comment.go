package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share/internal/model"
	"github.com/iliyamo/photo-share/internal/policy"
	"github.com/iliyamo/photo-share/internal/repository"
)

// CommentHandler bundles dependencies for the comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Photos   PhotoStore
}

func NewCommentHandler(comments CommentStore, photos PhotoStore) *CommentHandler {
	return &CommentHandler{Comments: comments, Photos: photos}
}

type commentCreateReq struct {
	PhotoID uint64 `json:"photo_id"`
	Content string `json:"content"`
}
type commentUpdateReq struct {
	Content *string `json:"content"`
}
type commentResp struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	PhotoID   uint64    `json:"photo_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCommentResp(cm *model.Comment) commentResp {
	return commentResp{
		ID:        cm.ID,
		UserID:    cm.UserID,
		PhotoID:   cm.PhotoID,
		Content:   cm.Content,
		CreatedAt: cm.CreatedAt,
		UpdatedAt: cm.UpdatedAt,
	}
}

// Create handles POST /v1/comments. Any authenticated user may comment
// on any photo that still exists; the photo lookup runs first so a
// deleted photo reports 404.
func (h *CommentHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req commentCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Content) == "" || req.PhotoID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "photo_id and content required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Photos.GetByID(ctx, req.PhotoID); err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	cm := &model.Comment{UserID: id.UserID, PhotoID: req.PhotoID, Content: req.Content}
	if err := h.Comments.Create(ctx, cm); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create comment failed"})
	}
	return c.JSON(http.StatusCreated, toCommentResp(cm))
}

// ListByPhoto handles GET /v1/photos/:id/comments.
func (h *CommentHandler) ListByPhoto(c echo.Context) error {
	photoID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Photos.GetByID(ctx, photoID); err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	comments, err := h.Comments.ListByPhoto(ctx, photoID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]commentResp, 0, len(comments))
	for _, cm := range comments {
		items = append(items, toCommentResp(cm))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Update handles PUT /v1/comments/:id. Only the author may edit content;
// elevated roles get no shortcut here. A body without content is a no-op
// returning the current state.
func (h *CommentHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	commentID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req commentUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cm, err := h.Comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := policy.CanEditComment(id, cm.UserID); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if req.Content != nil && strings.TrimSpace(*req.Content) != "" {
		if err := h.Comments.UpdateContent(ctx, commentID, *req.Content); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		cm, err = h.Comments.GetByID(ctx, commentID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	return c.JSON(http.StatusOK, toCommentResp(cm))
}

// Delete handles DELETE /v1/comments/:id. The author, an ADMIN or a
// MODERATOR may delete.
func (h *CommentHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	commentID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cm, err := h.Comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := policy.CanDeleteComment(id, cm.UserID); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Comments.Delete(ctx, commentID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
