package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share/internal/imagehost"
	"github.com/iliyamo/photo-share/internal/model"
	"github.com/iliyamo/photo-share/internal/policy"
	"github.com/iliyamo/photo-share/internal/queue"
	"github.com/iliyamo/photo-share/internal/repository"
	queue_publisher "github.com/iliyamo/photo-share/internal/service"
)

// PhotoHandler bundles dependencies for the photo endpoints.
type PhotoHandler struct {
	Photos   PhotoStore
	Tags     TagStore
	Comments CommentStore
	Users    UserStore
	Assets   AssetHost
	QR       QRGenerator
}

func NewPhotoHandler(photos PhotoStore, tags TagStore, comments CommentStore, users UserStore, assets AssetHost, qr QRGenerator) *PhotoHandler {
	return &PhotoHandler{Photos: photos, Tags: tags, Comments: comments, Users: users, Assets: assets, QR: qr}
}

type photoResp struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	URL            string    `json:"url"`
	PublicID       string    `json:"public_id"`
	TransformedURL *string   `json:"transformed_url,omitempty"`
	QRCodePath     *string   `json:"qr_code_path,omitempty"`
	Description    string    `json:"description"`
	Tags           []string  `json:"tags"`
	CommentsCount  int       `json:"comments_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (h *PhotoHandler) toResp(ctx context.Context, p *model.Photo) photoResp {
	resp := photoResp{
		ID:             p.ID,
		UserID:         p.UserID,
		URL:            p.URL,
		PublicID:       p.PublicID,
		TransformedURL: p.TransformedURL,
		QRCodePath:     p.QRCodePath,
		Description:    p.Description,
		Tags:           []string{},
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if tags, err := h.Photos.TagsForPhoto(ctx, p.ID); err == nil {
		for _, t := range tags {
			resp.Tags = append(resp.Tags, t.Name)
		}
	}
	if n, err := h.Comments.CountByPhoto(ctx, p.ID); err == nil {
		resp.CommentsCount = n
	}
	return resp
}

// Upload handles POST /v1/photos: multipart file with optional
// description and comma-separated tags. The asset goes to the external
// host first; only then is the row inserted. If the insert fails after a
// successful upload, one best-effort destroy is attempted; there is no
// compensating retry beyond that, the failure is logged.
func (h *PhotoHandler) Upload(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read file"})
	}
	defer src.Close()

	url, publicID, err := h.Assets.Upload(c.Request().Context(), fh.Filename, src)
	if err != nil {
		switch {
		case errors.Is(err, imagehost.ErrFileTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "max file size 5 MB"})
		case errors.Is(err, imagehost.ErrUpstream):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "image host unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	photo := &model.Photo{
		UserID:      id.UserID,
		URL:         url,
		PublicID:    publicID,
		Description: c.FormValue("description"),
	}
	if err := h.Photos.Create(ctx, photo); err != nil {
		// The asset is already on the host; try to clean it up once.
		if derr := h.Assets.Destroy(ctx, publicID); derr != nil {
			log.Printf("photo upload: orphaned asset %s after insert failure: %v", publicID, derr)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create photo failed"})
	}

	tagNames := repository.NormalizeTagNames(c.FormValue("tags"))
	if len(tagNames) > 0 {
		if err := h.attachTags(ctx, photo.ID, tagNames); err != nil {
			if errors.Is(err, repository.ErrTagConflict) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "tag conflict"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "attach tags failed"})
		}
	}

	h.publishUploaded(ctx, photo, tagNames)
	return c.JSON(http.StatusCreated, h.toResp(ctx, photo))
}

// attachTags resolves names to tag rows and replaces the photo's tag set.
func (h *PhotoHandler) attachTags(ctx context.Context, photoID uint64, names []string) error {
	tags, err := h.Tags.ResolveAll(ctx, names)
	if err != nil {
		return err
	}
	ids := make([]uint64, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return h.Photos.ReplaceTags(ctx, photoID, ids)
}

func (h *PhotoHandler) publishUploaded(ctx context.Context, p *model.Photo, tags []string) {
	ev := queue.PhotoUploadedEvent{
		PhotoID:    p.ID,
		UserID:     p.UserID,
		PublicID:   p.PublicID,
		URL:        p.URL,
		Tags:       tags,
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if u, err := h.Users.GetByID(ctx, p.UserID); err == nil {
		ev.Username = u.Username
	}
	_ = queue_publisher.PublishPhotoUploaded(ctx, ev) // best effort
}

// List handles GET /v1/photos, optionally filtered with ?user_id=.
func (h *PhotoHandler) List(c echo.Context) error {
	var userID uint64
	if s := c.QueryParam("user_id"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
		userID = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	photos, err := h.Photos.List(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]photoResp, 0, len(photos))
	for _, p := range photos {
		items = append(items, h.toResp(ctx, p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/photos/:id.
func (h *PhotoHandler) Get(c echo.Context) error {
	photoID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, h.toResp(ctx, p))
}

type photoUpdateReq struct {
	Description *string `json:"description"`
	Tags        *string `json:"tags"` // comma-separated; full replace
}

// Update handles PATCH /v1/photos/:id. Partial: only fields present in
// the body change; a body with no recognized fields is a no-op that still
// returns the current state. Existence is checked before authorization,
// so a missing photo reports 404 even to callers who would be denied.
func (h *PhotoHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	photoID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req photoUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := policy.CanManagePhoto(id, p.UserID); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if req.Description != nil {
		if err := h.Photos.UpdateDescription(ctx, photoID, *req.Description); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.Tags != nil {
		if err := h.attachTags(ctx, photoID, repository.NormalizeTagNames(*req.Tags)); err != nil {
			if errors.Is(err, repository.ErrTagConflict) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "tag conflict"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "attach tags failed"})
		}
	}

	updated, err := h.Photos.GetByID(ctx, photoID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, h.toResp(ctx, updated))
}

// Delete handles DELETE /v1/photos/:id. Owner or ADMIN. The hosted asset
// is destroyed best-effort: a host failure is logged but does not keep
// the row alive.
func (h *PhotoHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	photoID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := policy.CanManagePhoto(id, p.UserID); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := h.Assets.Destroy(ctx, p.PublicID); err != nil {
		log.Printf("photo delete: destroy asset %s failed: %v", p.PublicID, err)
	}
	if err := h.Photos.Delete(ctx, photoID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	_ = queue_publisher.PublishPhotoDeleted(ctx, queue.PhotoDeletedEvent{
		PhotoID:   p.ID,
		OwnerID:   p.UserID,
		DeletedBy: id.UserID,
		PublicID:  p.PublicID,
		DeletedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.NoContent(http.StatusNoContent)
}

type transformReq struct {
	Transformation string `json:"transformation"`
}

// Transform handles POST /v1/photos/:id/transform. The transformation
// name must be one of the fixed set; anything else is a client error, not
// an upstream one.
func (h *PhotoHandler) Transform(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	photoID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req transformReq
	if err := c.Bind(&req); err != nil || req.Transformation == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "transformation required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := policy.CanManagePhoto(id, p.UserID); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	url, err := h.Assets.TransformURL(p.PublicID, req.Transformation)
	if err != nil {
		if errors.Is(err, imagehost.ErrUnsupportedTransform) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported transformation"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "image host unavailable"})
	}
	if err := h.Photos.SetTransformedURL(ctx, photoID, url); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"transformed_url": url})
}

// QRCode handles POST /v1/photos/:id/qr: renders a QR artifact for the
// photo's transformed URL. Requires a prior transform call.
func (h *PhotoHandler) QRCode(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	photoID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := policy.CanManagePhoto(id, p.UserID); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if p.TransformedURL == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "photo has no transformed url"})
	}

	name, err := h.QR.Generate(*p.TransformedURL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "qr generation failed"})
	}
	if err := h.Photos.SetQRCodePath(ctx, photoID, name); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"qr_code_path": name})
}
