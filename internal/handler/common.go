// Package handler defines the HTTP handlers. Handlers depend on small
// store interfaces rather than concrete repositories so the ownership and
// token-rotation flows can be exercised in tests against in-memory fakes;
// the SQL repositories satisfy these interfaces at startup.
package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share/internal/middleware"
	"github.com/iliyamo/photo-share/internal/model"
	"github.com/iliyamo/photo-share/internal/policy"
)

// UserStore is the slice of the user repository the handlers consume.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ClearRefresh(ctx context.Context, userID uint64) error
	SetActive(ctx context.Context, id uint64, active bool) error
	SetRole(ctx context.Context, id uint64, role string) error
	UpdateProfile(ctx context.Context, id uint64, email, passwordHash *string) error
	List(ctx context.Context) ([]*model.User, error)
}

// PhotoStore is the slice of the photo repository the handlers consume.
type PhotoStore interface {
	Create(ctx context.Context, p *model.Photo) error
	GetByID(ctx context.Context, id uint64) (*model.Photo, error)
	List(ctx context.Context, userID uint64) ([]*model.Photo, error)
	UpdateDescription(ctx context.Context, id uint64, description string) error
	SetTransformedURL(ctx context.Context, id uint64, url string) error
	SetQRCodePath(ctx context.Context, id uint64, path string) error
	Delete(ctx context.Context, id uint64) error
	CountByUser(ctx context.Context, userID uint64) (int, error)
	ReplaceTags(ctx context.Context, photoID uint64, tagIDs []uint64) error
	TagsForPhoto(ctx context.Context, photoID uint64) ([]model.Tag, error)
}

// TagStore resolves tag names to rows, creating missing tags lazily.
type TagStore interface {
	ResolveAll(ctx context.Context, names []string) ([]model.Tag, error)
}

// CommentStore is the slice of the comment repository the handlers consume.
type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id uint64) (*model.Comment, error)
	ListByPhoto(ctx context.Context, photoID uint64) ([]*model.Comment, error)
	UpdateContent(ctx context.Context, id uint64, content string) error
	Delete(ctx context.Context, id uint64) error
	CountByPhoto(ctx context.Context, photoID uint64) (int, error)
}

// AssetHost is the external image service contract the photo handlers
// rely on.
type AssetHost interface {
	Upload(ctx context.Context, filename string, r io.Reader) (url, publicID string, err error)
	Destroy(ctx context.Context, publicID string) error
	TransformURL(publicID, transformation string) (string, error)
}

// QRGenerator renders a QR artifact for a URL and returns its file name.
type QRGenerator interface {
	Generate(content string) (string, error)
}

// dbTimeout bounds every repository call made from a handler.
const dbTimeout = 5 * time.Second

// identity pulls the authenticated caller from the Echo context. Routes
// behind JWTAuth always carry one; the unauthorized branch only triggers
// when a handler is wired onto an unprotected route by mistake.
func identity(c echo.Context) (policy.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return policy.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

// paramID parses the :id route parameter.
func paramID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
