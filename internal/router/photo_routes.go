package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share/internal/handler"
	"github.com/iliyamo/photo-share/internal/middleware"
)

// RegisterPhotos registers the photo endpoints. Reads are public and go
// through the response cache when one is configured; every mutation sits
// behind JWT authentication, with per-photo ownership enforced inside the
// handlers.
func RegisterPhotos(e *echo.Echo, p *handler.PhotoHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	pub := e.Group("/v1/photos")
	if cache != nil {
		pub.Use(cache)
	}
	pub.GET("", p.List)
	pub.GET("/:id", p.Get)

	auth := e.Group("/v1/photos")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("", p.Upload)
	auth.PATCH("/:id", p.Update)
	auth.DELETE("/:id", p.Delete)
	auth.POST("/:id/transform", p.Transform)
	auth.POST("/:id/qr", p.QRCode)
}

// RegisterComments registers the comment endpoints. Listing a photo's
// comments is public; creating, editing and deleting require a session.
func RegisterComments(e *echo.Echo, ch *handler.CommentHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	list := e.Group("/v1/photos/:id/comments")
	if cache != nil {
		list.Use(cache)
	}
	list.GET("", ch.ListByPhoto)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/comments", ch.Create)
	auth.PUT("/comments/:id", ch.Update)
	auth.DELETE("/comments/:id", ch.Delete)
}
