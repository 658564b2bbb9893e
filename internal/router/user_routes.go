package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share/internal/handler"
	"github.com/iliyamo/photo-share/internal/middleware"
	"github.com/iliyamo/photo-share/internal/model"
)

// RegisterUsers registers public profiles, self-service profile updates
// and the admin user-management group. The admin group stacks RequireRole
// on top of JWTAuth so role enforcement happens before any handler runs.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	pub := e.Group("/v1/users")
	if cache != nil {
		pub.Use(cache)
	}
	pub.GET("/:username", u.Profile)

	auth := e.Group("/v1/users")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.PATCH("/me", u.UpdateMe)

	admin := e.Group("/v1/admin/users")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("", u.ListUsers)
	admin.PATCH("/:id/role", u.SetRole)
	admin.PATCH("/:id/active", u.SetActive)
}
