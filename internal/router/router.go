// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share/internal/handler"
	"github.com/iliyamo/photo-share/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication. The
// health check is used by load balancers to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Token-issuing
// operations live under /v1/auth and take the rate limiter so credential
// stuffing is throttled per client IP; the session endpoints under /v1
// require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if rateLimit != nil {
		g.Use(rateLimit)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the stored token: the presented token must match the
	// live one exactly, otherwise the session is cleared.
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/auth/logout", a.Logout)
}
