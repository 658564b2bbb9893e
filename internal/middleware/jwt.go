package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share/internal/policy"
)

// Context keys written by JWTAuth and read by CurrentIdentity.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the caller's id and role into the request context. The
// provided secret must match the one used when issuing tokens. Protected
// routes wrap this middleware so handlers can resolve the caller via
// CurrentIdentity.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Pin the signing method to HMAC; tokens signed any other way
			// are rejected before the claims are looked at.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			uid, ok := subjectID(claims["sub"])
			role, rok := claims["role"].(string)
			if !ok || !rok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(ctxUserID, uid)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity injected by JWTAuth. The boolean is
// false when the middleware did not run or the context values were lost.
func CurrentIdentity(c echo.Context) (policy.Identity, bool) {
	uid, ok := c.Get(ctxUserID).(uint64)
	role, rok := c.Get(ctxRole).(string)
	if !ok || !rok {
		return policy.Identity{}, false
	}
	return policy.Identity{UserID: uid, Role: role}, true
}

// subjectID converts the JWT subject claim to uint64. JSON numbers decode
// as float64; string subjects are parsed for compatibility.
func subjectID(v any) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		return uint64(t), true
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
