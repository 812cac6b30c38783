// Package middleware contains the HTTP middleware for the delivery layer.
package middleware

import (
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"accounts/internal/delivery/http/response"
	"accounts/internal/domain/service"
)

// Context keys set by Authenticate for downstream handlers.
const (
	ContextKeyPublicID = "publicID"
	ContextKeyRoles    = "roles"
)

// AuthMiddleware provides middleware for JWT authentication and authorization.
type AuthMiddleware struct {
	codec service.TokenCodec
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(codec service.TokenCodec) *AuthMiddleware {
	return &AuthMiddleware{codec: codec}
}

// Authenticate validates the bearer access token and puts the caller's public
// id and roles on the request context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "MISSING_TOKEN", "Authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return response.Unauthorized(c, "INVALID_TOKEN_FORMAT", "Authorization header must carry a Bearer token")
		}

		claims, err := m.codec.ValidateToken(tokenString)
		if err != nil || claims.Type != service.TokenTypeAccess {
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
		}

		c.Set(ContextKeyPublicID, claims.Subject)
		c.Set(ContextKeyRoles, claims.Roles)

		return next(c)
	}
}

// RequireRole is a middleware factory that checks if the caller has a
// specific role. It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(requiredRole string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, ok := c.Get(ContextKeyRoles).([]string)
			if !ok {
				return response.Forbidden(c, "FORBIDDEN", "Role information missing")
			}

			if !slices.Contains(roles, requiredRole) {
				return response.Forbidden(c, "FORBIDDEN", "Requires the '"+requiredRole+"' role")
			}

			return next(c)
		}
	}
}
