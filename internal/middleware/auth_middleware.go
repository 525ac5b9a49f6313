// internal/middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// SessionResolver turns an access token into session info.
type SessionResolver interface {
	Session(accessToken string) auth.SessionInfo
}

type AuthMiddleware struct {
	resolver SessionResolver
}

func NewAuthMiddleware(resolver SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
	}
}

// Auth requires a verified access token from the cookie or a bearer header.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token")
			return
		}

		info := m.resolver.Session(token)
		if !info.IsAuthenticated {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		setSession(c, info, token)
		c.Next()
	}
}

// RequireRole middleware that requires user to have one of the roles.
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			response.Error(c, http.StatusForbidden, "no role found - authentication required")
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "insufficient permissions")
	}
}

// StaffOnly returns middlewares for management API routes (Auth + RequireRole)
func (m *AuthMiddleware) StaffOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(auth.RoleEmployee, auth.RoleOwner),
	}
}

// OptionalAuth middleware that doesn't abort if no token is provided
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		info := m.resolver.Session(token)
		if info.IsAuthenticated {
			setSession(c, info, token)
		}
		c.Next()
	}
}
