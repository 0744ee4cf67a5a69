// Package middleware provides Gin HTTP middleware for CodeGate.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RequestID → Metrics → RateLimit → Auth → Audit → Handler
//
// Security headers run first so they appear on all responses including
// errors. Rate limiting runs before auth to stop brute force before any
// database work. Admin routes authenticate with a session JWT; SDK routes
// authenticate with an HMAC-signed request (see sdkauth.go). Audit logging
// runs after auth so entries carry the admin identity.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/auth"
	"github.com/pfeak/codegate/internal/db/repositories"
)

// Context keys set by the authentication middlewares.
const (
	AdminIDKey       = "admin_id"
	AdminUsernameKey = "admin_username"
	ProjectIDKey     = "project_id"
	APIKeyIDKey      = "api_key_id"
)

// AdminAuthMiddleware validates the bearer session JWT and loads the admin
// identity into the request context.
func AdminAuthMiddleware(admins *repositories.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header must start with 'Bearer '",
			})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		// The token may outlive the account.
		admin, err := admins.GetByID(c.Request.Context(), claims.AdminID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "failed to load admin",
			})
			return
		}
		if admin == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "admin not found",
			})
			return
		}

		c.Set(AdminIDKey, admin.ID)
		c.Set(AdminUsernameKey, admin.Username)
		c.Next()
	}
}
