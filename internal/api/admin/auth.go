// auth.go implements login, logout, session introspection, and password
// management for the admin console.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/middleware"
	"github.com/pfeak/codegate/internal/services"
)

// AuthHandlers serves the /api/auth endpoints.
type AuthHandlers struct {
	admins *services.AdminService
}

// NewAuthHandlers creates a new AuthHandlers.
func NewAuthHandlers(admins *services.AdminService) *AuthHandlers {
	return &AuthHandlers{admins: admins}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an admin and issues a bearer token.
// POST /api/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	res, err := h.admins.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"token":               res.Token,
		"admin":               res.Admin,
		"is_initial_password": res.Admin.IsInitialPassword,
	})
}

// Logout acknowledges a logout. Tokens are stateless, so the client simply
// discards its copy; the endpoint exists so the action lands in the audit log.
// POST /api/auth/logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the authenticated admin account.
// GET /api/auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	admin, err := h.admins.Get(c.Request.Context(), c.GetString(middleware.AdminIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, admin)
}

// CheckInitialPassword reports whether the bootstrap password is still in
// use, for the console's rotation reminder.
// GET /api/auth/check-initial-password
func (h *AuthHandlers) CheckInitialPassword(c *gin.Context) {
	admin, err := h.admins.Get(c.Request.Context(), c.GetString(middleware.AdminIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_initial_password": admin.IsInitialPassword})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword rotates the authenticated admin's password.
// POST /api/auth/change-password
func (h *AuthHandlers) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old_password and new_password are required"})
		return
	}

	adminID := c.GetString(middleware.AdminIDKey)
	if err := h.admins.ChangePassword(c.Request.Context(), adminID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
