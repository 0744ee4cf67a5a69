// apikeys.go implements SDK credential management. A project has at most one
// active credential; generating a new one rotates the old out, and the secret
// appears only in the generation response.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/middleware"
	"github.com/pfeak/codegate/internal/services"
)

// APIKeyHandlers serves the API key endpoints.
type APIKeyHandlers struct {
	keys *services.APIKeyService
}

// NewAPIKeyHandlers creates a new APIKeyHandlers.
func NewAPIKeyHandlers(keys *services.APIKeyService) *APIKeyHandlers {
	return &APIKeyHandlers{keys: keys}
}

// List returns a project's credentials, secrets omitted.
// GET /api/projects/:project_id/api-keys
func (h *APIKeyHandlers) List(c *gin.Context) {
	keys, err := h.keys.List(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": keys, "total": len(keys)})
}

type generateKeyRequest struct {
	Name *string `json:"name"`
}

// Generate creates a fresh credential pair for a project, rotating out any
// previous keys. This is the only response that carries the secret.
// POST /api/projects/:project_id/api-keys
func (h *APIKeyHandlers) Generate(c *gin.Context) {
	var req generateKeyRequest
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	createdBy := c.GetString(middleware.AdminUsernameKey)
	key, err := h.keys.Generate(c.Request.Context(), c.Param("project_id"), req.Name, &createdBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, key)
}

type toggleKeyRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// Toggle activates or deactivates a credential.
// PUT /api/api-keys/:key_id
func (h *APIKeyHandlers) Toggle(c *gin.Context) {
	var req toggleKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}

	if err := h.keys.SetActive(c.Request.Context(), c.Param("key_id"), *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete removes a credential.
// DELETE /api/api-keys/:key_id
func (h *APIKeyHandlers) Delete(c *gin.Context) {
	if err := h.keys.Delete(c.Request.Context(), c.Param("key_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
