// codes.go implements activation code management: batch generation, listing,
// state changes, batch disable with count preview, deletion, and the
// admin-side verify and reactivate operations.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/db/repositories"
	"github.com/pfeak/codegate/internal/services"
)

// CodeHandlers serves the code endpoints under /api/projects/:project_id/codes
// and /api/codes.
type CodeHandlers struct {
	codes        *services.CodeService
	verification *services.VerificationService
}

// NewCodeHandlers creates a new CodeHandlers.
func NewCodeHandlers(codes *services.CodeService, verification *services.VerificationService) *CodeHandlers {
	return &CodeHandlers{codes: codes, verification: verification}
}

type generateRequest struct {
	Count     int    `json:"count" binding:"required"`
	Length    int    `json:"length"`
	Prefix    string `json:"prefix"`
	Suffix    string `json:"suffix"`
	ExpiresAt *int64 `json:"expires_at"`
}

// Generate creates a batch of codes for a project.
// POST /api/projects/:project_id/codes/generate
func (h *CodeHandlers) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count is required"})
		return
	}

	codes, err := h.codes.Generate(c.Request.Context(), services.GenerateInput{
		ProjectID: c.Param("project_id"),
		Count:     req.Count,
		Length:    req.Length,
		Prefix:    req.Prefix,
		Suffix:    req.Suffix,
		ExpiresAt: parseTimestamp(req.ExpiresAt),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"total": len(codes), "items": codes})
}

// List returns a paginated code listing for a project. The status query
// parameter accepts unused, used, disabled, or expired; search matches a code
// substring.
// GET /api/projects/:project_id/codes
func (h *CodeHandlers) List(c *gin.Context) {
	p := parsePagination(c)
	filters := repositories.CodeFilters{
		ProjectID: c.Param("project_id"),
		Search:    c.Query("search"),
	}
	filters.ApplyStatus(c.Query("status"))

	codes, total, err := h.codes.List(c.Request.Context(), filters, p.Limit(), p.Offset())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Total: total, Page: p.Page, PageSize: p.PageSize, Items: codes})
}

// Get returns one code by ID.
// GET /api/codes/:code_id
func (h *CodeHandlers) Get(c *gin.Context) {
	code, err := h.codes.Get(c.Request.Context(), c.Param("code_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}

type updateCodeRequest struct {
	// ExpiresAt null with SetExpiresAt true clears the per-code expiry,
	// falling back to the project's.
	SetExpiresAt bool   `json:"set_expires_at"`
	ExpiresAt    *int64 `json:"expires_at"`
	Disabled     *bool  `json:"disabled"`
}

// Update adjusts a code's expiry or disabled flag. Disabling a used or
// expired code is rejected; those states are mutually exclusive.
// PUT /api/codes/:code_id
func (h *CodeHandlers) Update(c *gin.Context) {
	var req updateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	code, err := h.codes.Update(c.Request.Context(), c.Param("code_id"), services.UpdateCodeInput{
		SetExpiresAt: req.SetExpiresAt || req.ExpiresAt != nil,
		ExpiresAt:    parseTimestamp(req.ExpiresAt),
		Disabled:     req.Disabled,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}

// Delete removes a single code.
// DELETE /api/codes/:code_id
func (h *CodeHandlers) Delete(c *gin.Context) {
	if err := h.codes.Delete(c.Request.Context(), c.Param("code_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type batchDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// BatchDelete removes up to 1000 codes by ID.
// POST /api/codes/batch-delete
func (h *CodeHandlers) BatchDelete(c *gin.Context) {
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids are required"})
		return
	}

	deleted, err := h.codes.DeleteBatch(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
}

// BatchDisableCount previews how many unused codes BatchDisable would affect
// with the same filters. The count and the update share one WHERE clause, so
// the preview cannot drift from the apply.
// GET /api/projects/:project_id/codes/batch-disable-unused/count
func (h *CodeHandlers) BatchDisableCount(c *gin.Context) {
	count, err := h.codes.CountBatchDisable(c.Request.Context(), repositories.BatchDisableFilter{
		ProjectID: c.Param("project_id"),
		Search:    c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// BatchDisable disables every unused code matching the filters.
// POST /api/projects/:project_id/codes/batch-disable-unused
func (h *CodeHandlers) BatchDisable(c *gin.Context) {
	var req struct {
		Search string `json:"search"`
	}
	// Body is optional; an empty body disables all unused codes.
	_ = c.ShouldBindJSON(&req)

	disabled, err := h.codes.BatchDisable(c.Request.Context(), repositories.BatchDisableFilter{
		ProjectID: c.Param("project_id"),
		Search:    req.Search,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disabled_count": disabled})
}

type verifyRequest struct {
	Code       string  `json:"code" binding:"required"`
	VerifiedBy *string `json:"verified_by"`
}

// Verify redeems a code on behalf of an admin. Business rejections answer
// 200 with success=false and a stable error code so console clients branch
// on the payload, not the status.
// POST /api/codes/verify
func (h *CodeHandlers) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	ip := c.ClientIP()
	ua := c.Request.UserAgent()
	code, err := h.verification.Verify(c.Request.Context(), services.VerifyInput{
		Code:       req.Code,
		VerifiedBy: req.VerifiedBy,
		IPAddress:  &ip,
		UserAgent:  &ua,
	})
	if err != nil {
		if errCode := services.ErrorCode(err); errCode != "" {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error(), "error_code": errCode})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"code_id":     code.ID,
		"project_id":  code.ProjectID,
		"code":        code.Code,
		"verified_at": code.VerifiedAt,
	})
}

type reactivateRequest struct {
	ReactivatedBy *string `json:"reactivated_by"`
	Reason        *string `json:"reason"`
}

// Reactivate returns a used code to the unused pool.
// POST /api/codes/:code_id/reactivate
func (h *CodeHandlers) Reactivate(c *gin.Context) {
	var req reactivateRequest
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	code, err := h.codes.Get(c.Request.Context(), c.Param("code_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	ip := c.ClientIP()
	ua := c.Request.UserAgent()
	reactivated, err := h.verification.Reactivate(c.Request.Context(), services.ReactivateInput{
		Code:          code.Code,
		ReactivatedBy: req.ReactivatedBy,
		Reason:        req.Reason,
		IPAddress:     &ip,
		UserAgent:     &ua,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reactivated)
}
