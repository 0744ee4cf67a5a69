// codes.go implements the SDK code query and redemption endpoints.
package sdk

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/db/models"
	"github.com/pfeak/codegate/internal/db/repositories"
	"github.com/pfeak/codegate/internal/services"
)

type codeItem struct {
	ID         string  `json:"id"`
	Code       string  `json:"code"`
	Status     bool    `json:"status"`
	IsDisabled bool    `json:"is_disabled"`
	IsExpired  bool    `json:"is_expired"`
	ExpiresAt  *int64  `json:"expires_at,omitempty"`
	VerifiedAt *int64  `json:"verified_at,omitempty"`
	VerifiedBy *string `json:"verified_by,omitempty"`
	CreatedAt  int64   `json:"created_at"`
}

func newCodeItem(code *models.InvitationCode) codeItem {
	return codeItem{
		ID:         code.ID,
		Code:       code.Code,
		Status:     code.Status,
		IsDisabled: code.IsDisabled,
		IsExpired:  code.IsExpired,
		ExpiresAt:  unixPtr(code.ExpiresAt),
		VerifiedAt: unixPtr(code.VerifiedAt),
		VerifiedBy: code.VerifiedBy,
		CreatedAt:  unix(code.CreatedAt),
	}
}

type codeListResponse struct {
	Items      []codeItem `json:"items"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// ListCodes returns the project's codes, filterable by state name and code
// substring.
// GET /api/v1/projects/:project_id/codes
func (h *Handlers) ListCodes(c *gin.Context) {
	project := h.requireScope(c)
	if project == nil {
		return
	}

	p := parsePagination(c)
	filters := repositories.CodeFilters{ProjectID: project.ID, Search: c.Query("search")}
	filters.ApplyStatus(c.Query("status"))

	codes, total, err := h.codes.List(c.Request.Context(), filters, p.Limit(), p.Offset())
	if err != nil {
		internalError(c, err)
		return
	}

	items := make([]codeItem, 0, len(codes))
	for _, code := range codes {
		items = append(items, newCodeItem(code))
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.PageSize - 1) / p.PageSize
	}
	c.JSON(http.StatusOK, codeListResponse{
		Items: items, Total: total, Page: p.Page, PageSize: p.PageSize, TotalPages: totalPages,
	})
}

type logItem struct {
	ID         string  `json:"id"`
	VerifiedAt int64   `json:"verified_at"`
	VerifiedBy *string `json:"verified_by,omitempty"`
	IPAddress  *string `json:"ip_address,omitempty"`
	Result     string  `json:"result"`
}

type codeDetailResponse struct {
	codeItem
	VerificationLogs []logItem `json:"verification_logs"`
}

func (h *Handlers) respondCodeDetail(c *gin.Context, projectID string, code *models.InvitationCode) {
	// A code from another project is indistinguishable from a missing one.
	if code.ProjectID != projectID {
		c.JSON(http.StatusNotFound, gin.H{"error": "code not found"})
		return
	}

	logs, _, err := h.logs.List(c.Request.Context(), repositories.LogFilters{CodeID: code.ID}, 100, 0)
	if err != nil {
		internalError(c, err)
		return
	}

	resp := codeDetailResponse{codeItem: newCodeItem(code), VerificationLogs: make([]logItem, 0, len(logs))}
	for _, l := range logs {
		resp.VerificationLogs = append(resp.VerificationLogs, logItem{
			ID:         l.ID,
			VerifiedAt: unix(l.VerifiedAt),
			VerifiedBy: l.VerifiedBy,
			IPAddress:  l.IPAddress,
			Result:     l.Result,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetCode returns one code with its verification history.
// GET /api/v1/projects/:project_id/codes/:code_id
func (h *Handlers) GetCode(c *gin.Context) {
	project := h.requireScope(c)
	if project == nil {
		return
	}

	code, err := h.codes.Get(c.Request.Context(), c.Param("code_id"))
	if err != nil {
		if services.ErrorCode(err) == services.CodeCodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "code not found"})
			return
		}
		internalError(c, err)
		return
	}
	h.respondCodeDetail(c, project.ID, code)
}

// GetCodeByValue looks a code up by its string instead of its ID.
// GET /api/v1/projects/:project_id/codes/by-code/:code
func (h *Handlers) GetCodeByValue(c *gin.Context) {
	project := h.requireScope(c)
	if project == nil {
		return
	}

	value, err := url.PathUnescape(c.Param("code"))
	if err != nil {
		value = c.Param("code")
	}
	code, err := h.codes.GetByCode(c.Request.Context(), value)
	if err != nil {
		if services.ErrorCode(err) == services.CodeCodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "code not found"})
			return
		}
		internalError(c, err)
		return
	}
	h.respondCodeDetail(c, project.ID, code)
}

type verifyRequest struct {
	Code       string  `json:"code" binding:"required"`
	VerifiedBy *string `json:"verified_by"`
}

type verifyResponse struct {
	Success    bool   `json:"success"`
	CodeID     string `json:"code_id,omitempty"`
	Code       string `json:"code"`
	VerifiedAt *int64 `json:"verified_at,omitempty"`
	Message    string `json:"message"`
	ErrorCode  string `json:"error_code,omitempty"`
}

// Verify redeems a code within the key's project. Business rejections answer
// 200 with success=false and a stable error code; SDK clients branch on the
// payload.
// POST /api/v1/projects/:project_id/codes/verify
func (h *Handlers) Verify(c *gin.Context) {
	project := h.requireScope(c)
	if project == nil {
		return
	}

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	ip := c.ClientIP()
	ua := c.Request.UserAgent()
	code, err := h.verification.Verify(c.Request.Context(), services.VerifyInput{
		Code:       req.Code,
		ProjectID:  project.ID,
		VerifiedBy: req.VerifiedBy,
		IPAddress:  &ip,
		UserAgent:  &ua,
	})
	if err != nil {
		if errCode := services.ErrorCode(err); errCode != "" {
			c.JSON(http.StatusOK, verifyResponse{
				Success: false, Code: req.Code, Message: err.Error(), ErrorCode: errCode,
			})
			return
		}
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, verifyResponse{
		Success:    true,
		CodeID:     code.ID,
		Code:       code.Code,
		VerifiedAt: unixPtr(code.VerifiedAt),
		Message:    "code verified successfully",
	})
}

type reactivateRequest struct {
	Code          string  `json:"code" binding:"required"`
	ReactivatedBy *string `json:"reactivated_by"`
	Reason        *string `json:"reason"`
}

type reactivateResponse struct {
	Success       bool   `json:"success"`
	CodeID        string `json:"code_id,omitempty"`
	Code          string `json:"code"`
	ReactivatedAt *int64 `json:"reactivated_at,omitempty"`
	Message       string `json:"message"`
	ErrorCode     string `json:"error_code,omitempty"`
}

// Reactivate returns a used code to the unused pool within the key's project.
// POST /api/v1/projects/:project_id/codes/reactivate
func (h *Handlers) Reactivate(c *gin.Context) {
	project := h.requireScope(c)
	if project == nil {
		return
	}

	var req reactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	ip := c.ClientIP()
	ua := c.Request.UserAgent()
	code, err := h.verification.Reactivate(c.Request.Context(), services.ReactivateInput{
		Code:          req.Code,
		ProjectID:     project.ID,
		ReactivatedBy: req.ReactivatedBy,
		Reason:        req.Reason,
		IPAddress:     &ip,
		UserAgent:     &ua,
	})
	if err != nil {
		if errCode := services.ErrorCode(err); errCode != "" {
			c.JSON(http.StatusOK, reactivateResponse{
				Success: false, Code: req.Code, Message: err.Error(), ErrorCode: errCode,
			})
			return
		}
		internalError(c, err)
		return
	}

	now := unix(h.clock.Now())
	c.JSON(http.StatusOK, reactivateResponse{
		Success:       true,
		CodeID:        code.ID,
		Code:          code.Code,
		ReactivatedAt: &now,
		Message:       "code reactivated successfully",
	})
}
