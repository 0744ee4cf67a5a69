// logs.go implements read access to the verification and audit logs.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/db/repositories"
)

// LogHandlers serves the /api/verification-logs and /api/audit-logs listings.
type LogHandlers struct {
	logs   *repositories.VerificationLogRepository
	audits *repositories.AuditRepository
}

// NewLogHandlers creates a new LogHandlers.
func NewLogHandlers(logs *repositories.VerificationLogRepository, audits *repositories.AuditRepository) *LogHandlers {
	return &LogHandlers{logs: logs, audits: audits}
}

// VerificationLogs returns verification attempts, filterable by project,
// code, and result.
// GET /api/verification-logs
func (h *LogHandlers) VerificationLogs(c *gin.Context) {
	p := parsePagination(c)
	entries, total, err := h.logs.List(c.Request.Context(), repositories.LogFilters{
		ProjectID: c.Query("project_id"),
		CodeID:    c.Query("code_id"),
		Result:    c.Query("result"),
	}, p.Limit(), p.Offset())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Total: total, Page: p.Page, PageSize: p.PageSize, Items: entries})
}

// AuditLogs returns admin actions, filterable by admin, action, and resource
// type.
// GET /api/audit-logs
func (h *LogHandlers) AuditLogs(c *gin.Context) {
	p := parsePagination(c)
	entries, total, err := h.audits.List(c.Request.Context(), repositories.AuditFilters{
		AdminID:      c.Query("admin_id"),
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
	}, p.Limit(), p.Offset())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Total: total, Page: p.Page, PageSize: p.PageSize, Items: entries})
}
