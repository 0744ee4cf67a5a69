// Package sdk implements the HMAC-authenticated integration API under
// /api/v1. Every route is scoped to the project the presented API key
// belongs to; a key can never read or redeem another project's codes.
// Timestamps on this surface are unix seconds, matching what SDK clients
// sign and parse.
package sdk

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/models"
	"github.com/pfeak/codegate/internal/db/repositories"
	"github.com/pfeak/codegate/internal/middleware"
	"github.com/pfeak/codegate/internal/services"
)

// Handlers serves the SDK API.
type Handlers struct {
	projects     *services.ProjectService
	codes        *services.CodeService
	verification *services.VerificationService
	logs         *repositories.VerificationLogRepository
	clock        clock.Clock
}

// NewHandlers creates a new SDK Handlers.
func NewHandlers(
	projects *services.ProjectService,
	codes *services.CodeService,
	verification *services.VerificationService,
	logs *repositories.VerificationLogRepository,
	clk clock.Clock,
) *Handlers {
	return &Handlers{projects: projects, codes: codes, verification: verification, logs: logs, clock: clk}
}

// pagination carries the parsed page window of a list request.
type pagination struct {
	Page     int
	PageSize int
}

func (p pagination) Limit() int  { return p.PageSize }
func (p pagination) Offset() int { return (p.Page - 1) * p.PageSize }

// parsePagination reads page and page_size query parameters, clamping
// page_size to [1, 100].
func parsePagination(c *gin.Context) pagination {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return pagination{Page: page, PageSize: size}
}

// requireScope resolves the project the request targets. The path project
// must match the API key's project, and the project must exist and be
// enabled. Returns nil after writing the response when any check fails.
func (h *Handlers) requireScope(c *gin.Context) *models.Project {
	projectID := c.Param("project_id")
	if c.GetString(middleware.ProjectIDKey) != projectID {
		c.JSON(http.StatusForbidden, gin.H{"error": "project does not match API key"})
		return nil
	}

	project, err := h.projects.Get(c.Request.Context(), projectID)
	if err != nil {
		if services.ErrorCode(err) == services.CodeProjectNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return nil
		}
		internalError(c, err)
		return nil
	}
	if !project.Status {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "project is disabled"})
		return nil
	}
	return project
}

func internalError(c *gin.Context, err error) {
	slog.Error("sdk API internal error", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func unix(t time.Time) int64 { return t.UTC().Unix() }

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := unix(*t)
	return &u
}

// codeStats mirrors repositories.CodeStats with SDK field names.
type codeStats struct {
	Total    int `json:"total_codes"`
	Used     int `json:"used_codes"`
	Unused   int `json:"unused_codes"`
	Disabled int `json:"disabled_codes"`
	Expired  int `json:"expired_codes"`
}

func newCodeStats(s *repositories.CodeStats) codeStats {
	return codeStats{Total: s.Total, Used: s.Used, Unused: s.Unused, Disabled: s.Disabled, Expired: s.Expired}
}

type projectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Status      bool      `json:"status"`
	ExpiresAt   *int64    `json:"expires_at,omitempty"`
	CreatedAt   int64     `json:"created_at"`
	Statistics  codeStats `json:"statistics"`
}

// GetProject returns the key's project with aggregated code counts.
// GET /api/v1/projects/:project_id
func (h *Handlers) GetProject(c *gin.Context) {
	project := h.requireScope(c)
	if project == nil {
		return
	}

	withStats, err := h.projects.GetWithStats(c.Request.Context(), project.ID)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, projectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		ExpiresAt:   unixPtr(project.ExpiresAt),
		CreatedAt:   unix(project.CreatedAt),
		Statistics:  newCodeStats(withStats.Stats),
	})
}

type statisticsResponse struct {
	ProjectID string  `json:"project_id"`
	codeStats         // flattened
	UsageRate float64 `json:"usage_rate"`

	RecentVerifications []recentVerification `json:"recent_verifications"`
}

type recentVerification struct {
	CodeID     string  `json:"code_id"`
	VerifiedAt int64   `json:"verified_at"`
	VerifiedBy *string `json:"verified_by,omitempty"`
	Result     string  `json:"result"`
}

// Statistics returns usage counters, the redemption rate, and the ten most
// recent verification log entries.
// GET /api/v1/projects/:project_id/statistics
func (h *Handlers) Statistics(c *gin.Context) {
	project := h.requireScope(c)
	if project == nil {
		return
	}

	withStats, err := h.projects.GetWithStats(c.Request.Context(), project.ID)
	if err != nil {
		internalError(c, err)
		return
	}
	stats := withStats.Stats

	recent, err := h.logs.RecentByProject(c.Request.Context(), project.ID, 10)
	if err != nil {
		internalError(c, err)
		return
	}

	usageRate := 0.0
	if stats.Total > 0 {
		usageRate = float64(stats.Used) / float64(stats.Total)
	}

	resp := statisticsResponse{
		ProjectID:           project.ID,
		codeStats:           newCodeStats(stats),
		UsageRate:           usageRate,
		RecentVerifications: make([]recentVerification, 0, len(recent)),
	}
	for _, l := range recent {
		resp.RecentVerifications = append(resp.RecentVerifications, recentVerification{
			CodeID:     l.CodeID,
			VerifiedAt: unix(l.VerifiedAt),
			VerifiedBy: l.VerifiedBy,
			Result:     l.Result,
		})
	}
	c.JSON(http.StatusOK, resp)
}
