package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/services"
)

// DashboardHandlers serves the console overview counts.
type DashboardHandlers struct {
	projects *services.ProjectService
}

// NewDashboardHandlers creates a new DashboardHandlers.
func NewDashboardHandlers(projects *services.ProjectService) *DashboardHandlers {
	return &DashboardHandlers{projects: projects}
}

// Overview returns instance-wide totals: projects, codes, used codes, and
// verification log entries.
// GET /api/dashboard/overview
func (h *DashboardHandlers) Overview(c *gin.Context) {
	stats, err := h.projects.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
