// projects.go implements project CRUD for the admin console.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/services"
)

// ProjectHandlers serves the /api/projects endpoints.
type ProjectHandlers struct {
	projects *services.ProjectService
}

// NewProjectHandlers creates a new ProjectHandlers.
func NewProjectHandlers(projects *services.ProjectService) *ProjectHandlers {
	return &ProjectHandlers{projects: projects}
}

// List returns a paginated project listing, optionally filtered by a name
// substring.
// GET /api/projects
func (h *ProjectHandlers) List(c *gin.Context) {
	p := parsePagination(c)
	projects, total, err := h.projects.List(c.Request.Context(), c.Query("search"), p.Limit(), p.Offset())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Total: total, Page: p.Page, PageSize: p.PageSize, Items: projects})
}

type createProjectRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	ExpiresAt   *int64  `json:"expires_at"`
}

// Create creates a project.
// POST /api/projects
func (h *ProjectHandlers) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	project, err := h.projects.Create(c.Request.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		ExpiresAt:   parseTimestamp(req.ExpiresAt),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// Get returns one project with its code statistics.
// GET /api/projects/:project_id
func (h *ProjectHandlers) Get(c *gin.Context) {
	project, err := h.projects.GetWithStats(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *bool   `json:"status"`
	// ExpiresAt null with SetExpiresAt true clears the project expiry.
	SetExpiresAt bool   `json:"set_expires_at"`
	ExpiresAt    *int64 `json:"expires_at"`
}

// Update applies a partial project update.
// PUT /api/projects/:project_id
func (h *ProjectHandlers) Update(c *gin.Context) {
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	project, err := h.projects.Update(c.Request.Context(), c.Param("project_id"), services.UpdateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		SetExpiresAt: req.SetExpiresAt || req.ExpiresAt != nil,
		ExpiresAt:    parseTimestamp(req.ExpiresAt),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Delete removes a project and, through cascades, its codes, logs, and keys.
// DELETE /api/projects/:project_id
func (h *ProjectHandlers) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), c.Param("project_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
