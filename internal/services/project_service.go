package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/models"
	"github.com/pfeak/codegate/internal/db/repositories"
)

// maxProjectNameLen matches the projects.name column width.
const maxProjectNameLen = 100

// ProjectService implements project lifecycle management.
type ProjectService struct {
	projects *repositories.ProjectRepository
	clock    clock.Clock
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projects *repositories.ProjectRepository, clk clock.Clock) *ProjectService {
	return &ProjectService{projects: projects, clock: clk}
}

// CreateProjectInput describes a new project.
type CreateProjectInput struct {
	Name        string
	Description *string
	ExpiresAt   *time.Time
}

// UpdateProjectInput carries a partial project update. SetExpiresAt
// distinguishes "leave expires_at alone" from "clear it".
type UpdateProjectInput struct {
	Name         *string
	Description  *string
	Status       *bool
	SetExpiresAt bool
	ExpiresAt    *time.Time
}

// ProjectWithStats bundles a project with its aggregated code counts.
type ProjectWithStats struct {
	*models.Project
	Stats *repositories.CodeStats `json:"stats"`
}

// Create creates a project. Names are unique across the instance.
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxProjectNameLen {
		return nil, fmt.Errorf("%w: project name must be at most %d characters", ErrValidation, maxProjectNameLen)
	}

	p := &models.Project{
		Name:        name,
		Description: in.Description,
		Status:      true,
		ExpiresAt:   in.ExpiresAt,
	}
	if err := s.projects.Create(ctx, p, s.clock.Now()); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, ErrProjectAlreadyExists
		}
		return nil, err
	}
	return p, nil
}

// Get retrieves one project.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

// GetWithStats retrieves one project together with its code state counts.
func (s *ProjectService) GetWithStats(ctx context.Context, id string) (*ProjectWithStats, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.projects.GetCodeStats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProjectWithStats{Project: p, Stats: stats}, nil
}

// List retrieves a project page with an optional name search.
func (s *ProjectService) List(ctx context.Context, search string, limit, offset int) ([]*models.Project, int, error) {
	return s.projects.List(ctx, search, limit, offset)
}

// Update applies a partial update to a project.
func (s *ProjectService) Update(ctx context.Context, id string, in UpdateProjectInput) (*models.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: project name is required", ErrValidation)
		}
		if utf8.RuneCountInString(name) > maxProjectNameLen {
			return nil, fmt.Errorf("%w: project name must be at most %d characters", ErrValidation, maxProjectNameLen)
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.SetExpiresAt {
		p.ExpiresAt = in.ExpiresAt
	}

	if err := s.projects.Update(ctx, p); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, ErrProjectAlreadyExists
		}
		return nil, err
	}
	return p, nil
}

// Delete removes a project and, through cascades, its codes, logs, and keys.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	deleted, err := s.projects.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrProjectNotFound
	}
	return nil
}

// DashboardStats returns the global counters for the admin dashboard.
func (s *ProjectService) DashboardStats(ctx context.Context) (*repositories.DashboardStats, error) {
	return s.projects.GetDashboardStats(ctx)
}
