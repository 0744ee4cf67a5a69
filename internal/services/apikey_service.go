package services

import (
	"context"

	"github.com/pfeak/codegate/internal/auth"
	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/models"
	"github.com/pfeak/codegate/internal/db/repositories"
)

// APIKeyService manages SDK credentials. Each project carries at most one
// active credential pair; generating a new one deletes the old.
type APIKeyService struct {
	keys     *repositories.APIKeyRepository
	projects *repositories.ProjectRepository
	clock    clock.Clock
	prefix   string
}

// NewAPIKeyService creates a new APIKeyService. prefix is prepended to every
// generated public key.
func NewAPIKeyService(keys *repositories.APIKeyRepository, projects *repositories.ProjectRepository, clk clock.Clock, prefix string) *APIKeyService {
	return &APIKeyService{keys: keys, projects: projects, clock: clk, prefix: prefix}
}

// GeneratedKey is returned once at creation; the secret is never shown again.
type GeneratedKey struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	APIKey    string `json:"api_key"`
	Secret    string `json:"secret"`
}

// Generate creates a fresh credential pair for a project, rotating out any
// existing keys.
func (s *APIKeyService) Generate(ctx context.Context, projectID string, name, createdBy *string) (*GeneratedKey, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	existing, err := s.keys.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, old := range existing {
		if _, err := s.keys.Delete(ctx, old.ID); err != nil {
			return nil, err
		}
	}

	key, secret, err := auth.GenerateAPIKey(s.prefix)
	if err != nil {
		return nil, err
	}

	k := &models.APIKey{
		ProjectID: projectID,
		APIKey:    key,
		Secret:    secret,
		Name:      name,
		IsActive:  true,
		CreatedBy: createdBy,
	}
	if err := s.keys.Create(ctx, k, s.clock.Now()); err != nil {
		return nil, err
	}

	return &GeneratedKey{ID: k.ID, ProjectID: projectID, APIKey: key, Secret: secret}, nil
}

// List returns the keys of one project; secrets stay server-side (the model
// never serializes them).
func (s *APIKeyService) List(ctx context.Context, projectID string) ([]*models.APIKey, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return s.keys.GetByProject(ctx, projectID)
}

// SetActive toggles a key.
func (s *APIKeyService) SetActive(ctx context.Context, id string, active bool) error {
	updated, err := s.keys.SetActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !updated {
		return ErrAPIKeyNotFound
	}
	return nil
}

// Delete removes a key.
func (s *APIKeyService) Delete(ctx context.Context, id string) error {
	deleted, err := s.keys.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAPIKeyNotFound
	}
	return nil
}

// Authenticate resolves an active key by its public string and stamps its
// last_used_at. Returns nil without error when the key is unknown or
// inactive.
func (s *APIKeyService) Authenticate(ctx context.Context, apiKey string) (*models.APIKey, error) {
	k, err := s.keys.GetByKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, nil
	}
	// Best effort; authentication already succeeded.
	_ = s.keys.TouchLastUsed(ctx, k.ID, s.clock.Now())
	return k, nil
}
