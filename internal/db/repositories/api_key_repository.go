package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pfeak/codegate/internal/db/models"
)

// APIKeyRepository handles API key database operations.
type APIKeyRepository struct {
	db *sqlx.DB
}

// NewAPIKeyRepository creates a new APIKeyRepository.
func NewAPIKeyRepository(db *sqlx.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

const apiKeyColumns = `id, project_id, api_key, secret, name, is_active, last_used_at, created_by, created_at`

// Create inserts a new API key, assigning its ID and creation time.
func (r *APIKeyRepository) Create(ctx context.Context, k *models.APIKey, now time.Time) error {
	k.ID = newID()
	k.CreatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (`+apiKeyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		k.ID, k.ProjectID, k.APIKey, k.Secret, k.Name, k.IsActive, k.LastUsedAt, k.CreatedBy, k.CreatedAt)
	return err
}

// GetByKey retrieves an active API key by its public key string. Inactive
// keys are invisible to SDK authentication. Returns nil when absent.
func (r *APIKeyRepository) GetByKey(ctx context.Context, apiKey string) (*models.APIKey, error) {
	var k models.APIKey
	err := r.db.GetContext(ctx, &k,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE api_key = $1 AND is_active = TRUE`, apiKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// GetByID retrieves an API key by ID regardless of active state. Returns nil
// when absent.
func (r *APIKeyRepository) GetByID(ctx context.Context, id string) (*models.APIKey, error) {
	var k models.APIKey
	err := r.db.GetContext(ctx, &k,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// GetByProject lists the keys of one project, newest first.
func (r *APIKeyRepository) GetByProject(ctx context.Context, projectID string) ([]*models.APIKey, error) {
	keys := []*models.APIKey{}
	err := r.db.SelectContext(ctx, &keys,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE project_id = $1 ORDER BY created_at DESC, id`,
		projectID)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// SetActive toggles a key on or off. Reports whether a row was updated.
func (r *APIKeyRepository) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Delete removes one key. Reports whether a row was deleted.
func (r *APIKeyRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// TouchLastUsed records an authentication with this key. Best-effort; the
// caller may ignore the error.
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, now)
	return err
}
