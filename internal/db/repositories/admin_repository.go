package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pfeak/codegate/internal/db/models"
)

// AdminRepository handles admin account database operations.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

const adminColumns = `id, username, password_hash, is_initial_password, created_at, last_login_at`

// Create inserts a new admin account.
func (r *AdminRepository) Create(ctx context.Context, a *models.Admin, now time.Time) error {
	a.ID = newID()
	a.CreatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (`+adminColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Username, a.PasswordHash, a.IsInitialPassword, a.CreatedAt, a.LastLoginAt)
	return err
}

// GetByUsername retrieves an admin by username. Returns nil when absent.
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var a models.Admin
	err := r.db.GetContext(ctx, &a,
		`SELECT `+adminColumns+` FROM admins WHERE username = $1`, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an admin by ID. Returns nil when absent.
func (r *AdminRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	var a models.Admin
	err := r.db.GetContext(ctx, &a,
		`SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdatePassword replaces the stored password hash and clears the initial
// password marker.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admins SET password_hash = $2, is_initial_password = FALSE WHERE id = $1`, id, passwordHash)
	return err
}

// TouchLastLogin records a successful login.
func (r *AdminRepository) TouchLastLogin(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admins SET last_login_at = $2 WHERE id = $1`, id, now)
	return err
}

// Count returns the number of admin accounts, used at startup to decide
// whether to bootstrap the initial admin.
func (r *AdminRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM admins`)
	return count, err
}
