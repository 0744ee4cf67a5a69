package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pfeak/codegate/internal/db/models"
)

// ProjectRepository handles project database operations.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, name, description, status, expires_at, created_at`

// CodeStats aggregates the per-state code counts of one project.
type CodeStats struct {
	Total    int `db:"total" json:"total"`
	Used     int `db:"used" json:"used"`
	Unused   int `db:"unused" json:"unused"`
	Disabled int `db:"disabled" json:"disabled"`
	Expired  int `db:"expired" json:"expired"`
}

// DashboardStats is the cross-project summary shown on the admin dashboard.
type DashboardStats struct {
	Projects      int `db:"projects" json:"projects"`
	Codes         int `db:"codes" json:"codes"`
	UsedCodes     int `db:"used_codes" json:"used_codes"`
	Verifications int `db:"verifications" json:"verifications"`
}

// Create inserts a new project, assigning its ID and creation time.
func (r *ProjectRepository) Create(ctx context.Context, p *models.Project, now time.Time) error {
	p.ID = newID()
	p.CreatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Description, p.Status, p.ExpiresAt, p.CreatedAt)
	return err
}

// GetByID retrieves a project by ID. Returns nil when absent.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	err := r.db.GetContext(ctx, &p,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByName retrieves a project by its unique name. Returns nil when absent.
func (r *ProjectRepository) GetByName(ctx context.Context, name string) (*models.Project, error) {
	var p models.Project
	err := r.db.GetContext(ctx, &p,
		`SELECT `+projectColumns+` FROM projects WHERE name = $1`, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List retrieves projects newest first with an optional name substring
// filter, plus the total count for pagination.
func (r *ProjectRepository) List(ctx context.Context, search string, limit, offset int) ([]*models.Project, int, error) {
	where := ""
	args := []interface{}{}
	n := 1
	if search != "" {
		where = fmt.Sprintf(`WHERE name LIKE $%d`, n)
		args = append(args, "%"+search+"%")
		n++
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM projects `+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+projectColumns+` FROM projects `+where+
		` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, n, n+1)
	args = append(args, limit, offset)

	projects := []*models.Project{}
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update persists the mutable fields of a project.
func (r *ProjectRepository) Update(ctx context.Context, p *models.Project) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET name = $2, description = $3, status = $4, expires_at = $5
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Status, p.ExpiresAt)
	return err
}

// Delete removes a project; codes, logs, and API keys cascade. Reports
// whether a row was deleted.
func (r *ProjectRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// GetCodeStats aggregates code state counts for one project.
func (r *ProjectRepository) GetCodeStats(ctx context.Context, projectID string) (*CodeStats, error) {
	var stats CodeStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status) AS used,
		       COUNT(*) FILTER (WHERE NOT status AND NOT is_disabled AND NOT is_expired) AS unused,
		       COUNT(*) FILTER (WHERE is_disabled) AS disabled,
		       COUNT(*) FILTER (WHERE is_expired) AS expired
		FROM invitation_codes
		WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetDashboardStats aggregates the global counters for the admin dashboard.
func (r *ProjectRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT (SELECT COUNT(*) FROM projects) AS projects,
		       (SELECT COUNT(*) FROM invitation_codes) AS codes,
		       (SELECT COUNT(*) FROM invitation_codes WHERE status) AS used_codes,
		       (SELECT COUNT(*) FROM verification_logs) AS verifications`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// CountExpiredBefore reports how many projects DeleteExpiredBefore would
// remove for the given cutoff.
func (r *ProjectRepository) CountExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM projects WHERE expires_at IS NOT NULL AND expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteExpiredBefore removes projects whose expiry lapsed before the cutoff.
// Cascades take the codes, logs, and keys with them. Returns how many
// projects were removed.
func (r *ProjectRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE expires_at IS NOT NULL AND expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
