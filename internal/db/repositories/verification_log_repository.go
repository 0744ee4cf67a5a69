package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pfeak/codegate/internal/db/models"
)

// VerificationLogRepository handles verification log database operations.
type VerificationLogRepository struct {
	db *sqlx.DB
}

// NewVerificationLogRepository creates a new VerificationLogRepository.
func NewVerificationLogRepository(db *sqlx.DB) *VerificationLogRepository {
	return &VerificationLogRepository{db: db}
}

const logColumns = `id, code_id, verified_at, verified_by, ip_address, user_agent, result, reason`

// LogFilters narrows List queries. ProjectID filters through the code's
// project since log rows reference codes, not projects.
type LogFilters struct {
	ProjectID string
	CodeID    string
	Result    string
}

// Create inserts a log entry outside any transaction.
func (r *VerificationLogRepository) Create(ctx context.Context, l *models.VerificationLog) error {
	return createLog(ctx, r.db, l)
}

// CreateTx inserts a log entry inside tx, so the log commits or rolls back
// together with the state change it records.
func (r *VerificationLogRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, l *models.VerificationLog) error {
	return createLog(ctx, tx, l)
}

func createLog(ctx context.Context, e sqlx.ExtContext, l *models.VerificationLog) error {
	l.ID = newID()
	_, err := e.ExecContext(ctx, `
		INSERT INTO verification_logs (`+logColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.CodeID, l.VerifiedAt, l.VerifiedBy, l.IPAddress, l.UserAgent, l.Result, l.Reason)
	return err
}

// List retrieves log entries matching the filters, newest first, plus the
// total count for pagination.
func (r *VerificationLogRepository) List(ctx context.Context, filters LogFilters, limit, offset int) ([]*models.VerificationLog, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	n := 1

	if filters.ProjectID != "" {
		where += fmt.Sprintf(` AND l.code_id IN (SELECT id FROM invitation_codes WHERE project_id = $%d)`, n)
		args = append(args, filters.ProjectID)
		n++
	}
	if filters.CodeID != "" {
		where += fmt.Sprintf(` AND l.code_id = $%d`, n)
		args = append(args, filters.CodeID)
		n++
	}
	if filters.Result != "" {
		where += fmt.Sprintf(` AND l.result = $%d`, n)
		args = append(args, filters.Result)
		n++
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM verification_logs l `+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT l.id, l.code_id, l.verified_at, l.verified_by, l.ip_address,
		l.user_agent, l.result, l.reason
		FROM verification_logs l `+where+
		` ORDER BY l.verified_at DESC, l.id LIMIT $%d OFFSET $%d`, n, n+1)
	args = append(args, limit, offset)

	logs := []*models.VerificationLog{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// RecentByProject returns the latest entries for one project, used by the
// project detail view.
func (r *VerificationLogRepository) RecentByProject(ctx context.Context, projectID string, limit int) ([]*models.VerificationLog, error) {
	logs := []*models.VerificationLog{}
	err := r.db.SelectContext(ctx, &logs, `
		SELECT l.id, l.code_id, l.verified_at, l.verified_by, l.ip_address,
		       l.user_agent, l.result, l.reason
		FROM verification_logs l
		JOIN invitation_codes c ON c.id = l.code_id
		WHERE c.project_id = $1
		ORDER BY l.verified_at DESC, l.id
		LIMIT $2`,
		projectID, limit)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
