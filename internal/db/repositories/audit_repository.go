package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pfeak/codegate/internal/db/models"
)

// AuditRepository handles admin audit log database operations.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters narrows List queries.
type AuditFilters struct {
	AdminID      string
	Action       string
	ResourceType string
}

// Create inserts an audit entry, serializing details to JSONB.
func (r *AuditRepository) Create(ctx context.Context, e *models.AuditLog, now time.Time) error {
	e.ID = newID()
	e.CreatedAt = now

	var details []byte
	if e.Details != nil {
		var err error
		details, err = json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshaling audit details: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, admin_id, action, resource_type, resource_id, result, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.AdminID, e.Action, e.ResourceType, e.ResourceID, e.Result, details, e.IPAddress, e.CreatedAt)
	return err
}

// List retrieves audit entries matching the filters, newest first, plus the
// total count for pagination.
func (r *AuditRepository) List(ctx context.Context, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	n := 1

	if filters.AdminID != "" {
		where += fmt.Sprintf(` AND admin_id = $%d`, n)
		args = append(args, filters.AdminID)
		n++
	}
	if filters.Action != "" {
		where += fmt.Sprintf(` AND action = $%d`, n)
		args = append(args, filters.Action)
		n++
	}
	if filters.ResourceType != "" {
		where += fmt.Sprintf(` AND resource_type = $%d`, n)
		args = append(args, filters.ResourceType)
		n++
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM audit_logs `+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT id, admin_id, action, resource_type, resource_id, result, details, ip_address, created_at
		FROM audit_logs `+where+` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, n, n+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []*models.AuditLog{}
	for rows.Next() {
		var e models.AuditLog
		var details []byte
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.Result, &details, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, 0, err
			}
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}
