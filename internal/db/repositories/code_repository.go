// code_repository.go implements CodeRepository: persistence for activation
// codes, including the transactional compare-and-swap paths used by the
// verification engine and the scoped bulk updates behind batch disable and
// the expiry sweep.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pfeak/codegate/internal/db/models"
)

// CodeRepository handles invitation code database operations.
type CodeRepository struct {
	db *sqlx.DB
}

// NewCodeRepository creates a new CodeRepository.
func NewCodeRepository(db *sqlx.DB) *CodeRepository {
	return &CodeRepository{db: db}
}

const codeColumns = `id, project_id, code, status, is_disabled, is_expired, expires_at, verified_at, verified_by, created_at`

// CodeFilters narrows List queries.
type CodeFilters struct {
	ProjectID  string
	Status     *bool
	IsDisabled *bool
	IsExpired  *bool
	Search     string // substring match on the code string
}

// ApplyStatus translates a named state filter into the flag triple. "used"
// and "unused" exclude disabled and expired codes; "disabled" and "expired"
// match the flag alone. Unknown names leave the filters untouched.
func (f *CodeFilters) ApplyStatus(name string) {
	t, fa := true, false
	switch name {
	case "unused":
		f.Status, f.IsDisabled, f.IsExpired = &fa, &fa, &fa
	case "used":
		f.Status, f.IsDisabled, f.IsExpired = &t, &fa, &fa
	case "disabled":
		f.IsDisabled = &t
	case "expired":
		f.IsExpired = &t
	}
}

// BatchDisableFilter scopes BatchDisable and CountBatchDisable. Both
// operations share buildBatchDisableWhere so the count preview can never
// drift from the applied update.
type BatchDisableFilter struct {
	ProjectID string
	Search    string
}

// CreateBatch inserts the given codes in a single multi-row INSERT. IDs and
// creation timestamps are assigned here.
func (r *CodeRepository) CreateBatch(ctx context.Context, codes []*models.InvitationCode, now time.Time) error {
	if len(codes) == 0 {
		return nil
	}

	query := `INSERT INTO invitation_codes (` + codeColumns + `) VALUES `
	args := make([]interface{}, 0, len(codes)*10)
	for i, c := range codes {
		c.ID = newID()
		c.CreatedAt = now
		if i > 0 {
			query += ", "
		}
		base := i * 10
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10)
		args = append(args, c.ID, c.ProjectID, c.Code, c.Status, c.IsDisabled, c.IsExpired,
			c.ExpiresAt, c.VerifiedAt, c.VerifiedBy, c.CreatedAt)
	}

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a code by its opaque ID. Returns nil when absent.
func (r *CodeRepository) GetByID(ctx context.Context, id string) (*models.InvitationCode, error) {
	var code models.InvitationCode
	err := r.db.GetContext(ctx, &code,
		`SELECT `+codeColumns+` FROM invitation_codes WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// GetByCode retrieves a code by its code string. Returns nil when absent.
func (r *CodeRepository) GetByCode(ctx context.Context, codeStr string) (*models.InvitationCode, error) {
	var code models.InvitationCode
	err := r.db.GetContext(ctx, &code,
		`SELECT `+codeColumns+` FROM invitation_codes WHERE code = $1`, codeStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// GetByCodeForUpdate retrieves a code by string inside tx with a row lock, so
// concurrent verifications of the same code serialize on the storage layer.
func (r *CodeRepository) GetByCodeForUpdate(ctx context.Context, tx *sqlx.Tx, codeStr string) (*models.InvitationCode, error) {
	var code models.InvitationCode
	err := tx.GetContext(ctx, &code,
		`SELECT `+codeColumns+` FROM invitation_codes WHERE code = $1 FOR UPDATE`, codeStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// List retrieves codes matching the filters, newest first, plus the total
// count for pagination.
func (r *CodeRepository) List(ctx context.Context, filters CodeFilters, limit, offset int) ([]*models.InvitationCode, int, error) {
	where := `WHERE project_id = $1`
	args := []interface{}{filters.ProjectID}
	n := 2

	if filters.Status != nil {
		where += fmt.Sprintf(` AND status = $%d`, n)
		args = append(args, *filters.Status)
		n++
	}
	if filters.IsDisabled != nil {
		where += fmt.Sprintf(` AND is_disabled = $%d`, n)
		args = append(args, *filters.IsDisabled)
		n++
	}
	if filters.IsExpired != nil {
		where += fmt.Sprintf(` AND is_expired = $%d`, n)
		args = append(args, *filters.IsExpired)
		n++
	}
	if filters.Search != "" {
		where += fmt.Sprintf(` AND code LIKE $%d`, n)
		args = append(args, "%"+filters.Search+"%")
		n++
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM invitation_codes `+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+codeColumns+` FROM invitation_codes `+where+
		` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, n, n+1)
	args = append(args, limit, offset)

	codes := []*models.InvitationCode{}
	if err := r.db.SelectContext(ctx, &codes, query, args...); err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

// ExistingCodes returns the set of code strings already issued for a project,
// used by the generator as its exclusion set.
func (r *CodeRepository) ExistingCodes(ctx context.Context, projectID string) (map[string]struct{}, error) {
	var codes []string
	err := r.db.SelectContext(ctx, &codes,
		`SELECT code FROM invitation_codes WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set, nil
}

// Update persists the mutable fields of a code.
func (r *CodeRepository) Update(ctx context.Context, code *models.InvitationCode) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE invitation_codes
		SET status = $2, is_disabled = $3, is_expired = $4, expires_at = $5,
		    verified_at = $6, verified_by = $7
		WHERE id = $1`,
		code.ID, code.Status, code.IsDisabled, code.IsExpired, code.ExpiresAt,
		code.VerifiedAt, code.VerifiedBy)
	return err
}

// SetExpiredFlag persists a lazily recomputed is_expired value. The unused
// guard keeps the write from ever violating the state-exclusion constraints
// when racing a concurrent verification.
func (r *CodeRepository) SetExpiredFlag(ctx context.Context, id string, expired bool) error {
	return setExpiredFlag(ctx, r.db, id, expired)
}

// SetExpiredFlagTx is SetExpiredFlag inside tx, used when the verification
// pipeline refreshes the flag on the locked row.
func (r *CodeRepository) SetExpiredFlagTx(ctx context.Context, tx *sqlx.Tx, id string, expired bool) error {
	return setExpiredFlag(ctx, tx, id, expired)
}

func setExpiredFlag(ctx context.Context, e sqlx.ExtContext, id string, expired bool) error {
	_, err := e.ExecContext(ctx, `
		UPDATE invitation_codes
		SET is_expired = $2
		WHERE id = $1 AND status = FALSE AND is_disabled = FALSE`,
		id, expired)
	return err
}

// MarkVerified flips an unused code to used inside tx. The WHERE clause is a
// compare-and-swap on all three state flags: it reports false when another
// transaction won the race or the state changed since it was read, in which
// case nothing was written.
func (r *CodeRepository) MarkVerified(ctx context.Context, tx *sqlx.Tx, id string, at time.Time, by *string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE invitation_codes
		SET status = TRUE, verified_at = $2, verified_by = $3
		WHERE id = $1 AND status = FALSE AND is_disabled = FALSE AND is_expired = FALSE`,
		id, at, by)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// MarkReactivated flips a used code back to unused inside tx, clearing the
// redemption fields and leaving expires_at untouched. CAS on status = TRUE.
func (r *CodeRepository) MarkReactivated(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE invitation_codes
		SET status = FALSE, verified_at = NULL, verified_by = NULL
		WHERE id = $1 AND status = TRUE`,
		id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Delete removes one code (verification logs cascade). Reports whether a row
// was deleted.
func (r *CodeRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invitation_codes WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// DeleteBatch removes codes by ID and returns how many were deleted.
func (r *CodeRepository) DeleteBatch(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM invitation_codes WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// buildBatchDisableWhere is the single definition of the batch-disable
// predicate: unused, enabled, unexpired codes of the project, optionally
// narrowed by a code substring. CountBatchDisable and BatchDisable both call
// it, so the preview and the apply can never diverge.
func buildBatchDisableWhere(f BatchDisableFilter) (string, []interface{}) {
	where := `WHERE project_id = $1 AND status = FALSE AND is_disabled = FALSE AND is_expired = FALSE`
	args := []interface{}{f.ProjectID}
	if f.Search != "" {
		where += ` AND code LIKE $2`
		args = append(args, "%"+f.Search+"%")
	}
	return where, args
}

// CountBatchDisable reports how many codes BatchDisable would affect.
func (r *CodeRepository) CountBatchDisable(ctx context.Context, f BatchDisableFilter) (int64, error) {
	where, args := buildBatchDisableWhere(f)
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM invitation_codes `+where, args...)
	return count, err
}

// BatchDisable disables every code matching the filter in one scoped UPDATE.
// Idempotent: already-disabled codes no longer match the predicate.
func (r *CodeRepository) BatchDisable(ctx context.Context, f BatchDisableFilter) (int64, error) {
	where, args := buildBatchDisableWhere(f)
	res, err := r.db.ExecContext(ctx, `UPDATE invitation_codes SET is_disabled = TRUE `+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SweepExpire marks lapsed unused codes as expired: codes whose effective
// expiry (own, or the project's when the code has none) lies before now.
// Used and disabled codes are excluded so the state-exclusion constraints
// hold by construction.
func (r *CodeRepository) SweepExpire(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitation_codes c
		SET is_expired = TRUE
		FROM projects p
		WHERE c.project_id = p.id
		  AND c.is_expired = FALSE AND c.status = FALSE AND c.is_disabled = FALSE
		  AND (
		        (c.expires_at IS NOT NULL AND c.expires_at < $1)
		     OR (c.expires_at IS NULL AND p.expires_at IS NOT NULL AND p.expires_at < $1)
		  )`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SweepUnexpire clears is_expired on codes whose effective expiry moved back
// into the future (an extended project or code deadline).
func (r *CodeRepository) SweepUnexpire(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitation_codes c
		SET is_expired = FALSE
		FROM projects p
		WHERE c.project_id = p.id
		  AND c.is_expired = TRUE
		  AND (
		        (c.expires_at IS NOT NULL AND c.expires_at >= $1)
		     OR (c.expires_at IS NULL AND (p.expires_at IS NULL OR p.expires_at >= $1))
		  )`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
