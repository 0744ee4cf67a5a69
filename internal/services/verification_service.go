package services

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/models"
	"github.com/pfeak/codegate/internal/db/repositories"
	"github.com/pfeak/codegate/internal/telemetry"
)

// VerificationService implements code redemption and reactivation. Each
// attempt runs in one database transaction: the code row is locked, the
// checks run in a fixed order, the state change is a compare-and-swap, and
// the log row commits together with the mutation. Exactly one log row is
// written per attempt, except a lookup miss, which has no code row to
// reference.
type VerificationService struct {
	db       *sqlx.DB
	codes    *repositories.CodeRepository
	projects *repositories.ProjectRepository
	logs     *repositories.VerificationLogRepository
	clock    clock.Clock
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(
	db *sqlx.DB,
	codes *repositories.CodeRepository,
	projects *repositories.ProjectRepository,
	logs *repositories.VerificationLogRepository,
	clk clock.Clock,
) *VerificationService {
	return &VerificationService{db: db, codes: codes, projects: projects, logs: logs, clock: clk}
}

// VerifyInput carries the redemption request context. A non-empty ProjectID
// scopes the lookup: codes belonging to other projects behave as not found,
// so one project's credentials cannot probe another's codes.
type VerifyInput struct {
	Code       string
	ProjectID  string
	VerifiedBy *string
	IPAddress  *string
	UserAgent  *string
}

// ReactivateInput carries the reactivation request context. ProjectID scopes
// the lookup the same way as VerifyInput.ProjectID.
type ReactivateInput struct {
	Code          string
	ProjectID     string
	ReactivatedBy *string
	Reason        *string
	IPAddress     *string
	UserAgent     *string
}

// Verify redeems a code. The checks run in order: lookup, code disabled, code
// already used, code expired (recomputed against the effective expiry inside
// the transaction), project disabled, project expired. On success the code is
// flipped to used with verified_at/verified_by set. Business rejections
// return the matching sentinel error; the failure log row is still committed.
func (s *VerificationService) Verify(ctx context.Context, in VerifyInput) (*models.InvitationCode, error) {
	code, err := s.verify(ctx, in)
	telemetry.VerificationsTotal.WithLabelValues(verifyOutcome(err)).Inc()
	return code, err
}

func (s *VerificationService) verify(ctx context.Context, in VerifyInput) (*models.InvitationCode, error) {
	now := s.clock.Now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning verification transaction: %w", err)
	}
	defer tx.Rollback()

	code, err := s.codes.GetByCodeForUpdate(ctx, tx, in.Code)
	if err != nil {
		return nil, err
	}
	if code == nil {
		// No code row to reference, so no log row either.
		return nil, ErrCodeNotFound
	}
	if in.ProjectID != "" && code.ProjectID != in.ProjectID {
		return nil, ErrCodeNotFound
	}

	project, err := s.projects.GetByID(ctx, code.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrCodeNotFound
	}

	fail := func(reason string, cause error) (*models.InvitationCode, error) {
		if logErr := s.logAttempt(ctx, tx, code, in, models.VerificationResultFailed, reason); logErr != nil {
			return nil, logErr
		}
		if commitErr := tx.Commit(); commitErr != nil {
			return nil, commitErr
		}
		return nil, cause
	}

	if code.IsDisabled {
		return fail("code is disabled", ErrCodeDisabled)
	}
	if code.Status {
		return fail("code already used", ErrCodeAlreadyVerified)
	}

	// Lazy expiry refresh on the locked row: the stored flag may be stale in
	// either direction until the sweeper runs.
	expired := code.ComputeExpired(project.ExpiresAt, now)
	if expired != code.IsExpired {
		if err := s.codes.SetExpiredFlagTx(ctx, tx, code.ID, expired); err != nil {
			return nil, err
		}
		code.IsExpired = expired
	}
	if code.IsExpired {
		return fail("code expired", ErrCodeExpired)
	}

	if !project.Status {
		return fail("project is disabled", ErrProjectDisabled)
	}
	if project.IsExpired(now) {
		return fail("project expired", ErrProjectExpired)
	}

	won, err := s.codes.MarkVerified(ctx, tx, code.ID, now, in.VerifiedBy)
	if err != nil {
		return nil, err
	}
	if !won {
		return fail("code already used", ErrCodeAlreadyVerified)
	}

	if err := s.logAttempt(ctx, tx, code, in, models.VerificationResultSuccess, ""); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	code.Status = true
	code.VerifiedAt = &now
	code.VerifiedBy = in.VerifiedBy
	return code, nil
}

// Reactivate returns a used code to the unused pool. Preconditions in order:
// the code must be used, not disabled, and not expired. verified_at and
// verified_by are cleared; expires_at is untouched, so an expired window
// still blocks reuse.
func (s *VerificationService) Reactivate(ctx context.Context, in ReactivateInput) (*models.InvitationCode, error) {
	code, err := s.reactivate(ctx, in)
	telemetry.ReactivationsTotal.WithLabelValues(verifyOutcome(err)).Inc()
	return code, err
}

func (s *VerificationService) reactivate(ctx context.Context, in ReactivateInput) (*models.InvitationCode, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning reactivation transaction: %w", err)
	}
	defer tx.Rollback()

	code, err := s.codes.GetByCodeForUpdate(ctx, tx, in.Code)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, ErrCodeNotFound
	}
	if in.ProjectID != "" && code.ProjectID != in.ProjectID {
		return nil, ErrCodeNotFound
	}

	if !code.Status {
		return nil, ErrCodeAlreadyUnused
	}
	if code.IsDisabled {
		return nil, ErrCodeDisabled
	}
	if code.IsExpired {
		return nil, ErrCodeExpired
	}

	won, err := s.codes.MarkReactivated(ctx, tx, code.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrCodeAlreadyUnused
	}

	reason := reactivationReason(code, in.Reason)
	verifyIn := VerifyInput{VerifiedBy: in.ReactivatedBy, IPAddress: in.IPAddress, UserAgent: in.UserAgent}
	if err := s.logAttempt(ctx, tx, code, verifyIn, models.VerificationResultReactivated, reason); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	code.Status = false
	code.VerifiedAt = nil
	code.VerifiedBy = nil
	return code, nil
}

// reactivationReason captures who had redeemed the code and when, plus the
// caller-supplied reason, in the log row.
func reactivationReason(code *models.InvitationCode, callerReason *string) string {
	reason := "reactivated"
	if code.VerifiedBy != nil {
		reason += fmt.Sprintf("; previously verified by %s", *code.VerifiedBy)
	}
	if code.VerifiedAt != nil {
		reason += fmt.Sprintf(" at %s", code.VerifiedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if callerReason != nil && *callerReason != "" {
		reason += fmt.Sprintf("; reason: %s", *callerReason)
	}
	return reason
}

func (s *VerificationService) logAttempt(ctx context.Context, tx *sqlx.Tx, code *models.InvitationCode, in VerifyInput, result, reason string) error {
	l := &models.VerificationLog{
		CodeID:     code.ID,
		VerifiedAt: s.clock.Now(),
		VerifiedBy: in.VerifiedBy,
		IPAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
		Result:     result,
	}
	if reason != "" {
		l.Reason = &reason
	}
	return s.logs.CreateTx(ctx, tx, l)
}

func verifyOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if code := ErrorCode(err); code != "" {
		return code
	}
	return "error"
}
