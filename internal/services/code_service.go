package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/models"
	"github.com/pfeak/codegate/internal/db/repositories"
	"github.com/pfeak/codegate/internal/telemetry"
	"github.com/pfeak/codegate/pkg/codegen"
)

// MaxBatchDelete caps how many code IDs one batch delete may carry.
const MaxBatchDelete = 1000

// CodeService implements code lifecycle management: batch generation,
// listing, updates, disabling, and deletion. Redemption lives in
// VerificationService.
type CodeService struct {
	codes    *repositories.CodeRepository
	projects *repositories.ProjectRepository
	clock    clock.Clock
}

// NewCodeService creates a new CodeService.
func NewCodeService(codes *repositories.CodeRepository, projects *repositories.ProjectRepository, clk clock.Clock) *CodeService {
	return &CodeService{codes: codes, projects: projects, clock: clk}
}

// GenerateInput describes one batch generation request.
type GenerateInput struct {
	ProjectID string
	Count     int
	Length    int
	Prefix    string
	Suffix    string
	ExpiresAt *time.Time
}

// UpdateCodeInput carries a partial code update. SetExpiresAt distinguishes
// "leave expires_at alone" from "clear it" (ExpiresAt nil with SetExpiresAt
// true clears the per-code expiry, falling back to the project's).
type UpdateCodeInput struct {
	SetExpiresAt bool
	ExpiresAt    *time.Time
	Disabled     *bool
}

// Generate creates a batch of unique codes for a project, excluding every
// code string the project already has.
func (s *CodeService) Generate(ctx context.Context, in GenerateInput) ([]*models.InvitationCode, error) {
	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	existing, err := s.codes.ExistingCodes(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	strs, err := codegen.Generate(codegen.Options{
		Count:    in.Count,
		Length:   in.Length,
		Prefix:   in.Prefix,
		Suffix:   in.Suffix,
		Existing: existing,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	now := s.clock.Now()
	codes := make([]*models.InvitationCode, len(strs))
	for i, str := range strs {
		codes[i] = &models.InvitationCode{
			ProjectID: in.ProjectID,
			Code:      str,
			ExpiresAt: in.ExpiresAt,
		}
		// Effective expiry falls back to the project's, so a code generated
		// in an already-expired project is born expired.
		codes[i].IsExpired = codes[i].ComputeExpired(project.ExpiresAt, now)
	}

	if err := s.codes.CreateBatch(ctx, codes, now); err != nil {
		return nil, err
	}
	telemetry.CodesGeneratedTotal.Add(float64(len(codes)))
	return codes, nil
}

// Get retrieves one code, refreshing its expiry flag against the effective
// expiry on the way out.
func (s *CodeService) Get(ctx context.Context, id string) (*models.InvitationCode, error) {
	code, err := s.codes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, ErrCodeNotFound
	}
	if err := s.refreshExpiry(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// GetByCode retrieves one code by its code string.
func (s *CodeService) GetByCode(ctx context.Context, codeStr string) (*models.InvitationCode, error) {
	code, err := s.codes.GetByCode(ctx, codeStr)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, ErrCodeNotFound
	}
	if err := s.refreshExpiry(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// List retrieves a filtered code page, lazily refreshing stale expiry flags
// on the returned rows.
func (s *CodeService) List(ctx context.Context, filters repositories.CodeFilters, limit, offset int) ([]*models.InvitationCode, int, error) {
	project, err := s.projects.GetByID(ctx, filters.ProjectID)
	if err != nil {
		return nil, 0, err
	}
	if project == nil {
		return nil, 0, ErrProjectNotFound
	}

	codes, total, err := s.codes.List(ctx, filters, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	now := s.clock.Now()
	for _, code := range codes {
		expired := code.ComputeExpired(project.ExpiresAt, now)
		if expired != code.IsExpired {
			if err := s.codes.SetExpiredFlag(ctx, code.ID, expired); err != nil {
				return nil, 0, err
			}
			code.IsExpired = expired
		}
	}
	return codes, total, nil
}

// Update applies a partial update. Disabling is rejected for used or expired
// codes; changing expires_at recomputes is_expired immediately against the
// effective expiry.
func (s *CodeService) Update(ctx context.Context, id string, in UpdateCodeInput) (*models.InvitationCode, error) {
	code, err := s.codes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, ErrCodeNotFound
	}

	project, err := s.projects.GetByID(ctx, code.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	now := s.clock.Now()

	if in.SetExpiresAt {
		code.ExpiresAt = in.ExpiresAt
		code.IsExpired = code.ComputeExpired(project.ExpiresAt, now)
	}

	if in.Disabled != nil {
		if *in.Disabled {
			if code.Status {
				return nil, ErrCodeAlreadyVerified
			}
			if code.IsExpired {
				return nil, ErrCodeExpired
			}
			code.IsDisabled = true
		} else {
			code.IsDisabled = false
			// Re-enabling recomputes expiry, since the flag was parked at
			// false while the code was disabled.
			code.IsExpired = code.ComputeExpired(project.ExpiresAt, now)
		}
	}

	if err := s.codes.Update(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// Delete removes one code and its verification history.
func (s *CodeService) Delete(ctx context.Context, id string) error {
	deleted, err := s.codes.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCodeNotFound
	}
	return nil
}

// DeleteBatch removes up to MaxBatchDelete codes by ID.
func (s *CodeService) DeleteBatch(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no code ids given", ErrValidation)
	}
	if len(ids) > MaxBatchDelete {
		return 0, fmt.Errorf("%w: at most %d codes per batch delete", ErrValidation, MaxBatchDelete)
	}
	return s.codes.DeleteBatch(ctx, ids)
}

// CountBatchDisable previews how many codes BatchDisable would affect.
func (s *CodeService) CountBatchDisable(ctx context.Context, f repositories.BatchDisableFilter) (int64, error) {
	if err := s.requireProject(ctx, f.ProjectID); err != nil {
		return 0, err
	}
	return s.codes.CountBatchDisable(ctx, f)
}

// BatchDisable disables every unused, enabled, unexpired code matching the
// filter and reports how many were affected.
func (s *CodeService) BatchDisable(ctx context.Context, f repositories.BatchDisableFilter) (int64, error) {
	if err := s.requireProject(ctx, f.ProjectID); err != nil {
		return 0, err
	}
	return s.codes.BatchDisable(ctx, f)
}

func (s *CodeService) requireProject(ctx context.Context, id string) error {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if project == nil {
		return ErrProjectNotFound
	}
	return nil
}

func (s *CodeService) refreshExpiry(ctx context.Context, code *models.InvitationCode) error {
	project, err := s.projects.GetByID(ctx, code.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		return nil
	}
	expired := code.ComputeExpired(project.ExpiresAt, s.clock.Now())
	if expired == code.IsExpired {
		return nil
	}
	if err := s.codes.SetExpiredFlag(ctx, code.ID, expired); err != nil {
		return err
	}
	code.IsExpired = expired
	return nil
}
