package models

import "time"

// InvitationCode is a single-use activation code.
//
// The three flags encode a four-state machine — unused, used (Status),
// disabled (IsDisabled), expired (IsExpired) — and at most one flag may be
// true at a time. The schema enforces this with CHECK constraints; every
// service path preserves it.
//
// IsExpired is a persisted column, not a computed property, so it can
// participate in the storage-level constraint. It is refreshed lazily on
// every read path and corrected in bulk by the expiry sweep job.
type InvitationCode struct {
	ID         string     `db:"id" json:"id"`
	ProjectID  string     `db:"project_id" json:"project_id"`
	Code       string     `db:"code" json:"code"`
	Status     bool       `db:"status" json:"status"`
	IsDisabled bool       `db:"is_disabled" json:"is_disabled"`
	IsExpired  bool       `db:"is_expired" json:"is_expired"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	VerifiedAt *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	VerifiedBy *string    `db:"verified_by" json:"verified_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// EffectiveExpiry returns the code's own expiry when set, otherwise the
// owning project's. Nil means the code never expires.
func (c *InvitationCode) EffectiveExpiry(projectExpiry *time.Time) *time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt
	}
	return projectExpiry
}

// ComputeExpired evaluates what the is_expired flag should be at the given
// instant. Expiry only applies to codes that are neither used nor disabled:
// the flags are mutually exclusive, and a used code stays used even when its
// expiry lapses afterwards.
func (c *InvitationCode) ComputeExpired(projectExpiry *time.Time, now time.Time) bool {
	if c.Status || c.IsDisabled {
		return false
	}
	expiry := c.EffectiveExpiry(projectExpiry)
	return expiry != nil && now.After(*expiry)
}

// IsValid reports whether the code is redeemable right now: unused, not
// disabled, not expired, and owned by an active project.
func (c *InvitationCode) IsValid(project *Project, now time.Time) bool {
	return !c.Status &&
		!c.IsDisabled &&
		!c.IsExpired &&
		project != nil &&
		project.IsActive(now)
}
