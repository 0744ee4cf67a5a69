package models

import "time"

// Verification log results.
const (
	VerificationResultSuccess     = "success"
	VerificationResultFailed      = "failed"
	VerificationResultReactivated = "reactivated"
)

// VerificationLog is one row of the append-only redemption audit trail. Every
// verification or reactivation attempt writes exactly one row — except a
// lookup miss, which has no code row to reference (code_id is a non-null
// foreign key).
type VerificationLog struct {
	ID         string    `db:"id" json:"id"`
	CodeID     string    `db:"code_id" json:"code_id"`
	VerifiedAt time.Time `db:"verified_at" json:"verified_at"`
	VerifiedBy *string   `db:"verified_by" json:"verified_by,omitempty"`
	IPAddress  *string   `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  *string   `db:"user_agent" json:"user_agent,omitempty"`
	Result     string    `db:"result" json:"result"`
	Reason     *string   `db:"reason" json:"reason,omitempty"`
}
