package models

import "time"

// AuditLog records an admin mutation (who, what, outcome). This is the
// generic admin audit sink; the domain-level redemption trail lives in
// VerificationLog.
type AuditLog struct {
	ID           string                 `db:"id" json:"id"`
	AdminID      *string                `db:"admin_id" json:"admin_id,omitempty"`
	Action       string                 `db:"action" json:"action"`
	ResourceType *string                `db:"resource_type" json:"resource_type,omitempty"`
	ResourceID   *string                `db:"resource_id" json:"resource_id,omitempty"`
	Result       string                 `db:"result" json:"result"`
	Details      map[string]interface{} `db:"-" json:"details,omitempty"`
	IPAddress    *string                `db:"ip_address" json:"ip_address,omitempty"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
}
