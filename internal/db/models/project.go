// Package models defines the database model types for CodeGate. Each type maps
// to one table and carries struct tags for JSON serialization and sqlx row
// scanning. Models hold pure data plus derived-state helpers; query logic
// lives in the repositories package and business rules in services.
package models

import "time"

// Project groups activation codes under one enable/disable flag and an
// optional expiry. Codes without their own expires_at inherit the project's.
type Project struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      bool       `db:"status" json:"status"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// IsExpired reports whether the project's expiry has passed. A project with
// no expiry never expires.
func (p *Project) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// IsActive reports whether the project accepts verifications: enabled and
// not expired.
func (p *Project) IsActive(now time.Time) bool {
	return p.Status && !p.IsExpired(now)
}
