package models

import "time"

// APIKey is a project-scoped SDK credential. APIKeyID is the public
// identifier sent in X-API-Key; Secret signs requests (HMAC-SHA256) and is
// returned to the caller exactly once, at creation. Each project holds at
// most one key; regenerating replaces the previous one.
type APIKey struct {
	ID         string     `db:"id" json:"id"`
	ProjectID  string     `db:"project_id" json:"project_id"`
	APIKey     string     `db:"api_key" json:"api_key"`
	Secret     string     `db:"secret" json:"-"`
	Name       *string    `db:"name" json:"name,omitempty"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	CreatedBy  *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
