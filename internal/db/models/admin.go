package models

import "time"

// Admin is the single administrative identity. Passwords are stored as
// bcrypt hashes.
type Admin struct {
	ID           string `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	// IsInitialPassword stays true until the bootstrap password is changed,
	// so the console can nag until it is rotated.
	IsInitialPassword bool       `db:"is_initial_password" json:"is_initial_password"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt       *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}
