package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pfeak/codegate/internal/auth"
	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/models"
	"github.com/pfeak/codegate/internal/db/repositories"
)

// AdminService implements admin authentication: login, password changes, and
// first-run bootstrap of the initial account.
type AdminService struct {
	admins *repositories.AdminRepository
	clock  clock.Clock
}

// NewAdminService creates a new AdminService.
func NewAdminService(admins *repositories.AdminRepository, clk clock.Clock) *AdminService {
	return &AdminService{admins: admins, clock: clk}
}

// LoginResult carries the issued session token and its subject.
type LoginResult struct {
	Token string        `json:"token"`
	Admin *models.Admin `json:"admin"`
}

// Login checks credentials and issues a session JWT. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *AdminService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if admin == nil || !auth.CheckPassword(password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(admin.ID, admin.Username, 0)
	if err != nil {
		return nil, fmt.Errorf("issuing session token: %w", err)
	}

	now := s.clock.Now()
	if err := s.admins.TouchLastLogin(ctx, admin.ID, now); err != nil {
		slog.Warn("recording last login failed", "admin", admin.Username, "error", err)
	}
	admin.LastLoginAt = &now

	return &LoginResult{Token: token, Admin: admin}, nil
}

// ChangePassword verifies the current password and installs a new one after
// complexity validation.
func (s *AdminService) ChangePassword(ctx context.Context, adminID, current, next string) error {
	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if admin == nil {
		return ErrAdminNotFound
	}
	if !auth.CheckPassword(current, admin.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := auth.ValidatePasswordComplexity(next); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.admins.UpdatePassword(ctx, admin.ID, hash)
}

// Get loads an admin account by ID.
func (s *AdminService) Get(ctx context.Context, adminID string) (*models.Admin, error) {
	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}
	return admin, nil
}

// Bootstrap creates the initial admin account when none exists. Returns the
// created admin, or nil when the table already has one.
func (s *AdminService) Bootstrap(ctx context.Context, username, password string) (*models.Admin, error) {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}
	if err := auth.ValidatePasswordComplexity(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{Username: username, PasswordHash: hash, IsInitialPassword: true}
	if err := s.admins.Create(ctx, admin, s.clock.Now()); err != nil {
		return nil, err
	}
	slog.Info("bootstrapped initial admin account", "username", username)
	return admin, nil
}
