package services

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/repositories"
)

var errDB = errors.New("db failure")

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var testClock = clock.Fixed{Instant: testNow}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

// newServices wires every service against one mocked database.
type testServices struct {
	db           *sqlx.DB
	mock         sqlmock.Sqlmock
	projects     *ProjectService
	codes        *CodeService
	verification *VerificationService
	admins       *AdminService
	apiKeys      *APIKeyService
}

func newServices(t *testing.T) *testServices {
	t.Helper()
	db, mock := newMockDB(t)
	projectRepo := repositories.NewProjectRepository(db)
	codeRepo := repositories.NewCodeRepository(db)
	logRepo := repositories.NewVerificationLogRepository(db)
	adminRepo := repositories.NewAdminRepository(db)
	keyRepo := repositories.NewAPIKeyRepository(db)

	return &testServices{
		db:           db,
		mock:         mock,
		projects:     NewProjectService(projectRepo, testClock),
		codes:        NewCodeService(codeRepo, projectRepo, testClock),
		verification: NewVerificationService(db, codeRepo, projectRepo, logRepo, testClock),
		admins:       NewAdminService(adminRepo, testClock),
		apiKeys:      NewAPIKeyService(keyRepo, projectRepo, testClock, "cg_"),
	}
}

func TestErrorCode_Mapping(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{ErrCodeNotFound, "CODE_NOT_FOUND"},
		{ErrCodeAlreadyVerified, "CODE_ALREADY_USED"},
		{ErrCodeAlreadyUnused, "CODE_ALREADY_UNUSED"},
		{ErrCodeDisabled, "CODE_DISABLED"},
		{ErrCodeExpired, "CODE_EXPIRED"},
		{ErrProjectNotFound, "PROJECT_NOT_FOUND"},
		{ErrProjectAlreadyExists, "PROJECT_ALREADY_EXISTS"},
		{ErrProjectDisabled, "PROJECT_DISABLED"},
		{ErrProjectExpired, "PROJECT_EXPIRED"},
		{ErrAdminNotFound, "ADMIN_NOT_FOUND"},
		{ErrInvalidCredentials, "INVALID_CREDENTIALS"},
		{ErrAPIKeyNotFound, "API_KEY_NOT_FOUND"},
		{ErrValidation, "VALIDATION_FAILED"},
		{errDB, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.code {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.code)
		}
	}
}

func TestErrorCode_Wrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrCodeExpired)
	if got := ErrorCode(wrapped); got != "CODE_EXPIRED" {
		t.Errorf("ErrorCode(wrapped) = %q, want CODE_EXPIRED", got)
	}
}
