// Package services contains the business logic of CodeGate: project and code
// management, the verification engine, admin sessions, and SDK credentials.
// Services own the transaction boundaries; repositories stay single-query.
package services

import "errors"

// Business errors. Handlers map these to stable wire codes via ErrorCode and
// to HTTP status via the API layer; everything else is an internal error.
var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectAlreadyExists = errors.New("project already exists")
	ErrProjectDisabled      = errors.New("project disabled")
	ErrProjectExpired       = errors.New("project expired")

	ErrCodeNotFound        = errors.New("code not found")
	ErrCodeAlreadyVerified = errors.New("code already used")
	ErrCodeAlreadyUnused   = errors.New("code already unused")
	ErrCodeDisabled        = errors.New("code disabled")
	ErrCodeExpired         = errors.New("code expired")

	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAPIKeyNotFound     = errors.New("api key not found")

	ErrValidation = errors.New("validation failed")
)

// Stable wire codes. These appear in API responses and never change; clients
// branch on them.
const (
	CodeCodeNotFound         = "CODE_NOT_FOUND"
	CodeCodeAlreadyUsed      = "CODE_ALREADY_USED"
	CodeCodeAlreadyUnused    = "CODE_ALREADY_UNUSED"
	CodeCodeDisabled         = "CODE_DISABLED"
	CodeCodeExpired          = "CODE_EXPIRED"
	CodeProjectNotFound      = "PROJECT_NOT_FOUND"
	CodeProjectAlreadyExists = "PROJECT_ALREADY_EXISTS"
	CodeProjectDisabled      = "PROJECT_DISABLED"
	CodeProjectExpired       = "PROJECT_EXPIRED"
	CodeAdminNotFound        = "ADMIN_NOT_FOUND"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeAPIKeyNotFound       = "API_KEY_NOT_FOUND"
	CodeValidationFailed     = "VALIDATION_FAILED"
)

// ErrorCode maps a business error to its stable wire code. Returns "" for
// errors without one (internal errors).
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrCodeNotFound):
		return CodeCodeNotFound
	case errors.Is(err, ErrCodeAlreadyVerified):
		return CodeCodeAlreadyUsed
	case errors.Is(err, ErrCodeAlreadyUnused):
		return CodeCodeAlreadyUnused
	case errors.Is(err, ErrCodeDisabled):
		return CodeCodeDisabled
	case errors.Is(err, ErrCodeExpired):
		return CodeCodeExpired
	case errors.Is(err, ErrProjectNotFound):
		return CodeProjectNotFound
	case errors.Is(err, ErrProjectAlreadyExists):
		return CodeProjectAlreadyExists
	case errors.Is(err, ErrProjectDisabled):
		return CodeProjectDisabled
	case errors.Is(err, ErrProjectExpired):
		return CodeProjectExpired
	case errors.Is(err, ErrAdminNotFound):
		return CodeAdminNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrAPIKeyNotFound):
		return CodeAPIKeyNotFound
	case errors.Is(err, ErrValidation):
		return CodeValidationFailed
	default:
		return ""
	}
}
