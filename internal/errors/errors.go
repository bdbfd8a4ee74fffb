// Package errors provides the application error type used across the
// Framex API. Services return AppError values so that handlers can render
// a stable error code without leaking internal details to clients.
package errors

import (
	"fmt"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target carries the same code. This lets callers compare
// a derived error against its sentinel with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithMessagef is WithMessage with fmt.Sprintf formatting.
func WithMessagef(sentinel *AppError, format string, args ...any) *AppError {
	return WithMessage(sentinel, fmt.Sprintf(format, args...))
}

// Authentication & authorization errors.
var (
	ErrUnauthorized           = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials     = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden              = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked          = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
	ErrPasswordChangeRequired = &AppError{Code: "PASSWORD_CHANGE_REQUIRED", Message: "Password must be changed before continuing", StatusCode: http.StatusForbidden}
	ErrInvalidRecoveryCode    = &AppError{Code: "INVALID_RECOVERY_CODE", Message: "Invalid email or recovery code", StatusCode: http.StatusUnauthorized}
	ErrRateLimited            = &AppError{Code: "RATE_LIMITED", Message: "Too many requests, please retry later", StatusCode: http.StatusTooManyRequests}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Setup errors.
var (
	ErrSetupCompleted = &AppError{Code: "SETUP_ALREADY_COMPLETED", Message: "Initial setup has already been completed", StatusCode: http.StatusConflict}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrUserInUse      = &AppError{Code: "USER_IN_USE", Message: "User is referenced by existing entries", StatusCode: http.StatusConflict}
)

// Master data errors.
var (
	ErrMasterDataNotFound  = &AppError{Code: "MASTER_DATA_NOT_FOUND", Message: "Master data item not found", StatusCode: http.StatusNotFound}
	ErrMasterDataInUse     = &AppError{Code: "MASTER_DATA_IN_USE", Message: "Master data item is used by existing entries", StatusCode: http.StatusConflict}
	ErrDuplicateMasterData = &AppError{Code: "DUPLICATE_MASTER_DATA", Message: "An item with this name already exists", StatusCode: http.StatusConflict}
)

// Entry errors.
var (
	ErrEntryNotFound = &AppError{Code: "ENTRY_NOT_FOUND", Message: "Entry not found", StatusCode: http.StatusNotFound}
)

// Company errors.
var (
	ErrCompanyNotFound    = &AppError{Code: "COMPANY_NOT_FOUND", Message: "Company information not found", StatusCode: http.StatusNotFound}
	ErrStorageUnavailable = &AppError{Code: "STORAGE_UNAVAILABLE", Message: "File storage is not configured", StatusCode: http.StatusServiceUnavailable}
	ErrUnsupportedImage   = &AppError{Code: "UNSUPPORTED_IMAGE", Message: "Logo must be a PNG, JPEG or GIF image", StatusCode: http.StatusBadRequest}
	ErrUnsupportedExport  = &AppError{Code: "UNSUPPORTED_EXPORT_FORMAT", Message: "Export format must be csv or xlsx", StatusCode: http.StatusBadRequest}
)
