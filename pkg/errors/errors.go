package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application-level error
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	CodeBadRequest              = "BAD_REQUEST"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeNotFound                = "NOT_FOUND"
	CodeInternalError           = "INTERNAL_ERROR"
	CodeValidationError         = "VALIDATION_ERROR"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeInvalidDevice           = "INVALID_DEVICE"
	CodeSessionNotFound         = "SESSION_NOT_FOUND"
	CodeSessionClosed           = "SESSION_CLOSED"
	CodeSessionBusy             = "SESSION_BUSY"
	CodeConflictNotFound        = "CONFLICT_NOT_FOUND"
	CodeConflictAlreadyResolved = "CONFLICT_ALREADY_RESOLVED"
	CodeConflictStale           = "CONFLICT_STALE"
	CodeInvalidStrategy         = "INVALID_STRATEGY"
	CodeStorageFailure          = "STORAGE_FAILURE"
)

// Common errors
var (
	ErrBadRequest = &AppError{
		Code:       CodeBadRequest,
		Message:    "Bad request",
		StatusCode: http.StatusBadRequest,
	}

	ErrUnauthorized = &AppError{
		Code:       CodeUnauthorized,
		Message:    "Unauthorized",
		StatusCode: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       CodeForbidden,
		Message:    "Forbidden",
		StatusCode: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       CodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrInternalError = &AppError{
		Code:       CodeInternalError,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	ErrTokenExpired = &AppError{
		Code:       CodeTokenExpired,
		Message:    "Token has expired",
		StatusCode: http.StatusUnauthorized,
	}

	ErrInvalidToken = &AppError{
		Code:       CodeInvalidToken,
		Message:    "Invalid token",
		StatusCode: http.StatusUnauthorized,
	}

	ErrInvalidDevice = &AppError{
		Code:       CodeInvalidDevice,
		Message:    "Device id is required",
		StatusCode: http.StatusBadRequest,
	}

	ErrSessionNotFound = &AppError{
		Code:       CodeSessionNotFound,
		Message:    "Sync session not found",
		StatusCode: http.StatusNotFound,
	}

	ErrSessionClosed = &AppError{
		Code:       CodeSessionClosed,
		Message:    "Sync session is closed and no longer accepts changes",
		StatusCode: http.StatusConflict,
	}

	ErrSessionBusy = &AppError{
		Code:       CodeSessionBusy,
		Message:    "Sync session is already applying a change batch",
		StatusCode: http.StatusConflict,
	}

	ErrConflictNotFound = &AppError{
		Code:       CodeConflictNotFound,
		Message:    "Conflict record not found",
		StatusCode: http.StatusNotFound,
	}

	ErrConflictAlreadyResolved = &AppError{
		Code:       CodeConflictAlreadyResolved,
		Message:    "Conflict record is already resolved",
		StatusCode: http.StatusConflict,
	}

	ErrConflictStale = &AppError{
		Code:       CodeConflictStale,
		Message:    "Server state moved on since detection; conflict snapshot refreshed",
		StatusCode: http.StatusConflict,
	}

	ErrInvalidStrategy = &AppError{
		Code:       CodeInvalidStrategy,
		Message:    "Unknown or unsupported resolution strategy",
		StatusCode: http.StatusBadRequest,
	}
)

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return &AppError{
		Code:       CodeValidationError,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// StorageFailure wraps a store-level error that aborted a batch.
func StorageFailure(err error) *AppError {
	return &AppError{
		Code:       CodeStorageFailure,
		Message:    "Entity store unavailable",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
