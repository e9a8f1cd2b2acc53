// Package contextutils provides error handling utilities and standardized error types
// for consistent error management across the CodeTech backend.
package contextutils

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a standardized error code for API responses
type ErrorCode string

const (
	// Database error codes

	// ErrorCodeDatabaseTransaction indicates a database transaction error
	ErrorCodeDatabaseTransaction ErrorCode = "DATABASE_TRANSACTION_ERROR"
	// ErrorCodeRecordNotFound indicates that a requested record was not found
	ErrorCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	// ErrorCodeRecordExists indicates that a record already exists (duplicate key)
	ErrorCodeRecordExists ErrorCode = "RECORD_ALREADY_EXISTS"

	// Validation error codes

	// ErrorCodeInvalidInput indicates that the provided input is invalid
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorCodeMissingRequired indicates that a required field is missing
	ErrorCodeMissingRequired ErrorCode = "MISSING_REQUIRED_FIELD"
	// ErrorCodeValidationFailed indicates that validation has failed
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Authentication error codes

	// ErrorCodeUnauthorized indicates that the user is not authorized
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrorCodeForbidden indicates that the user is forbidden from accessing the resource
	ErrorCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrorCodeInvalidCredentials indicates that the provided credentials are invalid
	ErrorCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	// ErrorCodeInvalidToken indicates a bearer token that failed verification
	ErrorCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// ErrorCodeInternalError indicates an internal server error
	ErrorCodeInternalError ErrorCode = "INTERNAL_SERVER_ERROR"

	// Domain error codes

	// ErrorCodeUserNotFound indicates the referenced user does not exist
	ErrorCodeUserNotFound ErrorCode = "USER_NOT_FOUND"
	// ErrorCodeSubjectNotFound indicates the referenced subject does not exist
	ErrorCodeSubjectNotFound ErrorCode = "SUBJECT_NOT_FOUND"
	// ErrorCodeLevelNotFound indicates the referenced level does not exist in the subject
	ErrorCodeLevelNotFound ErrorCode = "LEVEL_NOT_FOUND"
	// ErrorCodeQuizNotFound indicates the referenced quiz does not exist
	ErrorCodeQuizNotFound ErrorCode = "QUIZ_NOT_FOUND"
	// ErrorCodeProgressNotFound indicates the user has no progress row for a level
	ErrorCodeProgressNotFound ErrorCode = "PROGRESS_NOT_FOUND"
	// ErrorCodeEmailTaken indicates a signup with an email that is already registered
	ErrorCodeEmailTaken ErrorCode = "EMAIL_TAKEN"
	// ErrorCodeProtectedAccount indicates an admin guard refused an operation on an account
	ErrorCodeProtectedAccount ErrorCode = "PROTECTED_ACCOUNT"
)

// SeverityLevel represents the severity of an error for logging and monitoring
type SeverityLevel string

const (
	// SeverityInfo indicates informational errors
	SeverityInfo SeverityLevel = "info"
	// SeverityWarn indicates warning-level errors
	SeverityWarn SeverityLevel = "warn"
	// SeverityError indicates error-level issues
	SeverityError SeverityLevel = "error"
	// SeverityFatal indicates fatal errors that require immediate attention
	SeverityFatal SeverityLevel = "fatal"
)

// AppError represents a structured error with code, severity, and context
type AppError struct {
	Code     ErrorCode
	Severity SeverityLevel
	Message  string
	Details  string
	Cause    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison for errors.Is
func (e *AppError) Is(target error) bool {
	if appErr, ok := target.(*AppError); ok {
		return e.Code == appErr.Code
	}
	return false
}

// Error types for consistent error handling with associated codes and severity
var (
	ErrDatabaseTransaction = &AppError{
		Code:     ErrorCodeDatabaseTransaction,
		Severity: SeverityError,
		Message:  "Database transaction failed",
	}

	ErrRecordNotFound = &AppError{
		Code:     ErrorCodeRecordNotFound,
		Severity: SeverityInfo,
		Message:  "Record not found",
	}

	ErrRecordExists = &AppError{
		Code:     ErrorCodeRecordExists,
		Severity: SeverityInfo,
		Message:  "Record already exists",
	}

	ErrInvalidInput = &AppError{
		Code:     ErrorCodeInvalidInput,
		Severity: SeverityWarn,
		Message:  "Invalid input",
	}

	ErrMissingRequired = &AppError{
		Code:     ErrorCodeMissingRequired,
		Severity: SeverityWarn,
		Message:  "Missing required field",
	}

	ErrValidationFailed = &AppError{
		Code:     ErrorCodeValidationFailed,
		Severity: SeverityWarn,
		Message:  "Validation failed",
	}

	ErrUnauthorized = &AppError{
		Code:     ErrorCodeUnauthorized,
		Severity: SeverityWarn,
		Message:  "Not authenticated",
	}

	ErrForbidden = &AppError{
		Code:     ErrorCodeForbidden,
		Severity: SeverityWarn,
		Message:  "Admin access required",
	}

	ErrInvalidCredentials = &AppError{
		Code:     ErrorCodeInvalidCredentials,
		Severity: SeverityWarn,
		Message:  "Incorrect email or password",
	}

	ErrInvalidToken = &AppError{
		Code:     ErrorCodeInvalidToken,
		Severity: SeverityWarn,
		Message:  "Invalid token",
	}

	ErrInternalError = &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  "Internal server error",
	}

	ErrUserNotFound = &AppError{
		Code:     ErrorCodeUserNotFound,
		Severity: SeverityInfo,
		Message:  "User not found",
	}

	ErrSubjectNotFound = &AppError{
		Code:     ErrorCodeSubjectNotFound,
		Severity: SeverityInfo,
		Message:  "Subject not found",
	}

	ErrLevelNotFound = &AppError{
		Code:     ErrorCodeLevelNotFound,
		Severity: SeverityInfo,
		Message:  "Level not found",
	}

	ErrQuizNotFound = &AppError{
		Code:     ErrorCodeQuizNotFound,
		Severity: SeverityInfo,
		Message:  "Quiz not found",
	}

	ErrProgressNotFound = &AppError{
		Code:     ErrorCodeProgressNotFound,
		Severity: SeverityInfo,
		Message:  "Quiz progress not found",
	}

	ErrEmailTaken = &AppError{
		Code:     ErrorCodeEmailTaken,
		Severity: SeverityInfo,
		Message:  "Email already registered",
	}
)

// NewAppError creates a new AppError with the specified code, severity, message and details
func NewAppError(code ErrorCode, severity SeverityLevel, message, details string) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  details,
	}
}

// NewAppErrorWithCause creates a new AppError with an underlying cause
func NewAppErrorWithCause(code ErrorCode, severity SeverityLevel, message, details string, cause error) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  details,
		Cause:    cause,
	}
}

// WrapError wraps an error with additional context, preserving AppError structure if possible
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:     appErr.Code,
			Severity: appErr.Severity,
			Message:  context,
			Details:  appErr.Error(),
			Cause:    appErr,
		}
	}

	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  context,
		Details:  err.Error(),
		Cause:    err,
	}
}

// WrapErrorf wraps an error with formatted context, preserving AppError structure if possible
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	if strings.Contains(format, "%w") {
		wrappedErr := fmt.Errorf(format, args...)

		if appErr, ok := err.(*AppError); ok {
			return &AppError{
				Code:     appErr.Code,
				Severity: appErr.Severity,
				Message:  wrappedErr.Error(),
				Details:  appErr.Error(),
				Cause:    wrappedErr,
			}
		}

		return &AppError{
			Code:     ErrorCodeInternalError,
			Severity: SeverityError,
			Message:  wrappedErr.Error(),
			Details:  err.Error(),
			Cause:    wrappedErr,
		}
	}

	return WrapError(err, fmt.Sprintf(format, args...))
}

// ErrorWithContextf creates a new error with formatted context
func ErrorWithContextf(format string, args ...interface{}) error {
	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithMessage returns a copy of a sentinel error carrying a caller-facing message.
// The code is preserved so errors.Is keeps matching the sentinel.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:     sentinel.Code,
		Severity: sentinel.Severity,
		Message:  message,
		Cause:    sentinel,
	}
}

// GetErrorCode returns the error code from an error if it's an AppError, otherwise returns a default code
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCodeInternalError
}

// IsRetryable determines if an error should be retried based on its type and severity
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrorCodeDatabaseTransaction && appErr.Severity != SeverityFatal
	}
	return false
}

// ContextKey represents a context key type for passing values through context
type ContextKey string

const (
	// UserIDKey is used to store the authenticated user ID in context
	UserIDKey ContextKey = "userID"
	requestIDKey ContextKey = "requestID"
)

// GetUserIDFromContext extracts the user ID from context, returning 0 if not found
func GetUserIDFromContext(ctx context.Context) int {
	if userID, ok := ctx.Value(UserIDKey).(int); ok {
		return userID
	}
	return 0
}

// WithUserID returns a new context with the user ID set
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetRequestIDFromContext extracts the request ID from context, returning "" if not found
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID returns a new context with the request ID set
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
