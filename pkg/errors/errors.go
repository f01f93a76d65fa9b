package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError provides a structured error that can be rendered to API consumers.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// Is matches AppErrors by code so wrapped copies compare equal to their template.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e != nil && other != nil && e.Code == other.Code
}

// Common errors exposed to the rest of the application.
var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Permission denied",
		StatusCode: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrInternalServer = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	ErrRateLimit = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests, please slow down",
		StatusCode: http.StatusTooManyRequests,
	}
)

// Verification error taxonomy. These codes are the machine-readable contract of the
// OTP subsystem; the UI layer maps each to a localized message.
var (
	ErrInvalidIdentifier = &AppError{
		Code:       "auth.invalid_identifier",
		Message:    "Identifier is not a valid email address or phone number",
		StatusCode: http.StatusBadRequest,
	}
	ErrUserNotFound = &AppError{
		Code:       "auth.user_not_found",
		Message:    "No account exists for this identifier",
		StatusCode: http.StatusNotFound,
	}
	ErrEmailTaken = &AppError{
		Code:       "auth.email_taken",
		Message:    "An account already uses this email address",
		StatusCode: http.StatusConflict,
	}
	ErrPhoneTaken = &AppError{
		Code:       "auth.phone_taken",
		Message:    "An account already uses this phone number",
		StatusCode: http.StatusConflict,
	}
	ErrInvalidCountry = &AppError{
		Code:       "auth.invalid_country",
		Message:    "Destination country is unknown or not active",
		StatusCode: http.StatusBadRequest,
	}
	ErrSendFailed = &AppError{
		Code:       "auth.send_failed",
		Message:    "Could not deliver the verification code, try again shortly",
		StatusCode: http.StatusBadGateway,
	}
	ErrNoCodePending = &AppError{
		Code:       "auth.no_code_pending",
		Message:    "No verification code is pending for this identifier",
		StatusCode: http.StatusConflict,
	}
	ErrCodeExpired = &AppError{
		Code:       "auth.code_expired",
		Message:    "The verification code has expired, request a new one",
		StatusCode: http.StatusConflict,
	}
	ErrCodeAlreadyUsed = &AppError{
		Code:       "auth.code_already_used",
		Message:    "The verification code has already been used",
		StatusCode: http.StatusConflict,
	}
	ErrTooManyAttempts = &AppError{
		Code:       "auth.too_many_attempts",
		Message:    "Too many incorrect attempts, request a new code",
		StatusCode: http.StatusTooManyRequests,
	}
	ErrInvalidCode = &AppError{
		Code:       "auth.invalid_code",
		Message:    "The verification code is incorrect",
		StatusCode: http.StatusUnauthorized,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewBadRequest builds a 400 error with a custom message.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// Wrap turns any error into an AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError extracts an AppError from err, falling back to a generic 500.
func FromError(err error) *AppError {
	if err == nil {
		return ErrInternalServer
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}
