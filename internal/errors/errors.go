// Package errors provides the application error taxonomy.
// All service-layer errors should use AppError so that responses can tell
// bad input, missing resources, forbidden access and server faults apart
// without leaking internal details to clients.
package errors

import "net/http"

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

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrCategoryNotFound) matches copies made by Wrap/WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
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

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrValidation     = &AppError{Code: "VALIDATION_ERROR", Message: "Validation failed", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Category errors.
var (
	ErrEmptyCategoryName     = &AppError{Code: "EMPTY_NAME", Message: "Category name can not be empty", StatusCode: http.StatusBadRequest}
	ErrDuplicateCategoryName = &AppError{Code: "DUPLICATE_NAME", Message: "Category with this name already exists", StatusCode: http.StatusConflict}
	ErrCategoryNotFound      = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
)

// Budget errors.
var (
	ErrBudgetNotFound  = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrDuplicateBudget = &AppError{Code: "DUPLICATE_BUDGET", Message: "A budget for this category and month already exists", StatusCode: http.StatusConflict}
	ErrInvalidMonth    = &AppError{Code: "VALIDATION_ERROR", Message: "month must be in YYYY-MM format", StatusCode: http.StatusBadRequest}
	ErrInvalidLimit    = &AppError{Code: "VALIDATION_ERROR", Message: "limit must be greater than 0", StatusCode: http.StatusBadRequest}

	ErrInvalidLimitPrecision = &AppError{Code: "VALIDATION_ERROR", Message: "limit must have at most 2 decimal places", StatusCode: http.StatusBadRequest}
	ErrLimitTooLarge         = &AppError{Code: "VALIDATION_ERROR", Message: "limit must be less than 10000000000", StatusCode: http.StatusBadRequest}
)
