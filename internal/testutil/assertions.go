package testutil

import (
	"errors"
	"testing"

	apperrors "budgeteer/internal/errors"
)

// AssertAppError checks that err is an *AppError with the expected code and
// returns it for further checks.
func AssertAppError(t *testing.T, err error, expectedCode string) *apperrors.AppError {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
	return appErr
}

// AssertSentinel checks that err carries the code, message and HTTP status of
// sentinel. Several sentinels share VALIDATION_ERROR, so the code alone does
// not tell them apart.
func AssertSentinel(t *testing.T, err error, sentinel *apperrors.AppError) {
	t.Helper()

	appErr := AssertAppError(t, err, sentinel.Code)
	if appErr.Message != sentinel.Message {
		t.Errorf("expected message %q, got %q", sentinel.Message, appErr.Message)
	}
	if appErr.StatusCode != sentinel.StatusCode {
		t.Errorf("expected status %d, got %d", sentinel.StatusCode, appErr.StatusCode)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
