package testutil

import (
	"errors"
	"testing"

	apperrors "tradeflow/internal/errors"

	"gorm.io/gorm"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
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
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertRowCount fails the test unless exactly want rows of model match the
// given condition.
func AssertRowCount(t *testing.T, db *gorm.DB, model interface{}, want int64, query string, args ...interface{}) {
	t.Helper()

	var got int64
	if err := db.Model(model).Where(query, args...).Count(&got).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if got != want {
		t.Errorf("expected %d rows of %T where %s, got %d", want, model, query, got)
	}
}
