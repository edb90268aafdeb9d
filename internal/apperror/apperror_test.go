package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound("event", 42)

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFound() does not match ErrNotFound")
	}
	if err.Message != "event not found with id 42" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestValidationFailed(t *testing.T) {
	err := ValidationFailed("title", "title is required")

	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationFailed() does not match ErrValidation")
	}
	if err.Field != "title" {
		t.Errorf("Field = %q, want %q", err.Field, "title")
	}
	if err.Error() != "title is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestInvalidCredentials_FixedMessage(t *testing.T) {
	// The message must not vary: unknown-user and wrong-password failures
	// must be indistinguishable.
	a := InvalidCredentials()
	b := InvalidCredentials()

	if a.Message != b.Message {
		t.Errorf("messages differ: %q vs %q", a.Message, b.Message)
	}
	if !errors.Is(a, ErrInvalidCredentials) {
		t.Error("InvalidCredentials() does not match ErrInvalidCredentials")
	}
}

func TestWrappedErrorsStillMatch(t *testing.T) {
	// Service code wraps app errors with %w; the sentinel must survive the
	// chain for the handler's errors.Is mapping.
	err := fmt.Errorf("registering user: %w", Conflict("username already exists"))

	if !errors.Is(err, ErrConflict) {
		t.Error("wrapped Conflict does not match ErrConflict")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("wrapped error is not an *AppError")
	}
	if appErr.Message != "username already exists" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestForbidden(t *testing.T) {
	err := Forbidden("access denied")

	if !errors.Is(err, ErrForbidden) {
		t.Error("Forbidden() does not match ErrForbidden")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Forbidden() matches ErrNotFound")
	}
}
