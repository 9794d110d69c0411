package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
	err = New(ErrCodeCapabilityFailed, "boom", http.StatusBadGateway)
	if err.Retryable {
		t.Error("CAPABILITY_FAILED should not be retryable")
	}
}

func TestCapabilityNotFound(t *testing.T) {
	err := CapabilityNotFound("weather.lookup")
	if err.Code != ErrCodeCapabilityNotFound {
		t.Errorf("expected CAPABILITY_NOT_FOUND, got %s", err.Code)
	}
	if err.Message != "capability not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["capability"] != "weather.lookup" {
		t.Errorf("expected capability detail, got %v", err.Details)
	}
}

func TestCapabilityFailed_UsesCauseMessage(t *testing.T) {
	cause := fmt.Errorf("upstream returned 502")
	err := CapabilityFailed("weather.lookup", cause)
	if err.Message != "upstream returned 502" {
		t.Errorf("expected cause message, got %q", err.Message)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestCapabilityFailed_NilCause(t *testing.T) {
	err := CapabilityFailed("x", nil)
	if err.Message != "capability failed" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestTimeout(t *testing.T) {
	err := Timeout("task slow")
	if err.Code != ErrCodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "timed out") {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.HTTPStatus != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", err.HTTPStatus)
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := Validation("bad")
	if err.Error() != "INVALID_INPUT: bad" {
		t.Errorf("unexpected error string %q", err.Error())
	}

	wrapped := Internal(fmt.Errorf("disk full"))
	if !strings.Contains(wrapped.Error(), "cause: disk full") {
		t.Errorf("expected cause in error string, got %q", wrapped.Error())
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := MissingField("name").WithDetail("index", 2)
	if err.Details["field"] != "name" || err.Details["index"] != 2 {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("wrap: %w", Unauthorized(""))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Message != "Authentication required." {
		t.Errorf("unexpected message %q", appErr.Message)
	}

	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("plain error should not convert")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"app error", Timeout("x"), ErrCodeTimeout},
		{"wrapped", fmt.Errorf("ctx: %w", CapabilityNotFound("y")), ErrCodeCapabilityNotFound},
		{"plain", fmt.Errorf("plain"), ErrCodeInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeOf(tc.err); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestToResponse(t *testing.T) {
	resp := InvalidInput("tasks", "empty").ToResponse()
	if resp.Error.Code != ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", resp.Error.Code)
	}
	if resp.Error.Details["field"] != "tasks" {
		t.Errorf("expected field detail, got %v", resp.Error.Details)
	}
}
