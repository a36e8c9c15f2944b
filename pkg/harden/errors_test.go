package harden

import (
	"errors"
	"fmt"
	"testing"
)

func TestHardenError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *HardenError
		expected string
	}{
		{
			name:     "with action",
			err:      NewHardenError(ErrorTypeSpawn, "cannot start process", "c17_disable_remote_login"),
			expected: "[spawn_error] cannot start process (action: c17_disable_remote_login)",
		},
		{
			name:     "without action",
			err:      NewHardenError(ErrorTypeInvalidRule, "missing kind", ""),
			expected: "[invalid_rule] missing kind",
		},
		{
			name:     "wrapped cause",
			err:      NewHardenError(ErrorTypeIO, "cannot open users directory", "/Users").Wrap(errBoom),
			expected: "[io_error] cannot open users directory: boom (action: /Users)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestHardenError_IsAndAs(t *testing.T) {
	err := fmt.Errorf("rule c34: %w", NewHardenError(ErrorTypeProbe, "probe command failed", "sysctl").Wrap(errBoom))

	if !errors.Is(err, &HardenError{Type: ErrorTypeProbe}) {
		t.Error("errors.Is should match on error type")
	}
	if errors.Is(err, &HardenError{Type: ErrorTypeSpawn}) {
		t.Error("errors.Is should not match a different type")
	}
	if !errors.Is(err, errBoom) {
		t.Error("errors.Is should reach the wrapped cause")
	}

	var hErr *HardenError
	if !errors.As(err, &hErr) {
		t.Fatal("errors.As should find the HardenError")
	}
	if hErr.Action != "sysctl" {
		t.Errorf("Action = %q, want %q", hErr.Action, "sysctl")
	}
}

func TestHardenError_WithContext(t *testing.T) {
	err := NewHardenError(ErrorTypeExecution, "process exited with non-zero status", "c1").
		WithContext("exit_code", 3)

	if err.Context["exit_code"] != 3 {
		t.Errorf("Context[exit_code] = %v, want 3", err.Context["exit_code"])
	}
}

func TestErrorTypeOf(t *testing.T) {
	if got := ErrorTypeOf(errBoom); got != "" {
		t.Errorf("ErrorTypeOf(plain) = %q, want empty", got)
	}
	if got := ErrorTypeOf(nil); got != "" {
		t.Errorf("ErrorTypeOf(nil) = %q, want empty", got)
	}
	wrapped := fmt.Errorf("outer: %w", NewHardenError(ErrorTypeTimeout, "action timed out", "c10"))
	if got := ErrorTypeOf(wrapped); got != ErrorTypeTimeout {
		t.Errorf("ErrorTypeOf(wrapped) = %q, want %q", got, ErrorTypeTimeout)
	}
}
