package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "error with cause",
			err: Wrap(KindStorage, "queue.save", "failed to persist entry",
				errors.New("disk full")),
			contains: []string{"[storage:queue.save]", "failed to persist entry", "disk full"},
		},
		{
			name:     "error without cause",
			err:      New(KindProvider, "synthesize", "provider disabled"),
			contains: []string{"[provider:synthesize]", "provider disabled"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(errStr, substr) {
					t.Errorf("error string %q does not contain %q", errStr, substr)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := Wrap(KindConfig, "load", "wrapped", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Unwrap should return the original error")
	}
}

func TestWrap_NilError(t *testing.T) {
	if Wrap(KindConfig, "load", "ignored", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{
			name:     "direct error kind match",
			err:      New(KindPlayback, "play", "device busy"),
			kind:     KindPlayback,
			expected: true,
		},
		{
			name:     "wrapped error kind match",
			err:      Wrap(KindDomain, "advance", "message", errors.New("cause")),
			kind:     KindDomain,
			expected: true,
		},
		{
			name:     "error kind mismatch",
			err:      New(KindConfig, "load", "message"),
			kind:     KindDomain,
			expected: false,
		},
		{
			name:     "non-typed error",
			err:      errors.New("plain error"),
			kind:     KindConfig,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsKind(tt.err, tt.kind)
			if result != tt.expected {
				t.Errorf("IsKind() = %v, expected %v", result, tt.expected)
			}
		})
	}
}
