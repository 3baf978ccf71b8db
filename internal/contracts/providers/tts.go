// Package providers defines the capability contract every TTS backend
// adapter satisfies, plus the provider-level failure taxonomy the synthesis
// pipeline branches on.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Format identifies the container of the raw bytes an adapter returns.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// Provider is the single capability each backend implements. Adapters own
// their transport and credentials; option maps are provider-specific and
// passed through the pipeline opaquely — validating and formatting the
// option shape is the adapter's job.
type Provider interface {
	// ID returns the provider identifier used in configuration
	// (edge, azure, elevenlabs, polly, coqui, gtts).
	ID() string

	// DefaultVoice returns the configured default voice for this provider,
	// used when the provider appears in the fallback scan.
	DefaultVoice() string

	// Synthesize converts text to raw audio bytes. The context bounds the
	// attempt; adapters must honor cancellation. Failures are reported as
	// *AdapterError.
	Synthesize(ctx context.Context, text, voice string, options map[string]string) ([]byte, Format, error)
}

// FailureCode classifies a provider-level failure.
type FailureCode string

const (
	CodeUnavailable FailureCode = "unavailable"
	CodeAuthFailed  FailureCode = "auth_failed"
	CodeRateLimited FailureCode = "rate_limited"
	CodeTimeout     FailureCode = "timeout"
	CodeUnsupported FailureCode = "unsupported"
)

// AdapterError is a provider-level failure. All adapter errors move the
// pipeline to the next fallback candidate; none of them are retried against
// the same candidate.
type AdapterError struct {
	Provider string
	Code     FailureCode
	Cause    error
}

func (e *AdapterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Code, e.Cause)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Code)
}

func (e *AdapterError) Unwrap() error { return e.Cause }

func Unavailable(provider string, cause error) *AdapterError {
	return &AdapterError{Provider: provider, Code: CodeUnavailable, Cause: cause}
}

func AuthFailed(provider string, cause error) *AdapterError {
	return &AdapterError{Provider: provider, Code: CodeAuthFailed, Cause: cause}
}

func RateLimited(provider string, cause error) *AdapterError {
	return &AdapterError{Provider: provider, Code: CodeRateLimited, Cause: cause}
}

func Timeout(provider string, cause error) *AdapterError {
	return &AdapterError{Provider: provider, Code: CodeTimeout, Cause: cause}
}

func Unsupported(provider string, cause error) *AdapterError {
	return &AdapterError{Provider: provider, Code: CodeUnsupported, Cause: cause}
}

// CodeOf extracts the failure code from an error chain, or "" when the error
// is not an adapter failure.
func CodeOf(err error) FailureCode {
	var typed *AdapterError
	if errors.As(err, &typed) {
		return typed.Code
	}
	return ""
}

// FromHTTPStatus maps an HTTP response status to the failure taxonomy.
// Adapters built on REST backends share this mapping.
func FromHTTPStatus(provider string, status int, cause error) *AdapterError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return AuthFailed(provider, cause)
	case status == http.StatusTooManyRequests:
		return RateLimited(provider, cause)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return Unsupported(provider, cause)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return Timeout(provider, cause)
	default:
		return Unavailable(provider, cause)
	}
}

// FromTransport maps a transport error (connection refused, context
// deadline, ...) to the taxonomy. Context expiry becomes Timeout so the
// pipeline can tell a hung provider from a down one.
func FromTransport(provider string, err error) *AdapterError {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(provider, err)
	}
	return Unavailable(provider, err)
}
