package providers

import (
	"errors"
	"fmt"
)

// ErrorKind tags a ProviderError. Callers branch on the kind only.
type ErrorKind int

const (
	// KindRequestFailed covers transport, parsing, process-spawn and bootstrap failures.
	KindRequestFailed ErrorKind = iota + 1

	// KindRateLimitExceeded means the backend kept throttling after the local retry budget.
	KindRateLimitExceeded

	// KindUsageError means token usage could not be derived from a response.
	KindUsageError

	// KindOther is the catch-all for backend-specific terminal conditions.
	KindOther
)

// String returns the kind name used in error messages and metric labels.
func (k ErrorKind) String() string {
	switch k {
	case KindRequestFailed:
		return "request_failed"
	case KindRateLimitExceeded:
		return "rate_limit_exceeded"
	case KindUsageError:
		return "usage_error"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// ProviderError is the error returned by every Complete call.
type ProviderError struct {
	// Kind is the error category
	Kind ErrorKind

	// Message is the human-readable reason
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindRequestFailed:
		return "request failed: " + e.Message
	case KindRateLimitExceeded:
		return "rate limit exceeded: " + e.Message
	case KindUsageError:
		return "usage error: " + e.Message
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ProviderError of the same kind.
// This lets callers write errors.Is(err, providers.ErrRateLimitExceeded).
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons against the error kind.
var (
	ErrRequestFailed     = &ProviderError{Kind: KindRequestFailed}
	ErrRateLimitExceeded = &ProviderError{Kind: KindRateLimitExceeded}
	ErrUsage             = &ProviderError{Kind: KindUsageError}
	ErrOther             = &ProviderError{Kind: KindOther}
)

// RequestFailed builds a KindRequestFailed error.
func RequestFailed(format string, args ...interface{}) *ProviderError {
	return &ProviderError{Kind: KindRequestFailed, Message: fmt.Sprintf(format, args...)}
}

// RequestFailedWithCause builds a KindRequestFailed error that wraps cause.
func RequestFailedWithCause(cause error, format string, args ...interface{}) *ProviderError {
	return &ProviderError{Kind: KindRequestFailed, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// RateLimitExceeded builds a KindRateLimitExceeded error.
func RateLimitExceeded(format string, args ...interface{}) *ProviderError {
	return &ProviderError{Kind: KindRateLimitExceeded, Message: fmt.Sprintf(format, args...)}
}

// UsageError builds a KindUsageError error.
func UsageError(format string, args ...interface{}) *ProviderError {
	return &ProviderError{Kind: KindUsageError, Message: fmt.Sprintf(format, args...)}
}

// OtherError builds a KindOther error.
func OtherError(format string, args ...interface{}) *ProviderError {
	return &ProviderError{Kind: KindOther, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first ProviderError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries a ProviderError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ConfigError represents a provider construction failure.
// This occurs when a required key is missing or a configured value is malformed.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration key that is invalid
	Field string

	// Message describes the configuration error
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for %q: %s",
		e.Provider, e.Field, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
