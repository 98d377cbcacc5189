package research

import (
	"errors"
	"fmt"
	"strings"
)

// errNoChoices reports an upstream 200 with an empty choice list.
var errNoChoices = errors.New("no choices in response")

// ErrorKind classifies a provider error.
type ErrorKind string

const (
	// KindConfig means no usable credential is configured. Fatal, no retry.
	KindConfig ErrorKind = "config"
	// KindRequest means the upstream call itself failed.
	KindRequest ErrorKind = "request"
)

// Error is a structured provider error carrying enough context for the
// orchestrator to label the failed phase without unwrapping SDK internals.
type Error struct {
	Kind      ErrorKind
	Provider  Provider
	Model     string
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%s provider", e.Provider))
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewConfigError reports a missing or placeholder credential.
func NewConfigError(provider Provider) *Error {
	return &Error{
		Kind:     KindConfig,
		Provider: provider,
		Message:  "no API key configured",
	}
}

// NewRequestError wraps an upstream call failure.
func NewRequestError(provider Provider, model string, cause error) *Error {
	return &Error{
		Kind:      KindRequest,
		Provider:  provider,
		Model:     model,
		Message:   "request failed",
		Retryable: retryableCause(cause),
		Cause:     cause,
	}
}

// IsConfigError reports whether err is a missing-credential error.
func IsConfigError(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindConfig
}

// IsRequestError reports whether err is an upstream call failure.
func IsRequestError(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindRequest
}

// IsModelNotFound detects the "unknown model" class of upstream error that
// triggers the fallback-model sequence. Providers report it inconsistently,
// so this is a string match over the SDK error text.
func IsModelNotFound(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "model") {
		return false
	}
	for _, marker := range []string{"not found", "does not exist", "unknown model", "invalid model", "not_found", "no access to model"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// retryableCause pattern-matches transient upstream failures. The adapters
// themselves never retry (only the fallback-model sequence); retryability is
// surfaced for callers that wrap a whole orchestration.
func retryableCause(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "deadline exceeded", "connection refused", "connection reset", "429", "500", "502", "503", "504", "rate limit"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// isPlaceholderKey treats obvious template values as unconfigured so a
// copied sample config fails fast instead of burning a network call.
func isPlaceholderKey(key string) bool {
	if key == "" {
		return true
	}
	lower := strings.ToLower(key)
	for _, marker := range []string{"your-", "your_", "changeme", "placeholder", "xxxx"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
