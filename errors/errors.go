package errors

import (
	"errors"
	"fmt"
)

// Standard error variables for common pipeline conditions
var (
	// ErrEmptyAppID marks a request blocked by the admission guard before
	// transmission. It is always wrapped with Silent.
	ErrEmptyAppID = errors.New("request cancelled: empty app_id")

	// ErrRequestCancelled indicates the caller cancelled the request context.
	ErrRequestCancelled = errors.New("request cancelled by caller")

	// ErrMaxRetriesExceeded indicates the retry ceiling was reached.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")

	// ErrChannelNotConnected indicates a send on a realtime channel that is
	// not in the connected state.
	ErrChannelNotConnected = errors.New("realtime channel not connected")
)

// SilentError wraps errors that must produce no user-visible presentation,
// no log entry, and no fault report. The admission guard uses it to signal
// a caller-timing problem rather than a real failure.
type SilentError struct {
	Err error
}

func (e *SilentError) Error() string {
	return e.Err.Error()
}

func (e *SilentError) Unwrap() error {
	return e.Err
}

// Silent marks an error as suppressed end to end.
func Silent(err error) error {
	if err == nil {
		return nil
	}
	return &SilentError{Err: err}
}

// IsSilent checks whether an error is marked as suppressed.
func IsSilent(err error) bool {
	var se *SilentError
	return errors.As(err, &se)
}

// APIError is the terminal failure type produced by the HTTP client core.
// Status is zero when no HTTP response was received (network-level failure);
// EnvelopeCode is zero when the response carried no envelope.
type APIError struct {
	Method       string
	URL          string
	Status       int
	EnvelopeCode Code
	Message      string
	Attempts     int
	RequestBody  map[string]any
	ResponseBody any
	Err          error
}

func (e *APIError) Error() string {
	switch {
	case e.Status > 0 && e.EnvelopeCode != Success:
		return fmt.Sprintf("%s %s: status %d code %d: %s", e.Method, e.URL, e.Status, e.EnvelopeCode, e.Message)
	case e.Status > 0:
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HasResponse reports whether the failure carried an HTTP response at all.
func (e *APIError) HasResponse() bool {
	return e.Status > 0
}

// AsAPIError extracts an APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	ok := errors.As(err, &ae)
	return ae, ok
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// Is reports whether any error in err's chain matches target.
// Re-exported so callers do not need a second errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
