package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind represents the category of error that occurred while loading quotes
type ErrorKind string

const (
	// KindNetworkUnavailable indicates a transient connectivity failure
	KindNetworkUnavailable ErrorKind = "network_unavailable"
	// KindLoadFailed indicates a generic fetch failure
	KindLoadFailed ErrorKind = "load_failed"
	// KindInvalidResponse indicates a payload that is present but empty or semantically invalid
	KindInvalidResponse ErrorKind = "invalid_response"
	// KindDecodingFailed indicates a malformed or unparseable payload
	KindDecodingFailed ErrorKind = "decoding_failed"
	// KindFileNotFound indicates the expected resource is missing
	KindFileNotFound ErrorKind = "file_not_found"
	// KindUnknown is any error that does not match a known kind
	KindUnknown ErrorKind = "unknown"
)

// Retryable reports whether errors of this kind are worth another attempt.
// Unknown kinds are treated as permanent.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindNetworkUnavailable, KindLoadFailed:
		return true
	default:
		return false
	}
}

// FetchError represents a structured error from a data source
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	// Resource names the missing file or URL for KindFileNotFound.
	Resource string
	Message  string
	Cause    error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

// Retryable reports whether the error is worth another attempt. It follows
// the kind, so literals built without a constructor agree with IsRetryable.
func (e *FetchError) Retryable() bool {
	return e.Kind.Retryable()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is matches another *FetchError of the same kind, so callers can write
// errors.Is(err, &FetchError{Kind: KindDecodingFailed}).
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*FetchError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, message string, cause error) *FetchError {
	return &FetchError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// NewNetworkUnavailableError creates a connectivity error
func NewNetworkUnavailableError(cause error) *FetchError {
	return newError(KindNetworkUnavailable, "network connection unavailable", cause)
}

// NewLoadFailedError creates a generic load failure
func NewLoadFailedError(message string, cause error) *FetchError {
	return newError(KindLoadFailed, message, cause)
}

// NewInvalidResponseError creates an error for an empty or invalid payload
func NewInvalidResponseError(message string) *FetchError {
	return newError(KindInvalidResponse, message, nil)
}

// NewDecodingFailedError creates an error for a payload that could not be decoded
func NewDecodingFailedError(cause error) *FetchError {
	return newError(KindDecodingFailed, "failed to decode quotes", cause)
}

// NewFileNotFoundError creates an error for a missing resource
func NewFileNotFoundError(resource string, cause error) *FetchError {
	e := newError(KindFileNotFound, fmt.Sprintf("required data file %q not found", resource), cause)
	e.Resource = resource
	return e
}

// Classify returns err as a *FetchError. Errors that carry no kind are
// wrapped as KindUnknown and are not retryable. Classify returns nil for a nil error.
func Classify(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{
		Kind:    KindUnknown,
		Message: "an unexpected error occurred",
		Cause:   err,
	}
}

// IsRetryable reports whether err should trigger another attempt. The
// decision is made from the error kind alone.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Kind.Retryable()
}

// ClassifyHTTPError classifies an HTTP status code into an appropriate FetchError
func ClassifyHTTPError(statusCode int) *FetchError {
	var e *FetchError
	switch {
	case statusCode == http.StatusNotFound:
		e = newError(KindFileNotFound, "resource not found", nil)
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusTooManyRequests:
		e = newError(KindLoadFailed, "request was not served, try again later", nil)
	case statusCode >= 500:
		e = newError(KindLoadFailed, "server returned an error", nil)
	case statusCode >= 400:
		e = newError(KindInvalidResponse, fmt.Sprintf("client error: HTTP %d", statusCode), nil)
	default:
		e = &FetchError{
			Kind:    KindUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", statusCode),
		}
	}
	e.StatusCode = statusCode
	return e
}
