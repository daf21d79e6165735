package apod

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a request did not produce entries
type ErrorKind int

const (
	// KindNone means no error occurred
	KindNone ErrorKind = iota
	// KindBadRequest is a 400 reported by the APOD service
	KindBadRequest
	// KindDateOutOfRange means a requested date falls outside the valid window
	KindDateOutOfRange
	// KindStartDateAfterEndDate means a range was requested backwards
	KindStartDateAfterEndDate
	// KindCountOutOfRange means a random count outside 1..100 was requested
	KindCountOutOfRange
	// KindInternalServiceError is a 500 reported by the APOD service
	KindInternalServiceError
	// KindAPIKeyMissing means the gateway did not receive an API key
	KindAPIKeyMissing
	// KindAPIKeyInvalid means the gateway rejected the API key
	KindAPIKeyInvalid
	// KindTimeout means the service answered with its HTML timeout page
	KindTimeout
	// KindOverRateLimit means the API key exceeded its rate limit
	KindOverRateLimit
	// KindUnknown covers every unrecognised failure
	KindUnknown
	// KindDisposed means the client was used after Close
	KindDisposed
)

// String returns the string representation of an ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindBadRequest:
		return "BadRequest"
	case KindDateOutOfRange:
		return "DateOutOfRange"
	case KindStartDateAfterEndDate:
		return "StartDateAfterEndDate"
	case KindCountOutOfRange:
		return "CountOutOfRange"
	case KindInternalServiceError:
		return "InternalServiceError"
	case KindAPIKeyMissing:
		return "ApiKeyMissing"
	case KindAPIKeyInvalid:
		return "ApiKeyInvalid"
	case KindTimeout:
		return "Timeout"
	case KindOverRateLimit:
		return "OverRateLimit"
	case KindDisposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}

// Error messages attached to the ErrorInfo values built by this package
const (
	msgStartDateAfterEndDate = "The start date cannot be after the end date."
	msgCountOutOfRange       = "The count must be positive and cannot exceed 100."
	msgTimeout               = "The API timed out."
	msgAPIKeyMissing         = "No API key was supplied."
	msgAPIKeyInvalid         = "An invalid API key was supplied."
	msgOverRateLimit         = "The API key has exceeded its rate limit."
	msgUnknown               = "An unknown error occurred."
	msgDisposed              = "The client has been closed."
)

// ErrorInfo describes a failed request. A zero ErrorInfo (Kind == KindNone)
// means success.
type ErrorInfo struct {
	Kind    ErrorKind
	Message string
}

// noError is the success sentinel returned by validators and classifiers
var noError = ErrorInfo{Kind: KindNone}

// Error implements the error interface
func (e ErrorInfo) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apod: %s", e.Kind)
	}
	return fmt.Sprintf("apod: %s: %s", e.Kind, e.Message)
}

// IsNone reports whether the ErrorInfo is the success sentinel
func (e ErrorInfo) IsNone() bool {
	return e.Kind == KindNone
}

// Common errors
var (
	// ErrDisposed is returned by every operation of a closed Client
	ErrDisposed error = ErrorInfo{Kind: KindDisposed, Message: msgDisposed}
	// ErrNilTransport indicates a transport returned neither a response nor an error
	ErrNilTransport = errors.New("apod: transport returned no response")
)

// TransportError wraps a network-level failure of the transport. It is never
// classified into an ErrorKind; callers receive it as the error return.
type TransportError struct {
	Operation string
	Err       error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("apod: %s request failed: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying transport error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError indicates a successful response whose body could not be
// decoded into entries
type DecodeError struct {
	Operation string
	Body      string
	Err       error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("apod: failed to decode %s response: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying decode error
func (e *DecodeError) Unwrap() error {
	return e.Err
}
