package birddog

import (
	"errors"
	"fmt"
)

// ErrorType categorizes failures talking to the device.
type ErrorType int

const (
	// ErrTypeNetwork indicates a connection-level failure (refused, timeout, DNS)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates a non-success HTTP status from the device
	ErrTypeHTTP
	// ErrTypeAuth indicates a web-interface login or logout failure
	ErrTypeAuth
	// ErrTypeDecode indicates a response body that is neither the expected
	// JSON shape nor the expected raw form
	ErrTypeDecode
	// ErrTypeProtocol indicates a violated device-protocol invariant: a page
	// missing required form controls, a request issued before login, or an
	// acknowledgement not matching the expected literal
	ErrTypeProtocol
	// ErrTypeLookup indicates a source index with no matching entry
	ErrTypeLookup
	// ErrTypeValidation indicates an invalid caller-supplied value
	ErrTypeValidation
)

// String returns a human-readable name for the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeLookup:
		return "Lookup Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError is an error from device communication. Failures surface
// unchanged to the caller: the client never retries, backs off, or reports
// partial success, so every DeviceError describes exactly one failed call.
type DeviceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a connection-level error
func NewNetworkError(message string, err error) *DeviceError {
	return &DeviceError{Type: ErrTypeNetwork, Message: message, Err: err}
}

// NewHTTPError creates an error for a non-success HTTP status
func NewHTTPError(statusCode int, message string) *DeviceError {
	return &DeviceError{Type: ErrTypeHTTP, Message: message, StatusCode: statusCode}
}

// NewAuthError creates a web-interface authentication error
func NewAuthError(message string, err error) *DeviceError {
	return &DeviceError{Type: ErrTypeAuth, Message: message, Err: err}
}

// NewDecodeError creates an error for an undecodable or incomplete response
func NewDecodeError(message string, err error) *DeviceError {
	return &DeviceError{Type: ErrTypeDecode, Message: message, Err: err}
}

// NewProtocolError creates an error for a violated protocol invariant
func NewProtocolError(message string) *DeviceError {
	return &DeviceError{Type: ErrTypeProtocol, Message: message}
}

// NewLookupError creates an error for a failed source lookup
func NewLookupError(message string) *DeviceError {
	return &DeviceError{Type: ErrTypeLookup, Message: message}
}

// NewValidationError creates an error for an invalid caller-supplied value
func NewValidationError(message string) *DeviceError {
	return &DeviceError{Type: ErrTypeValidation, Message: message}
}

func isErrorType(err error, et ErrorType) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == et
	}
	return false
}

// IsNetworkError checks if an error is a connection-level error
func IsNetworkError(err error) bool { return isErrorType(err, ErrTypeNetwork) }

// IsHTTPError checks if an error is a non-success HTTP status error
func IsHTTPError(err error) bool { return isErrorType(err, ErrTypeHTTP) }

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool { return isErrorType(err, ErrTypeAuth) }

// IsDecodeError checks if an error is a decode error
func IsDecodeError(err error) bool { return isErrorType(err, ErrTypeDecode) }

// IsProtocolError checks if an error is a protocol invariant violation
func IsProtocolError(err error) bool { return isErrorType(err, ErrTypeProtocol) }

// IsLookupError checks if an error is a lookup error
func IsLookupError(err error) bool { return isErrorType(err, ErrTypeLookup) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return isErrorType(err, ErrTypeValidation) }

// ShortMessage returns a concise, user-friendly message for CLI display.
func ShortMessage(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeNetwork:
		return "Device unreachable - check the address and network connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Device error (HTTP %d)", devErr.StatusCode)
	case ErrTypeAuth:
		return "Web interface login failed - check the password"
	case ErrTypeDecode:
		return "Failed to decode device response"
	case ErrTypeProtocol:
		return devErr.Message
	case ErrTypeLookup:
		return devErr.Message
	case ErrTypeValidation:
		return devErr.Message
	default:
		return devErr.Message
	}
}
