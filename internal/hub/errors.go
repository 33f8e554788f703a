package hub

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error returned by the hub API
type ErrorType int

const (
	// ErrTypeInvalidArgument indicates a bad button, color or sound argument
	ErrTypeInvalidArgument ErrorType = iota
	// ErrTypeAlreadyPending indicates a request of the same kind is still outstanding
	ErrTypeAlreadyPending
	// ErrTypeConnectionLost indicates the session ended while the call was waiting
	ErrTypeConnectionLost
	// ErrTypeNotConnected indicates the session is not (or no longer) connected
	ErrTypeNotConnected
	// ErrTypeTimeout indicates the hub did not answer in time
	ErrTypeTimeout
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeInvalidArgument:
		return "Invalid Argument"
	case ErrTypeAlreadyPending:
		return "Already Pending"
	case ErrTypeConnectionLost:
		return "Connection Lost"
	case ErrTypeNotConnected:
		return "Not Connected"
	case ErrTypeTimeout:
		return "Timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ErrSessionClosed is the cause recorded when a session is closed on purpose
var ErrSessionClosed = errors.New("session closed")

// HubError represents an error returned by the hub control API
type HubError struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *HubError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *HubError) Unwrap() error {
	return e.Err
}

// NewInvalidArgumentError creates an invalid argument error
func NewInvalidArgumentError(message string) *HubError {
	return &HubError{Type: ErrTypeInvalidArgument, Message: message}
}

// NewAlreadyPendingError creates an error for a duplicate outstanding request
func NewAlreadyPendingError(message string) *HubError {
	return &HubError{Type: ErrTypeAlreadyPending, Message: message}
}

// NewConnectionLostError creates an error for a session that went away
func NewConnectionLostError(cause error) *HubError {
	return &HubError{Type: ErrTypeConnectionLost, Message: "connection to hub lost", Err: cause}
}

// NewNotConnectedError creates an error for calls made outside a live session
func NewNotConnectedError(state SessionState) *HubError {
	return &HubError{Type: ErrTypeNotConnected, Message: fmt.Sprintf("session is %s", state)}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *HubError {
	return &HubError{Type: ErrTypeTimeout, Message: message}
}

func hasType(err error, t ErrorType) bool {
	var hubErr *HubError
	if errors.As(err, &hubErr) {
		return hubErr.Type == t
	}
	return false
}

// IsInvalidArgument checks if an error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return hasType(err, ErrTypeInvalidArgument)
}

// IsAlreadyPending checks if an error is an already pending error
func IsAlreadyPending(err error) bool {
	return hasType(err, ErrTypeAlreadyPending)
}

// IsConnectionLost checks if an error is a connection lost error
func IsConnectionLost(err error) bool {
	return hasType(err, ErrTypeConnectionLost)
}

// IsNotConnected checks if an error is a not connected error
func IsNotConnected(err error) bool {
	return hasType(err, ErrTypeNotConnected)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return hasType(err, ErrTypeTimeout)
}
