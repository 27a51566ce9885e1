package session

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedSignal = errors.New("unexpected signal")
	ErrInvalidState     = errors.New("invalid session state")
	ErrPeerDisconnected = errors.New("peer disconnected")
	ErrSignalingError   = errors.New("signaling server error")
	ErrMediaUnavailable = errors.New("media source unavailable")
	ErrTimeout          = errors.New("timeout")
)

// NegotiationError is the recoverable error the session surfaces to its
// owner. The session never retries; the owner restarts the flow from join.
type NegotiationError struct {
	Op      string
	Err     error
	Details string
}

func (e *NegotiationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NegotiationError) Unwrap() error { return e.Err }

func NewError(op string, err error) *NegotiationError {
	return &NegotiationError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *NegotiationError {
	return &NegotiationError{Op: op, Err: err, Details: details}
}
