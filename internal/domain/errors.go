package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for search operations
var (
	// ErrTransport indicates the search request did not produce a usable response
	ErrTransport = errors.New("photo search request failed")

	// ErrDecode indicates the response body could not be decoded into SearchResults
	ErrDecode = errors.New("malformed search response")

	// ErrAuthFailed indicates the access key was rejected
	ErrAuthFailed = errors.New("access key is invalid")
)

// TransportError describes a network or HTTP level failure.
// Status is 0 when no response was received.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", ErrTransport, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is matches ErrTransport, and ErrAuthFailed for 401 replies
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return true
	case ErrAuthFailed:
		return e.Status == 401
	}
	return false
}

// DecodeError wraps the reason a response body was rejected
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
