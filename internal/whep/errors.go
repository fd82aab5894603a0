package whep

import (
	"errors"
	"fmt"
)

// Kind classifies a signaling failure.
type Kind int

const (
	// KindInvalidArgument covers unsupported URL schemes and a missing teardown locator.
	KindInvalidArgument Kind = iota + 1
	// KindAllocation means a bounded buffer could not be sized.
	KindAllocation
	// KindEngine means the WebRTC engine rejected an offer or description commit.
	KindEngine
	// KindTransport means the HTTP exchange failed or returned a non-2xx status.
	KindTransport
	// KindEmptyResponse means the server answered successfully with no SDP.
	KindEmptyResponse
	// KindMissingLocator is only produced when the client requires a Location header.
	KindMissingLocator
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindAllocation:
		return "allocation_failure"
	case KindEngine:
		return "engine_error"
	case KindTransport:
		return "transport_error"
	case KindEmptyResponse:
		return "empty_response"
	case KindMissingLocator:
		return "missing_locator"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrInvalidArgument = errors.New("whep: invalid argument")
	ErrAllocation      = errors.New("whep: allocation failure")
	ErrEngine          = errors.New("whep: engine error")
	ErrTransport       = errors.New("whep: transport error")
	ErrEmptyResponse   = errors.New("whep: empty response")
	ErrMissingLocator  = errors.New("whep: missing session locator")
)

var kindSentinels = map[Kind]error{
	KindInvalidArgument: ErrInvalidArgument,
	KindAllocation:      ErrAllocation,
	KindEngine:          ErrEngine,
	KindTransport:       ErrTransport,
	KindEmptyResponse:   ErrEmptyResponse,
	KindMissingLocator:  ErrMissingLocator,
}

// Error is the tagged result of a failed Establish or Terminate.
type Error struct {
	Kind Kind
	// Op is "establish" or "terminate".
	Op string
	// StatusCode is set for transport errors that got an HTTP response.
	StatusCode int
	Msg        string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("whep %s: %s: %s", e.Op, e.Kind, e.Msg)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the Kind carried by err, or 0 when err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(op string, kind Kind, err error, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}
