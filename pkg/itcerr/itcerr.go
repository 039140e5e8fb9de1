// Package itcerr defines the error taxonomy shared by the id, event, stamp
// and serdes packages.
//
// Every public operation in this module returns one of these kinds (wrapped
// in *Error) on failure, never a bare string error. Comparison uses the
// standard errors.Is against the sentinel Err* values below, mirroring how
// callers compare against cowbtree's sentinel errors.
package itcerr

import "fmt"

// Kind identifies which invariant or boundary check failed.
type Kind int

const (
	// InvalidParam marks a nil pointer or an out-of-range caller argument.
	InvalidParam Kind = iota + 1
	// CorruptId marks an Id tree that violates a structural or
	// normalization invariant.
	CorruptId
	// CorruptEvent marks an Event tree that violates a structural
	// invariant.
	CorruptEvent
	// CorruptStamp marks a Stamp with a nil id or nil event.
	CorruptStamp
	// EventCounterOverflow marks arithmetic that exceeds the configured
	// counter width.
	EventCounterOverflow
	// EventCounterUnderflow marks arithmetic that would go below zero.
	EventCounterUnderflow
	// InsufficientResources marks an allocator failure or an output
	// buffer too small to hold the result.
	InsufficientResources
	// EventUnsupportedCounterSize marks a decoded counter byte length
	// larger than this build's counter width supports.
	EventUnsupportedCounterSize
	// SerdesIncompatibleLibVersion marks a version-tag mismatch on
	// decode.
	SerdesIncompatibleLibVersion
)

func (k Kind) String() string {
	switch k {
	case InvalidParam:
		return "InvalidParam"
	case CorruptId:
		return "CorruptId"
	case CorruptEvent:
		return "CorruptEvent"
	case CorruptStamp:
		return "CorruptStamp"
	case EventCounterOverflow:
		return "EventCounterOverflow"
	case EventCounterUnderflow:
		return "EventCounterUnderflow"
	case InsufficientResources:
		return "InsufficientResources"
	case EventUnsupportedCounterSize:
		return "EventUnsupportedCounterSize"
	case SerdesIncompatibleLibVersion:
		return "SerdesIncompatibleLibVersion"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every operation in this
// module. It is never compared by pointer identity; use errors.Is against
// one of the sentinel values below, which all carry a Kind and no message
// and therefore compare equal to any *Error of the same Kind.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is implements the errors.Is contract: two *Error values match if they
// share a Kind, regardless of Msg. This lets callers write
// errors.Is(err, itcerr.ErrCorruptId) against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error with the given Kind and message.
func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

// Newf builds an *Error with a formatted message.
func Newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is comparisons, one per Kind, carrying no message.
var (
	ErrInvalidParam                 = &Error{Kind: InvalidParam}
	ErrCorruptId                    = &Error{Kind: CorruptId}
	ErrCorruptEvent                 = &Error{Kind: CorruptEvent}
	ErrCorruptStamp                 = &Error{Kind: CorruptStamp}
	ErrEventCounterOverflow         = &Error{Kind: EventCounterOverflow}
	ErrEventCounterUnderflow        = &Error{Kind: EventCounterUnderflow}
	ErrInsufficientResources        = &Error{Kind: InsufficientResources}
	ErrEventUnsupportedCounterSize  = &Error{Kind: EventUnsupportedCounterSize}
	ErrSerdesIncompatibleLibVersion = &Error{Kind: SerdesIncompatibleLibVersion}
)
