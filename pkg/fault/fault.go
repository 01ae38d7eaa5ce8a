package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so controllers and the UI can react differently
// to validation problems, broken streams, upstream AI errors and stale edits.
type Kind int

const (
	KindUnknown Kind = iota

	// KindValidation covers bad user input caught before any network call
	// (description too short, empty message, fewer than 2 source documents).
	KindValidation

	// KindStreamProtocol covers malformed frames and premature stream end.
	KindStreamProtocol

	// KindUpstream covers explicit error events and non-success responses
	// from the AI completion service.
	KindUpstream

	// KindStaleReference covers operations against records that changed
	// underneath the caller (e.g. accepting a suggestion for a deleted block).
	KindStaleReference

	// KindBackground marks failures of fire-and-forget work. Logged, never
	// surfaced to the user.
	KindBackground
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStreamProtocol:
		return "stream_protocol"
	case KindUpstream:
		return "upstream"
	case KindStaleReference:
		return "stale_reference"
	case KindBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Error is a tagged error. Every terminal state of a stream or operation is
// converted into exactly one Error before reaching the controller layer.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func StreamProtocol(format string, args ...interface{}) *Error {
	return New(KindStreamProtocol, format, args...)
}

func Upstream(format string, args ...interface{}) *Error {
	return New(KindUpstream, format, args...)
}

func StaleReference(format string, args ...interface{}) *Error {
	return New(KindStaleReference, format, args...)
}

// KindOf returns the Kind of err, or KindUnknown for untagged errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

func IsValidation(err error) bool     { return KindOf(err) == KindValidation }
func IsStreamProtocol(err error) bool { return KindOf(err) == KindStreamProtocol }
func IsUpstream(err error) bool       { return KindOf(err) == KindUpstream }
func IsStaleReference(err error) bool { return KindOf(err) == KindStaleReference }
