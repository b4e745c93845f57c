package multipart

import (
	"fmt"

	"github.com/ghettovoice/multipart/internal/errorutil"
)

// Error represents a multipart error.
// See [errorutil.Error].
type Error = errorutil.Error

// Common errors.
const (
	ErrInvalidArgument = errorutil.ErrInvalidArgument
)

// Payload errors.
const (
	// ErrBoundaryNotFound is returned when a Content-Type value carries no boundary parameter.
	ErrBoundaryNotFound Error = "boundary not found"
	// ErrMalformedMultipart is returned when the payload lacks the opening or the closing boundary.
	// The whole payload is unusable.
	ErrMalformedMultipart Error = "malformed multipart"
	// ErrMalformedPart is returned for a part without the empty line separating headers from the body.
	// Reading can continue with the next part.
	ErrMalformedPart Error = "malformed part"
	// ErrTooManyParts is returned when the payload has more parts than allowed by [ReaderOptions.MaxParts].
	ErrTooManyParts Error = "too many parts"
)

// ErrStopWalk can be returned by a [Visitor] to stop [Walk] without error.
const ErrStopWalk Error = "stop walk"

// NewInvalidArgumentError creates a new error with [ErrInvalidArgument] or
// wraps provided error with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}

func newMalformedMultipartError(args ...any) error {
	return errorutil.NewWrapperError(ErrMalformedMultipart, args...) //errtrace:skip
}

func newTooManyPartsError(args ...any) error {
	return errorutil.NewWrapperError(ErrTooManyParts, args...) //errtrace:skip
}

// MalformedPartError describes a part whose header block is not terminated by an empty line.
// It matches [ErrMalformedPart] with [errors.Is].
type MalformedPartError struct {
	// Index is the zero-based position of the part in the payload.
	Index int
	// Offset is the byte offset of the part segment in the payload.
	Offset int
	// Len is the segment length in bytes.
	Len int
}

func (err *MalformedPartError) Error() string {
	if err == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s #%d (offset %d, %d bytes): no empty line after headers",
		ErrMalformedPart, err.Index, err.Offset, err.Len)
}

func (*MalformedPartError) Unwrap() error { return ErrMalformedPart }

// Is reports whether target is a [*MalformedPartError] describing the same part.
func (err *MalformedPartError) Is(target error) bool {
	other, ok := target.(*MalformedPartError)
	return ok && err != nil && other != nil && *err == *other
}
