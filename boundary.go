package multipart

import (
	"bytes"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/multipart/internal/constraints"
	"github.com/ghettovoice/multipart/internal/grammar"
)

var boundaryMarker = []byte("boundary=")

// ExtractBoundary returns the raw bytes following the first "boundary=" marker
// in a header value, usually a Content-Type value like "multipart/mixed; boundary=XYZ".
//
// The marker is matched case-sensitively. The remainder is returned as is:
// no trailing parameters, quotes or whitespace are removed, use [ParseBoundary] for that.
// When v is a byte slice, the result shares its memory.
// The second result is false if there is no marker.
func ExtractBoundary[T constraints.Byteseq](v T) ([]byte, bool) {
	b := []byte(v)
	i := bytes.Index(b, boundaryMarker)
	if i < 0 {
		return nil, false
	}
	return b[i+len(boundaryMarker):], true
}

// ParseBoundary returns the boundary parameter of a Content-Type value.
// Unlike [ExtractBoundary] it cuts the value at the next parameter, trims whitespace
// and unquotes a quoted boundary.
//
// It returns [ErrBoundaryNotFound] if there is no boundary parameter
// and [ErrInvalidArgument] if the boundary is empty.
func ParseBoundary(contentType string) (string, error) {
	raw, ok := ExtractBoundary(contentType)
	if !ok {
		return "", errtrace.Wrap(ErrBoundaryNotFound)
	}

	s := string(raw)
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	s = grammar.Unquote(strings.TrimSpace(s))
	if s == "" {
		return "", errtrace.Wrap(NewInvalidArgumentError("empty boundary"))
	}
	return s, nil
}

// ValidateBoundary checks that boundary conforms to RFC 2046:
// 1 to 70 characters from the allowed set, not ending with a space.
// The reader itself accepts any non-empty boundary.
func ValidateBoundary(boundary string) error {
	if !grammar.IsBoundary(boundary) {
		return errtrace.Wrap(NewInvalidArgumentError("boundary %q is not allowed by RFC 2046", boundary))
	}
	return nil
}
