package header

import (
	"strings"
	"unicode/utf8"

	"github.com/ghettovoice/multipart/internal/errorutil"
	"github.com/ghettovoice/multipart/internal/grammar"
)

// Reasons reported for header lines dropped by [ParseBlockFunc].
const (
	ErrInvalidEncoding errorutil.Error = "header block is not valid UTF-8"
	ErrMissingColon    errorutil.Error = "header line has no colon"
	ErrInvalidName     errorutil.Error = "invalid header name"
	ErrInvalidValue    errorutil.Error = "invalid header value"
)

// ValidName reports whether name is a syntactically valid header field name (RFC 7230 token).
func ValidName(name string) bool { return grammar.IsToken(name) }

// ValidValue reports whether value is a syntactically valid single-line header field value.
func ValidValue(value string) bool { return grammar.IsFieldValue(value) }

// ParseBlock parses a header block, the bytes preceding the first empty line of a part.
//
// Parsing is best-effort and never fails. A block that is not valid UTF-8 yields an empty header.
// The block is trimmed and split into lines; each non-empty line is split at the first colon into
// a name and a value, the value is trimmed. Lines without a colon, with an invalid name or value
// are dropped. A later line with the same name (case-insensitive) overrides the earlier value.
// Folded continuation lines are not supported, they are dropped as lines with an invalid name.
func ParseBlock(block []byte) *Header {
	return ParseBlockFunc(block, nil)
}

// ParseBlockFunc parses a header block like [ParseBlock] and calls drop for every rejected line
// with the reason of the rejection. When the whole block is rejected due to invalid encoding,
// drop is called once with the whole block and [ErrInvalidEncoding]. Drop may be nil.
func ParseBlockFunc(block []byte, drop func(line string, reason error)) *Header {
	hdr := &Header{}
	if !utf8.Valid(block) {
		if drop != nil {
			drop(string(block), ErrInvalidEncoding)
		}
		return hdr
	}

	for line := range strings.SplitSeq(strings.TrimSpace(string(block)), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		var reason error
		switch {
		case !ok:
			reason = ErrMissingColon
		case !ValidName(name):
			reason = ErrInvalidName
		default:
			value = strings.TrimSpace(value)
			if !ValidValue(value) {
				reason = ErrInvalidValue
			}
		}
		if reason != nil {
			if drop != nil {
				drop(line, reason)
			}
			continue
		}

		hdr.Set(name, value)
	}
	return hdr
}
