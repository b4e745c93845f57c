// Package grammar implements the ABNF rules used to validate header fields
// and multipart boundaries.
//
// Rules follow RFC 7230 Section 3.2 (field-name, field-value) and
// RFC 2046 Section 5.1.1 (boundary).
package grammar

//go:generate go tool errtrace -w .

import (
	"strconv"

	"github.com/ghettovoice/abnf"
)

func init() {
	abnf.EnableNodeCache(10 * 1024)
}

func char(c byte) abnf.Operator {
	return abnf.Range(strconv.QuoteRune(rune(c)), []byte{c}, []byte{c})
}

func chars(key, cs string) abnf.Operator {
	ops := make([]abnf.Operator, len(cs))
	for i := range len(cs) {
		ops[i] = char(cs[i])
	}
	return abnf.AltFirst(key, ops[0], ops[1:]...)
}

var (
	alpha = abnf.AltFirst(
		"ALPHA",
		abnf.Range("%x41-5A", []byte{0x41}, []byte{0x5A}),
		abnf.Range("%x61-7A", []byte{0x61}, []byte{0x7A}),
	)
	digit   = abnf.Range("DIGIT", []byte{0x30}, []byte{0x39})
	vchar   = abnf.Range("VCHAR", []byte{0x21}, []byte{0x7E})
	obsText = abnf.Range("obs-text", []byte{0x80}, []byte{0xFF})
	sp      = char(' ')
	htab    = char('\t')

	// tchar = "!" / "#" / "$" / "%" / "&" / "'" / "*" / "+" / "-" / "." /
	//         "^" / "_" / "`" / "|" / "~" / DIGIT / ALPHA
	tchar = abnf.AltFirst("tchar", alpha, digit, chars("tchar-special", "!#$%&'*+-.^_`|~"))
	token = abnf.Repeat1Inf("token", tchar)

	// field-value = *( VCHAR / obs-text / SP / HTAB )
	fieldValue = abnf.Repeat0Inf("field-value", abnf.AltFirst("field-vchar", vchar, obsText, sp, htab))

	// bcharsnospace = DIGIT / ALPHA / "'" / "(" / ")" / "+" / "_" / "," /
	//                 "-" / "." / "/" / ":" / "=" / "?"
	bcharsnospace = abnf.AltFirst("bcharsnospace", alpha, digit, chars("bchars-special", "'()+_,-./:=?"))
	bchars        = abnf.AltFirst("bchars", bcharsnospace, sp)
	boundary      = abnf.Repeat1Inf("boundary", bchars)
)

func matchAll(op abnf.Operator, s []byte) bool {
	ns := abnf.NewNodes()
	defer ns.Free()

	if err := op(s, 0, ns); err != nil {
		return false
	}
	return ns.Best().Len() == len(s)
}

// IsToken reports whether s is an RFC 7230 token, i.e. a valid header field name.
func IsToken[T ~string | ~[]byte](s T) bool {
	if len(s) == 0 {
		return false
	}
	return matchAll(token, []byte(s))
}

// IsFieldValue reports whether s is a valid single-line header field value.
// Control characters other than HTAB are rejected, the empty value is valid.
func IsFieldValue[T ~string | ~[]byte](s T) bool {
	if len(s) == 0 {
		return true
	}
	return matchAll(fieldValue, []byte(s))
}

// MaxBoundaryLen is the maximum boundary length allowed by RFC 2046.
const MaxBoundaryLen = 70

// IsBoundary reports whether s is a boundary allowed by RFC 2046:
// 1 to 70 bchars not ending with a space.
func IsBoundary[T ~string | ~[]byte](s T) bool {
	if len(s) == 0 || len(s) > MaxBoundaryLen || s[len(s)-1] == ' ' {
		return false
	}
	return matchAll(boundary, []byte(s))
}

// Unquote removes surrounding double quotes and backslash escapes from s.
// If s is not a quoted string, it is returned as is.
func Unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	if qs, err := strconv.Unquote(s); err == nil {
		return qs
	}
	return s[1 : len(s)-1]
}
