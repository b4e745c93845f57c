package util

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// TrimSP trims leading and trailing white space.
func TrimSP[T ~string](s T) T { return T(strings.TrimSpace(string(s))) }

// FoldKey returns s trimmed and lower-cased, suitable as a case-insensitive map key.
func FoldKey[T ~string](s T) string { return strings.ToLower(strings.TrimSpace(string(s))) }

// Preview returns at most maxLen bytes of b as a string, cut on a rune boundary.
// A cut preview ends with "...".
func Preview(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	n := maxLen
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}

// builders grown past this size are not returned to the pool
const maxPooledBuilder = 64 << 10

var bldrPool = sync.Pool{
	New: func() any {
		sb := new(strings.Builder)
		sb.Grow(512)
		return sb
	},
}

// GetBuilder returns an empty builder from the pool.
// It must be released with [PutBuilder] after the built string is taken.
func GetBuilder() *strings.Builder {
	return bldrPool.Get().(*strings.Builder) //nolint:forcetypeassert
}

func PutBuilder(sb *strings.Builder) {
	if sb.Cap() > maxPooledBuilder {
		return
	}
	sb.Reset()
	bldrPool.Put(sb)
}
