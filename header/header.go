package header

//go:generate go tool errtrace -w .

import (
	"encoding/json"
	"io"
	"iter"
	"log/slog"
	"net/textproto"
	"slices"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/multipart/internal/errorutil"
	"github.com/ghettovoice/multipart/internal/grammar"
	"github.com/ghettovoice/multipart/internal/ioutil"
	"github.com/ghettovoice/multipart/internal/util"
)

// Name represents a header field name.
type Name string

// ToCanonic converts the Name to its canonical form.
func (n Name) ToCanonic() Name { return CanonicName(n) }

// IsValid checks whether the Name is syntactically valid.
func (n Name) IsValid() bool { return grammar.IsToken(n) }

// Equal compares this Name with another for equality.
func (n Name) Equal(val any) bool {
	var other Name
	switch v := val.(type) {
	case Name:
		other = v
	case *Name:
		if v == nil {
			return false
		}
		other = *v
	case string:
		other = Name(v)
	default:
		return false
	}
	return strings.EqualFold(string(n), string(other))
}

var hdrNames = map[string]Name{
	"Content-Id":       "Content-ID",
	"Content-Md5":      "Content-MD5",
	"Etag":             "ETag",
	"Mime-Version":     "MIME-Version",
	"Www-Authenticate": "WWW-Authenticate",
}

// CanonicName converts name to the canonical form.
// The canonicalization converts the first letter and any letter following a hyphen to upper case;
// the rest are converted to lowercase. For example, the canonical name for "content-type" is "Content-Type".
// Well-known MIME names keep their conventional spelling, e.g. "content-id" converts to "Content-ID".
// Names with characters not allowed in a token are returned unchanged.
func CanonicName[T ~string](name T) Name {
	name = util.TrimSP(name)
	name = T(textproto.CanonicalMIMEHeaderKey(string(name)))
	if n, ok := hdrNames[string(name)]; ok {
		return n
	}
	return Name(name)
}

// Entry is a single header field.
type Entry struct {
	Name  Name   `json:"name"`
	Value string `json:"value"`
}

// Header is a collection of header fields of a single part.
//
// Fields keep insertion order. Names are compared case-insensitively and
// every name holds exactly one value: setting an existing name replaces its value
// in place, so the last write wins and the field keeps its first position.
//
// The zero value is an empty header ready to use.
// A nil *Header is a valid empty read-only header.
type Header struct {
	entries []Entry
	index   map[string]int // lower-cased name -> entries index
}

// New creates a header from the given entries, applying them in order with [Header.Set].
func New(entries ...Entry) *Header {
	hdr := &Header{}
	for _, e := range entries {
		hdr.Set(string(e.Name), e.Value)
	}
	return hdr
}

func hdrKey(name string) string { return util.FoldKey(name) }

// Len returns the number of fields.
func (hdr *Header) Len() int {
	if hdr == nil {
		return 0
	}
	return len(hdr.entries)
}

// Lookup returns the value of the named field and whether it is present.
func (hdr *Header) Lookup(name string) (string, bool) {
	if hdr == nil {
		return "", false
	}
	i, ok := hdr.index[hdrKey(name)]
	if !ok {
		return "", false
	}
	return hdr.entries[i].Value, true
}

// Get returns the value of the named field or empty string if it is absent.
func (hdr *Header) Get(name string) string {
	v, _ := hdr.Lookup(name)
	return v
}

// Has checks whether the named field is present.
func (hdr *Header) Has(name string) bool {
	_, ok := hdr.Lookup(name)
	return ok
}

// Set sets the named field to value.
// An existing field is updated in place, a new one is appended.
func (hdr *Header) Set(name, value string) *Header {
	key := hdrKey(name)
	if i, ok := hdr.index[key]; ok {
		hdr.entries[i].Value = value
		return hdr
	}
	if hdr.index == nil {
		hdr.index = make(map[string]int)
	}
	hdr.index[key] = len(hdr.entries)
	hdr.entries = append(hdr.entries, Entry{CanonicName(name), value})
	return hdr
}

// Del removes the named field.
func (hdr *Header) Del(name string) *Header {
	if hdr == nil {
		return nil
	}

	key := hdrKey(name)
	i, ok := hdr.index[key]
	if !ok {
		return hdr
	}
	hdr.entries = slices.Delete(hdr.entries, i, i+1)
	delete(hdr.index, key)
	for j := i; j < len(hdr.entries); j++ {
		hdr.index[hdrKey(string(hdr.entries[j].Name))] = j
	}
	return hdr
}

// Names returns field names in insertion order.
func (hdr *Header) Names() []Name {
	if hdr == nil {
		return nil
	}
	names := make([]Name, len(hdr.entries))
	for i := range hdr.entries {
		names[i] = hdr.entries[i].Name
	}
	return names
}

// All returns an iterator over the fields in insertion order.
func (hdr *Header) All() iter.Seq2[Name, string] {
	return func(yield func(Name, string) bool) {
		if hdr == nil {
			return
		}
		for _, e := range hdr.entries {
			if !yield(e.Name, e.Value) {
				return
			}
		}
	}
}

// Entries returns a copy of the fields in insertion order.
func (hdr *Header) Entries() []Entry {
	if hdr == nil {
		return nil
	}
	return slices.Clone(hdr.entries)
}

// MIMEHeader converts the header to [textproto.MIMEHeader].
// Field order is lost.
func (hdr *Header) MIMEHeader() textproto.MIMEHeader {
	mh := make(textproto.MIMEHeader, hdr.Len())
	for n, v := range hdr.All() {
		mh[string(n)] = []string{v}
	}
	return mh
}

// Clone returns a deep copy of the header.
func (hdr *Header) Clone() *Header {
	if hdr == nil {
		return nil
	}
	hdr2 := &Header{
		entries: slices.Clone(hdr.entries),
		index:   make(map[string]int, len(hdr.index)),
	}
	for k, i := range hdr.index {
		hdr2.index[k] = i
	}
	return hdr2
}

// Equal reports whether both headers contain the same fields.
// Names are compared case-insensitively, values exactly, order is ignored.
func (hdr *Header) Equal(val any) bool {
	var other *Header
	switch v := val.(type) {
	case Header:
		other = &v
	case *Header:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	} else if hdr.Len() != other.Len() {
		return false
	}

	for n, v := range hdr.All() {
		if ov, ok := other.Lookup(string(n)); !ok || ov != v {
			return false
		}
	}
	return true
}

// RenderTo writes the fields to w in insertion order, each as "Name: value" followed by CRLF.
func (hdr *Header) RenderTo(w io.Writer) (num int, err error) {
	if hdr == nil {
		return 0, nil
	}

	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for _, e := range hdr.entries {
		cw.WriteStrings(string(e.Name), ": ", e.Value, "\r\n")
	}
	return errtrace.Wrap2(cw.Result())
}

// Render returns the fields rendered as by [Header.RenderTo].
func (hdr *Header) Render() string {
	if hdr == nil {
		return ""
	}

	sb := util.GetBuilder()
	defer util.PutBuilder(sb)
	hdr.RenderTo(sb) //nolint:errcheck
	return sb.String()
}

func (hdr *Header) String() string { return hdr.Render() }

func (hdr *Header) LogValue() slog.Value {
	if hdr == nil {
		return slog.GroupValue()
	}
	attrs := make([]slog.Attr, len(hdr.entries))
	for i, e := range hdr.entries {
		attrs[i] = slog.String(string(e.Name), e.Value)
	}
	return slog.GroupValue(attrs...)
}

// MarshalJSON encodes the header as an ordered array of {"name","value"} objects.
func (hdr *Header) MarshalJSON() ([]byte, error) {
	entries := hdr.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	return errtrace.Wrap2(json.Marshal(entries))
}

// UnmarshalJSON decodes the header from the form produced by [Header.MarshalJSON].
// Fields with invalid names or values are rejected.
func (hdr *Header) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return errtrace.Wrap(err)
	}

	*hdr = Header{}
	for _, e := range entries {
		if !ValidName(string(e.Name)) {
			*hdr = Header{}
			return errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid header name %q", e.Name))
		}
		if !ValidValue(e.Value) {
			*hdr = Header{}
			return errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid value of header %q", e.Name))
		}
		hdr.Set(string(e.Name), e.Value)
	}
	return nil
}
