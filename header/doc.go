// Package header provides the header collection of a multipart part and
// best-effort parsing of part header blocks.
//
// # Header
//
// [Header] is an ordered collection of fields with case-insensitive names.
// Every name holds a single value, setting a name again replaces the value
// but keeps the field position:
//
//	hdr := header.New()
//	hdr.Set("content-type", "text/plain")
//	hdr.Set("Content-ID", "response-1")
//	hdr.Set("CONTENT-TYPE", "application/json")
//	hdr.Render() // "Content-Type: application/json\r\nContent-ID: response-1\r\n"
//
// Names are stored in canonical form, see [CanonicName].
//
// # Parsing
//
// [ParseBlock] turns the raw header block of a part into a [Header].
// Header lines are treated as metadata of secondary importance, so
// parsing never fails: lines that can not be parsed are silently dropped.
// Use [ParseBlockFunc] to observe dropped lines.
//
// Header folding (continuation lines) of RFC 2045 is not supported.
//
// # JSON
//
// A header is encoded to JSON as an ordered array:
//
//	[{"name":"Content-Type","value":"application/json"}]
package header
