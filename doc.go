// Package multipart splits fully buffered multipart payloads, such as batch API responses,
// into parts with parsed headers and raw bodies.
//
// The payload is searched for "--" followed by the boundary. Bytes between two consecutive
// occurrences form a part: a header block, an empty line ("\r\n\r\n") and the body.
// The boundary is usually taken from the Content-Type header of the enclosing message:
//
//	boundary, err := multipart.ParseBoundary(resp.Header.Get("Content-Type"))
//	if err != nil {
//		return err
//	}
//	r, err := multipart.NewReader(boundary, body, nil)
//	if err != nil {
//		return err
//	}
//	for p, err := range r.All() {
//		if err != nil {
//			// a malformed part, the reader continues with the next one
//			continue
//		}
//		fmt.Println(p.ContentID(), len(p.Body))
//	}
//
// The reader is lenient in what it accepts. Header lines that can not be parsed
// are dropped (see [header.ParseBlock]), a preamble before the first boundary is skipped
// and the body bytes are returned exactly as in the payload, including the line break
// that precedes the next delimiter.
// Transfer encodings and charsets are not decoded, see the entity package for that.
package multipart

//go:generate go tool errtrace -w .
