package multipart

import (
	"io"
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/multipart/header"
	"github.com/ghettovoice/multipart/internal/ioutil"
)

// Part is a single part of a multipart payload.
// It owns its header and body, both are copied out of the payload.
type Part struct {
	// Index is the zero-based position of the part in the payload.
	Index int `json:"index"`
	// Offset is the byte offset of the part segment in the payload.
	Offset int `json:"offset"`
	// Header holds the header fields parsed from the part header block.
	Header *header.Header `json:"header"`
	// Body holds the bytes following the empty line that ends the header block, exactly as in the payload.
	Body []byte `json:"body"`
}

// ContentType returns the Content-Type header value of the part.
func (p *Part) ContentType() string {
	if p == nil {
		return ""
	}
	return p.Header.Get("Content-Type")
}

// ContentID returns the Content-ID header value of the part.
func (p *Part) ContentID() string {
	if p == nil {
		return ""
	}
	return p.Header.Get("Content-ID")
}

// RenderTo writes the part header fields, an empty line and the body to w.
func (p *Part) RenderTo(w io.Writer) (num int, err error) {
	if p == nil {
		return 0, nil
	}

	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	if _, err := p.Header.RenderTo(cw); err == nil {
		cw.WriteString("\r\n") //nolint:errcheck
		cw.Write(p.Body)       //nolint:errcheck
	}
	return errtrace.Wrap2(cw.Result())
}

func (p *Part) LogValue() slog.Value {
	if p == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Int("index", p.Index),
		slog.Int("offset", p.Offset),
		slog.Any("header", p.Header),
		slog.Int("body_len", len(p.Body)),
	)
}
