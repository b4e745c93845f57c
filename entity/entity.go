// Package entity decodes part bodies according to their MIME headers.
//
// A part returned by the multipart reader carries the body bytes exactly as they
// appear in the payload. [Decode] wraps the part into a go-message entity which
// undoes the Content-Transfer-Encoding (base64, quoted-printable) and converts
// text bodies with a charset parameter to UTF-8.
package entity

//go:generate go tool errtrace -w .

import (
	"bytes"
	"io"

	"braces.dev/errtrace"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/charmap"

	"github.com/ghettovoice/multipart"
	"github.com/ghettovoice/multipart/internal/errorutil"
)

func init() {
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// ErrUndecodable is returned when the transfer encoding or the charset of a part is unknown.
// The entity is still returned, its body yields the raw bytes.
const ErrUndecodable errorutil.Error = "undecodable part body"

// Header converts the part header into a go-message header.
func Header(p *multipart.Part) message.Header {
	var h message.Header
	for n, v := range p.Header.All() {
		h.Add(string(n), v)
	}
	return h
}

// Decode returns an entity reading the decoded body of part p.
//
// If the transfer encoding or the charset is unknown, the entity is returned
// together with an error matching [ErrUndecodable].
func Decode(p *multipart.Part) (*message.Entity, error) {
	if p == nil {
		return nil, errtrace.Wrap(multipart.NewInvalidArgumentError("nil part"))
	}

	e, err := message.New(Header(p), bytes.NewReader(p.Body))
	if err != nil {
		if message.IsUnknownEncoding(err) || message.IsUnknownCharset(err) {
			return e, errtrace.Wrap(errorutil.NewWrapperError(ErrUndecodable, err))
		}
		return nil, errtrace.Wrap(err)
	}
	return e, nil
}

// ReadBody decodes and reads the whole body of part p.
// On [ErrUndecodable] the raw body is returned along with the error.
func ReadBody(p *multipart.Part) ([]byte, error) {
	e, err := Decode(p)
	if e == nil {
		return nil, errtrace.Wrap(err)
	}

	body, rerr := io.ReadAll(e.Body)
	if rerr != nil {
		return nil, errtrace.Wrap(errorutil.JoinPrefix("read part body:", err, rerr))
	}
	return body, errtrace.Wrap(err)
}
