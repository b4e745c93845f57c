// Package batch reads batch API responses: multipart payloads whose parts
// carry complete HTTP responses (Content-Type: application/http).
//
// Each part is decoded into an [http.Response]:
//
//	for resp, err := range batch.ReadResponses(hdr.Get("Content-Type"), body, nil) {
//		if err != nil {
//			log.Println(err)
//			continue
//		}
//		fmt.Println(resp.ContentID, resp.HTTP.Status)
//	}
package batch

//go:generate go tool errtrace -w .

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/multipart"
	"github.com/ghettovoice/multipart/header"
	"github.com/ghettovoice/multipart/internal/errorutil"
	"github.com/ghettovoice/multipart/internal/log"
	"github.com/ghettovoice/multipart/internal/util"
)

// HTTPContentType is the media type of a part holding an HTTP message.
const HTTPContentType = "application/http"

const (
	// ErrNotHTTPPart is returned for a part whose media type is not [HTTPContentType].
	ErrNotHTTPPart errorutil.Error = "not an HTTP part"
	// ErrMalformedResponse is returned for an HTTP part that does not hold a valid HTTP response.
	ErrMalformedResponse errorutil.Error = "malformed HTTP response"
)

// Options are optional settings of [ReadResponses].
type Options struct {
	// Log is the logger used while reading.
	// If nil, the [log.Default] is used.
	Log *slog.Logger
	// MaxParts limits the number of parts read from the payload, see [multipart.ReaderOptions].
	MaxParts int
}

func (o *Options) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

func (o *Options) readerOptions() *multipart.ReaderOptions {
	opts := &multipart.ReaderOptions{Log: o.log()}
	if o != nil {
		opts.MaxParts = o.MaxParts
	}
	return opts
}

// Response is a single response of a batch.
type Response struct {
	// Index is the zero-based position of the part in the payload.
	Index int
	// ContentID is the Content-ID of the part, it usually refers to the request Content-ID.
	ContentID string
	// Header holds the part header fields.
	Header *header.Header
	// HTTP is the response carried by the part.
	// The body is backed by memory and does not need to be closed.
	HTTP *http.Response
}

func (r *Response) LogValue() slog.Value {
	if r == nil {
		return slog.Value{}
	}
	attrs := []slog.Attr{
		slog.Int("index", r.Index),
		slog.String("content_id", r.ContentID),
	}
	if r.HTTP != nil {
		attrs = append(attrs, slog.Int("status", r.HTTP.StatusCode))
	}
	return slog.GroupValue(attrs...)
}

// ReadResponses returns an iterator over the responses of a batch body described
// by the Content-Type value contentType.
//
// Per-part problems, such as a malformed part or a part that is not an HTTP response,
// are yielded as errors and iteration continues with the next part.
// An unusable payload yields a single error.
// Options are optional, default options are used if nil (see [Options]).
func ReadResponses(contentType string, body []byte, opts *Options) iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		boundary, err := multipart.ParseBoundary(contentType)
		if err != nil {
			yield(nil, errtrace.Wrap(err))
			return
		}
		r, err := multipart.NewReader(boundary, body, opts.readerOptions())
		if err != nil {
			yield(nil, errtrace.Wrap(err))
			return
		}

		logger := opts.log()
		for p, err := range r.All() {
			if err != nil {
				if !yield(nil, errtrace.Wrap(err)) {
					return
				}
				continue
			}

			resp, err := ReadResponse(p)
			if err != nil {
				logger.Debug("skip batch part", slog.Any("part", p), slog.Any("error", err))
			}
			if !yield(resp, errtrace.Wrap(err)) {
				return
			}
		}
	}
}

// ReadResponse decodes the HTTP response carried by part p.
func ReadResponse(p *multipart.Part) (*Response, error) {
	if p == nil {
		return nil, errtrace.Wrap(errorutil.NewInvalidArgumentError("nil part"))
	}
	if !isHTTPPart(p) {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrNotHTTPPart, "part #%d has content type %q", p.Index, p.ContentType()))
	}

	br := bufio.NewReader(bytes.NewReader(p.Body))
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedResponse, fmt.Errorf("part #%d: %w", p.Index, err)))
	}

	return &Response{
		Index:     p.Index,
		ContentID: p.ContentID(),
		Header:    p.Header,
		HTTP:      resp,
	}, nil
}

func isHTTPPart(p *multipart.Part) bool {
	mt, _, _ := strings.Cut(p.ContentType(), ";")
	return util.FoldKey(mt) == HTTPContentType
}

const contentIDPrefix = "response-"

// ContentIDIndex returns the numeric request index of a response Content-ID
// like "response-3" or "<response-3>".
// It returns [multipart.ErrInvalidArgument] if id has another form.
func ContentIDIndex(id string) (int, error) {
	id = strings.TrimSuffix(strings.TrimPrefix(util.TrimSP(id), "<"), ">")
	rest, ok := strings.CutPrefix(id, contentIDPrefix)
	if !ok {
		return 0, errtrace.Wrap(errorutil.NewInvalidArgumentError("content id %q has no %q prefix", id, contentIDPrefix))
	}
	idx, err := strconv.Atoi(rest)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, errtrace.Wrap(errorutil.NewInvalidArgumentError(fmt.Errorf("content id %q: %w", id, err)))
	}
	if idx < 0 {
		return 0, errtrace.Wrap(errorutil.NewInvalidArgumentError("content id %q has negative index", id))
	}
	return idx, nil
}
