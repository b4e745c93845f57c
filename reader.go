package multipart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/multipart/header"
	"github.com/ghettovoice/multipart/internal/constraints"
	"github.com/ghettovoice/multipart/internal/log"
)

var (
	dashBoundary = []byte("--")
	blankLine    = []byte("\r\n\r\n")
)

// ReaderOptions are optional settings of a [Reader].
type ReaderOptions struct {
	// Log is the logger used by the reader.
	// If nil, the [log.Default] is used.
	Log *slog.Logger
	// SkipMalformed makes [Reader.Next] silently skip malformed parts
	// instead of returning [MalformedPartError].
	SkipMalformed bool
	// MaxParts limits the number of parts read from the payload, malformed parts included.
	// Zero means no limit.
	MaxParts int
}

func (o *ReaderOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

func (o *ReaderOptions) skipMalformed() bool { return o != nil && o.SkipMalformed }

func (o *ReaderOptions) maxParts() int {
	if o == nil || o.MaxParts < 0 {
		return 0
	}
	return o.MaxParts
}

type readerState uint8

const (
	readerReading readerState = iota
	readerExhausted
)

func (s readerState) String() string {
	switch s {
	case readerReading:
		return "reading"
	case readerExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

const (
	rdrEvtPart      = "part"
	rdrEvtMalformed = "malformed"
	rdrEvtEnd       = "end"
)

// Reader iterates over the parts of a fully buffered multipart payload.
//
// The reader never copies or modifies the payload, it only keeps offsets into it.
// Each part is copied out of the payload when it is returned.
// A Reader is not safe for concurrent use, the payload may be shared with other readers.
type Reader struct {
	token []byte // "--" + boundary
	buf   []byte
	pos   int // start of the next unconsumed segment
	end   int // offset of the closing boundary
	num   int // number of segments consumed

	skipMalformed bool
	maxParts      int

	fsm *stateless.StateMachine
	log *slog.Logger
}

// NewReader creates a reader of the multipart payload buf delimited with boundary.
//
// The boundary is given without the leading "--". Any preamble before the first boundary
// occurrence is skipped. Everything after the last boundary occurrence, the closing one,
// is ignored.
//
// It returns [ErrInvalidArgument] if boundary is empty and [ErrMalformedMultipart]
// if buf does not contain both the opening and the closing boundary.
// Options are optional, default options are used if nil (see [ReaderOptions]).
func NewReader[T constraints.Byteseq](boundary T, buf []byte, opts *ReaderOptions) (*Reader, error) {
	if len(boundary) == 0 {
		return nil, errtrace.Wrap(NewInvalidArgumentError("empty boundary"))
	}

	token := make([]byte, 0, len(dashBoundary)+len(boundary))
	token = append(token, dashBoundary...)
	token = append(token, boundary...)

	first := bytes.Index(buf, token)
	if first < 0 {
		return nil, errtrace.Wrap(newMalformedMultipartError("opening boundary not found"))
	}
	pos := first + len(token)
	end := bytes.LastIndex(buf, token)
	if end < pos {
		return nil, errtrace.Wrap(newMalformedMultipartError("closing boundary not found"))
	}

	r := &Reader{
		token:         token,
		buf:           buf,
		pos:           pos,
		end:           end,
		skipMalformed: opts.skipMalformed(),
		maxParts:      opts.maxParts(),
		log:           opts.log(),
	}
	r.log = r.log.With(slog.String("boundary", string(boundary)))
	r.initFSM()
	return r, nil
}

func (r *Reader) initFSM() {
	r.fsm = stateless.NewStateMachine(readerReading)
	r.fsm.Configure(readerReading).
		InternalTransition(rdrEvtPart, noop).
		InternalTransition(rdrEvtMalformed, noop).
		Permit(rdrEvtEnd, readerExhausted)
	r.fsm.Configure(readerExhausted).
		OnEntry(func(ctx context.Context, _ ...any) error {
			r.log.LogAttrs(ctx, slog.LevelDebug, "multipart reader exhausted", slog.Int("parts", r.num))
			return nil
		}).
		Ignore(rdrEvtEnd)
}

func noop(context.Context, ...any) error { return nil }

func (r *Reader) fire(evt string) {
	if err := r.fsm.Fire(evt); err != nil {
		panic(fmt.Errorf("fire %q in state %q: %w", evt, r.fsm.MustState(), err))
	}
}

// Exhausted reports whether the reader has returned all parts.
func (r *Reader) Exhausted() bool {
	return r.fsm.MustState() == readerExhausted
}

// Offset returns the byte offset of the next unconsumed segment in the payload.
func (r *Reader) Offset() int { return r.pos }

// Next returns the next part of the payload.
//
// It returns [io.EOF] when there are no more parts. Exhaustion is final:
// once Next returned [io.EOF], every following call returns [io.EOF] too.
// A part without the empty line between headers and body results in a [*MalformedPartError];
// the reader has already moved past it, so the next call continues with the following part.
func (r *Reader) Next() (*Part, error) {
	for {
		p, err := r.next()
		switch {
		case err == nil, err == io.EOF: //nolint:errorlint
			return p, err //errtrace:skip
		case r.skipMalformed && errors.Is(err, ErrMalformedPart):
			continue
		default:
			return nil, errtrace.Wrap(err)
		}
	}
}

func (r *Reader) next() (*Part, error) {
	if r.Exhausted() {
		return nil, io.EOF
	}

	i := bytes.Index(r.buf[r.pos:], r.token)
	if i < 0 {
		r.fire(rdrEvtEnd)
		return nil, io.EOF
	}

	start, stop := r.pos, r.pos+i
	if start == stop || start >= r.end {
		r.fire(rdrEvtEnd)
		return nil, io.EOF
	}

	if r.maxParts > 0 && r.num >= r.maxParts {
		r.fire(rdrEvtEnd)
		return nil, errtrace.Wrap(newTooManyPartsError("limit of %d parts reached", r.maxParts))
	}

	r.pos = stop + len(r.token)
	idx := r.num
	r.num++

	seg := r.buf[start:stop]
	sep := bytes.Index(seg, blankLine)
	if sep < 0 {
		r.fire(rdrEvtMalformed)
		err := &MalformedPartError{Index: idx, Offset: start, Len: len(seg)}
		r.log.Debug("malformed part", slog.Any("error", err))
		return nil, errtrace.Wrap(err)
	}

	p := &Part{
		Index:  idx,
		Offset: start,
		Header: header.ParseBlockFunc(seg[:sep], func(line string, reason error) {
			r.log.Debug("drop part header line",
				slog.Int("part", idx),
				slog.Any("line", log.StringValue(line)),
				slog.Any("reason", reason),
			)
		}),
		Body: bytes.Clone(seg[sep+len(blankLine):]),
	}
	r.fire(rdrEvtPart)
	r.log.Debug("part read", slog.Any("part", p))
	return p, nil
}

// All returns an iterator over the remaining parts.
// Malformed parts are yielded as errors and iteration continues,
// any other error is yielded once and stops the iteration.
func (r *Reader) All() iter.Seq2[*Part, error] {
	return func(yield func(*Part, error) bool) {
		for {
			p, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(p, err) {
				return
			}
			if err != nil && !errors.Is(err, ErrMalformedPart) {
				return
			}
		}
	}
}

// Parts returns an iterator over the remaining well-formed parts.
// Malformed parts are skipped, iteration stops on any other error.
func (r *Reader) Parts() iter.Seq[*Part] {
	return func(yield func(*Part) bool) {
		for p, err := range r.All() {
			if err != nil {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

func (r *Reader) LogValue() slog.Value {
	if r == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Any("boundary", log.StringValue(r.token[len(dashBoundary):])),
		slog.Int("size", len(r.buf)),
		slog.Int("pos", r.pos),
		slog.Int("end", r.end),
	)
}
