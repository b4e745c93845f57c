package multipart

import (
	"errors"
	"io"

	"braces.dev/errtrace"

	"github.com/ghettovoice/multipart/internal/errorutil"
)

// Visitor receives the parts read by [Walk].
type Visitor interface {
	// VisitPart is called for every well-formed part.
	VisitPart(p *Part) error
	// VisitMalformed is called for every malformed part.
	VisitMalformed(err *MalformedPartError) error
}

// VisitorFuncs adapts a pair of functions to the [Visitor] interface.
// A nil function accepts the visited value.
type VisitorFuncs struct {
	Part      func(p *Part) error
	Malformed func(err *MalformedPartError) error
}

func (v VisitorFuncs) VisitPart(p *Part) error {
	if v.Part == nil {
		return nil
	}
	return errtrace.Wrap(v.Part(p))
}

func (v VisitorFuncs) VisitMalformed(err *MalformedPartError) error {
	if v.Malformed == nil {
		return nil
	}
	return errtrace.Wrap(v.Malformed(err))
}

// Walk reads the remaining parts of r and passes them to v in payload order.
//
// Walk stops at the first error returned by v. [ErrStopWalk] stops the walk
// without error, any other error is returned as is.
func Walk(r *Reader, v Visitor) error {
	for {
		p, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var mpErr *MalformedPartError
			if !errors.As(err, &mpErr) {
				return errtrace.Wrap(err)
			}
			err = v.VisitMalformed(mpErr)
		} else {
			err = v.VisitPart(p)
		}

		if err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return errtrace.Wrap(err)
		}
	}
}

// Parse reads all parts of a multipart body described by the Content-Type value contentType.
//
// Well-formed parts are returned in payload order. Malformed parts are collected
// into the returned error, which then matches [ErrMalformedPart], together with the parts
// that were read successfully. A missing boundary or an unusable payload results
// in nil parts and an error.
func Parse(contentType string, body []byte, opts *ReaderOptions) ([]*Part, error) {
	boundary, err := ParseBoundary(contentType)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	r, err := NewReader(boundary, body, opts)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	var (
		parts []*Part
		errs  []error
	)
	err = Walk(r, VisitorFuncs{
		Part: func(p *Part) error {
			parts = append(parts, p)
			return nil
		},
		Malformed: func(err *MalformedPartError) error {
			errs = append(errs, err)
			return nil
		},
	})
	if err != nil {
		errs = append(errs, err)
	}
	return parts, errtrace.Wrap(errorutil.JoinPrefix("parse multipart:", errs...))
}
