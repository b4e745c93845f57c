// Package httpapi exposes the multipart parser over HTTP.
//
// Routes:
//
//	GET  /healthz  liveness probe
//	POST /parts    splits the request body into parts, the boundary is taken from the request Content-Type
//	POST /batch    decodes the request body as a batch of HTTP responses
package httpapi

//go:generate go tool errtrace -w .

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ghettovoice/multipart"
	"github.com/ghettovoice/multipart/batch"
	"github.com/ghettovoice/multipart/internal/log"
)

// DefaultMaxBodySize is the request body limit used when [Options.MaxBodySize] is zero.
const DefaultMaxBodySize = 32 << 20

// Options are optional settings of the API.
type Options struct {
	// Log is the logger used by handlers.
	// If nil, the [log.Default] is used.
	Log *slog.Logger
	// MaxBodySize limits request body size in bytes.
	// If zero, the [DefaultMaxBodySize] is used.
	MaxBodySize int64
	// MaxParts limits the number of parts read from a request body, see [multipart.ReaderOptions].
	MaxParts int
}

func (o *Options) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

func (o *Options) maxBodySize() int64 {
	if o == nil || o.MaxBodySize <= 0 {
		return DefaultMaxBodySize
	}
	return o.MaxBodySize
}

func (o *Options) maxParts() int {
	if o == nil {
		return 0
	}
	return o.MaxParts
}

type handlers struct {
	log         *slog.Logger
	maxBodySize int64
	maxParts    int
}

// NewRouter creates the API handler.
// Options are optional, default options are used if nil (see [Options]).
func NewRouter(opts *Options) http.Handler {
	h := &handlers{
		log:         opts.log(),
		maxBodySize: opts.maxBodySize(),
		maxParts:    opts.maxParts(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Post("/parts", h.parts)
	r.Post("/batch", h.batch)
	return r
}

func (h *handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.log.LogAttrs(r.Context(), slog.LevelInfo, "request served",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (*handlers) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n") //nolint:errcheck
}

type partsResponse struct {
	Parts  []*multipart.Part `json:"parts"`
	Errors []string          `json:"errors,omitempty"`
}

func (h *handlers) parts(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	boundary, err := multipart.ParseBoundary(r.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	rdr, err := multipart.NewReader(boundary, body, &multipart.ReaderOptions{Log: h.log, MaxParts: h.maxParts})
	if err != nil {
		h.writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	resp := partsResponse{Parts: []*multipart.Part{}}
	for p, err := range rdr.All() {
		if err != nil {
			if errors.Is(err, multipart.ErrTooManyParts) {
				h.writeError(w, r, http.StatusRequestEntityTooLarge, err)
				return
			}
			resp.Errors = append(resp.Errors, err.Error())
			continue
		}
		resp.Parts = append(resp.Parts, p)
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

type batchItem struct {
	Index     int         `json:"index"`
	ContentID string      `json:"content_id,omitempty"`
	Status    int         `json:"status"`
	Header    http.Header `json:"header"`
	Body      string      `json:"body"`
}

type batchResponse struct {
	Responses []batchItem `json:"responses"`
	Errors    []string    `json:"errors,omitempty"`
}

func (h *handlers) batch(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	resp := batchResponse{Responses: []batchItem{}}
	opts := &batch.Options{Log: h.log, MaxParts: h.maxParts}
	for br, err := range batch.ReadResponses(r.Header.Get("Content-Type"), body, opts) {
		switch {
		case errors.Is(err, multipart.ErrBoundaryNotFound), errors.Is(err, multipart.ErrInvalidArgument):
			h.writeError(w, r, http.StatusBadRequest, err)
			return
		case errors.Is(err, multipart.ErrMalformedMultipart):
			h.writeError(w, r, http.StatusUnprocessableEntity, err)
			return
		case errors.Is(err, multipart.ErrTooManyParts):
			h.writeError(w, r, http.StatusRequestEntityTooLarge, err)
			return
		case err != nil:
			resp.Errors = append(resp.Errors, err.Error())
			continue
		}

		b, err := io.ReadAll(br.HTTP.Body)
		if err != nil {
			resp.Errors = append(resp.Errors, err.Error())
			continue
		}
		resp.Responses = append(resp.Responses, batchItem{
			Index:     br.Index,
			ContentID: br.ContentID,
			Status:    br.HTTP.StatusCode,
			Header:    br.HTTP.Header,
			Body:      string(b),
		})
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *handlers) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge, err)
		} else {
			h.writeError(w, r, http.StatusBadRequest, err)
		}
		return nil, false
	}
	return body, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.log.LogAttrs(r.Context(), slog.LevelDebug, "request failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("status", status),
		slog.Any("error", err),
	)
	h.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func (h *handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.LogAttrs(r.Context(), slog.LevelWarn, "failed to write response", slog.Any("error", err))
	}
}
