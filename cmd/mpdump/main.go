// Command mpdump prints the parts of a multipart payload.
//
// Usage:
//
//	mpdump [flags] file|-
//	mpdump -listen :8080
//
// The boundary is taken from -content-type or given directly with -boundary.
// With -listen the parser is served over HTTP instead.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ghettovoice/multipart"
	"github.com/ghettovoice/multipart/batch"
	"github.com/ghettovoice/multipart/entity"
	"github.com/ghettovoice/multipart/internal/httpapi"
	"github.com/ghettovoice/multipart/internal/log"
	"github.com/ghettovoice/multipart/internal/mmap"
)

type config struct {
	contentType   string
	boundary      string
	strict        bool
	skipMalformed bool
	maxParts      int
	json          bool
	body          bool
	decode        bool
	batch         bool
	listen        string
	dev           bool
	verbose       bool
	input         string
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	var cfg config

	fs := flag.NewFlagSet("mpdump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.contentType, "content-type", "", "Content-Type `value` carrying the boundary parameter")
	fs.StringVar(&cfg.boundary, "boundary", "", "boundary `token`, overrides -content-type")
	fs.BoolVar(&cfg.strict, "strict", false, "reject boundaries not allowed by RFC 2046")
	fs.BoolVar(&cfg.skipMalformed, "skip-malformed", false, "do not report malformed parts")
	fs.IntVar(&cfg.maxParts, "max-parts", 0, "maximum number of parts to read, 0 means no limit")
	fs.BoolVar(&cfg.json, "json", false, "print parts as JSON lines")
	fs.BoolVar(&cfg.body, "body", false, "print part bodies")
	fs.BoolVar(&cfg.decode, "decode", false, "decode transfer encoding and charset of printed bodies")
	fs.BoolVar(&cfg.batch, "batch", false, "treat parts as HTTP responses of a batch")
	fs.StringVar(&cfg.listen, "listen", "", "serve the HTTP API on `addr` instead of reading a file")
	fs.BoolVar(&cfg.dev, "dev", false, "use the developer log format")
	fs.BoolVar(&cfg.verbose, "v", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: mpdump [flags] file|-\n       mpdump -listen addr\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.listen != "" {
		return &cfg, nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one input file")
	}
	cfg.input = fs.Arg(0)

	if cfg.boundary == "" {
		if cfg.contentType == "" {
			return nil, errors.New("either -boundary or -content-type is required")
		}
		b, err := multipart.ParseBoundary(cfg.contentType)
		if err != nil {
			return nil, fmt.Errorf("parse -content-type: %w", err)
		}
		cfg.boundary = b
	}
	if cfg.strict {
		if err := multipart.ValidateBoundary(cfg.boundary); err != nil {
			return nil, err
		}
	}
	if cfg.batch {
		cfg.contentType = "multipart/mixed; boundary=" + strconv.Quote(cfg.boundary)
	}
	return &cfg, nil
}

func newLogger(cfg *config) *slog.Logger {
	l := log.Def
	if cfg.dev {
		l = log.Dev
	}
	if !cfg.verbose {
		l = log.Level(l, slog.LevelInfo)
	}
	return l
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "mpdump: %v\n", err)
		return 2
	}

	logger := newLogger(cfg)
	log.SetDefault(logger)
	logger.Debug("starting mpdump", slog.Any("config", log.FmtValue(*cfg, false)))

	if cfg.listen != "" {
		if err := serve(cfg, logger); err != nil {
			logger.Error("server failed", slog.Any("error", err))
			return 1
		}
		return 0
	}

	if err := dump(cfg, stdout, logger); err != nil {
		logger.Error("dump failed", slog.String("input", cfg.input), slog.Any("error", err))
		return 1
	}
	return 0
}

func load(input string) (*mmap.File, error) {
	if input == "-" {
		return mmap.Read(os.Stdin)
	}
	return mmap.Open(input)
}

func dump(cfg *config, w io.Writer, logger *slog.Logger) error {
	f, err := load(cfg.input)
	if err != nil {
		return err
	}
	defer f.Close()

	logger.Debug("payload loaded", slog.String("input", cfg.input), slog.Int("size", len(f.Bytes())), slog.Bool("mapped", f.Mapped()))

	if cfg.batch {
		return dumpBatch(cfg, f.Bytes(), w, logger)
	}

	r, err := multipart.NewReader(cfg.boundary, f.Bytes(), &multipart.ReaderOptions{
		Log:           logger,
		SkipMalformed: cfg.skipMalformed,
		MaxParts:      cfg.maxParts,
	})
	if err != nil {
		return err
	}

	var enc *json.Encoder
	if cfg.json {
		enc = json.NewEncoder(w)
	}
	for p, err := range r.All() {
		if err != nil {
			if !errors.Is(err, multipart.ErrMalformedPart) {
				return err
			}
			logger.Warn("malformed part", slog.Any("error", err))
			continue
		}
		if cfg.decode {
			decodePart(p, logger)
		}
		if enc != nil {
			if err := enc.Encode(p); err != nil {
				return err
			}
			continue
		}
		if err := printPart(w, p, cfg.body); err != nil {
			return err
		}
	}
	return nil
}

func decodePart(p *multipart.Part, logger *slog.Logger) {
	body, err := entity.ReadBody(p)
	if err != nil {
		logger.Warn("failed to decode part body", slog.Int("part", p.Index), slog.Any("error", err))
		if body == nil {
			return
		}
	}
	p.Body = body
}

func printPart(w io.Writer, p *multipart.Part, withBody bool) error {
	if _, err := fmt.Fprintf(w, "--- part #%d (offset %d, body %d bytes)\n", p.Index, p.Offset, len(p.Body)); err != nil {
		return err
	}
	if withBody {
		if _, err := p.RenderTo(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}
	_, err := p.Header.RenderTo(w)
	return err
}

type batchLine struct {
	Index     int         `json:"index"`
	ContentID string      `json:"content_id,omitempty"`
	Status    int         `json:"status"`
	Header    http.Header `json:"header,omitempty"`
	Body      string      `json:"body,omitempty"`
}

func dumpBatch(cfg *config, payload []byte, w io.Writer, logger *slog.Logger) error {
	enc := json.NewEncoder(w)
	for resp, err := range batch.ReadResponses(cfg.contentType, payload, &batch.Options{Log: logger, MaxParts: cfg.maxParts}) {
		if err != nil {
			if resp == nil && !errors.Is(err, multipart.ErrMalformedPart) &&
				!errors.Is(err, batch.ErrNotHTTPPart) && !errors.Is(err, batch.ErrMalformedResponse) {
				return err
			}
			logger.Warn("skip batch part", slog.Any("error", err))
			continue
		}

		line := batchLine{
			Index:     resp.Index,
			ContentID: resp.ContentID,
			Status:    resp.HTTP.StatusCode,
			Header:    resp.HTTP.Header,
		}
		if cfg.body {
			b, err := io.ReadAll(resp.HTTP.Body)
			if err != nil {
				return err
			}
			line.Body = string(b)
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

func serve(cfg *config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr: cfg.listen,
		Handler: httpapi.NewRouter(&httpapi.Options{
			Log:      logger,
			MaxParts: cfg.maxParts,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.listen))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
