package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
)

// Options configures SetupLogger
type Options struct {
	LogDir         string
	RetentionWeeks int
	MaxFileSize    int64
	ConsoleLevel   slog.Level
	FileLevel      slog.Level
	Console        io.Writer
}

func (o Options) withDefaults() Options {
	if o.RetentionWeeks <= 0 {
		o.RetentionWeeks = 4
	}
	if o.MaxFileSize < 0 {
		o.MaxFileSize = defaultMaxFileSize
	}
	if o.Console == nil {
		o.Console = os.Stdout
	}
	return o
}

// SetupLogger builds a logger writing text to the console and JSON to the rotating
// file. When the file cannot be opened the logger falls back to console only and
// the returned closer is a no-op.
func SetupLogger(opts Options) (*slog.Logger, io.Closer) {
	opts = opts.withDefaults()

	console := slog.NewTextHandler(opts.Console, &slog.HandlerOptions{Level: opts.ConsoleLevel})
	if opts.LogDir == "" {
		return slog.New(console), nopCloser{}
	}

	rotating := NewRotatingLoggerWithSizeLimit(opts.LogDir, opts.RetentionWeeks, opts.MaxFileSize)
	if err := rotating.Open(); err != nil {
		logger := slog.New(console)
		logger.Error("File logging disabled", "dir", opts.LogDir, "error", err)
		return logger, nopCloser{}
	}

	file := slog.NewJSONHandler(rotating, &slog.HandlerOptions{Level: opts.FileLevel})
	return slog.New(&multiHandler{handlers: []slog.Handler{console, file}}), rotating
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multiHandler fans a record out to every handler that accepts its level
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
