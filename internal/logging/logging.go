package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// Output formats for the console handler
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatZap  = "zap"
)

// Options selects the console handler and an optional Seq sink
type Options struct {
	Level  slog.Level
	Format string
	// SeqURL enables shipping logs to Seq when non-empty
	SeqURL string
	// Output defaults to os.Stderr
	Output    io.Writer
	AddSource bool
}

// multiHandler forwards log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	// Enable if any handler is enabled for this level
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
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

// SetupLogger builds the logger described by opts and returns a cleanup
// function that flushes buffered sinks.
func SetupLogger(opts Options) (*slog.Logger, func()) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	var console slog.Handler
	cleanups := []func(){}

	switch opts.Format {
	case FormatJSON:
		console = slog.NewJSONHandler(out, handlerOpts)
	case FormatZap:
		zh := NewZapHandler(out, opts.Level)
		console = zh
		cleanups = append(cleanups, func() { _ = zh.Sync() })
	default:
		console = slog.NewTextHandler(out, handlerOpts)
	}

	handlers := []slog.Handler{console}

	if opts.SeqURL != "" {
		_, seqHandler := slogseq.NewLogger(
			opts.SeqURL,
			slogseq.WithBatchSize(50),
			slogseq.WithFlushInterval(500*time.Millisecond),
			slogseq.WithHandlerOptions(handlerOpts),
		)
		// If Seq is not available, use console only
		if seqHandler != nil {
			handlers = append(handlers, seqHandler)
			cleanups = append(cleanups, func() { seqHandler.Close() })
		}
	}

	closeFn := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	if len(handlers) == 1 {
		return slog.New(console), closeFn
	}
	return slog.New(&multiHandler{handlers: handlers}), closeFn
}
