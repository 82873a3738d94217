package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapHandler is a slog.Handler that writes through a zap core,
// producing zap's production JSON encoding.
type ZapHandler struct {
	core   zapcore.Core
	groups []string
}

// NewZapHandler creates a handler writing JSON lines to w at or above level
func NewZapHandler(w io.Writer, level slog.Level) *ZapHandler {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(zapLevel(level)),
	)
	return &ZapHandler{core: core}
}

// NewZapHandlerFromCore wraps an existing zap core
func NewZapHandlerFromCore(core zapcore.Core) *ZapHandler {
	return &ZapHandler{core: core}
}

func (h *ZapHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.core.Enabled(zapLevel(level))
}

func (h *ZapHandler) Handle(_ context.Context, r slog.Record) error {
	entry := zapcore.Entry{
		Level:   zapLevel(r.Level),
		Time:    r.Time,
		Message: r.Message,
	}

	ce := h.core.Check(entry, nil)
	if ce == nil {
		return nil
	}

	fields := make([]zapcore.Field, 0, r.NumAttrs())
	prefix := h.prefix()
	r.Attrs(func(a slog.Attr) bool {
		fields = appendFields(fields, prefix, a)
		return true
	})
	ce.Write(fields...)
	return nil
}

func (h *ZapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make([]zapcore.Field, 0, len(attrs))
	prefix := h.prefix()
	for _, a := range attrs {
		fields = appendFields(fields, prefix, a)
	}
	return &ZapHandler{core: h.core.With(fields), groups: h.groups}
}

func (h *ZapHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := append(append([]string(nil), h.groups...), name)
	return &ZapHandler{core: h.core, groups: groups}
}

// Sync flushes the underlying core
func (h *ZapHandler) Sync() error {
	return h.core.Sync()
}

func (h *ZapHandler) prefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

// appendFields converts one slog attribute, flattening groups into dotted keys
func appendFields(fields []zapcore.Field, prefix string, a slog.Attr) []zapcore.Field {
	v := a.Value.Resolve()
	if a.Key == "" && v.Kind() != slog.KindGroup {
		return fields
	}
	key := prefix + a.Key

	switch v.Kind() {
	case slog.KindString:
		return append(fields, zap.String(key, v.String()))
	case slog.KindInt64:
		return append(fields, zap.Int64(key, v.Int64()))
	case slog.KindUint64:
		return append(fields, zap.Uint64(key, v.Uint64()))
	case slog.KindFloat64:
		return append(fields, zap.Float64(key, v.Float64()))
	case slog.KindBool:
		return append(fields, zap.Bool(key, v.Bool()))
	case slog.KindDuration:
		return append(fields, zap.Duration(key, v.Duration()))
	case slog.KindTime:
		return append(fields, zap.Time(key, v.Time()))
	case slog.KindGroup:
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = key + "."
		}
		for _, ga := range v.Group() {
			fields = appendFields(fields, groupPrefix, ga)
		}
		return fields
	default:
		if err, ok := v.Any().(error); ok {
			return append(fields, zap.NamedError(key, err))
		}
		return append(fields, zap.Any(key, v.Any()))
	}
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
