package engine

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultChunkLength is the number of rows a query reads per I/O
const DefaultChunkLength = 1000

// Option configures a Store at Open time
type Option func(*options)

type options struct {
	name           string
	chunkLength    int
	sync           bool
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

func defaultOptions() options {
	return options{
		name:           "tablestore",
		chunkLength:    DefaultChunkLength,
		sync:           true,
		logger:         slog.Default(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
}

// WithName sets the store name recorded in meta.json when the store is created
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithChunkLength sets how many rows a query reads at once
func WithChunkLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkLength = n
		}
	}
}

// WithSync controls whether row appends are fsynced before they are committed
func WithSync(sync bool) Option {
	return func(o *options) {
		o.sync = sync
	}
}

// WithLogger sets the logger used by the store
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracerProvider sets the provider for Notify/Query/EnsureSchema spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets the provider for the store's counters
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}
