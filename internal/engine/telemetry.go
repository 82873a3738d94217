package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/leengari/tablestore/internal/engine"

// telemetry bundles the tracer and counters of one Store
type telemetry struct {
	tracer trace.Tracer

	rowsAppended   metric.Int64Counter
	rowsScanned    metric.Int64Counter
	rowsMatched    metric.Int64Counter
	valuesStored   metric.Int64Counter
	valuesDeduped  metric.Int64Counter
	datumsRejected metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	meter := mp.Meter(instrumentationName)
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&t.rowsAppended, "tablestore.rows.appended", "Rows committed to row files"},
		{&t.rowsScanned, "tablestore.rows.scanned", "Rows read by queries"},
		{&t.rowsMatched, "tablestore.rows.matched", "Rows returned by queries"},
		{&t.valuesStored, "tablestore.values.stored", "Variable-length values written"},
		{&t.valuesDeduped, "tablestore.values.deduplicated", "Variable-length values already present"},
		{&t.datumsRejected, "tablestore.datums.rejected", "Datums rejected by Notify"},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	return t, nil
}

func tableAttr(title string) metric.AddOption {
	return metric.WithAttributes(attribute.String("table", title))
}

// endSpan records err on the span, if any, and ends it
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *telemetry) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
