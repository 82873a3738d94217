package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/leengari/tablestore/internal/codec"
	"github.com/leengari/tablestore/internal/domain/data"
	"github.com/leengari/tablestore/internal/query"
)

// Query returns the rows of a table matching all conditions. See QueryContext.
func (s *Store) Query(title string, conds []query.Condition) (*data.QueryResult, error) {
	return s.QueryContext(context.Background(), title, conds)
}

// QueryContext scans the committed rows of a table in chunks of at most
// ChunkLength rows and returns those satisfying every condition, in the
// order they were written. With no conditions every row is returned.
func (s *Store) QueryContext(ctx context.Context, title string, conds []query.Condition) (result *data.QueryResult, err error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	opID := uuid.NewString()
	ctx, span := s.tel.start(ctx, "tablestore.Query",
		attribute.String("op_id", opID),
		attribute.String("table", title),
		attribute.Int("conditions", len(conds)),
	)
	defer func() { endSpan(span, err) }()

	s.notify(Event{Type: EventQueryStart, OpID: opID, Table: title, Data: conds})

	t, err := s.openTable(title)
	if err != nil {
		return nil, err
	}

	matcher, err := query.Compile(t.schema, conds)
	if err != nil {
		return nil, err
	}

	result = &data.QueryResult{
		Table:  title,
		Fields: t.schema.FieldNames(),
		Types:  t.schema.Types(),
		Rows:   make([]data.Row, 0),
	}

	width := t.schema.RowWidth
	chunk := make([]byte, s.opts.chunkLength*width)
	var scanned int64

	for start := int64(0); ; {
		n, err := t.rows.ReadRows(chunk, start)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q at row %d: %w", title, start, err)
		}
		if n == 0 {
			break
		}

		for i := 0; i < n; i++ {
			row, ok, err := codec.Decode(t.schema, chunk[i*width:(i+1)*width], matcher, s.values)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %q row %d: %w", title, start+int64(i), err)
			}
			if ok {
				result.Rows = append(result.Rows, row)
			}
		}

		start += int64(n)
		scanned += int64(n)
	}

	s.tel.rowsScanned.Add(ctx, scanned, tableAttr(title))
	s.tel.rowsMatched.Add(ctx, int64(len(result.Rows)), tableAttr(title))
	span.SetAttributes(
		attribute.Int64("rows_scanned", scanned),
		attribute.Int("rows_matched", len(result.Rows)),
	)

	s.logger.Debug("query finished",
		slog.String("table", title),
		slog.Int("conditions", matcher.Len()),
		slog.Int64("scanned", scanned),
		slog.Int("matched", len(result.Rows)),
	)
	s.notify(Event{Type: EventQueryEnd, OpID: opID, Table: title, Data: len(result.Rows)})
	return result, nil
}
