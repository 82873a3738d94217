package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/leengari/tablestore/internal/codec"
	"github.com/leengari/tablestore/internal/digest"
	"github.com/leengari/tablestore/internal/domain/data"
	"github.com/leengari/tablestore/internal/storage/vlstore"
)

// NotifySummary reports what one Notify call wrote
type NotifySummary struct {
	Datums   int
	Appended int
	Rejected int
	Tables   int
}

// Notify writes a batch of datums. See NotifyContext.
func (s *Store) Notify(batch []*data.Datum) error {
	return s.NotifyContext(context.Background(), batch)
}

// NotifyContext groups the batch by title, preserving first-seen order, and
// appends each group to its table in one bulk write. The first datum of a
// title defines the table if it does not exist yet.
//
// Datums that do not match their table's schema are rejected and reported in
// the returned error; the rest of the batch is still written.
func (s *Store) NotifyContext(ctx context.Context, batch []*data.Datum) (err error) {
	if err := s.checkOpen(); err != nil {
		return err
	}

	opID := uuid.NewString()
	ctx, span := s.tel.start(ctx, "tablestore.Notify",
		attribute.String("op_id", opID),
		attribute.Int("datums", len(batch)),
	)
	defer func() { endSpan(span, err) }()

	s.notify(Event{Type: EventNotifyStart, OpID: opID, Data: len(batch)})

	summary := NotifySummary{Datums: len(batch)}
	for _, g := range groupByTitle(batch) {
		appended, rejected, groupErr := s.writeGroup(ctx, opID, g)
		summary.Appended += appended
		summary.Rejected += rejected
		summary.Tables++
		err = multierr.Append(err, groupErr)
	}

	span.SetAttributes(
		attribute.Int("rows_appended", summary.Appended),
		attribute.Int("datums_rejected", summary.Rejected),
	)
	s.notify(Event{Type: EventNotifyEnd, OpID: opID, Data: summary})
	return err
}

// group is the datums of one title, in input order
type group struct {
	title  string
	datums []*data.Datum
}

func groupByTitle(batch []*data.Datum) []*group {
	var groups []*group
	byTitle := make(map[string]*group)

	for _, d := range batch {
		if d == nil {
			continue
		}
		g, ok := byTitle[d.Title]
		if !ok {
			g = &group{title: d.Title}
			byTitle[d.Title] = g
			groups = append(groups, g)
		}
		g.datums = append(g.datums, d)
	}
	return groups
}

// writeGroup encodes the accepted datums of one title into a single buffer,
// syncs the value store, then appends and commits all rows at once.
func (s *Store) writeGroup(ctx context.Context, opID string, g *group) (appended, rejected int, err error) {
	t, err := s.ensureTable(ctx, opID, g.datums[0])
	if err != nil {
		s.tel.datumsRejected.Add(ctx, int64(len(g.datums)), tableAttr(g.title))
		return 0, len(g.datums), fmt.Errorf("failed to ensure table %q: %w", g.title, err)
	}

	width := t.schema.RowWidth
	buf := make([]byte, 0, len(g.datums)*width)
	row := make([]byte, width)
	putter := &countingPutter{ctx: ctx, values: s.values, tel: s.tel, title: g.title}

	for i, d := range g.datums {
		if encErr := codec.EncodeInto(row, t.schema, d, putter); encErr != nil {
			rejected++
			err = multierr.Append(err, fmt.Errorf("datum %d of %q rejected: %w", i, g.title, encErr))
			s.logger.Warn("datum rejected",
				slog.String("table", g.title),
				slog.Int("index", i),
				slog.Any("error", encErr),
			)
			s.notify(Event{Type: EventDatumRejected, OpID: opID, Table: g.title, Data: encErr})
			continue
		}
		buf = append(buf, row...)
	}
	if rejected > 0 {
		s.tel.datumsRejected.Add(ctx, int64(rejected), tableAttr(g.title))
	}

	if len(buf) == 0 {
		return 0, rejected, err
	}

	// values must be durable before rows that reference their digests
	if syncErr := s.values.Sync(); syncErr != nil {
		return 0, rejected, multierr.Append(err, fmt.Errorf("failed to sync values for %q: %w", g.title, syncErr))
	}

	if appendErr := t.rows.Append(buf); appendErr != nil {
		return 0, rejected, multierr.Append(err, fmt.Errorf("failed to append rows to %q: %w", g.title, appendErr))
	}

	appended = len(buf) / width
	s.tel.rowsAppended.Add(ctx, int64(appended), tableAttr(g.title))
	return appended, rejected, err
}

// countingPutter stores values and counts new versus already-present ones
type countingPutter struct {
	ctx    context.Context
	values *vlstore.Store
	tel    *telemetry
	title  string
}

func (p *countingPutter) Put(cat vlstore.Category, value []byte) (digest.Digest, error) {
	before := p.values.Len(cat)
	d, err := p.values.Put(cat, value)
	if err != nil {
		return d, err
	}
	if p.values.Len(cat) > before {
		p.tel.valuesStored.Add(p.ctx, 1, tableAttr(p.title))
	} else {
		p.tel.valuesDeduped.Add(p.ctx, 1, tableAttr(p.title))
	}
	return d, nil
}
