package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/leengari/tablestore/internal/domain/data"
	"github.com/leengari/tablestore/internal/domain/errors"
	"github.com/leengari/tablestore/internal/domain/schema"
	"github.com/leengari/tablestore/internal/storage/metadata"
	"github.com/leengari/tablestore/internal/storage/rowfile"
	"github.com/leengari/tablestore/internal/storage/writer"
)

// EnsureSchema returns the schema of d.Title, creating the table from d
// if it does not exist yet. An existing schema is never changed.
func (s *Store) EnsureSchema(d *data.Datum) (*schema.TableSchema, error) {
	t, err := s.ensureTable(context.Background(), "", d)
	if err != nil {
		return nil, err
	}
	return t.schema, nil
}

// LoadSchema returns the schema of an existing table
func (s *Store) LoadSchema(title string) (*schema.TableSchema, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	t, err := s.openTable(title)
	if err != nil {
		return nil, err
	}
	return t.schema, nil
}

// Tables lists the tables of the store in creation order
func (s *Store) Tables() []string {
	out := make([]string, len(s.meta.Tables))
	copy(out, s.meta.Tables)
	return out
}

// RowCount returns the number of committed rows of a table
func (s *Store) RowCount(title string) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	t, err := s.openTable(title)
	if err != nil {
		return 0, err
	}
	return t.rows.Count(), nil
}

// ensureTable opens the table for d.Title or creates it from d
func (s *Store) ensureTable(ctx context.Context, opID string, d *data.Datum) (*table, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &errors.SchemaMismatchError{Reason: "nil datum"}
	}

	t, err := s.openTable(d.Title)
	if err == nil {
		return t, nil
	}
	if !stderrors.Is(err, errors.ErrTableNotFound) {
		return nil, err
	}

	_, span := s.tel.start(ctx, "tablestore.EnsureSchema", attribute.String("table", d.Title))
	t, err = s.createTable(d)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	s.notify(Event{Type: EventTableCreated, OpID: opID, Table: d.Title, Data: t.schema})
	return t, nil
}

// openTable returns a table from memory or loads it from disk
func (s *Store) openTable(title string) (*table, error) {
	if t, ok := s.tables[title]; ok {
		return t, nil
	}

	meta, err := metadata.LoadTableMeta(s.dir, title)
	if err != nil {
		return nil, err
	}
	sch, err := meta.ToSchema()
	if err != nil {
		return nil, err
	}

	rowsPath := filepath.Join(metadata.TableDir(s.dir, title), metadata.RowsFile)
	rows, err := rowfile.Open(rowsPath, sch.RowWidth, s.rowOptions())
	if stderrors.Is(err, os.ErrNotExist) {
		// crashed after the table meta was written but before the row file was created
		rows, err = rowfile.Create(rowsPath, sch.RowWidth, s.rowOptions())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open rows of %s: %w", title, err)
	}

	if err := s.registerTitle(title); err != nil {
		return nil, multierr.Append(err, rows.Close())
	}

	t := &table{schema: sch, rows: rows}
	s.tables[title] = t

	s.logger.Debug("table loaded",
		slog.String("table", title),
		slog.Int64("rows", rows.Count()),
		slog.Int("row_width", sch.RowWidth),
	)
	return t, nil
}

// createTable derives a schema from d and persists it with an empty row file
func (s *Store) createTable(d *data.Datum) (*table, error) {
	sch, err := schema.Derive(d)
	if err != nil {
		return nil, err
	}

	if err := writer.SaveTableMeta(s.dir, sch); err != nil {
		return nil, err
	}

	rowsPath := filepath.Join(metadata.TableDir(s.dir, sch.Name), metadata.RowsFile)
	rows, err := rowfile.Create(rowsPath, sch.RowWidth, s.rowOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create rows of %s: %w", sch.Name, err)
	}

	if err := s.registerTitle(sch.Name); err != nil {
		return nil, multierr.Append(err, rows.Close())
	}

	t := &table{schema: sch, rows: rows}
	s.tables[sch.Name] = t

	s.logger.Info("table created",
		slog.String("table", sch.Name),
		slog.Int("fields", len(sch.Fields)),
		slog.Int("row_width", sch.RowWidth),
	)
	return t, nil
}

// registerTitle appends a title to the store meta.json table list
func (s *Store) registerTitle(title string) error {
	for _, existing := range s.meta.Tables {
		if existing == title {
			return nil
		}
	}
	s.meta.Tables = append(s.meta.Tables, title)
	if err := writer.SaveStoreMeta(s.dir, s.meta); err != nil {
		s.meta.Tables = s.meta.Tables[:len(s.meta.Tables)-1]
		return err
	}
	return nil
}

func (s *Store) rowOptions() rowfile.Options {
	return rowfile.Options{Sync: s.opts.sync, Logger: s.logger}
}
