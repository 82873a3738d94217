// Package engine ties the schema registry, row codec, row files and value
// store together into a Store that accepts datums and answers queries.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/leengari/tablestore/internal/domain/errors"
	"github.com/leengari/tablestore/internal/domain/schema"
	"github.com/leengari/tablestore/internal/storage/metadata"
	"github.com/leengari/tablestore/internal/storage/rowfile"
	"github.com/leengari/tablestore/internal/storage/vlstore"
	"github.com/leengari/tablestore/internal/storage/writer"
)

// table is the open state of one table
type table struct {
	schema *schema.TableSchema
	rows   *rowfile.File
}

// Store is a directory of tables sharing one value store.
// It is meant for a single writer; callers serialise Notify.
type Store struct {
	dir    string
	opts   options
	logger *slog.Logger

	lock   *dirLock
	meta   metadata.StoreMeta
	values *vlstore.Store
	tables map[string]*table

	observers []Observer
	tel       *telemetry
	closed    bool
}

// Open opens the store in dir, creating it if needed. The directory is
// locked for the lifetime of the Store; a second Open of the same
// directory fails with ErrStoreLocked until Close.
func Open(dir string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Join(dir, metadata.TablesDir), 0755); err != nil {
		return nil, errors.NewIOError("create", dir, err)
	}

	tel, err := newTelemetry(o.tracerProvider, o.meterProvider)
	if err != nil {
		return nil, err
	}

	lock, err := acquireLock(filepath.Join(dir, metadata.LockFile))
	if err != nil {
		return nil, fmt.Errorf("failed to lock store %s: %w", dir, err)
	}

	s := &Store{
		dir:    dir,
		opts:   o,
		logger: o.logger.With(slog.String("store", dir)),
		lock:   lock,
		tables: make(map[string]*table),
		tel:    tel,
	}

	if err := s.loadMeta(); err != nil {
		return nil, multierr.Append(err, lock.release())
	}

	s.values, err = vlstore.Open(filepath.Join(dir, metadata.ValuesDir), s.logger)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to open value store: %w", err), lock.release())
	}

	s.logger.Info("store opened",
		slog.String("name", s.meta.Name),
		slog.Int("tables", len(s.meta.Tables)),
		slog.Int("chunk_length", o.chunkLength),
	)
	return s, nil
}

// loadMeta reads meta.json or writes a fresh one for a new store
func (s *Store) loadMeta() error {
	meta, ok, err := metadata.LoadStoreMeta(s.dir)
	if err != nil {
		return err
	}
	if ok {
		s.meta = meta
		return nil
	}

	s.meta = metadata.StoreMeta{Name: s.opts.name, Version: metadata.FormatVersion}
	return writer.SaveStoreMeta(s.dir, s.meta)
}

// Close flushes and releases every open file and the directory lock.
// All close errors are combined. Calling Close twice is a no-op.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	for _, t := range s.tables {
		err = multierr.Append(err, t.rows.Close())
	}
	s.tables = nil

	if s.values != nil {
		err = multierr.Append(err, s.values.Close())
	}
	err = multierr.Append(err, s.lock.release())

	s.notify(Event{Type: EventStoreClosed, Data: err})
	s.logger.Info("store closed", slog.Any("error", err))
	return err
}

// Dir returns the store directory
func (s *Store) Dir() string {
	return s.dir
}

// Name returns the store name recorded in meta.json
func (s *Store) Name() string {
	return s.meta.Name
}

// ChunkLength returns the number of rows a query reads per I/O
func (s *Store) ChunkLength() int {
	return s.opts.chunkLength
}

// ValueCount returns the number of distinct values held for a category
func (s *Store) ValueCount(cat vlstore.Category) int {
	if s.closed {
		return 0
	}
	return s.values.Len(cat)
}

func (s *Store) checkOpen() error {
	if s.closed {
		return errors.ErrStoreClosed
	}
	return nil
}
