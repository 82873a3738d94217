// Package vlstore keeps variable-length values (strings and blobs) once per
// distinct content, addressed by their SHA-1 digest.
package vlstore

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.uber.org/multierr"

	"github.com/leengari/tablestore/internal/digest"
	"github.com/leengari/tablestore/internal/domain/errors"
)

// Store is a content-addressed, deduplicated value store
type Store struct {
	mu     sync.Mutex
	dir    string
	cats   map[Category]*categoryFiles
	logger *slog.Logger
	closed bool
}

// Open opens or creates the value store files under dir and rebuilds the
// in-memory indexes, repairing any uncommitted tail left by a crash.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewIOError("create", dir, err)
	}

	s := &Store{
		dir:    dir,
		cats:   make(map[Category]*categoryFiles, len(Categories)),
		logger: logger,
	}

	for _, cat := range Categories {
		c := newCategoryFiles(dir, cat)
		s.cats[cat] = c
		if err := s.openCategory(c); err != nil {
			closeErr := s.closeFiles()
			return nil, multierr.Append(fmt.Errorf("failed to open %s values: %w", cat, err), closeErr)
		}
	}

	return s, nil
}

// Put stores value under its digest and returns the digest.
// Storing content that is already present returns the existing digest
// and does not grow either file.
func (s *Store) Put(cat Category, value []byte) (digest.Digest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.category(cat)
	if err != nil {
		return digest.Digest{}, err
	}

	d := digest.Sum(value)
	if _, exists := c.index[d]; exists {
		return d, nil
	}

	if err := s.appendValue(c, d, value); err != nil {
		return digest.Digest{}, err
	}
	return d, nil
}

// Contains reports whether the digest is stored in the category
func (s *Store) Contains(cat Category, d digest.Digest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cats[cat]
	if !ok {
		return false
	}
	_, exists := c.index[d]
	return exists
}

// Get returns the content stored under a digest
func (s *Store) Get(cat Category, d digest.Digest) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.category(cat)
	if err != nil {
		return nil, err
	}

	pos, exists := c.index[d]
	if !exists {
		return nil, &errors.NotFoundError{Category: cat.String(), Digest: d.String()}
	}

	return s.readValue(c, c.offsets[pos])
}

// Len returns the number of distinct values stored in a category
func (s *Store) Len(cat Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cats[cat]
	if !ok {
		return 0
	}
	return c.len()
}

// Size returns the number of bytes the value file of a category occupies
func (s *Store) Size(cat Category) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cats[cat]
	if !ok {
		return 0
	}
	return c.valsEnd
}

// Sync flushes every category written since the last sync.
// Value files are synced before key files.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.ErrStoreClosed
	}
	return s.syncUnsafe()
}

// Close syncs and closes all files. Calling Close twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return multierr.Append(s.syncUnsafe(), s.closeFiles())
}

// Dir returns the directory holding the store files
func (s *Store) Dir() string {
	return s.dir
}

// ===========================================================================
// INTERNAL HELPERS
// ===========================================================================

func (s *Store) category(cat Category) (*categoryFiles, error) {
	if s.closed {
		return nil, errors.ErrStoreClosed
	}
	c, ok := s.cats[cat]
	if !ok {
		return nil, fmt.Errorf("unknown value category %d", uint8(cat))
	}
	return c, nil
}

// appendValue writes the value record, then its key.
// Must be called with mutex held
func (s *Store) appendValue(c *categoryFiles, d digest.Digest, value []byte) error {
	if len(value) > MaxValueSize {
		return fmt.Errorf("value of %d bytes exceeds maximum of %d", len(value), MaxValueSize)
	}

	record := encodeRecord(value)
	offset := c.valsEnd

	if _, err := c.vals.WriteAt(record, offset); err != nil {
		_ = c.vals.Truncate(offset)
		return errors.NewIOError("append value", c.valsPath, err)
	}

	if _, err := c.keys.WriteAt(d[:], c.keysEnd); err != nil {
		_ = c.keys.Truncate(c.keysEnd)
		_ = c.vals.Truncate(offset)
		return errors.NewIOError("append key", c.keysPath, err)
	}

	c.index[d] = len(c.offsets)
	c.offsets = append(c.offsets, offset)
	c.valsEnd += int64(len(record))
	c.keysEnd += KeySize
	c.dirty = true

	return nil
}

// readValue reads and verifies the record starting at offset.
// Must be called with mutex held
func (s *Store) readValue(c *categoryFiles, offset int64) ([]byte, error) {
	header := make([]byte, RecordHeaderSize)
	if _, err := c.vals.ReadAt(header, offset); err != nil {
		return nil, s.readError(c, offset, err)
	}

	length, crc := decodeRecordHeader(header)
	if length > MaxValueSize {
		return nil, &errors.CorruptDataError{
			Source: c.valsPath,
			Offset: offset,
			Reason: fmt.Sprintf("record length %d exceeds maximum", length),
		}
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := c.vals.ReadAt(payload, offset+RecordHeaderSize); err != nil {
			return nil, s.readError(c, offset, err)
		}
	}

	if err := verifyCRC32(payload, crc); err != nil {
		return nil, &errors.CorruptDataError{Source: c.valsPath, Offset: offset, Reason: err.Error()}
	}

	return payload, nil
}

func (s *Store) readError(c *categoryFiles, offset int64, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &errors.CorruptDataError{Source: c.valsPath, Offset: offset, Reason: "record extends past end of file"}
	}
	return errors.NewIOError("read value", c.valsPath, err)
}

// syncUnsafe must be called with mutex held
func (s *Store) syncUnsafe() error {
	for _, cat := range Categories {
		c, ok := s.cats[cat]
		if !ok || !c.dirty {
			continue
		}
		if err := c.vals.Sync(); err != nil {
			return errors.NewIOError("sync", c.valsPath, err)
		}
		if err := c.keys.Sync(); err != nil {
			return errors.NewIOError("sync", c.keysPath, err)
		}
		c.dirty = false
	}
	return nil
}

// closeFiles must be called with mutex held
func (s *Store) closeFiles() error {
	var err error
	for _, c := range s.cats {
		if c.vals != nil {
			err = multierr.Append(err, c.vals.Close())
			c.vals = nil
		}
		if c.keys != nil {
			err = multierr.Append(err, c.keys.Close())
			c.keys = nil
		}
	}
	return err
}
