package vlstore

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leengari/tablestore/internal/digest"
	"github.com/leengari/tablestore/internal/domain/errors"
)

// ===========================================================================
// OPEN-TIME RECOVERY
// ===========================================================================
//
// A crash can leave the two files of a category out of step:
// - a torn value record at the end of the value file
// - a value record whose key was never written (crash between appends)
// - a partial digest at the end of the key file
//
// Recovery scans the value record headers once, reads every key once,
// and truncates both files to the longest committed prefix.
//
// ===========================================================================

// openCategory opens both files of a category, writing headers for new
// files, and rebuilds the digest index.
func (s *Store) openCategory(c *categoryFiles) error {
	var err error

	c.vals, err = openWithHeader(c.valsPath, valsMagic, c.cat)
	if err != nil {
		return err
	}
	c.keys, err = openWithHeader(c.keysPath, keysMagic, c.cat)
	if err != nil {
		return err
	}

	offsets, valsEnd, err := s.scanValues(c)
	if err != nil {
		return err
	}

	keys, keysEnd, err := s.readKeys(c)
	if err != nil {
		return err
	}

	// Value records without a key were never committed
	if len(offsets) > len(keys) {
		s.logger.Warn("dropping uncommitted values",
			slog.String("category", c.cat.String()),
			slog.Int("values", len(offsets)),
			slog.Int("keys", len(keys)),
		)
		valsEnd = offsets[len(keys)]
		offsets = offsets[:len(keys)]
	}

	// Keys without a value cannot be served
	if len(keys) > len(offsets) {
		s.logger.Warn("key file longer than value file, truncating keys",
			slog.String("category", c.cat.String()),
			slog.Int("values", len(offsets)),
			slog.Int("keys", len(keys)),
		)
		keys = keys[:len(offsets)]
		keysEnd = FileHeaderSize + int64(len(keys))*KeySize
	}

	if err := truncateTo(c.vals, c.valsPath, valsEnd, s.logger); err != nil {
		return err
	}
	if err := truncateTo(c.keys, c.keysPath, keysEnd, s.logger); err != nil {
		return err
	}

	for pos, d := range keys {
		if prev, dup := c.index[d]; dup {
			return &errors.CorruptDataError{
				Source: c.keysPath,
				Offset: FileHeaderSize + int64(pos)*KeySize,
				Reason: fmt.Sprintf("digest %s repeats position %d", d, prev),
			}
		}
		c.index[d] = pos
	}

	c.offsets = offsets
	c.valsEnd = valsEnd
	c.keysEnd = keysEnd

	if len(keys) > 0 {
		s.logger.Debug("value category loaded",
			slog.String("category", c.cat.String()),
			slog.Int("values", len(keys)),
			slog.Int64("bytes", valsEnd),
		)
	}
	return nil
}

// openWithHeader opens a file read-write, writing a fresh header if it is
// empty and validating the existing one otherwise.
func openWithHeader(path string, magic [8]byte, cat Category) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.NewIOError("stat", path, err)
	}

	if info.Size() == 0 {
		if _, err := file.WriteAt(encodeFileHeader(newFileHeader(magic, cat)), 0); err != nil {
			file.Close()
			return nil, errors.NewIOError("write header", path, err)
		}
		if err := file.Sync(); err != nil {
			file.Close()
			return nil, errors.NewIOError("sync", path, err)
		}
		return file, nil
	}

	buf := make([]byte, FileHeaderSize)
	if _, err := file.ReadAt(buf, 0); err != nil && err != io.EOF {
		file.Close()
		return nil, errors.NewIOError("read header", path, err)
	}
	if _, err := decodeFileHeader(buf, magic, cat); err != nil {
		file.Close()
		return nil, &errors.CorruptDataError{Source: path, Offset: 0, Reason: err.Error()}
	}
	return file, nil
}

// scanValues walks the record headers of the value file and returns the
// start offset of every complete record plus the end of the last one.
func (s *Store) scanValues(c *categoryFiles) ([]int64, int64, error) {
	info, err := c.vals.Stat()
	if err != nil {
		return nil, 0, errors.NewIOError("stat", c.valsPath, err)
	}
	size := info.Size()

	var offsets []int64
	offset := int64(FileHeaderSize)
	header := make([]byte, RecordHeaderSize)

	for offset+RecordHeaderSize <= size {
		if _, err := c.vals.ReadAt(header, offset); err != nil {
			return nil, 0, errors.NewIOError("read value header", c.valsPath, err)
		}
		length, _ := decodeRecordHeader(header)
		if length > MaxValueSize {
			break
		}
		next := offset + recordSize(int(length))
		if next > size {
			break
		}
		offsets = append(offsets, offset)
		offset = next
	}

	return offsets, offset, nil
}

// readKeys reads every complete digest from the key file
func (s *Store) readKeys(c *categoryFiles) ([]digest.Digest, int64, error) {
	info, err := c.keys.Stat()
	if err != nil {
		return nil, 0, errors.NewIOError("stat", c.keysPath, err)
	}

	count := (info.Size() - FileHeaderSize) / KeySize
	if count <= 0 {
		return nil, FileHeaderSize, nil
	}

	buf := make([]byte, count*KeySize)
	if _, err := c.keys.ReadAt(buf, FileHeaderSize); err != nil {
		return nil, 0, errors.NewIOError("read keys", c.keysPath, err)
	}

	keys := make([]digest.Digest, count)
	for i := range keys {
		copy(keys[i][:], buf[int64(i)*KeySize:])
	}
	return keys, FileHeaderSize + count*KeySize, nil
}

// truncateTo cuts a file back to end if it is longer
func truncateTo(file *os.File, path string, end int64, logger *slog.Logger) error {
	info, err := file.Stat()
	if err != nil {
		return errors.NewIOError("stat", path, err)
	}
	if info.Size() <= end {
		return nil
	}

	logger.Warn("truncating torn tail",
		slog.String("path", path),
		slog.Int64("size", info.Size()),
		slog.Int64("committed", end),
	)
	if err := file.Truncate(end); err != nil {
		return errors.NewIOError("truncate", path, err)
	}
	return file.Sync()
}
