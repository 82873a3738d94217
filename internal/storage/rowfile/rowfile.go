// Package rowfile stores the packed fixed-width rows of one table.
package rowfile

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"go.uber.org/multierr"

	"github.com/leengari/tablestore/internal/domain/errors"
)

// fileHandle is the subset of *os.File the row file uses
type fileHandle interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Sync() error
	Stat() (os.FileInfo, error)
	Close() error
}

// Options controls durability and logging of a row file
type Options struct {
	// Sync fsyncs rows before the committed count is updated
	Sync   bool
	Logger *slog.Logger
}

// File is an append-only sequence of fixed-width rows
type File struct {
	file     fileHandle
	path     string
	rowWidth int
	count    int64
	opts     Options
}

// Create makes a new, empty row file. It fails if the file already exists.
func Create(path string, rowWidth int, opts Options) (*File, error) {
	if rowWidth <= 0 || int64(rowWidth) > math.MaxUint32 {
		return nil, fmt.Errorf("row width must be in 1..%d, got %d", uint32(math.MaxUint32), rowWidth)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewIOError("create", path, err)
	}

	if _, err := file.WriteAt(encodeHeader(newHeader(rowWidth)), 0); err != nil {
		file.Close()
		return nil, errors.NewIOError("write header", path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, errors.NewIOError("sync", path, err)
	}

	return &File{file: file, path: path, rowWidth: rowWidth, opts: withDefaults(opts)}, nil
}

// Open opens an existing row file. Bytes past the committed rows are
// truncated; a file shorter than its committed rows is corrupt.
func Open(path string, rowWidth int, opts Options) (*File, error) {
	opts = withDefaults(opts)

	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}

	f := &File{file: file, path: path, rowWidth: rowWidth, opts: opts}
	if err := f.recover(); err != nil {
		file.Close()
		return nil, err
	}
	return f, nil
}

func withDefaults(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// recover validates the header and cuts off anything that was never committed
func (f *File) recover() error {
	buf := make([]byte, HeaderSize)
	if _, err := f.file.ReadAt(buf, 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return &errors.CorruptDataError{Source: f.path, Offset: 0, Reason: "file shorter than header"}
		}
		return errors.NewIOError("read header", f.path, err)
	}

	h, err := decodeHeader(buf)
	if err != nil {
		return &errors.CorruptDataError{Source: f.path, Offset: 0, Reason: err.Error()}
	}
	if int(h.RowWidth) != f.rowWidth {
		return &errors.CorruptDataError{
			Source: f.path,
			Offset: 12,
			Reason: fmt.Sprintf("row width %d does not match schema width %d", h.RowWidth, f.rowWidth),
		}
	}

	info, err := f.file.Stat()
	if err != nil {
		return errors.NewIOError("stat", f.path, err)
	}

	f.count = int64(h.RowCount)
	committed := f.committedSize()

	if info.Size() < committed {
		return &errors.CorruptDataError{
			Source: f.path,
			Offset: info.Size(),
			Reason: fmt.Sprintf("header commits %d rows but file ends early", h.RowCount),
		}
	}

	if info.Size() > committed {
		f.opts.Logger.Warn("truncating uncommitted rows",
			slog.String("path", f.path),
			slog.Int64("size", info.Size()),
			slog.Int64("committed", committed),
		)
		if err := f.file.Truncate(committed); err != nil {
			return errors.NewIOError("truncate", f.path, err)
		}
		if err := f.file.Sync(); err != nil {
			return errors.NewIOError("sync", f.path, err)
		}
	}
	return nil
}

// Append writes rows (a whole number of rows back to back) and commits them.
// If any step fails the file is rolled back to the previous committed length
// and none of the new rows become visible.
func (f *File) Append(rows []byte) error {
	if f.file == nil {
		return errors.ErrStoreClosed
	}
	if len(rows)%f.rowWidth != 0 {
		return fmt.Errorf("append of %d bytes is not a multiple of row width %d", len(rows), f.rowWidth)
	}
	if len(rows) == 0 {
		return nil
	}

	start := f.committedSize()
	n := int64(len(rows) / f.rowWidth)

	if err := f.writeRows(rows, start, n); err != nil {
		return multierr.Append(err, f.rollback(start))
	}
	f.count += n
	return nil
}

func (f *File) writeRows(rows []byte, start, n int64) error {
	if _, err := f.file.WriteAt(rows, start); err != nil {
		return errors.NewIOError("append", f.path, err)
	}
	if f.opts.Sync {
		if err := f.file.Sync(); err != nil {
			return errors.NewIOError("sync", f.path, err)
		}
	}

	count := make([]byte, 8)
	ByteOrder.PutUint64(count, uint64(f.count+n))
	if _, err := f.file.WriteAt(count, rowCountOffset); err != nil {
		return errors.NewIOError("commit", f.path, err)
	}
	if f.opts.Sync {
		if err := f.file.Sync(); err != nil {
			return errors.NewIOError("sync", f.path, err)
		}
	}
	return nil
}

// rollback restores the committed count and length after a failed append
func (f *File) rollback(size int64) error {
	count := make([]byte, 8)
	ByteOrder.PutUint64(count, uint64(f.count))
	if _, err := f.file.WriteAt(count, rowCountOffset); err != nil {
		return errors.NewIOError("rollback", f.path, err)
	}
	if err := f.file.Truncate(size); err != nil {
		return errors.NewIOError("rollback", f.path, err)
	}
	f.opts.Logger.Warn("rolled back failed append",
		slog.String("path", f.path),
		slog.Int64("rows", f.count),
	)
	return nil
}

// ReadRows fills buf with whole rows starting at row index start.
// It returns the number of rows read, zero once start reaches Count.
func (f *File) ReadRows(buf []byte, start int64) (int, error) {
	if f.file == nil {
		return 0, errors.ErrStoreClosed
	}
	if start >= f.count {
		return 0, nil
	}

	n := int64(len(buf) / f.rowWidth)
	if remaining := f.count - start; n > remaining {
		n = remaining
	}
	if n == 0 {
		return 0, nil
	}

	size := n * int64(f.rowWidth)
	off := HeaderSize + start*int64(f.rowWidth)
	if _, err := f.file.ReadAt(buf[:size], off); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, &errors.CorruptDataError{Source: f.path, Offset: off, Reason: "committed rows missing"}
		}
		return 0, errors.NewIOError("read rows", f.path, err)
	}
	return int(n), nil
}

// Count returns the number of committed rows
func (f *File) Count() int64 {
	return f.count
}

// RowWidth returns the byte width of one row
func (f *File) RowWidth() int {
	return f.rowWidth
}

// Path returns the file path
func (f *File) Path() string {
	return f.path
}

// Sync flushes the file to disk
func (f *File) Sync() error {
	if f.file == nil {
		return nil
	}
	return errors.NewIOError("sync", f.path, f.file.Sync())
}

// Close syncs and closes the file. Calling Close twice is a no-op.
func (f *File) Close() error {
	if f.file == nil {
		return nil
	}
	syncErr := f.file.Sync()
	closeErr := f.file.Close()
	f.file = nil
	if syncErr != nil {
		return errors.NewIOError("sync", f.path, syncErr)
	}
	return errors.NewIOError("close", f.path, closeErr)
}

func (f *File) committedSize() int64 {
	return HeaderSize + f.count*int64(f.rowWidth)
}
