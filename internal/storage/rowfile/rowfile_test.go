package rowfile

import (
	stderrors "errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/tablestore/internal/domain/errors"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testOptions() Options {
	return Options{Sync: true, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// createTestFile creates a row file of 4-byte rows in a temp directory
func createTestFile(t *testing.T) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.tbl")
	f, err := Create(path, 4, testOptions())
	if err != nil {
		t.Fatalf("failed to create row file: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f, path
}

// rows builds n rows whose bytes are all equal to the row index
func rows(first, n int) []byte {
	buf := make([]byte, 0, n*4)
	for i := first; i < first+n; i++ {
		buf = append(buf, byte(i), byte(i), byte(i), byte(i))
	}
	return buf
}

// failingFile fails its first WriteAt after writing half of the data
type failingFile struct {
	*os.File
	failed bool
}

func (f *failingFile) WriteAt(p []byte, off int64) (int, error) {
	if !f.failed {
		f.failed = true
		n, _ := f.File.WriteAt(p[:len(p)/2], off)
		return n, stderrors.New("disk full")
	}
	return f.File.WriteAt(p, off)
}

// =============================================================================
// TESTS
// =============================================================================

func TestAppendAndRead(t *testing.T) {
	f, _ := createTestFile(t)

	assert.NilError(t, f.Append(rows(0, 3)))
	assert.NilError(t, f.Append(rows(3, 2)))
	assert.Equal(t, int64(5), f.Count())

	buf := make([]byte, 4*10)
	n, err := f.ReadRows(buf, 0)
	assert.NilError(t, err)
	assert.Equal(t, 5, n)
	assert.DeepEqual(t, rows(0, 5), buf[:n*4])
}

func TestReadRowsInChunks(t *testing.T) {
	f, _ := createTestFile(t)
	assert.NilError(t, f.Append(rows(0, 7)))

	buf := make([]byte, 4*3)
	var got []byte
	var start int64
	for {
		n, err := f.ReadRows(buf, start)
		assert.NilError(t, err)
		if n == 0 {
			break
		}
		got = append(got, buf[:n*4]...)
		start += int64(n)
	}
	assert.DeepEqual(t, rows(0, 7), got)
}

func TestAppendRejectsPartialRow(t *testing.T) {
	f, _ := createTestFile(t)
	err := f.Append([]byte{1, 2, 3})
	assert.ErrorContains(t, err, "not a multiple of row width")
	assert.Equal(t, int64(0), f.Count())
}

func TestReopenKeepsCommittedRows(t *testing.T) {
	f, path := createTestFile(t)
	assert.NilError(t, f.Append(rows(0, 4)))
	assert.NilError(t, f.Close())

	f2, err := Open(path, 4, testOptions())
	assert.NilError(t, err)
	defer f2.Close()

	assert.Equal(t, int64(4), f2.Count())
	buf := make([]byte, 16)
	n, err := f2.ReadRows(buf, 0)
	assert.NilError(t, err)
	assert.Equal(t, 4, n)
	assert.DeepEqual(t, rows(0, 4), buf)
}

func TestOpenTruncatesUncommittedTail(t *testing.T) {
	f, path := createTestFile(t)
	assert.NilError(t, f.Append(rows(0, 2)))
	assert.NilError(t, f.Close())

	// rows written but the header count never updated, plus a torn row
	raw, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	assert.NilError(t, err)
	_, err = raw.Write(append(rows(2, 1), 9, 9))
	assert.NilError(t, err)
	assert.NilError(t, raw.Close())

	f2, err := Open(path, 4, testOptions())
	assert.NilError(t, err)
	defer f2.Close()

	assert.Equal(t, int64(2), f2.Count())
	info, err := os.Stat(path)
	assert.NilError(t, err)
	assert.Equal(t, int64(HeaderSize+8), info.Size())
}

func TestOpenRejectsWidthMismatch(t *testing.T) {
	f, path := createTestFile(t)
	assert.NilError(t, f.Close())

	_, err := Open(path, 8, testOptions())
	assert.Assert(t, stderrors.Is(err, errors.ErrCorruptData), "got %v", err)
}

func TestOpenRejectsMissingCommittedRows(t *testing.T) {
	f, path := createTestFile(t)
	assert.NilError(t, f.Append(rows(0, 3)))
	assert.NilError(t, f.Close())
	assert.NilError(t, os.Truncate(path, HeaderSize+4))

	_, err := Open(path, 4, testOptions())
	assert.Assert(t, stderrors.Is(err, errors.ErrCorruptData), "got %v", err)
}

func TestFailedAppendRollsBack(t *testing.T) {
	f, path := createTestFile(t)
	assert.NilError(t, f.Append(rows(0, 2)))

	f.file = &failingFile{File: f.file.(*os.File)}

	err := f.Append(rows(2, 3))
	assert.Assert(t, stderrors.Is(err, errors.ErrIO), "got %v", err)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, int64(2), f.Count())

	info, err := os.Stat(path)
	assert.NilError(t, err)
	assert.Equal(t, int64(HeaderSize+8), info.Size())

	// the file keeps working after the rollback
	assert.NilError(t, f.Append(rows(2, 1)))
	assert.NilError(t, f.Close())

	f2, err := Open(path, 4, testOptions())
	assert.NilError(t, err)
	defer f2.Close()
	assert.Equal(t, int64(3), f2.Count())
}

func TestCreateRejectsBadWidth(t *testing.T) {
	dir := t.TempDir()
	tooWide := int64(math.MaxUint32)

	for _, width := range []int{0, -1, int(tooWide + 1)} {
		_, err := Create(filepath.Join(dir, "rows.tbl"), width, testOptions())
		assert.ErrorContains(t, err, "row width", "width %d", width)
	}
}

func TestCreateRefusesExisting(t *testing.T) {
	_, path := createTestFile(t)
	_, err := Create(path, 4, testOptions())
	assert.Assert(t, stderrors.Is(err, errors.ErrIO))
}
