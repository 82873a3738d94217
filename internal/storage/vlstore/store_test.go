package vlstore

import (
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/tablestore/internal/digest"
	"github.com/leengari/tablestore/internal/domain/errors"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestStore opens a store in a fresh temp directory
func createTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "vl")
	s, err := Open(dir, discardLogger())
	if err != nil {
		t.Fatalf("failed to open value store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func reopen(t *testing.T, s *Store, dir string) *Store {
	t.Helper()
	assert.NilError(t, s.Close())
	s2, err := Open(dir, discardLogger())
	if err != nil {
		t.Fatalf("failed to reopen value store: %v", err)
	}
	t.Cleanup(func() { _ = s2.Close() })
	return s2
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	assert.NilError(t, err)
	return info.Size()
}

func appendRaw(t *testing.T, path string, b []byte) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	assert.NilError(t, err)
	_, err = f.Write(b)
	assert.NilError(t, err)
	assert.NilError(t, f.Close())
}

// =============================================================================
// PUT / GET
// =============================================================================

func TestPutGetRoundTrip(t *testing.T) {
	s, _ := createTestStore(t)

	d, err := s.Put(CategoryString, []byte("hello"))
	assert.NilError(t, err)
	assert.Equal(t, digest.Sum([]byte("hello")), d)

	got, err := s.Get(CategoryString, d)
	assert.NilError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.Assert(t, s.Contains(CategoryString, d))
}

func TestPutDeduplicates(t *testing.T) {
	s, dir := createTestStore(t)

	d1, err := s.Put(CategoryString, []byte("hello"))
	assert.NilError(t, err)
	sizeAfterFirst := s.Size(CategoryString)

	d2, err := s.Put(CategoryString, []byte("hello"))
	assert.NilError(t, err)

	assert.Equal(t, d1, d2)
	assert.Equal(t, 1, s.Len(CategoryString))
	assert.Equal(t, sizeAfterFirst, s.Size(CategoryString))
	assert.Equal(t, int64(FileHeaderSize+KeySize), fileSize(t, filepath.Join(dir, "StringKeys.vlk")))
}

func TestCategoriesAreIndependent(t *testing.T) {
	s, _ := createTestStore(t)

	d, err := s.Put(CategoryBlob, []byte("hello"))
	assert.NilError(t, err)

	_, err = s.Get(CategoryString, d)
	assert.Assert(t, stderrors.Is(err, errors.ErrNotFound))
	assert.Equal(t, 0, s.Len(CategoryString))
	assert.Equal(t, 1, s.Len(CategoryBlob))
}

func TestGetUnknownDigest(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.Get(CategoryBlob, digest.Sum([]byte("never stored")))
	assert.Assert(t, stderrors.Is(err, errors.ErrNotFound))

	var nf *errors.NotFoundError
	assert.Assert(t, stderrors.As(err, &nf))
	assert.Equal(t, "Blob", nf.Category)
}

func TestEmptyValue(t *testing.T) {
	s, _ := createTestStore(t)

	d, err := s.Put(CategoryBlob, nil)
	assert.NilError(t, err)

	got, err := s.Get(CategoryBlob, d)
	assert.NilError(t, err)
	assert.Equal(t, 0, len(got))
}

// =============================================================================
// PERSISTENCE & RECOVERY
// =============================================================================

func TestReopenRebuildsIndex(t *testing.T) {
	s, dir := createTestStore(t)

	values := []string{"alpha", "beta", "gamma", "a much longer value that spans more than one aligned word"}
	digests := make([]digest.Digest, len(values))
	for i, v := range values {
		d, err := s.Put(CategoryString, []byte(v))
		assert.NilError(t, err)
		digests[i] = d
	}
	assert.NilError(t, s.Sync())

	s2 := reopen(t, s, dir)
	assert.Equal(t, len(values), s2.Len(CategoryString))
	for i, d := range digests {
		got, err := s2.Get(CategoryString, d)
		assert.NilError(t, err)
		assert.Equal(t, values[i], string(got))
	}

	// dedup still applies after reopen
	_, err := s2.Put(CategoryString, []byte("beta"))
	assert.NilError(t, err)
	assert.Equal(t, len(values), s2.Len(CategoryString))
}

func TestOpenDropsValueWithoutKey(t *testing.T) {
	s, dir := createTestStore(t)
	_, err := s.Put(CategoryString, []byte("committed"))
	assert.NilError(t, err)
	assert.NilError(t, s.Close())

	valsPath := filepath.Join(dir, "StringVals.vlv")
	committedSize := fileSize(t, valsPath)

	// crash between the value append and the key append
	appendRaw(t, valsPath, encodeRecord([]byte("orphan")))

	s2, err := Open(dir, discardLogger())
	assert.NilError(t, err)
	defer s2.Close()

	assert.Equal(t, 1, s2.Len(CategoryString))
	assert.Equal(t, committedSize, fileSize(t, valsPath))

	_, err = s2.Get(CategoryString, digest.Sum([]byte("orphan")))
	assert.Assert(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestOpenTruncatesTornTails(t *testing.T) {
	s, dir := createTestStore(t)
	d, err := s.Put(CategoryBlob, []byte{1, 2, 3})
	assert.NilError(t, err)
	assert.NilError(t, s.Close())

	valsPath := filepath.Join(dir, "BlobVals.vlv")
	keysPath := filepath.Join(dir, "BlobKeys.vlk")
	valsSize := fileSize(t, valsPath)
	keysSize := fileSize(t, keysPath)

	torn := encodeRecord([]byte("torn record payload"))
	appendRaw(t, valsPath, torn[:len(torn)-5])
	appendRaw(t, keysPath, []byte{0xde, 0xad})

	s2, err := Open(dir, discardLogger())
	assert.NilError(t, err)
	defer s2.Close()

	assert.Equal(t, valsSize, fileSize(t, valsPath))
	assert.Equal(t, keysSize, fileSize(t, keysPath))

	got, err := s2.Get(CategoryBlob, d)
	assert.NilError(t, err)
	assert.DeepEqual(t, []byte{1, 2, 3}, got)
}

func TestOpenTruncatesKeysBeyondValues(t *testing.T) {
	s, dir := createTestStore(t)
	_, err := s.Put(CategoryString, []byte("one"))
	assert.NilError(t, err)
	assert.NilError(t, s.Close())

	keysPath := filepath.Join(dir, "StringKeys.vlk")
	extra := digest.Sum([]byte("two"))
	appendRaw(t, keysPath, extra[:])

	s2, err := Open(dir, discardLogger())
	assert.NilError(t, err)
	defer s2.Close()

	assert.Equal(t, 1, s2.Len(CategoryString))
	assert.Equal(t, int64(FileHeaderSize+KeySize), fileSize(t, keysPath))
}

func TestGetDetectsCorruptPayload(t *testing.T) {
	s, dir := createTestStore(t)
	d, err := s.Put(CategoryString, []byte("pristine"))
	assert.NilError(t, err)
	assert.NilError(t, s.Close())

	valsPath := filepath.Join(dir, "StringVals.vlv")
	f, err := os.OpenFile(valsPath, os.O_RDWR, 0644)
	assert.NilError(t, err)
	_, err = f.WriteAt([]byte("X"), FileHeaderSize+RecordHeaderSize)
	assert.NilError(t, err)
	assert.NilError(t, f.Close())

	s2, err := Open(dir, discardLogger())
	assert.NilError(t, err)
	defer s2.Close()

	_, err = s2.Get(CategoryString, d)
	assert.Assert(t, stderrors.Is(err, errors.ErrCorruptData), "got %v", err)
}

func TestOpenRejectsForeignFile(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "StringVals.vlv"), []byte("definitely not a value file header, but long enough to read a header"), 0644)
	assert.NilError(t, err)

	_, err = Open(dir, discardLogger())
	assert.Assert(t, stderrors.Is(err, errors.ErrCorruptData), "got %v", err)
}

func TestClosedStore(t *testing.T) {
	s, _ := createTestStore(t)
	assert.NilError(t, s.Close())
	assert.NilError(t, s.Close())

	_, err := s.Put(CategoryString, []byte("late"))
	assert.Assert(t, stderrors.Is(err, errors.ErrStoreClosed))
	assert.Assert(t, stderrors.Is(s.Sync(), errors.ErrStoreClosed))
}
