package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/leengari/tablestore/internal/engine"
)

// DiscardLogger returns a logger that drops everything
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenTestStore opens a store in a fresh temp directory and closes it
// when the test ends. Returns the store and its directory.
func OpenTestStore(t *testing.T, opts ...engine.Option) (*engine.Store, string) {
	t.Helper()
	dir := t.TempDir()
	return OpenStoreAt(t, dir, opts...), dir
}

// OpenStoreAt opens (or reopens) a store in dir for the duration of the test
func OpenStoreAt(t *testing.T, dir string, opts ...engine.Option) *engine.Store {
	t.Helper()
	opts = append([]engine.Option{engine.WithLogger(DiscardLogger())}, opts...)
	s, err := engine.Open(dir, opts...)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
