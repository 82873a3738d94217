package writer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leengari/tablestore/internal/domain/errors"
	"github.com/leengari/tablestore/internal/domain/schema"
	"github.com/leengari/tablestore/internal/storage/metadata"
)

// WriteJSON marshals v and replaces path atomically (temp file + rename)
func WriteJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmpPath := path + ".tmp"

	// Write to temp
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewIOError("create", tmpPath, err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return errors.NewIOError("write", tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.NewIOError("sync", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewIOError("close", tmpPath, err)
	}

	// Atomic replace
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.NewIOError("rename", path, err)
	}
	return nil
}

// SaveTableMeta persists the schema of a table to tables/<title>/meta.json,
// creating the table directory if needed.
func SaveTableMeta(root string, s *schema.TableSchema) error {
	dir := metadata.TableDir(root, s.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIOError("create", dir, err)
	}

	if err := WriteJSON(filepath.Join(dir, metadata.MetaFile), metadata.FromSchema(s)); err != nil {
		return fmt.Errorf("failed to save table meta for %s: %w", s.Name, err)
	}

	slog.Debug("table meta saved",
		slog.String("table", s.Name),
		slog.String("path", dir),
		slog.Int("fields", len(s.Fields)),
		slog.Int("row_width", s.RowWidth),
	)
	return nil
}

// SaveStoreMeta persists the store meta.json
func SaveStoreMeta(root string, meta metadata.StoreMeta) error {
	meta.Version = metadata.FormatVersion
	if err := WriteJSON(filepath.Join(root, metadata.MetaFile), meta); err != nil {
		return fmt.Errorf("failed to save store meta: %w", err)
	}
	return nil
}
