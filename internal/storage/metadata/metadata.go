// Package metadata holds the JSON documents that describe a store and its tables.
package metadata

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/leengari/tablestore/internal/domain/errors"
	"github.com/leengari/tablestore/internal/domain/schema"
	"github.com/leengari/tablestore/internal/domain/types"
)

// FormatVersion is written into every store meta.json
const FormatVersion = 1

const (
	MetaFile  = "meta.json"
	RowsFile  = "rows.tbl"
	LockFile  = "store.lock"
	TablesDir = "tables"
	ValuesDir = "vl"
)

// StoreMeta is the top-level meta.json of a store directory
type StoreMeta struct {
	Name    string   `json:"name"`
	Version int      `json:"version"`
	Tables  []string `json:"tables,omitempty"`
}

// TableMeta is tables/<title>/meta.json
type TableMeta struct {
	Name     string       `json:"name"`
	RowWidth int          `json:"row_width"`
	Columns  []ColumnMeta `json:"columns"`
}

// ColumnMeta describes one field of a table
type ColumnMeta struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Width int    `json:"width"`
}

// TableDirPrefix starts every table directory name, so "", "." and ".."
// titles never resolve to special entries.
const TableDirPrefix = "t_"

// TableDirName maps a title to a single, distinct directory entry
func TableDirName(title string) string {
	return TableDirPrefix + url.PathEscape(title)
}

// TableDir returns the directory of a table
func TableDir(root, title string) string {
	return filepath.Join(root, TablesDir, TableDirName(title))
}

// FromSchema converts a schema into its persisted form
func FromSchema(s *schema.TableSchema) TableMeta {
	meta := TableMeta{
		Name:     s.Name,
		RowWidth: s.RowWidth,
		Columns:  make([]ColumnMeta, len(s.Fields)),
	}
	for i, f := range s.Fields {
		meta.Columns[i] = ColumnMeta{Name: f.Name, Type: string(f.Type), Width: f.Width}
	}
	return meta
}

// ToSchema rebuilds a schema and checks it against the recorded row width
func (m TableMeta) ToSchema() (*schema.TableSchema, error) {
	fields := make([]schema.Field, len(m.Columns))
	for i, c := range m.Columns {
		t, err := types.ParseDbType(c.Type)
		if err != nil {
			return nil, &errors.CorruptDataError{Source: m.Name, Offset: -1, Reason: err.Error()}
		}
		fields[i] = schema.Field{Name: c.Name, Type: t, Width: c.Width}
	}

	s, err := schema.New(m.Name, fields)
	if err != nil {
		return nil, &errors.CorruptDataError{Source: m.Name, Offset: -1, Reason: err.Error()}
	}
	if s.RowWidth != m.RowWidth {
		return nil, &errors.CorruptDataError{
			Source: m.Name,
			Offset: -1,
			Reason: fmt.Sprintf("columns add up to %d bytes but row_width is %d", s.RowWidth, m.RowWidth),
		}
	}
	return s, nil
}

// LoadStoreMeta reads the store meta.json. ok is false if it does not exist yet.
func LoadStoreMeta(root string) (meta StoreMeta, ok bool, err error) {
	path := filepath.Join(root, MetaFile)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return StoreMeta{}, false, nil
	}
	if err != nil {
		return StoreMeta{}, false, errors.NewIOError("read", path, err)
	}

	if err := json.Unmarshal(raw, &meta); err != nil {
		return StoreMeta{}, false, &errors.CorruptDataError{Source: path, Offset: -1, Reason: err.Error()}
	}
	if meta.Version != FormatVersion {
		return StoreMeta{}, false, &errors.CorruptDataError{
			Source: path,
			Offset: -1,
			Reason: fmt.Sprintf("unsupported store version %d", meta.Version),
		}
	}
	return meta, true, nil
}

// LoadTableMeta reads tables/<title>/meta.json
func LoadTableMeta(root, title string) (TableMeta, error) {
	path := filepath.Join(TableDir(root, title), MetaFile)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return TableMeta{}, &errors.TableNotFoundError{TableName: title}
	}
	if err != nil {
		return TableMeta{}, errors.NewIOError("read", path, err)
	}

	var meta TableMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return TableMeta{}, &errors.CorruptDataError{Source: path, Offset: -1, Reason: err.Error()}
	}
	if meta.Name != title {
		return TableMeta{}, &errors.CorruptDataError{
			Source: path,
			Offset: -1,
			Reason: fmt.Sprintf("meta names table %q", meta.Name),
		}
	}
	return meta, nil
}
