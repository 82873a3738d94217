package schema

import (
	"fmt"

	"github.com/leengari/tablestore/internal/domain/data"
	"github.com/leengari/tablestore/internal/domain/errors"
	"github.com/leengari/tablestore/internal/domain/types"
)

// Field is one column of a packed row
type Field struct {
	Name   string
	Type   types.DbType
	Width  int
	Offset int
}

// TableSchema is the ordered field layout of a table.
// It is fixed when the table is created and never changes afterwards.
type TableSchema struct {
	Name     string
	Fields   []Field
	RowWidth int
}

// MaxRowWidth caps the packed size of one row. Longer strings belong in
// VL_STRING fields.
const MaxRowWidth = 1 << 16

// New lays out fields back to back in the given order and computes offsets.
// Widths of fixed-size types are taken from the type; STRING keeps the given width.
func New(name string, fields []Field) (*TableSchema, error) {
	s := &TableSchema{Name: name, Fields: make([]Field, 0, len(fields))}
	seen := make(map[string]bool, len(fields))

	for _, f := range fields {
		if f.Name == "" {
			return nil, &errors.SchemaMismatchError{Table: name, Reason: "empty field name"}
		}
		if seen[f.Name] {
			return nil, &errors.SchemaMismatchError{Table: name, Field: f.Name, Reason: "duplicate field name"}
		}
		seen[f.Name] = true

		if !f.Type.Valid() {
			return nil, &errors.UnsupportedTypeError{Field: f.Name, Type: string(f.Type)}
		}
		if w, ok := f.Type.FixedWidth(); ok {
			f.Width = w
		} else if f.Width <= 0 {
			return nil, &errors.SchemaMismatchError{
				Table:  name,
				Field:  f.Name,
				Reason: fmt.Sprintf("%s field needs a positive width", f.Type),
			}
		}

		if f.Width > MaxRowWidth-s.RowWidth {
			return nil, &errors.SchemaMismatchError{
				Table:  name,
				Field:  f.Name,
				Reason: fmt.Sprintf("width %d exceeds the maximum row width of %d bytes", f.Width, MaxRowWidth),
			}
		}

		f.Offset = s.RowWidth
		s.RowWidth += f.Width
		s.Fields = append(s.Fields, f)
	}

	if len(s.Fields) == 0 {
		return nil, &errors.SchemaMismatchError{Table: name, Reason: "table has no fields"}
	}
	return s, nil
}

// Derive builds a schema from the first datum written under a title.
func Derive(d *data.Datum) (*TableSchema, error) {
	fields := make([]Field, 0, len(d.Vals))
	for _, v := range d.Vals {
		t, width, err := dbTypeOf(v)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: v.Name, Type: t, Width: width})
	}
	return New(d.Title, fields)
}

// dbTypeOf maps a datum entry to its on-disk type
func dbTypeOf(v data.Val) (types.DbType, int, error) {
	switch v.Value.Kind {
	case types.KindBool:
		return types.DbBool, 0, nil
	case types.KindInt:
		return types.DbInt, 0, nil
	case types.KindFloat:
		return types.DbFloat, 0, nil
	case types.KindDouble:
		return types.DbDouble, 0, nil
	case types.KindString:
		if v.Shape > 0 {
			return types.DbString, v.Shape, nil
		}
		return types.DbVLString, 0, nil
	case types.KindBlob:
		return types.DbBlob, 0, nil
	case types.KindUUID:
		return types.DbUUID, 0, nil
	default:
		return "", 0, &errors.UnsupportedTypeError{Field: v.Name, Type: v.Value.Kind.String()}
	}
}

// Check verifies that a datum has exactly this schema's fields, in order,
// with values of the matching kind.
func (s *TableSchema) Check(d *data.Datum) error {
	if len(d.Vals) != len(s.Fields) {
		return &errors.SchemaMismatchError{
			Table:    s.Name,
			Expected: fmt.Sprintf("%d fields", len(s.Fields)),
			Got:      fmt.Sprintf("%d fields", len(d.Vals)),
		}
	}

	for i, f := range s.Fields {
		v := d.Vals[i]
		if v.Name != f.Name {
			return &errors.SchemaMismatchError{
				Table:    s.Name,
				Field:    f.Name,
				Expected: fmt.Sprintf("field %q at position %d", f.Name, i),
				Got:      fmt.Sprintf("field %q", v.Name),
			}
		}
		if v.Value.Kind != f.Type.Kind() {
			return &errors.SchemaMismatchError{
				Table:    s.Name,
				Field:    f.Name,
				Expected: string(f.Type),
				Got:      v.Value.Kind.String(),
			}
		}
	}
	return nil
}

// FieldIndex returns the position of a field by name, or -1
func (s *TableSchema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FieldNames returns the field names in schema order
func (s *TableSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Types returns the field DbTypes in schema order
func (s *TableSchema) Types() []types.DbType {
	ts := make([]types.DbType, len(s.Fields))
	for i, f := range s.Fields {
		ts[i] = f.Type
	}
	return ts
}

// Equal reports whether two schemas describe the same layout
func (s *TableSchema) Equal(o *TableSchema) bool {
	if s.Name != o.Name || s.RowWidth != o.RowWidth || len(s.Fields) != len(o.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}
