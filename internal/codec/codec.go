// Package codec packs datums into fixed-width rows and unpacks them again.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/leengari/tablestore/internal/digest"
	"github.com/leengari/tablestore/internal/domain/data"
	"github.com/leengari/tablestore/internal/domain/errors"
	"github.com/leengari/tablestore/internal/domain/schema"
	"github.com/leengari/tablestore/internal/domain/types"
	"github.com/leengari/tablestore/internal/storage/vlstore"
)

// ByteOrder is the byte order of numeric fields inside a row
var ByteOrder = binary.LittleEndian

// ValuePutter stores a variable-length value and returns its digest
type ValuePutter interface {
	Put(cat vlstore.Category, value []byte) (digest.Digest, error)
}

// ValueGetter resolves a digest back to its content
type ValueGetter interface {
	Get(cat vlstore.Category, d digest.Digest) ([]byte, error)
}

// Matcher decides, field by field, whether a row is still wanted
type Matcher interface {
	Match(field int, v types.Value) bool
}

// categoryOf maps a VL DbType to its value store category
func categoryOf(t types.DbType) vlstore.Category {
	if t == types.DbBlob {
		return vlstore.CategoryBlob
	}
	return vlstore.CategoryString
}

// ===========================================================================
// ENCODE
// ===========================================================================

// Encode packs a datum into a new row of s.RowWidth bytes
func Encode(s *schema.TableSchema, d *data.Datum, putter ValuePutter) ([]byte, error) {
	row := make([]byte, s.RowWidth)
	if err := EncodeInto(row, s, d, putter); err != nil {
		return nil, err
	}
	return row, nil
}

// EncodeInto packs a datum into dst, which must be exactly s.RowWidth bytes.
// The datum is checked against the schema before any value is stored.
func EncodeInto(dst []byte, s *schema.TableSchema, d *data.Datum, putter ValuePutter) error {
	if len(dst) != s.RowWidth {
		return fmt.Errorf("row buffer is %d bytes, schema %s needs %d", len(dst), s.Name, s.RowWidth)
	}
	if err := s.Check(d); err != nil {
		return err
	}

	for i, f := range s.Fields {
		v := d.Vals[i].Value
		cell := dst[f.Offset : f.Offset+f.Width]

		switch f.Type {
		case types.DbBool:
			cell[0] = 0
			if v.Bool {
				cell[0] = 1
			}
		case types.DbInt:
			ByteOrder.PutUint64(cell, uint64(v.Int))
		case types.DbFloat:
			ByteOrder.PutUint32(cell, math.Float32bits(v.Float))
		case types.DbDouble:
			ByteOrder.PutUint64(cell, math.Float64bits(v.Double))
		case types.DbString:
			n := copy(cell, v.Str)
			clear(cell[n:])
		case types.DbVLString, types.DbBlob:
			if putter == nil {
				return fmt.Errorf("field %s.%s needs a value store", s.Name, f.Name)
			}
			raw := v.Blob
			if f.Type == types.DbVLString {
				raw = []byte(v.Str)
			}
			dg, err := putter.Put(categoryOf(f.Type), raw)
			if err != nil {
				return fmt.Errorf("failed to store %s.%s: %w", s.Name, f.Name, err)
			}
			copy(cell, dg[:])
		case types.DbUUID:
			copy(cell, v.UUID[:])
		default:
			return &errors.UnsupportedTypeError{Field: f.Name, Type: string(f.Type)}
		}
	}
	return nil
}

// ===========================================================================
// DECODE
// ===========================================================================

// Decode unpacks one row. Fields are decoded left to right; as soon as a
// field fails its conditions decoding stops and ok is false. Later fields,
// including their value store lookups, are never touched.
func Decode(s *schema.TableSchema, buf []byte, m Matcher, getter ValueGetter) (row data.Row, ok bool, err error) {
	if len(buf) < s.RowWidth {
		return nil, false, &errors.CorruptDataError{
			Source: s.Name,
			Offset: -1,
			Reason: fmt.Sprintf("row buffer has %d bytes, need %d", len(buf), s.RowWidth),
		}
	}

	row = make(data.Row, len(s.Fields))
	for i, f := range s.Fields {
		v, err := decodeField(s, f, buf[f.Offset:f.Offset+f.Width], getter)
		if err != nil {
			return nil, false, err
		}
		if m != nil && !m.Match(i, v) {
			return nil, false, nil
		}
		row[i] = v
	}
	return row, true, nil
}

func decodeField(s *schema.TableSchema, f schema.Field, cell []byte, getter ValueGetter) (types.Value, error) {
	switch f.Type {
	case types.DbBool:
		return types.BoolValue(cell[0] != 0), nil
	case types.DbInt:
		return types.IntValue(int64(ByteOrder.Uint64(cell))), nil
	case types.DbFloat:
		return types.FloatValue(math.Float32frombits(ByteOrder.Uint32(cell))), nil
	case types.DbDouble:
		return types.DoubleValue(math.Float64frombits(ByteOrder.Uint64(cell))), nil
	case types.DbString:
		if n := bytes.IndexByte(cell, 0); n >= 0 {
			cell = cell[:n]
		}
		return types.StringValue(string(cell)), nil
	case types.DbVLString, types.DbBlob:
		if getter == nil {
			return types.Value{}, fmt.Errorf("field %s.%s needs a value store", s.Name, f.Name)
		}
		dg, err := digest.FromBytes(cell)
		if err != nil {
			return types.Value{}, &errors.CorruptDataError{Source: s.Name, Offset: int64(f.Offset), Reason: err.Error()}
		}
		raw, err := getter.Get(categoryOf(f.Type), dg)
		if err != nil {
			return types.Value{}, fmt.Errorf("failed to resolve %s.%s: %w", s.Name, f.Name, err)
		}
		if f.Type == types.DbBlob {
			return types.BlobValue(raw), nil
		}
		return types.StringValue(string(raw)), nil
	case types.DbUUID:
		u, err := uuid.FromBytes(cell)
		if err != nil {
			return types.Value{}, &errors.CorruptDataError{Source: s.Name, Offset: int64(f.Offset), Reason: err.Error()}
		}
		return types.UUIDValue(u), nil
	default:
		return types.Value{}, &errors.UnsupportedTypeError{Field: f.Name, Type: string(f.Type)}
	}
}
