package types

import "fmt"

// DbType is the on-disk type of a table field. The set is closed.
type DbType string

const (
	DbBool     DbType = "BOOL"
	DbInt      DbType = "INT"
	DbFloat    DbType = "FLOAT"
	DbDouble   DbType = "DOUBLE"
	DbString   DbType = "STRING"
	DbVLString DbType = "VL_STRING"
	DbBlob     DbType = "BLOB"
	DbUUID     DbType = "UUID"
)

// DigestSize is the width of a content digest stored in place of a VL value
const DigestSize = 20

// FixedWidth returns the byte width of fixed-size types.
// STRING has no intrinsic width and reports false.
func (t DbType) FixedWidth() (int, bool) {
	switch t {
	case DbBool:
		return 1, true
	case DbInt, DbDouble:
		return 8, true
	case DbFloat:
		return 4, true
	case DbVLString, DbBlob:
		return DigestSize, true
	case DbUUID:
		return 16, true
	default:
		return 0, false
	}
}

// Kind returns the Value kind produced when decoding a field of this type
func (t DbType) Kind() Kind {
	switch t {
	case DbBool:
		return KindBool
	case DbInt:
		return KindInt
	case DbFloat:
		return KindFloat
	case DbDouble:
		return KindDouble
	case DbString, DbVLString:
		return KindString
	case DbBlob:
		return KindBlob
	case DbUUID:
		return KindUUID
	default:
		return KindInvalid
	}
}

// IsVL reports whether values of this type live in the value store
func (t DbType) IsVL() bool {
	return t == DbVLString || t == DbBlob
}

// Valid reports whether t is one of the known DbTypes
func (t DbType) Valid() bool {
	return t.Kind() != KindInvalid
}

// ParseDbType converts a persisted type name back to a DbType
func ParseDbType(s string) (DbType, error) {
	t := DbType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown db type %q", s)
	}
	return t, nil
}
