package types

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies which member of the Value union is populated.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDouble
	KindString
	KindBlob
	KindUUID
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindUUID:
		return "uuid"
	default:
		return "invalid"
	}
}

// IsNumeric reports whether values of this kind compare as numbers
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat || k == KindDouble
}

// Value is a closed tagged union over the kinds the engine understands.
// Only the member matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Float  float32
	Double float64
	Str    string
	Blob   []byte
	UUID   uuid.UUID
}

func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

func FloatValue(f float32) Value { return Value{Kind: KindFloat, Float: f} }

func DoubleValue(d float64) Value { return Value{Kind: KindDouble, Double: d} }

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

func UUIDValue(u uuid.UUID) Value { return Value{Kind: KindUUID, UUID: u} }

// BlobValue copies b so the returned Value owns its buffer.
func BlobValue(b []byte) Value {
	owned := make([]byte, len(b))
	copy(owned, b)
	return Value{Kind: KindBlob, Blob: owned}
}

// Interface returns the populated member as a plain Go value
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindDouble:
		return v.Double
	case KindString:
		return v.Str
	case KindBlob:
		return v.Blob
	case KindUUID:
		return v.UUID
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindBlob:
		return fmt.Sprintf("blob(%d bytes)", len(v.Blob))
	case KindUUID:
		return v.UUID.String()
	case KindInvalid:
		return "<invalid>"
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// Equal reports whether two values have the same kind and content
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	c, err := Compare(v, o)
	return err == nil && c == 0
}

// Comparable reports whether Compare accepts the two kinds.
// Numeric kinds compare with each other; everything else must match exactly.
func Comparable(a, b Kind) bool {
	if a == KindInvalid || b == KindInvalid {
		return false
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	return a == b
}

// Compare returns -1, 0 or 1 ordering a relative to b.
// Int against Int compares exactly; mixed numeric kinds compare as float64.
func Compare(a, b Value) (int, error) {
	if !Comparable(a.Kind, b.Kind) {
		return 0, fmt.Errorf("cannot compare %s with %s", a.Kind, b.Kind)
	}

	if a.Kind == KindInt && b.Kind == KindInt {
		return cmpOrdered(a.Int, b.Int), nil
	}
	if a.Kind.IsNumeric() {
		return cmpOrdered(a.asFloat64(), b.asFloat64()), nil
	}

	switch a.Kind {
	case KindBool:
		return cmpOrdered(boolRank(a.Bool), boolRank(b.Bool)), nil
	case KindString:
		return cmpOrdered(a.Str, b.Str), nil
	case KindBlob:
		return bytes.Compare(a.Blob, b.Blob), nil
	case KindUUID:
		return bytes.Compare(a.UUID[:], b.UUID[:]), nil
	}
	return 0, fmt.Errorf("cannot compare %s values", a.Kind)
}

// AsFloat32 converts a numeric value to the precision of a FLOAT field
func (v Value) AsFloat32() Value {
	if !v.Kind.IsNumeric() {
		return v
	}
	return FloatValue(float32(v.asFloat64()))
}

func (v Value) asFloat64() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindFloat:
		return float64(v.Float)
	default:
		return v.Double
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func cmpOrdered[T int | int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
