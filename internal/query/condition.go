// Package query compiles field conditions into per-field predicates
// that the row decoder evaluates as it walks a row.
package query

import (
	"fmt"

	"github.com/leengari/tablestore/internal/domain/types"
)

// Operator is a comparison between a field value and an operand
type Operator string

const (
	OpEq Operator = "=="
	OpNe Operator = "!="
	OpLt Operator = "<"
	OpLe Operator = "<="
	OpGt Operator = ">"
	OpGe Operator = ">="
)

// ParseOperator accepts the canonical spellings plus "=" and "<>"
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "==", "=":
		return OpEq, nil
	case "!=", "<>":
		return OpNe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	default:
		return "", fmt.Errorf("unknown operator %q", s)
	}
}

// Valid reports whether op is one of the six comparison operators
func (op Operator) Valid() bool {
	_, err := ParseOperator(string(op))
	return err == nil && op != "=" && op != "<>"
}

// holds reports whether a comparison result satisfies the operator
func (op Operator) holds(cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	default:
		return false
	}
}

// Condition restricts one field: Field Op Value
type Condition struct {
	Field string
	Op    Operator
	Value types.Value
}

// NewCondition is a shorthand for building a Condition
func NewCondition(field string, op Operator, v types.Value) Condition {
	return Condition{Field: field, Op: op, Value: v}
}

func (c Condition) String() string {
	if c.Value.Kind == types.KindString {
		return fmt.Sprintf("%s %s '%s'", c.Field, c.Op, c.Value.Str)
	}
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value)
}
