package query

import (
	"fmt"

	"github.com/leengari/tablestore/internal/domain/errors"
	"github.com/leengari/tablestore/internal/domain/schema"
	"github.com/leengari/tablestore/internal/domain/types"
)

// PredicateFunc tests a single decoded field value
type PredicateFunc func(types.Value) bool

// Matcher holds the compiled predicates of a query, grouped by field position.
// All predicates must hold for a row to match.
type Matcher struct {
	byField [][]PredicateFunc
	count   int
}

// Compile checks every condition against the schema and groups the
// resulting predicates by field.
func Compile(s *schema.TableSchema, conds []Condition) (*Matcher, error) {
	m := &Matcher{byField: make([][]PredicateFunc, len(s.Fields))}

	for _, c := range conds {
		idx := s.FieldIndex(c.Field)
		if idx < 0 {
			return nil, &errors.UnknownFieldError{TableName: s.Name, FieldName: c.Field}
		}

		pred, err := buildPredicate(s.Fields[idx], c)
		if err != nil {
			return nil, err
		}
		m.byField[idx] = append(m.byField[idx], pred)
		m.count++
	}

	return m, nil
}

// buildPredicate builds the predicate for one condition on one field
func buildPredicate(f schema.Field, c Condition) (PredicateFunc, error) {
	if !c.Op.Valid() {
		return nil, &errors.InvalidConditionError{
			FieldName: c.Field,
			Operator:  string(c.Op),
			Reason:    "unknown operator",
		}
	}

	fieldKind := f.Type.Kind()
	if !types.Comparable(fieldKind, c.Value.Kind) {
		return nil, &errors.InvalidConditionError{
			FieldName: c.Field,
			Operator:  string(c.Op),
			Reason:    fmt.Sprintf("cannot compare %s field with %s operand", f.Type, c.Value.Kind),
		}
	}

	op := c.Op
	operand := c.Value
	switch {
	case operand.Kind == types.KindBlob:
		operand = types.BlobValue(operand.Blob)
	case fieldKind == types.KindFloat:
		// FLOAT cells hold binary32 values
		operand = operand.AsFloat32()
	}

	return func(v types.Value) bool {
		cmp, err := types.Compare(v, operand)
		if err != nil {
			return false
		}
		return op.holds(cmp)
	}, nil
}

// Match reports whether the value of field i satisfies all of its conditions.
// A nil Matcher matches everything.
func (m *Matcher) Match(i int, v types.Value) bool {
	if m == nil || i >= len(m.byField) {
		return true
	}
	for _, pred := range m.byField[i] {
		if !pred(v) {
			return false
		}
	}
	return true
}

// Len returns the number of compiled conditions
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return m.count
}
