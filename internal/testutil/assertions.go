package testutil

import (
	"testing"

	"github.com/leengari/tablestore/internal/domain/data"
)

// AssertRowCount checks if the result has the expected number of rows
func AssertRowCount(t *testing.T, result *data.QueryResult, expected int, context string) {
	t.Helper()
	if result.Len() != expected {
		t.Errorf("%s: expected %d rows, got %d", context, expected, result.Len())
	}
}

// AssertRows compares every row of the result with plain Go values, in order.
// Each expected row lists values in field order.
func AssertRows(t *testing.T, result *data.QueryResult, expected [][]interface{}, context string) {
	t.Helper()
	if result.Len() != len(expected) {
		t.Fatalf("%s: expected %d rows, got %d", context, len(expected), result.Len())
	}
	for i, want := range expected {
		got := result.Rows[i]
		if len(got) != len(want) {
			t.Fatalf("%s: row %d: expected %d columns, got %d", context, i, len(want), len(got))
		}
		for j := range want {
			if !equalPlain(got[j].Interface(), want[j]) {
				t.Errorf("%s: row %d %s: expected %v, got %v", context, i, result.Fields[j], want[j], got[j])
			}
		}
	}
}

// equalPlain compares a decoded value with a literal, allowing untyped ints
func equalPlain(got, want interface{}) bool {
	switch w := want.(type) {
	case int:
		g, ok := got.(int64)
		return ok && g == int64(w)
	case []byte:
		g, ok := got.([]byte)
		return ok && string(g) == string(w)
	default:
		return got == want
	}
}

// AssertNoError checks that an error is nil
func AssertNoError(t *testing.T, err error, context string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: expected no error, got: %v", context, err)
	}
}
