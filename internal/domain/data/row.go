package data

import (
	"github.com/leengari/tablestore/internal/domain/types"
)

// Row is one decoded table row, values in schema order
type Row []types.Value

// Copy creates a deep copy of the row to prevent mutation
func (r Row) Copy() Row {
	out := make(Row, len(r))
	for i, v := range r {
		if v.Kind == types.KindBlob {
			v = types.BlobValue(v.Blob)
		}
		out[i] = v
	}
	return out
}

// QueryResult holds the rows a query matched, in on-disk order
type QueryResult struct {
	Table  string
	Fields []string
	Types  []types.DbType
	Rows   []Row
}

// Len returns the number of matched rows
func (q *QueryResult) Len() int {
	return len(q.Rows)
}

// Column returns the index of a field name, or -1
func (q *QueryResult) Column(name string) int {
	for i, f := range q.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Value returns the named field of row i
func (q *QueryResult) Value(i int, name string) (types.Value, bool) {
	col := q.Column(name)
	if col < 0 || i < 0 || i >= len(q.Rows) {
		return types.Value{}, false
	}
	return q.Rows[i][col], true
}
