package schema

import (
	stderrors "errors"
	"testing"

	"github.com/google/uuid"
	"gotest.tools/v3/assert"

	"github.com/leengari/tablestore/internal/domain/data"
	"github.com/leengari/tablestore/internal/domain/errors"
	"github.com/leengari/tablestore/internal/domain/types"
)

func TestDeriveLayout(t *testing.T) {
	d := data.NewDatum("Agents").
		AddVal("alive", types.BoolValue(true)).
		AddVal("id", types.IntValue(7)).
		AddVal("mass", types.FloatValue(1.5)).
		AddVal("time", types.DoubleValue(2.25)).
		AddShapedVal("kind", types.StringValue("reactor"), 12).
		AddVal("note", types.StringValue("free text")).
		AddVal("payload", types.BlobValue([]byte{1, 2, 3})).
		AddVal("uid", types.UUIDValue(uuid.New()))

	s, err := Derive(d)
	assert.NilError(t, err)

	expected := []Field{
		{Name: "alive", Type: types.DbBool, Width: 1, Offset: 0},
		{Name: "id", Type: types.DbInt, Width: 8, Offset: 1},
		{Name: "mass", Type: types.DbFloat, Width: 4, Offset: 9},
		{Name: "time", Type: types.DbDouble, Width: 8, Offset: 13},
		{Name: "kind", Type: types.DbString, Width: 12, Offset: 21},
		{Name: "note", Type: types.DbVLString, Width: 20, Offset: 33},
		{Name: "payload", Type: types.DbBlob, Width: 20, Offset: 53},
		{Name: "uid", Type: types.DbUUID, Width: 16, Offset: 73},
	}
	assert.DeepEqual(t, expected, s.Fields)
	assert.Equal(t, 89, s.RowWidth)
	assert.Equal(t, "Agents", s.Name)
}

func TestDeriveRejectsBadDatums(t *testing.T) {
	tests := []struct {
		name   string
		datum  *data.Datum
		target error
	}{
		{
			name:   "no fields",
			datum:  data.NewDatum("Empty"),
			target: errors.ErrSchemaMismatch,
		},
		{
			name: "duplicate names",
			datum: data.NewDatum("Dup").
				AddVal("a", types.IntValue(1)).
				AddVal("a", types.IntValue(2)),
			target: errors.ErrSchemaMismatch,
		},
		{
			name:   "invalid value",
			datum:  data.NewDatum("Bad").AddVal("x", types.Value{}),
			target: errors.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Derive(tt.datum)
			assert.Assert(t, stderrors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestCheck(t *testing.T) {
	s, err := Derive(data.NewDatum("T").
		AddVal("a", types.IntValue(1)).
		AddVal("b", types.StringValue("x")))
	assert.NilError(t, err)

	assert.NilError(t, s.Check(data.NewDatum("T").
		AddVal("a", types.IntValue(5)).
		AddVal("b", types.StringValue("longer value"))))

	tests := []struct {
		name  string
		datum *data.Datum
	}{
		{"missing field", data.NewDatum("T").AddVal("a", types.IntValue(1))},
		{"extra field", data.NewDatum("T").
			AddVal("a", types.IntValue(1)).
			AddVal("b", types.StringValue("x")).
			AddVal("c", types.IntValue(3))},
		{"wrong order", data.NewDatum("T").
			AddVal("b", types.StringValue("x")).
			AddVal("a", types.IntValue(1))},
		{"wrong kind", data.NewDatum("T").
			AddVal("a", types.DoubleValue(1)).
			AddVal("b", types.StringValue("x"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Check(tt.datum)
			assert.Assert(t, stderrors.Is(err, errors.ErrSchemaMismatch), "got %v", err)
		})
	}
}

func TestNewRequiresStringWidth(t *testing.T) {
	_, err := New("T", []Field{{Name: "s", Type: types.DbString}})
	assert.Assert(t, stderrors.Is(err, errors.ErrSchemaMismatch))

	s, err := New("T", []Field{{Name: "s", Type: types.DbString, Width: 4}, {Name: "n", Type: types.DbInt, Width: 99}})
	assert.NilError(t, err)
	assert.Equal(t, 12, s.RowWidth)
	assert.Equal(t, 8, s.Fields[1].Width)
	assert.Equal(t, 4, s.Fields[1].Offset)
}

func TestRowWidthIsCapped(t *testing.T) {
	tests := []struct {
		name  string
		datum *data.Datum
	}{
		{
			name:  "huge shape hint",
			datum: data.NewDatum("T").AddShapedVal("s", types.StringValue("x"), 1<<50),
		},
		{
			name:  "one byte over",
			datum: data.NewDatum("T").AddShapedVal("s", types.StringValue("x"), MaxRowWidth+1),
		},
		{
			name: "sum over",
			datum: data.NewDatum("T").
				AddVal("n", types.IntValue(1)).
				AddShapedVal("s", types.StringValue("x"), MaxRowWidth-4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Derive(tt.datum)
			assert.Assert(t, stderrors.Is(err, errors.ErrSchemaMismatch), "got %v", err)
		})
	}

	s, err := Derive(data.NewDatum("T").AddShapedVal("s", types.StringValue("x"), MaxRowWidth))
	assert.NilError(t, err)
	assert.Equal(t, MaxRowWidth, s.RowWidth)
}
