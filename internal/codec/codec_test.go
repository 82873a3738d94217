package codec

import (
	stderrors "errors"
	"testing"

	"github.com/google/uuid"
	"gotest.tools/v3/assert"

	"github.com/leengari/tablestore/internal/digest"
	"github.com/leengari/tablestore/internal/domain/data"
	"github.com/leengari/tablestore/internal/domain/errors"
	"github.com/leengari/tablestore/internal/domain/schema"
	"github.com/leengari/tablestore/internal/domain/types"
	"github.com/leengari/tablestore/internal/query"
	"github.com/leengari/tablestore/internal/storage/vlstore"
)

// memStore is an in-memory ValuePutter/ValueGetter that counts calls
type memStore struct {
	values map[vlstore.Category]map[digest.Digest][]byte
	puts   int
	gets   int
}

func newMemStore() *memStore {
	return &memStore{values: map[vlstore.Category]map[digest.Digest][]byte{
		vlstore.CategoryString: {},
		vlstore.CategoryBlob:   {},
	}}
}

func (m *memStore) Put(cat vlstore.Category, value []byte) (digest.Digest, error) {
	m.puts++
	d := digest.Sum(value)
	m.values[cat][d] = append([]byte(nil), value...)
	return d, nil
}

func (m *memStore) Get(cat vlstore.Category, d digest.Digest) ([]byte, error) {
	m.gets++
	v, ok := m.values[cat][d]
	if !ok {
		return nil, &errors.NotFoundError{Category: cat.String(), Digest: d.String()}
	}
	return v, nil
}

func mustDerive(t *testing.T, d *data.Datum) *schema.TableSchema {
	t.Helper()
	s, err := schema.Derive(d)
	assert.NilError(t, err)
	return s
}

func TestRoundTripAllTypes(t *testing.T) {
	id := uuid.New()
	d := data.NewDatum("All").
		AddVal("flag", types.BoolValue(true)).
		AddVal("n", types.IntValue(-42)).
		AddVal("f", types.FloatValue(3.25)).
		AddVal("x", types.DoubleValue(1e-9)).
		AddShapedVal("code", types.StringValue("abc"), 8).
		AddVal("text", types.StringValue("variable length text")).
		AddVal("raw", types.BlobValue([]byte{0, 1, 2, 0xff})).
		AddVal("id", types.UUIDValue(id))

	s := mustDerive(t, d)
	store := newMemStore()

	buf, err := Encode(s, d, store)
	assert.NilError(t, err)
	assert.Equal(t, s.RowWidth, len(buf))
	assert.Equal(t, 2, store.puts)

	row, ok, err := Decode(s, buf, nil, store)
	assert.NilError(t, err)
	assert.Assert(t, ok)

	for i, v := range d.Vals {
		assert.Assert(t, row[i].Equal(v.Value), "field %s: got %v want %v", v.Name, row[i], v.Value)
	}
}

func TestFixedStringTruncationAndPadding(t *testing.T) {
	s, err := schema.New("Fixed", []schema.Field{{Name: "s", Type: types.DbString, Width: 4}})
	assert.NilError(t, err)

	tests := []struct {
		in, out string
		raw     []byte
	}{
		{"abcdefgh", "abcd", []byte("abcd")},
		{"ab", "ab", []byte{'a', 'b', 0, 0}},
		{"", "", []byte{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			buf, err := Encode(s, data.NewDatum("Fixed").AddVal("s", types.StringValue(tt.in)), nil)
			assert.NilError(t, err)
			assert.DeepEqual(t, tt.raw, buf)

			row, ok, err := Decode(s, buf, nil, nil)
			assert.NilError(t, err)
			assert.Assert(t, ok)
			assert.Equal(t, tt.out, row[0].Str)
		})
	}
}

func TestEncodeIntoReusesBuffer(t *testing.T) {
	s, err := schema.New("Fixed", []schema.Field{{Name: "s", Type: types.DbString, Width: 4}})
	assert.NilError(t, err)

	buf := make([]byte, 4)
	assert.NilError(t, EncodeInto(buf, s, data.NewDatum("Fixed").AddVal("s", types.StringValue("wxyz")), nil))
	assert.NilError(t, EncodeInto(buf, s, data.NewDatum("Fixed").AddVal("s", types.StringValue("a")), nil))
	assert.DeepEqual(t, []byte{'a', 0, 0, 0}, buf)

	err = EncodeInto(make([]byte, 3), s, data.NewDatum("Fixed").AddVal("s", types.StringValue("a")), nil)
	assert.ErrorContains(t, err, "needs 4")
}

func TestEncodeMismatchStoresNothing(t *testing.T) {
	s := mustDerive(t, data.NewDatum("T").
		AddVal("a", types.IntValue(1)).
		AddVal("b", types.StringValue("x")))
	store := newMemStore()

	bad := data.NewDatum("T").
		AddVal("b", types.StringValue("x")).
		AddVal("a", types.IntValue(1))

	_, err := Encode(s, bad, store)
	assert.Assert(t, stderrors.Is(err, errors.ErrSchemaMismatch))
	assert.Equal(t, 0, store.puts)
}

func TestDecodeShortCircuits(t *testing.T) {
	d := data.NewDatum("T").
		AddVal("a", types.IntValue(1)).
		AddVal("b", types.StringValue("hello"))
	s := mustDerive(t, d)
	store := newMemStore()

	buf, err := Encode(s, d, store)
	assert.NilError(t, err)

	m, err := query.Compile(s, []query.Condition{query.NewCondition("a", query.OpEq, types.IntValue(2))})
	assert.NilError(t, err)

	row, ok, err := Decode(s, buf, m, store)
	assert.NilError(t, err)
	assert.Assert(t, !ok)
	assert.Assert(t, row == nil)
	assert.Equal(t, 0, store.gets)

	m, err = query.Compile(s, []query.Condition{query.NewCondition("a", query.OpEq, types.IntValue(1))})
	assert.NilError(t, err)

	row, ok, err = Decode(s, buf, m, store)
	assert.NilError(t, err)
	assert.Assert(t, ok)
	assert.Equal(t, "hello", row[1].Str)
	assert.Equal(t, 1, store.gets)
}

func TestDecodeShortBuffer(t *testing.T) {
	s := mustDerive(t, data.NewDatum("T").AddVal("a", types.IntValue(1)))
	_, _, err := Decode(s, make([]byte, 4), nil, nil)
	assert.Assert(t, stderrors.Is(err, errors.ErrCorruptData))
}

func TestDecodeMissingDigest(t *testing.T) {
	d := data.NewDatum("T").AddVal("b", types.BlobValue([]byte("payload")))
	s := mustDerive(t, d)

	buf, err := Encode(s, d, newMemStore())
	assert.NilError(t, err)

	_, _, err = Decode(s, buf, nil, newMemStore())
	assert.Assert(t, stderrors.Is(err, errors.ErrNotFound), "got %v", err)
}

func TestNumericEncodingIsLittleEndian(t *testing.T) {
	s := mustDerive(t, data.NewDatum("T").
		AddVal("n", types.IntValue(0x0102)).
		AddVal("ok", types.BoolValue(true)))

	buf, err := Encode(s, data.NewDatum("T").
		AddVal("n", types.IntValue(0x0102)).
		AddVal("ok", types.BoolValue(true)), nil)
	assert.NilError(t, err)
	assert.DeepEqual(t, []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0, 1}, buf)
}
