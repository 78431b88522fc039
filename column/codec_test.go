package column_test

import (
	"bytes"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gear6io/chnative/column"
	"github.com/gear6io/chnative/wire"
)

// saveColumn serializes prefix+body into a fresh buffer.
func saveColumn(t *testing.T, col column.Column) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	require.NoError(t, col.SavePrefix(w))
	require.NoError(t, col.SaveBody(w))
	return buf.Bytes()
}

// loadColumn builds a column of the same type from serialized bytes,
// asserting every byte is consumed.
func loadColumn(t *testing.T, typ column.Type, data []byte, rows int) column.Column {
	t.Helper()
	out, err := column.New(typ)
	require.NoError(t, err)
	r := wire.NewReader(bytes.NewReader(data))
	require.NoError(t, out.LoadPrefix(r, rows))
	require.NoError(t, out.LoadBody(r, rows))
	_, err = r.ReadUInt8()
	assert.Error(t, err, "codec left bytes unconsumed")
	return out
}

func roundTrip(t *testing.T, col column.Column) column.Column {
	t.Helper()
	data := saveColumn(t, col)
	out := loadColumn(t, col.Type(), data, col.Rows())
	require.Equal(t, col.Rows(), out.Rows())

	// A second save must be bitwise identical to the bytes consumed.
	assert.Equal(t, data, saveColumn(t, out))
	return out
}

func assertValues(t *testing.T, col column.Column, want []any) {
	t.Helper()
	require.Equal(t, len(want), col.Rows())
	for i, v := range want {
		assert.Equal(t, v, col.Value(i), "row %d", i)
	}
}

func buildColumn(t *testing.T, typeName string, values []any) column.Column {
	t.Helper()
	typ, err := column.Parse(typeName)
	require.NoError(t, err)
	col, err := column.New(typ)
	require.NoError(t, err)
	for _, v := range values {
		require.NoError(t, col.AppendValue(v))
	}
	return col
}

func TestRoundTripScalars(t *testing.T) {
	cases := []struct {
		typeName string
		values   []any
	}{
		{"UInt8", []any{uint8(0), uint8(1), uint8(255)}},
		{"UInt16", []any{uint16(0), uint16(65535)}},
		{"UInt32", []any{uint32(0), uint32(1 << 31)}},
		{"UInt64", []any{uint64(0), uint64(1) << 63, uint64(42)}},
		{"Int8", []any{int8(-128), int8(0), int8(127)}},
		{"Int16", []any{int16(-32768), int16(32767)}},
		{"Int32", []any{int32(-1), int32(1)}},
		{"Int64", []any{int64(-1 << 62), int64(0), int64(1000)}},
		{"Float32", []any{float32(0), float32(-1.5), float32(3.25)}},
		{"Float64", []any{0.0, -2.5, 1e100}},
		{"String", []any{"", "hi", string(bytes.Repeat([]byte("x"), 300))}},
		{"FixedString(4)", []any{[]byte{1, 2, 3, 4}, []byte{0, 0, 0, 0}}},
	}
	for _, tc := range cases {
		col := buildColumn(t, tc.typeName, tc.values)
		out := roundTrip(t, col)
		assertValues(t, out, tc.values)
	}
}

func TestRoundTripEmptyEveryType(t *testing.T) {
	names := []string{
		"UInt8", "UInt64", "Int128", "Float64", "String", "FixedString(8)",
		"Date", "Date32", "DateTime", "DateTime64(3)", "Decimal(9, 2)",
		"Decimal(18, 4)", "Decimal(38, 8)", "Enum8('a' = 1)", "UUID",
		"IPv4", "IPv6", "Nothing", "Nullable(String)", "Array(UInt64)",
		"Tuple(UInt8, String)", "Map(String, UInt64)",
		"LowCardinality(String)", "LowCardinality(Nullable(String))",
	}
	for _, name := range names {
		typ, err := column.Parse(name)
		require.NoError(t, err)
		col, err := column.New(typ)
		require.NoError(t, err)

		// An empty column's body serializes to zero bytes.
		var buf bytes.Buffer
		w := wire.NewWriter(&buf)
		require.NoError(t, col.SaveBody(w))
		assert.Equal(t, 0, buf.Len(), "type %s wrote body bytes for zero rows", name)

		// Loading zero rows consumes nothing.
		r := wire.NewReader(bytes.NewReader(nil))
		require.NoError(t, col.LoadBody(r, 0), "type %s", name)
	}
}

func TestRoundTripTemporal(t *testing.T) {
	day := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	moment := time.Date(2024, 5, 17, 12, 34, 56, 0, time.UTC)

	dateCol := buildColumn(t, "Date", []any{day, day.AddDate(0, 0, 30)})
	assertValues(t, roundTrip(t, dateCol), []any{day, day.AddDate(0, 0, 30)})

	before := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
	date32 := buildColumn(t, "Date32", []any{before, day})
	assertValues(t, roundTrip(t, date32), []any{before, day})

	dt := buildColumn(t, "DateTime", []any{moment})
	assertValues(t, roundTrip(t, dt), []any{moment})

	precise := time.Date(2024, 5, 17, 12, 34, 56, 789_000_000, time.UTC)
	dt64 := buildColumn(t, "DateTime64(3)", []any{precise})
	assertValues(t, roundTrip(t, dt64), []any{precise})
}

func TestRoundTripUUID(t *testing.T) {
	values := []any{
		uuid.MustParse("6f87f652-1234-5678-9abc-def012345678"),
		uuid.UUID{},
	}
	col := buildColumn(t, "UUID", values)
	out := roundTrip(t, col)
	assertValues(t, out, values)
}

func TestUUIDWireHalves(t *testing.T) {
	// Two little-endian 64-bit halves, high half of the canonical form
	// first.
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	col := buildColumn(t, "UUID", []any{id})
	data := saveColumn(t, col)
	require.Len(t, data, 16)
	assert.Equal(t, []byte{0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11, 0x00}, data[:8])
	assert.Equal(t, []byte{0xff, 0xee, 0xdd, 0xcc, 0xbb, 0xaa, 0x99, 0x88}, data[8:])
}

func TestRoundTripIP(t *testing.T) {
	v4 := []any{netip.MustParseAddr("1.2.3.4"), netip.MustParseAddr("255.255.255.255")}
	assertValues(t, roundTrip(t, buildColumn(t, "IPv4", v4)), v4)

	v6 := []any{netip.MustParseAddr("2001:db8::1"), netip.MustParseAddr("::1")}
	assertValues(t, roundTrip(t, buildColumn(t, "IPv6", v6)), v6)
}

func TestRoundTripInt128(t *testing.T) {
	values := []any{
		column.I128FromInt64(-5),
		column.I128{Lo: 0xFFFFFFFFFFFFFFFF, Hi: 0x7FFFFFFFFFFFFFFF},
		column.I128{},
	}
	col := buildColumn(t, "Int128", values)
	assertValues(t, roundTrip(t, col), values)
}

func TestRoundTripEnum(t *testing.T) {
	typ, err := column.Parse("Enum8('small' = 1, 'large' = 2)")
	require.NoError(t, err)
	col, err := column.New(typ)
	require.NoError(t, err)

	enum := col.(*column.Enum8)
	require.NoError(t, enum.AppendName("small"))
	require.NoError(t, enum.AppendName("large"))
	require.NoError(t, enum.AppendName("small"))

	out := roundTrip(t, enum).(*column.Enum8)
	name, ok := out.Name(0)
	require.True(t, ok)
	assert.Equal(t, "small", name)
	name, ok = out.Name(1)
	require.True(t, ok)
	assert.Equal(t, "large", name)

	// The wire carries one signed byte per row.
	assert.Len(t, saveColumn(t, enum), 3)
}

func TestEnumUnknownName(t *testing.T) {
	typ, err := column.Parse("Enum8('a' = 1)")
	require.NoError(t, err)
	col, err := column.New(typ)
	require.NoError(t, err)
	require.Error(t, col.(*column.Enum8).AppendName("missing"))
}

func TestRoundTripNothing(t *testing.T) {
	col := buildColumn(t, "Nothing", []any{nil, nil, nil})
	data := saveColumn(t, col)
	assert.Equal(t, []byte{0, 0, 0}, data)
	out := loadColumn(t, col.Type(), data, 3)
	assert.Equal(t, 3, out.Rows())
}

func TestSliceScalars(t *testing.T) {
	col := buildColumn(t, "UInt64", []any{uint64(10), uint64(11), uint64(12), uint64(13)})
	sliced, err := col.Slice(1, 2)
	require.NoError(t, err)
	assertValues(t, sliced, []any{uint64(11), uint64(12)})
	assert.True(t, sliced.Type().Equal(col.Type()))

	_, err = col.Slice(3, 2)
	require.Error(t, err)
}

func TestAppendFrom(t *testing.T) {
	a := buildColumn(t, "String", []any{"x", "y", "z"})
	b := buildColumn(t, "String", []any{})
	require.NoError(t, b.AppendFrom(a, 1, 2))
	assertValues(t, b, []any{"y", "z"})

	mismatch := buildColumn(t, "UInt8", []any{uint8(1)})
	require.Error(t, b.AppendFrom(mismatch, 0, 1))
}

func TestFixedStringPadsAndTruncates(t *testing.T) {
	col, err := column.New(column.TFixedString(4))
	require.NoError(t, err)
	fs := col.(*column.FixedString)
	fs.Append([]byte("ab"))
	fs.Append([]byte("abcdef"))

	assert.Equal(t, []byte{'a', 'b', 0, 0}, fs.Row(0))
	assert.Equal(t, []byte("abcd"), fs.Row(1))
	assert.Len(t, saveColumn(t, fs), 8)
}

func TestTupleRoundTrip(t *testing.T) {
	values := []any{
		[]any{uint8(1), "one"},
		[]any{uint8(2), "two"},
	}
	col := buildColumn(t, "Tuple(UInt8, String)", values)
	out := roundTrip(t, col)
	assertValues(t, out, values)
}

func TestGeoPointRoundTrip(t *testing.T) {
	values := []any{
		[]any{1.5, -2.5},
		[]any{0.0, 0.0},
	}
	col := buildColumn(t, "Point", values)
	assert.Equal(t, "Point", col.Type().String())
	out := roundTrip(t, col)
	assertValues(t, out, values)
}
