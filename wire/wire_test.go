package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gear6io/chnative/pkg/errors"
)

func TestUVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 255, 256, 65535, 65536, 1<<32 - 1, 1 << 32, 1<<64 - 1}

	for _, v := range values {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		require.NoError(t, w.WriteUVarint(v))

		r := NewReader(&buf)
		got, err := r.ReadUVarint()
		require.NoError(t, err)
		assert.Equal(t, v, got, "uvarint %d", v)
	}
}

func TestUVarintMaxEncodingLength(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteUVarint(1<<64-1))
	assert.Equal(t, 10, buf.Len())
}

func TestUVarintTooLong(t *testing.T) {
	// Eleven continuation bytes never terminate a legal varint.
	r := NewReader(bytes.NewReader(bytes.Repeat([]byte{0x80}, 11)))
	_, err := r.ReadUVarint()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrVarintTooLong))
}

func TestUVarintTruncated(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x80, 0x80}))
	_, err := r.ReadUVarint()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrUnexpectedEnd))
}

func TestFixedLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteUInt32(0x12345678))
	assert.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, buf.Bytes())

	r := NewReader(&buf)
	v, err := r.ReadUInt32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)
}

func TestFixedRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteUInt8(0xAB))
	require.NoError(t, w.WriteInt16(-1234))
	require.NoError(t, w.WriteInt32(-123456))
	require.NoError(t, w.WriteInt64(-1234567890123))
	require.NoError(t, w.WriteUInt64(0xDEADBEEFCAFEBABE))
	require.NoError(t, w.WriteFloat32(3.14159))
	require.NoError(t, w.WriteFloat64(-2.718281828))
	require.NoError(t, w.WriteUInt128(1, 2))

	r := NewReader(&buf)
	u8, err := r.ReadUInt8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u8)
	i16, err := r.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(-1234), i16)
	i32, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-123456), i32)
	i64, err := r.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-1234567890123), i64)
	u64, err := r.ReadUInt64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xDEADBEEFCAFEBABE), u64)
	f32, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.InDelta(t, 3.14159, float64(f32), 1e-5)
	f64, err := r.ReadFloat64()
	require.NoError(t, err)
	assert.InDelta(t, -2.718281828, f64, 1e-12)
	lo, hi, err := r.ReadUInt128()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), lo)
	assert.Equal(t, uint64(2), hi)
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "hello", "мир", "🦀", string(make([]byte, 300))} {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		require.NoError(t, w.WriteString(s))

		r := NewReader(&buf)
		got, err := r.ReadString()
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestStringTruncated(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteUVarint(10))
	require.NoError(t, w.WriteBytes([]byte("abc")))

	r := NewReader(&buf)
	_, err := r.ReadString()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrUnexpectedEnd))
}

func TestSkipString(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteString("skip me"))
	require.NoError(t, w.WriteUInt8(42))

	r := NewReader(&buf)
	require.NoError(t, r.SkipString())
	v, err := r.ReadUInt8()
	require.NoError(t, err)
	assert.Equal(t, uint8(42), v)
}

func TestQuotedStringPlain(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteQuotedString("hello"))

	expected := append([]byte{7}, []byte("'hello'")...)
	assert.Equal(t, expected, buf.Bytes())
}

func TestQuotedStringEscapes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a\tb", `'a\\tb'`},
		{"a\nb", `'a\\nb'`},
		{"a\x00b", `'a\x00b'`},
		{"a'b", `'a\x27b'`},
		{`a\b`, `'a\\\b'`},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		require.NoError(t, w.WriteQuotedString(tc.in))

		expected := append([]byte{byte(len(tc.want))}, []byte(tc.want)...)
		assert.Equal(t, expected, buf.Bytes(), "input %q", tc.in)
	}
}
