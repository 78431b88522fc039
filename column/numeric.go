package column

import (
	"encoding/binary"
	"math"

	"github.com/gear6io/chnative/wire"
)

// value types usable in a fixed-width numeric column
type numValue interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Numeric is the codec shared by all fixed-width numeric types. The body
// is rows*sizeof(T) little-endian bytes with no prefix; load performs one
// bulk copy of the element bytes, save the reverse.
type Numeric[T numValue] struct {
	typ  Type
	data []T
	size int
	enc  func(b []byte, v T)
	dec  func(b []byte) T
}

func newNumeric[T numValue](t Type, size int, enc func([]byte, T), dec func([]byte) T) *Numeric[T] {
	return &Numeric[T]{typ: t, size: size, enc: enc, dec: dec}
}

// Concrete numeric columns.
type (
	UInt8   = Numeric[uint8]
	UInt16  = Numeric[uint16]
	UInt32  = Numeric[uint32]
	UInt64  = Numeric[uint64]
	Int8    = Numeric[int8]
	Int16   = Numeric[int16]
	Int32   = Numeric[int32]
	Int64   = Numeric[int64]
	Float32 = Numeric[float32]
	Float64 = Numeric[float64]
)

func NewUInt8() *UInt8 {
	return newNumeric[uint8](TUInt8, 1,
		func(b []byte, v uint8) { b[0] = v },
		func(b []byte) uint8 { return b[0] })
}

func NewUInt16() *UInt16 {
	return newNumeric[uint16](TUInt16, 2,
		func(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) },
		func(b []byte) uint16 { return binary.LittleEndian.Uint16(b) })
}

func NewUInt32() *UInt32 {
	return newNumeric[uint32](TUInt32, 4,
		func(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) },
		func(b []byte) uint32 { return binary.LittleEndian.Uint32(b) })
}

func NewUInt64() *UInt64 {
	return newNumeric[uint64](TUInt64, 8,
		func(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) },
		func(b []byte) uint64 { return binary.LittleEndian.Uint64(b) })
}

func NewInt8() *Int8 {
	return newNumeric[int8](TInt8, 1,
		func(b []byte, v int8) { b[0] = uint8(v) },
		func(b []byte) int8 { return int8(b[0]) })
}

func NewInt16() *Int16 {
	return newNumeric[int16](TInt16, 2,
		func(b []byte, v int16) { binary.LittleEndian.PutUint16(b, uint16(v)) },
		func(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) })
}

func NewInt32() *Int32 {
	return newNumeric[int32](TInt32, 4,
		func(b []byte, v int32) { binary.LittleEndian.PutUint32(b, uint32(v)) },
		func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })
}

func NewInt64() *Int64 {
	return newNumeric[int64](TInt64, 8,
		func(b []byte, v int64) { binary.LittleEndian.PutUint64(b, uint64(v)) },
		func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) })
}

func NewFloat32() *Float32 {
	return newNumeric[float32](TFloat32, 4,
		func(b []byte, v float32) { binary.LittleEndian.PutUint32(b, math.Float32bits(v)) },
		func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) })
}

func NewFloat64() *Float64 {
	return newNumeric[float64](TFloat64, 8,
		func(b []byte, v float64) { binary.LittleEndian.PutUint64(b, math.Float64bits(v)) },
		func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) })
}

// Append adds one value.
func (c *Numeric[T]) Append(v T) {
	c.data = append(c.data, v)
}

// AppendMany adds a batch of values.
func (c *Numeric[T]) AppendMany(vs ...T) {
	c.data = append(c.data, vs...)
}

// Row returns the value at row i.
func (c *Numeric[T]) Row(i int) T {
	return c.data[i]
}

// Data exposes the backing slice.
func (c *Numeric[T]) Data() []T {
	return c.data
}

func (c *Numeric[T]) Type() Type { return c.typ }
func (c *Numeric[T]) Rows() int  { return len(c.data) }

func (c *Numeric[T]) Reset() {
	c.data = c.data[:0]
}

func (c *Numeric[T]) Reserve(n int) {
	if cap(c.data)-len(c.data) < n {
		grown := make([]T, len(c.data), len(c.data)+n)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *Numeric[T]) AppendDefault() {
	var zero T
	c.data = append(c.data, zero)
}

func (c *Numeric[T]) AppendValue(v any) error {
	switch x := v.(type) {
	case T:
		c.data = append(c.data, x)
		return nil
	case int:
		c.data = append(c.data, T(x))
		return nil
	default:
		return badValue(c.typ, v)
	}
}

func (c *Numeric[T]) Value(i int) any {
	return c.data[i]
}

func (c *Numeric[T]) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *Numeric[T]) SavePrefix(*wire.Writer) error      { return nil }

func (c *Numeric[T]) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	raw := make([]byte, rows*c.size)
	if err := r.ReadFull(raw); err != nil {
		return err
	}
	c.Reserve(rows)
	for i := 0; i < rows; i++ {
		c.data = append(c.data, c.dec(raw[i*c.size:]))
	}
	return nil
}

func (c *Numeric[T]) SaveBody(w *wire.Writer) error {
	if len(c.data) == 0 {
		return nil
	}
	raw := make([]byte, len(c.data)*c.size)
	for i, v := range c.data {
		c.enc(raw[i*c.size:], v)
	}
	return w.WriteBytes(raw)
}

func (c *Numeric[T]) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.data)); err != nil {
		return nil, err
	}
	out := &Numeric[T]{typ: c.typ, size: c.size, enc: c.enc, dec: c.dec}
	out.data = append(out.data, c.data[begin:begin+n]...)
	return out, nil
}

func (c *Numeric[T]) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Numeric[T])
	if !ok || !o.typ.Equal(c.typ) {
		return typeMismatch(c.typ, other.Type())
	}
	if err := checkSlice(begin, n, len(o.data)); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin:begin+n]...)
	return nil
}

func (c *Numeric[T]) rowKey(dst []byte, i int) []byte {
	start := len(dst)
	for j := 0; j < c.size; j++ {
		dst = append(dst, 0)
	}
	c.enc(dst[start:], c.data[i])
	return dst
}
