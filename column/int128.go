package column

import (
	"encoding/binary"

	"github.com/gear6io/chnative/wire"
)

// I128 is a 128-bit integer as two 64-bit halves. The sign of the signed
// interpretation lives in the high half.
type I128 struct {
	Lo uint64
	Hi uint64
}

// I128FromInt64 sign-extends v into 128 bits.
func I128FromInt64(v int64) I128 {
	var hi uint64
	if v < 0 {
		hi = ^uint64(0)
	}
	return I128{Lo: uint64(v), Hi: hi}
}

// Neg returns the two's-complement negation.
func (v I128) Neg() I128 {
	lo := ^v.Lo + 1
	hi := ^v.Hi
	if lo == 0 {
		hi++
	}
	return I128{Lo: lo, Hi: hi}
}

// Big128 is the codec shared by UInt128 and Int128: sixteen little-endian
// bytes per row, low half first, no prefix.
type Big128 struct {
	typ  Type
	data []I128
}

type (
	UInt128Col = Big128
	Int128Col  = Big128
)

func NewUInt128() *Big128 { return &Big128{typ: TUInt128} }
func NewInt128() *Big128  { return &Big128{typ: TInt128} }

func (c *Big128) Append(v I128) {
	c.data = append(c.data, v)
}

func (c *Big128) Row(i int) I128 {
	return c.data[i]
}

func (c *Big128) Type() Type { return c.typ }
func (c *Big128) Rows() int  { return len(c.data) }

func (c *Big128) Reset() {
	c.data = c.data[:0]
}

func (c *Big128) Reserve(n int) {
	if cap(c.data)-len(c.data) < n {
		grown := make([]I128, len(c.data), len(c.data)+n)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *Big128) AppendDefault() {
	c.data = append(c.data, I128{})
}

func (c *Big128) AppendValue(v any) error {
	switch x := v.(type) {
	case I128:
		c.data = append(c.data, x)
		return nil
	case int:
		c.data = append(c.data, I128FromInt64(int64(x)))
		return nil
	case int64:
		c.data = append(c.data, I128FromInt64(x))
		return nil
	case uint64:
		c.data = append(c.data, I128{Lo: x})
		return nil
	default:
		return badValue(c.typ, v)
	}
}

func (c *Big128) Value(i int) any {
	return c.data[i]
}

func (c *Big128) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *Big128) SavePrefix(*wire.Writer) error      { return nil }

func (c *Big128) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	raw := make([]byte, rows*16)
	if err := r.ReadFull(raw); err != nil {
		return err
	}
	c.Reserve(rows)
	for i := 0; i < rows; i++ {
		c.data = append(c.data, I128{
			Lo: binary.LittleEndian.Uint64(raw[i*16:]),
			Hi: binary.LittleEndian.Uint64(raw[i*16+8:]),
		})
	}
	return nil
}

func (c *Big128) SaveBody(w *wire.Writer) error {
	if len(c.data) == 0 {
		return nil
	}
	raw := make([]byte, len(c.data)*16)
	for i, v := range c.data {
		binary.LittleEndian.PutUint64(raw[i*16:], v.Lo)
		binary.LittleEndian.PutUint64(raw[i*16+8:], v.Hi)
	}
	return w.WriteBytes(raw)
}

func (c *Big128) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.data)); err != nil {
		return nil, err
	}
	out := &Big128{typ: c.typ}
	out.data = append(out.data, c.data[begin:begin+n]...)
	return out, nil
}

func (c *Big128) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Big128)
	if !ok || !o.typ.Equal(c.typ) {
		return typeMismatch(c.typ, other.Type())
	}
	if err := checkSlice(begin, n, len(o.data)); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin:begin+n]...)
	return nil
}

func (c *Big128) rowKey(dst []byte, i int) []byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], c.data[i].Lo)
	binary.LittleEndian.PutUint64(b[8:], c.data[i].Hi)
	return append(dst, b[:]...)
}
