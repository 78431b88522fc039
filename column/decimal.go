package column

import (
	"encoding/binary"
	"math/big"

	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/wire"
)

// Decimal stores unscaled two's-complement integers of a width chosen by
// the type's precision: 4 bytes up to 9 digits, 8 up to 18, 16 up to 38.
// Scale is metadata only and never affects the wire format.
type Decimal struct {
	typ   Type
	width int
	data  []byte

	// |value| must stay below 10^precision.
	bound64  int64
	bound128 *big.Int
}

// DecimalWidth returns the backing width in bytes for a precision.
func DecimalWidth(precision int) int {
	switch {
	case precision <= 9:
		return 4
	case precision <= 18:
		return 8
	default:
		return 16
	}
}

func NewDecimal(t Type) (*Decimal, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	c := &Decimal{typ: t, width: DecimalWidth(t.Precision)}
	if t.Precision <= 18 {
		c.bound64 = 1
		for i := 0; i < t.Precision; i++ {
			c.bound64 *= 10
		}
	} else {
		c.bound128 = new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(t.Precision)), nil)
	}
	return c, nil
}

// Precision and Scale expose the type parameters.
func (c *Decimal) Precision() int { return c.typ.Precision }
func (c *Decimal) Scale() int     { return c.typ.Scale }

// Append adds an unscaled value, rejecting magnitudes at or above
// 10^precision.
func (c *Decimal) Append(unscaled int64) error {
	if c.width <= 8 {
		if unscaled <= -c.bound64 || unscaled >= c.bound64 {
			return errors.Newf(ErrOutOfRange,
				"value %d exceeds Decimal(%d, %d)", unscaled, c.typ.Precision, c.typ.Scale)
		}
	}
	c.appendRaw(I128FromInt64(unscaled))
	return nil
}

// AppendI128 adds a 128-bit unscaled value; only legal for precisions
// above 18.
func (c *Decimal) AppendI128(v I128) error {
	if c.width != 16 {
		return errors.Newf(ErrOutOfRange,
			"128-bit value on Decimal(%d, %d)", c.typ.Precision, c.typ.Scale)
	}
	abs := i128ToBig(v)
	abs.Abs(abs)
	if abs.Cmp(c.bound128) >= 0 {
		return errors.Newf(ErrOutOfRange,
			"value exceeds Decimal(%d, %d)", c.typ.Precision, c.typ.Scale)
	}
	c.appendRaw(v)
	return nil
}

func i128ToBig(v I128) *big.Int {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], v.Hi)
	binary.BigEndian.PutUint64(b[8:], v.Lo)
	negative := v.Hi&(1<<63) != 0
	if !negative {
		return new(big.Int).SetBytes(b[:])
	}
	neg := v.Neg()
	binary.BigEndian.PutUint64(b[:8], neg.Hi)
	binary.BigEndian.PutUint64(b[8:], neg.Lo)
	return new(big.Int).Neg(new(big.Int).SetBytes(b[:]))
}

func (c *Decimal) appendRaw(v I128) {
	switch c.width {
	case 4:
		c.data = binary.LittleEndian.AppendUint32(c.data, uint32(v.Lo))
	case 8:
		c.data = binary.LittleEndian.AppendUint64(c.data, v.Lo)
	default:
		c.data = binary.LittleEndian.AppendUint64(c.data, v.Lo)
		c.data = binary.LittleEndian.AppendUint64(c.data, v.Hi)
	}
}

// Row returns the unscaled value of row i; for 16-byte decimals the
// value is truncated to the low 64 bits, use Row128 instead.
func (c *Decimal) Row(i int) int64 {
	switch c.width {
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(c.data[i*4:])))
	case 8:
		return int64(binary.LittleEndian.Uint64(c.data[i*8:]))
	default:
		return int64(binary.LittleEndian.Uint64(c.data[i*16:]))
	}
}

// Row128 returns the full unscaled value of row i.
func (c *Decimal) Row128(i int) I128 {
	switch c.width {
	case 4:
		return I128FromInt64(c.Row(i))
	case 8:
		return I128FromInt64(c.Row(i))
	default:
		return I128{
			Lo: binary.LittleEndian.Uint64(c.data[i*16:]),
			Hi: binary.LittleEndian.Uint64(c.data[i*16+8:]),
		}
	}
}

func (c *Decimal) Type() Type { return c.typ }
func (c *Decimal) Rows() int  { return len(c.data) / c.width }

func (c *Decimal) Reset() { c.data = c.data[:0] }

func (c *Decimal) Reserve(n int) {
	need := n * c.width
	if cap(c.data)-len(c.data) < need {
		grown := make([]byte, len(c.data), len(c.data)+need)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *Decimal) AppendDefault() {
	c.appendRaw(I128{})
}

func (c *Decimal) AppendValue(v any) error {
	switch x := v.(type) {
	case int64:
		return c.Append(x)
	case int:
		return c.Append(int64(x))
	case I128:
		return c.AppendI128(x)
	default:
		return badValue(c.typ, v)
	}
}

func (c *Decimal) Value(i int) any {
	if c.width == 16 {
		return c.Row128(i)
	}
	return c.Row(i)
}

func (c *Decimal) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *Decimal) SavePrefix(*wire.Writer) error      { return nil }

func (c *Decimal) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	raw := make([]byte, rows*c.width)
	if err := r.ReadFull(raw); err != nil {
		return err
	}
	c.data = append(c.data, raw...)
	return nil
}

func (c *Decimal) SaveBody(w *wire.Writer) error {
	if len(c.data) == 0 {
		return nil
	}
	return w.WriteBytes(c.data)
}

func (c *Decimal) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, c.Rows()); err != nil {
		return nil, err
	}
	out, err := NewDecimal(c.typ)
	if err != nil {
		return nil, err
	}
	out.data = append(out.data, c.data[begin*c.width:(begin+n)*c.width]...)
	return out, nil
}

func (c *Decimal) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Decimal)
	if !ok || !o.typ.Equal(c.typ) {
		return typeMismatch(c.typ, other.Type())
	}
	if err := checkSlice(begin, n, o.Rows()); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin*c.width:(begin+n)*c.width]...)
	return nil
}

func (c *Decimal) rowKey(dst []byte, i int) []byte {
	return append(dst, c.data[i*c.width:(i+1)*c.width]...)
}
