package column

import (
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/wire"
)

// Enum8 is a thin alias over the Int8 codec: the wire carries the stored
// values only, the name<->value map lives in the type name.
type Enum8 struct {
	*Numeric[int8]
}

func NewEnum8(t Type) *Enum8 {
	inner := NewInt8()
	inner.typ = t
	return &Enum8{Numeric: inner}
}

// AppendName appends by enum name.
func (c *Enum8) AppendName(name string) error {
	v, ok := c.typ.EnumValue(name)
	if !ok {
		return errors.Newf(ErrBadValue, "no enum item named %q in %s", name, c.typ)
	}
	c.Append(int8(v))
	return nil
}

// Name returns the enum name of row i.
func (c *Enum8) Name(i int) (string, bool) {
	return c.typ.EnumName(int16(c.Row(i)))
}

func (c *Enum8) AppendValue(v any) error {
	if s, ok := v.(string); ok {
		return c.AppendName(s)
	}
	return c.Numeric.AppendValue(v)
}

func (c *Enum8) Slice(begin, n int) (Column, error) {
	inner, err := c.Numeric.Slice(begin, n)
	if err != nil {
		return nil, err
	}
	return &Enum8{Numeric: inner.(*Numeric[int8])}, nil
}

func (c *Enum8) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Enum8)
	if !ok {
		return typeMismatch(c.typ, other.Type())
	}
	return c.Numeric.AppendFrom(o.Numeric, begin, n)
}

// Enum16 is the 16-bit counterpart of Enum8.
type Enum16 struct {
	*Numeric[int16]
}

func NewEnum16(t Type) *Enum16 {
	inner := NewInt16()
	inner.typ = t
	return &Enum16{Numeric: inner}
}

func (c *Enum16) AppendName(name string) error {
	v, ok := c.typ.EnumValue(name)
	if !ok {
		return errors.Newf(ErrBadValue, "no enum item named %q in %s", name, c.typ)
	}
	c.Append(v)
	return nil
}

func (c *Enum16) Name(i int) (string, bool) {
	return c.typ.EnumName(c.Row(i))
}

func (c *Enum16) AppendValue(v any) error {
	if s, ok := v.(string); ok {
		return c.AppendName(s)
	}
	return c.Numeric.AppendValue(v)
}

func (c *Enum16) Slice(begin, n int) (Column, error) {
	inner, err := c.Numeric.Slice(begin, n)
	if err != nil {
		return nil, err
	}
	return &Enum16{Numeric: inner.(*Numeric[int16])}, nil
}

func (c *Enum16) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Enum16)
	if !ok {
		return typeMismatch(c.typ, other.Type())
	}
	return c.Numeric.AppendFrom(o.Numeric, begin, n)
}

// Nothing is the zero-width placeholder type: the body is one zero byte
// per row, used as the inner type of always-NULL columns.
type Nothing struct {
	rows int
}

func NewNothing() *Nothing { return &Nothing{} }

func (c *Nothing) Type() Type { return TNothing }
func (c *Nothing) Rows() int  { return c.rows }

func (c *Nothing) Reset()         { c.rows = 0 }
func (c *Nothing) Reserve(int)    {}
func (c *Nothing) AppendDefault() { c.rows++ }

func (c *Nothing) AppendValue(v any) error {
	if v != nil {
		return badValue(TNothing, v)
	}
	c.rows++
	return nil
}

func (c *Nothing) Value(int) any { return nil }

func (c *Nothing) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *Nothing) SavePrefix(*wire.Writer) error      { return nil }

func (c *Nothing) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	skip := make([]byte, rows)
	if err := r.ReadFull(skip); err != nil {
		return err
	}
	c.rows += rows
	return nil
}

func (c *Nothing) SaveBody(w *wire.Writer) error {
	if c.rows == 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, c.rows))
}

func (c *Nothing) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, c.rows); err != nil {
		return nil, err
	}
	return &Nothing{rows: n}, nil
}

func (c *Nothing) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Nothing)
	if !ok {
		return typeMismatch(TNothing, other.Type())
	}
	if err := checkSlice(begin, n, o.rows); err != nil {
		return err
	}
	c.rows += n
	return nil
}
