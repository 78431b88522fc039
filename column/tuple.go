package column

import (
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/wire"
)

// Tuple stores one parallel column per element; prefixes and bodies are
// concatenated in element order.
type Tuple struct {
	typ   Type
	elems []Column
}

func NewTuple(t Type) (*Tuple, error) {
	if t.Kind != KindTuple {
		return nil, errors.Newf(ErrTypeMismatch, "not a Tuple type: %s", t)
	}
	if len(t.Elems) == 0 {
		return nil, errors.New(ErrBadTypeName, "Tuple needs at least one element")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	elems := make([]Column, len(t.Elems))
	for i, et := range t.Elems {
		col, err := newColumn(et)
		if err != nil {
			return nil, err
		}
		elems[i] = col
	}
	return &Tuple{typ: t, elems: elems}, nil
}

// Element exposes element column i.
func (c *Tuple) Element(i int) Column {
	return c.elems[i]
}

// Append adds one row from per-element values.
func (c *Tuple) Append(values ...any) error {
	if len(values) != len(c.elems) {
		return errors.Newf(ErrBadValue,
			"tuple arity mismatch: %d values for %d elements", len(values), len(c.elems))
	}
	for i, v := range values {
		if err := c.elems[i].AppendValue(v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Tuple) Type() Type { return c.typ }

func (c *Tuple) Rows() int {
	return c.elems[0].Rows()
}

func (c *Tuple) Reset() {
	for _, e := range c.elems {
		e.Reset()
	}
}

func (c *Tuple) Reserve(n int) {
	for _, e := range c.elems {
		e.Reserve(n)
	}
}

func (c *Tuple) AppendDefault() {
	for _, e := range c.elems {
		e.AppendDefault()
	}
}

func (c *Tuple) AppendValue(v any) error {
	values, ok := v.([]any)
	if !ok {
		return badValue(c.typ, v)
	}
	return c.Append(values...)
}

func (c *Tuple) Value(i int) any {
	out := make([]any, len(c.elems))
	for j, e := range c.elems {
		out[j] = e.Value(i)
	}
	return out
}

func (c *Tuple) LoadPrefix(r *wire.Reader, rows int) error {
	for _, e := range c.elems {
		if err := e.LoadPrefix(r, rows); err != nil {
			return err
		}
	}
	return nil
}

func (c *Tuple) SavePrefix(w *wire.Writer) error {
	for _, e := range c.elems {
		if err := e.SavePrefix(w); err != nil {
			return err
		}
	}
	return nil
}

func (c *Tuple) LoadBody(r *wire.Reader, rows int) error {
	for _, e := range c.elems {
		if err := e.LoadBody(r, rows); err != nil {
			return err
		}
	}
	return nil
}

func (c *Tuple) SaveBody(w *wire.Writer) error {
	for _, e := range c.elems {
		if err := e.SaveBody(w); err != nil {
			return err
		}
	}
	return nil
}

func (c *Tuple) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, c.Rows()); err != nil {
		return nil, err
	}
	elems := make([]Column, len(c.elems))
	for i, e := range c.elems {
		sliced, err := e.Slice(begin, n)
		if err != nil {
			return nil, err
		}
		elems[i] = sliced
	}
	return &Tuple{typ: c.typ, elems: elems}, nil
}

func (c *Tuple) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Tuple)
	if !ok || !o.typ.Equal(c.typ) {
		return typeMismatch(c.typ, other.Type())
	}
	for i, e := range c.elems {
		if err := e.AppendFrom(o.elems[i], begin, n); err != nil {
			return err
		}
	}
	return nil
}
