package column

import (
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/wire"
)

// Nullable wraps a nested column with a parallel per-row null flag
// (1 = null). Null rows keep a placeholder default in the nested column
// so the two stay aligned.
type Nullable struct {
	typ    Type
	nulls  []uint8
	nested Column
}

func NewNullable(t Type) (*Nullable, error) {
	if t.Kind != KindNullable {
		return nil, errors.Newf(ErrTypeMismatch, "not a Nullable type: %s", t)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	nested, err := newColumn(t.Elems[0])
	if err != nil {
		return nil, err
	}
	return &Nullable{typ: t, nested: nested}, nil
}

// Nested exposes the inner column.
func (c *Nullable) Nested() Column {
	return c.nested
}

// AppendNull appends a null row, pushing the nested default placeholder.
func (c *Nullable) AppendNull() {
	c.nulls = append(c.nulls, 1)
	c.nested.AppendDefault()
}

// Append appends a non-null value of the nested type.
func (c *Nullable) Append(v any) error {
	if err := c.nested.AppendValue(v); err != nil {
		return err
	}
	c.nulls = append(c.nulls, 0)
	return nil
}

// IsNull reports whether row i is null.
func (c *Nullable) IsNull(i int) bool {
	return c.nulls[i] != 0
}

func (c *Nullable) Type() Type { return c.typ }
func (c *Nullable) Rows() int  { return len(c.nulls) }

func (c *Nullable) Reset() {
	c.nulls = c.nulls[:0]
	c.nested.Reset()
}

func (c *Nullable) Reserve(n int) {
	if cap(c.nulls)-len(c.nulls) < n {
		grown := make([]uint8, len(c.nulls), len(c.nulls)+n)
		copy(grown, c.nulls)
		c.nulls = grown
	}
	c.nested.Reserve(n)
}

func (c *Nullable) AppendDefault() {
	c.AppendNull()
}

func (c *Nullable) AppendValue(v any) error {
	if v == nil {
		c.AppendNull()
		return nil
	}
	return c.Append(v)
}

func (c *Nullable) Value(i int) any {
	if c.nulls[i] != 0 {
		return nil
	}
	return c.nested.Value(i)
}

func (c *Nullable) LoadPrefix(r *wire.Reader, rows int) error {
	return c.nested.LoadPrefix(r, rows)
}

func (c *Nullable) SavePrefix(w *wire.Writer) error {
	return c.nested.SavePrefix(w)
}

func (c *Nullable) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	flags := make([]byte, rows)
	if err := r.ReadFull(flags); err != nil {
		return err
	}
	c.nulls = append(c.nulls, flags...)
	return c.nested.LoadBody(r, rows)
}

func (c *Nullable) SaveBody(w *wire.Writer) error {
	if len(c.nulls) == 0 {
		return nil
	}
	if err := w.WriteBytes(c.nulls); err != nil {
		return err
	}
	return c.nested.SaveBody(w)
}

func (c *Nullable) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.nulls)); err != nil {
		return nil, err
	}
	nested, err := c.nested.Slice(begin, n)
	if err != nil {
		return nil, err
	}
	out := &Nullable{typ: c.typ, nested: nested}
	out.nulls = append(out.nulls, c.nulls[begin:begin+n]...)
	return out, nil
}

func (c *Nullable) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Nullable)
	if !ok || !o.typ.Equal(c.typ) {
		return typeMismatch(c.typ, other.Type())
	}
	if err := checkSlice(begin, n, len(o.nulls)); err != nil {
		return err
	}
	if err := c.nested.AppendFrom(o.nested, begin, n); err != nil {
		return err
	}
	c.nulls = append(c.nulls, o.nulls[begin:begin+n]...)
	return nil
}
