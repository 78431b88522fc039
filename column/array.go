package column

import (
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/wire"
)

// Array stores one cumulative uint64 offset per row plus a flat nested
// column; the final offset always equals the nested length.
type Array struct {
	typ     Type
	offsets []uint64
	nested  Column
}

func NewArray(t Type) (*Array, error) {
	if t.Kind != KindArray {
		return nil, errors.Newf(ErrTypeMismatch, "not an Array type: %s", t)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	nested, err := newColumn(t.Elems[0])
	if err != nil {
		return nil, err
	}
	return &Array{typ: t, nested: nested}, nil
}

// Nested exposes the flat element column.
func (c *Array) Nested() Column {
	return c.nested
}

// AppendRow appends one array row: fill adds the row's elements to the
// nested column, and whatever count it added becomes the row's extent.
func (c *Array) AppendRow(fill func(nested Column) error) error {
	if fill != nil {
		if err := fill(c.nested); err != nil {
			return err
		}
	}
	c.offsets = append(c.offsets, uint64(c.nested.Rows()))
	return nil
}

// RowRange returns the [begin, end) element range of row i in the nested
// column.
func (c *Array) RowRange(i int) (int, int) {
	begin := 0
	if i > 0 {
		begin = int(c.offsets[i-1])
	}
	return begin, int(c.offsets[i])
}

// RowLen returns the element count of row i.
func (c *Array) RowLen(i int) int {
	begin, end := c.RowRange(i)
	return end - begin
}

func (c *Array) Type() Type { return c.typ }
func (c *Array) Rows() int  { return len(c.offsets) }

func (c *Array) Reset() {
	c.offsets = c.offsets[:0]
	c.nested.Reset()
}

func (c *Array) Reserve(n int) {
	if cap(c.offsets)-len(c.offsets) < n {
		grown := make([]uint64, len(c.offsets), len(c.offsets)+n)
		copy(grown, c.offsets)
		c.offsets = grown
	}
}

func (c *Array) AppendDefault() {
	c.offsets = append(c.offsets, uint64(c.nested.Rows()))
}

func (c *Array) AppendValue(v any) error {
	elems, ok := v.([]any)
	if !ok {
		return badValue(c.typ, v)
	}
	return c.AppendRow(func(nested Column) error {
		for _, e := range elems {
			if err := nested.AppendValue(e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Array) Value(i int) any {
	begin, end := c.RowRange(i)
	out := make([]any, 0, end-begin)
	for j := begin; j < end; j++ {
		out = append(out, c.nested.Value(j))
	}
	return out
}

func (c *Array) LoadPrefix(r *wire.Reader, rows int) error {
	return c.nested.LoadPrefix(r, rows)
}

func (c *Array) SavePrefix(w *wire.Writer) error {
	return c.nested.SavePrefix(w)
}

func (c *Array) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	base := uint64(c.nested.Rows())
	prev := uint64(0)
	start := len(c.offsets)
	for i := 0; i < rows; i++ {
		off, err := r.ReadUInt64()
		if err != nil {
			return err
		}
		if off < prev {
			return errors.Newf(ErrOutOfRange,
				"array offsets not monotonic: %d after %d", off, prev)
		}
		prev = off
		c.offsets = append(c.offsets, base+off)
	}
	total := int(c.offsets[len(c.offsets)-1]) - int(base)
	if err := c.nested.LoadBody(r, total); err != nil {
		c.offsets = c.offsets[:start]
		return err
	}
	return nil
}

func (c *Array) SaveBody(w *wire.Writer) error {
	if len(c.offsets) == 0 {
		return nil
	}
	for _, off := range c.offsets {
		if err := w.WriteUInt64(off); err != nil {
			return err
		}
	}
	return c.nested.SaveBody(w)
}

func (c *Array) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.offsets)); err != nil {
		return nil, err
	}
	elemBegin := 0
	if begin > 0 {
		elemBegin = int(c.offsets[begin-1])
	}
	elemEnd := elemBegin
	if n > 0 {
		elemEnd = int(c.offsets[begin+n-1])
	}
	nested, err := c.nested.Slice(elemBegin, elemEnd-elemBegin)
	if err != nil {
		return nil, err
	}
	out := &Array{typ: c.typ, nested: nested}
	for i := begin; i < begin+n; i++ {
		out.offsets = append(out.offsets, c.offsets[i]-uint64(elemBegin))
	}
	return out, nil
}

func (c *Array) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Array)
	if !ok || !o.typ.Equal(c.typ) {
		return typeMismatch(c.typ, other.Type())
	}
	if err := checkSlice(begin, n, len(o.offsets)); err != nil {
		return err
	}
	for i := begin; i < begin+n; i++ {
		b, e := o.RowRange(i)
		if err := c.nested.AppendFrom(o.nested, b, e-b); err != nil {
			return err
		}
		c.offsets = append(c.offsets, uint64(c.nested.Rows()))
	}
	return nil
}
