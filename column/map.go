package column

import (
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/wire"
)

// KV is one key/value pair of a Map row.
type KV struct {
	Key   any
	Value any
}

// Map shares its storage and framing with Array(Tuple(K, V)). Prefixes
// delegate through the Array/Tuple chain, which matters for nested
// LowCardinality values.
type Map struct {
	typ  Type
	data *Array
}

func NewMap(t Type) (*Map, error) {
	if t.Kind != KindMap {
		return nil, errors.Newf(ErrTypeMismatch, "not a Map type: %s", t)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	storage, err := NewArray(TArray(TTuple(t.Elems[0], t.Elems[1])))
	if err != nil {
		return nil, err
	}
	return &Map{typ: t, data: storage}, nil
}

// Keys returns the flat key column.
func (c *Map) Keys() Column {
	return c.data.Nested().(*Tuple).Element(0)
}

// Values returns the flat value column.
func (c *Map) Values() Column {
	return c.data.Nested().(*Tuple).Element(1)
}

// Append adds one map row from ordered pairs.
func (c *Map) Append(pairs []KV) error {
	return c.data.AppendRow(func(nested Column) error {
		t := nested.(*Tuple)
		for _, p := range pairs {
			if err := t.Append(p.Key, p.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Row returns row i as ordered pairs.
func (c *Map) Row(i int) []KV {
	begin, end := c.data.RowRange(i)
	t := c.data.Nested().(*Tuple)
	out := make([]KV, 0, end-begin)
	for j := begin; j < end; j++ {
		out = append(out, KV{Key: t.Element(0).Value(j), Value: t.Element(1).Value(j)})
	}
	return out
}

func (c *Map) Type() Type { return c.typ }
func (c *Map) Rows() int  { return c.data.Rows() }

func (c *Map) Reset()        { c.data.Reset() }
func (c *Map) Reserve(n int) { c.data.Reserve(n) }

func (c *Map) AppendDefault() {
	c.data.AppendDefault()
}

func (c *Map) AppendValue(v any) error {
	switch x := v.(type) {
	case []KV:
		return c.Append(x)
	case nil:
		return badValue(c.typ, v)
	default:
		return badValue(c.typ, v)
	}
}

func (c *Map) Value(i int) any {
	return c.Row(i)
}

func (c *Map) LoadPrefix(r *wire.Reader, rows int) error {
	return c.data.LoadPrefix(r, rows)
}

func (c *Map) SavePrefix(w *wire.Writer) error {
	return c.data.SavePrefix(w)
}

func (c *Map) LoadBody(r *wire.Reader, rows int) error {
	return c.data.LoadBody(r, rows)
}

func (c *Map) SaveBody(w *wire.Writer) error {
	return c.data.SaveBody(w)
}

func (c *Map) Slice(begin, n int) (Column, error) {
	sliced, err := c.data.Slice(begin, n)
	if err != nil {
		return nil, err
	}
	return &Map{typ: c.typ, data: sliced.(*Array)}, nil
}

func (c *Map) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Map)
	if !ok || !o.typ.Equal(c.typ) {
		return typeMismatch(c.typ, other.Type())
	}
	return c.data.AppendFrom(o.data, begin, n)
}
