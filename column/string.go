package column

import (
	"github.com/gear6io/chnative/wire"
)

// String is the variable-length byte string codec: each row is a uvarint
// length followed by that many bytes. Values are opaque bytes; no encoding
// is assumed.
type String struct {
	data []string
}

func NewString() *String { return &String{} }

func (c *String) Append(s string) {
	c.data = append(c.data, s)
}

func (c *String) AppendBytes(b []byte) {
	c.data = append(c.data, string(b))
}

func (c *String) Row(i int) string {
	return c.data[i]
}

func (c *String) Data() []string {
	return c.data
}

func (c *String) Type() Type { return TString }
func (c *String) Rows() int  { return len(c.data) }

func (c *String) Reset() {
	c.data = c.data[:0]
}

func (c *String) Reserve(n int) {
	if cap(c.data)-len(c.data) < n {
		grown := make([]string, len(c.data), len(c.data)+n)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *String) AppendDefault() {
	c.data = append(c.data, "")
}

func (c *String) AppendValue(v any) error {
	switch x := v.(type) {
	case string:
		c.data = append(c.data, x)
		return nil
	case []byte:
		c.data = append(c.data, string(x))
		return nil
	default:
		return badValue(TString, v)
	}
}

func (c *String) Value(i int) any {
	return c.data[i]
}

func (c *String) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *String) SavePrefix(*wire.Writer) error      { return nil }

func (c *String) LoadBody(r *wire.Reader, rows int) error {
	c.Reserve(rows)
	for i := 0; i < rows; i++ {
		b, err := r.ReadByteString()
		if err != nil {
			return err
		}
		c.data = append(c.data, string(b))
	}
	return nil
}

func (c *String) SaveBody(w *wire.Writer) error {
	for _, s := range c.data {
		if err := w.WriteString(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *String) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.data)); err != nil {
		return nil, err
	}
	out := NewString()
	out.data = append(out.data, c.data[begin:begin+n]...)
	return out, nil
}

func (c *String) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*String)
	if !ok {
		return typeMismatch(TString, other.Type())
	}
	if err := checkSlice(begin, n, len(o.data)); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin:begin+n]...)
	return nil
}

func (c *String) rowKey(dst []byte, i int) []byte {
	return append(dst, c.data[i]...)
}

// FixedString is the opaque fixed-width byte string codec: every row is
// exactly Size bytes. Short appends are zero-padded, long ones truncated.
type FixedString struct {
	typ  Type
	size int
	data []byte
}

func NewFixedString(size int) *FixedString {
	return &FixedString{typ: TFixedString(size), size: size}
}

// Append adds one row, padding or truncating to the fixed size.
func (c *FixedString) Append(b []byte) {
	if len(b) >= c.size {
		c.data = append(c.data, b[:c.size]...)
		return
	}
	c.data = append(c.data, b...)
	for i := len(b); i < c.size; i++ {
		c.data = append(c.data, 0)
	}
}

// Row returns the raw bytes of row i.
func (c *FixedString) Row(i int) []byte {
	return c.data[i*c.size : (i+1)*c.size]
}

func (c *FixedString) Type() Type { return c.typ }
func (c *FixedString) Rows() int  { return len(c.data) / c.size }

func (c *FixedString) Reset() {
	c.data = c.data[:0]
}

func (c *FixedString) Reserve(n int) {
	need := n * c.size
	if cap(c.data)-len(c.data) < need {
		grown := make([]byte, len(c.data), len(c.data)+need)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *FixedString) AppendDefault() {
	c.Append(nil)
}

func (c *FixedString) AppendValue(v any) error {
	switch x := v.(type) {
	case []byte:
		c.Append(x)
		return nil
	case string:
		c.Append([]byte(x))
		return nil
	default:
		return badValue(c.typ, v)
	}
}

func (c *FixedString) Value(i int) any {
	out := make([]byte, c.size)
	copy(out, c.Row(i))
	return out
}

func (c *FixedString) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *FixedString) SavePrefix(*wire.Writer) error      { return nil }

func (c *FixedString) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	raw := make([]byte, rows*c.size)
	if err := r.ReadFull(raw); err != nil {
		return err
	}
	c.data = append(c.data, raw...)
	return nil
}

func (c *FixedString) SaveBody(w *wire.Writer) error {
	if len(c.data) == 0 {
		return nil
	}
	return w.WriteBytes(c.data)
}

func (c *FixedString) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, c.Rows()); err != nil {
		return nil, err
	}
	out := NewFixedString(c.size)
	out.data = append(out.data, c.data[begin*c.size:(begin+n)*c.size]...)
	return out, nil
}

func (c *FixedString) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*FixedString)
	if !ok || o.size != c.size {
		return typeMismatch(c.typ, other.Type())
	}
	if err := checkSlice(begin, n, o.Rows()); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin*c.size:(begin+n)*c.size]...)
	return nil
}

func (c *FixedString) rowKey(dst []byte, i int) []byte {
	return append(dst, c.Row(i)...)
}
