package column

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/gear6io/chnative/wire"
)

// UUIDCol serializes each value as two little-endian 64-bit halves,
// high half first. In-memory values use the canonical big-endian form of
// github.com/google/uuid.
type UUIDCol struct {
	data []uuid.UUID
}

func NewUUID() *UUIDCol { return &UUIDCol{} }

func (c *UUIDCol) Append(v uuid.UUID) {
	c.data = append(c.data, v)
}

func (c *UUIDCol) Row(i int) uuid.UUID {
	return c.data[i]
}

func (c *UUIDCol) Type() Type { return TUUID }
func (c *UUIDCol) Rows() int  { return len(c.data) }

func (c *UUIDCol) Reset() { c.data = c.data[:0] }

func (c *UUIDCol) Reserve(n int) {
	if cap(c.data)-len(c.data) < n {
		grown := make([]uuid.UUID, len(c.data), len(c.data)+n)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *UUIDCol) AppendDefault() {
	c.data = append(c.data, uuid.UUID{})
}

func (c *UUIDCol) AppendValue(v any) error {
	switch x := v.(type) {
	case uuid.UUID:
		c.data = append(c.data, x)
		return nil
	case string:
		parsed, err := uuid.Parse(x)
		if err != nil {
			return badValue(TUUID, v)
		}
		c.data = append(c.data, parsed)
		return nil
	default:
		return badValue(TUUID, v)
	}
}

func (c *UUIDCol) Value(i int) any { return c.data[i] }

func (c *UUIDCol) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *UUIDCol) SavePrefix(*wire.Writer) error      { return nil }

func (c *UUIDCol) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	raw := make([]byte, rows*16)
	if err := r.ReadFull(raw); err != nil {
		return err
	}
	c.Reserve(rows)
	for i := 0; i < rows; i++ {
		c.data = append(c.data, uuidFromWire(raw[i*16:]))
	}
	return nil
}

func (c *UUIDCol) SaveBody(w *wire.Writer) error {
	if len(c.data) == 0 {
		return nil
	}
	raw := make([]byte, len(c.data)*16)
	for i, v := range c.data {
		uuidToWire(raw[i*16:], v)
	}
	return w.WriteBytes(raw)
}

// uuidToWire lays out the canonical big-endian UUID as two little-endian
// 64-bit halves, high half first.
func uuidToWire(dst []byte, v uuid.UUID) {
	hi := binary.BigEndian.Uint64(v[:8])
	lo := binary.BigEndian.Uint64(v[8:])
	binary.LittleEndian.PutUint64(dst[:8], hi)
	binary.LittleEndian.PutUint64(dst[8:16], lo)
}

func uuidFromWire(src []byte) uuid.UUID {
	hi := binary.LittleEndian.Uint64(src[:8])
	lo := binary.LittleEndian.Uint64(src[8:16])
	var v uuid.UUID
	binary.BigEndian.PutUint64(v[:8], hi)
	binary.BigEndian.PutUint64(v[8:], lo)
	return v
}

func (c *UUIDCol) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.data)); err != nil {
		return nil, err
	}
	out := NewUUID()
	out.data = append(out.data, c.data[begin:begin+n]...)
	return out, nil
}

func (c *UUIDCol) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*UUIDCol)
	if !ok {
		return typeMismatch(TUUID, other.Type())
	}
	if err := checkSlice(begin, n, len(o.data)); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin:begin+n]...)
	return nil
}

func (c *UUIDCol) rowKey(dst []byte, i int) []byte {
	return append(dst, c.data[i][:]...)
}
