package column

import (
	"encoding/binary"
	"net/netip"

	"github.com/gear6io/chnative/wire"
)

// IPv4 stores addresses as native-order 32-bit integers, serialized
// little-endian; the numeric value is the big-endian reading of the
// dotted quad.
type IPv4 struct {
	data []uint32
}

func NewIPv4() *IPv4 { return &IPv4{} }

func (c *IPv4) Append(addr netip.Addr) error {
	if !addr.Is4() {
		return badValue(TIPv4, addr)
	}
	b := addr.As4()
	c.data = append(c.data, binary.BigEndian.Uint32(b[:]))
	return nil
}

func (c *IPv4) Row(i int) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], c.data[i])
	return netip.AddrFrom4(b)
}

func (c *IPv4) Type() Type { return TIPv4 }
func (c *IPv4) Rows() int  { return len(c.data) }

func (c *IPv4) Reset() { c.data = c.data[:0] }

func (c *IPv4) Reserve(n int) {
	if cap(c.data)-len(c.data) < n {
		grown := make([]uint32, len(c.data), len(c.data)+n)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *IPv4) AppendDefault() { c.data = append(c.data, 0) }

func (c *IPv4) AppendValue(v any) error {
	switch x := v.(type) {
	case netip.Addr:
		return c.Append(x)
	case string:
		addr, err := netip.ParseAddr(x)
		if err != nil {
			return badValue(TIPv4, v)
		}
		return c.Append(addr)
	default:
		return badValue(TIPv4, v)
	}
}

func (c *IPv4) Value(i int) any { return c.Row(i) }

func (c *IPv4) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *IPv4) SavePrefix(*wire.Writer) error      { return nil }

func (c *IPv4) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	raw := make([]byte, rows*4)
	if err := r.ReadFull(raw); err != nil {
		return err
	}
	c.Reserve(rows)
	for i := 0; i < rows; i++ {
		c.data = append(c.data, binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return nil
}

func (c *IPv4) SaveBody(w *wire.Writer) error {
	if len(c.data) == 0 {
		return nil
	}
	raw := make([]byte, len(c.data)*4)
	for i, v := range c.data {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}
	return w.WriteBytes(raw)
}

func (c *IPv4) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.data)); err != nil {
		return nil, err
	}
	out := NewIPv4()
	out.data = append(out.data, c.data[begin:begin+n]...)
	return out, nil
}

func (c *IPv4) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*IPv4)
	if !ok {
		return typeMismatch(TIPv4, other.Type())
	}
	if err := checkSlice(begin, n, len(o.data)); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin:begin+n]...)
	return nil
}

func (c *IPv4) rowKey(dst []byte, i int) []byte {
	return binary.LittleEndian.AppendUint32(dst, c.data[i])
}

// IPv6 stores the sixteen address bytes verbatim.
type IPv6 struct {
	data []byte
}

func NewIPv6() *IPv6 { return &IPv6{} }

func (c *IPv6) Append(addr netip.Addr) error {
	if !addr.Is6() && !addr.Is4In6() {
		// Mapped form keeps v4 addresses representable.
		addr = netip.AddrFrom16(addr.As16())
	}
	b := addr.As16()
	c.data = append(c.data, b[:]...)
	return nil
}

func (c *IPv6) Row(i int) netip.Addr {
	var b [16]byte
	copy(b[:], c.data[i*16:(i+1)*16])
	return netip.AddrFrom16(b)
}

func (c *IPv6) Type() Type { return TIPv6 }
func (c *IPv6) Rows() int  { return len(c.data) / 16 }

func (c *IPv6) Reset() { c.data = c.data[:0] }

func (c *IPv6) Reserve(n int) {
	need := n * 16
	if cap(c.data)-len(c.data) < need {
		grown := make([]byte, len(c.data), len(c.data)+need)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *IPv6) AppendDefault() {
	var zero [16]byte
	c.data = append(c.data, zero[:]...)
}

func (c *IPv6) AppendValue(v any) error {
	switch x := v.(type) {
	case netip.Addr:
		return c.Append(x)
	case string:
		addr, err := netip.ParseAddr(x)
		if err != nil {
			return badValue(TIPv6, v)
		}
		return c.Append(addr)
	default:
		return badValue(TIPv6, v)
	}
}

func (c *IPv6) Value(i int) any { return c.Row(i) }

func (c *IPv6) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *IPv6) SavePrefix(*wire.Writer) error      { return nil }

func (c *IPv6) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	raw := make([]byte, rows*16)
	if err := r.ReadFull(raw); err != nil {
		return err
	}
	c.data = append(c.data, raw...)
	return nil
}

func (c *IPv6) SaveBody(w *wire.Writer) error {
	if len(c.data) == 0 {
		return nil
	}
	return w.WriteBytes(c.data)
}

func (c *IPv6) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, c.Rows()); err != nil {
		return nil, err
	}
	out := NewIPv6()
	out.data = append(out.data, c.data[begin*16:(begin+n)*16]...)
	return out, nil
}

func (c *IPv6) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*IPv6)
	if !ok {
		return typeMismatch(TIPv6, other.Type())
	}
	if err := checkSlice(begin, n, o.Rows()); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin*16:(begin+n)*16]...)
	return nil
}

func (c *IPv6) rowKey(dst []byte, i int) []byte {
	return append(dst, c.data[i*16:(i+1)*16]...)
}
