package column

import (
	"encoding/binary"
	"time"

	"github.com/gear6io/chnative/wire"
)

const secondsPerDay = 86400

// Date stores days since the Unix epoch as unsigned 16-bit values.
type Date struct {
	data []uint16
}

func NewDate() *Date { return &Date{} }

func (c *Date) Append(t time.Time) {
	c.data = append(c.data, uint16(t.Unix()/secondsPerDay))
}

// AppendDays appends a raw day number.
func (c *Date) AppendDays(days uint16) {
	c.data = append(c.data, days)
}

func (c *Date) Row(i int) time.Time {
	return time.Unix(int64(c.data[i])*secondsPerDay, 0).UTC()
}

func (c *Date) Type() Type { return TDate }
func (c *Date) Rows() int  { return len(c.data) }

func (c *Date) Reset() { c.data = c.data[:0] }

func (c *Date) Reserve(n int) {
	if cap(c.data)-len(c.data) < n {
		grown := make([]uint16, len(c.data), len(c.data)+n)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *Date) AppendDefault() { c.data = append(c.data, 0) }

func (c *Date) AppendValue(v any) error {
	switch x := v.(type) {
	case time.Time:
		c.Append(x)
		return nil
	case uint16:
		c.data = append(c.data, x)
		return nil
	default:
		return badValue(TDate, v)
	}
}

func (c *Date) Value(i int) any { return c.Row(i) }

func (c *Date) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *Date) SavePrefix(*wire.Writer) error      { return nil }

func (c *Date) LoadBody(r *wire.Reader, rows int) error {
	return loadFixed16(r, rows, &c.data)
}

func (c *Date) SaveBody(w *wire.Writer) error {
	return saveFixed16(w, c.data)
}

func (c *Date) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.data)); err != nil {
		return nil, err
	}
	out := NewDate()
	out.data = append(out.data, c.data[begin:begin+n]...)
	return out, nil
}

func (c *Date) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Date)
	if !ok {
		return typeMismatch(TDate, other.Type())
	}
	if err := checkSlice(begin, n, len(o.data)); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin:begin+n]...)
	return nil
}

func (c *Date) rowKey(dst []byte, i int) []byte {
	return binary.LittleEndian.AppendUint16(dst, c.data[i])
}

// Date32 stores days since the Unix epoch as signed 32-bit values,
// covering dates before 1970.
type Date32 struct {
	data []int32
}

func NewDate32() *Date32 { return &Date32{} }

func (c *Date32) Append(t time.Time) {
	day := t.Unix() / secondsPerDay
	if t.Unix() < 0 && t.Unix()%secondsPerDay != 0 {
		day--
	}
	c.data = append(c.data, int32(day))
}

func (c *Date32) AppendDays(days int32) {
	c.data = append(c.data, days)
}

func (c *Date32) Row(i int) time.Time {
	return time.Unix(int64(c.data[i])*secondsPerDay, 0).UTC()
}

func (c *Date32) Type() Type { return TDate32 }
func (c *Date32) Rows() int  { return len(c.data) }

func (c *Date32) Reset() { c.data = c.data[:0] }

func (c *Date32) Reserve(n int) {
	if cap(c.data)-len(c.data) < n {
		grown := make([]int32, len(c.data), len(c.data)+n)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *Date32) AppendDefault() { c.data = append(c.data, 0) }

func (c *Date32) AppendValue(v any) error {
	switch x := v.(type) {
	case time.Time:
		c.Append(x)
		return nil
	case int32:
		c.data = append(c.data, x)
		return nil
	default:
		return badValue(TDate32, v)
	}
}

func (c *Date32) Value(i int) any { return c.Row(i) }

func (c *Date32) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *Date32) SavePrefix(*wire.Writer) error      { return nil }

func (c *Date32) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	raw := make([]byte, rows*4)
	if err := r.ReadFull(raw); err != nil {
		return err
	}
	c.Reserve(rows)
	for i := 0; i < rows; i++ {
		c.data = append(c.data, int32(binary.LittleEndian.Uint32(raw[i*4:])))
	}
	return nil
}

func (c *Date32) SaveBody(w *wire.Writer) error {
	if len(c.data) == 0 {
		return nil
	}
	raw := make([]byte, len(c.data)*4)
	for i, v := range c.data {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(v))
	}
	return w.WriteBytes(raw)
}

func (c *Date32) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.data)); err != nil {
		return nil, err
	}
	out := NewDate32()
	out.data = append(out.data, c.data[begin:begin+n]...)
	return out, nil
}

func (c *Date32) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*Date32)
	if !ok {
		return typeMismatch(TDate32, other.Type())
	}
	if err := checkSlice(begin, n, len(o.data)); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin:begin+n]...)
	return nil
}

func (c *Date32) rowKey(dst []byte, i int) []byte {
	return binary.LittleEndian.AppendUint32(dst, uint32(c.data[i]))
}

// DateTime stores Unix seconds as unsigned 32-bit values, with an
// optional timezone attached to the type for presentation.
type DateTime struct {
	typ Type
	loc *time.Location
	data []uint32
}

func NewDateTime(t Type) *DateTime {
	return &DateTime{typ: t, loc: locationFor(t.Timezone)}
}

func locationFor(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *DateTime) Append(t time.Time) {
	c.data = append(c.data, uint32(t.Unix()))
}

func (c *DateTime) AppendUnix(sec uint32) {
	c.data = append(c.data, sec)
}

func (c *DateTime) Row(i int) time.Time {
	return time.Unix(int64(c.data[i]), 0).In(c.loc)
}

func (c *DateTime) Type() Type { return c.typ }
func (c *DateTime) Rows() int  { return len(c.data) }

func (c *DateTime) Reset() { c.data = c.data[:0] }

func (c *DateTime) Reserve(n int) {
	if cap(c.data)-len(c.data) < n {
		grown := make([]uint32, len(c.data), len(c.data)+n)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *DateTime) AppendDefault() { c.data = append(c.data, 0) }

func (c *DateTime) AppendValue(v any) error {
	switch x := v.(type) {
	case time.Time:
		c.Append(x)
		return nil
	case uint32:
		c.data = append(c.data, x)
		return nil
	default:
		return badValue(c.typ, v)
	}
}

func (c *DateTime) Value(i int) any { return c.Row(i) }

func (c *DateTime) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *DateTime) SavePrefix(*wire.Writer) error      { return nil }

func (c *DateTime) LoadBody(r *wire.Reader, rows int) error {
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

func (c *DateTime) SaveBody(w *wire.Writer) error {
	if len(c.data) == 0 {
		return nil
	}
	raw := make([]byte, len(c.data)*4)
	for i, v := range c.data {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}
	return w.WriteBytes(raw)
}

func (c *DateTime) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.data)); err != nil {
		return nil, err
	}
	out := &DateTime{typ: c.typ, loc: c.loc}
	out.data = append(out.data, c.data[begin:begin+n]...)
	return out, nil
}

func (c *DateTime) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*DateTime)
	if !ok || !o.typ.Equal(c.typ) {
		return typeMismatch(c.typ, other.Type())
	}
	if err := checkSlice(begin, n, len(o.data)); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin:begin+n]...)
	return nil
}

func (c *DateTime) rowKey(dst []byte, i int) []byte {
	return binary.LittleEndian.AppendUint32(dst, c.data[i])
}

// DateTime64 stores ticks since the Unix epoch as signed 64-bit values;
// the type's precision (0..9) sets the tick unit.
type DateTime64 struct {
	typ  Type
	loc  *time.Location
	mult int64
	data []int64
}

func NewDateTime64(t Type) *DateTime64 {
	mult := int64(1)
	for i := t.Precision; i < 9; i++ {
		mult *= 10
	}
	return &DateTime64{typ: t, loc: locationFor(t.Timezone), mult: mult}
}

// Append converts t to ticks at the column's precision.
func (c *DateTime64) Append(t time.Time) {
	nanos := t.UnixNano()
	c.data = append(c.data, nanos/c.mult)
}

func (c *DateTime64) AppendTicks(ticks int64) {
	c.data = append(c.data, ticks)
}

func (c *DateTime64) Row(i int) time.Time {
	return time.Unix(0, c.data[i]*c.mult).In(c.loc)
}

// Ticks returns the raw tick count of row i.
func (c *DateTime64) Ticks(i int) int64 {
	return c.data[i]
}

func (c *DateTime64) Type() Type { return c.typ }
func (c *DateTime64) Rows() int  { return len(c.data) }

func (c *DateTime64) Reset() { c.data = c.data[:0] }

func (c *DateTime64) Reserve(n int) {
	if cap(c.data)-len(c.data) < n {
		grown := make([]int64, len(c.data), len(c.data)+n)
		copy(grown, c.data)
		c.data = grown
	}
}

func (c *DateTime64) AppendDefault() { c.data = append(c.data, 0) }

func (c *DateTime64) AppendValue(v any) error {
	switch x := v.(type) {
	case time.Time:
		c.Append(x)
		return nil
	case int64:
		c.data = append(c.data, x)
		return nil
	default:
		return badValue(c.typ, v)
	}
}

func (c *DateTime64) Value(i int) any { return c.Row(i) }

func (c *DateTime64) LoadPrefix(*wire.Reader, int) error { return nil }
func (c *DateTime64) SavePrefix(*wire.Writer) error      { return nil }

func (c *DateTime64) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	raw := make([]byte, rows*8)
	if err := r.ReadFull(raw); err != nil {
		return err
	}
	c.Reserve(rows)
	for i := 0; i < rows; i++ {
		c.data = append(c.data, int64(binary.LittleEndian.Uint64(raw[i*8:])))
	}
	return nil
}

func (c *DateTime64) SaveBody(w *wire.Writer) error {
	if len(c.data) == 0 {
		return nil
	}
	raw := make([]byte, len(c.data)*8)
	for i, v := range c.data {
		binary.LittleEndian.PutUint64(raw[i*8:], uint64(v))
	}
	return w.WriteBytes(raw)
}

func (c *DateTime64) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.data)); err != nil {
		return nil, err
	}
	out := &DateTime64{typ: c.typ, loc: c.loc, mult: c.mult}
	out.data = append(out.data, c.data[begin:begin+n]...)
	return out, nil
}

func (c *DateTime64) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*DateTime64)
	if !ok || !o.typ.Equal(c.typ) {
		return typeMismatch(c.typ, other.Type())
	}
	if err := checkSlice(begin, n, len(o.data)); err != nil {
		return err
	}
	c.data = append(c.data, o.data[begin:begin+n]...)
	return nil
}

func (c *DateTime64) rowKey(dst []byte, i int) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(c.data[i]))
}

func loadFixed16(r *wire.Reader, rows int, data *[]uint16) error {
	if rows == 0 {
		return nil
	}
	raw := make([]byte, rows*2)
	if err := r.ReadFull(raw); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		*data = append(*data, binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return nil
}

func saveFixed16(w *wire.Writer, data []uint16) error {
	if len(data) == 0 {
		return nil
	}
	raw := make([]byte, len(data)*2)
	for i, v := range data {
		binary.LittleEndian.PutUint16(raw[i*2:], v)
	}
	return w.WriteBytes(raw)
}
