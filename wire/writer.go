package wire

import (
	"encoding/binary"
	"io"
	"math"
)

// flusher is satisfied by bufio.Writer and by the connection transport.
type flusher interface {
	Flush() error
}

// Writer encodes primitive wire values onto an io.Writer. Varints and
// fixed-width values are staged in the writer's own scratch buffer without
// allocating.
type Writer struct {
	w   io.Writer
	tmp [16]byte
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteBytes writes p verbatim.
func (w *Writer) WriteBytes(p []byte) error {
	_, err := w.w.Write(p)
	return err
}

// WriteUVarint writes v as 7-bit little-endian groups with continuation bits.
func (w *Writer) WriteUVarint(v uint64) error {
	n := binary.PutUvarint(w.tmp[:maxVarintLen], v)
	return w.WriteBytes(w.tmp[:n])
}

func (w *Writer) WriteUInt8(v uint8) error {
	w.tmp[0] = v
	return w.WriteBytes(w.tmp[:1])
}

func (w *Writer) WriteInt8(v int8) error {
	return w.WriteUInt8(uint8(v))
}

func (w *Writer) WriteUInt16(v uint16) error {
	binary.LittleEndian.PutUint16(w.tmp[:2], v)
	return w.WriteBytes(w.tmp[:2])
}

func (w *Writer) WriteInt16(v int16) error {
	return w.WriteUInt16(uint16(v))
}

func (w *Writer) WriteUInt32(v uint32) error {
	binary.LittleEndian.PutUint32(w.tmp[:4], v)
	return w.WriteBytes(w.tmp[:4])
}

func (w *Writer) WriteInt32(v int32) error {
	return w.WriteUInt32(uint32(v))
}

func (w *Writer) WriteUInt64(v uint64) error {
	binary.LittleEndian.PutUint64(w.tmp[:8], v)
	return w.WriteBytes(w.tmp[:8])
}

func (w *Writer) WriteInt64(v int64) error {
	return w.WriteUInt64(uint64(v))
}

// WriteUInt128 writes (low, high) 64-bit halves as sixteen little-endian bytes.
func (w *Writer) WriteUInt128(lo, hi uint64) error {
	binary.LittleEndian.PutUint64(w.tmp[:8], lo)
	binary.LittleEndian.PutUint64(w.tmp[8:16], hi)
	return w.WriteBytes(w.tmp[:16])
}

func (w *Writer) WriteFloat32(v float32) error {
	return w.WriteUInt32(math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) error {
	return w.WriteUInt64(math.Float64bits(v))
}

// WriteString writes a uvarint length followed by the raw bytes.
func (w *Writer) WriteString(s string) error {
	if err := w.WriteUVarint(uint64(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	_, err := io.WriteString(w.w, s)
	return err
}

// WriteByteString is WriteString for raw bytes.
func (w *Writer) WriteByteString(p []byte) error {
	if err := w.WriteUVarint(uint64(len(p))); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	return w.WriteBytes(p)
}

func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteUInt8(1)
	}
	return w.WriteUInt8(0)
}

// Flush pushes buffered bytes down to the transport when the underlying
// writer is buffered; otherwise it is a no-op.
func (w *Writer) Flush() error {
	if f, ok := w.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
