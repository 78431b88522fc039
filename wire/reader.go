// Package wire implements the primitive binary encoding of the native
// protocol: varints, little-endian fixed-width values, and length-prefixed
// strings. The same Reader/Writer run over a buffered network connection
// and over in-memory buffers of decompressed frames.
package wire

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/gear6io/chnative/pkg/errors"
)

// Error codes surfaced by this package.
var (
	ErrUnexpectedEnd = errors.MustNewCode("protocol.unexpected_end")
	ErrVarintTooLong = errors.MustNewCode("protocol.varint_too_long")
	ErrStringTooLong = errors.MustNewCode("protocol.string_too_long")
)

// Longest legal varint encoding of a uint64.
const maxVarintLen = 10

// Strings on the wire are capped to keep a corrupt length prefix from
// allocating gigabytes.
const maxStringLen = 0x00FFFFFF

// Reader decodes primitive wire values from a buffered byte stream.
type Reader struct {
	r   *bufio.Reader
	tmp [16]byte
}

// NewReader wraps r. An existing *bufio.Reader is reused without
// double-buffering.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 8192)
	}
	return &Reader{r: br}
}

func eof(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrap(ErrUnexpectedEnd, err, "unexpected end")
	}
	return err
}

// ReadFull fills p entirely or fails.
func (r *Reader) ReadFull(p []byte) error {
	if _, err := io.ReadFull(r.r, p); err != nil {
		return eof(err)
	}
	return nil
}

// ReadUVarint reads a 7-bit little-endian group varint, at most 10 bytes.
func (r *Reader) ReadUVarint() (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxVarintLen; i++ {
		b, err := r.r.ReadByte()
		if err != nil {
			return 0, eof(err)
		}
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, errors.New(ErrVarintTooLong, "varint too long")
}

func (r *Reader) ReadUInt8() (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, eof(err)
	}
	return b, nil
}

func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadUInt8()
	return int8(b), err
}

func (r *Reader) ReadUInt16() (uint16, error) {
	if err := r.ReadFull(r.tmp[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.tmp[:2]), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUInt16()
	return int16(v), err
}

func (r *Reader) ReadUInt32() (uint32, error) {
	if err := r.ReadFull(r.tmp[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.tmp[:4]), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUInt32()
	return int32(v), err
}

func (r *Reader) ReadUInt64() (uint64, error) {
	if err := r.ReadFull(r.tmp[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.tmp[:8]), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUInt64()
	return int64(v), err
}

// ReadUInt128 reads sixteen little-endian bytes as (low, high) 64-bit halves.
func (r *Reader) ReadUInt128() (lo, hi uint64, err error) {
	if err = r.ReadFull(r.tmp[:16]); err != nil {
		return 0, 0, err
	}
	lo = binary.LittleEndian.Uint64(r.tmp[:8])
	hi = binary.LittleEndian.Uint64(r.tmp[8:16])
	return lo, hi, nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUInt32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUInt64()
	return math.Float64frombits(v), err
}

// ReadString reads a uvarint length followed by that many bytes.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadByteString()
	return string(b), err
}

// ReadByteString is ReadString without the string conversion.
func (r *Reader) ReadByteString() ([]byte, error) {
	n, err := r.ReadUVarint()
	if err != nil {
		return nil, err
	}
	if n > maxStringLen {
		return nil, errors.Newf(ErrStringTooLong, "string length too large: %d", n)
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// SkipString discards one length-prefixed string.
func (r *Reader) SkipString() error {
	n, err := r.ReadUVarint()
	if err != nil {
		return err
	}
	if n > maxStringLen {
		return errors.Newf(ErrStringTooLong, "string length too large: %d", n)
	}
	if _, err := r.r.Discard(int(n)); err != nil {
		return eof(err)
	}
	return nil
}

// ReadBool reads a single byte, any nonzero value meaning true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUInt8()
	return b != 0, err
}
