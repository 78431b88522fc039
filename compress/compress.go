// Package compress implements the checksummed compression frame that wraps
// data blocks on the wire:
//
//	[16B checksum][1B method][4B compressed_size LE][4B uncompressed_size LE][body]
//
// compressed_size counts everything after the checksum. The checksum is
// CityHash128 (v1.0.2) over [method .. body].
package compress

import (
	"encoding/binary"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/gear6io/chnative/compress/cityhash102"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/wire"
)

// Method identifies a frame codec by its wire byte.
type Method byte

const (
	None Method = 0x02
	LZ4  Method = 0x82
	ZSTD Method = 0x90
)

func (m Method) String() string {
	switch m {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseMethod resolves a DSN/option spelling of a compression method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return 0, errors.Newf(ErrUnknownCodec, "unknown codec: %q", s)
	}
}

// Error codes surfaced by this package.
var (
	ErrChecksumMismatch = errors.MustNewCode("compression.checksum_mismatch")
	ErrUnknownCodec     = errors.MustNewCode("compression.unknown_codec")
	ErrSizeMismatch     = errors.MustNewCode("compression.size_mismatch")
	ErrTooLarge         = errors.MustNewCode("compression.too_large")
)

const (
	checksumSize = 16
	headerSize   = 9

	// Frames larger than this are corrupt by definition.
	maxFrameSize = 0x40000000
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1))
	zstdDecoder, _ = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1))
)

// Compress wraps src in a complete frame using the given method.
func Compress(method Method, src []byte) ([]byte, error) {
	if len(src) > maxFrameSize {
		return nil, errors.Newf(ErrTooLarge, "uncompressed size too large: %d", len(src))
	}

	var body []byte
	switch method {
	case None:
		body = src
	case LZ4:
		bound := lz4.CompressBlockBound(len(src))
		dst := make([]byte, bound)
		var c lz4.Compressor
		n, err := c.CompressBlock(src, dst)
		if err != nil {
			return nil, errors.Wrap(ErrSizeMismatch, err, "lz4 compression failed")
		}
		if n == 0 {
			// Incompressible input: emit a literal-only block.
			body = rawLZ4Block(src)
		} else {
			body = dst[:n]
		}
	case ZSTD:
		body = zstdEncoder.EncodeAll(src, nil)
	default:
		return nil, errors.Newf(ErrUnknownCodec, "unknown codec: 0x%02x", byte(method))
	}

	frame := make([]byte, checksumSize+headerSize+len(body))
	frame[checksumSize] = byte(method)
	binary.LittleEndian.PutUint32(frame[checksumSize+1:], uint32(headerSize+len(body)))
	binary.LittleEndian.PutUint32(frame[checksumSize+5:], uint32(len(src)))
	copy(frame[checksumSize+headerSize:], body)

	sum := cityhash102.CityHash128(frame[checksumSize:])
	binary.LittleEndian.PutUint64(frame[0:8], sum.Low)
	binary.LittleEndian.PutUint64(frame[8:16], sum.High)
	return frame, nil
}

// Decompress verifies the checksum of a complete frame and returns the
// decoded payload. The checksum is verified before any codec runs.
func Decompress(frame []byte) ([]byte, error) {
	if len(frame) < checksumSize+headerSize {
		return nil, errors.Newf(ErrSizeMismatch,
			"frame too small: %d bytes", len(frame))
	}

	sum := cityhash102.CityHash128(frame[checksumSize:])
	if binary.LittleEndian.Uint64(frame[0:8]) != sum.Low ||
		binary.LittleEndian.Uint64(frame[8:16]) != sum.High {
		return nil, errors.New(ErrChecksumMismatch, "checksum mismatch")
	}

	method := Method(frame[checksumSize])
	compressedSize := int(binary.LittleEndian.Uint32(frame[checksumSize+1:]))
	uncompressedSize := int(binary.LittleEndian.Uint32(frame[checksumSize+5:]))
	if compressedSize > maxFrameSize || uncompressedSize > maxFrameSize {
		return nil, errors.Newf(ErrTooLarge,
			"frame sizes out of range: compressed=%d uncompressed=%d",
			compressedSize, uncompressedSize)
	}
	if compressedSize != len(frame)-checksumSize {
		return nil, errors.Newf(ErrSizeMismatch,
			"compressed size mismatch: header says %d, frame has %d",
			compressedSize, len(frame)-checksumSize)
	}
	body := frame[checksumSize+headerSize:]

	switch method {
	case None:
		if len(body) != uncompressedSize {
			return nil, errors.Newf(ErrSizeMismatch,
				"uncompressed size mismatch: expected %d, got %d",
				uncompressedSize, len(body))
		}
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	case LZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, errors.Wrap(ErrSizeMismatch, err, "lz4 decompression failed")
		}
		if n != uncompressedSize {
			return nil, errors.Newf(ErrSizeMismatch,
				"lz4 size mismatch: expected %d, got %d", uncompressedSize, n)
		}
		return out, nil
	case ZSTD:
		out, err := zstdDecoder.DecodeAll(body, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, errors.Wrap(ErrSizeMismatch, err, "zstd decompression failed")
		}
		if len(out) != uncompressedSize {
			return nil, errors.Newf(ErrSizeMismatch,
				"zstd size mismatch: expected %d, got %d", uncompressedSize, len(out))
		}
		return out, nil
	default:
		return nil, errors.Newf(ErrUnknownCodec, "unknown codec: 0x%02x", byte(method))
	}
}

// ReadFrame pulls one complete frame off the transport and returns the
// decoded payload.
func ReadFrame(r *wire.Reader) ([]byte, error) {
	head := make([]byte, checksumSize+headerSize)
	if err := r.ReadFull(head); err != nil {
		return nil, err
	}
	compressedSize := int(binary.LittleEndian.Uint32(head[checksumSize+1:]))
	if compressedSize < headerSize || compressedSize > maxFrameSize {
		return nil, errors.Newf(ErrSizeMismatch,
			"invalid compressed size: %d", compressedSize)
	}
	frame := make([]byte, checksumSize+compressedSize)
	copy(frame, head)
	if err := r.ReadFull(frame[len(head):]); err != nil {
		return nil, err
	}
	return Decompress(frame)
}

// rawLZ4Block encodes src as a single literal-only LZ4 sequence.
func rawLZ4Block(src []byte) []byte {
	n := len(src)
	out := make([]byte, 0, n+n/255+2)
	if n < 15 {
		out = append(out, byte(n)<<4)
	} else {
		out = append(out, 0xF0)
		rest := n - 15
		for rest >= 255 {
			out = append(out, 255)
			rest -= 255
		}
		out = append(out, byte(rest))
	}
	return append(out, src...)
}
