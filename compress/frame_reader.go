package compress

import (
	"io"

	"github.com/gear6io/chnative/wire"
)

// FrameReader exposes a sequence of frames as a contiguous byte stream.
// Frames are pulled off the transport lazily, one at a time, only when
// the caller asks for bytes beyond the current frame; it never reads
// ahead of what is requested, which keeps the packet stream aligned.
type FrameReader struct {
	src *wire.Reader
	buf []byte
	pos int
}

// NewFrameReader wraps the transport reader.
func NewFrameReader(src *wire.Reader) *FrameReader {
	return &FrameReader{src: src}
}

func (fr *FrameReader) Read(p []byte) (int, error) {
	if fr.pos == len(fr.buf) {
		payload, err := ReadFrame(fr.src)
		if err != nil {
			return 0, err
		}
		fr.buf = payload
		fr.pos = 0
		if len(payload) == 0 {
			return 0, io.EOF
		}
	}
	n := copy(p, fr.buf[fr.pos:])
	fr.pos += n
	return n, nil
}
