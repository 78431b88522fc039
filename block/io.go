package block

import (
	"bytes"

	"github.com/gear6io/chnative/column"
	"github.com/gear6io/chnative/compress"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/protocol"
	"github.com/gear6io/chnative/wire"
)

// ErrCustomSerialization flags the per-column serialization modes this
// client does not speak.
var ErrCustomSerialization = errors.MustNewCode("protocol.custom_serialization")

// Reader deserializes blocks at a negotiated revision, optionally through
// the compression frame. Any failure desynchronizes the packet stream and
// poisons the connection; callers must close it.
type Reader struct {
	revision   uint64
	compressed bool
}

// NewReader returns a block reader for the negotiated revision.
func NewReader(revision uint64) *Reader {
	return &Reader{revision: revision}
}

// WithCompression toggles the compression frame around data blocks.
func (r *Reader) WithCompression(on bool) *Reader {
	out := *r
	out.compressed = on
	return &out
}

// Read consumes one block from the transport. When compression is
// negotiated the payload arrives in checksummed frames; otherwise it is
// parsed straight off the connection.
func (r *Reader) Read(tr *wire.Reader) (*Block, error) {
	src := tr
	if r.compressed {
		src = wire.NewReader(compress.NewFrameReader(tr))
	}
	return r.parse(src)
}

// ReadUncompressed consumes one block ignoring the negotiated
// compression; Log and ProfileEvents payloads always arrive raw.
func (r *Reader) ReadUncompressed(tr *wire.Reader) (*Block, error) {
	return r.parse(tr)
}

func (r *Reader) parse(src *wire.Reader) (*Block, error) {
	b := New()

	if r.revision >= protocol.DBMSMinRevisionWithBlockInfo {
		info, err := readInfo(src)
		if err != nil {
			return nil, err
		}
		b.SetInfo(info)
	}

	numColumns, err := src.ReadUVarint()
	if err != nil {
		return nil, err
	}
	numRows, err := src.ReadUVarint()
	if err != nil {
		return nil, err
	}

	for i := uint64(0); i < numColumns; i++ {
		name, err := src.ReadString()
		if err != nil {
			return nil, err
		}
		typeName, err := src.ReadString()
		if err != nil {
			return nil, err
		}

		if r.revision >= protocol.DBMSMinRevisionWithCustomSerialization {
			custom, err := src.ReadUInt8()
			if err != nil {
				return nil, err
			}
			if custom != 0 {
				return nil, errors.Newf(ErrCustomSerialization,
					"column %q uses custom serialization", name)
			}
		}

		t, err := column.Parse(typeName)
		if err != nil {
			return nil, err
		}
		col, err := column.New(t)
		if err != nil {
			return nil, err
		}
		if numRows > 0 {
			if err := col.LoadPrefix(src, int(numRows)); err != nil {
				return nil, err
			}
			if err := col.LoadBody(src, int(numRows)); err != nil {
				return nil, err
			}
		}
		if err := b.AddColumn(name, col); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func readInfo(src *wire.Reader) (Info, error) {
	info := defaultInfo()
	// Tagged field stream: field 1, field 2, 0 terminator.
	if _, err := src.ReadUVarint(); err != nil {
		return info, err
	}
	overflows, err := src.ReadBool()
	if err != nil {
		return info, err
	}
	info.IsOverflows = overflows
	if _, err := src.ReadUVarint(); err != nil {
		return info, err
	}
	bucket, err := src.ReadInt32()
	if err != nil {
		return info, err
	}
	info.BucketNum = bucket
	if _, err := src.ReadUVarint(); err != nil {
		return info, err
	}
	return info, nil
}

// Writer serializes blocks at a negotiated revision, optionally through
// the compression frame.
type Writer struct {
	revision   uint64
	compressed bool
	method     compress.Method
}

// NewWriter returns a block writer for the negotiated revision.
func NewWriter(revision uint64) *Writer {
	return &Writer{revision: revision, method: compress.None}
}

// WithCompression selects the frame codec for data blocks.
func (w *Writer) WithCompression(method compress.Method) *Writer {
	out := *w
	out.compressed = true
	out.method = method
	return &out
}

// Write emits one block onto the transport, framed when compression is
// negotiated. The caller flushes.
func (w *Writer) Write(tw *wire.Writer, b *Block) error {
	if !w.compressed {
		return w.serialize(tw, b)
	}
	var buf bytes.Buffer
	if err := w.serialize(wire.NewWriter(&buf), b); err != nil {
		return err
	}
	frame, err := compress.Compress(w.method, buf.Bytes())
	if err != nil {
		return err
	}
	return tw.WriteBytes(frame)
}

func (w *Writer) serialize(dst *wire.Writer, b *Block) error {
	if w.revision >= protocol.DBMSMinRevisionWithBlockInfo {
		if err := dst.WriteUVarint(1); err != nil {
			return err
		}
		if err := dst.WriteBool(b.Info().IsOverflows); err != nil {
			return err
		}
		if err := dst.WriteUVarint(2); err != nil {
			return err
		}
		if err := dst.WriteInt32(b.Info().BucketNum); err != nil {
			return err
		}
		if err := dst.WriteUVarint(0); err != nil {
			return err
		}
	}

	if err := dst.WriteUVarint(uint64(b.Columns())); err != nil {
		return err
	}
	if err := dst.WriteUVarint(uint64(b.Rows())); err != nil {
		return err
	}

	for i := 0; i < b.Columns(); i++ {
		col := b.Column(i)
		if err := dst.WriteString(b.Name(i)); err != nil {
			return err
		}
		if err := dst.WriteString(col.Type().String()); err != nil {
			return err
		}
		if w.revision >= protocol.DBMSMinRevisionWithCustomSerialization {
			if err := dst.WriteUInt8(0); err != nil {
				return err
			}
		}
		if b.Rows() > 0 {
			if err := col.SavePrefix(dst); err != nil {
				return err
			}
			if err := col.SaveBody(dst); err != nil {
				return err
			}
		}
	}
	return nil
}
