// Package block implements the block envelope of the native protocol: an
// ordered list of named, equal-length columns plus BlockInfo metadata,
// together with the revision-gated reader and writer that frame blocks on
// the wire.
package block

import (
	"github.com/gear6io/chnative/column"
	"github.com/gear6io/chnative/pkg/errors"
)

// Error codes surfaced by this package.
var (
	ErrRowMismatch = errors.MustNewCode("block.row_mismatch")
	ErrNoColumn    = errors.MustNewCode("block.no_column")
)

// Info is the block metadata carried ahead of the column data.
type Info struct {
	IsOverflows bool
	BucketNum   int32
}

func defaultInfo() Info {
	return Info{BucketNum: -1}
}

// Block is an ordered list of named columns sharing one row count.
type Block struct {
	info  Info
	names []string
	cols  []column.Column
}

// New returns an empty block.
func New() *Block {
	return &Block{info: defaultInfo()}
}

// Info returns the block metadata.
func (b *Block) Info() Info {
	return b.info
}

// SetInfo replaces the block metadata.
func (b *Block) SetInfo(info Info) {
	b.info = info
}

// Columns returns the number of columns.
func (b *Block) Columns() int {
	return len(b.cols)
}

// Rows returns the shared row count.
func (b *Block) Rows() int {
	if len(b.cols) == 0 {
		return 0
	}
	return b.cols[0].Rows()
}

// AddColumn appends a named column, enforcing the shared row count.
func (b *Block) AddColumn(name string, col column.Column) error {
	if len(b.cols) > 0 && col.Rows() != b.Rows() {
		return errors.Newf(ErrRowMismatch,
			"column %q has %d rows, block has %d", name, col.Rows(), b.Rows())
	}
	b.names = append(b.names, name)
	b.cols = append(b.cols, col)
	return nil
}

// Name returns the name of column i.
func (b *Block) Name(i int) string {
	return b.names[i]
}

// Column returns column i.
func (b *Block) Column(i int) column.Column {
	return b.cols[i]
}

// ColumnByName returns the first column with the given name.
func (b *Block) ColumnByName(name string) (column.Column, error) {
	for i, n := range b.names {
		if n == name {
			return b.cols[i], nil
		}
	}
	return nil, errors.Newf(ErrNoColumn, "no column named %q", name)
}

// Names returns the column names in order.
func (b *Block) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Row returns row i across all columns.
func (b *Block) Row(i int) []any {
	out := make([]any, len(b.cols))
	for j, c := range b.cols {
		out[j] = c.Value(i)
	}
	return out
}
