package column

import (
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/wire"
)

// Column is the uniform contract every codec satisfies. Load and Save
// methods are strictly synchronous and operate against wire buffers; the
// same column runs over an in-memory decompressed frame or directly over
// the buffered connection.
//
// LoadBody of n rows followed by SaveBody yields bytes identical to the
// ones consumed. Prefix methods frame state that must precede data
// (dictionary versions); compound codecs forward them to their children.
type Column interface {
	// Type returns the column's logical type.
	Type() Type
	// Rows returns the number of logical rows.
	Rows() int
	// Reset drops all rows, keeping the type.
	Reset()
	// Reserve pre-sizes internal storage for n additional rows.
	Reserve(n int)
	// AppendDefault appends the type's zero value.
	AppendDefault()
	// AppendValue appends a Go value; nil means NULL for Nullable columns.
	AppendValue(v any) error
	// Value returns row i as a Go value.
	Value(i int) any

	LoadPrefix(r *wire.Reader, rows int) error
	LoadBody(r *wire.Reader, rows int) error
	SavePrefix(w *wire.Writer) error
	SaveBody(w *wire.Writer) error

	// Slice returns rows [begin, begin+n) as a new column of the same type.
	Slice(begin, n int) (Column, error)
	// AppendFrom appends rows [begin, begin+n) of a column of the same type.
	AppendFrom(other Column, begin, n int) error
}

// New instantiates the codec for a type.
func New(t Type) (Column, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return newColumn(t)
}

func newColumn(t Type) (Column, error) {
	switch t.Kind {
	case KindUInt8:
		return NewUInt8(), nil
	case KindUInt16:
		return NewUInt16(), nil
	case KindUInt32:
		return NewUInt32(), nil
	case KindUInt64:
		return NewUInt64(), nil
	case KindUInt128:
		return NewUInt128(), nil
	case KindInt8:
		return NewInt8(), nil
	case KindInt16:
		return NewInt16(), nil
	case KindInt32:
		return NewInt32(), nil
	case KindInt64:
		return NewInt64(), nil
	case KindInt128:
		return NewInt128(), nil
	case KindFloat32:
		return NewFloat32(), nil
	case KindFloat64:
		return NewFloat64(), nil
	case KindString:
		return NewString(), nil
	case KindFixedString:
		return NewFixedString(t.Size), nil
	case KindDate:
		return NewDate(), nil
	case KindDate32:
		return NewDate32(), nil
	case KindDateTime:
		return NewDateTime(t), nil
	case KindDateTime64:
		return NewDateTime64(t), nil
	case KindDecimal:
		return NewDecimal(t)
	case KindEnum8:
		return NewEnum8(t), nil
	case KindEnum16:
		return NewEnum16(t), nil
	case KindUUID:
		return NewUUID(), nil
	case KindIPv4:
		return NewIPv4(), nil
	case KindIPv6:
		return NewIPv6(), nil
	case KindNothing:
		return NewNothing(), nil
	case KindNullable:
		return NewNullable(t)
	case KindArray:
		return NewArray(t)
	case KindTuple:
		return NewTuple(t)
	case KindMap:
		return NewMap(t)
	case KindLowCardinality:
		return NewLowCardinality(t)
	case KindAggregateFunction:
		return nil, errors.New(ErrUnsupportedType,
			"AggregateFunction columns are not supported")
	default:
		return nil, errors.Newf(ErrUnsupportedType,
			"no codec for type %s", t)
	}
}

func checkSlice(begin, n, rows int) error {
	if begin < 0 || n < 0 || begin+n > rows {
		return errors.Newf(ErrBadSlice,
			"slice out of bounds: begin=%d n=%d rows=%d", begin, n, rows)
	}
	return nil
}

func typeMismatch(want, got Type) error {
	return errors.Newf(ErrTypeMismatch, "expected %s, got %s", want, got)
}

func badValue(t Type, v any) error {
	return errors.Newf(ErrBadValue, "cannot append %T to %s column", v, t)
}

// keyed is implemented by columns whose rows have a stable byte identity,
// which is what the LowCardinality dictionary deduplicates on.
type keyed interface {
	Column
	// rowKey appends the byte identity of row i to dst and returns it.
	rowKey(dst []byte, i int) []byte
}
