package column

import (
	"github.com/cespare/xxhash/v2"

	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/wire"
)

// Error code for dictionary framing violations.
var ErrBadKeyVersion = errors.MustNewCode("protocol.bad_key_version")

// Key serialization: shared dictionaries with per-block additional keys
// is the only mode this client speaks.
const sharedDictionariesWithAdditionalKeys uint64 = 1

// Bits of the index serialization type word.
const (
	indexWidthMask           uint64 = 0x07
	needsGlobalDictionaryBit uint64 = 1 << 8
	hasAdditionalKeysBit     uint64 = 1 << 9
)

// LowCardinality dictionary-encodes its inner type: a deduplicated
// dictionary column plus one index per row. When the inner type is
// Nullable, the dictionary holds the stripped type and slot 0 doubles as
// the null placeholder; slot 1 is the reserved default. Non-nullable
// dictionaries reserve slot 0 for the default.
type LowCardinality struct {
	typ      Type
	nullable bool
	dict     Column // stripped inner type
	indices  []uint64

	// lookup maps a pair of independent hashes of a value's byte
	// identity to its dictionary index.
	lookup  map[[2]uint64]uint64
	scratch Column // one-row staging area for keying candidate values
}

func NewLowCardinality(t Type) (*LowCardinality, error) {
	if t.Kind != KindLowCardinality {
		return nil, errors.Newf(ErrTypeMismatch, "not a LowCardinality type: %s", t)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	inner := t.Elems[0]
	nullable := inner.Kind == KindNullable
	stripped := inner
	if nullable {
		stripped = inner.Elems[0]
	}
	dict, err := newColumn(stripped)
	if err != nil {
		return nil, err
	}
	if _, ok := dict.(keyed); !ok {
		return nil, errors.Newf(ErrUnsupportedType,
			"LowCardinality cannot wrap %s", stripped)
	}
	scratch, err := newColumn(stripped)
	if err != nil {
		return nil, err
	}
	return &LowCardinality{
		typ:      t,
		nullable: nullable,
		dict:     dict,
		scratch:  scratch,
		lookup:   make(map[[2]uint64]uint64),
	}, nil
}

// Dictionary exposes the (stripped) dictionary column.
func (c *LowCardinality) Dictionary() Column {
	return c.dict
}

// DictSize returns the dictionary length including reserved slots.
func (c *LowCardinality) DictSize() int {
	return c.dict.Rows()
}

// Index returns the dictionary index of row i.
func (c *LowCardinality) Index(i int) uint64 {
	return c.indices[i]
}

func hashKey(key []byte) [2]uint64 {
	h1 := xxhash.Sum64(key)
	d := xxhash.New()
	var lenPrefix [1]byte
	lenPrefix[0] = byte(len(key))
	d.Write(lenPrefix[:])
	d.Write(key)
	return [2]uint64{h1, d.Sum64()}
}

// reserveSlots installs the leading dictionary slots before the first append.
func (c *LowCardinality) reserveSlots() {
	if c.dict.Rows() > 0 {
		return
	}
	c.dict.AppendDefault()
	if c.nullable {
		// Slot 0 is the null placeholder, slot 1 the actual default.
		c.dict.AppendDefault()
		c.registerKey(1)
	} else {
		c.registerKey(0)
	}
}

func (c *LowCardinality) registerKey(idx uint64) {
	k := c.dict.(keyed).rowKey(nil, int(idx))
	c.lookup[hashKey(k)] = idx
}

// AppendNull appends a null row; only legal when the inner type is
// Nullable.
func (c *LowCardinality) AppendNull() error {
	if !c.nullable {
		return errors.Newf(ErrBadValue, "cannot append null to %s", c.typ)
	}
	c.reserveSlots()
	c.indices = append(c.indices, 0)
	return nil
}

// Append deduplicates v against the dictionary and appends its index.
func (c *LowCardinality) Append(v any) error {
	if v == nil {
		return c.AppendNull()
	}
	c.reserveSlots()
	c.scratch.Reset()
	if err := c.scratch.AppendValue(v); err != nil {
		return err
	}
	key := c.scratch.(keyed).rowKey(nil, 0)
	hk := hashKey(key)
	idx, ok := c.lookup[hk]
	if !ok {
		idx = uint64(c.dict.Rows())
		if err := c.dict.AppendValue(v); err != nil {
			return err
		}
		c.lookup[hk] = idx
	}
	c.indices = append(c.indices, idx)
	return nil
}

// appendDictRow appends row idx of another dictionary, deduplicating.
func (c *LowCardinality) appendDictRow(dict Column, idx uint64) error {
	c.reserveSlots()
	key := dict.(keyed).rowKey(nil, int(idx))
	hk := hashKey(key)
	own, ok := c.lookup[hk]
	if !ok {
		own = uint64(c.dict.Rows())
		if err := c.dict.AppendFrom(dict, int(idx), 1); err != nil {
			return err
		}
		c.lookup[hk] = own
	}
	c.indices = append(c.indices, own)
	return nil
}

func (c *LowCardinality) Type() Type { return c.typ }
func (c *LowCardinality) Rows() int  { return len(c.indices) }

func (c *LowCardinality) Reset() {
	c.indices = c.indices[:0]
	c.dict.Reset()
	c.lookup = make(map[[2]uint64]uint64)
}

func (c *LowCardinality) Reserve(n int) {
	if cap(c.indices)-len(c.indices) < n {
		grown := make([]uint64, len(c.indices), len(c.indices)+n)
		copy(grown, c.indices)
		c.indices = grown
	}
}

func (c *LowCardinality) AppendDefault() {
	if c.nullable {
		c.AppendNull()
		return
	}
	c.reserveSlots()
	c.indices = append(c.indices, 0)
}

func (c *LowCardinality) AppendValue(v any) error {
	return c.Append(v)
}

func (c *LowCardinality) Value(i int) any {
	idx := c.indices[i]
	if c.nullable && idx == 0 {
		return nil
	}
	return c.dict.Value(int(idx))
}

// LoadPrefix consumes the key serialization version.
func (c *LowCardinality) LoadPrefix(r *wire.Reader, rows int) error {
	version, err := r.ReadUInt64()
	if err != nil {
		return err
	}
	if version != sharedDictionariesWithAdditionalKeys {
		return errors.Newf(ErrBadKeyVersion,
			"unsupported key serialization version: %d", version)
	}
	return nil
}

// SavePrefix emits the key serialization version.
func (c *LowCardinality) SavePrefix(w *wire.Writer) error {
	return w.WriteUInt64(sharedDictionariesWithAdditionalKeys)
}

func (c *LowCardinality) LoadBody(r *wire.Reader, rows int) error {
	if rows == 0 {
		return nil
	}
	serType, err := r.ReadUInt64()
	if err != nil {
		return err
	}
	if serType&needsGlobalDictionaryBit != 0 {
		return errors.New(ErrBadKeyVersion, "global dictionaries are not supported")
	}
	width := serType & indexWidthMask
	if width > 3 {
		return errors.Newf(ErrBadKeyVersion, "unknown index width code: %d", width)
	}

	numKeys, err := r.ReadUInt64()
	if err != nil {
		return err
	}
	c.dict.Reset()
	c.lookup = make(map[[2]uint64]uint64)
	if err := c.dict.LoadBody(r, int(numKeys)); err != nil {
		return err
	}

	numRows, err := r.ReadUInt64()
	if err != nil {
		return err
	}
	if numRows != uint64(rows) {
		return errors.Newf(ErrBadKeyVersion,
			"row count mismatch: block says %d, column says %d", rows, numRows)
	}

	c.indices = c.indices[:0]
	c.Reserve(rows)
	for i := 0; i < rows; i++ {
		var idx uint64
		switch width {
		case 0:
			v, err := r.ReadUInt8()
			if err != nil {
				return err
			}
			idx = uint64(v)
		case 1:
			v, err := r.ReadUInt16()
			if err != nil {
				return err
			}
			idx = uint64(v)
		case 2:
			v, err := r.ReadUInt32()
			if err != nil {
				return err
			}
			idx = uint64(v)
		default:
			if idx, err = r.ReadUInt64(); err != nil {
				return err
			}
		}
		if idx >= numKeys {
			return errors.Newf(ErrBadKeyVersion,
				"dictionary index %d out of range (%d keys)", idx, numKeys)
		}
		c.indices = append(c.indices, idx)
	}

	for i := 0; i < c.dict.Rows(); i++ {
		c.registerKey(uint64(i))
	}
	return nil
}

// indexWidthFor returns the narrowest width code able to represent the
// largest dictionary index.
func indexWidthFor(dictSize int) uint64 {
	maxIdx := uint64(0)
	if dictSize > 0 {
		maxIdx = uint64(dictSize - 1)
	}
	switch {
	case maxIdx <= 0xFF:
		return 0
	case maxIdx <= 0xFFFF:
		return 1
	case maxIdx <= 0xFFFFFFFF:
		return 2
	default:
		return 3
	}
}

func (c *LowCardinality) SaveBody(w *wire.Writer) error {
	if len(c.indices) == 0 {
		return nil
	}
	width := indexWidthFor(c.dict.Rows())
	if err := w.WriteUInt64(width | hasAdditionalKeysBit); err != nil {
		return err
	}
	if err := w.WriteUInt64(uint64(c.dict.Rows())); err != nil {
		return err
	}
	if err := c.dict.SaveBody(w); err != nil {
		return err
	}
	if err := w.WriteUInt64(uint64(len(c.indices))); err != nil {
		return err
	}
	for _, idx := range c.indices {
		var err error
		switch width {
		case 0:
			err = w.WriteUInt8(uint8(idx))
		case 1:
			err = w.WriteUInt16(uint16(idx))
		case 2:
			err = w.WriteUInt32(uint32(idx))
		default:
			err = w.WriteUInt64(idx)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Slice compacts the dictionary to the keys the slice references.
func (c *LowCardinality) Slice(begin, n int) (Column, error) {
	if err := checkSlice(begin, n, len(c.indices)); err != nil {
		return nil, err
	}
	out, err := NewLowCardinality(c.typ)
	if err != nil {
		return nil, err
	}
	for i := begin; i < begin+n; i++ {
		idx := c.indices[i]
		if c.nullable && idx == 0 {
			if err := out.AppendNull(); err != nil {
				return nil, err
			}
			continue
		}
		if err := out.appendDictRow(c.dict, idx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *LowCardinality) AppendFrom(other Column, begin, n int) error {
	o, ok := other.(*LowCardinality)
	if !ok || !o.typ.Equal(c.typ) {
		return typeMismatch(c.typ, other.Type())
	}
	if err := checkSlice(begin, n, len(o.indices)); err != nil {
		return err
	}
	for i := begin; i < begin+n; i++ {
		idx := o.indices[i]
		if c.nullable && idx == 0 {
			if err := c.AppendNull(); err != nil {
				return err
			}
			continue
		}
		if err := c.appendDictRow(o.dict, idx); err != nil {
			return err
		}
	}
	return nil
}
