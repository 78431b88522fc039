// Package column implements the logical type model and the per-type codecs
// of the native protocol's columnar data format. Every codec satisfies the
// Column contract and is instantiated from a Type through New.
package column

import (
	"fmt"
	"strings"

	"github.com/gear6io/chnative/pkg/errors"
)

// Error codes surfaced by this package.
var (
	ErrUnsupportedType = errors.MustNewCode("column.unsupported_type")
	ErrInvalidNesting  = errors.MustNewCode("column.invalid_nesting")
	ErrTypeMismatch    = errors.MustNewCode("column.type_mismatch")
	ErrOutOfRange      = errors.MustNewCode("column.out_of_range")
	ErrBadSlice        = errors.MustNewCode("column.bad_slice")
	ErrBadValue        = errors.MustNewCode("column.bad_value")
	ErrBadTypeName     = errors.MustNewCode("protocol.bad_type_name")
)

// Kind enumerates the logical type constructors.
type Kind uint8

const (
	KindNothing Kind = iota
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindUInt128
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindFloat32
	KindFloat64
	KindString
	KindFixedString
	KindDate
	KindDate32
	KindDateTime
	KindDateTime64
	KindDecimal
	KindEnum8
	KindEnum16
	KindUUID
	KindIPv4
	KindIPv6
	KindNullable
	KindArray
	KindTuple
	KindMap
	KindLowCardinality
	KindAggregateFunction
)

var kindNames = map[Kind]string{
	KindNothing:           "Nothing",
	KindUInt8:             "UInt8",
	KindUInt16:            "UInt16",
	KindUInt32:            "UInt32",
	KindUInt64:            "UInt64",
	KindUInt128:           "UInt128",
	KindInt8:              "Int8",
	KindInt16:             "Int16",
	KindInt32:             "Int32",
	KindInt64:             "Int64",
	KindInt128:            "Int128",
	KindFloat32:           "Float32",
	KindFloat64:           "Float64",
	KindString:            "String",
	KindFixedString:       "FixedString",
	KindDate:              "Date",
	KindDate32:            "Date32",
	KindDateTime:          "DateTime",
	KindDateTime64:        "DateTime64",
	KindDecimal:           "Decimal",
	KindEnum8:             "Enum8",
	KindEnum16:            "Enum16",
	KindUUID:              "UUID",
	KindIPv4:              "IPv4",
	KindIPv6:              "IPv6",
	KindNullable:          "Nullable",
	KindArray:             "Array",
	KindTuple:             "Tuple",
	KindMap:               "Map",
	KindLowCardinality:    "LowCardinality",
	KindAggregateFunction: "AggregateFunction",
}

// EnumItem is one 'name' = value pair of an Enum8/Enum16 type.
type EnumItem struct {
	Name  string
	Value int16
}

// Type is the structured representation of a logical column type.
type Type struct {
	Kind Kind

	// Size is the byte width of a FixedString.
	Size int
	// Precision and Scale parameterize Decimal; Precision doubles as the
	// tick precision of DateTime64.
	Precision int
	Scale     int
	// Timezone of DateTime / DateTime64, empty when unspecified.
	Timezone string
	// Enum carries the name<->value pairs of Enum8/Enum16.
	Enum []EnumItem
	// Elems holds nested types: one for Nullable/Array/LowCardinality,
	// two for Map, any number for Tuple.
	Elems []Type

	// alias preserves a geo alias spelling (Point, Ring, ...) so the
	// printer round-trips the server's name.
	alias string
}

// Simple type values, usable directly.
var (
	TNothing = Type{Kind: KindNothing}
	TUInt8   = Type{Kind: KindUInt8}
	TUInt16  = Type{Kind: KindUInt16}
	TUInt32  = Type{Kind: KindUInt32}
	TUInt64  = Type{Kind: KindUInt64}
	TUInt128 = Type{Kind: KindUInt128}
	TInt8    = Type{Kind: KindInt8}
	TInt16   = Type{Kind: KindInt16}
	TInt32   = Type{Kind: KindInt32}
	TInt64   = Type{Kind: KindInt64}
	TInt128  = Type{Kind: KindInt128}
	TFloat32 = Type{Kind: KindFloat32}
	TFloat64 = Type{Kind: KindFloat64}
	TString  = Type{Kind: KindString}
	TDate    = Type{Kind: KindDate}
	TDate32  = Type{Kind: KindDate32}
	TUUID    = Type{Kind: KindUUID}
	TIPv4    = Type{Kind: KindIPv4}
	TIPv6    = Type{Kind: KindIPv6}
)

// TFixedString returns FixedString(n).
func TFixedString(n int) Type {
	return Type{Kind: KindFixedString, Size: n}
}

// TDateTime returns DateTime, optionally with a timezone.
func TDateTime(tz string) Type {
	return Type{Kind: KindDateTime, Timezone: tz}
}

// TDateTime64 returns DateTime64(precision[, tz]).
func TDateTime64(precision int, tz string) Type {
	return Type{Kind: KindDateTime64, Precision: precision, Timezone: tz}
}

// TDecimal returns Decimal(precision, scale).
func TDecimal(precision, scale int) Type {
	return Type{Kind: KindDecimal, Precision: precision, Scale: scale}
}

// TEnum8 returns Enum8 over the given items.
func TEnum8(items ...EnumItem) Type {
	return Type{Kind: KindEnum8, Enum: items}
}

// TEnum16 returns Enum16 over the given items.
func TEnum16(items ...EnumItem) Type {
	return Type{Kind: KindEnum16, Enum: items}
}

// TNullable returns Nullable(inner).
func TNullable(inner Type) Type {
	return Type{Kind: KindNullable, Elems: []Type{inner}}
}

// TArray returns Array(inner).
func TArray(inner Type) Type {
	return Type{Kind: KindArray, Elems: []Type{inner}}
}

// TTuple returns Tuple(elems...).
func TTuple(elems ...Type) Type {
	return Type{Kind: KindTuple, Elems: elems}
}

// TMap returns Map(key, value).
func TMap(key, value Type) Type {
	return Type{Kind: KindMap, Elems: []Type{key, value}}
}

// TLowCardinality returns LowCardinality(inner).
func TLowCardinality(inner Type) Type {
	return Type{Kind: KindLowCardinality, Elems: []Type{inner}}
}

// Geo aliases resolve to their structural types but keep the alias name.
var (
	TPoint        = geoAlias("Point", TTuple(TFloat64, TFloat64))
	TRing         = geoAlias("Ring", TArray(geoAlias("Point", TTuple(TFloat64, TFloat64))))
	TPolygon      = geoAlias("Polygon", TArray(geoAlias("Ring", TArray(geoAlias("Point", TTuple(TFloat64, TFloat64))))))
	TMultiPolygon = geoAlias("MultiPolygon", TArray(geoAlias("Polygon", TArray(geoAlias("Ring", TArray(geoAlias("Point", TTuple(TFloat64, TFloat64))))))))
)

func geoAlias(name string, t Type) Type {
	t.alias = name
	return t
}

// String prints the canonical type name as sent in column metadata.
func (t Type) String() string {
	if t.alias != "" {
		return t.alias
	}
	switch t.Kind {
	case KindFixedString:
		return fmt.Sprintf("FixedString(%d)", t.Size)
	case KindDateTime:
		if t.Timezone != "" {
			return fmt.Sprintf("DateTime('%s')", t.Timezone)
		}
		return "DateTime"
	case KindDateTime64:
		if t.Timezone != "" {
			return fmt.Sprintf("DateTime64(%d, '%s')", t.Precision, t.Timezone)
		}
		return fmt.Sprintf("DateTime64(%d)", t.Precision)
	case KindDecimal:
		return fmt.Sprintf("Decimal(%d, %d)", t.Precision, t.Scale)
	case KindEnum8, KindEnum16:
		var sb strings.Builder
		sb.WriteString(kindNames[t.Kind])
		sb.WriteByte('(')
		for i, item := range t.Enum {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "'%s' = %d", escapeEnumName(item.Name), item.Value)
		}
		sb.WriteByte(')')
		return sb.String()
	case KindNullable, KindArray, KindLowCardinality:
		return fmt.Sprintf("%s(%s)", kindNames[t.Kind], t.Elems[0])
	case KindMap:
		return fmt.Sprintf("Map(%s, %s)", t.Elems[0], t.Elems[1])
	case KindTuple:
		var sb strings.Builder
		sb.WriteString("Tuple(")
		for i, e := range t.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(')')
		return sb.String()
	default:
		return kindNames[t.Kind]
	}
}

func escapeEnumName(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// Equal compares two types structurally (aliases resolve to their
// structural form, so Point equals Tuple(Float64, Float64)).
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind || t.Size != other.Size ||
		t.Precision != other.Precision || t.Scale != other.Scale ||
		t.Timezone != other.Timezone || len(t.Enum) != len(other.Enum) ||
		len(t.Elems) != len(other.Elems) {
		return false
	}
	for i := range t.Enum {
		if t.Enum[i] != other.Enum[i] {
			return false
		}
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(other.Elems[i]) {
			return false
		}
	}
	return true
}

// EnumName resolves a stored enum value to its name.
func (t Type) EnumName(value int16) (string, bool) {
	for _, item := range t.Enum {
		if item.Value == value {
			return item.Name, true
		}
	}
	return "", false
}

// EnumValue resolves an enum name to its stored value.
func (t Type) EnumValue(name string) (int16, bool) {
	for _, item := range t.Enum {
		if item.Name == name {
			return item.Value, true
		}
	}
	return 0, false
}

// Validate enforces the nesting restrictions of the type system.
func (t Type) Validate() error {
	switch t.Kind {
	case KindNullable, KindArray, KindLowCardinality:
		if len(t.Elems) != 1 {
			return errors.Newf(ErrBadTypeName,
				"%s takes exactly one type argument", kindNames[t.Kind])
		}
	case KindMap:
		if len(t.Elems) != 2 {
			return errors.New(ErrBadTypeName, "Map takes exactly two type arguments")
		}
	}

	switch t.Kind {
	case KindNullable:
		inner := t.Elems[0]
		switch inner.Kind {
		case KindArray, KindMap, KindTuple, KindLowCardinality:
			return errors.Newf(ErrInvalidNesting,
				"Nullable cannot wrap %s; nest the other way around", kindNames[inner.Kind])
		}
		return inner.Validate()
	case KindLowCardinality:
		inner := t.Elems[0]
		if inner.Kind == KindNullable {
			return inner.Elems[0].Validate()
		}
		return inner.Validate()
	case KindDateTime64:
		if t.Precision < 0 || t.Precision > 9 {
			return errors.Newf(ErrOutOfRange, "DateTime64 precision %d out of range 0..9", t.Precision)
		}
		return nil
	case KindDecimal:
		if t.Precision < 1 || t.Precision > 38 {
			return errors.Newf(ErrOutOfRange, "Decimal precision %d out of range 1..38", t.Precision)
		}
		if t.Scale < 0 || t.Scale > t.Precision {
			return errors.Newf(ErrOutOfRange, "Decimal scale %d out of range 0..%d", t.Scale, t.Precision)
		}
		return nil
	case KindArray, KindTuple, KindMap:
		for _, e := range t.Elems {
			if err := e.Validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
