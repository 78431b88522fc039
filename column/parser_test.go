package column_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gear6io/chnative/column"
	"github.com/gear6io/chnative/pkg/errors"
)

func TestParsePrintIdentity(t *testing.T) {
	names := []string{
		"UInt8", "UInt16", "UInt32", "UInt64", "UInt128",
		"Int8", "Int16", "Int32", "Int64", "Int128",
		"Float32", "Float64",
		"String", "FixedString(16)",
		"Date", "Date32",
		"DateTime", "DateTime('Europe/Moscow')",
		"DateTime64(3)", "DateTime64(9, 'UTC')",
		"Decimal(9, 4)", "Decimal(18, 6)", "Decimal(38, 10)",
		"Enum8('a' = 1, 'b' = 2)",
		"Enum16('red' = -1, 'green' = 0, 'blue' = 300)",
		"UUID", "IPv4", "IPv6", "Nothing",
		"Nullable(String)",
		"Array(UInt64)",
		"Array(Array(UInt64))",
		"Tuple(UInt8, String)",
		"Tuple(Tuple(Int32, Int32), Float64)",
		"Map(String, UInt64)",
		"Map(UUID, LowCardinality(Nullable(String)))",
		"LowCardinality(String)",
		"LowCardinality(Nullable(String))",
		"Nullable(Nothing)",
		"Point", "Ring", "Polygon", "MultiPolygon",
	}
	for _, name := range names {
		parsed, err := column.Parse(name)
		require.NoError(t, err, "parse %q", name)
		assert.Equal(t, name, parsed.String(), "print of %q", name)
	}
}

func TestParseSpacingVariants(t *testing.T) {
	parsed, err := column.Parse("Map(String,UInt64)")
	require.NoError(t, err)
	assert.Equal(t, "Map(String, UInt64)", parsed.String())

	parsed, err = column.Parse("Enum8('a'=1,'b'=2)")
	require.NoError(t, err)
	assert.Equal(t, "Enum8('a' = 1, 'b' = 2)", parsed.String())
}

func TestParseDecimalAliases(t *testing.T) {
	for name, want := range map[string]column.Type{
		"Decimal32(4)":  column.TDecimal(9, 4),
		"Decimal64(6)":  column.TDecimal(18, 6),
		"Decimal128(8)": column.TDecimal(38, 8),
	} {
		parsed, err := column.Parse(name)
		require.NoError(t, err)
		assert.True(t, parsed.Equal(want), "parse %q", name)
	}
}

func TestParseSimpleAggregateFunction(t *testing.T) {
	parsed, err := column.Parse("SimpleAggregateFunction(sum, UInt64)")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(column.TUInt64))
}

func TestParseGeoResolvesStructurally(t *testing.T) {
	point, err := column.Parse("Point")
	require.NoError(t, err)
	assert.True(t, point.Equal(column.TTuple(column.TFloat64, column.TFloat64)))
	assert.Equal(t, "Point", point.String())
}

func TestParseMalformed(t *testing.T) {
	for _, name := range []string{
		"",
		"NotAType",
		"Array(",
		"Array()",
		"Array(UInt64",
		"FixedString()",
		"FixedString(-3)",
		"Tuple(UInt8,)",
		"Enum8('a')",
		"Enum8(a = 1)",
		"Map(String)",
		"DateTime64()",
		"UInt64 trailing",
		"Decimal(9)",
	} {
		_, err := column.Parse(name)
		require.Error(t, err, "expected failure for %q", name)
	}
}

func TestParseNestingRules(t *testing.T) {
	for _, name := range []string{
		"Nullable(Array(UInt8))",
		"Nullable(Tuple(UInt8, UInt8))",
		"Nullable(Map(String, String))",
		"Nullable(LowCardinality(String))",
	} {
		_, err := column.Parse(name)
		require.Error(t, err, "expected rejection for %q", name)
		assert.True(t, errors.HasCode(err, column.ErrInvalidNesting), "code for %q", name)
	}

	// The legal nesting order parses fine.
	_, err := column.Parse("LowCardinality(Nullable(String))")
	require.NoError(t, err)
}

func TestAggregateFunctionRecognizedButUnsupported(t *testing.T) {
	parsed, err := column.Parse("AggregateFunction(quantiles(0.5, 0.9), UInt64)")
	require.NoError(t, err)

	_, err = column.New(parsed)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, column.ErrUnsupportedType))
}

func TestParseErrorNamesFragment(t *testing.T) {
	_, err := column.Parse("Array(Foo)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Foo")
}
