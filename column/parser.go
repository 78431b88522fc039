package column

import (
	"strconv"
	"strings"

	"github.com/gear6io/chnative/pkg/errors"
)

// Parse turns a server-sent type name into a Type. The grammar is
// recursive: a name, optionally followed by a parenthesized argument list
// of numbers, quoted strings, 'name' = value pairs, or nested types.
func Parse(name string) (Type, error) {
	p := &typeParser{input: name}
	t, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return Type{}, errors.Newf(ErrBadTypeName,
			"trailing input in type name %q at %q", name, p.input[p.pos:])
	}
	if err := t.Validate(); err != nil {
		return Type{}, err
	}
	return t, nil
}

type typeParser struct {
	input string
	pos   int
}

func (p *typeParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *typeParser) expect(c byte) error {
	p.skipSpaces()
	if p.peek() != c {
		return errors.Newf(ErrBadTypeName,
			"expected %q at position %d in %q", string(c), p.pos, p.input)
	}
	p.pos++
	return nil
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

func (p *typeParser) ident() string {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *typeParser) number() (int64, error) {
	p.skipSpaces()
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, errors.Newf(ErrBadTypeName,
			"expected number at position %d in %q", p.pos, p.input)
	}
	n, err := strconv.ParseInt(p.input[start:p.pos], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrBadTypeName, err,
			"bad number %q in %q", p.input[start:p.pos], p.input)
	}
	return n, nil
}

func (p *typeParser) quoted() (string, error) {
	p.skipSpaces()
	if p.peek() != '\'' {
		return "", errors.Newf(ErrBadTypeName,
			"expected quoted string at position %d in %q", p.pos, p.input)
	}
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '\\':
			if p.pos+1 >= len(p.input) {
				return "", errors.Newf(ErrBadTypeName,
					"unterminated escape in %q", p.input)
			}
			sb.WriteByte(p.input[p.pos+1])
			p.pos += 2
		case '\'':
			p.pos++
			return sb.String(), nil
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", errors.Newf(ErrBadTypeName, "unterminated string in %q", p.input)
}

var simpleKinds = map[string]Kind{
	"Nothing": KindNothing,
	"UInt8":   KindUInt8,
	"UInt16":  KindUInt16,
	"UInt32":  KindUInt32,
	"UInt64":  KindUInt64,
	"UInt128": KindUInt128,
	"Int8":    KindInt8,
	"Int16":   KindInt16,
	"Int32":   KindInt32,
	"Int64":   KindInt64,
	"Int128":  KindInt128,
	"Float32": KindFloat32,
	"Float64": KindFloat64,
	"String":  KindString,
	"Date":    KindDate,
	"Date32":  KindDate32,
	"UUID":    KindUUID,
	"IPv4":    KindIPv4,
	"IPv6":    KindIPv6,
}

func (p *typeParser) parseType() (Type, error) {
	name := p.ident()
	if name == "" {
		return Type{}, errors.Newf(ErrBadTypeName,
			"expected type name at position %d in %q", p.pos, p.input)
	}

	if kind, ok := simpleKinds[name]; ok {
		return Type{Kind: kind}, nil
	}

	switch name {
	case "FixedString":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		n, err := p.number()
		if err != nil {
			return Type{}, err
		}
		if n <= 0 {
			return Type{}, errors.Newf(ErrBadTypeName, "FixedString size must be positive, got %d", n)
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		return TFixedString(int(n)), nil

	case "DateTime":
		p.skipSpaces()
		if p.peek() != '(' {
			return TDateTime(""), nil
		}
		p.pos++
		p.skipSpaces()
		if p.peek() == ')' {
			p.pos++
			return TDateTime(""), nil
		}
		tz, err := p.quoted()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		return TDateTime(tz), nil

	case "DateTime64":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		precision, err := p.number()
		if err != nil {
			return Type{}, err
		}
		tz := ""
		p.skipSpaces()
		if p.peek() == ',' {
			p.pos++
			if tz, err = p.quoted(); err != nil {
				return Type{}, err
			}
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		return TDateTime64(int(precision), tz), nil

	case "Decimal":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		precision, err := p.number()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect(','); err != nil {
			return Type{}, err
		}
		scale, err := p.number()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		return TDecimal(int(precision), int(scale)), nil

	case "Decimal32", "Decimal64", "Decimal128":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		scale, err := p.number()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		precision := map[string]int{
			"Decimal32":  9,
			"Decimal64":  18,
			"Decimal128": 38,
		}[name]
		return TDecimal(precision, int(scale)), nil

	case "Enum8", "Enum16":
		items, err := p.enumItems()
		if err != nil {
			return Type{}, err
		}
		if name == "Enum8" {
			return TEnum8(items...), nil
		}
		return TEnum16(items...), nil

	case "Nullable", "Array", "LowCardinality":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		inner, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		switch name {
		case "Nullable":
			return TNullable(inner), nil
		case "Array":
			return TArray(inner), nil
		default:
			return TLowCardinality(inner), nil
		}

	case "Tuple":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		var elems []Type
		for {
			inner, err := p.parseType()
			if err != nil {
				return Type{}, err
			}
			elems = append(elems, inner)
			p.skipSpaces()
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		return TTuple(elems...), nil

	case "Map":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		key, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect(','); err != nil {
			return Type{}, err
		}
		value, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		return TMap(key, value), nil

	case "SimpleAggregateFunction":
		// Transparent on the wire: the value type is the second argument.
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		if fn := p.ident(); fn == "" {
			return Type{}, errors.Newf(ErrBadTypeName,
				"expected aggregate function name at position %d in %q", p.pos, p.input)
		}
		if err := p.expect(','); err != nil {
			return Type{}, err
		}
		inner, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		return inner, nil

	case "AggregateFunction":
		// Recognized so the caller gets a dedicated unsupported error from
		// the codec factory instead of a parse failure.
		if err := p.skipBalanced(); err != nil {
			return Type{}, err
		}
		return Type{Kind: KindAggregateFunction}, nil

	case "Point":
		return TPoint, nil
	case "Ring":
		return TRing, nil
	case "Polygon":
		return TPolygon, nil
	case "MultiPolygon":
		return TMultiPolygon, nil
	}

	return Type{}, errors.Newf(ErrBadTypeName, "unknown type name %q in %q", name, p.input)
}

func (p *typeParser) enumItems() ([]EnumItem, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var items []EnumItem
	for {
		name, err := p.quoted()
		if err != nil {
			return nil, err
		}
		if err := p.expect('='); err != nil {
			return nil, err
		}
		value, err := p.number()
		if err != nil {
			return nil, err
		}
		items = append(items, EnumItem{Name: name, Value: int16(value)})
		p.skipSpaces()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return items, nil
}

// skipBalanced consumes a parenthesized argument list without
// interpreting it, honoring quotes and nesting.
func (p *typeParser) skipBalanced() error {
	if err := p.expect('('); err != nil {
		return err
	}
	depth := 1
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '\'':
			if _, err := p.quoted(); err != nil {
				return err
			}
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				p.pos++
				return nil
			}
		}
		p.pos++
	}
	return errors.Newf(ErrBadTypeName, "unbalanced parentheses in %q", p.input)
}
