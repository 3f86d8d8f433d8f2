package mapping

import (
	"fmt"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// TypeKind classifies a DataType.
type TypeKind int

// Type kinds.
const (
	KindScalar TypeKind = iota
	KindList
	KindSet
	KindMap
	KindTuple
	KindUserType
	KindFrozen
)

// DataType is a CQL column type. String returns the canonical CQL
// rendering as stored in system_schema.columns.
type DataType interface {
	Kind() TypeKind
	String() string
	isDataType()
}

// ScalarType is a native CQL type.
type ScalarType struct {
	name string
}

func (ScalarType) Kind() TypeKind   { return KindScalar }
func (s ScalarType) String() string { return s.name }
func (ScalarType) isDataType()      {}

// Native CQL types.
var (
	Ascii     DataType = ScalarType{"ascii"}
	BigInt    DataType = ScalarType{"bigint"}
	Blob      DataType = ScalarType{"blob"}
	Boolean   DataType = ScalarType{"boolean"}
	Counter   DataType = ScalarType{"counter"}
	Date      DataType = ScalarType{"date"}
	Decimal   DataType = ScalarType{"decimal"}
	Double    DataType = ScalarType{"double"}
	Duration  DataType = ScalarType{"duration"}
	Float     DataType = ScalarType{"float"}
	Inet      DataType = ScalarType{"inet"}
	Int       DataType = ScalarType{"int"}
	SmallInt  DataType = ScalarType{"smallint"}
	Text      DataType = ScalarType{"text"}
	Time      DataType = ScalarType{"time"}
	Timestamp DataType = ScalarType{"timestamp"}
	TimeUUID  DataType = ScalarType{"timeuuid"}
	TinyInt   DataType = ScalarType{"tinyint"}
	UUID      DataType = ScalarType{"uuid"}
	VarInt    DataType = ScalarType{"varint"}
)

var scalarTypes = map[string]DataType{}

func init() {
	for _, t := range []DataType{
		Ascii, BigInt, Blob, Boolean, Counter, Date, Decimal, Double, Duration, Float,
		Inet, Int, SmallInt, Text, Time, Timestamp, TimeUUID, TinyInt, UUID, VarInt,
	} {
		scalarTypes[t.String()] = t
	}
	// varchar is an alias of text.
	scalarTypes["varchar"] = Text
}

// ListType is list<elem>.
type ListType struct {
	elem DataType
}

// ListOf returns list<elem>.
func ListOf(elem DataType) DataType { return ListType{elem: elem} }

func (ListType) Kind() TypeKind   { return KindList }
func (l ListType) Elem() DataType { return l.elem }
func (l ListType) String() string { return "list<" + l.elem.String() + ">" }
func (ListType) isDataType()      {}

// SetType is set<elem>.
type SetType struct {
	elem DataType
}

// SetOf returns set<elem>.
func SetOf(elem DataType) DataType { return SetType{elem: elem} }

func (SetType) Kind() TypeKind   { return KindSet }
func (s SetType) Elem() DataType { return s.elem }
func (s SetType) String() string { return "set<" + s.elem.String() + ">" }
func (SetType) isDataType()      {}

// MapType is map<key, value>.
type MapType struct {
	key   DataType
	value DataType
}

// MapOf returns map<key, value>.
func MapOf(key, value DataType) DataType { return MapType{key: key, value: value} }

func (MapType) Kind() TypeKind { return KindMap }

// Key returns the key type.
func (m MapType) Key() DataType { return m.key }

// Value returns the value type.
func (m MapType) Value() DataType { return m.value }

func (m MapType) String() string {
	return "map<" + m.key.String() + ", " + m.value.String() + ">"
}

func (MapType) isDataType() {}

// TupleType is tuple<a, b, ...>.
type TupleType struct {
	elems []DataType
}

// TupleOf returns tuple<elems...>.
func TupleOf(elems ...DataType) DataType { return TupleType{elems: elems} }

func (TupleType) Kind() TypeKind { return KindTuple }

// Elems returns the component types.
func (t TupleType) Elems() []DataType { return append([]DataType(nil), t.elems...) }

func (t TupleType) String() string {
	parts := make([]string, len(t.elems))
	for i, e := range t.elems {
		parts[i] = e.String()
	}

	return "tuple<" + strings.Join(parts, ", ") + ">"
}

func (TupleType) isDataType() {}

// UserType references a user-defined type by name.
type UserType struct {
	name types.Identifier
}

// UserTypeOf returns a reference to the named user type.
func UserTypeOf(name types.Identifier) DataType { return UserType{name: name} }

func (UserType) Kind() TypeKind { return KindUserType }

// Name returns the user type identifier.
func (u UserType) Name() types.Identifier { return u.name }

func (u UserType) String() string { return u.name.CQL() }

func (UserType) isDataType() {}

// FrozenType is frozen<inner>.
type FrozenType struct {
	inner DataType
}

func (FrozenType) Kind() TypeKind { return KindFrozen }

// Inner returns the frozen type.
func (f FrozenType) Inner() DataType { return f.inner }

func (f FrozenType) String() string { return "frozen<" + f.inner.String() + ">" }

func (FrozenType) isDataType() {}

// Frozen returns frozen<t>. Scalars and already frozen types are returned
// unchanged.
func Frozen(t DataType) DataType {
	switch t.Kind() {
	case KindScalar, KindFrozen:
		return t
	default:
		return FrozenType{inner: t}
	}
}

// Unfrozen strips a frozen wrapper.
func Unfrozen(t DataType) DataType {
	if f, ok := t.(FrozenType); ok {
		return f.inner
	}

	return t
}

// IsCollection reports whether t is a (possibly frozen) list, set or map.
func IsCollection(t DataType) bool {
	switch Unfrozen(t).Kind() {
	case KindList, KindSet, KindMap:
		return true
	default:
		return false
	}
}

// SameType reports whether both types render identically, treating text
// and varchar as the same type.
func SameType(a, b DataType) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.String() == b.String()
}

// ParseDataType parses a CQL type such as "map<text, frozen<list<int>>>".
// Unknown names are parsed as user type references.
func ParseDataType(s string) (DataType, error) {
	p := &typeParser{input: s}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, types.MappingErrorf("unexpected %q at offset %d in type %q", p.input[p.pos:], p.pos, s)
	}

	return t, nil
}

type typeParser struct {
	input string
	pos   int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) name() (string, bool, error) {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '"' {
		var b strings.Builder
		p.pos++
		for p.pos < len(p.input) {
			c := p.input[p.pos]
			if c == '"' {
				if p.pos+1 < len(p.input) && p.input[p.pos+1] == '"' {
					b.WriteByte('"')
					p.pos += 2

					continue
				}
				p.pos++

				return b.String(), true, nil
			}
			b.WriteByte(c)
			p.pos++
		}

		return "", false, types.MappingErrorf("unterminated quoted name in type %q", p.input)
	}

	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '<' || c == '>' || c == ',' || c == ' ' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return "", false, types.MappingErrorf("expected type name at offset %d in type %q", start, p.input)
	}

	return p.input[start:p.pos], false, nil
}

func (p *typeParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return types.MappingErrorf("expected %q at offset %d in type %q", c, p.pos, p.input)
	}
	p.pos++

	return nil
}

func (p *typeParser) args() ([]DataType, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}

	var args []DataType
	for {
		t, err := p.parse()
		if err != nil {
			return nil, err
		}
		args = append(args, t)

		p.skipSpace()
		if p.pos < len(p.input) && p.input[p.pos] == ',' {
			p.pos++
			continue
		}

		return args, p.expect('>')
	}
}

func (p *typeParser) parse() (DataType, error) {
	name, quoted, err := p.name()
	if err != nil {
		return nil, err
	}
	if quoted {
		return UserTypeOf(types.QuotedIdentifier(name)), nil
	}

	lower := strings.ToLower(name)
	switch lower {
	case "list", "set", "frozen", "map", "tuple":
		args, err := p.args()
		if err != nil {
			return nil, err
		}

		return buildParameterized(lower, args, p.input)
	}

	if t, ok := scalarTypes[lower]; ok {
		return t, nil
	}

	return UserTypeOf(types.NewIdentifier(name)), nil
}

func buildParameterized(name string, args []DataType, input string) (DataType, error) {
	want := map[string]int{"list": 1, "set": 1, "frozen": 1, "map": 2}
	if n, ok := want[name]; ok && len(args) != n {
		return nil, types.MappingErrorf("%s takes %d type arguments, got %d in type %q", name, n, len(args), input)
	}

	switch name {
	case "list":
		return ListOf(args[0]), nil
	case "set":
		return SetOf(args[0]), nil
	case "map":
		return MapOf(args[0], args[1]), nil
	case "frozen":
		return FrozenType{inner: args[0]}, nil
	default:
		return TupleOf(args...), nil
	}
}

// MustParseDataType is like ParseDataType but panics on error. It is meant
// for package-level type literals.
func MustParseDataType(s string) DataType {
	t, err := ParseDataType(s)
	if err != nil {
		panic(fmt.Sprintf("mapping: %v", err))
	}

	return t
}
