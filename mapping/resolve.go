package mapping

import (
	"math/big"
	"net"
	"reflect"
	"time"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	bigIntType   = reflect.TypeOf(big.Int{})
	ipType       = reflect.TypeOf(net.IP{})
)

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 && t != ipType
}

// IsUUIDType reports whether t is a 16-byte array such as uuid.UUID or gocql.UUID.
func IsUUIDType(t reflect.Type) bool {
	return t.Kind() == reflect.Array && t.Len() == 16 && t.Elem().Kind() == reflect.Uint8
}

// IsEmptyStruct reports whether t is struct{}, used as the value type of
// map-based sets.
func IsEmptyStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.NumField() == 0
}

// IsSimpleType reports whether t maps to a native CQL type without a user type.
func IsSimpleType(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch {
	case t == timeType, t == durationType, t == bigIntType, t == ipType, isBytes(t), IsUUIDType(t):
		return true
	}

	_, ok := simpleKinds[t.Kind()]

	return ok
}

var simpleKinds = map[reflect.Kind]DataType{
	reflect.String:  Text,
	reflect.Bool:    Boolean,
	reflect.Int8:    TinyInt,
	reflect.Int16:   SmallInt,
	reflect.Int32:   Int,
	reflect.Int:     BigInt,
	reflect.Int64:   BigInt,
	reflect.Float32: Float,
	reflect.Float64: Double,
}

// resolveType derives the CQL type of a Go type. asSet maps the outermost
// slice to set<...>. User types found on the way are built through c and
// appended to deps.
func (c *Context) resolveType(t reflect.Type, asSet bool, deps *[]*PersistentEntity) (DataType, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch {
	case t == timeType:
		return Timestamp, nil
	case t == durationType:
		return BigInt, nil
	case t == bigIntType:
		return VarInt, nil
	case t == ipType:
		return Inet, nil
	case isBytes(t):
		return Blob, nil
	case IsUUIDType(t):
		return UUID, nil
	}

	if dt, ok := simpleKinds[t.Kind()]; ok {
		return dt, nil
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		elem, err := c.resolveType(t.Elem(), false, deps)
		if err != nil {
			return nil, err
		}
		if asSet {
			return SetOf(freezeNested(elem)), nil
		}

		return ListOf(freezeNested(elem)), nil

	case reflect.Map:
		key, err := c.resolveType(t.Key(), false, deps)
		if err != nil {
			return nil, err
		}
		if IsEmptyStruct(t.Elem()) {
			return SetOf(freezeNested(key)), nil
		}

		value, err := c.resolveType(t.Elem(), false, deps)
		if err != nil {
			return nil, err
		}

		return MapOf(freezeNested(key), freezeNested(value)), nil

	case reflect.Struct:
		udt, err := c.build(t, userTypeEntity)
		if err != nil {
			return nil, err
		}
		*deps = appendUnique(*deps, udt)

		return UserTypeOf(udt.name), nil
	}

	return nil, types.MappingErrorf("cannot map Go type %s to a CQL type; use the type= tag option", t)
}

// freezeNested freezes collections and user types nested in a collection.
func freezeNested(t DataType) DataType {
	switch t.Kind() {
	case KindList, KindSet, KindMap, KindTuple, KindUserType:
		return Frozen(t)
	default:
		return t
	}
}

func appendUnique(entities []*PersistentEntity, e *PersistentEntity) []*PersistentEntity {
	for _, existing := range entities {
		if existing == e {
			return entities
		}
	}

	return append(entities, e)
}
