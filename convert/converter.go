package convert

import (
	"encoding"
	"fmt"
	"math/big"
	"net"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

var (
	timeType   = reflect.TypeOf(time.Time{})
	bigIntType = reflect.TypeOf(big.Int{})
	bigIntPtr  = reflect.TypeOf(&big.Int{})
	ipType     = reflect.TypeOf(net.IP{})
	anyMapType = reflect.TypeOf(map[string]any{})
)

// ColumnValue is a column with its driver value.
type ColumnValue struct {
	Property *mapping.PersistentProperty
	Column   types.Identifier
	Value    any
}

// IsNull reports whether the value is a CQL null.
func (c ColumnValue) IsNull() bool {
	return c.Value == nil
}

// Option configures a Converter.
type Option func(*Converter)

// WithConversions sets custom conversions.
func WithConversions(conversions *Conversions) Option {
	return func(c *Converter) {
		c.conversions = conversions
	}
}

// Converter translates between mapped Go values and the values the CQL
// driver binds and scans.
//
// Driver values follow gocql conventions: UUIDs are [16]byte, user types
// are map[string]any keyed by field name, collections are []any and
// map[any]any. A Converter is safe for concurrent use.
type Converter struct {
	ctx         *mapping.Context
	conversions *Conversions
}

// NewConverter creates a converter over the mapping context.
//
// Parameters:
//   - ctx: Mapping context used to resolve entities and user types
//   - opts: Optional configuration
//
// Returns:
//   - *Converter: The converter
func NewConverter(ctx *mapping.Context, opts ...Option) *Converter {
	c := &Converter{ctx: ctx, conversions: NewConversions()}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// MappingContext returns the mapping context.
func (c *Converter) MappingContext() *mapping.Context {
	return c.ctx
}

// Conversions returns the custom conversion registry.
func (c *Converter) Conversions() *Conversions {
	return c.conversions
}

// Write converts an entity into its column values in column order. Null
// values are included; callers decide whether to bind them.
func (c *Converter) Write(entity any) ([]ColumnValue, error) {
	rv, e, err := c.entityValue(entity)
	if err != nil {
		return nil, err
	}

	columns := e.Columns()
	out := make([]ColumnValue, 0, len(columns))
	for _, p := range columns {
		value, err := c.propertyValue(p, p.Value(rv))
		if err != nil {
			return nil, err
		}
		out = append(out, ColumnValue{Property: p, Column: p.Column, Value: value})
	}

	return out, nil
}

// WriteProperty converts the value of one property of entity.
func (c *Converter) WriteProperty(entity any, p *mapping.PersistentProperty) (any, error) {
	rv, _, err := c.entityValue(entity)
	if err != nil {
		return nil, err
	}

	return c.propertyValue(p, p.Value(rv))
}

// WriteMap converts a user type value into a map keyed by field name.
func (c *Converter) WriteMap(udt any) (map[string]any, error) {
	rv := reflect.ValueOf(udt)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, types.MappingErrorf("user type value must be a struct, got %T", udt)
	}

	e, err := c.ctx.UserTypeEntity(rv.Type())
	if err != nil {
		return nil, err
	}

	return c.writeStruct(e, rv)
}

func (c *Converter) writeStruct(e *mapping.PersistentEntity, rv reflect.Value) (map[string]any, error) {
	columns := e.Columns()
	out := make(map[string]any, len(columns))
	for _, p := range columns {
		value, err := c.propertyValue(p, p.Value(rv))
		if err != nil {
			return nil, err
		}
		out[p.Column.Canonical()] = value
	}

	return out, nil
}

func (c *Converter) entityValue(entity any) (reflect.Value, *mapping.PersistentEntity, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, nil, types.InvalidArgumentf("entity must not be nil")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, nil, types.InvalidArgumentf("entity must be a struct, got %T", entity)
	}

	e, err := c.ctx.Entity(rv.Type())
	if err != nil {
		return reflect.Value{}, nil, err
	}

	return rv, e, nil
}

func (c *Converter) propertyValue(p *mapping.PersistentProperty, v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	value, err := c.write(v, p.DataType)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", p.Path, err)
	}

	return value, nil
}

// ConvertToColumnType converts value into the driver value for a column of
// type dt. A nil dt converts by Go type only.
func (c *Converter) ConvertToColumnType(value any, dt mapping.DataType) (any, error) {
	if value == nil {
		return nil, nil
	}

	return c.write(reflect.ValueOf(value), dt)
}

func (c *Converter) write(v reflect.Value, dt mapping.DataType) (any, error) {
	if fn, ok := c.conversions.writer(v.Type()); ok {
		return fn(v.Interface())
	}

	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		if v.Type() == bigIntPtr {
			break
		}
		v = v.Elem()
		if fn, ok := c.conversions.writer(v.Type()); ok {
			return fn(v.Interface())
		}
	}

	if dt != nil {
		dt = mapping.Unfrozen(dt)
	}

	switch t := dt.(type) {
	case mapping.ScalarType:
		return c.writeScalar(v, t)
	case mapping.ListType:
		return c.writeCollection(v, t.Elem())
	case mapping.SetType:
		return c.writeCollection(v, t.Elem())
	case mapping.MapType:
		return c.writeMap(v, t.Key(), t.Value())
	case mapping.UserType:
		return c.writeUserType(v)
	}

	return c.writeGeneric(v)
}

// writeGeneric converts by Go type when the column type is unknown.
func (c *Converter) writeGeneric(v reflect.Value) (any, error) {
	t := v.Type()
	switch {
	case t == timeType, t == ipType, t == bigIntPtr:
		return v.Interface(), nil
	case t == bigIntType:
		b := v.Interface().(big.Int)
		return &b, nil
	case mapping.IsUUIDType(t):
		return toUUIDBytes(v), nil
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		return v.Bytes(), nil
	}

	switch t.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int8:
		return int8(v.Int()), nil
	case reflect.Int16:
		return int16(v.Int()), nil
	case reflect.Int32:
		return int32(v.Int()), nil
	case reflect.Int, reflect.Int64:
		return v.Int(), nil
	case reflect.Float32:
		return float32(v.Float()), nil
	case reflect.Float64:
		return v.Float(), nil
	case reflect.Slice, reflect.Array:
		return c.writeCollection(v, nil)
	case reflect.Map:
		if mapping.IsEmptyStruct(t.Elem()) {
			return c.writeCollection(v, nil)
		}
		return c.writeMap(v, nil, nil)
	case reflect.Struct:
		return c.writeUserType(v)
	}

	return v.Interface(), nil
}

func (c *Converter) writeScalar(v reflect.Value, dt mapping.ScalarType) (any, error) {
	t := v.Type()
	k := t.Kind()

	switch dt.String() {
	case "text", "ascii":
		if k == reflect.String {
			return v.String(), nil
		}
		if mapping.IsUUIDType(t) {
			return uuid.UUID(toUUIDBytes(v)).String(), nil
		}
		if m, ok := v.Interface().(encoding.TextMarshaler); ok {
			b, err := m.MarshalText()
			if err != nil {
				return nil, err
			}
			return string(b), nil
		}
	case "boolean":
		if k == reflect.Bool {
			return v.Bool(), nil
		}
	case "tinyint", "smallint", "int", "bigint", "counter":
		return writeInteger(v, dt.String())
	case "float":
		switch {
		case isFloat(k):
			return float32(v.Float()), nil
		case isInt(k):
			return float32(v.Int()), nil
		}
	case "double":
		switch {
		case isFloat(k):
			return v.Float(), nil
		case isInt(k):
			return float64(v.Int()), nil
		}
	case "varint":
		switch {
		case t == bigIntPtr:
			return v.Interface(), nil
		case t == bigIntType:
			b := v.Interface().(big.Int)
			return &b, nil
		case isInt(k):
			return big.NewInt(v.Int()), nil
		case isUint(k):
			return new(big.Int).SetUint64(v.Uint()), nil
		}
	case "blob":
		if k == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return v.Bytes(), nil
		}
		if k == reflect.String {
			return []byte(v.String()), nil
		}
	case "uuid", "timeuuid":
		if mapping.IsUUIDType(t) {
			return toUUIDBytes(v), nil
		}
		if k == reflect.String {
			id, err := uuid.Parse(v.String())
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a UUID", types.ErrUnsupportedConversion, v.String())
			}
			return [16]byte(id), nil
		}
	case "timestamp", "date":
		if t == timeType {
			return v.Interface(), nil
		}
	case "inet":
		if t == ipType {
			return v.Interface(), nil
		}
		if k == reflect.String {
			if ip := net.ParseIP(v.String()); ip != nil {
				return ip, nil
			}
		}
	default:
		return v.Interface(), nil
	}

	return nil, fmt.Errorf("%w: %s to %s", types.ErrUnsupportedConversion, t, dt)
}

var intBits = map[string]int{"tinyint": 8, "smallint": 16, "int": 32, "bigint": 64, "counter": 64}

func writeInteger(v reflect.Value, name string) (any, error) {
	var n int64
	k := v.Kind()
	switch {
	case isInt(k):
		n = v.Int()
	case isUint(k):
		u := v.Uint()
		if u > 1<<63-1 {
			return nil, fmt.Errorf("%w: %d overflows %s", types.ErrUnsupportedConversion, u, name)
		}
		n = int64(u)
	default:
		return nil, fmt.Errorf("%w: %s to %s", types.ErrUnsupportedConversion, v.Type(), name)
	}

	bits := intBits[name]
	if bits < 64 {
		limit := int64(1) << (bits - 1)
		if n < -limit || n >= limit {
			return nil, fmt.Errorf("%w: %d overflows %s", types.ErrUnsupportedConversion, n, name)
		}
	}

	switch bits {
	case 8:
		return int8(n), nil
	case 16:
		return int16(n), nil
	case 32:
		return int32(n), nil
	default:
		return n, nil
	}
}

func (c *Converter) writeCollection(v reflect.Value, elem mapping.DataType) (any, error) {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
	case reflect.Array:
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		// map[T]struct{} set
		out := make([]any, 0, v.Len())
		for _, key := range sortedKeys(v) {
			value, err := c.write(key, elem)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	default:
		// a single value bound to a collection column, e.g. CONTAINS
		return c.write(v, elem)
	}

	out := make([]any, v.Len())
	for i := range v.Len() {
		value, err := c.write(v.Index(i), elem)
		if err != nil {
			return nil, err
		}
		out[i] = value
	}

	return out, nil
}

func (c *Converter) writeMap(v reflect.Value, keyType, valueType mapping.DataType) (any, error) {
	if v.Kind() != reflect.Map {
		return nil, fmt.Errorf("%w: %s to map", types.ErrUnsupportedConversion, v.Type())
	}
	if v.IsNil() {
		return nil, nil
	}

	out := make(map[any]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := c.write(iter.Key(), keyType)
		if err != nil {
			return nil, err
		}
		value, err := c.write(iter.Value(), valueType)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}

	return out, nil
}

func (c *Converter) writeUserType(v reflect.Value) (any, error) {
	if v.Type() == anyMapType {
		return v.Interface(), nil
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s to user type", types.ErrUnsupportedConversion, v.Type())
	}

	e, err := c.ctx.UserTypeEntity(v.Type())
	if err != nil {
		return nil, err
	}

	return c.writeStruct(e, v)
}

func toUUIDBytes(v reflect.Value) [16]byte {
	var out [16]byte
	for i := range out {
		out[i] = byte(v.Index(i).Uint())
	}

	return out
}

// sortedKeys orders map keys by their printed form so that sets are
// written deterministically.
func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})

	return keys
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
