package convert

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// IDValues resolves the primary key column values of e from id.
//
// id may be:
//   - the scalar id of an entity with a single key column
//   - a composite primary key struct
//   - an entity value of type e
//   - a map keyed by property name, property path or column name
func (c *Converter) IDValues(e *mapping.PersistentEntity, id any) ([]ColumnValue, error) {
	if isNil(id) {
		return nil, types.InvalidArgumentf("id of %s must not be nil", e.Type())
	}

	keys := e.PrimaryKeyColumns()
	rv := reflect.ValueOf(id)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	switch {
	case rv.Type() == e.Type():
		return c.keyValues(keys, func(p *mapping.PersistentProperty) reflect.Value {
			return p.Value(rv)
		})

	case e.HasCompositePrimaryKey() && rv.Type() == e.IDProperty().CompositeKey.Type():
		offset := len(e.IDProperty().Index)
		return c.keyValues(keys, func(p *mapping.PersistentProperty) reflect.Value {
			return valueAt(rv, p.Index[offset:])
		})

	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		return c.mapIDValues(e, keys, rv)
	}

	if len(keys) != 1 {
		return nil, types.InvalidArgumentf(
			"%s has %d primary key columns; use a key struct, the entity or a map id instead of %T",
			e.Type(), len(keys), id)
	}

	value, err := c.write(rv, keys[0].DataType)
	if err != nil {
		return nil, fmt.Errorf("id of %s: %w", e.Type(), err)
	}

	return []ColumnValue{{Property: keys[0], Column: keys[0].Column, Value: value}}, nil
}

func (c *Converter) keyValues(keys []*mapping.PersistentProperty, field func(*mapping.PersistentProperty) reflect.Value) ([]ColumnValue, error) {
	out := make([]ColumnValue, 0, len(keys))
	for _, p := range keys {
		value, err := c.propertyValue(p, field(p))
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, types.InvalidArgumentf("primary key column %s must not be null", p.Column.CQL())
		}
		out = append(out, ColumnValue{Property: p, Column: p.Column, Value: value})
	}

	return out, nil
}

func (c *Converter) mapIDValues(e *mapping.PersistentEntity, keys []*mapping.PersistentProperty, rv reflect.Value) ([]ColumnValue, error) {
	values := make(map[*mapping.PersistentProperty]reflect.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		name := iter.Key().String()
		p, ok := e.Property(name)
		if !ok || !p.IsPrimaryKeyColumn() {
			return nil, types.InvalidArgumentf("%q is not a primary key column of %s", name, e.Type())
		}
		values[p] = iter.Value()
	}

	var missing []string
	for _, p := range keys {
		if _, ok := values[p]; !ok {
			missing = append(missing, p.Column.CQL())
		}
	}
	if len(missing) > 0 {
		return nil, types.InvalidArgumentf("id of %s is missing primary key columns %s",
			e.Type(), strings.Join(missing, ", "))
	}

	return c.keyValues(keys, func(p *mapping.PersistentProperty) reflect.Value {
		return values[p]
	})
}

func valueAt(v reflect.Value, index []int) reflect.Value {
	for i, idx := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		}
		v = v.Field(idx)
	}

	return v
}
