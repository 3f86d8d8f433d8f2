package convert

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/google/uuid"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Read populates dest, a pointer to a mapped struct, from a scanned row.
// Columns absent from the row leave their fields untouched.
func (c *Converter) Read(row map[string]any, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return types.InvalidArgumentf("read destination must be a non-nil pointer, got %T", dest)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return types.InvalidArgumentf("read destination must point to a struct, got %T", dest)
	}

	e, err := c.ctx.Entity(rv.Type())
	if err != nil {
		return err
	}

	return c.readStruct(e, row, rv)
}

// ReadValue converts a scanned column value into a value of type T.
func ReadValue[T any](c *Converter, value any) (T, error) {
	var out T
	if err := c.readInto(reflect.ValueOf(&out).Elem(), value); err != nil {
		return out, err
	}

	return out, nil
}

func (c *Converter) readStruct(e *mapping.PersistentEntity, row map[string]any, rv reflect.Value) error {
	for _, p := range e.Columns() {
		value, ok := row[p.Column.Canonical()]
		if !ok {
			continue
		}
		if err := c.readInto(p.SettableValue(rv), value); err != nil {
			return fmt.Errorf("column %s: %w", p.Column.CQL(), err)
		}
	}

	return nil
}

func (c *Converter) readInto(dst reflect.Value, value any) error {
	t := dst.Type()
	if fn, ok := c.conversions.reader(t); ok {
		out, err := fn(value)
		if err != nil {
			return err
		}
		if out == nil {
			dst.SetZero()
			return nil
		}
		dst.Set(reflect.ValueOf(out))
		return nil
	}

	if isNil(value) {
		dst.SetZero()
		return nil
	}

	src := reflect.ValueOf(value)

	if t.Kind() == reflect.Pointer && t != bigIntPtr {
		elem := reflect.New(t.Elem())
		if err := c.readInto(elem.Elem(), value); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	if src.Type().AssignableTo(t) {
		dst.Set(src)
		return nil
	}

	switch {
	case t == bigIntType && src.Type() == bigIntPtr:
		dst.Set(src.Elem())
		return nil
	case t == bigIntPtr && isInt(src.Kind()):
		dst.Set(reflect.ValueOf(big.NewInt(src.Int())))
		return nil
	case mapping.IsUUIDType(t) && mapping.IsUUIDType(src.Type()):
		dst.Set(src.Convert(t))
		return nil
	case t.Kind() == reflect.String && mapping.IsUUIDType(src.Type()):
		dst.SetString(uuid.UUID(toUUIDBytes(src)).String())
		return nil
	case mapping.IsUUIDType(t) && src.Kind() == reflect.String:
		id, err := uuid.Parse(src.String())
		if err != nil {
			return fmt.Errorf("%w: %q is not a UUID", types.ErrUnsupportedConversion, src.String())
		}
		dst.Set(reflect.ValueOf([16]byte(id)).Convert(t))
		return nil
	}

	sk, tk := src.Kind(), t.Kind()
	switch {
	case (isInt(sk) || isUint(sk) || isFloat(sk)) && (isInt(tk) || isUint(tk) || isFloat(tk)):
		return setNumber(dst, src)
	case sk == reflect.String && tk == reflect.String,
		sk == reflect.Bool && tk == reflect.Bool:
		dst.Set(src.Convert(t))
		return nil
	case sk == reflect.Slice && src.Type().Elem().Kind() == reflect.Uint8 && tk == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		dst.Set(src.Convert(t))
		return nil
	}

	switch tk {
	case reflect.Slice:
		return c.readSlice(dst, src)
	case reflect.Map:
		return c.readMap(dst, src)
	case reflect.Struct:
		row, ok := value.(map[string]any)
		if !ok {
			break
		}
		e, err := c.ctx.UserTypeEntity(t)
		if err != nil {
			return err
		}
		return c.readStruct(e, row, dst)
	}

	return fmt.Errorf("%w: %s to %s", types.ErrUnsupportedConversion, src.Type(), t)
}

func (c *Converter) readSlice(dst, src reflect.Value) error {
	if src.Kind() != reflect.Slice && src.Kind() != reflect.Array {
		return fmt.Errorf("%w: %s to %s", types.ErrUnsupportedConversion, src.Type(), dst.Type())
	}

	out := reflect.MakeSlice(dst.Type(), src.Len(), src.Len())
	for i := range src.Len() {
		if err := c.readInto(out.Index(i), src.Index(i).Interface()); err != nil {
			return err
		}
	}
	dst.Set(out)

	return nil
}

func (c *Converter) readMap(dst, src reflect.Value) error {
	t := dst.Type()

	// set<T> scanned as a slice into map[T]struct{}
	if mapping.IsEmptyStruct(t.Elem()) && (src.Kind() == reflect.Slice || src.Kind() == reflect.Array) {
		out := reflect.MakeMapWithSize(t, src.Len())
		for i := range src.Len() {
			key := reflect.New(t.Key()).Elem()
			if err := c.readInto(key, src.Index(i).Interface()); err != nil {
				return err
			}
			out.SetMapIndex(key, reflect.New(t.Elem()).Elem())
		}
		dst.Set(out)
		return nil
	}

	if src.Kind() != reflect.Map {
		return fmt.Errorf("%w: %s to %s", types.ErrUnsupportedConversion, src.Type(), t)
	}

	out := reflect.MakeMapWithSize(t, src.Len())
	iter := src.MapRange()
	for iter.Next() {
		key := reflect.New(t.Key()).Elem()
		if err := c.readInto(key, iter.Key().Interface()); err != nil {
			return err
		}
		value := reflect.New(t.Elem()).Elem()
		if err := c.readInto(value, iter.Value().Interface()); err != nil {
			return err
		}
		out.SetMapIndex(key, value)
	}
	dst.Set(out)

	return nil
}

func setNumber(dst, src reflect.Value) error {
	t := dst.Type()
	sk, tk := src.Kind(), t.Kind()

	switch {
	case isInt(tk):
		var n int64
		switch {
		case isInt(sk):
			n = src.Int()
		case isUint(sk):
			n = int64(src.Uint())
		default:
			n = int64(src.Float())
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%w: %d overflows %s", types.ErrUnsupportedConversion, n, t)
		}
		dst.SetInt(n)
	case isUint(tk):
		var n uint64
		switch {
		case isInt(sk):
			if src.Int() < 0 {
				return fmt.Errorf("%w: %d to %s", types.ErrUnsupportedConversion, src.Int(), t)
			}
			n = uint64(src.Int())
		case isUint(sk):
			n = src.Uint()
		default:
			n = uint64(src.Float())
		}
		if dst.OverflowUint(n) {
			return fmt.Errorf("%w: %d overflows %s", types.ErrUnsupportedConversion, n, t)
		}
		dst.SetUint(n)
	default:
		switch {
		case isInt(sk):
			dst.SetFloat(float64(src.Int()))
		case isUint(sk):
			dst.SetFloat(float64(src.Uint()))
		default:
			dst.SetFloat(src.Float())
		}
	}

	return nil
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}

	return false
}
