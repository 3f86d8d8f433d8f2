package convert

import (
	"errors"
	"math/big"
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

type address struct {
	Street string
	Zip    int32
}

type user struct {
	ID       uuid.UUID `cql:"id,id"`
	Name     string
	Age      int
	Score    *float64
	Tags     map[string]struct{}
	Emails   []string
	Home     address
	Previous []address
	TTL      time.Duration
	Addr     net.IP
	Big      big.Int
	Version  int64 `cql:",version"`
}

type orderKey struct {
	Customer string `cql:"customer,partition"`
	OrderNo  int32  `cql:"order_no,clustering"`
}

type order struct {
	Key   orderKey `cql:",pk"`
	Total float64
}

type metric struct {
	Host string    `cql:"host,partition"`
	TS   time.Time `cql:"ts,clustering"`
	Val  float64
}

type color int

const (
	red color = iota + 1
	green
)

type label string

type paint struct {
	ID    string `cql:",id"`
	Color color  `cql:",type=text"`
}

func newConverter(t *testing.T, opts ...Option) *Converter {
	t.Helper()

	return NewConverter(mapping.NewContext(), opts...)
}

func columnMap(values []ColumnValue) map[string]any {
	out := make(map[string]any, len(values))
	for _, v := range values {
		out[v.Column.Canonical()] = v.Value
	}

	return out
}

func TestWriteEntity(t *testing.T) {
	c := newConverter(t)
	id := uuid.New()
	u := &user{
		ID:       id,
		Name:     "alice",
		Age:      30,
		Tags:     map[string]struct{}{"b": {}, "a": {}},
		Emails:   []string{"a@example.com"},
		Home:     address{Street: "Main", Zip: 12345},
		Previous: []address{{Street: "Old", Zip: 1}},
		TTL:      2 * time.Second,
		Addr:     net.ParseIP("10.0.0.1"),
		Big:      *big.NewInt(42),
	}

	values, err := c.Write(u)
	require.NoError(t, err)
	require.Len(t, values, 12)
	assert.Equal(t, "id", values[0].Column.Canonical())

	cols := columnMap(values)
	assert.Equal(t, [16]byte(id), cols["id"])
	assert.Equal(t, "alice", cols["name"])
	assert.Equal(t, int64(30), cols["age"])
	assert.Nil(t, cols["score"])
	assert.Equal(t, []any{"a", "b"}, cols["tags"])
	assert.Equal(t, []any{"a@example.com"}, cols["emails"])
	assert.Equal(t, map[string]any{"street": "Main", "zip": int32(12345)}, cols["home"])
	assert.Equal(t, []any{map[string]any{"street": "Old", "zip": int32(1)}}, cols["previous"])
	assert.Equal(t, int64(2*time.Second), cols["ttl"])
	assert.Equal(t, net.ParseIP("10.0.0.1"), cols["addr"])
	assert.Equal(t, 0, big.NewInt(42).Cmp(cols["big"].(*big.Int)))
	assert.Equal(t, int64(0), cols["version"])
	assert.True(t, values[3].IsNull())
}

func TestWriteCompositeKey(t *testing.T) {
	c := newConverter(t)

	values, err := c.Write(order{Key: orderKey{Customer: "c1", OrderNo: 7}, Total: 9.5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"customer": "c1", "order_no": int32(7), "total": 9.5}, columnMap(values))
}

func TestWriteRejectsInvalidEntities(t *testing.T) {
	c := newConverter(t)

	_, err := c.Write(nil)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	var u *user
	_, err = c.Write(u)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = c.Write(42)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestConvertToColumnType(t *testing.T) {
	c := newConverter(t)
	id := uuid.New()

	tests := []struct {
		name     string
		value    any
		dt       mapping.DataType
		expected any
	}{
		{name: "int narrows", value: 5, dt: mapping.Int, expected: int32(5)},
		{name: "tinyint", value: int64(-3), dt: mapping.TinyInt, expected: int8(-3)},
		{name: "bigint from uint", value: uint32(9), dt: mapping.BigInt, expected: int64(9)},
		{name: "double from int", value: 2, dt: mapping.Double, expected: float64(2)},
		{name: "float", value: 1.5, dt: mapping.Float, expected: float32(1.5)},
		{name: "uuid array", value: id, dt: mapping.UUID, expected: [16]byte(id)},
		{name: "uuid string", value: id.String(), dt: mapping.TimeUUID, expected: [16]byte(id)},
		{name: "uuid as text", value: id, dt: mapping.Text, expected: id.String()},
		{name: "named string", value: label("vip"), dt: mapping.Text, expected: "vip"},
		{name: "blob from string", value: "ab", dt: mapping.Blob, expected: []byte("ab")},
		{name: "inet from string", value: "127.0.0.1", dt: mapping.Inet, expected: net.ParseIP("127.0.0.1")},
		{name: "varint", value: 7, dt: mapping.VarInt, expected: big.NewInt(7)},
		{name: "list", value: []int{1, 2}, dt: mapping.ListOf(mapping.Int), expected: []any{int32(1), int32(2)}},
		{name: "frozen list", value: []int{1}, dt: mapping.Frozen(mapping.ListOf(mapping.Int)), expected: []any{int32(1)}},
		{name: "map", value: map[string]int{"a": 1}, dt: mapping.MapOf(mapping.Text, mapping.BigInt), expected: map[any]any{"a": int64(1)}},
		{name: "pointer", value: ptr(3), dt: mapping.Int, expected: int32(3)},
		{name: "untyped uuid", value: id, expected: [16]byte(id)},
		{name: "untyped named int", value: green, expected: int64(2)},
		{name: "untyped struct", value: address{Street: "x"}, expected: map[string]any{"street": "x", "zip": int32(0)}},
		{name: "nil", value: nil, dt: mapping.Int, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ConvertToColumnType(tt.value, tt.dt)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConvertToColumnTypeErrors(t *testing.T) {
	c := newConverter(t)

	tests := []struct {
		name  string
		value any
		dt    mapping.DataType
	}{
		{name: "tinyint overflow", value: 300, dt: mapping.TinyInt},
		{name: "int overflow", value: int64(1) << 40, dt: mapping.Int},
		{name: "text from int", value: 1, dt: mapping.Text},
		{name: "bad uuid", value: "nope", dt: mapping.UUID},
		{name: "bool from string", value: "true", dt: mapping.Boolean},
		{name: "map from slice", value: []int{1}, dt: mapping.MapOf(mapping.Int, mapping.Int)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ConvertToColumnType(tt.value, tt.dt)
			require.ErrorIs(t, err, types.ErrUnsupportedConversion)
		})
	}
}

func TestRead(t *testing.T) {
	c := newConverter(t)
	id := uuid.New()
	score := 4.5

	row := map[string]any{
		"id":       [16]byte(id),
		"name":     "bob",
		"age":      int64(41),
		"score":    score,
		"tags":     []string{"x", "y"},
		"emails":   []string(nil),
		"home":     map[string]any{"street": "Elm", "zip": 99},
		"previous": []map[string]any{{"street": "Oak", "zip": 1}},
		"ttl":      int64(time.Minute),
		"addr":     net.ParseIP("10.1.1.1"),
		"big":      big.NewInt(12),
		"version":  int64(3),
		"ignored":  "x",
	}

	var u user
	require.NoError(t, c.Read(row, &u))

	assert.Equal(t, id, u.ID)
	assert.Equal(t, "bob", u.Name)
	assert.Equal(t, 41, u.Age)
	require.NotNil(t, u.Score)
	assert.Equal(t, 4.5, *u.Score)
	assert.Equal(t, map[string]struct{}{"x": {}, "y": {}}, u.Tags)
	assert.Nil(t, u.Emails)
	assert.Equal(t, address{Street: "Elm", Zip: 99}, u.Home)
	assert.Equal(t, []address{{Street: "Oak", Zip: 1}}, u.Previous)
	assert.Equal(t, time.Minute, u.TTL)
	assert.Equal(t, net.ParseIP("10.1.1.1"), u.Addr)
	assert.Equal(t, int64(12), u.Big.Int64())
	assert.Equal(t, int64(3), u.Version)
}

func TestReadPartialRowKeepsFields(t *testing.T) {
	c := newConverter(t)
	u := user{Name: "keep", Age: 1}

	require.NoError(t, c.Read(map[string]any{"age": 2}, &u))
	assert.Equal(t, "keep", u.Name)
	assert.Equal(t, 2, u.Age)
}

func TestReadCompositeKey(t *testing.T) {
	c := newConverter(t)

	var o order
	require.NoError(t, c.Read(map[string]any{"customer": "c9", "order_no": 3, "total": 1.25}, &o))
	assert.Equal(t, order{Key: orderKey{Customer: "c9", OrderNo: 3}, Total: 1.25}, o)
}

func TestReadErrors(t *testing.T) {
	c := newConverter(t)

	var u user
	require.ErrorIs(t, c.Read(nil, u), types.ErrInvalidArgument)
	require.ErrorIs(t, c.Read(map[string]any{"age": "old"}, &u), types.ErrUnsupportedConversion)

	var o order
	err := c.Read(map[string]any{"order_no": int64(1) << 40}, &o)
	require.ErrorIs(t, err, types.ErrUnsupportedConversion)
	assert.Contains(t, err.Error(), "order_no")
}

func TestReadValue(t *testing.T) {
	c := newConverter(t)

	n, err := ReadValue[int64](c, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	s, err := ReadValue[string](c, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil.String(), s)

	p, err := ReadValue[*string](c, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCustomConversions(t *testing.T) {
	conversions := NewConversions()
	AddWriter(conversions, func(c color) (any, error) {
		switch c {
		case red:
			return "red", nil
		case green:
			return "green", nil
		}
		return nil, errors.New("unknown color")
	})
	AddReader(conversions, func(v any) (color, error) {
		switch v {
		case "red":
			return red, nil
		case "green":
			return green, nil
		}
		return 0, errors.New("unknown color")
	})
	c := newConverter(t, WithConversions(conversions))

	values, err := c.Write(paint{ID: "p1", Color: green})
	require.NoError(t, err)
	assert.Equal(t, "green", columnMap(values)["color"])

	var p paint
	require.NoError(t, c.Read(map[string]any{"id": "p2", "color": "red"}, &p))
	assert.Equal(t, paint{ID: "p2", Color: red}, p)

	_, err = c.Write(paint{ID: "p3", Color: 9})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Color"))
	assert.Same(t, conversions, c.Conversions())
}

func TestIDValues(t *testing.T) {
	c := newConverter(t)
	ctx := c.MappingContext()

	users, err := ctx.EntityFor(user{})
	require.NoError(t, err)
	id := uuid.New()

	values, err := c.IDValues(users, id)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, [16]byte(id), values[0].Value)

	values, err = c.IDValues(users, &user{ID: id})
	require.NoError(t, err)
	assert.Equal(t, [16]byte(id), values[0].Value)

	orders, err := ctx.EntityFor(order{})
	require.NoError(t, err)

	values, err = c.IDValues(orders, orderKey{Customer: "c", OrderNo: 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"customer": "c", "order_no": int32(2)}, columnMap(values))

	metrics, err := ctx.EntityFor(metric{})
	require.NoError(t, err)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	values, err = c.IDValues(metrics, map[string]any{"host": "h1", "TS": ts})
	require.NoError(t, err)
	assert.Equal(t, "host", values[0].Column.Canonical())
	assert.Equal(t, map[string]any{"host": "h1", "ts": ts}, columnMap(values))
}

func TestIDValuesErrors(t *testing.T) {
	c := newConverter(t)
	metrics, err := c.MappingContext().EntityFor(metric{})
	require.NoError(t, err)

	tests := []struct {
		name string
		id   any
	}{
		{name: "nil", id: nil},
		{name: "scalar for compound key", id: "h1"},
		{name: "missing column", id: map[string]any{"host": "h1"}},
		{name: "non key column", id: map[string]any{"host": "h1", "ts": time.Now(), "val": 1.0}},
		{name: "null key value", id: map[string]any{"host": nil, "ts": time.Now()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.IDValues(metrics, tt.id)
			require.ErrorIs(t, err, types.ErrInvalidArgument)
		})
	}
}

func TestConverterConcurrentUse(t *testing.T) {
	c := newConverter(t)
	done := make(chan error, 8)
	for i := range 8 {
		go func() {
			var u user
			done <- c.Read(map[string]any{"age": i}, &u)
		}()
	}
	for range 8 {
		require.NoError(t, <-done)
	}
	assert.True(t, c.MappingContext().Contains(reflect.TypeOf(user{})))
}

func ptr[T any](v T) *T { return &v }
