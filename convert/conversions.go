package convert

import (
	"reflect"
	"sync"
)

// WriteFunc converts a Go value into a driver value.
type WriteFunc func(value any) (any, error)

// ReadFunc converts a driver value into a value of the registered Go type.
type ReadFunc func(value any) (any, error)

// Conversions holds custom conversions keyed by Go type. Custom
// conversions take precedence over the built-in rules.
type Conversions struct {
	mu      sync.RWMutex
	writers map[reflect.Type]WriteFunc
	readers map[reflect.Type]ReadFunc
}

// NewConversions creates an empty conversion registry.
func NewConversions() *Conversions {
	return &Conversions{
		writers: make(map[reflect.Type]WriteFunc),
		readers: make(map[reflect.Type]ReadFunc),
	}
}

// RegisterWriter registers fn for values of type t.
func (c *Conversions) RegisterWriter(t reflect.Type, fn WriteFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writers[t] = fn
}

// RegisterReader registers fn producing values of type t.
func (c *Conversions) RegisterReader(t reflect.Type, fn ReadFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.readers[t] = fn
}

func (c *Conversions) writer(t reflect.Type) (WriteFunc, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	fn, ok := c.writers[t]

	return fn, ok
}

func (c *Conversions) reader(t reflect.Type) (ReadFunc, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	fn, ok := c.readers[t]

	return fn, ok
}

// AddWriter registers a typed writer for T.
func AddWriter[T any](c *Conversions, fn func(T) (any, error)) {
	c.RegisterWriter(reflect.TypeFor[T](), func(value any) (any, error) {
		return fn(value.(T))
	})
}

// AddReader registers a typed reader producing T.
func AddReader[T any](c *Conversions, fn func(any) (T, error)) {
	c.RegisterReader(reflect.TypeFor[T](), func(value any) (any, error) {
		return fn(value)
	})
}
