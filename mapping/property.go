package mapping

import (
	"reflect"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// PersistentProperty is the mapping metadata of one struct field.
//
// Properties are created by the Context and shared between goroutines; they
// must not be modified.
type PersistentProperty struct {
	// Name is the Go field name.
	Name string

	// Path is the dotted property path from the entity, e.g. "Key.ID" for
	// a field of a composite primary key.
	Path string

	// Index is the field index path for reflect.Value.FieldByIndex.
	Index []int

	// Type is the Go type of the field.
	Type reflect.Type

	// Column is the column (or UDT field) name.
	Column types.Identifier

	// DataType is the CQL type of the column.
	DataType DataType

	// ID marks a single-column primary key.
	ID bool

	// Partition marks a partition key column.
	Partition bool

	// Clustering marks a clustering column.
	Clustering bool

	// Ordinal orders key columns of the same kind, -1 when the declaration
	// order applies.
	Ordinal int

	// Ordering is the clustering order.
	Ordering Ordering

	// Static marks a static column.
	Static bool

	// Indexed marks a column with a secondary index.
	Indexed bool

	// IndexName is the explicit index name, empty for the default name.
	IndexName string

	// Version marks the optimistic locking version column.
	Version bool

	// CompositeKey is the entity of a composite primary key struct, nil for
	// regular properties.
	CompositeKey *PersistentEntity

	// UserType is the entity of a user-defined type referenced by the
	// property, possibly as a collection element, nil otherwise.
	UserType *PersistentEntity

	declared int
}

// IsPartitionKey reports whether the property is part of the partition key.
func (p *PersistentProperty) IsPartitionKey() bool {
	return p.Partition || p.ID
}

// IsPrimaryKeyColumn reports whether the property is a partition or
// clustering column.
func (p *PersistentProperty) IsPrimaryKeyColumn() bool {
	return p.Partition || p.Clustering || p.ID
}

// IsCompositePrimaryKey reports whether the property holds a composite
// primary key struct.
func (p *PersistentProperty) IsCompositePrimaryKey() bool {
	return p.CompositeKey != nil
}

// Value returns the field value of v, which must be a struct value of the
// owning entity type. Nil embedded pointers yield an invalid Value.
func (p *PersistentProperty) Value(v reflect.Value) reflect.Value {
	for i, idx := range p.Index {
		if i > 0 {
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}
				}
				v = v.Elem()
			}
		}
		v = v.Field(idx)
	}

	return v
}

// SettableValue returns the field of v for assignment, allocating nil
// embedded pointers on the way. v must be addressable.
func (p *PersistentProperty) SettableValue(v reflect.Value) reflect.Value {
	for i, idx := range p.Index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(idx)
	}

	return v
}

func (p *PersistentProperty) String() string {
	return p.Path + " (" + p.Column.CQL() + " " + p.DataType.String() + ")"
}
