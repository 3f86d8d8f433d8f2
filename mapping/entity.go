package mapping

import (
	"reflect"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// TableNamer lets an entity type choose its table name. A name wrapped in
// double quotes is used as a case-sensitive quoted identifier.
type TableNamer interface {
	TableName() string
}

// KeyspaceNamer lets an entity type choose a keyspace other than the
// session keyspace.
type KeyspaceNamer interface {
	KeyspaceName() string
}

// UserTypeNamer marks a struct type as a user-defined type and chooses its
// name.
type UserTypeNamer interface {
	UserTypeName() string
}

// PersistentEntity is the mapping metadata of a table entity, a composite
// primary key struct or a user-defined type.
//
// Entities are created by the Context and shared between goroutines; they
// must not be modified.
type PersistentEntity struct {
	typ          reflect.Type
	name         types.Identifier
	keyspace     types.Identifier
	kind         entityKind
	properties   []*PersistentProperty
	columns      []*PersistentProperty
	partition    []*PersistentProperty
	clustering   []*PersistentProperty
	byName       map[string]*PersistentProperty
	idProperty   *PersistentProperty
	version      *PersistentProperty
	userTypeDeps []*PersistentEntity
}

type entityKind int

const (
	tableEntity entityKind = iota
	userTypeEntity
	keyEntity
)

// Type returns the Go struct type.
func (e *PersistentEntity) Type() reflect.Type { return e.typ }

// TableName returns the table name. For user types it returns the type name.
func (e *PersistentEntity) TableName() types.Identifier { return e.name }

// Keyspace returns the keyspace chosen by KeyspaceNamer, zero if none.
func (e *PersistentEntity) Keyspace() types.Identifier { return e.keyspace }

// IsUserDefinedType reports whether the entity maps a user-defined type.
func (e *PersistentEntity) IsUserDefinedType() bool { return e.kind == userTypeEntity }

// IsCompositePrimaryKey reports whether the entity is a composite primary
// key struct.
func (e *PersistentEntity) IsCompositePrimaryKey() bool { return e.kind == keyEntity }

// Properties returns the top-level persistent properties in declaration
// order, including composite primary key properties.
func (e *PersistentEntity) Properties() []*PersistentProperty {
	return append([]*PersistentProperty(nil), e.properties...)
}

// Columns returns the column properties in declaration order with
// composite primary keys flattened into their columns.
func (e *PersistentEntity) Columns() []*PersistentProperty {
	return append([]*PersistentProperty(nil), e.columns...)
}

// PartitionKeys returns the partition key columns in ordinal order.
func (e *PersistentEntity) PartitionKeys() []*PersistentProperty {
	return append([]*PersistentProperty(nil), e.partition...)
}

// ClusteringKeys returns the clustering columns in ordinal order.
func (e *PersistentEntity) ClusteringKeys() []*PersistentProperty {
	return append([]*PersistentProperty(nil), e.clustering...)
}

// PrimaryKeyColumns returns the partition keys followed by the clustering
// columns.
func (e *PersistentEntity) PrimaryKeyColumns() []*PersistentProperty {
	keys := make([]*PersistentProperty, 0, len(e.partition)+len(e.clustering))
	keys = append(keys, e.partition...)

	return append(keys, e.clustering...)
}

// IDProperty returns the id or composite key property, nil for entities
// keyed by partition and clustering tags.
func (e *PersistentEntity) IDProperty() *PersistentProperty { return e.idProperty }

// VersionProperty returns the optimistic locking property, nil if none.
func (e *PersistentEntity) VersionProperty() *PersistentProperty { return e.version }

// HasVersion reports whether the entity is versioned.
func (e *PersistentEntity) HasVersion() bool { return e.version != nil }

// HasCompositePrimaryKey reports whether the id property is a composite key struct.
func (e *PersistentEntity) HasCompositePrimaryKey() bool {
	return e.idProperty != nil && e.idProperty.IsCompositePrimaryKey()
}

// UserTypeDependencies returns the user types referenced by the columns.
func (e *PersistentEntity) UserTypeDependencies() []*PersistentEntity {
	return append([]*PersistentEntity(nil), e.userTypeDeps...)
}

// Property finds a property by Go field name, property path or column name.
func (e *PersistentEntity) Property(name string) (*PersistentProperty, bool) {
	if p, ok := e.byName[name]; ok {
		return p, true
	}
	if p, ok := e.byName[strings.ToLower(name)]; ok && !p.Column.IsQuoted() {
		return p, true
	}

	return nil, false
}

// RequiredProperty is like Property but returns an error when not found.
func (e *PersistentEntity) RequiredProperty(name string) (*PersistentProperty, error) {
	if p, ok := e.Property(name); ok {
		return p, nil
	}

	return nil, types.MappingErrorf("no property %q on %s", name, e.typ)
}

// RequiredPropertyByPath resolves a dotted path such as "Key.ID".
func (e *PersistentEntity) RequiredPropertyByPath(path string) (*PersistentProperty, error) {
	return e.RequiredProperty(path)
}

func (e *PersistentEntity) String() string {
	return e.typ.String() + " -> " + e.name.CQL()
}

func (e *PersistentEntity) index() {
	e.byName = make(map[string]*PersistentProperty, len(e.columns)*3)
	add := func(key string, p *PersistentProperty) {
		if _, exists := e.byName[key]; !exists {
			e.byName[key] = p
		}
	}

	for _, p := range e.properties {
		add(p.Name, p)
	}
	for _, p := range e.columns {
		add(p.Path, p)
		add(p.Name, p)
		add(p.Column.Canonical(), p)
	}
}
