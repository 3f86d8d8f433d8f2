package schema

import (
	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// CreateTableSpecification derives the CREATE TABLE specification of a
// table entity. Partition keys come first, then clustering columns, then
// the remaining columns in declaration order.
func CreateTableSpecification(e *mapping.PersistentEntity, ifNotExists bool) (*CreateTableSpec, error) {
	if e.IsUserDefinedType() || e.IsCompositePrimaryKey() {
		return nil, types.InvalidArgumentf("%s is not a table entity", e.Type())
	}

	spec := CreateTableFor(e.TableName())
	spec.keyspace = e.Keyspace()
	spec.ifNotExists = ifNotExists

	for _, p := range e.PartitionKeys() {
		spec.AddColumn(ColumnSpec{Name: p.Column, Type: p.DataType, Kind: PartitionKeyColumn})
	}
	for _, p := range e.ClusteringKeys() {
		spec.AddColumn(ColumnSpec{Name: p.Column, Type: p.DataType, Kind: ClusteringColumn, Ordering: p.Ordering})
	}
	for _, p := range e.Columns() {
		if p.IsPrimaryKeyColumn() {
			continue
		}
		kind := RegularColumn
		if p.Static {
			kind = StaticColumn
		}
		spec.AddColumn(ColumnSpec{Name: p.Column, Type: p.DataType, Kind: kind})
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return spec, nil
}

// CreateUserTypeSpecification derives the CREATE TYPE specification of a
// user type entity.
func CreateUserTypeSpecification(e *mapping.PersistentEntity, ifNotExists bool) (*CreateUserTypeSpec, error) {
	if !e.IsUserDefinedType() {
		return nil, types.InvalidArgumentf("%s is not a user type", e.Type())
	}

	spec := CreateUserTypeFor(e.TableName())
	spec.keyspace = e.Keyspace()
	spec.ifNotExists = ifNotExists
	for _, p := range e.Columns() {
		spec.fields = append(spec.fields, FieldSpec{Name: p.Column, Type: p.DataType})
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return spec, nil
}

// CreateIndexSpecifications derives the CREATE INDEX specifications of the indexed
// columns of a table entity. Unnamed indexes get Cassandra's default
// name, table_column_idx.
func CreateIndexSpecifications(e *mapping.PersistentEntity, ifNotExists bool) []*CreateIndexSpec {
	var specs []*CreateIndexSpec
	for _, p := range e.Columns() {
		if !p.Indexed {
			continue
		}

		spec := &CreateIndexSpec{keyspace: e.Keyspace(), table: e.TableName(), column: p.Column, ifNotExists: ifNotExists}
		if p.IndexName != "" {
			spec.name = types.ParseIdentifier(p.IndexName)
		} else {
			spec.name = DefaultIndexName(e.TableName(), p.Column)
		}
		if p.DataType.Kind() == mapping.KindFrozen && mapping.IsCollection(p.DataType) {
			spec.target = IndexFull
		}
		specs = append(specs, spec)
	}

	return specs
}

// DefaultIndexName returns the name Cassandra gives an unnamed index.
func DefaultIndexName(table, column types.Identifier) types.Identifier {
	return types.CanonicalIdentifier(table.Canonical() + "_" + column.Canonical() + "_idx")
}
