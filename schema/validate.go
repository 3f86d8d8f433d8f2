package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// ErrSchemaMismatch is returned by Diff.Err when the live schema does not
// match the mapping.
var ErrSchemaMismatch = errors.New("cassandra: schema does not match mapping")

// ColumnDiff is a column that differs from its mapping.
type ColumnDiff struct {
	Table    types.Identifier
	Column   types.Identifier
	Expected mapping.DataType
	Actual   string
	Static   bool
}

// Diff lists the differences between mapped entities and a live schema.
type Diff struct {
	Keyspace         types.Identifier
	MissingUserTypes []*CreateUserTypeSpec
	MissingFields    []ColumnDiff
	MissingTables    []*CreateTableSpec
	MissingColumns   []ColumnDiff
	TypeMismatches   []ColumnDiff
	KeyMismatches    []string
}

// IsEmpty reports whether the schema matches.
func (d *Diff) IsEmpty() bool {
	return len(d.MissingUserTypes) == 0 && len(d.MissingFields) == 0 &&
		len(d.MissingTables) == 0 && len(d.MissingColumns) == 0 &&
		len(d.TypeMismatches) == 0 && len(d.KeyMismatches) == 0
}

// Err returns an error wrapping ErrSchemaMismatch describing the
// differences, nil when the schema matches.
func (d *Diff) Err() error {
	if d.IsEmpty() {
		return nil
	}

	return fmt.Errorf("%w:\n%s", ErrSchemaMismatch, d.String())
}

// Repairable reports whether RepairStatements brings the schema in line.
// Type and primary key differences need manual migration.
func (d *Diff) Repairable() bool {
	return len(d.TypeMismatches) == 0 && len(d.KeyMismatches) == 0
}

// RepairStatements returns the DDL creating missing user types, fields,
// tables and columns.
func (d *Diff) RepairStatements() []string {
	var out []string
	for _, s := range d.MissingUserTypes {
		out = append(out, s.Statements()...)
	}
	for _, f := range d.MissingFields {
		out = append(out, AlterUserTypeFor(f.Table).inKeyspace(d.Keyspace).
			Add(f.Column.CQL(), f.Expected).Statements()...)
	}
	for _, s := range d.MissingTables {
		out = append(out, s.Statements()...)
	}

	adds := make(map[string]*AlterTableSpec)
	var order []string
	for _, c := range d.MissingColumns {
		key := c.Table.Canonical()
		spec, ok := adds[key]
		if !ok {
			spec = AlterTableFor(c.Table).inKeyspace(d.Keyspace)
			adds[key] = spec
			order = append(order, key)
		}
		kind := RegularColumn
		if c.Static {
			kind = StaticColumn
		}
		spec.AddColumn(ColumnSpec{Name: c.Column, Type: c.Expected, Kind: kind})
	}
	for _, key := range order {
		out = append(out, adds[key].Statements()...)
	}

	return out
}

func (d *Diff) String() string {
	var lines []string
	for _, s := range d.MissingUserTypes {
		lines = append(lines, "missing user type "+s.Name().CQL())
	}
	for _, f := range d.MissingFields {
		lines = append(lines, fmt.Sprintf("missing field %s.%s %s", f.Table.CQL(), f.Column.CQL(), f.Expected))
	}
	for _, s := range d.MissingTables {
		lines = append(lines, "missing table "+s.Name().CQL())
	}
	for _, c := range d.MissingColumns {
		lines = append(lines, fmt.Sprintf("missing column %s.%s %s", c.Table.CQL(), c.Column.CQL(), c.Expected))
	}
	for _, c := range d.TypeMismatches {
		lines = append(lines, fmt.Sprintf("column %s.%s is %s, mapped as %s", c.Table.CQL(), c.Column.CQL(), c.Actual, c.Expected))
	}
	lines = append(lines, d.KeyMismatches...)

	return strings.Join(lines, "\n")
}

// Validate compares the table entities of mc with the live schema of
// keyspace.
func Validate(ctx context.Context, exec Executor, mc *mapping.Context, keyspace string) (*Diff, error) {
	live, err := LoadLiveSchema(ctx, exec, keyspace)
	if err != nil {
		return nil, err
	}

	return live.Diff(mc.TableEntities())
}

// Diff compares table entities and the user types they reference with
// the live schema.
func (s *LiveSchema) Diff(entities []*mapping.PersistentEntity) (*Diff, error) {
	d := &Diff{Keyspace: types.CanonicalIdentifier(s.Keyspace)}

	for _, udt := range userTypesInDependencyOrder(entities) {
		if err := s.diffUserType(d, udt); err != nil {
			return nil, err
		}
	}

	for _, e := range entities {
		if e.IsUserDefinedType() {
			continue
		}
		if err := s.diffTable(d, e); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func (s *LiveSchema) diffUserType(d *Diff, e *mapping.PersistentEntity) error {
	live, ok := s.UserTypes[e.TableName().Canonical()]
	if !ok {
		spec, err := CreateUserTypeSpecification(e, false)
		if err != nil {
			return err
		}
		spec.keyspace = d.Keyspace
		d.MissingUserTypes = append(d.MissingUserTypes, spec)
		return nil
	}

	fields := make(map[string]string, len(live.FieldNames))
	for i, name := range live.FieldNames {
		if i < len(live.FieldTypes) {
			fields[name] = live.FieldTypes[i]
		}
	}

	for _, p := range e.Columns() {
		actual, ok := fields[p.Column.Canonical()]
		diff := ColumnDiff{Table: e.TableName(), Column: p.Column, Expected: p.DataType, Actual: actual}
		switch {
		case !ok:
			d.MissingFields = append(d.MissingFields, diff)
		case !sameLiveType(p.DataType, actual):
			d.TypeMismatches = append(d.TypeMismatches, diff)
		}
	}

	return nil
}

func (s *LiveSchema) diffTable(d *Diff, e *mapping.PersistentEntity) error {
	live, ok := s.Tables[e.TableName().Canonical()]
	if !ok {
		spec, err := CreateTableSpecification(e, false)
		if err != nil {
			return err
		}
		spec.keyspace = d.Keyspace
		d.MissingTables = append(d.MissingTables, spec)
		return nil
	}

	for _, p := range e.Columns() {
		col, ok := live.Columns[p.Column.Canonical()]
		diff := ColumnDiff{Table: e.TableName(), Column: p.Column, Expected: p.DataType, Actual: col.Type, Static: p.Static}
		switch {
		case !ok && p.IsPrimaryKeyColumn():
			d.KeyMismatches = append(d.KeyMismatches,
				fmt.Sprintf("table %s has no key column %s", e.TableName().CQL(), p.Column.CQL()))
		case !ok:
			d.MissingColumns = append(d.MissingColumns, diff)
		case !sameLiveType(p.DataType, col.Type):
			d.TypeMismatches = append(d.TypeMismatches, diff)
		}
	}

	if expected := canonicalNames(e.PartitionKeys()); !equalStrings(expected, live.PartitionKey) {
		d.KeyMismatches = append(d.KeyMismatches, fmt.Sprintf("table %s partition key is (%s), mapped as (%s)",
			e.TableName().CQL(), strings.Join(live.PartitionKey, ", "), strings.Join(expected, ", ")))
	}
	if expected := canonicalNames(e.ClusteringKeys()); !equalStrings(expected, live.Clustering) {
		d.KeyMismatches = append(d.KeyMismatches, fmt.Sprintf("table %s clustering columns are (%s), mapped as (%s)",
			e.TableName().CQL(), strings.Join(live.Clustering, ", "), strings.Join(expected, ", ")))
	}

	return nil
}

// sameLiveType compares a mapped type with a type string from
// system_schema.
func sameLiveType(expected mapping.DataType, actual string) bool {
	parsed, err := mapping.ParseDataType(actual)
	if err != nil {
		return false
	}

	return mapping.SameType(expected, parsed)
}

// referencesType reports whether the type string refers to the user type.
func referencesType(typeString, userType string) bool {
	dt, err := mapping.ParseDataType(typeString)
	if err != nil {
		return false
	}

	return containsUserType(dt, userType)
}

func containsUserType(dt mapping.DataType, name string) bool {
	switch t := dt.(type) {
	case mapping.UserType:
		return t.Name().Canonical() == name
	case mapping.FrozenType:
		return containsUserType(t.Inner(), name)
	case mapping.ListType:
		return containsUserType(t.Elem(), name)
	case mapping.SetType:
		return containsUserType(t.Elem(), name)
	case mapping.MapType:
		return containsUserType(t.Key(), name) || containsUserType(t.Value(), name)
	case mapping.TupleType:
		for _, e := range t.Elems() {
			if containsUserType(e, name) {
				return true
			}
		}
	}

	return false
}

func canonicalNames(props []*mapping.PersistentProperty) []string {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Column.Canonical()
	}

	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
