package query

import "github.com/spring-projects/spring-data-cassandra-sub011/types"

// ColumnName names a column either by property/column name or by CQL identifier.
//
// Names created with FromName are resolved through the mapped entity when a
// statement is built, so a Go field name and its column name are both
// accepted. Names created with FromIdentifier are used verbatim.
type ColumnName struct {
	name  string
	id    types.Identifier
	hasID bool
}

// FromName creates a column name from a property or column name.
func FromName(name string) ColumnName {
	return ColumnName{name: name}
}

// FromIdentifier creates a column name from a CQL identifier.
func FromIdentifier(id types.Identifier) ColumnName {
	return ColumnName{name: id.Name(), id: id, hasID: true}
}

// Name returns the property or column name.
func (c ColumnName) Name() string {
	return c.name
}

// Identifier returns the CQL identifier when the column was named by one.
func (c ColumnName) Identifier() (types.Identifier, bool) {
	return c.id, c.hasID
}

// IsZero reports whether the column name is empty.
func (c ColumnName) IsZero() bool {
	return c.name == ""
}

// CQL renders the column without entity resolution.
func (c ColumnName) CQL() string {
	if c.hasID {
		return c.id.CQL()
	}

	return types.NewIdentifier(c.name).CQL()
}

// String returns the CQL rendering.
func (c ColumnName) String() string {
	return c.CQL()
}

// Equal reports whether both names refer to the same column. Identifiers
// are compared by CQL semantics; plain names compare verbatim.
func (c ColumnName) Equal(other ColumnName) bool {
	if c.hasID && other.hasID {
		return c.id.Equal(other.id)
	}

	return c.name == other.name
}

// ColumnResolver renders a column name as CQL, typically by mapping a
// property name to its column through an entity.
type ColumnResolver func(ColumnName) string

// PlainResolver renders column names without entity mapping.
func PlainResolver(c ColumnName) string {
	return c.CQL()
}
