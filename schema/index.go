package schema

import (
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// IndexTarget selects what part of a collection column is indexed.
type IndexTarget int

const (
	// IndexColumn indexes a regular column or the values of a list or set.
	IndexColumn IndexTarget = iota
	IndexKeys
	IndexValues
	IndexEntries
	IndexFull
)

func (t IndexTarget) wrap(column string) string {
	switch t {
	case IndexKeys:
		return "KEYS(" + column + ")"
	case IndexValues:
		return "VALUES(" + column + ")"
	case IndexEntries:
		return "ENTRIES(" + column + ")"
	case IndexFull:
		return "FULL(" + column + ")"
	default:
		return column
	}
}

// CreateIndexSpec renders CREATE INDEX.
type CreateIndexSpec struct {
	keyspace    types.Identifier
	name        types.Identifier
	table       types.Identifier
	column      types.Identifier
	target      IndexTarget
	ifNotExists bool
	using       string
	options     map[string]any
}

// CreateIndex starts a CREATE INDEX. An empty name lets Cassandra choose
// the index name.
func CreateIndex(name, table, column string) *CreateIndexSpec {
	s := &CreateIndexSpec{
		table:  types.ParseIdentifier(table),
		column: types.ParseIdentifier(column),
	}
	if name != "" {
		s.name = types.ParseIdentifier(name)
	}

	return s
}

// InKeyspace qualifies the table with a keyspace.
func (s *CreateIndexSpec) InKeyspace(keyspace string) *CreateIndexSpec {
	s.keyspace = types.ParseIdentifier(keyspace)
	return s
}

// IfNotExists adds IF NOT EXISTS.
func (s *CreateIndexSpec) IfNotExists() *CreateIndexSpec {
	s.ifNotExists = true
	return s
}

// Target selects the collection part to index.
func (s *CreateIndexSpec) Target(target IndexTarget) *CreateIndexSpec {
	s.target = target
	return s
}

// Using makes the index a custom index implemented by class.
func (s *CreateIndexSpec) Using(class string) *CreateIndexSpec {
	s.using = class
	return s
}

// WithOption sets a custom index option.
func (s *CreateIndexSpec) WithOption(key string, value any) *CreateIndexSpec {
	if s.options == nil {
		s.options = map[string]any{}
	}
	s.options[key] = value
	return s
}

// Name returns the index name, zero when Cassandra chooses it.
func (s *CreateIndexSpec) Name() types.Identifier { return s.name }

// CQL renders the statement.
func (s *CreateIndexSpec) CQL() string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if s.using != "" {
		b.WriteString("CUSTOM ")
	}
	b.WriteString("INDEX ")
	b.WriteString(ifNotExists(s.ifNotExists))
	if !s.name.IsZero() {
		b.WriteString(s.name.CQL())
		b.WriteString(" ")
	}
	b.WriteString("ON ")
	b.WriteString(qualified(s.keyspace, s.table))
	b.WriteString(" (")
	b.WriteString(s.target.wrap(s.column.CQL()))
	b.WriteString(")")
	if s.using != "" {
		b.WriteString(" USING ")
		b.WriteString(quote(s.using))
		if len(s.options) > 0 {
			b.WriteString(" WITH OPTIONS = ")
			b.WriteString(mapLiteral(s.options))
		}
	}
	b.WriteString(";")

	return b.String()
}

// Statements implements Spec.
func (s *CreateIndexSpec) Statements() []string { return []string{s.CQL()} }

// DropIndexSpec renders DROP INDEX.
type DropIndexSpec struct {
	keyspace types.Identifier
	name     types.Identifier
	ifExists bool
}

// DropIndex starts a DROP INDEX.
func DropIndex(name string) *DropIndexSpec {
	return &DropIndexSpec{name: types.ParseIdentifier(name)}
}

// InKeyspace qualifies the index with a keyspace.
func (s *DropIndexSpec) InKeyspace(keyspace string) *DropIndexSpec {
	s.keyspace = types.ParseIdentifier(keyspace)
	return s
}

// IfExists adds IF EXISTS.
func (s *DropIndexSpec) IfExists() *DropIndexSpec {
	s.ifExists = true
	return s
}

// CQL renders the statement.
func (s *DropIndexSpec) CQL() string {
	return "DROP INDEX " + ifExists(s.ifExists) + qualified(s.keyspace, s.name) + ";"
}

// Statements implements Spec.
func (s *DropIndexSpec) Statements() []string { return []string{s.CQL()} }
