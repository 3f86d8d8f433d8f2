package schema

import (
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// ColumnKind is the role of a column in a table.
type ColumnKind int

const (
	RegularColumn ColumnKind = iota
	PartitionKeyColumn
	ClusteringColumn
	StaticColumn
)

func (k ColumnKind) String() string {
	switch k {
	case PartitionKeyColumn:
		return "partition_key"
	case ClusteringColumn:
		return "clustering"
	case StaticColumn:
		return "static"
	default:
		return "regular"
	}
}

// ColumnSpec is one column of a table specification.
type ColumnSpec struct {
	Name     types.Identifier
	Type     mapping.DataType
	Kind     ColumnKind
	Ordering mapping.Ordering
}

func (c ColumnSpec) String() string {
	s := c.Name.CQL() + " " + c.Type.String()
	if c.Kind == StaticColumn {
		s += " STATIC"
	}

	return s
}

// CreateTableSpec renders CREATE TABLE.
type CreateTableSpec struct {
	keyspace    types.Identifier
	name        types.Identifier
	ifNotExists bool
	columns     []ColumnSpec
	options     map[string]any
}

// CreateTable starts a CREATE TABLE.
func CreateTable(name string) *CreateTableSpec {
	return CreateTableFor(types.ParseIdentifier(name))
}

// CreateTableFor starts a CREATE TABLE for an identifier.
func CreateTableFor(name types.Identifier) *CreateTableSpec {
	return &CreateTableSpec{name: name, options: map[string]any{}}
}

// InKeyspace qualifies the table with a keyspace.
func (s *CreateTableSpec) InKeyspace(keyspace string) *CreateTableSpec {
	s.keyspace = types.ParseIdentifier(keyspace)
	return s
}

// IfNotExists adds IF NOT EXISTS.
func (s *CreateTableSpec) IfNotExists() *CreateTableSpec {
	s.ifNotExists = true
	return s
}

// PartitionKeyColumn adds a partition key column.
func (s *CreateTableSpec) PartitionKeyColumn(name string, dt mapping.DataType) *CreateTableSpec {
	return s.AddColumn(ColumnSpec{Name: types.ParseIdentifier(name), Type: dt, Kind: PartitionKeyColumn})
}

// ClusteredKeyColumn adds a clustering column.
func (s *CreateTableSpec) ClusteredKeyColumn(name string, dt mapping.DataType, ordering mapping.Ordering) *CreateTableSpec {
	return s.AddColumn(ColumnSpec{Name: types.ParseIdentifier(name), Type: dt, Kind: ClusteringColumn, Ordering: ordering})
}

// Column adds a regular column.
func (s *CreateTableSpec) Column(name string, dt mapping.DataType) *CreateTableSpec {
	return s.AddColumn(ColumnSpec{Name: types.ParseIdentifier(name), Type: dt})
}

// StaticColumn adds a static column.
func (s *CreateTableSpec) StaticColumn(name string, dt mapping.DataType) *CreateTableSpec {
	return s.AddColumn(ColumnSpec{Name: types.ParseIdentifier(name), Type: dt, Kind: StaticColumn})
}

// AddColumn adds a column.
func (s *CreateTableSpec) AddColumn(c ColumnSpec) *CreateTableSpec {
	s.columns = append(s.columns, c)
	return s
}

// With sets a table option.
func (s *CreateTableSpec) With(option string, value any) *CreateTableSpec {
	s.options[option] = value
	return s
}

// Name returns the table name.
func (s *CreateTableSpec) Name() types.Identifier { return s.name }

// Keyspace returns the keyspace, zero when unqualified.
func (s *CreateTableSpec) Keyspace() types.Identifier { return s.keyspace }

// Columns returns the columns in declaration order.
func (s *CreateTableSpec) Columns() []ColumnSpec {
	return append([]ColumnSpec(nil), s.columns...)
}

func (s *CreateTableSpec) columnsOf(kind ColumnKind) []ColumnSpec {
	var out []ColumnSpec
	for _, c := range s.columns {
		if c.Kind == kind {
			out = append(out, c)
		}
	}

	return out
}

// Validate checks that the table has a partition key and unique columns.
func (s *CreateTableSpec) Validate() error {
	if s.name.IsZero() {
		return types.InvalidArgumentf("table name must not be empty")
	}
	if len(s.columnsOf(PartitionKeyColumn)) == 0 {
		return types.InvalidArgumentf("table %s has no partition key column", s.name.CQL())
	}

	seen := make(map[string]bool, len(s.columns))
	for _, c := range s.columns {
		if seen[c.Name.Canonical()] {
			return types.InvalidArgumentf("table %s declares column %s twice", s.name.CQL(), c.Name.CQL())
		}
		seen[c.Name.Canonical()] = true
	}

	return nil
}

// CQL renders the statement.
func (s *CreateTableSpec) CQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(ifNotExists(s.ifNotExists))
	b.WriteString(qualified(s.keyspace, s.name))
	b.WriteString(" (")
	for _, c := range s.columns {
		b.WriteString(c.String())
		b.WriteString(", ")
	}

	partition := s.columnsOf(PartitionKeyColumn)
	clustering := s.columnsOf(ClusteringColumn)

	b.WriteString("PRIMARY KEY (")
	if len(partition) > 1 {
		b.WriteString("(")
		b.WriteString(joinNames(partition))
		b.WriteString(")")
	} else {
		b.WriteString(joinNames(partition))
	}
	if len(clustering) > 0 {
		b.WriteString(", ")
		b.WriteString(joinNames(clustering))
	}
	b.WriteString("))")

	var with []string
	if len(clustering) > 0 {
		order := make([]string, len(clustering))
		for i, c := range clustering {
			order[i] = c.Name.CQL() + " " + c.Ordering.String()
		}
		with = append(with, "CLUSTERING ORDER BY ("+strings.Join(order, ", ")+")")
	}
	if len(s.options) > 0 {
		with = append(with, options(s.options))
	}
	if len(with) > 0 {
		b.WriteString(" WITH ")
		b.WriteString(strings.Join(with, " AND "))
	}
	b.WriteString(";")

	return b.String()
}

// Statements implements Spec.
func (s *CreateTableSpec) Statements() []string { return []string{s.CQL()} }

func joinNames(columns []ColumnSpec) string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name.CQL()
	}

	return strings.Join(names, ", ")
}

// AlterTableSpec renders ALTER TABLE. Each kind of change becomes its own
// statement because CQL accepts one alteration per statement.
type AlterTableSpec struct {
	keyspace types.Identifier
	name     types.Identifier
	adds     []ColumnSpec
	drops    []types.Identifier
	alters   []ColumnSpec
	renames  [][2]types.Identifier
	options  map[string]any
}

// AlterTable starts an ALTER TABLE.
func AlterTable(name string) *AlterTableSpec {
	return AlterTableFor(types.ParseIdentifier(name))
}

// AlterTableFor starts an ALTER TABLE for an identifier.
func AlterTableFor(name types.Identifier) *AlterTableSpec {
	return &AlterTableSpec{name: name, options: map[string]any{}}
}

// InKeyspace qualifies the table with a keyspace.
func (s *AlterTableSpec) InKeyspace(keyspace string) *AlterTableSpec {
	s.keyspace = types.ParseIdentifier(keyspace)
	return s
}

func (s *AlterTableSpec) inKeyspace(keyspace types.Identifier) *AlterTableSpec {
	s.keyspace = keyspace
	return s
}

// Add adds a column.
func (s *AlterTableSpec) Add(name string, dt mapping.DataType) *AlterTableSpec {
	return s.AddColumn(ColumnSpec{Name: types.ParseIdentifier(name), Type: dt})
}

// AddColumn adds a column; static columns keep their STATIC marker.
func (s *AlterTableSpec) AddColumn(c ColumnSpec) *AlterTableSpec {
	s.adds = append(s.adds, c)
	return s
}

// Drop drops a column.
func (s *AlterTableSpec) Drop(name string) *AlterTableSpec {
	s.drops = append(s.drops, types.ParseIdentifier(name))
	return s
}

// Alter changes the type of a column.
func (s *AlterTableSpec) Alter(name string, dt mapping.DataType) *AlterTableSpec {
	s.alters = append(s.alters, ColumnSpec{Name: types.ParseIdentifier(name), Type: dt})
	return s
}

// Rename renames a primary key column.
func (s *AlterTableSpec) Rename(from, to string) *AlterTableSpec {
	s.renames = append(s.renames, [2]types.Identifier{types.ParseIdentifier(from), types.ParseIdentifier(to)})
	return s
}

// With sets a table option.
func (s *AlterTableSpec) With(option string, value any) *AlterTableSpec {
	s.options[option] = value
	return s
}

// Statements implements Spec.
func (s *AlterTableSpec) Statements() []string {
	prefix := "ALTER TABLE " + qualified(s.keyspace, s.name) + " "

	var out []string
	switch len(s.adds) {
	case 0:
	case 1:
		out = append(out, prefix+"ADD "+s.adds[0].String()+";")
	default:
		parts := make([]string, len(s.adds))
		for i, c := range s.adds {
			parts[i] = c.String()
		}
		out = append(out, prefix+"ADD ("+strings.Join(parts, ", ")+");")
	}
	switch len(s.drops) {
	case 0:
	case 1:
		out = append(out, prefix+"DROP "+s.drops[0].CQL()+";")
	default:
		names := make([]string, len(s.drops))
		for i, id := range s.drops {
			names[i] = id.CQL()
		}
		out = append(out, prefix+"DROP ("+strings.Join(names, ", ")+");")
	}
	for _, c := range s.alters {
		out = append(out, prefix+"ALTER "+c.Name.CQL()+" TYPE "+c.Type.String()+";")
	}
	if len(s.renames) > 0 {
		parts := make([]string, len(s.renames))
		for i, r := range s.renames {
			parts[i] = r[0].CQL() + " TO " + r[1].CQL()
		}
		out = append(out, prefix+"RENAME "+strings.Join(parts, " AND ")+";")
	}
	if len(s.options) > 0 {
		out = append(out, prefix+"WITH "+options(s.options)+";")
	}

	return out
}

// DropTableSpec renders DROP TABLE.
type DropTableSpec struct {
	keyspace types.Identifier
	name     types.Identifier
	ifExists bool
}

// DropTable starts a DROP TABLE.
func DropTable(name string) *DropTableSpec {
	return DropTableFor(types.ParseIdentifier(name))
}

// DropTableFor starts a DROP TABLE for an identifier.
func DropTableFor(name types.Identifier) *DropTableSpec {
	return &DropTableSpec{name: name}
}

// InKeyspace qualifies the table with a keyspace.
func (s *DropTableSpec) InKeyspace(keyspace string) *DropTableSpec {
	s.keyspace = types.ParseIdentifier(keyspace)
	return s
}

// IfExists adds IF EXISTS.
func (s *DropTableSpec) IfExists() *DropTableSpec {
	s.ifExists = true
	return s
}

// CQL renders the statement.
func (s *DropTableSpec) CQL() string {
	return "DROP TABLE " + ifExists(s.ifExists) + qualified(s.keyspace, s.name) + ";"
}

// Statements implements Spec.
func (s *DropTableSpec) Statements() []string { return []string{s.CQL()} }

// TruncateSpec renders TRUNCATE.
type TruncateSpec struct {
	keyspace types.Identifier
	name     types.Identifier
}

// Truncate starts a TRUNCATE.
func Truncate(name string) *TruncateSpec {
	return TruncateFor(types.ParseIdentifier(name))
}

// TruncateFor starts a TRUNCATE for an identifier.
func TruncateFor(name types.Identifier) *TruncateSpec {
	return &TruncateSpec{name: name}
}

// InKeyspace qualifies the table with a keyspace.
func (s *TruncateSpec) InKeyspace(keyspace string) *TruncateSpec {
	s.keyspace = types.ParseIdentifier(keyspace)
	return s
}

// CQL renders the statement.
func (s *TruncateSpec) CQL() string {
	return "TRUNCATE " + qualified(s.keyspace, s.name) + ";"
}

// Statements implements Spec.
func (s *TruncateSpec) Statements() []string { return []string{s.CQL()} }
