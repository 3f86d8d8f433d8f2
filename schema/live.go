package schema

import (
	"context"
	"fmt"
	"sort"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Executor runs schema statements and metadata queries. CqlTemplate
// implements it.
type Executor interface {
	Execute(ctx context.Context, cql string, args ...any) error
	QueryForMaps(ctx context.Context, cql string, args ...any) ([]map[string]any, error)
}

// LiveSchema is the schema of one keyspace as stored in system_schema.
// Names are canonical.
type LiveSchema struct {
	Keyspace  string
	Tables    map[string]*TableMetadata
	UserTypes map[string]*UserTypeMetadata
}

// TableMetadata describes a live table.
type TableMetadata struct {
	Name         string
	Columns      map[string]ColumnMetadata
	PartitionKey []string
	Clustering   []string
	Indexes      map[string]string
}

// ColumnMetadata describes a live column.
type ColumnMetadata struct {
	Name            string
	Type            string
	Kind            string
	Position        int
	ClusteringOrder string
}

// UserTypeMetadata describes a live user type.
type UserTypeMetadata struct {
	Name       string
	FieldNames []string
	FieldTypes []string
}

const (
	selectTables  = "SELECT table_name FROM system_schema.tables WHERE keyspace_name = ?"
	selectColumns = "SELECT table_name, column_name, kind, position, type, clustering_order FROM system_schema.columns WHERE keyspace_name = ?"
	selectTypes   = "SELECT type_name, field_names, field_types FROM system_schema.types WHERE keyspace_name = ?"
	selectIndexes = "SELECT table_name, index_name, options FROM system_schema.indexes WHERE keyspace_name = ?"
)

// LoadLiveSchema reads the schema of keyspace.
func LoadLiveSchema(ctx context.Context, exec Executor, keyspace string) (*LiveSchema, error) {
	ks := types.ParseIdentifier(keyspace).Canonical()
	live := &LiveSchema{
		Keyspace:  ks,
		Tables:    make(map[string]*TableMetadata),
		UserTypes: make(map[string]*UserTypeMetadata),
	}

	rows, err := exec.QueryForMaps(ctx, selectTables, ks)
	if err != nil {
		return nil, fmt.Errorf("reading tables of %s: %w", ks, err)
	}
	for _, row := range rows {
		name := asString(row["table_name"])
		live.Tables[name] = &TableMetadata{
			Name:    name,
			Columns: make(map[string]ColumnMetadata),
			Indexes: make(map[string]string),
		}
	}

	rows, err = exec.QueryForMaps(ctx, selectColumns, ks)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", ks, err)
	}
	for _, row := range rows {
		table, ok := live.Tables[asString(row["table_name"])]
		if !ok {
			continue
		}
		col := ColumnMetadata{
			Name:            asString(row["column_name"]),
			Type:            asString(row["type"]),
			Kind:            asString(row["kind"]),
			Position:        asInt(row["position"]),
			ClusteringOrder: asString(row["clustering_order"]),
		}
		table.Columns[col.Name] = col
	}
	for _, table := range live.Tables {
		table.PartitionKey = keyColumns(table.Columns, "partition_key")
		table.Clustering = keyColumns(table.Columns, "clustering")
	}

	rows, err = exec.QueryForMaps(ctx, selectTypes, ks)
	if err != nil {
		return nil, fmt.Errorf("reading user types of %s: %w", ks, err)
	}
	for _, row := range rows {
		name := asString(row["type_name"])
		live.UserTypes[name] = &UserTypeMetadata{
			Name:       name,
			FieldNames: asStrings(row["field_names"]),
			FieldTypes: asStrings(row["field_types"]),
		}
	}

	rows, err = exec.QueryForMaps(ctx, selectIndexes, ks)
	if err != nil {
		return nil, fmt.Errorf("reading indexes of %s: %w", ks, err)
	}
	for _, row := range rows {
		table, ok := live.Tables[asString(row["table_name"])]
		if !ok {
			continue
		}
		target := ""
		if opts, ok := row["options"].(map[string]string); ok {
			target = opts["target"]
		}
		table.Indexes[asString(row["index_name"])] = target
	}

	return live, nil
}

// Table returns the table metadata by canonical name.
func (s *LiveSchema) Table(name string) (*TableMetadata, bool) {
	t, ok := s.Tables[name]
	return t, ok
}

// TableNames returns the table names in sorted order.
func (s *LiveSchema) TableNames() []string {
	return sortedKeys(s.Tables)
}

// UserTypeNames returns the user type names in sorted order.
func (s *LiveSchema) UserTypeNames() []string {
	return sortedKeys(s.UserTypes)
}

// UserTypeDependencies returns the user types referenced by the fields of
// the named type.
func (s *LiveSchema) UserTypeDependencies(name string) []string {
	udt, ok := s.UserTypes[name]
	if !ok {
		return nil
	}

	var deps []string
	for _, ft := range udt.FieldTypes {
		for other := range s.UserTypes {
			if other != name && referencesType(ft, other) {
				deps = append(deps, other)
			}
		}
	}
	sort.Strings(deps)

	return deps
}

func keyColumns(columns map[string]ColumnMetadata, kind string) []string {
	var keys []ColumnMetadata
	for _, c := range columns {
		if c.Kind == kind {
			keys = append(keys, c)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Position < keys[j].Position })

	names := make([]string, len(keys))
	for i, c := range keys {
		names[i] = c.Name
	}

	return names
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	default:
		return 0
	}
}

func asStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			out[i] = asString(e)
		}
		return out
	default:
		return nil
	}
}
