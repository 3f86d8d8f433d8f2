package statement

import (
	"fmt"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// column is a resolved column reference.
type column struct {
	cql      string
	property *mapping.PersistentProperty
}

func (c column) dataType() mapping.DataType {
	if c.property == nil {
		return nil
	}

	return c.property.DataType
}

// resolve maps a column name to the entity column. Identifiers are used
// verbatim; names are looked up as property name, property path or
// column name and fall back to the name itself.
func resolve(e *mapping.PersistentEntity, name query.ColumnName) column {
	if id, ok := name.Identifier(); ok {
		p, _ := e.Property(id.Canonical())
		if p != nil && !p.Column.Equal(id) {
			p = nil
		}
		return column{cql: id.CQL(), property: p}
	}
	if p, ok := e.Property(name.Name()); ok {
		if p.IsCompositePrimaryKey() {
			return column{cql: name.CQL()}
		}
		return column{cql: p.Column.CQL(), property: p}
	}

	return column{cql: types.ParseIdentifier(name.Name()).CQL()}
}

func resolver(e *mapping.PersistentEntity) query.ColumnResolver {
	return func(name query.ColumnName) string {
		return resolve(e, name).cql
	}
}

// where renders criteria joined with AND and binds their converted values.
func (f *Factory) where(b *builder, e *mapping.PersistentEntity, defs []query.CriteriaDefinition) error {
	for i, def := range defs {
		if i > 0 {
			b.write(" AND ")
		}

		col := resolve(e, def.ColumnName())
		pred := def.Predicate()
		b.write(pred.Render(col.cql))

		dt := predicateType(pred.Operator, col.dataType())
		for _, v := range pred.Values() {
			value, err := f.converter.ConvertToColumnType(v, dt)
			if err != nil {
				return invalidValue(col.cql, err)
			}
			b.bind(value)
		}
	}

	return nil
}

// predicateType returns the type a predicate value is compared as.
func predicateType(op query.Operator, dt mapping.DataType) mapping.DataType {
	if dt == nil {
		return nil
	}

	switch t := mapping.Unfrozen(dt).(type) {
	case mapping.ListType:
		if op == query.OpContains {
			return t.Elem()
		}
	case mapping.SetType:
		if op == query.OpContains {
			return t.Elem()
		}
	case mapping.MapType:
		switch op {
		case query.OpContains:
			return t.Value()
		case query.OpContainsKey:
			return t.Key()
		}
	}

	return dt
}

// orderBy renders ORDER BY for sort, nil when unsorted.
func orderBy(e *mapping.PersistentEntity, sort query.Sort) string {
	if !sort.IsSorted() {
		return ""
	}

	orders := sort.Orders()
	parts := make([]string, len(orders))
	for i, o := range orders {
		parts[i] = resolve(e, query.FromName(o.Property)).cql + " " + o.Direction.String()
	}

	return " ORDER BY " + strings.Join(parts, ", ")
}

// selectors renders the projection. An empty projection selects all
// columns; a projection of only exclusions selects the remaining mapped
// columns.
func selectors(e *mapping.PersistentEntity, columns query.Columns) string {
	if columns.IsEmpty() {
		return "*"
	}

	resolveName := resolver(e)
	if sel := columns.Selectors(); len(sel) > 0 {
		parts := make([]string, len(sel))
		for i, s := range sel {
			parts[i] = s.Render(resolveName)
		}
		return strings.Join(parts, ", ")
	}

	excluded := make(map[string]bool)
	for _, name := range columns.Excluded() {
		excluded[resolve(e, name).cql] = true
	}

	var parts []string
	for _, p := range e.Columns() {
		if !excluded[p.Column.CQL()] {
			parts = append(parts, p.Column.CQL())
		}
	}
	if len(parts) == 0 {
		return "*"
	}

	return strings.Join(parts, ", ")
}

// assignment renders one update assignment and binds its converted values.
func (f *Factory) assignment(b *builder, e *mapping.PersistentEntity, a query.Assignment) error {
	col := resolve(e, a.Column)
	text, args := a.Render(col.cql)
	b.write(text)

	for i, arg := range args {
		value, err := f.converter.ConvertToColumnType(arg, assignmentType(a, col.dataType(), i))
		if err != nil {
			return invalidValue(col.cql, err)
		}
		b.bind(value)
	}

	return nil
}

// assignmentType returns the column type of the i-th value bound by a.
func assignmentType(a query.Assignment, dt mapping.DataType, i int) mapping.DataType {
	if dt == nil {
		return nil
	}

	switch t := mapping.Unfrozen(dt).(type) {
	case mapping.ListType:
		if a.Op == query.AssignSetAtIndex {
			return t.Elem()
		}
	case mapping.MapType:
		switch a.Op {
		case query.AssignSetAtKey:
			if i == 0 {
				return t.Key()
			}
			return t.Value()
		case query.AssignRemove:
			return mapping.SetOf(t.Key())
		}
	}

	return dt
}

func invalidValue(column string, err error) error {
	return fmt.Errorf("value of %s: %w", column, err)
}
