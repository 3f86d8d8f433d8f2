package statement

import (
	"strconv"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Select renders SELECT for q against the table of e.
func (f *Factory) Select(q query.Query, e *mapping.PersistentEntity) (Statement, error) {
	return f.selectStatement(q, e, selectors(e, q.Projection()), q.LimitValue(), true)
}

// Count renders SELECT COUNT(1) for q.
func (f *Factory) Count(q query.Query, e *mapping.PersistentEntity) (Statement, error) {
	s, err := f.selectStatement(q, e, "COUNT(1)", q.LimitValue(), false)
	s.Kind = types.StatementCount

	return s, err
}

// Exists renders a SELECT of the primary key columns limited to one row.
func (f *Factory) Exists(q query.Query, e *mapping.PersistentEntity) (Statement, error) {
	if err := tableEntity(e); err != nil {
		return Statement{}, err
	}

	return f.selectStatement(q, e, keyColumnList(e), 1, false)
}

func (f *Factory) selectStatement(q query.Query, e *mapping.PersistentEntity, projection string, limit int, sorted bool) (Statement, error) {
	if err := tableEntity(e); err != nil {
		return Statement{}, err
	}
	if err := q.Err(); err != nil {
		return Statement{}, err
	}

	opts := q.Options()
	var b builder
	b.write("SELECT ", projection, " FROM ", tableName(e, opts))

	if defs := q.CriteriaDefinitions(); len(defs) > 0 {
		b.write(" WHERE ")
		if err := f.where(&b, e, defs); err != nil {
			return Statement{}, err
		}
	}
	if sorted {
		b.write(orderBy(e, q.SortOrder()))
	}
	if limit > 0 {
		b.write(" LIMIT ", strconv.Itoa(limit))
	}
	if q.AllowFiltering() {
		b.write(" ALLOW FILTERING")
	}

	return Statement{
		CQL:         b.String(),
		Args:        b.args,
		Kind:        types.StatementSelect,
		Table:       e.TableName(),
		Options:     opts,
		PagingState: q.State(),
	}, nil
}

// SelectOneByID renders SELECT * restricted to the primary key of id.
func (f *Factory) SelectOneByID(id any, e *mapping.PersistentEntity, opts query.QueryOptions) (Statement, error) {
	return f.byID("select", id, e, opts, types.StatementSelect, func() string {
		return "SELECT * FROM " + tableName(e, opts) + " WHERE " + keyRestriction(e)
	})
}

// ExistsByID renders a SELECT of the primary key columns of id.
func (f *Factory) ExistsByID(id any, e *mapping.PersistentEntity, opts query.QueryOptions) (Statement, error) {
	return f.byID("exists", id, e, opts, types.StatementSelect, func() string {
		return "SELECT " + keyColumnList(e) + " FROM " + tableName(e, opts) + " WHERE " + keyRestriction(e) + " LIMIT 1"
	})
}

func (f *Factory) byID(kind string, id any, e *mapping.PersistentEntity, opts query.QueryOptions, sk types.StatementKind, render func() string) (Statement, error) {
	if err := tableEntity(e); err != nil {
		return Statement{}, err
	}
	if err := opts.Validate(); err != nil {
		return Statement{}, err
	}

	values, err := f.converter.IDValues(e, id)
	if err != nil {
		return Statement{}, err
	}

	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v.Value
	}

	return Statement{
		CQL:     f.cached(cacheKey(kind, e, opts), render),
		Args:    args,
		Kind:    sk,
		Table:   e.TableName(),
		Options: opts,
	}, nil
}

func keyColumnList(e *mapping.PersistentEntity) string {
	keys := e.PrimaryKeyColumns()
	names := make([]string, len(keys))
	for i, p := range keys {
		names[i] = p.Column.CQL()
	}

	return strings.Join(names, ", ")
}

// keyRestriction renders "k1 = ? AND k2 = ?" in primary key order.
func keyRestriction(e *mapping.PersistentEntity) string {
	keys := e.PrimaryKeyColumns()
	parts := make([]string, len(keys))
	for i, p := range keys {
		parts[i] = p.Column.CQL() + " = ?"
	}

	return strings.Join(parts, " AND ")
}
