package statement

import (
	"reflect"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/convert"
	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Insert renders INSERT for an entity. Null properties are omitted unless
// InsertNulls is set. Versioned entities are inserted with IF NOT EXISTS
// and the next version.
func (f *Factory) Insert(entity any, opts query.InsertOptions) (Statement, error) {
	if err := opts.Validate(); err != nil {
		return Statement{}, err
	}

	e, values, err := f.entityValues(entity)
	if err != nil {
		return Statement{}, err
	}

	s := Statement{Kind: types.StatementInsert, Table: e.TableName(), Options: opts.QueryOptions}
	ifNotExists := opts.IfNotExists
	if v := e.VersionProperty(); v != nil {
		current, err := versionOf(entity, v)
		if err != nil {
			return Statement{}, err
		}
		s.Version, s.ExpectedVersion, s.NextVersion = v, current, current+1
		ifNotExists = true
		setValue(values, v, s.NextVersion)
	}

	var (
		b     builder
		names []string
		args  []any
	)
	for _, cv := range values {
		if cv.IsNull() {
			if cv.Property.IsPrimaryKeyColumn() {
				return Statement{}, types.InvalidArgumentf("primary key column %s must not be null", cv.Column.CQL())
			}
			if !opts.InsertNulls {
				continue
			}
		}
		names = append(names, cv.Column.CQL())
		args = append(args, cv.Value)
	}

	b.write("INSERT INTO ", tableName(e, opts.QueryOptions), " (", strings.Join(names, ", "), ") VALUES (",
		placeholders(len(names)), ")")
	b.bind(args...)
	if ifNotExists {
		b.write(" IF NOT EXISTS")
		s.Conditional = true
	}
	using(&b, opts.WriteOptions, true)

	s.CQL, s.Args = b.String(), b.args

	return s, nil
}

// UpdateEntity renders UPDATE writing every non-key column of an entity.
// Versioned entities are updated with IF version = current and the next
// version.
func (f *Factory) UpdateEntity(entity any, opts query.UpdateOptions) (Statement, error) {
	if err := opts.Validate(); err != nil {
		return Statement{}, err
	}

	e, values, err := f.entityValues(entity)
	if err != nil {
		return Statement{}, err
	}

	s := Statement{Kind: types.StatementUpdate, Table: e.TableName(), Options: opts.QueryOptions}
	var current int64
	if v := e.VersionProperty(); v != nil {
		if current, err = versionOf(entity, v); err != nil {
			return Statement{}, err
		}
		s.Version, s.ExpectedVersion, s.NextVersion = v, current, current+1
		setValue(values, v, s.NextVersion)
	}

	var b builder
	b.write("UPDATE ", tableName(e, opts.QueryOptions))
	using(&b, opts.WriteOptions, true)

	var (
		sets []string
		keys []convert.ColumnValue
	)
	for _, cv := range values {
		if cv.Property.IsPrimaryKeyColumn() {
			keys = append(keys, cv)
			continue
		}
		sets = append(sets, cv.Column.CQL()+" = ?")
		b.bind(cv.Value)
	}
	if len(sets) == 0 {
		return Statement{}, types.InvalidArgumentf("%s has no columns to update", e.Type())
	}
	b.write(" SET ", strings.Join(sets, ", "))

	if err := keyWhere(&b, e, keys); err != nil {
		return Statement{}, err
	}
	if err := f.condition(&b, e, &s, opts.IfExists, opts.IfCondition, current); err != nil {
		return Statement{}, err
	}

	s.CQL, s.Args = b.String(), b.args

	return s, nil
}

// Update renders UPDATE applying u to the rows matching q.
func (f *Factory) Update(q query.Query, u query.Update, e *mapping.PersistentEntity, opts query.UpdateOptions) (Statement, error) {
	if err := tableEntity(e); err != nil {
		return Statement{}, err
	}
	if err := firstErr(q.Err(), u.Err(), opts.Validate()); err != nil {
		return Statement{}, err
	}
	if u.IsEmpty() {
		return Statement{}, types.InvalidArgumentf("update of %s has no assignments", e.Type())
	}
	defs := q.CriteriaDefinitions()
	if len(defs) == 0 {
		return Statement{}, types.InvalidArgumentf("update of %s requires criteria", e.Type())
	}

	queryOpts := opts.QueryOptions
	if queryOpts.IsZero() {
		queryOpts = q.Options()
	}
	s := Statement{Kind: types.StatementUpdate, Table: e.TableName(), Options: queryOpts}

	var b builder
	b.write("UPDATE ", tableName(e, queryOpts))
	using(&b, opts.WriteOptions, true)
	b.write(" SET ")
	for i, a := range u.Assignments() {
		if i > 0 {
			b.write(", ")
		}
		if err := f.assignment(&b, e, a); err != nil {
			return Statement{}, err
		}
	}
	b.write(" WHERE ")
	if err := f.where(&b, e, defs); err != nil {
		return Statement{}, err
	}
	if err := f.condition(&b, e, &s, opts.IfExists, opts.IfCondition, 0); err != nil {
		return Statement{}, err
	}

	s.CQL, s.Args = b.String(), b.args

	return s, nil
}

// DeleteEntity renders DELETE of the row of an entity. Versioned entities
// are deleted with IF version = current.
func (f *Factory) DeleteEntity(entity any, opts query.DeleteOptions) (Statement, error) {
	if err := validateDelete(opts); err != nil {
		return Statement{}, err
	}

	e, values, err := f.entityValues(entity)
	if err != nil {
		return Statement{}, err
	}

	s := Statement{Kind: types.StatementDelete, Table: e.TableName(), Options: opts.QueryOptions}
	var current int64
	if v := e.VersionProperty(); v != nil {
		if current, err = versionOf(entity, v); err != nil {
			return Statement{}, err
		}
		s.Version, s.ExpectedVersion, s.NextVersion = v, current, current
	}

	var keys []convert.ColumnValue
	for _, cv := range values {
		if cv.Property.IsPrimaryKeyColumn() {
			keys = append(keys, cv)
		}
	}

	var b builder
	b.write("DELETE FROM ", tableName(e, opts.QueryOptions))
	using(&b, opts.WriteOptions, false)
	if err := keyWhere(&b, e, keys); err != nil {
		return Statement{}, err
	}
	if err := f.condition(&b, e, &s, opts.IfExists, opts.IfCondition, current); err != nil {
		return Statement{}, err
	}

	s.CQL, s.Args = b.String(), b.args

	return s, nil
}

// Delete renders DELETE of the rows matching q. A projection restricts the
// deletion to the selected columns.
func (f *Factory) Delete(q query.Query, e *mapping.PersistentEntity, opts query.DeleteOptions) (Statement, error) {
	if err := tableEntity(e); err != nil {
		return Statement{}, err
	}
	if err := firstErr(q.Err(), validateDelete(opts)); err != nil {
		return Statement{}, err
	}
	defs := q.CriteriaDefinitions()
	if len(defs) == 0 {
		return Statement{}, types.InvalidArgumentf("delete from %s requires criteria", e.Type())
	}

	queryOpts := opts.QueryOptions
	if queryOpts.IsZero() {
		queryOpts = q.Options()
	}
	s := Statement{Kind: types.StatementDelete, Table: e.TableName(), Options: queryOpts}

	var b builder
	b.write("DELETE ")
	if sel := q.Projection().Selectors(); len(sel) > 0 {
		resolveName := resolver(e)
		parts := make([]string, len(sel))
		for i, sl := range sel {
			parts[i] = sl.Render(resolveName)
		}
		b.write(strings.Join(parts, ", "), " ")
	}
	b.write("FROM ", tableName(e, queryOpts))
	using(&b, opts.WriteOptions, false)
	b.write(" WHERE ")
	if err := f.where(&b, e, defs); err != nil {
		return Statement{}, err
	}
	if err := f.condition(&b, e, &s, opts.IfExists, opts.IfCondition, 0); err != nil {
		return Statement{}, err
	}

	s.CQL, s.Args = b.String(), b.args

	return s, nil
}

// DeleteByID renders DELETE of the row with id. Statements without
// write options or conditions are cached.
func (f *Factory) DeleteByID(id any, e *mapping.PersistentEntity, opts query.DeleteOptions) (Statement, error) {
	if err := validateDelete(opts); err != nil {
		return Statement{}, err
	}

	s, err := f.byID("delete", id, e, opts.QueryOptions, types.StatementDelete, func() string {
		return "DELETE FROM " + tableName(e, opts.QueryOptions) + " WHERE " + keyRestriction(e)
	})
	if err != nil {
		return Statement{}, err
	}
	if opts.Timestamp == 0 && !opts.IfExists && opts.IfCondition.IsEmpty() {
		return s, nil
	}

	var b builder
	b.write("DELETE FROM ", tableName(e, opts.QueryOptions))
	using(&b, opts.WriteOptions, false)
	b.write(" WHERE ", keyRestriction(e))
	b.bind(s.Args...)
	if err := f.condition(&b, e, &s, opts.IfExists, opts.IfCondition, 0); err != nil {
		return Statement{}, err
	}
	s.CQL, s.Args = b.String(), b.args

	return s, nil
}

// Truncate renders TRUNCATE for the table of e.
func (f *Factory) Truncate(e *mapping.PersistentEntity, opts query.QueryOptions) (Statement, error) {
	if err := tableEntity(e); err != nil {
		return Statement{}, err
	}

	return Statement{
		CQL:     "TRUNCATE " + tableName(e, opts),
		Kind:    types.StatementTruncate,
		Table:   e.TableName(),
		Options: opts,
	}, nil
}

func (f *Factory) entityValues(entity any) (*mapping.PersistentEntity, []convert.ColumnValue, error) {
	if entity == nil {
		return nil, nil, types.InvalidArgumentf("entity must not be nil")
	}

	e, err := f.converter.MappingContext().EntityFor(entity)
	if err != nil {
		return nil, nil, err
	}
	if err := tableEntity(e); err != nil {
		return nil, nil, err
	}

	values, err := f.converter.Write(entity)
	if err != nil {
		return nil, nil, err
	}

	return e, values, nil
}

// keyWhere renders WHERE over the primary key values in key order.
func keyWhere(b *builder, e *mapping.PersistentEntity, values []convert.ColumnValue) error {
	byColumn := make(map[string]any, len(values))
	for _, cv := range values {
		byColumn[cv.Column.Canonical()] = cv.Value
	}

	b.write(" WHERE ")
	for i, p := range e.PrimaryKeyColumns() {
		value := byColumn[p.Column.Canonical()]
		if value == nil {
			return types.InvalidArgumentf("primary key column %s must not be null", p.Column.CQL())
		}
		if i > 0 {
			b.write(" AND ")
		}
		b.write(p.Column.CQL(), " = ?")
		b.bind(value)
	}

	return nil
}

// condition renders the IF clause. A version check takes the place of IF
// EXISTS and is combined with an explicit condition.
func (f *Factory) condition(b *builder, e *mapping.PersistentEntity, s *Statement, ifExists bool, cond query.Filter, current int64) error {
	switch {
	case s.Version != nil:
		b.write(" IF ", s.Version.Column.CQL(), " = ?")
		b.bind(current)
		if !cond.IsEmpty() {
			b.write(" AND ")
		}
	case ifExists:
		b.write(" IF EXISTS")
		s.Conditional = true
		return nil
	case !cond.IsEmpty():
		b.write(" IF ")
	default:
		return nil
	}

	if !cond.IsEmpty() {
		if err := f.where(b, e, cond.Definitions()); err != nil {
			return err
		}
	}
	s.Conditional = true

	return nil
}

// using renders USING TTL and TIMESTAMP. DELETE accepts only TIMESTAMP.
func using(b *builder, opts query.WriteOptions, ttl bool) {
	var parts []string
	if ttl && opts.TTL > 0 {
		parts = append(parts, "TTL ?")
		b.bind(int32(opts.TTL.Seconds()))
	}
	if opts.Timestamp != 0 {
		parts = append(parts, "TIMESTAMP ?")
		b.bind(opts.Timestamp)
	}
	if len(parts) > 0 {
		b.write(" USING ", strings.Join(parts, " AND "))
	}
}

func validateDelete(opts query.DeleteOptions) error {
	if opts.TTL != 0 {
		return types.InvalidArgumentf("delete does not accept a ttl")
	}

	return opts.Validate()
}

func versionOf(entity any, p *mapping.PersistentProperty) (int64, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	v := p.Value(rv)
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0, nil
		}
		v = v.Elem()
	}

	switch {
	case !v.IsValid():
		return 0, nil
	case v.CanInt():
		return v.Int(), nil
	case v.CanUint():
		return int64(v.Uint()), nil
	}

	return 0, types.MappingErrorf("version property %s must be an integer", p.Path)
}

func setValue(values []convert.ColumnValue, p *mapping.PersistentProperty, value int64) {
	for i := range values {
		if values[i].Column.Equal(p.Column) {
			values[i].Value = value
		}
	}
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}

	return strings.Repeat("?, ", n-1) + "?"
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
