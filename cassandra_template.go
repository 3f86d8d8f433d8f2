package cassandra

import (
	"context"
	"fmt"
	"iter"
	"reflect"

	"golang.org/x/sync/errgroup"

	"github.com/spring-projects/spring-data-cassandra-sub011/convert"
	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/statement"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// CassandraTemplate maps entities to and from tables.
//
// Entities are structs described by `cql` struct tags (see package
// mapping). Read methods take the target type from their destination:
// Select fills a pointer to a slice, SelectOne a pointer to a struct. Write
// methods accept an entity value or pointer; versioned entities must be
// passed by pointer so the new version can be stored.
//
// # Thread Safety
//
// CassandraTemplate is safe for concurrent use and is meant to be shared.
type CassandraTemplate struct {
	cql       *CqlTemplate
	config    *TemplateConfig
	mapping   *mapping.Context
	converter *convert.Converter
	factory   *statement.Factory
}

// NewCassandraTemplate creates a template over the sessions of factory.
//
// Parameters:
//   - sessions: Session factory
//   - opts: Optional configuration options
//
// Returns:
//   - *CassandraTemplate: A new template
//   - error: ErrNilSession if sessions is nil, or an invalid option error
func NewCassandraTemplate(sessions SessionFactory, opts ...Option) (*CassandraTemplate, error) {
	cqlTemplate, err := NewCqlTemplate(sessions, opts...)
	if err != nil {
		return nil, err
	}

	return NewCassandraTemplateFrom(cqlTemplate)
}

// NewCassandraTemplateFrom creates a template sharing the configuration
// of cqlTemplate.
func NewCassandraTemplateFrom(cqlTemplate *CqlTemplate) (*CassandraTemplate, error) {
	if cqlTemplate == nil {
		return nil, types.InvalidArgumentf("cql template must not be nil")
	}

	factory, err := statement.NewFactory(cqlTemplate.converter,
		statement.WithCacheSize(cqlTemplate.config.StatementCacheSize),
	)
	if err != nil {
		return nil, err
	}

	return &CassandraTemplate{
		cql:       cqlTemplate,
		config:    cqlTemplate.config,
		mapping:   cqlTemplate.config.MappingContext,
		converter: cqlTemplate.converter,
		factory:   factory,
	}, nil
}

// CqlOperations returns the underlying CQL template.
func (t *CassandraTemplate) CqlOperations() *CqlTemplate {
	return t.cql
}

// MappingContext returns the mapping context.
func (t *CassandraTemplate) MappingContext() *mapping.Context {
	return t.mapping
}

// Converter returns the entity converter.
func (t *CassandraTemplate) Converter() *convert.Converter {
	return t.converter
}

// StatementFactory returns the statement factory.
func (t *CassandraTemplate) StatementFactory() *statement.Factory {
	return t.factory
}

// ----------------------
// Reads
// ----------------------

// Select runs q and stores the mapped rows in dest, a pointer to a slice of
// structs or struct pointers.
func (t *CassandraTemplate) Select(ctx context.Context, q query.Query, dest any) error {
	slice, err := sliceTarget(dest)
	if err != nil {
		return err
	}

	elem := slice.Type().Elem()
	e, err := t.entity(elem)
	if err != nil {
		return err
	}
	s, err := t.factory.Select(q, e)
	if err != nil {
		return err
	}

	out := reflect.MakeSlice(slice.Type(), 0, 0)
	err = t.cql.QueryStatement(ctx, s, func(row map[string]any) error {
		v, err := t.readRow(ctx, e, row)
		if err != nil {
			return err
		}
		if elem.Kind() == reflect.Pointer {
			out = reflect.Append(out, v)
		} else {
			out = reflect.Append(out, v.Elem())
		}

		return nil
	})
	if err != nil {
		return err
	}
	slice.Set(out)

	return nil
}

// SelectOne runs q and stores the first row in dest, a pointer to a struct.
//
// Returns:
//   - error: ErrNotFound when q matches no row
func (t *CassandraTemplate) SelectOne(ctx context.Context, q query.Query, dest any) error {
	e, err := t.structTarget(dest)
	if err != nil {
		return err
	}
	s, err := t.factory.Select(q, e)
	if err != nil {
		return err
	}

	return t.selectFirst(ctx, e, s, dest)
}

// SelectOneByID loads the row with primary key id into dest, a pointer to a
// struct. id is the scalar key, a composite key struct, a query.MapID or an
// entity carrying the key.
//
// Returns:
//   - error: ErrNotFound when no row has the key
func (t *CassandraTemplate) SelectOneByID(ctx context.Context, id any, dest any) error {
	e, err := t.structTarget(dest)
	if err != nil {
		return err
	}
	s, err := t.factory.SelectOneByID(id, e, query.QueryOptions{})
	if err != nil {
		return err
	}

	return t.selectFirst(ctx, e, s, dest)
}

// Slice runs q for the page described by page and returns pointers to the
// mapped entities of entityType.
func (t *CassandraTemplate) Slice(ctx context.Context, q query.Query, page query.CassandraPageRequest, entityType any) (query.Slice[any], error) {
	e, err := t.entityFor(entityType)
	if err != nil {
		return query.Slice[any]{}, err
	}

	return selectSlice(ctx, t, e, q, page, func(v reflect.Value) any { return v.Interface() })
}

// Stream runs q and yields pointers to the mapped entities of entityType,
// fetching pages as the sequence is consumed.
func (t *CassandraTemplate) Stream(ctx context.Context, q query.Query, entityType any) iter.Seq2[any, error] {
	e, err := t.entityFor(entityType)

	return streamRows(ctx, t, e, err, q, func(v reflect.Value) any { return v.Interface() })
}

// Count returns the number of rows matching q.
func (t *CassandraTemplate) Count(ctx context.Context, q query.Query, entityType any) (int64, error) {
	e, err := t.entityFor(entityType)
	if err != nil {
		return 0, err
	}
	s, err := t.factory.Count(q, e)
	if err != nil {
		return 0, err
	}

	var count int64
	err = t.cql.QueryStatement(ctx, s, func(row map[string]any) error {
		for _, v := range row {
			n, err := convert.ReadValue[int64](t.converter, v)
			if err != nil {
				return err
			}
			count = n
		}

		return errStopIteration
	})

	return count, err
}

// Exists reports whether any row matches q.
func (t *CassandraTemplate) Exists(ctx context.Context, q query.Query, entityType any) (bool, error) {
	e, err := t.entityFor(entityType)
	if err != nil {
		return false, err
	}
	s, err := t.factory.Exists(q, e)
	if err != nil {
		return false, err
	}

	return t.anyRow(ctx, s)
}

// ExistsByID reports whether a row with primary key id exists.
func (t *CassandraTemplate) ExistsByID(ctx context.Context, id any, entityType any) (bool, error) {
	e, err := t.entityFor(entityType)
	if err != nil {
		return false, err
	}
	s, err := t.factory.ExistsByID(id, e, query.QueryOptions{})
	if err != nil {
		return false, err
	}

	return t.anyRow(ctx, s)
}

// ----------------------
// Writes
// ----------------------

// Insert writes entity.
//
// Versioned entities are inserted with IF NOT EXISTS; when the row already
// exists ErrOptimisticLocking is returned. Other conditional inserts report
// rejection through WriteResult.Applied.
func (t *CassandraTemplate) Insert(ctx context.Context, entity any, opts query.InsertOptions) (WriteResult, error) {
	return t.write(ctx, entity, func() (statement.Statement, error) {
		return t.factory.Insert(entity, opts)
	})
}

// Update writes the non-key columns of entity.
//
// Versioned entities are updated only when the stored version matches;
// otherwise ErrOptimisticLocking is returned.
func (t *CassandraTemplate) Update(ctx context.Context, entity any, opts query.UpdateOptions) (WriteResult, error) {
	return t.write(ctx, entity, func() (statement.Statement, error) {
		return t.factory.UpdateEntity(entity, opts)
	})
}

// Delete removes the row of entity.
func (t *CassandraTemplate) Delete(ctx context.Context, entity any, opts query.DeleteOptions) (WriteResult, error) {
	e, err := t.entityFor(entity)
	if err != nil {
		return WriteResult{}, err
	}
	if err := requireSettableVersion(e, entity); err != nil {
		return WriteResult{}, err
	}

	s, err := t.factory.DeleteEntity(entity, opts)
	if err != nil {
		return WriteResult{}, err
	}

	t.beforeDelete(ctx, e, entity)
	res, err := t.cql.ExecuteStatement(ctx, s)
	if err != nil {
		return WriteResult{}, err
	}
	if s.IsVersioned() && !res.Applied {
		return res, optimisticLockingError(e, s)
	}
	t.afterDelete(ctx, e, entity)

	return res, nil
}

// UpdateQuery applies u to the rows matching q.
func (t *CassandraTemplate) UpdateQuery(ctx context.Context, q query.Query, u query.Update, entityType any, opts query.UpdateOptions) (WriteResult, error) {
	e, err := t.entityFor(entityType)
	if err != nil {
		return WriteResult{}, err
	}
	s, err := t.factory.Update(q, u, e, opts)
	if err != nil {
		return WriteResult{}, err
	}

	return t.cql.ExecuteStatement(ctx, s)
}

// DeleteQuery removes the rows, or the selected columns, matching q.
func (t *CassandraTemplate) DeleteQuery(ctx context.Context, q query.Query, entityType any, opts query.DeleteOptions) (WriteResult, error) {
	e, err := t.entityFor(entityType)
	if err != nil {
		return WriteResult{}, err
	}
	s, err := t.factory.Delete(q, e, opts)
	if err != nil {
		return WriteResult{}, err
	}

	t.beforeDelete(ctx, e, q)
	res, err := t.cql.ExecuteStatement(ctx, s)
	if err != nil {
		return WriteResult{}, err
	}
	t.afterDelete(ctx, e, q)

	return res, nil
}

// DeleteByID removes the row with primary key id.
func (t *CassandraTemplate) DeleteByID(ctx context.Context, id any, entityType any) error {
	e, err := t.entityFor(entityType)
	if err != nil {
		return err
	}
	s, err := t.factory.DeleteByID(id, e, query.DeleteOptions{})
	if err != nil {
		return err
	}

	t.beforeDelete(ctx, e, id)
	if _, err := t.cql.ExecuteStatement(ctx, s); err != nil {
		return err
	}
	t.afterDelete(ctx, e, id)

	return nil
}

// Truncate removes all rows of the table of entityType.
func (t *CassandraTemplate) Truncate(ctx context.Context, entityType any) error {
	e, err := t.entityFor(entityType)
	if err != nil {
		return err
	}
	s, err := t.factory.Truncate(e, query.QueryOptions{})
	if err != nil {
		return err
	}

	_, err = t.cql.ExecuteStatement(ctx, s)

	return err
}

// InsertAll inserts the elements of entities, a slice, concurrently.
// Struct elements are passed by pointer so versions are stored back.
func (t *CassandraTemplate) InsertAll(ctx context.Context, entities any, opts query.InsertOptions) error {
	return t.forEach(ctx, entities, func(ctx context.Context, entity any) error {
		_, err := t.Insert(ctx, entity, opts)
		return err
	})
}

// DeleteAll deletes the elements of entities, a slice, concurrently.
func (t *CassandraTemplate) DeleteAll(ctx context.Context, entities any, opts query.DeleteOptions) error {
	return t.forEach(ctx, entities, func(ctx context.Context, entity any) error {
		_, err := t.Delete(ctx, entity, opts)
		return err
	})
}

// Batch starts a batch of entity writes.
func (t *CassandraTemplate) Batch(kind types.BatchType) *BatchOperations {
	return newBatchOperations(t, kind)
}

func (t *CassandraTemplate) write(ctx context.Context, entity any, render func() (statement.Statement, error)) (WriteResult, error) {
	e, err := t.entityFor(entity)
	if err != nil {
		return WriteResult{}, err
	}
	if err := requireSettableVersion(e, entity); err != nil {
		return WriteResult{}, err
	}

	if err := t.beforeConvert(ctx, e, entity); err != nil {
		return WriteResult{}, err
	}
	s, err := render()
	if err != nil {
		return WriteResult{}, err
	}
	columns, err := t.beforeSave(ctx, e, entity)
	if err != nil {
		return WriteResult{}, err
	}

	res, err := t.cql.ExecuteStatement(ctx, s)
	if err != nil {
		return WriteResult{}, err
	}
	if s.IsVersioned() {
		if !res.Applied {
			return res, optimisticLockingError(e, s)
		}
		setVersion(entity, s.Version, s.NextVersion)
	}
	t.afterSave(ctx, e, entity, columns)

	return res, nil
}

func (t *CassandraTemplate) forEach(ctx context.Context, entities any, fn func(context.Context, any) error) error {
	rv := reflect.ValueOf(entities)
	if rv.Kind() != reflect.Slice {
		return types.InvalidArgumentf("entities must be a slice, got %T", entities)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.config.WriteConcurrency)
	for i := range rv.Len() {
		item := rv.Index(i)
		entity := item.Interface()
		if item.Kind() == reflect.Struct {
			entity = item.Addr().Interface()
		}
		g.Go(func() error {
			return fn(gctx, entity)
		})
	}

	return g.Wait()
}

func (t *CassandraTemplate) selectFirst(ctx context.Context, e *mapping.PersistentEntity, s statement.Statement, dest any) error {
	found := false
	err := t.cql.QueryStatement(ctx, s, func(row map[string]any) error {
		found = true
		if err := t.readInto(ctx, e, row, dest); err != nil {
			return err
		}

		return errStopIteration
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no %s row for %s", types.ErrNotFound, e.TableName(), s.CQL)
	}

	return nil
}

func (t *CassandraTemplate) anyRow(ctx context.Context, s statement.Statement) (bool, error) {
	found := false
	err := t.cql.QueryStatement(ctx, s, func(map[string]any) error {
		found = true
		return errStopIteration
	})

	return found, err
}

// readRow maps row into a new entity and returns the pointer to it.
func (t *CassandraTemplate) readRow(ctx context.Context, e *mapping.PersistentEntity, row map[string]any) (reflect.Value, error) {
	v := reflect.New(e.Type())
	if err := t.readInto(ctx, e, row, v.Interface()); err != nil {
		return reflect.Value{}, err
	}

	return v, nil
}

func (t *CassandraTemplate) readInto(ctx context.Context, e *mapping.PersistentEntity, row map[string]any, dest any) error {
	t.afterLoad(ctx, e, row)
	if err := t.converter.Read(row, dest); err != nil {
		return err
	}

	return t.afterConvert(ctx, e, dest)
}

// entityFor resolves the entity of a value, pointer, slice or reflect.Type.
func (t *CassandraTemplate) entityFor(v any) (*mapping.PersistentEntity, error) {
	if v == nil {
		return nil, types.InvalidArgumentf("entity type must not be nil")
	}

	typ, ok := v.(reflect.Type)
	if !ok {
		typ = reflect.TypeOf(v)
	}

	return t.entity(typ)
}

func (t *CassandraTemplate) entity(typ reflect.Type) (*mapping.PersistentEntity, error) {
	known := t.mapping.Contains(typ)

	e, err := t.mapping.Entity(typ)
	if err != nil {
		return nil, err
	}
	if e.IsUserDefinedType() {
		return nil, types.InvalidArgumentf("%s is a user-defined type, not a table entity", e.Type())
	}
	if !known {
		t.config.Metrics.SetMappedEntities(len(t.mapping.Entities()))
	}

	return e, nil
}

func (t *CassandraTemplate) structTarget(dest any) (*mapping.PersistentEntity, error) {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, types.InvalidArgumentf("destination must be a non-nil pointer to a struct, got %T", dest)
	}

	return t.entity(rv.Type().Elem())
}

func sliceTarget(dest any) (reflect.Value, error) {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return reflect.Value{}, types.InvalidArgumentf("destination must be a non-nil pointer to a slice, got %T", dest)
	}

	return rv.Elem(), nil
}

func requireSettableVersion(e *mapping.PersistentEntity, entity any) error {
	if !e.HasVersion() {
		return nil
	}

	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return types.InvalidArgumentf("versioned entity %s must be passed by pointer", e.Type())
	}

	return nil
}

func setVersion(entity any, p *mapping.PersistentProperty, version int64) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	field := p.SettableValue(rv)
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		field = field.Elem()
	}

	switch {
	case field.CanInt():
		field.SetInt(version)
	case field.CanUint():
		field.SetUint(uint64(version))
	}
}

func optimisticLockingError(e *mapping.PersistentEntity, s statement.Statement) error {
	return fmt.Errorf("%w: %s of %s was not applied, version %d is stale",
		types.ErrOptimisticLocking, s.Kind, e.Type(), s.ExpectedVersion)
}

// ----------------------
// Generic helpers
// ----------------------

// SelectAs runs q and returns the mapped rows. T is a struct or a pointer
// to one.
//
// Example:
//
//	people, err := cassandra.SelectAs[Person](ctx, template,
//	    query.NewQuery(query.Where("lastName").Is("White")))
func SelectAs[T any](ctx context.Context, t *CassandraTemplate, q query.Query) ([]T, error) {
	var out []T
	if err := t.Select(ctx, q, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// SelectOneAs runs q and returns the first mapped row.
func SelectOneAs[T any](ctx context.Context, t *CassandraTemplate, q query.Query) (*T, error) {
	var out T
	if err := t.SelectOne(ctx, q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SliceAs runs q for the page described by page.
//
// Example:
//
//	first, _ := cassandra.SliceAs[Person](ctx, template, q, query.FirstPage(100))
//	if first.HasNext {
//	    next, _ := first.NextPageable()
//	    second, _ := cassandra.SliceAs[Person](ctx, template, q, next)
//	}
func SliceAs[T any](ctx context.Context, t *CassandraTemplate, q query.Query, page query.CassandraPageRequest) (query.Slice[T], error) {
	e, err := t.entity(reflect.TypeFor[T]())
	if err != nil {
		return query.Slice[T]{}, err
	}

	return selectSlice(ctx, t, e, q, page, valueAs[T])
}

// StreamAs runs q and yields the mapped rows, fetching pages as the
// sequence is consumed. Breaking out of the loop stops the query.
//
// Example:
//
//	for person, err := range cassandra.StreamAs[Person](ctx, template, q) {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
func StreamAs[T any](ctx context.Context, t *CassandraTemplate, q query.Query) iter.Seq2[T, error] {
	e, err := t.entity(reflect.TypeFor[T]())

	return streamRows(ctx, t, e, err, q, valueAs[T])
}

// valueAs converts a pointer to a new entity into T, which is either the
// entity struct or a pointer to it.
func valueAs[T any](v reflect.Value) T {
	if out, ok := v.Interface().(T); ok {
		return out
	}

	return v.Elem().Interface().(T)
}

func selectSlice[T any](ctx context.Context, t *CassandraTemplate, e *mapping.PersistentEntity, q query.Query,
	page query.CassandraPageRequest, as func(reflect.Value) T,
) (query.Slice[T], error) {
	s, err := t.factory.Select(q.PageRequest(page), e)
	if err != nil {
		return query.Slice[T]{}, err
	}

	p, err := t.cql.QueryPage(ctx, s)
	if err != nil {
		return query.Slice[T]{}, err
	}

	content := make([]T, 0, len(p.Rows))
	for _, row := range p.Rows {
		v, err := t.readRow(ctx, e, row)
		if err != nil {
			return query.Slice[T]{}, err
		}
		content = append(content, as(v))
	}

	return query.Slice[T]{
		Content:  content,
		Pageable: page.WithPagingState(p.PagingState),
		HasNext:  p.HasNext(),
	}, nil
}

func streamRows[T any](ctx context.Context, t *CassandraTemplate, e *mapping.PersistentEntity, resolveErr error,
	q query.Query, as func(reflect.Value) T,
) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if resolveErr != nil {
			yield(zero, resolveErr)
			return
		}

		s, err := t.factory.Select(q, e)
		if err != nil {
			yield(zero, err)
			return
		}

		stopped := false
		err = t.cql.QueryStatement(ctx, s, func(row map[string]any) error {
			v, err := t.readRow(ctx, e, row)
			if err != nil {
				return err
			}
			if !yield(as(v), nil) {
				stopped = true
				return errStopIteration
			}

			return nil
		})
		if err != nil && !stopped {
			yield(zero, err)
		}
	}
}
