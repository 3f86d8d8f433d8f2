package repository

import (
	"context"
	"errors"
	"reflect"

	"golang.org/x/sync/errgroup"

	cassandra "github.com/spring-projects/spring-data-cassandra-sub011"
	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Repository is the CRUD contract over entities of type T with primary
// key type ID.
type Repository[T any, ID any] interface {
	Save(ctx context.Context, entity *T) (*T, error)
	SaveAll(ctx context.Context, entities []*T) ([]*T, error)
	Insert(ctx context.Context, entity *T) (*T, error)
	FindByID(ctx context.Context, id ID) (*T, error)
	ExistsByID(ctx context.Context, id ID) (bool, error)
	FindAll(ctx context.Context) ([]T, error)
	FindAllByID(ctx context.Context, ids []ID) ([]T, error)
	FindSlice(ctx context.Context, page query.CassandraPageRequest) (query.Slice[T], error)
	FindBy(ctx context.Context, q query.Query) ([]T, error)
	Count(ctx context.Context) (int64, error)
	DeleteByID(ctx context.Context, id ID) error
	Delete(ctx context.Context, entity *T) error
	DeleteAllByID(ctx context.Context, ids []ID) error
	DeleteAllOf(ctx context.Context, entities []*T) error
	DeleteAll(ctx context.Context) error
}

// SimpleRepository implements Repository on top of a CassandraTemplate.
//
// ID is the Go type of the primary key: the type of the id field, the
// composite key struct, or query.MapID.
type SimpleRepository[T any, ID any] struct {
	template *cassandra.CassandraTemplate
	entity   *mapping.PersistentEntity
}

var _ Repository[struct{}, string] = (*SimpleRepository[struct{}, string])(nil)

// New creates a repository for T.
//
// Returns:
//   - *SimpleRepository: The repository
//   - error: ErrInvalidArgument if template is nil or T is not a table entity
func New[T any, ID any](template *cassandra.CassandraTemplate) (*SimpleRepository[T, ID], error) {
	if template == nil {
		return nil, types.InvalidArgumentf("template must not be nil")
	}

	e, err := template.MappingContext().Entity(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	if e.IsUserDefinedType() {
		return nil, types.InvalidArgumentf("%s is a user-defined type, not a table entity", e.Type())
	}

	return &SimpleRepository[T, ID]{template: template, entity: e}, nil
}

// Entity returns the mapped entity of T.
func (r *SimpleRepository[T, ID]) Entity() *mapping.PersistentEntity {
	return r.entity
}

// Save writes entity. Versioned entities are inserted while their version
// is zero and updated with a version check afterwards; other entities are
// upserted.
func (r *SimpleRepository[T, ID]) Save(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, types.InvalidArgumentf("entity must not be nil")
	}

	if r.isNew(entity) {
		return r.Insert(ctx, entity)
	}
	if _, err := r.template.Update(ctx, entity, query.UpdateOptions{}); err != nil {
		return nil, err
	}

	return entity, nil
}

// SaveAll saves entities concurrently, bounded by the template write
// concurrency.
func (r *SimpleRepository[T, ID]) SaveAll(ctx context.Context, entities []*T) ([]*T, error) {
	err := r.forEach(ctx, len(entities), func(ctx context.Context, i int) error {
		_, err := r.Save(ctx, entities[i])
		return err
	})
	if err != nil {
		return nil, err
	}

	return entities, nil
}

// Insert inserts entity.
func (r *SimpleRepository[T, ID]) Insert(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, types.InvalidArgumentf("entity must not be nil")
	}
	if _, err := r.template.Insert(ctx, entity, query.InsertOptions{}); err != nil {
		return nil, err
	}

	return entity, nil
}

// FindByID loads the entity with primary key id.
//
// Returns:
//   - *T: The entity
//   - error: ErrNotFound when no row has the key
func (r *SimpleRepository[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	var out T
	if err := r.template.SelectOneByID(ctx, id, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ExistsByID reports whether a row with primary key id exists.
func (r *SimpleRepository[T, ID]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	return r.template.ExistsByID(ctx, id, r.entity.Type())
}

// FindAll loads every row of the table.
func (r *SimpleRepository[T, ID]) FindAll(ctx context.Context) ([]T, error) {
	return cassandra.SelectAs[T](ctx, r.template, query.EmptyQuery())
}

// FindAllByID loads the rows with the given keys. Single-column keys are
// read with one IN query; composite keys are read one by one and missing
// rows are skipped.
func (r *SimpleRepository[T, ID]) FindAllByID(ctx context.Context, ids []ID) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	if pk := r.singleKey(); pk != nil {
		values := make([]any, len(ids))
		for i, id := range ids {
			values[i] = id
		}

		return cassandra.SelectAs[T](ctx, r.template, query.NewQuery(query.Where(pk.Path).In(values...)))
	}

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		v, err := r.FindByID(ctx, id)
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}

	return out, nil
}

// FindSlice loads one page of the table.
func (r *SimpleRepository[T, ID]) FindSlice(ctx context.Context, page query.CassandraPageRequest) (query.Slice[T], error) {
	return cassandra.SliceAs[T](ctx, r.template, query.EmptyQuery(), page)
}

// FindBy loads the rows matching q.
func (r *SimpleRepository[T, ID]) FindBy(ctx context.Context, q query.Query) ([]T, error) {
	return cassandra.SelectAs[T](ctx, r.template, q)
}

// Count returns the number of rows in the table.
func (r *SimpleRepository[T, ID]) Count(ctx context.Context) (int64, error) {
	return r.template.Count(ctx, query.EmptyQuery(), r.entity.Type())
}

// DeleteByID removes the row with primary key id.
func (r *SimpleRepository[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	return r.template.DeleteByID(ctx, id, r.entity.Type())
}

// Delete removes the row of entity, checking its version when versioned.
func (r *SimpleRepository[T, ID]) Delete(ctx context.Context, entity *T) error {
	if entity == nil {
		return types.InvalidArgumentf("entity must not be nil")
	}
	_, err := r.template.Delete(ctx, entity, query.DeleteOptions{})

	return err
}

// DeleteAllByID removes the rows with the given keys.
func (r *SimpleRepository[T, ID]) DeleteAllByID(ctx context.Context, ids []ID) error {
	return r.forEach(ctx, len(ids), func(ctx context.Context, i int) error {
		return r.DeleteByID(ctx, ids[i])
	})
}

// DeleteAllOf removes the rows of entities.
func (r *SimpleRepository[T, ID]) DeleteAllOf(ctx context.Context, entities []*T) error {
	return r.forEach(ctx, len(entities), func(ctx context.Context, i int) error {
		return r.Delete(ctx, entities[i])
	})
}

// DeleteAll truncates the table.
func (r *SimpleRepository[T, ID]) DeleteAll(ctx context.Context) error {
	return r.template.Truncate(ctx, r.entity.Type())
}

func (r *SimpleRepository[T, ID]) isNew(entity *T) bool {
	v := r.entity.VersionProperty()
	if v == nil {
		return true
	}

	field := v.Value(reflect.ValueOf(entity).Elem())
	switch {
	case !field.IsValid():
		return true
	case field.Kind() == reflect.Pointer:
		return field.IsNil() || field.Elem().IsZero()
	default:
		return field.IsZero()
	}
}

// singleKey returns the primary key property when the key has one column.
func (r *SimpleRepository[T, ID]) singleKey() *mapping.PersistentProperty {
	keys := r.entity.PrimaryKeyColumns()
	if len(keys) != 1 {
		return nil
	}

	return keys[0]
}

func (r *SimpleRepository[T, ID]) forEach(ctx context.Context, n int, fn func(context.Context, int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.template.CqlOperations().Config().WriteConcurrency)
	for i := range n {
		g.Go(func() error {
			return fn(gctx, i)
		})
	}

	return g.Wait()
}
