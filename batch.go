package cassandra

import (
	"context"
	"errors"
	"sync"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/statement"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// BatchOperations collects entity writes executed as one CQL batch.
//
// A batch can be executed once. Errors raised while adding entities are
// reported by Execute.
//
//	res, err := template.Batch(cassandra.LoggedBatch).
//	    Insert(query.InsertOptions{}, &walter, &skyler).
//	    Delete(query.DeleteOptions{}, &jesse).
//	    WithTimestamp(ts).
//	    Execute(ctx)
type BatchOperations struct {
	template *CassandraTemplate
	kind     types.BatchType

	mu        sync.Mutex
	writes    []batchWrite
	options   query.QueryOptions
	timestamp int64
	executed  bool
	err       error
}

type batchWrite struct {
	entity    *mapping.PersistentEntity
	value     any
	statement statement.Statement
	delete    bool
}

func newBatchOperations(t *CassandraTemplate, kind types.BatchType) *BatchOperations {
	return &BatchOperations{template: t, kind: kind}
}

// Insert adds inserts of entities.
func (b *BatchOperations) Insert(opts query.InsertOptions, entities ...any) *BatchOperations {
	return b.add(entities, false, func(entity any) (statement.Statement, error) {
		return b.template.factory.Insert(entity, opts)
	})
}

// Update adds updates of entities.
func (b *BatchOperations) Update(opts query.UpdateOptions, entities ...any) *BatchOperations {
	return b.add(entities, false, func(entity any) (statement.Statement, error) {
		return b.template.factory.UpdateEntity(entity, opts)
	})
}

// Delete adds deletes of entities.
func (b *BatchOperations) Delete(opts query.DeleteOptions, entities ...any) *BatchOperations {
	return b.add(entities, true, func(entity any) (statement.Statement, error) {
		return b.template.factory.DeleteEntity(entity, opts)
	})
}

// WithTimestamp sets the write timestamp of the batch in microseconds.
func (b *BatchOperations) WithTimestamp(ts int64) *BatchOperations {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkNotExecuted(); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.timestamp = ts

	return b
}

// WithQueryOptions sets the consistency options of the batch.
func (b *BatchOperations) WithQueryOptions(opts query.QueryOptions) *BatchOperations {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkNotExecuted(); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	if err := opts.Validate(); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.options = opts

	return b
}

// Size returns the number of collected statements.
func (b *BatchOperations) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.writes)
}

// Execute runs the batch.
//
// Returns:
//   - WriteResult: Applied is false when a conditional batch was rejected
//   - error: ErrIllegalState when executed twice, ErrOptimisticLocking when
//     a versioned entity in the batch was stale
func (b *BatchOperations) Execute(ctx context.Context) (WriteResult, error) {
	b.mu.Lock()
	if err := b.checkNotExecuted(); err != nil {
		b.mu.Unlock()
		return WriteResult{}, err
	}
	b.executed = true
	writes, opts, ts, addErr := b.writes, b.options, b.timestamp, b.err
	b.mu.Unlock()

	if addErr != nil {
		return WriteResult{}, addErr
	}

	t := b.template
	batch := BatchStatement{Type: b.kind, Options: opts, Timestamp: ts}
	for _, w := range writes {
		batch.Statements = append(batch.Statements, w.statement)
	}

	for _, w := range writes {
		if w.delete {
			t.beforeDelete(ctx, w.entity, w.value)
		}
	}

	res, err := t.cql.ExecuteBatch(ctx, batch)
	if err != nil {
		return WriteResult{}, err
	}

	for _, w := range writes {
		if !w.statement.IsVersioned() {
			continue
		}
		if !res.Applied {
			return res, optimisticLockingError(w.entity, w.statement)
		}
		if !w.delete {
			setVersion(w.value, w.statement.Version, w.statement.NextVersion)
		}
	}

	for _, w := range writes {
		if w.delete {
			t.afterDelete(ctx, w.entity, w.value)
		} else {
			t.afterSave(ctx, w.entity, w.value, nil)
		}
	}

	return res, nil
}

func (b *BatchOperations) add(entities []any, isDelete bool, render func(any) (statement.Statement, error)) *BatchOperations {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkNotExecuted(); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	for _, entity := range entities {
		e, err := b.template.entityFor(entity)
		if err == nil {
			err = requireSettableVersion(e, entity)
		}
		if err != nil {
			b.err = errors.Join(b.err, err)
			continue
		}

		// Callbacks run without a request context while the batch is assembled.
		if !isDelete {
			if err := b.template.beforeConvert(context.Background(), e, entity); err != nil {
				b.err = errors.Join(b.err, err)
				continue
			}
		}

		s, err := render(entity)
		if err != nil {
			b.err = errors.Join(b.err, err)
			continue
		}
		b.writes = append(b.writes, batchWrite{entity: e, value: entity, statement: s, delete: isDelete})
	}

	return b
}

func (b *BatchOperations) checkNotExecuted() error {
	if b.executed {
		return types.IllegalStatef("batch has already been executed")
	}

	return nil
}
