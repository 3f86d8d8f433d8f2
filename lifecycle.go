package cassandra

import (
	"context"

	"github.com/spring-projects/spring-data-cassandra-sub011/event"
	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
)

// Entity callbacks run for every write and read while lifecycle events are
// enabled; a callback error aborts the operation. Published events are
// notifications: publish failures are logged and counted but never fail
// the operation.

func (t *CassandraTemplate) beforeConvert(ctx context.Context, e *mapping.PersistentEntity, entity any) error {
	if !t.config.EntityLifecycleEvents {
		return nil
	}

	table := e.TableName().Canonical()
	if cb, ok := entity.(event.BeforeConvertCallback); ok {
		if err := cb.BeforeConvert(ctx, table); err != nil {
			return err
		}
	}
	t.publish(ctx, event.New(event.BeforeConvert, table, entity))

	return nil
}

// beforeSave returns the converted columns of entity for the save events,
// or nil when nothing consumes them.
func (t *CassandraTemplate) beforeSave(ctx context.Context, e *mapping.PersistentEntity, entity any) (map[string]any, error) {
	if !t.config.EntityLifecycleEvents {
		return nil, nil
	}

	cb, hasCallback := entity.(event.BeforeSaveCallback)
	if !hasCallback && t.config.Publisher == nil {
		return nil, nil
	}

	columns, err := t.columnsOf(entity)
	if err != nil {
		return nil, err
	}

	table := e.TableName().Canonical()
	if hasCallback {
		if err := cb.BeforeSave(ctx, table, columns); err != nil {
			return nil, err
		}
	}
	t.publish(ctx, event.New(event.BeforeSave, table, entity).WithColumns(columns))

	return columns, nil
}

func (t *CassandraTemplate) afterSave(ctx context.Context, e *mapping.PersistentEntity, entity any, columns map[string]any) {
	if !t.config.EntityLifecycleEvents {
		return
	}

	t.publish(ctx, event.New(event.AfterSave, e.TableName().Canonical(), entity).WithColumns(columns))
}

func (t *CassandraTemplate) afterLoad(ctx context.Context, e *mapping.PersistentEntity, row map[string]any) {
	if !t.config.EntityLifecycleEvents {
		return
	}

	t.publish(ctx, event.New(event.AfterLoad, e.TableName().Canonical(), nil).WithColumns(row))
}

func (t *CassandraTemplate) afterConvert(ctx context.Context, e *mapping.PersistentEntity, entity any) error {
	if !t.config.EntityLifecycleEvents {
		return nil
	}

	table := e.TableName().Canonical()
	if cb, ok := entity.(event.AfterLoadCallback); ok {
		if err := cb.AfterLoad(ctx, table); err != nil {
			return err
		}
	}
	t.publish(ctx, event.New(event.AfterConvert, table, entity))

	return nil
}

// beforeDelete and afterDelete carry the entity, or the id for deletes by id.
func (t *CassandraTemplate) beforeDelete(ctx context.Context, e *mapping.PersistentEntity, source any) {
	if !t.config.EntityLifecycleEvents {
		return
	}

	t.publish(ctx, event.New(event.BeforeDelete, e.TableName().Canonical(), source))
}

func (t *CassandraTemplate) afterDelete(ctx context.Context, e *mapping.PersistentEntity, source any) {
	if !t.config.EntityLifecycleEvents {
		return
	}

	t.publish(ctx, event.New(event.AfterDelete, e.TableName().Canonical(), source))
}

func (t *CassandraTemplate) publish(ctx context.Context, ev event.Event) {
	if t.config.Publisher == nil {
		return
	}

	name := ev.Type.String()
	if err := t.config.Publisher.Publish(ctx, ev); err != nil {
		t.config.Metrics.IncEventPublishError(name)
		t.config.Logger.Warn("failed to publish mapping event",
			"type", name,
			"table", ev.Table,
			"error", err,
		)

		return
	}
	t.config.Metrics.IncEventPublished(name)
}

func (t *CassandraTemplate) columnsOf(entity any) (map[string]any, error) {
	values, err := t.converter.Write(entity)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]any, len(values))
	for _, v := range values {
		columns[v.Column.Canonical()] = v.Value
	}

	return columns, nil
}
