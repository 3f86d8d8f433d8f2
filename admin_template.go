package cassandra

import (
	"context"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/schema"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// AdminTemplate extends CassandraTemplate with schema management for one
// keyspace.
type AdminTemplate struct {
	*CassandraTemplate
	keyspace string
}

// NewAdminTemplate creates an AdminTemplate managing keyspace. An empty
// keyspace refers to the session keyspace for DDL, but schema inspection
// requires a name.
func NewAdminTemplate(sessions SessionFactory, keyspace string, opts ...Option) (*AdminTemplate, error) {
	t, err := NewCassandraTemplate(sessions, opts...)
	if err != nil {
		return nil, err
	}

	return &AdminTemplate{CassandraTemplate: t, keyspace: keyspace}, nil
}

// Keyspace returns the managed keyspace.
func (a *AdminTemplate) Keyspace() string {
	return a.keyspace
}

// CreateTable creates the table of entityType together with the user types
// it references and its secondary indexes.
func (a *AdminTemplate) CreateTable(ctx context.Context, ifNotExists bool, entityType any) error {
	e, err := a.entityFor(entityType)
	if err != nil {
		return err
	}

	creator := a.creator()
	entities := []*mapping.PersistentEntity{e}
	if err := creator.CreateUserTypes(ctx, e.UserTypeDependencies(), ifNotExists); err != nil {
		return err
	}
	if err := creator.CreateTables(ctx, entities, ifNotExists); err != nil {
		return err
	}

	return creator.CreateIndexes(ctx, entities, ifNotExists)
}

// DropTable drops the table of entityType if it exists.
func (a *AdminTemplate) DropTable(ctx context.Context, entityType any) error {
	e, err := a.entityFor(entityType)
	if err != nil {
		return err
	}

	spec := schema.DropTableFor(e.TableName()).IfExists()
	if !e.Keyspace().IsZero() {
		spec.InKeyspace(e.Keyspace().CQL())
	}

	return a.executeSpec(ctx, "drop_table", spec)
}

// DropUserType drops the named user type if it exists.
func (a *AdminTemplate) DropUserType(ctx context.Context, name string) error {
	if name == "" {
		return types.InvalidArgumentf("user type name must not be empty")
	}

	return a.executeSpec(ctx, "drop_type", schema.DropUserType(name).IfExists())
}

// CreateSchema creates the user types, tables and indexes of every mapped
// entity.
func (a *AdminTemplate) CreateSchema(ctx context.Context, ifNotExists bool) error {
	return a.creator().Create(ctx, a.mapping, ifNotExists)
}

// DropSchema drops the mapped tables and user types of the keyspace, or all
// of them when dropUnused is set.
func (a *AdminTemplate) DropSchema(ctx context.Context, dropUnused bool) error {
	if err := a.requireKeyspace(); err != nil {
		return err
	}

	dropper := schema.NewDropper(a.cql, a.schemaOptions()...)
	if err := dropper.DropTables(ctx, a.mapping, a.keyspace, dropUnused); err != nil {
		return err
	}

	return dropper.DropUserTypes(ctx, a.mapping, a.keyspace, dropUnused)
}

// ApplySchema runs a startup schema action for the mapped entities.
func (a *AdminTemplate) ApplySchema(ctx context.Context, action schema.Action) error {
	if action == schema.ActionRecreate || action == schema.ActionRecreateDropUnused {
		if err := a.requireKeyspace(); err != nil {
			return err
		}
	}
	a.config.Logger.Info("applying schema action", "action", action.String(), "keyspace", a.keyspace)

	return schema.Apply(ctx, a.cql, a.mapping, a.keyspace, action, a.schemaOptions()...)
}

// ValidateSchema compares the mapped entities with the live keyspace.
// A nil error with a non-empty diff reports drift; use Diff.Err to turn
// drift into an error.
func (a *AdminTemplate) ValidateSchema(ctx context.Context) (*schema.Diff, error) {
	if err := a.requireKeyspace(); err != nil {
		return nil, err
	}

	return schema.Validate(ctx, a.cql, a.mapping, a.keyspace)
}

// KeyspaceMetadata reads the tables and user types of the keyspace.
func (a *AdminTemplate) KeyspaceMetadata(ctx context.Context) (*schema.LiveSchema, error) {
	if err := a.requireKeyspace(); err != nil {
		return nil, err
	}

	return schema.LoadLiveSchema(ctx, a.cql, a.keyspace)
}

func (a *AdminTemplate) creator() *schema.Creator {
	return schema.NewCreator(a.cql, a.schemaOptions()...)
}

func (a *AdminTemplate) schemaOptions() []schema.Option {
	return []schema.Option{
		schema.WithLogger(a.config.Logger),
		schema.WithMetrics(a.config.Metrics),
	}
}

func (a *AdminTemplate) executeSpec(ctx context.Context, action string, spec schema.Spec) error {
	for _, stmt := range spec.Statements() {
		a.config.Logger.Info("executing schema statement", "action", action, "cql", stmt)
		if err := a.cql.Execute(ctx, stmt); err != nil {
			return err
		}
		a.config.Metrics.IncSchemaStatement(action)
	}

	return nil
}

func (a *AdminTemplate) requireKeyspace() error {
	if a.keyspace == "" {
		return types.IllegalStatef("admin template has no keyspace")
	}

	return nil
}
