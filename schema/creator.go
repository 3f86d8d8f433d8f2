package schema

import (
	"context"
	"fmt"

	"github.com/spring-projects/spring-data-cassandra-sub011/internal/logging"
	"github.com/spring-projects/spring-data-cassandra-sub011/internal/metrics"
	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Option configures a Creator or Dropper.
type Option func(*runner)

// WithLogger sets the logger for executed statements.
func WithLogger(logger types.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector types.MetricsCollector) Option {
	return func(r *runner) {
		r.metrics = collector
	}
}

type runner struct {
	exec    Executor
	logger  types.Logger
	metrics types.MetricsCollector
}

func newRunner(exec Executor, opts []Option) runner {
	r := runner{exec: exec}
	for _, opt := range opts {
		opt(&r)
	}
	r.logger = logging.OrNop(r.logger)
	r.metrics = metrics.OrNop(r.metrics)

	return r
}

func (r runner) run(ctx context.Context, action string, spec Spec) error {
	for _, stmt := range spec.Statements() {
		r.logger.Info("executing schema statement", "action", action, "cql", stmt)
		if err := r.exec.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", action, err)
		}
		r.metrics.IncSchemaStatement(action)
	}

	return nil
}

// Creator creates the user types, tables and indexes of mapped entities.
type Creator struct {
	runner
}

// NewCreator creates a Creator executing statements through exec.
func NewCreator(exec Executor, opts ...Option) *Creator {
	return &Creator{runner: newRunner(exec, opts)}
}

// CreateUserTypes creates the given user types and the user types they
// depend on, dependencies first.
func (c *Creator) CreateUserTypes(ctx context.Context, entities []*mapping.PersistentEntity, ifNotExists bool) error {
	for _, e := range userTypesInDependencyOrder(entities) {
		spec, err := CreateUserTypeSpecification(e, ifNotExists)
		if err != nil {
			return err
		}
		if err := c.run(ctx, "create_type", spec); err != nil {
			return err
		}
	}

	return nil
}

// CreateTables creates the tables of the given table entities.
func (c *Creator) CreateTables(ctx context.Context, entities []*mapping.PersistentEntity, ifNotExists bool) error {
	for _, e := range entities {
		spec, err := CreateTableSpecification(e, ifNotExists)
		if err != nil {
			return err
		}
		if err := c.run(ctx, "create_table", spec); err != nil {
			return err
		}
	}

	return nil
}

// CreateIndexes creates the secondary indexes of the given table entities.
func (c *Creator) CreateIndexes(ctx context.Context, entities []*mapping.PersistentEntity, ifNotExists bool) error {
	for _, e := range entities {
		for _, spec := range CreateIndexSpecifications(e, ifNotExists) {
			if err := c.run(ctx, "create_index", spec); err != nil {
				return err
			}
		}
	}

	return nil
}

// Create creates the schema of every entity in mc: user types, tables,
// then indexes.
func (c *Creator) Create(ctx context.Context, mc *mapping.Context, ifNotExists bool) error {
	tables := mc.TableEntities()
	if err := c.CreateUserTypes(ctx, userTypesOf(mc, tables), ifNotExists); err != nil {
		return err
	}
	if err := c.CreateTables(ctx, tables, ifNotExists); err != nil {
		return err
	}

	return c.CreateIndexes(ctx, tables, ifNotExists)
}

// userTypesOf returns the cached user types together with those
// referenced by tables.
func userTypesOf(mc *mapping.Context, tables []*mapping.PersistentEntity) []*mapping.PersistentEntity {
	udts := mc.UserTypeEntities()
	for _, t := range tables {
		udts = append(udts, t.UserTypeDependencies()...)
	}

	return udts
}

// userTypesInDependencyOrder returns the user types reachable from
// entities, each after the user types its fields reference.
func userTypesInDependencyOrder(entities []*mapping.PersistentEntity) []*mapping.PersistentEntity {
	var (
		out     []*mapping.PersistentEntity
		visited = make(map[*mapping.PersistentEntity]bool)
		visit   func(e *mapping.PersistentEntity)
	)
	visit = func(e *mapping.PersistentEntity) {
		if visited[e] {
			return
		}
		visited[e] = true
		for _, dep := range e.UserTypeDependencies() {
			visit(dep)
		}
		if e.IsUserDefinedType() {
			out = append(out, e)
		}
	}
	for _, e := range entities {
		visit(e)
	}

	return out
}

// Dropper drops tables and user types.
type Dropper struct {
	runner
}

// NewDropper creates a Dropper executing statements through exec.
func NewDropper(exec Executor, opts ...Option) *Dropper {
	return &Dropper{runner: newRunner(exec, opts)}
}

// DropTables drops the tables of keyspace that are mapped in mc, or every
// table when dropUnused is set.
func (d *Dropper) DropTables(ctx context.Context, mc *mapping.Context, keyspace string, dropUnused bool) error {
	live, err := LoadLiveSchema(ctx, d.exec, keyspace)
	if err != nil {
		return err
	}

	mapped := make(map[string]bool)
	for _, e := range mc.TableEntities() {
		mapped[e.TableName().Canonical()] = true
	}

	ks := types.CanonicalIdentifier(live.Keyspace)
	for _, name := range live.TableNames() {
		if !dropUnused && !mapped[name] {
			continue
		}
		spec := DropTableFor(types.CanonicalIdentifier(name)).IfExists()
		spec.keyspace = ks
		if err := d.run(ctx, "drop_table", spec); err != nil {
			return err
		}
	}

	return nil
}

// DropUserTypes drops the user types of keyspace that are mapped in mc, or
// every user type when dropUnused is set. Types are dropped before the
// types they reference.
func (d *Dropper) DropUserTypes(ctx context.Context, mc *mapping.Context, keyspace string, dropUnused bool) error {
	live, err := LoadLiveSchema(ctx, d.exec, keyspace)
	if err != nil {
		return err
	}

	mapped := make(map[string]bool)
	for _, e := range mc.UserTypeEntities() {
		mapped[e.TableName().Canonical()] = true
	}

	ordered := liveTypesInDependencyOrder(live)
	ks := types.CanonicalIdentifier(live.Keyspace)
	for i := len(ordered) - 1; i >= 0; i-- {
		name := ordered[i]
		if !dropUnused && !mapped[name] {
			continue
		}
		spec := DropUserTypeFor(types.CanonicalIdentifier(name)).IfExists()
		spec.keyspace = ks
		if err := d.run(ctx, "drop_type", spec); err != nil {
			return err
		}
	}

	return nil
}

func liveTypesInDependencyOrder(live *LiveSchema) []string {
	var (
		out     []string
		visited = make(map[string]bool)
		visit   func(name string)
	)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, dep := range live.UserTypeDependencies(name) {
			visit(dep)
		}
		out = append(out, name)
	}
	for _, name := range live.UserTypeNames() {
		visit(name)
	}

	return out
}

// Apply runs action for the entities of mc in keyspace.
func Apply(ctx context.Context, exec Executor, mc *mapping.Context, keyspace string, action Action, opts ...Option) error {
	creator := NewCreator(exec, opts...)
	dropper := NewDropper(exec, opts...)

	switch action {
	case ActionNone:
		return nil
	case ActionCreate:
		return creator.Create(ctx, mc, false)
	case ActionCreateIfNotExists:
		return creator.Create(ctx, mc, true)
	case ActionRecreate, ActionRecreateDropUnused:
		dropUnused := action == ActionRecreateDropUnused
		if err := dropper.DropTables(ctx, mc, keyspace, dropUnused); err != nil {
			return err
		}
		if err := dropper.DropUserTypes(ctx, mc, keyspace, dropUnused); err != nil {
			return err
		}
		return creator.Create(ctx, mc, false)
	}

	return types.InvalidArgumentf("unknown schema action %d", action)
}
