package config

import (
	"context"
	"errors"

	cassandra "github.com/spring-projects/spring-data-cassandra-sub011"
	"github.com/spring-projects/spring-data-cassandra-sub011/internal/logging"
	"github.com/spring-projects/spring-data-cassandra-sub011/internal/metrics"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/schema"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Option configures an Initializer.
type Option func(*Initializer)

// WithLogger sets the logger of executed statements.
func WithLogger(logger types.Logger) Option {
	return func(i *Initializer) {
		i.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector types.MetricsCollector) Option {
	return func(i *Initializer) {
		i.metrics = collector
	}
}

// Initializer runs the startup and shutdown actions of Properties.
//
// Startup creates the configured keyspaces and runs the startup scripts.
// ApplySchema then runs the schema action for the mapped entities.
// Shutdown runs the shutdown scripts and drops the configured keyspaces.
type Initializer struct {
	props   *Properties
	logger  types.Logger
	metrics types.MetricsCollector
}

// NewInitializer creates an Initializer for props.
func NewInitializer(props *Properties, opts ...Option) (*Initializer, error) {
	if props == nil {
		return nil, types.InvalidArgumentf("properties must not be nil")
	}

	i := &Initializer{props: props}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.OrNop(i.logger)
	i.metrics = metrics.OrNop(i.metrics)

	return i, nil
}

// Startup creates keyspaces, then runs the startup scripts. exec should
// not be bound to a created keyspace.
func (i *Initializer) Startup(ctx context.Context, exec schema.Executor) error {
	m := i.manager(exec)

	specs := make([]*schema.CreateKeyspaceSpec, 0, len(i.props.Keyspaces.Create))
	for _, k := range i.props.Keyspaces.Create {
		specs = append(specs, k.Spec())
	}
	if err := m.Create(ctx, specs...); err != nil {
		return err
	}

	return m.RunScripts(ctx, "startup_script", i.props.StartupScripts...)
}

// ApplySchema runs the configured schema action through admin.
func (i *Initializer) ApplySchema(ctx context.Context, admin *cassandra.AdminTemplate) error {
	if admin == nil {
		return types.InvalidArgumentf("admin template must not be nil")
	}
	if i.props.SchemaAction == schema.ActionNone {
		return nil
	}

	return admin.ApplySchema(ctx, i.props.SchemaAction)
}

// Shutdown runs the shutdown scripts, then drops the configured keyspaces.
// Every step runs; the failures are joined.
func (i *Initializer) Shutdown(ctx context.Context, exec schema.Executor) error {
	m := i.manager(exec)

	return errors.Join(
		m.RunScripts(ctx, "shutdown_script", i.props.ShutdownScripts...),
		m.Drop(ctx, i.props.Keyspaces.Drop...),
	)
}

func (i *Initializer) manager(exec schema.Executor) *schema.KeyspaceManager {
	return schema.NewKeyspaceManager(exec, schema.WithLogger(i.logger), schema.WithMetrics(i.metrics))
}

// QueryOptions returns the statement defaults derived from the properties,
// for use with cassandra.WithDefaultQueryOptions.
func (p *Properties) QueryOptions() query.QueryOptions {
	var opts query.QueryOptions
	if c, err := types.ParseConsistency(p.Consistency); err == nil && p.Consistency != "" {
		opts.Consistency = c
	}
	if c, err := types.ParseConsistency(p.SerialConsistency); err == nil && c.IsSerial() {
		opts.SerialConsistency = c
	}
	opts.PageSize = p.PageSize

	return opts
}

// TemplateOptions returns the template options implied by the properties.
func (p *Properties) TemplateOptions() []cassandra.Option {
	return []cassandra.Option{cassandra.WithDefaultQueryOptions(p.QueryOptions())}
}
