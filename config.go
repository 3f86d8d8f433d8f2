package cassandra

import (
	"time"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
	"github.com/spring-projects/spring-data-cassandra-sub011/convert"
	"github.com/spring-projects/spring-data-cassandra-sub011/event"
	"github.com/spring-projects/spring-data-cassandra-sub011/internal/logging"
	"github.com/spring-projects/spring-data-cassandra-sub011/internal/metrics"
	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/statement"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// DefaultWriteConcurrency bounds the concurrent writes of InsertAll and
// DeleteAll.
const DefaultWriteConcurrency = 8

// TimestampProvider generates client-side timestamps for write operations.
type TimestampProvider func() int64

// DefaultTimestampProvider returns the current time in microseconds.
func DefaultTimestampProvider() int64 {
	return time.Now().UnixMicro()
}

// TemplateConfig holds configuration for the templates.
type TemplateConfig struct {
	Logger                types.Logger
	Metrics               types.MetricsCollector
	Translator            ExceptionTranslator
	Classifiers           []cql.ErrorClassifier
	Publisher             event.Publisher
	EntityLifecycleEvents bool
	StatementCacheSize    int
	WriteConcurrency      int
	DefaultQueryOptions   query.QueryOptions
	TimestampProvider     TimestampProvider
	MappingContext        *mapping.Context
	Conversions           *convert.Conversions
}

// DefaultConfig returns a TemplateConfig with sensible defaults.
//
// Lifecycle events are enabled but nothing is published until a publisher
// is configured. Writes use server-side timestamps unless a
// TimestampProvider is set.
//
// Returns:
//   - *TemplateConfig: Configuration with default settings
func DefaultConfig() *TemplateConfig {
	return &TemplateConfig{
		Logger:                logging.NewNopLogger(),
		Metrics:               metrics.NewNopMetrics(),
		EntityLifecycleEvents: true,
		StatementCacheSize:    statement.DefaultCacheSize,
		WriteConcurrency:      DefaultWriteConcurrency,
	}
}

// Option configures a TemplateConfig.
type Option func(*TemplateConfig)

// WithLogger sets the structured logger.
//
// If not set, a no-op logger is used that discards all messages.
// The logger interface is compatible with zap.SugaredLogger; see
// contrib/logging/zaplog for a *zap.Logger adapter.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - Option: Configuration option
func WithLogger(logger types.Logger) Option {
	return func(c *TemplateConfig) {
		c.Logger = logger
	}
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics.
// Use contrib/metrics/vm.New() for VictoriaMetrics integration.
//
// Parameters:
//   - collector: The metrics collector implementation
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	template, _ := cassandra.NewCassandraTemplate(factory,
//	    cassandra.WithMetrics(collector),
//	)
func WithMetrics(collector types.MetricsCollector) Option {
	return func(c *TemplateConfig) {
		c.Metrics = collector
	}
}

// WithExceptionTranslator replaces the default exception translator.
// Classifiers registered with WithErrorClassifier are ignored when a
// translator is set.
func WithExceptionTranslator(translator ExceptionTranslator) Option {
	return func(c *TemplateConfig) {
		c.Translator = translator
	}
}

// WithErrorClassifier adds a driver error classifier to the default
// exception translator, e.g. v1.Classifier{}.
func WithErrorClassifier(classifier cql.ErrorClassifier) Option {
	return func(c *TemplateConfig) {
		c.Classifiers = append(c.Classifiers, classifier)
	}
}

// WithEventPublisher sets the publisher of mapping lifecycle events.
//
// Parameters:
//   - publisher: An event.Multicaster, event.NATSPublisher or event.Composite
//
// Returns:
//   - Option: Configuration option
func WithEventPublisher(publisher event.Publisher) Option {
	return func(c *TemplateConfig) {
		c.Publisher = publisher
	}
}

// WithEntityLifecycleEvents enables or disables lifecycle events and
// entity callbacks.
func WithEntityLifecycleEvents(enabled bool) Option {
	return func(c *TemplateConfig) {
		c.EntityLifecycleEvents = enabled
	}
}

// WithStatementCacheSize sets the size of the rendered statement cache.
// Zero disables caching.
func WithStatementCacheSize(size int) Option {
	return func(c *TemplateConfig) {
		c.StatementCacheSize = size
	}
}

// WithWriteConcurrency bounds the concurrent writes of bulk operations.
func WithWriteConcurrency(n int) Option {
	return func(c *TemplateConfig) {
		c.WriteConcurrency = n
	}
}

// WithDefaultQueryOptions sets options applied to statements that carry
// none of their own.
func WithDefaultQueryOptions(opts query.QueryOptions) Option {
	return func(c *TemplateConfig) {
		c.DefaultQueryOptions = opts
	}
}

// WithTimestampProvider sets the client-side timestamp generator for writes.
//
// Parameters:
//   - fn: Function that returns current timestamp in microseconds
//
// Returns:
//   - Option: Configuration option
func WithTimestampProvider(fn TimestampProvider) Option {
	return func(c *TemplateConfig) {
		c.TimestampProvider = fn
	}
}

// WithMappingContext shares a mapping context between templates.
func WithMappingContext(ctx *mapping.Context) Option {
	return func(c *TemplateConfig) {
		c.MappingContext = ctx
	}
}

// WithConversions registers custom value conversions.
func WithConversions(conversions *convert.Conversions) Option {
	return func(c *TemplateConfig) {
		c.Conversions = conversions
	}
}

func newConfig(opts []Option) (*TemplateConfig, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	// Ensure logger and metrics are never nil
	config.Logger = logging.OrNop(config.Logger)
	config.Metrics = metrics.OrNop(config.Metrics)

	if config.MappingContext == nil {
		config.MappingContext = mapping.NewContext()
	}
	if config.Translator == nil {
		config.Translator = NewExceptionTranslator(config.Classifiers...)
	}
	if config.StatementCacheSize < 0 {
		return nil, types.InvalidArgumentf("statement cache size must not be negative, got %d", config.StatementCacheSize)
	}
	if config.WriteConcurrency <= 0 {
		return nil, types.InvalidArgumentf("write concurrency must be positive, got %d", config.WriteConcurrency)
	}
	if err := config.DefaultQueryOptions.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
