package vm

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "cassandra"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector will register metrics with this set instead of
// creating a new one. The caller is responsible for exposing this set
// (e.g., via metrics.WritePrometheus or a custom handler).
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

// statementKinds are the kinds whose metrics are created up front.
var statementKinds = []types.StatementKind{
	types.StatementSelect,
	types.StatementInsert,
	types.StatementUpdate,
	types.StatementDelete,
	types.StatementCount,
	types.StatementBatch,
	types.StatementTruncate,
	types.StatementSchema,
	types.StatementOther,
}

var errorKindLabels = map[types.ErrorKind]string{
	types.KindUncategorized:        "uncategorized",
	types.KindConnectionFailure:    "connection_failure",
	types.KindAuthentication:       "authentication",
	types.KindAuthorization:        "authorization",
	types.KindQuerySyntax:          "query_syntax",
	types.KindInvalidQuery:         "invalid_query",
	types.KindInvalidConfiguration: "invalid_configuration",
	types.KindSchemaElementExists:  "schema_element_exists",
	types.KindReadTimeout:          "read_timeout",
	types.KindWriteTimeout:         "write_timeout",
	types.KindReadFailure:          "read_failure",
	types.KindWriteFailure:         "write_failure",
	types.KindUnavailable:          "unavailable",
	types.KindOverloaded:           "overloaded",
	types.KindTruncate:             "truncate",
	types.KindTypeMismatch:         "type_mismatch",
	types.KindFunctionFailure:      "function_failure",
	types.KindQueryCancelled:       "query_cancelled",
	types.KindProtocol:             "protocol",
	types.KindUnprepared:           "unprepared",
	types.KindBootstrapping:        "bootstrapping",
}

// ErrorKindLabel returns the value of the error label for kind.
func ErrorKindLabel(kind types.ErrorKind) string {
	if label, ok := errorKindLabels[kind]; ok {
		return label
	}

	return "uncategorized"
}

type statementMetrics struct {
	total      *metrics.Counter
	duration   *metrics.Histogram
	rowsRead   *metrics.Counter
	notApplied *metrics.Counter
}

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// Statement metrics are pre-created for every statement kind at
// initialization time. Error, event and schema counters are label
// combinations created on first use. Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string

	statements     map[types.StatementKind]*statementMetrics
	mappedEntities atomic.Int64
}

var _ types.MetricsCollector = (*Collector)(nil)

// New creates a new VictoriaMetrics-based metrics collector.
//
// The collector creates its own metrics.Set and registers it globally
// unless WithMetricsSet is given.
//
// Parameters:
//   - opts: Configuration options (e.g., WithPrefix)
//
// Returns:
//   - *Collector: A new metrics collector ready for use
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	template, _ := cassandra.NewCassandraTemplate(factory,
//	    cassandra.WithMetrics(collector),
//	)
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix:     "cassandra",
		statements: make(map[types.StatementKind]*statementMetrics, len(statementKinds)),
	}

	for _, opt := range opts {
		opt(c)
	}

	// If no set is provided, create a new one and register it globally.
	// If a set is provided, we assume the caller manages it.
	if c.set == nil {
		c.set = metrics.NewSet()
		metrics.RegisterSet(c.set)
	}

	c.initMetrics()

	return c
}

func (c *Collector) initMetrics() {
	p := c.prefix
	for _, kind := range statementKinds {
		c.statements[kind] = &statementMetrics{
			total:      c.set.NewCounter(fmt.Sprintf(`%s_statements_total{kind=%q}`, p, kind)),
			duration:   c.set.NewHistogram(fmt.Sprintf(`%s_statement_duration_seconds{kind=%q}`, p, kind)),
			rowsRead:   c.set.NewCounter(fmt.Sprintf(`%s_rows_read_total{kind=%q}`, p, kind)),
			notApplied: c.set.NewCounter(fmt.Sprintf(`%s_write_not_applied_total{kind=%q}`, p, kind)),
		}
	}

	c.set.NewGauge(fmt.Sprintf(`%s_mapped_entities`, p), func() float64 {
		return float64(c.mappedEntities.Load())
	})
}

// Set returns the metrics set holding the collector metrics.
func (c *Collector) Set() *metrics.Set {
	return c.set
}

// Handler returns an HTTP handler that exposes metrics in Prometheus format.
//
// Example:
//
//	http.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// WritePrometheus writes all metrics in Prometheus format to the given writer.
//
// Parameters:
//   - w: The writer to write metrics to
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

func (c *Collector) statement(kind types.StatementKind) *statementMetrics {
	if m, ok := c.statements[kind]; ok {
		return m
	}

	return c.statements[types.StatementOther]
}

// ----------------------
// Statements
// ----------------------

// IncStatementTotal increments the executed statement counter.
func (c *Collector) IncStatementTotal(kind types.StatementKind) {
	c.statement(kind).total.Inc()
}

// IncStatementError increments the failed statement counter.
func (c *Collector) IncStatementError(kind types.StatementKind, errKind types.ErrorKind) {
	name := fmt.Sprintf(`%s_statement_errors_total{kind=%q,error=%q}`, c.prefix, c.statementLabel(kind), ErrorKindLabel(errKind))
	c.set.GetOrCreateCounter(name).Inc()
}

// ObserveStatementDuration records a statement duration in seconds.
func (c *Collector) ObserveStatementDuration(kind types.StatementKind, seconds float64) {
	c.statement(kind).duration.Update(seconds)
}

// AddRowsRead adds the number of rows read by a statement.
func (c *Collector) AddRowsRead(kind types.StatementKind, rows int) {
	if rows > 0 {
		c.statement(kind).rowsRead.Add(rows)
	}
}

// IncWriteNotApplied increments the counter of rejected conditional writes.
func (c *Collector) IncWriteNotApplied(kind types.StatementKind) {
	c.statement(kind).notApplied.Inc()
}

// ----------------------
// Mapping events
// ----------------------

// IncEventPublished increments the published mapping event counter.
func (c *Collector) IncEventPublished(eventType string) {
	c.set.GetOrCreateCounter(fmt.Sprintf(`%s_events_published_total{type=%q}`, c.prefix, eventType)).Inc()
}

// IncEventPublishError increments the failed mapping event counter.
func (c *Collector) IncEventPublishError(eventType string) {
	c.set.GetOrCreateCounter(fmt.Sprintf(`%s_event_publish_errors_total{type=%q}`, c.prefix, eventType)).Inc()
}

// ----------------------
// Schema
// ----------------------

// IncSchemaStatement increments the executed DDL statement counter.
func (c *Collector) IncSchemaStatement(action string) {
	c.set.GetOrCreateCounter(fmt.Sprintf(`%s_schema_statements_total{action=%q}`, c.prefix, action)).Inc()
}

// SetMappedEntities sets the number of entities known to the mapping context.
func (c *Collector) SetMappedEntities(n int) {
	c.mappedEntities.Store(int64(n))
}

func (c *Collector) statementLabel(kind types.StatementKind) types.StatementKind {
	if _, ok := c.statements[kind]; ok {
		return kind
	}

	return types.StatementOther
}
