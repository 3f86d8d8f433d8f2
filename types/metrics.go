package types

// MetricsCollector defines methods for collecting operational metrics.
//
// Statement-scoped methods accept a StatementKind for labeling.
// Implementations should be thread-safe as methods may be called concurrently.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	template, _ := cassandra.NewCassandraTemplate(factory,
//	    cassandra.WithMetrics(collector),
//	)
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// ----------------------
	// Statements
	// ----------------------

	// IncStatementTotal increments the executed statement counter.
	IncStatementTotal(kind StatementKind)

	// IncStatementError increments the failed statement counter.
	IncStatementError(kind StatementKind, errKind ErrorKind)

	// ObserveStatementDuration records a statement duration in seconds.
	ObserveStatementDuration(kind StatementKind, seconds float64)

	// AddRowsRead adds the number of rows read by a statement.
	AddRowsRead(kind StatementKind, rows int)

	// IncWriteNotApplied increments the counter of conditional writes
	// that were not applied.
	IncWriteNotApplied(kind StatementKind)

	// ----------------------
	// Mapping events
	// ----------------------

	// IncEventPublished increments the published mapping event counter.
	IncEventPublished(eventType string)

	// IncEventPublishError increments the failed mapping event counter.
	IncEventPublishError(eventType string)

	// ----------------------
	// Schema
	// ----------------------

	// IncSchemaStatement increments the executed DDL statement counter.
	IncSchemaStatement(action string)

	// SetMappedEntities sets the number of entities known to the mapping context.
	SetMappedEntities(n int)
}
