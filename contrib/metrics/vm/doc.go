// Package vm provides a VictoriaMetrics-based implementation of the
// MetricsCollector interface.
//
// This package uses github.com/VictoriaMetrics/metrics for lightweight,
// Prometheus-compatible metrics collection.
//
// # Basic Usage
//
// Create a collector with the default prefix "cassandra":
//
//	collector := vm.New()
//	template, _ := cassandra.NewCassandraTemplate(factory,
//	    cassandra.WithMetrics(collector),
//	)
//
// # Exposing Metrics
//
//	http.HandleFunc("/metrics", collector.Handler)
//	http.ListenAndServe(":8080", nil)
//
// # Metrics Provided
//
// Statements:
//   - {prefix}_statements_total{kind} - Counter of executed statements
//   - {prefix}_statement_errors_total{kind,error} - Counter of translated failures
//   - {prefix}_statement_duration_seconds{kind} - Histogram of statement latencies
//   - {prefix}_rows_read_total{kind} - Counter of rows read
//   - {prefix}_write_not_applied_total{kind} - Counter of rejected conditional writes
//
// Mapping events:
//   - {prefix}_events_published_total{type} - Counter of published lifecycle events
//   - {prefix}_event_publish_errors_total{type} - Counter of failed publications
//
// Schema:
//   - {prefix}_schema_statements_total{action} - Counter of executed DDL statements
//   - {prefix}_mapped_entities - Gauge of entities known to the mapping context
//
// Statement metrics are pre-created with the NewXXX pattern for every
// statement kind; the remaining label combinations use GetOrCreateXXX.
package vm
