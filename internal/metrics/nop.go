// Package metrics provides internal metrics utilities.
package metrics

import "github.com/spring-projects/spring-data-cassandra-sub011/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is configured,
// avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// ----------------------
// Statements
// ----------------------

// IncStatementTotal discards the metric.
func (m *NopMetrics) IncStatementTotal(_ types.StatementKind) {}

// IncStatementError discards the metric.
func (m *NopMetrics) IncStatementError(_ types.StatementKind, _ types.ErrorKind) {}

// ObserveStatementDuration discards the metric.
func (m *NopMetrics) ObserveStatementDuration(_ types.StatementKind, _ float64) {}

// AddRowsRead discards the metric.
func (m *NopMetrics) AddRowsRead(_ types.StatementKind, _ int) {}

// IncWriteNotApplied discards the metric.
func (m *NopMetrics) IncWriteNotApplied(_ types.StatementKind) {}

// ----------------------
// Mapping events
// ----------------------

// IncEventPublished discards the metric.
func (m *NopMetrics) IncEventPublished(_ string) {}

// IncEventPublishError discards the metric.
func (m *NopMetrics) IncEventPublishError(_ string) {}

// ----------------------
// Schema
// ----------------------

// IncSchemaStatement discards the metric.
func (m *NopMetrics) IncSchemaStatement(_ string) {}

// SetMappedEntities discards the metric.
func (m *NopMetrics) SetMappedEntities(_ int) {}

// OrNop returns collector, or a NopMetrics when collector is nil.
func OrNop(collector types.MetricsCollector) types.MetricsCollector {
	if collector == nil {
		return NewNopMetrics()
	}

	return collector
}
