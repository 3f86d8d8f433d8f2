package testutil

import (
	"sync"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// TestMetricsCollector is a test implementation of types.MetricsCollector
// that tracks method calls for assertions.
type TestMetricsCollector struct {
	mu sync.RWMutex

	// Statements
	StatementTotal    map[types.StatementKind]int64
	StatementErrors   map[types.StatementKind]map[types.ErrorKind]int64
	StatementDuration map[types.StatementKind][]float64
	RowsRead          map[types.StatementKind]int64
	WriteNotApplied   map[types.StatementKind]int64

	// Events
	EventsPublished    map[string]int64
	EventPublishErrors map[string]int64

	// Schema
	SchemaStatements map[string]int64
	MappedEntities   int
}

// Compile-time assertion that TestMetricsCollector implements types.MetricsCollector.
var _ types.MetricsCollector = (*TestMetricsCollector)(nil)

// NewTestMetricsCollector creates a new TestMetricsCollector.
func NewTestMetricsCollector() *TestMetricsCollector {
	m := &TestMetricsCollector{}
	m.reset()

	return m
}

func (m *TestMetricsCollector) reset() {
	m.StatementTotal = make(map[types.StatementKind]int64)
	m.StatementErrors = make(map[types.StatementKind]map[types.ErrorKind]int64)
	m.StatementDuration = make(map[types.StatementKind][]float64)
	m.RowsRead = make(map[types.StatementKind]int64)
	m.WriteNotApplied = make(map[types.StatementKind]int64)
	m.EventsPublished = make(map[string]int64)
	m.EventPublishErrors = make(map[string]int64)
	m.SchemaStatements = make(map[string]int64)
	m.MappedEntities = 0
}

// ----------------------
// Statements
// ----------------------

func (m *TestMetricsCollector) IncStatementTotal(kind types.StatementKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatementTotal[kind]++
}

func (m *TestMetricsCollector) IncStatementError(kind types.StatementKind, errKind types.ErrorKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byKind, ok := m.StatementErrors[kind]
	if !ok {
		byKind = make(map[types.ErrorKind]int64)
		m.StatementErrors[kind] = byKind
	}
	byKind[errKind]++
}

func (m *TestMetricsCollector) ObserveStatementDuration(kind types.StatementKind, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatementDuration[kind] = append(m.StatementDuration[kind], seconds)
}

func (m *TestMetricsCollector) AddRowsRead(kind types.StatementKind, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RowsRead[kind] += int64(rows)
}

func (m *TestMetricsCollector) IncWriteNotApplied(kind types.StatementKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteNotApplied[kind]++
}

// ----------------------
// Events
// ----------------------

func (m *TestMetricsCollector) IncEventPublished(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventsPublished[eventType]++
}

func (m *TestMetricsCollector) IncEventPublishError(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventPublishErrors[eventType]++
}

// ----------------------
// Schema
// ----------------------

func (m *TestMetricsCollector) IncSchemaStatement(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SchemaStatements[action]++
}

func (m *TestMetricsCollector) SetMappedEntities(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MappedEntities = n
}

// ----------------------
// Getters
// ----------------------

// GetStatementTotal returns the number of executed statements of kind.
func (m *TestMetricsCollector) GetStatementTotal(kind types.StatementKind) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.StatementTotal[kind]
}

// GetStatementErrors returns the number of failed statements of kind
// across all error kinds.
func (m *TestMetricsCollector) GetStatementErrors(kind types.StatementKind) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, n := range m.StatementErrors[kind] {
		total += n
	}

	return total
}

// GetStatementErrorsOfKind returns the number of failed statements of kind
// that were classified as errKind.
func (m *TestMetricsCollector) GetStatementErrorsOfKind(kind types.StatementKind, errKind types.ErrorKind) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.StatementErrors[kind][errKind]
}

// GetDurationCount returns the number of duration observations for kind.
func (m *TestMetricsCollector) GetDurationCount(kind types.StatementKind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.StatementDuration[kind])
}

// GetRowsRead returns the number of rows read by statements of kind.
func (m *TestMetricsCollector) GetRowsRead(kind types.StatementKind) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.RowsRead[kind]
}

// GetWriteNotApplied returns the number of rejected conditional writes.
func (m *TestMetricsCollector) GetWriteNotApplied(kind types.StatementKind) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.WriteNotApplied[kind]
}

// GetEventsPublished returns the number of published events of eventType.
func (m *TestMetricsCollector) GetEventsPublished(eventType string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.EventsPublished[eventType]
}

// GetEventPublishErrors returns the number of failed publications of eventType.
func (m *TestMetricsCollector) GetEventPublishErrors(eventType string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.EventPublishErrors[eventType]
}

// GetSchemaStatements returns the number of DDL statements for action.
func (m *TestMetricsCollector) GetSchemaStatements(action string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.SchemaStatements[action]
}

// GetMappedEntities returns the last reported mapped entity count.
func (m *TestMetricsCollector) GetMappedEntities() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.MappedEntities
}

// Reset clears all recorded metrics.
func (m *TestMetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}
