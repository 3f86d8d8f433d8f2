package cql

import (
	"context"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Type aliases re-exported from the types package.
type (
	BatchType   = types.BatchType
	Consistency = types.Consistency
)

// Batch type constants.
const (
	LoggedBatch   = types.LoggedBatch
	UnloggedBatch = types.UnloggedBatch
	CounterBatch  = types.CounterBatch
)

// Consistency level constants.
const (
	Any         = types.Any
	One         = types.One
	Two         = types.Two
	Three       = types.Three
	Quorum      = types.Quorum
	All         = types.All
	LocalQuorum = types.LocalQuorum
	EachQuorum  = types.EachQuorum
	Serial      = types.Serial
	LocalSerial = types.LocalSerial
	LocalOne    = types.LocalOne
)

// Session represents a raw CQL session from the underlying driver.
//
// This interface is implemented by the gocql v1 and v2 adapters and by the
// in-memory session in test/testutil. Templates only talk to the driver
// through it.
type Session interface {
	// Query creates a new query for the given statement.
	//
	// Parameters:
	//   - stmt: CQL statement with ? placeholders
	//   - values: Values to bind to placeholders
	//
	// Returns:
	//   - Query: A query builder
	Query(stmt string, values ...any) Query

	// Batch creates a new batch of the given type.
	//
	// Parameters:
	//   - kind: Type of batch
	//
	// Returns:
	//   - Batch: A batch builder
	Batch(kind BatchType) Batch

	// Close terminates the session.
	Close()
}

// Query represents a raw CQL query from the underlying driver.
type Query interface {
	// Consistency sets the consistency level.
	Consistency(c Consistency) Query

	// SerialConsistency sets the serial consistency level for conditional writes.
	SerialConsistency(c Consistency) Query

	// PageSize sets the page size.
	PageSize(n int) Query

	// PageState sets the paging state to resume from.
	PageState(state []byte) Query

	// WithTimestamp sets the write timestamp in microseconds.
	WithTimestamp(ts int64) Query

	// Idempotent marks the query as safe to retry.
	Idempotent(value bool) Query

	// ExecContext executes a query that returns no rows.
	ExecContext(ctx context.Context) error

	// IterContext executes the query and returns an iterator over the
	// current page of results.
	IterContext(ctx context.Context) Iter

	// MapScanCASContext executes a conditional statement and scans the
	// existing row into dest when the statement was not applied.
	MapScanCASContext(ctx context.Context, dest map[string]any) (applied bool, err error)

	// Statement returns the CQL statement.
	Statement() string

	// Values returns the bound values.
	Values() []any
}

// BatchEntry represents a single statement in a batch.
type BatchEntry struct {
	Statement string
	Args      []any
}

// Batch represents a raw CQL batch from the underlying driver.
type Batch interface {
	// Query adds a statement to the batch.
	Query(stmt string, args ...any) Batch

	// Consistency sets the consistency level.
	Consistency(c Consistency) Batch

	// SerialConsistency sets the serial consistency level.
	SerialConsistency(c Consistency) Batch

	// WithTimestamp sets the write timestamp in microseconds.
	WithTimestamp(ts int64) Batch

	// ExecContext executes the batch.
	ExecContext(ctx context.Context) error

	// MapExecCASContext executes a conditional batch and scans the first
	// existing row into dest when the batch was not applied.
	MapExecCASContext(ctx context.Context, dest map[string]any) (applied bool, iter Iter, err error)

	// Size returns the number of statements in the batch.
	Size() int

	// Statements returns the statements added so far.
	Statements() []BatchEntry
}

// Iter iterates over the rows of one result page.
type Iter interface {
	// MapScan scans the next row into m, returning false when exhausted.
	MapScan(m map[string]any) bool

	// Close releases the iterator and returns any error encountered.
	Close() error

	// PageState returns the paging state of the next page, or nil when
	// there are no further pages.
	PageState() []byte

	// NumRows returns the number of rows in the current page.
	NumRows() int

	// Columns returns the result set metadata.
	Columns() []ColumnInfo

	// Warnings returns server warnings attached to the response.
	Warnings() []string
}

// ColumnInfo describes one result column.
type ColumnInfo struct {
	Keyspace string
	Table    string
	Name     string
	TypeInfo any
}

// ErrorClassifier recognises driver-specific failures.
//
// Templates consult classifiers before falling back to native protocol
// error codes, so each adapter can map its own sentinel errors.
type ErrorClassifier interface {
	// Classify returns the kind of err and true when err is recognised.
	Classify(err error) (types.ErrorKind, bool)
}
