package query

import (
	"time"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// QueryOptions carries per-statement execution options.
//
// Zero values leave the session defaults in place. Consistency Any is only
// meaningful for writes and therefore doubles as "unset".
type QueryOptions struct {
	// Consistency overrides the consistency level.
	Consistency types.Consistency

	// SerialConsistency overrides the serial consistency of conditional writes.
	SerialConsistency types.Consistency

	// PageSize overrides the fetch size.
	PageSize int

	// Idempotent marks the statement as safe to retry.
	Idempotent bool

	// Keyspace routes the statement to a keyspace other than the session's.
	Keyspace string
}

// IsZero reports whether no option is set.
func (o QueryOptions) IsZero() bool {
	return o == QueryOptions{}
}

// Validate checks the options.
func (o QueryOptions) Validate() error {
	if o.PageSize < 0 {
		return types.InvalidArgumentf("page size must not be negative, got %d", o.PageSize)
	}
	if o.SerialConsistency != 0 && !o.SerialConsistency.IsSerial() {
		return types.InvalidArgumentf("%s is not a serial consistency level", o.SerialConsistency)
	}

	return nil
}

// WriteOptions adds time-to-live and timestamp to QueryOptions.
type WriteOptions struct {
	QueryOptions

	// TTL sets the time-to-live of written values. Zero means no TTL.
	TTL time.Duration

	// Timestamp sets the write timestamp in microseconds. Zero means server time.
	Timestamp int64
}

// Validate checks the options.
func (o WriteOptions) Validate() error {
	if o.TTL < 0 {
		return types.InvalidArgumentf("ttl must not be negative, got %s", o.TTL)
	}
	if o.TTL > 0 && o.TTL < time.Second {
		return types.InvalidArgumentf("ttl must be at least one second, got %s", o.TTL)
	}

	return o.QueryOptions.Validate()
}

// InsertOptions configures INSERT statements.
type InsertOptions struct {
	WriteOptions

	// IfNotExists renders IF NOT EXISTS.
	IfNotExists bool

	// InsertNulls writes nil properties as null instead of omitting them.
	InsertNulls bool
}

// UpdateOptions configures UPDATE statements.
type UpdateOptions struct {
	WriteOptions

	// IfExists renders IF EXISTS.
	IfExists bool

	// IfCondition renders IF <condition>.
	IfCondition Filter
}

// Validate checks the options. IfExists and IfCondition are mutually exclusive.
func (o UpdateOptions) Validate() error {
	if o.IfExists && !o.IfCondition.IsEmpty() {
		return types.InvalidArgumentf("IF EXISTS and IF condition are mutually exclusive")
	}

	return o.WriteOptions.Validate()
}

// DeleteOptions configures DELETE statements.
type DeleteOptions struct {
	WriteOptions

	// IfExists renders IF EXISTS.
	IfExists bool

	// IfCondition renders IF <condition>.
	IfCondition Filter
}

// Validate checks the options. IfExists and IfCondition are mutually exclusive.
func (o DeleteOptions) Validate() error {
	if o.IfExists && !o.IfCondition.IsEmpty() {
		return types.InvalidArgumentf("IF EXISTS and IF condition are mutually exclusive")
	}

	return o.WriteOptions.Validate()
}
