package types

import "strings"

// Consistency represents the Cassandra consistency level.
type Consistency uint16

// Common consistency levels matching gocql.
const (
	Any         Consistency = 0x00
	One         Consistency = 0x01
	Two         Consistency = 0x02
	Three       Consistency = 0x03
	Quorum      Consistency = 0x04
	All         Consistency = 0x05
	LocalQuorum Consistency = 0x06
	EachQuorum  Consistency = 0x07
	Serial      Consistency = 0x08
	LocalSerial Consistency = 0x09
	LocalOne    Consistency = 0x0A
)

var consistencyNames = map[Consistency]string{
	Any:         "ANY",
	One:         "ONE",
	Two:         "TWO",
	Three:       "THREE",
	Quorum:      "QUORUM",
	All:         "ALL",
	LocalQuorum: "LOCAL_QUORUM",
	EachQuorum:  "EACH_QUORUM",
	Serial:      "SERIAL",
	LocalSerial: "LOCAL_SERIAL",
	LocalOne:    "LOCAL_ONE",
}

// String returns the CQL name of the consistency level.
func (c Consistency) String() string {
	if name, ok := consistencyNames[c]; ok {
		return name
	}

	return "UNKNOWN"
}

// ParseConsistency parses a consistency name such as "LOCAL_QUORUM".
// Matching is case-insensitive.
func ParseConsistency(name string) (Consistency, error) {
	for c, n := range consistencyNames {
		if strings.EqualFold(n, name) {
			return c, nil
		}
	}

	return 0, invalidArgumentf("unknown consistency level %q", name)
}

// IsSerial reports whether c may be used as a serial consistency level.
func (c Consistency) IsSerial() bool {
	return c == Serial || c == LocalSerial
}

// BatchType represents the type of batch operation.
type BatchType byte

// Batch types matching gocql.
const (
	LoggedBatch   BatchType = 0
	UnloggedBatch BatchType = 1
	CounterBatch  BatchType = 2
)

// StatementKind classifies executed statements for metrics and logging.
type StatementKind string

// Statement kinds.
const (
	StatementSelect   StatementKind = "select"
	StatementInsert   StatementKind = "insert"
	StatementUpdate   StatementKind = "update"
	StatementDelete   StatementKind = "delete"
	StatementCount    StatementKind = "count"
	StatementBatch    StatementKind = "batch"
	StatementTruncate StatementKind = "truncate"
	StatementSchema   StatementKind = "schema"
	StatementOther    StatementKind = "other"
)

// Logger is the structured logger used throughout the module.
//
// Key/value pairs follow the message, e.g.
// logger.Debug("executing CQL statement", "cql", stmt, "args", len(args)).
// *zap.SugaredLogger style loggers can be adapted with contrib/logging/zaplog.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}
