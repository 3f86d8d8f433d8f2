package cassandra

import (
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Type aliases for convenience - re-export from types and query.
type (
	Consistency      = types.Consistency
	BatchType        = types.BatchType
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
	DataAccessError  = types.DataAccessError
	QueryOptions     = query.QueryOptions
	InsertOptions    = query.InsertOptions
	UpdateOptions    = query.UpdateOptions
	DeleteOptions    = query.DeleteOptions
)

// Re-export consistency level constants for convenience.
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

// Re-export batch type constants for convenience.
const (
	LoggedBatch   = types.LoggedBatch
	UnloggedBatch = types.UnloggedBatch
	CounterBatch  = types.CounterBatch
)

// Re-export common sentinel errors for convenience.
var (
	ErrNotFound            = types.ErrNotFound
	ErrIncorrectResultSize = types.ErrIncorrectResultSize
	ErrOptimisticLocking   = types.ErrOptimisticLocking
	ErrSessionClosed       = types.ErrSessionClosed
	ErrNilSession          = types.ErrNilSession
)
