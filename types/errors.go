package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for DSL misuse and result handling.
var (
	// ErrNotFound indicates that a single-result operation found no row.
	ErrNotFound = errors.New("cassandra: no result found")

	// ErrIncorrectResultSize indicates that more rows were returned than expected.
	ErrIncorrectResultSize = errors.New("cassandra: incorrect result size")

	// ErrInvalidArgument indicates an invalid argument passed to a builder or template.
	ErrInvalidArgument = errors.New("cassandra: invalid argument")

	// ErrIllegalState indicates an operation that is not valid in the current state.
	ErrIllegalState = errors.New("cassandra: illegal state")

	// ErrUnsupportedOperation indicates an operation that is not supported.
	ErrUnsupportedOperation = errors.New("cassandra: unsupported operation")

	// ErrMappingFailed indicates that a type could not be mapped to or from CQL.
	ErrMappingFailed = errors.New("cassandra: mapping failed")

	// ErrOptimisticLocking indicates a versioned write that was not applied.
	ErrOptimisticLocking = errors.New("cassandra: optimistic locking failure")

	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("cassandra: session is closed")

	// ErrNilSession indicates that a nil session was provided.
	ErrNilSession = errors.New("cassandra: session cannot be nil")

	// ErrNoPagingState indicates that a next page was requested without a paging state.
	ErrNoPagingState = errors.New("cassandra: no paging state")
)

// Sentinel errors for translated driver failures. A DataAccessError matches
// the sentinel of its Kind with errors.Is.
var (
	ErrConnectionFailure     = errors.New("cassandra: connection failure")
	ErrAuthentication        = errors.New("cassandra: authentication failure")
	ErrAuthorization         = errors.New("cassandra: authorization failure")
	ErrQuerySyntax           = errors.New("cassandra: query syntax error")
	ErrInvalidQuery          = errors.New("cassandra: invalid query")
	ErrInvalidConfiguration  = errors.New("cassandra: invalid configuration")
	ErrSchemaElementExists   = errors.New("cassandra: schema element already exists")
	ErrReadTimeout           = errors.New("cassandra: read timeout")
	ErrWriteTimeout          = errors.New("cassandra: write timeout")
	ErrReadFailure           = errors.New("cassandra: read failure")
	ErrWriteFailure          = errors.New("cassandra: write failure")
	ErrUnavailable           = errors.New("cassandra: insufficient replicas available")
	ErrOverloaded            = errors.New("cassandra: coordinator overloaded")
	ErrTruncateFailure       = errors.New("cassandra: truncate failure")
	ErrTypeMismatch          = errors.New("cassandra: type mismatch")
	ErrFunctionFailure       = errors.New("cassandra: function failure")
	ErrUncategorized         = errors.New("cassandra: uncategorized data access failure")
	ErrQueryCancelled        = errors.New("cassandra: query cancelled")
	ErrProtocolNotSupported  = errors.New("cassandra: protocol error")
	ErrUnpreparedStatement   = errors.New("cassandra: statement not prepared")
	ErrBootstrappingHost     = errors.New("cassandra: host is bootstrapping")
	ErrUnsupportedConversion = errors.New("cassandra: unsupported conversion")
)

// ErrorKind classifies a translated driver failure.
type ErrorKind int

// Error kinds.
const (
	KindUncategorized ErrorKind = iota
	KindConnectionFailure
	KindAuthentication
	KindAuthorization
	KindQuerySyntax
	KindInvalidQuery
	KindInvalidConfiguration
	KindSchemaElementExists
	KindReadTimeout
	KindWriteTimeout
	KindReadFailure
	KindWriteFailure
	KindUnavailable
	KindOverloaded
	KindTruncate
	KindTypeMismatch
	KindFunctionFailure
	KindQueryCancelled
	KindProtocol
	KindUnprepared
	KindBootstrapping
)

var kindSentinels = map[ErrorKind]error{
	KindUncategorized:        ErrUncategorized,
	KindConnectionFailure:    ErrConnectionFailure,
	KindAuthentication:       ErrAuthentication,
	KindAuthorization:        ErrAuthorization,
	KindQuerySyntax:          ErrQuerySyntax,
	KindInvalidQuery:         ErrInvalidQuery,
	KindInvalidConfiguration: ErrInvalidConfiguration,
	KindSchemaElementExists:  ErrSchemaElementExists,
	KindReadTimeout:          ErrReadTimeout,
	KindWriteTimeout:         ErrWriteTimeout,
	KindReadFailure:          ErrReadFailure,
	KindWriteFailure:         ErrWriteFailure,
	KindUnavailable:          ErrUnavailable,
	KindOverloaded:           ErrOverloaded,
	KindTruncate:             ErrTruncateFailure,
	KindTypeMismatch:         ErrTypeMismatch,
	KindFunctionFailure:      ErrFunctionFailure,
	KindQueryCancelled:       ErrQueryCancelled,
	KindProtocol:             ErrProtocolNotSupported,
	KindUnprepared:           ErrUnpreparedStatement,
	KindBootstrapping:        ErrBootstrappingHost,
}

// Sentinel returns the sentinel error associated with the kind.
func (k ErrorKind) Sentinel() error {
	if err, ok := kindSentinels[k]; ok {
		return err
	}

	return ErrUncategorized
}

// String returns the sentinel message of the kind.
func (k ErrorKind) String() string {
	return k.Sentinel().Error()
}

// IsTransient reports whether an operation failing with this kind may
// succeed when retried.
func (k ErrorKind) IsTransient() bool {
	switch k {
	case KindReadTimeout, KindWriteTimeout, KindUnavailable, KindOverloaded,
		KindConnectionFailure, KindBootstrapping:
		return true
	default:
		return false
	}
}

// Native protocol error codes (CQL binary protocol, section 9).
const (
	CodeServer          = 0x0000
	CodeProtocol        = 0x000A
	CodeCredentials     = 0x0100
	CodeUnavailable     = 0x1000
	CodeOverloaded      = 0x1001
	CodeBootstrapping   = 0x1002
	CodeTruncate        = 0x1003
	CodeWriteTimeout    = 0x1100
	CodeReadTimeout     = 0x1200
	CodeReadFailure     = 0x1300
	CodeFunctionFailure = 0x1400
	CodeWriteFailure    = 0x1500
	CodeSyntax          = 0x2000
	CodeUnauthorized    = 0x2100
	CodeInvalid         = 0x2200
	CodeConfig          = 0x2300
	CodeAlreadyExists   = 0x2400
	CodeUnprepared      = 0x2500
)

// KindForCode maps a native protocol error code to an ErrorKind.
func KindForCode(code int) ErrorKind {
	switch code {
	case CodeProtocol:
		return KindProtocol
	case CodeCredentials:
		return KindAuthentication
	case CodeUnavailable:
		return KindUnavailable
	case CodeOverloaded:
		return KindOverloaded
	case CodeBootstrapping:
		return KindBootstrapping
	case CodeTruncate:
		return KindTruncate
	case CodeWriteTimeout:
		return KindWriteTimeout
	case CodeReadTimeout:
		return KindReadTimeout
	case CodeReadFailure:
		return KindReadFailure
	case CodeFunctionFailure:
		return KindFunctionFailure
	case CodeWriteFailure:
		return KindWriteFailure
	case CodeSyntax:
		return KindQuerySyntax
	case CodeUnauthorized:
		return KindAuthorization
	case CodeInvalid:
		return KindInvalidQuery
	case CodeConfig:
		return KindInvalidConfiguration
	case CodeAlreadyExists:
		return KindSchemaElementExists
	case CodeUnprepared:
		return KindUnprepared
	default:
		return KindUncategorized
	}
}

// DataAccessError is a driver failure translated into the data-access hierarchy.
type DataAccessError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Op describes the operation that failed (e.g. "select", "insert").
	Op string

	// CQL is the statement being executed, if any.
	CQL string

	// Cause is the underlying driver error.
	Cause error
}

// Error implements the error interface.
func (e *DataAccessError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.CQL != "" {
		msg += " [" + e.CQL + "]"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *DataAccessError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel error of the kind.
func (e *DataAccessError) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// InvalidArgumentf returns an error wrapping ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return invalidArgumentf(format, args...)
}

// IllegalStatef returns an error wrapping ErrIllegalState.
func IllegalStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, fmt.Sprintf(format, args...))
}

// MappingErrorf returns an error wrapping ErrMappingFailed.
func MappingErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMappingFailed, fmt.Sprintf(format, args...))
}

func invalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
