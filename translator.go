package cassandra

import (
	"context"
	"errors"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// ExceptionTranslator converts driver failures into *types.DataAccessError.
type ExceptionTranslator interface {
	// Translate returns err translated for a statement of kind, or nil
	// when err is nil. Errors raised by this module itself are returned
	// unchanged.
	Translate(kind types.StatementKind, cql string, err error) error
}

// codedError is implemented by driver errors carrying a native protocol
// error code.
type codedError interface {
	Code() int
}

// DefaultExceptionTranslator classifies errors in order: registered
// classifiers, native protocol error codes, context errors.
type DefaultExceptionTranslator struct {
	classifiers []cql.ErrorClassifier
}

var _ ExceptionTranslator = (*DefaultExceptionTranslator)(nil)

// NewExceptionTranslator creates a translator consulting classifiers
// before the native protocol error code.
func NewExceptionTranslator(classifiers ...cql.ErrorClassifier) *DefaultExceptionTranslator {
	return &DefaultExceptionTranslator{classifiers: classifiers}
}

// Translate implements ExceptionTranslator.
func (t *DefaultExceptionTranslator) Translate(kind types.StatementKind, stmt string, err error) error {
	if err == nil {
		return nil
	}

	var dae *types.DataAccessError
	if errors.As(err, &dae) || isModuleError(err) {
		return err
	}

	return &types.DataAccessError{Kind: t.classify(kind, err), Op: string(kind), CQL: stmt, Cause: err}
}

func (t *DefaultExceptionTranslator) classify(kind types.StatementKind, err error) types.ErrorKind {
	for _, c := range t.classifiers {
		if k, ok := c.Classify(err); ok {
			return k
		}
	}

	var coded codedError
	if errors.As(err, &coded) {
		return types.KindForCode(coded.Code())
	}

	switch {
	case errors.Is(err, context.Canceled):
		return types.KindQueryCancelled
	case errors.Is(err, context.DeadlineExceeded):
		if isWrite(kind) {
			return types.KindWriteTimeout
		}
		return types.KindReadTimeout
	}

	return types.KindUncategorized
}

var moduleErrors = []error{
	types.ErrNotFound,
	types.ErrIncorrectResultSize,
	types.ErrInvalidArgument,
	types.ErrIllegalState,
	types.ErrUnsupportedOperation,
	types.ErrMappingFailed,
	types.ErrOptimisticLocking,
	types.ErrSessionClosed,
	types.ErrNilSession,
	types.ErrNoPagingState,
	types.ErrUnsupportedConversion,
}

func isModuleError(err error) bool {
	for _, target := range moduleErrors {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

func isWrite(kind types.StatementKind) bool {
	switch kind {
	case types.StatementInsert, types.StatementUpdate, types.StatementDelete,
		types.StatementBatch, types.StatementTruncate:
		return true
	default:
		return false
	}
}
