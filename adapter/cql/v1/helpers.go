package v1

import (
	"errors"

	"github.com/gocql/gocql"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// ToGocqlConsistency converts a cql.Consistency to gocql.Consistency.
func ToGocqlConsistency(c cql.Consistency) gocql.Consistency {
	return gocql.Consistency(c)
}

// FromGocqlConsistency converts a gocql.Consistency to cql.Consistency.
func FromGocqlConsistency(c gocql.Consistency) cql.Consistency {
	return cql.Consistency(c)
}

// ToGocqlSerialConsistency converts a cql.Consistency to gocql.SerialConsistency.
func ToGocqlSerialConsistency(c cql.Consistency) gocql.SerialConsistency {
	return gocql.SerialConsistency(c)
}

// ToGocqlBatchType converts a cql.BatchType to gocql.BatchType.
func ToGocqlBatchType(bt cql.BatchType) gocql.BatchType {
	return gocql.BatchType(bt)
}

// UnwrapSession returns the underlying gocql session.
func UnwrapSession(s *Session) *gocql.Session {
	return s.session
}

// Classifier maps gocql v1 client-side errors to error kinds.
//
// Server errors carry a native protocol code and are handled by the
// template's translator; Classifier covers failures raised by the driver
// itself before a response was received.
type Classifier struct{}

var _ cql.ErrorClassifier = Classifier{}

// Classify implements cql.ErrorClassifier.
func (Classifier) Classify(err error) (types.ErrorKind, bool) {
	switch {
	case errors.Is(err, gocql.ErrNoConnections),
		errors.Is(err, gocql.ErrNoHosts),
		errors.Is(err, gocql.ErrSessionClosed):
		return types.KindConnectionFailure, true
	case errors.Is(err, gocql.ErrTimeoutNoResponse):
		return types.KindReadTimeout, true
	case errors.Is(err, gocql.ErrUnavailable):
		return types.KindUnavailable, true
	case errors.Is(err, gocql.ErrTooManyStmts):
		return types.KindInvalidQuery, true
	case errors.Is(err, gocql.ErrUnsupported):
		return types.KindProtocol, true
	}

	var reqErr gocql.RequestError
	if errors.As(err, &reqErr) {
		return types.KindForCode(reqErr.Code()), true
	}

	return types.KindUncategorized, false
}
