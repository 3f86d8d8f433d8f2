package v2

import (
	"errors"

	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// ToGocqlConsistency converts a cql.Consistency to the driver consistency.
// The v2 driver uses a single type for regular and serial levels.
func ToGocqlConsistency(c cql.Consistency) gocql.Consistency {
	return gocql.Consistency(c)
}

// FromGocqlConsistency converts a driver consistency to cql.Consistency.
func FromGocqlConsistency(c gocql.Consistency) cql.Consistency {
	return cql.Consistency(c)
}

// ToGocqlBatchType converts a cql.BatchType to the driver batch type.
func ToGocqlBatchType(bt cql.BatchType) gocql.BatchType {
	return gocql.BatchType(bt)
}

// UnwrapSession returns the underlying driver session.
func UnwrapSession(s *Session) *gocql.Session {
	return s.session
}

// Classifier maps v2 driver client-side errors to error kinds.
type Classifier struct{}

var _ cql.ErrorClassifier = Classifier{}

// Classify implements cql.ErrorClassifier.
func (Classifier) Classify(err error) (types.ErrorKind, bool) {
	switch {
	case errors.Is(err, gocql.ErrNoConnections), errors.Is(err, gocql.ErrSessionClosed):
		return types.KindConnectionFailure, true
	case errors.Is(err, gocql.ErrTimeoutNoResponse):
		return types.KindReadTimeout, true
	}

	var reqErr gocql.RequestError
	if errors.As(err, &reqErr) {
		return types.KindForCode(reqErr.Code()), true
	}

	return types.KindUncategorized, false
}
