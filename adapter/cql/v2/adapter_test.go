package v2_test

import (
	"errors"
	"testing"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/stretchr/testify/require"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
	v2 "github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql/v2" //nolint:revive // required for v2_test package
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

func TestInterfaces(t *testing.T) {
	var _ cql.Session = (*v2.Session)(nil)
	var _ cql.Query = (*v2.Query)(nil)
	var _ cql.Batch = (*v2.Batch)(nil)
	var _ cql.Iter = (*v2.Iter)(nil)
}

func TestConstants(t *testing.T) {
	require.Equal(t, gocql.LocalQuorum, v2.ToGocqlConsistency(cql.LocalQuorum))
	require.Equal(t, cql.One, v2.FromGocqlConsistency(gocql.One))
	require.Equal(t, gocql.CounterBatch, v2.ToGocqlBatchType(cql.CounterBatch))
}

func TestClassifier(t *testing.T) {
	kind, ok := v2.Classifier{}.Classify(gocql.ErrNoConnections)
	require.True(t, ok)
	require.Equal(t, types.KindConnectionFailure, kind)

	_, ok = v2.Classifier{}.Classify(errors.New("boom"))
	require.False(t, ok)
}
