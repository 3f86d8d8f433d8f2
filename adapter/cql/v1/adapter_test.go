package v1_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
	v1 "github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql/v1" //nolint:revive // required for v1_test package
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

func TestInterfaces(t *testing.T) {
	var _ cql.Session = (*v1.Session)(nil)
	var _ cql.Query = (*v1.Query)(nil)
	var _ cql.Batch = (*v1.Batch)(nil)
	var _ cql.Iter = (*v1.Iter)(nil)
}

func TestNewSessionNil(t *testing.T) {
	require.NotNil(t, v1.NewSession(nil))
	require.NotNil(t, v1.WrapSession(nil))
}

func TestNilIterIsEmpty(t *testing.T) {
	iter := &v1.Iter{}
	require.False(t, iter.MapScan(map[string]any{}))
	require.NoError(t, iter.Close())
	require.Nil(t, iter.PageState())
	require.Zero(t, iter.NumRows())
	require.Nil(t, iter.Columns())
	require.Nil(t, iter.Warnings())
}

func TestBatchTypeConstants(t *testing.T) {
	require.Equal(t, cql.BatchType(gocql.LoggedBatch), cql.LoggedBatch)
	require.Equal(t, cql.BatchType(gocql.UnloggedBatch), cql.UnloggedBatch)
	require.Equal(t, cql.BatchType(gocql.CounterBatch), cql.CounterBatch)
	require.Equal(t, gocql.UnloggedBatch, v1.ToGocqlBatchType(cql.UnloggedBatch))
}

func TestConsistencyConstants(t *testing.T) {
	require.Equal(t, cql.Consistency(gocql.Any), cql.Any)
	require.Equal(t, cql.Consistency(gocql.One), cql.One)
	require.Equal(t, cql.Consistency(gocql.Quorum), cql.Quorum)
	require.Equal(t, cql.Consistency(gocql.All), cql.All)
	require.Equal(t, cql.Consistency(gocql.LocalQuorum), cql.LocalQuorum)
	require.Equal(t, cql.Consistency(gocql.EachQuorum), cql.EachQuorum)
	require.Equal(t, cql.Consistency(gocql.LocalOne), cql.LocalOne)
	require.Equal(t, gocql.LocalSerial, v1.ToGocqlSerialConsistency(cql.LocalSerial))
	require.Equal(t, gocql.Serial, v1.ToGocqlSerialConsistency(cql.Serial))
	require.Equal(t, cql.Quorum, v1.FromGocqlConsistency(v1.ToGocqlConsistency(cql.Quorum)))
}

func TestClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind types.ErrorKind
		ok   bool
	}{
		{name: "no connections", err: gocql.ErrNoConnections, kind: types.KindConnectionFailure, ok: true},
		{name: "wrapped no hosts", err: fmt.Errorf("connect: %w", gocql.ErrNoHosts), kind: types.KindConnectionFailure, ok: true},
		{name: "closed session", err: gocql.ErrSessionClosed, kind: types.KindConnectionFailure, ok: true},
		{name: "client timeout", err: gocql.ErrTimeoutNoResponse, kind: types.KindReadTimeout, ok: true},
		{name: "unavailable", err: gocql.ErrUnavailable, kind: types.KindUnavailable, ok: true},
		{name: "too many statements", err: gocql.ErrTooManyStmts, kind: types.KindInvalidQuery, ok: true},
		{name: "unknown", err: errors.New("boom"), kind: types.KindUncategorized, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := v1.Classifier{}.Classify(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
