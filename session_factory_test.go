package cassandra

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spring-projects/spring-data-cassandra-sub011/test/testutil"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

func TestDefaultSessionFactory(t *testing.T) {
	session := testutil.NewMockSession()
	factory := NewSessionFactory(session)

	got, err := factory.Session(context.Background())
	require.NoError(t, err)
	assert.Same(t, session, got)

	factory.Close()
	factory.Close()
	assert.True(t, session.IsClosed())

	_, err = factory.Session(context.Background())
	require.ErrorIs(t, err, types.ErrSessionClosed)
}

func TestDefaultSessionFactoryNilSession(t *testing.T) {
	factory := NewSessionFactory(nil)

	_, err := factory.Session(context.Background())
	require.ErrorIs(t, err, types.ErrNilSession)
	factory.Close()
}

func TestRoutingKey(t *testing.T) {
	_, ok := RoutingKeyFrom(context.Background())
	assert.False(t, ok)

	_, ok = RoutingKeyFrom(WithRoutingKey(context.Background(), ""))
	assert.False(t, ok)

	key, ok := RoutingKeyFrom(WithRoutingKey(context.Background(), "tenant_a"))
	assert.True(t, ok)
	assert.Equal(t, "tenant_a", key)
}

func TestRoutingSessionFactory(t *testing.T) {
	fallback := testutil.NewMockSession()
	tenantA := testutil.NewMockSession()

	routing := NewRoutingSessionFactory(NewSessionFactory(fallback))
	routing.Register("tenant_a", NewSessionFactory(tenantA))

	ctx := context.Background()

	got, err := routing.Session(ctx)
	require.NoError(t, err)
	assert.Same(t, fallback, got)

	got, err = routing.Session(WithRoutingKey(ctx, "tenant_a"))
	require.NoError(t, err)
	assert.Same(t, tenantA, got)

	_, err = routing.Session(WithRoutingKey(ctx, "tenant_b"))
	require.ErrorIs(t, err, types.ErrIllegalState)

	got, err = routing.Lenient(true).Session(WithRoutingKey(ctx, "tenant_b"))
	require.NoError(t, err)
	assert.Same(t, fallback, got)
}

func TestRoutingSessionFactoryWithoutFallback(t *testing.T) {
	routing := NewRoutingSessionFactory(nil)

	_, err := routing.Session(context.Background())
	require.ErrorIs(t, err, types.ErrIllegalState)
}

func TestRoutingSessionFactoryRoutesTemplate(t *testing.T) {
	fallback := testutil.NewMockSession()
	tenantA := testutil.NewMockSession()

	routing := NewRoutingSessionFactory(NewSessionFactory(fallback))
	routing.Register("tenant_a", NewSessionFactory(tenantA))

	template, err := NewCqlTemplate(routing)
	require.NoError(t, err)

	ctx := WithRoutingKey(context.Background(), "tenant_a")
	require.NoError(t, template.Execute(ctx, "TRUNCATE person"))

	assert.Equal(t, []string{"TRUNCATE person"}, tenantA.Statements())
	assert.Empty(t, fallback.Statements())
}
