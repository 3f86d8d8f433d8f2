package cassandra

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spring-projects/spring-data-cassandra-sub011/schema"
	"github.com/spring-projects/spring-data-cassandra-sub011/test/testutil"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

type indexedPerson struct {
	ID    string `cql:"id,id"`
	Email string `cql:"email,index"`
	Home  location
}

type location struct {
	City string
}

func (indexedPerson) TableName() string { return "indexed_person" }

func newTestAdminTemplate(t *testing.T, keyspace string, opts ...Option) (*AdminTemplate, *testutil.MockSession) {
	t.Helper()

	session := testutil.NewMockSession()
	admin, err := NewAdminTemplate(NewSessionFactory(session), keyspace, opts...)
	require.NoError(t, err)

	return admin, session
}

func TestAdminTemplateCreateTable(t *testing.T) {
	metrics := testutil.NewTestMetricsCollector()
	admin, session := newTestAdminTemplate(t, "shop", WithMetrics(metrics))

	require.NoError(t, admin.CreateTable(context.Background(), true, indexedPerson{}))

	stmts := session.Statements()
	require.Len(t, stmts, 3)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TYPE IF NOT EXISTS location"), stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE IF NOT EXISTS indexed_person"), stmts[1])
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS indexed_person_email_idx ON indexed_person (email);", stmts[2])

	assert.Equal(t, int64(1), metrics.GetSchemaStatements("create_table"))
	assert.Equal(t, int64(3), metrics.GetStatementTotal(types.StatementSchema))
}

func TestAdminTemplateDrop(t *testing.T) {
	admin, session := newTestAdminTemplate(t, "shop")
	ctx := context.Background()

	require.NoError(t, admin.DropTable(ctx, person{}))
	assert.Equal(t, "DROP TABLE IF EXISTS person;", session.LastExecuted().Statement)

	require.NoError(t, admin.DropUserType(ctx, "location"))
	assert.Equal(t, "DROP TYPE IF EXISTS location;", session.LastExecuted().Statement)

	require.ErrorIs(t, admin.DropUserType(ctx, ""), types.ErrInvalidArgument)
}

func TestAdminTemplateCreateSchema(t *testing.T) {
	admin, session := newTestAdminTemplate(t, "shop")
	ctx := context.Background()

	_, err := admin.MappingContext().EntityFor(person{})
	require.NoError(t, err)

	require.NoError(t, admin.CreateSchema(ctx, false))
	require.Len(t, session.Statements(), 1)
	assert.True(t, strings.HasPrefix(session.Statements()[0], "CREATE TABLE person ("))

	session.Reset()
	require.NoError(t, admin.ApplySchema(ctx, schema.ActionNone))
	assert.Empty(t, session.Statements())

	require.NoError(t, admin.ApplySchema(ctx, schema.ActionCreateIfNotExists))
	assert.True(t, strings.HasPrefix(session.LastExecuted().Statement, "CREATE TABLE IF NOT EXISTS person ("))
}

func TestAdminTemplateDropSchema(t *testing.T) {
	admin, session := newTestAdminTemplate(t, "shop")
	ctx := context.Background()
	session.On("FROM system_schema.tables").Rows(
		map[string]any{"table_name": "person"},
		map[string]any{"table_name": "legacy"},
	)

	_, err := admin.MappingContext().EntityFor(person{})
	require.NoError(t, err)

	require.NoError(t, admin.DropSchema(ctx, false))
	assert.Contains(t, session.Statements(), "DROP TABLE IF EXISTS shop.person;")
	assert.NotContains(t, session.Statements(), "DROP TABLE IF EXISTS shop.legacy;")

	session.Reset()
	require.NoError(t, admin.DropSchema(ctx, true))
	assert.Contains(t, session.Statements(), "DROP TABLE IF EXISTS shop.legacy;")
}

func TestAdminTemplateValidateSchema(t *testing.T) {
	admin, session := newTestAdminTemplate(t, "shop")
	ctx := context.Background()

	_, err := admin.MappingContext().EntityFor(person{})
	require.NoError(t, err)

	diff, err := admin.ValidateSchema(ctx)
	require.NoError(t, err)
	require.Len(t, diff.MissingTables, 1)
	require.ErrorIs(t, diff.Err(), schema.ErrSchemaMismatch)

	session.On("FROM system_schema.tables").Rows(map[string]any{"table_name": "person"})
	session.On("FROM system_schema.columns").Rows(
		map[string]any{"table_name": "person", "column_name": "id", "kind": "partition_key", "position": 0, "type": "text"},
		map[string]any{"table_name": "person", "column_name": "name", "kind": "regular", "position": -1, "type": "text"},
		map[string]any{"table_name": "person", "column_name": "age", "kind": "regular", "position": -1, "type": "int"},
	)

	live, err := admin.KeyspaceMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"person"}, live.TableNames())

	diff, err = admin.ValidateSchema(ctx)
	require.NoError(t, err)
	assert.True(t, diff.IsEmpty(), diff.String())
}

func TestAdminTemplateRequiresKeyspace(t *testing.T) {
	admin, _ := newTestAdminTemplate(t, "")
	ctx := context.Background()

	_, err := admin.ValidateSchema(ctx)
	require.ErrorIs(t, err, types.ErrIllegalState)

	_, err = admin.KeyspaceMetadata(ctx)
	require.ErrorIs(t, err, types.ErrIllegalState)

	require.ErrorIs(t, admin.DropSchema(ctx, false), types.ErrIllegalState)
	require.ErrorIs(t, admin.ApplySchema(ctx, schema.ActionRecreate), types.ErrIllegalState)
	require.NoError(t, admin.ApplySchema(ctx, schema.ActionNone))
}
