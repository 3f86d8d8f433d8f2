package cassandra

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/statement"
	"github.com/spring-projects/spring-data-cassandra-sub011/test/testutil"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

func newTestCqlTemplate(t *testing.T, opts ...Option) (*CqlTemplate, *testutil.MockSession) {
	t.Helper()

	session := testutil.NewMockSession()
	template, err := NewCqlTemplate(NewSessionFactory(session), opts...)
	require.NoError(t, err)

	return template, session
}

func TestNewCqlTemplateNilFactory(t *testing.T) {
	_, err := NewCqlTemplate(nil)
	require.ErrorIs(t, err, types.ErrNilSession)
}

func TestNewCqlTemplateInvalidOptions(t *testing.T) {
	session := testutil.NewMockSession()

	_, err := NewCqlTemplate(NewSessionFactory(session), WithWriteConcurrency(0))
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = NewCqlTemplate(NewSessionFactory(session), WithStatementCacheSize(-1))
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestCqlTemplateExecute(t *testing.T) {
	template, session := newTestCqlTemplate(t, WithDefaultQueryOptions(query.QueryOptions{Consistency: LocalQuorum}))

	err := template.Execute(context.Background(), "INSERT INTO person (id, name) VALUES (?, ?)", "1", "Walter")
	require.NoError(t, err)

	last := session.LastExecuted()
	assert.Equal(t, "INSERT INTO person (id, name) VALUES (?, ?)", last.Statement)
	assert.Equal(t, []any{"1", "Walter"}, last.Values)
	assert.Equal(t, LocalQuorum, last.Consistency)
	assert.False(t, last.Idempotent)
	assert.Zero(t, last.Timestamp)
}

func TestCqlTemplateTimestampProvider(t *testing.T) {
	template, session := newTestCqlTemplate(t, WithTimestampProvider(func() int64 { return 42 }))
	ctx := context.Background()

	require.NoError(t, template.Execute(ctx, "UPDATE person SET name = ? WHERE id = ?", "Walter", "1"))
	assert.Equal(t, int64(42), session.LastExecuted().Timestamp)

	_, err := template.QueryForMaps(ctx, "SELECT * FROM person")
	require.NoError(t, err)
	assert.Zero(t, session.LastExecuted().Timestamp, "reads carry no client timestamp")
	assert.True(t, session.LastExecuted().Idempotent)
}

func TestCqlTemplateQueryForMaps(t *testing.T) {
	metrics := testutil.NewTestMetricsCollector()
	template, session := newTestCqlTemplate(t, WithMetrics(metrics))
	session.On("FROM person").Rows(
		map[string]any{"id": "1", "name": "Walter"},
		map[string]any{"id": "2", "name": "Skyler"},
	)

	rows, err := template.QueryForMaps(context.Background(), "SELECT * FROM person")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Skyler", rows[1]["name"])

	assert.Equal(t, int64(1), metrics.GetStatementTotal(types.StatementSelect))
	assert.Equal(t, int64(2), metrics.GetRowsRead(types.StatementSelect))
	assert.Equal(t, 1, metrics.GetDurationCount(types.StatementSelect))
}

func TestCqlTemplateQueryForMap(t *testing.T) {
	template, session := newTestCqlTemplate(t)
	ctx := context.Background()

	session.On("id = '1'").Rows(map[string]any{"id": "1"})
	session.On("id = '2'").Rows(map[string]any{"id": "2"}, map[string]any{"id": "2"})

	row, err := template.QueryForMap(ctx, "SELECT * FROM person WHERE id = '1'")
	require.NoError(t, err)
	assert.Equal(t, "1", row["id"])

	_, err = template.QueryForMap(ctx, "SELECT * FROM person WHERE id = '2'")
	require.ErrorIs(t, err, types.ErrIncorrectResultSize)

	_, err = template.QueryForMap(ctx, "SELECT * FROM person WHERE id = '3'")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestCqlTemplateQueryRowsCallbackError(t *testing.T) {
	template, session := newTestCqlTemplate(t)
	session.On("FROM person").Rows(map[string]any{"id": "1"}, map[string]any{"id": "2"})

	stop := errors.New("stop")
	seen := 0
	err := template.QueryRows(context.Background(), func(map[string]any) error {
		seen++
		return stop
	}, "SELECT * FROM person")

	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestCqlTemplateQueryExtractor(t *testing.T) {
	template, session := newTestCqlTemplate(t)
	session.On("FROM person").Rows(map[string]any{"id": "1"}, map[string]any{"id": "2"})

	var count int
	err := template.Query(context.Background(), func(it cql.Iter) error {
		row := make(map[string]any)
		for it.MapScan(row) {
			count++
		}
		return nil
	}, "SELECT * FROM person")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCqlTemplateTranslatesErrors(t *testing.T) {
	metrics := testutil.NewTestMetricsCollector()
	template, session := newTestCqlTemplate(t, WithMetrics(metrics))
	session.On("INSERT").Err(codeError{code: types.CodeWriteTimeout})
	session.On("SELECT").Err(codeError{code: types.CodeSyntax})

	err := template.Execute(context.Background(), "INSERT INTO person (id) VALUES (?)", "1")
	require.ErrorIs(t, err, types.ErrWriteTimeout)

	var dae *types.DataAccessError
	require.ErrorAs(t, err, &dae)
	assert.Equal(t, types.KindWriteTimeout, dae.Kind)
	assert.Equal(t, "INSERT INTO person (id) VALUES (?)", dae.CQL)
	assert.Equal(t, int64(1), metrics.GetStatementErrorsOfKind(types.StatementInsert, types.KindWriteTimeout))

	_, err = template.QueryForMaps(context.Background(), "SELECT * FROM person")
	require.ErrorIs(t, err, types.ErrQuerySyntax)
}

func TestCqlTemplateSessionClosed(t *testing.T) {
	session := testutil.NewMockSession()
	factory := NewSessionFactory(session)
	template, err := NewCqlTemplate(factory)
	require.NoError(t, err)

	factory.Close()
	assert.True(t, session.IsClosed())

	err = template.Execute(context.Background(), "TRUNCATE person")
	require.ErrorIs(t, err, types.ErrSessionClosed)
}

func TestCqlTemplateExecuteStatementConditional(t *testing.T) {
	metrics := testutil.NewTestMetricsCollector()
	template, session := newTestCqlTemplate(t, WithMetrics(metrics))
	session.On("IF NOT EXISTS").NotApplied(map[string]any{"id": "1", "name": "Jesse"})

	res, err := template.ExecuteStatement(context.Background(), statement.Statement{
		CQL:         "INSERT INTO person (id, name) VALUES (?, ?) IF NOT EXISTS",
		Args:        []any{"1", "Walter"},
		Kind:        types.StatementInsert,
		Conditional: true,
	})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, "Jesse", res.Existing["name"])
	assert.Equal(t, int64(1), metrics.GetWriteNotApplied(types.StatementInsert))
}

func TestCqlTemplateQueryPage(t *testing.T) {
	template, session := newTestCqlTemplate(t)
	session.On("FROM person").Rows(map[string]any{"id": "1"}, map[string]any{"id": "2"}).PageState([]byte{0x01})

	page, err := template.QueryPage(context.Background(), statement.Statement{
		CQL:         "SELECT * FROM person",
		Kind:        types.StatementSelect,
		Options:     query.QueryOptions{PageSize: 2},
		PagingState: []byte{0x00},
	})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 2)
	assert.Equal(t, []byte{0x01}, page.PagingState)
	assert.True(t, page.HasNext())

	last := session.LastExecuted()
	assert.Equal(t, 2, last.PageSize)
	assert.Equal(t, []byte{0x00}, last.PageState)
}

func TestCqlTemplateQueryPageLast(t *testing.T) {
	template, session := newTestCqlTemplate(t)
	session.On("FROM person").Rows(map[string]any{"id": "1"})

	page, err := template.QueryPage(context.Background(), rawStatement("SELECT * FROM person", nil))
	require.NoError(t, err)
	assert.Nil(t, page.PagingState)
	assert.False(t, page.HasNext())
}

func TestCqlTemplateExecuteBatch(t *testing.T) {
	template, session := newTestCqlTemplate(t)

	_, err := template.ExecuteBatch(context.Background(), BatchStatement{Type: LoggedBatch})
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	res, err := template.ExecuteBatch(context.Background(), BatchStatement{
		Type: UnloggedBatch,
		Statements: []statement.Statement{
			rawStatement("INSERT INTO person (id) VALUES (?)", []any{"1"}),
			rawStatement("INSERT INTO person (id) VALUES (?)", []any{"2"}),
		},
		Options:   query.QueryOptions{Consistency: Quorum},
		Timestamp: 7,
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)

	batches := session.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, UnloggedBatch, batches[0].Kind)
	assert.Equal(t, 2, batches[0].Size())
	assert.Equal(t, Quorum, batches[0].Consist)
	assert.Equal(t, int64(7), batches[0].Timestamp)
	assert.True(t, batches[0].Executed)
}

func TestCqlTemplateContextCancelled(t *testing.T) {
	template, _ := newTestCqlTemplate(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := template.Execute(ctx, "SELECT * FROM person")
	require.ErrorIs(t, err, types.ErrQueryCancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueryForListSingleColumn(t *testing.T) {
	template, session := newTestCqlTemplate(t)
	session.On("SELECT name").Rows(map[string]any{"name": "Walter"}, map[string]any{"name": "Skyler"})
	session.On("SELECT id, name").Rows(map[string]any{"id": "1", "name": "Walter"})

	names, err := QueryForList(context.Background(), template, SingleColumn[string](), "SELECT name FROM person")
	require.NoError(t, err)
	assert.Equal(t, []string{"Walter", "Skyler"}, names)

	_, err = QueryForObject(context.Background(), template, SingleColumn[string](), "SELECT id, name FROM person")
	require.ErrorIs(t, err, types.ErrIncorrectResultSize)
}

func TestQueryForObject(t *testing.T) {
	template, session := newTestCqlTemplate(t)
	session.On("count(*)").Rows(map[string]any{"count": int64(3)})

	n, err := QueryForObject(context.Background(), template, SingleColumn[int64](), "SELECT count(*) FROM person")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestStatementKind(t *testing.T) {
	tests := []struct {
		stmt     string
		expected types.StatementKind
	}{
		{"SELECT * FROM person", types.StatementSelect},
		{"select count(*) from person", types.StatementCount},
		{"INSERT INTO person (id) VALUES (?)", types.StatementInsert},
		{"  update person SET name = ?", types.StatementUpdate},
		{"DELETE FROM person WHERE id = ?", types.StatementDelete},
		{"TRUNCATE person", types.StatementTruncate},
		{"BEGIN BATCH INSERT INTO t (a) VALUES (1); APPLY BATCH", types.StatementBatch},
		{"CREATE TABLE t (a int PRIMARY KEY)", types.StatementSchema},
		{"USE ks", types.StatementOther},
		{"", types.StatementOther},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			assert.Equal(t, tt.expected, statementKind(tt.stmt))
		})
	}
}

// codeError mimics a driver error carrying a native protocol code.
type codeError struct {
	code int
}

func (e codeError) Error() string { return "driver error" }
func (e codeError) Code() int     { return e.code }
