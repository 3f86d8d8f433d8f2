package cassandra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spring-projects/spring-data-cassandra-sub011/test/testutil"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

func TestFutureGet(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	v, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	select {
	case <-f.Done():
	default:
		t.Fatal("future should be done")
	}
}

func TestFutureGetContextDone(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	f := Go(context.Background(), func(context.Context) (string, error) {
		<-release
		return "late", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Get(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFutureOnComplete(t *testing.T) {
	boom := errors.New("boom")
	release := make(chan struct{})
	f := Go(context.Background(), func(context.Context) (int, error) {
		<-release
		return 0, boom
	})

	got := make(chan error, 2)
	f.OnComplete(func(_ int, err error) { got <- err })
	close(release)

	require.ErrorIs(t, <-got, boom)

	// registered after completion: runs immediately
	<-f.Done()
	f.OnComplete(func(_ int, err error) { got <- err })
	require.ErrorIs(t, <-got, boom)
}

func TestAsyncCqlTemplate(t *testing.T) {
	template, session := newTestCqlTemplate(t)
	session.On("FROM person").Rows(map[string]any{"id": "1"})
	session.On("INSERT").Err(codeError{code: types.CodeOverloaded})

	ctx := context.Background()
	async := template.Async()

	rows, err := async.QueryForMaps(ctx, "SELECT * FROM person").Get(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = async.Execute(ctx, "INSERT INTO person (id) VALUES (?)", "2").Get(ctx)
	require.ErrorIs(t, err, types.ErrOverloaded)

	page, err := async.QueryPage(ctx, rawStatement("SELECT * FROM person", nil)).Get(ctx)
	require.NoError(t, err)
	assert.Len(t, page.Rows, 1)

	var seen []map[string]any
	_, err = async.QueryRows(ctx, func(row map[string]any) error {
		seen = append(seen, row)
		return nil
	}, "SELECT * FROM person").Get(ctx)
	require.NoError(t, err)
	assert.Len(t, seen, 1)

	res, err := async.ExecuteStatement(ctx, rawStatement("UPDATE person SET name = ? WHERE id = ?", []any{"x", "1"})).Get(ctx)
	require.NoError(t, err)
	assert.True(t, res.Applied)
}

func TestAsyncCqlTemplateSlowSession(t *testing.T) {
	slow := &testutil.SlowSession{Session: testutil.NewMockSession(), Delay: time.Second}
	template, err := NewCqlTemplate(NewSessionFactory(slow))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	f := template.Async().Execute(ctx, "TRUNCATE person")
	cancel()

	_, err = f.Get(context.Background())
	require.ErrorIs(t, err, types.ErrQueryCancelled)
}
