package testutil

import (
	"context"
	"time"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
)

// SlowSession wraps a CQL session and delays every query execution.
// The delay is cut short when the execution context is done, which makes
// it suitable for timeout and cancellation tests.
type SlowSession struct {
	Session cql.Session
	Delay   time.Duration
}

// Compile-time assertion that SlowSession implements cql.Session.
var _ cql.Session = (*SlowSession)(nil)

// Query returns a query that waits before execution.
func (s *SlowSession) Query(stmt string, values ...any) cql.Query {
	return &slowQuery{Query: s.Session.Query(stmt, values...), delay: s.Delay}
}

// Batch returns a batch from the underlying session.
func (s *SlowSession) Batch(kind cql.BatchType) cql.Batch {
	return s.Session.Batch(kind)
}

// Close is a no-op; the wrapped session is owned by the caller.
func (s *SlowSession) Close() {}

type slowQuery struct {
	cql.Query
	delay time.Duration
}

func (q *slowQuery) wait(ctx context.Context) error {
	timer := time.NewTimer(q.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (q *slowQuery) Consistency(c cql.Consistency) cql.Query {
	q.Query = q.Query.Consistency(c)
	return q
}

func (q *slowQuery) SerialConsistency(c cql.Consistency) cql.Query {
	q.Query = q.Query.SerialConsistency(c)
	return q
}

func (q *slowQuery) PageSize(n int) cql.Query {
	q.Query = q.Query.PageSize(n)
	return q
}

func (q *slowQuery) PageState(state []byte) cql.Query {
	q.Query = q.Query.PageState(state)
	return q
}

func (q *slowQuery) WithTimestamp(ts int64) cql.Query {
	q.Query = q.Query.WithTimestamp(ts)
	return q
}

func (q *slowQuery) Idempotent(value bool) cql.Query {
	q.Query = q.Query.Idempotent(value)
	return q
}

func (q *slowQuery) ExecContext(ctx context.Context) error {
	if err := q.wait(ctx); err != nil {
		return err
	}

	return q.Query.ExecContext(ctx)
}

func (q *slowQuery) IterContext(ctx context.Context) cql.Iter {
	if err := q.wait(ctx); err != nil {
		return &MockIter{err: err}
	}

	return q.Query.IterContext(ctx)
}

func (q *slowQuery) MapScanCASContext(ctx context.Context, dest map[string]any) (bool, error) {
	if err := q.wait(ctx); err != nil {
		return false, err
	}

	return q.Query.MapScanCASContext(ctx, dest)
}
