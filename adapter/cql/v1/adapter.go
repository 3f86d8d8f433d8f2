package v1

import (
	"context"

	"github.com/gocql/gocql"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
)

// Session wraps a gocql v1 session.
type Session struct {
	session *gocql.Session
}

// NewSession wraps a gocql session.
//
// Parameters:
//   - session: An open gocql session
//
// Returns:
//   - *Session: The adapter
func NewSession(session *gocql.Session) *Session {
	return &Session{session: session}
}

// WrapSession wraps a gocql session and returns it as a cql.Session.
func WrapSession(session *gocql.Session) cql.Session {
	return NewSession(session)
}

// Query implements cql.Session.
func (s *Session) Query(stmt string, values ...any) cql.Query {
	return &Query{
		query:     s.session.Query(stmt, values...),
		statement: stmt,
		values:    values,
	}
}

// Batch implements cql.Session.
func (s *Session) Batch(kind cql.BatchType) cql.Batch {
	return &Batch{
		batch:   s.session.NewBatch(gocql.BatchType(kind)),
		session: s.session,
	}
}

// Close implements cql.Session.
func (s *Session) Close() {
	s.session.Close()
}

// Query wraps a gocql v1 query.
type Query struct {
	query     *gocql.Query
	statement string
	values    []any
}

func (q *Query) Consistency(c cql.Consistency) cql.Query {
	q.query = q.query.Consistency(gocql.Consistency(c))
	return q
}

func (q *Query) SerialConsistency(c cql.Consistency) cql.Query {
	q.query = q.query.SerialConsistency(gocql.SerialConsistency(c))
	return q
}

func (q *Query) PageSize(n int) cql.Query {
	q.query = q.query.PageSize(n)
	return q
}

func (q *Query) PageState(state []byte) cql.Query {
	q.query = q.query.PageState(state)
	return q
}

func (q *Query) WithTimestamp(ts int64) cql.Query {
	q.query = q.query.WithTimestamp(ts)
	return q
}

func (q *Query) Idempotent(value bool) cql.Query {
	q.query = q.query.Idempotent(value)
	return q
}

func (q *Query) ExecContext(ctx context.Context) error {
	return q.query.WithContext(ctx).Exec()
}

func (q *Query) IterContext(ctx context.Context) cql.Iter {
	return &Iter{iter: q.query.WithContext(ctx).Iter()}
}

func (q *Query) MapScanCASContext(ctx context.Context, dest map[string]any) (applied bool, err error) {
	return q.query.WithContext(ctx).MapScanCAS(dest)
}

func (q *Query) Statement() string {
	return q.statement
}

func (q *Query) Values() []any {
	return q.values
}

// Batch wraps a gocql v1 batch. gocql v1 executes batches through the
// session, so the batch keeps a reference to it.
type Batch struct {
	batch   *gocql.Batch
	session *gocql.Session
	entries []cql.BatchEntry
}

func (b *Batch) Query(stmt string, args ...any) cql.Batch {
	b.batch.Query(stmt, args...)
	b.entries = append(b.entries, cql.BatchEntry{Statement: stmt, Args: args})
	return b
}

func (b *Batch) Consistency(c cql.Consistency) cql.Batch {
	b.batch.SetConsistency(gocql.Consistency(c))
	return b
}

func (b *Batch) SerialConsistency(c cql.Consistency) cql.Batch {
	b.batch = b.batch.SerialConsistency(gocql.SerialConsistency(c))
	return b
}

func (b *Batch) WithTimestamp(ts int64) cql.Batch {
	b.batch = b.batch.WithTimestamp(ts)
	return b
}

func (b *Batch) ExecContext(ctx context.Context) error {
	return b.session.ExecuteBatch(b.batch.WithContext(ctx))
}

func (b *Batch) MapExecCASContext(ctx context.Context, dest map[string]any) (applied bool, iter cql.Iter, err error) {
	applied, gocqlIter, err := b.session.MapExecuteBatchCAS(b.batch.WithContext(ctx), dest)
	return applied, &Iter{iter: gocqlIter}, err
}

func (b *Batch) Size() int {
	return len(b.entries)
}

func (b *Batch) Statements() []cql.BatchEntry {
	return b.entries
}

// Iter wraps a gocql v1 iterator. A nil iterator behaves as an empty result.
type Iter struct {
	iter *gocql.Iter
}

func (i *Iter) MapScan(m map[string]any) bool {
	if i.iter == nil {
		return false
	}

	return i.iter.MapScan(m)
}

func (i *Iter) Close() error {
	if i.iter == nil {
		return nil
	}

	return i.iter.Close()
}

func (i *Iter) PageState() []byte {
	if i.iter == nil {
		return nil
	}

	return i.iter.PageState()
}

func (i *Iter) NumRows() int {
	if i.iter == nil {
		return 0
	}

	return i.iter.NumRows()
}

func (i *Iter) Columns() []cql.ColumnInfo {
	if i.iter == nil {
		return nil
	}

	gocqlCols := i.iter.Columns()
	result := make([]cql.ColumnInfo, len(gocqlCols))
	for idx, col := range gocqlCols {
		result[idx] = cql.ColumnInfo{
			Keyspace: col.Keyspace,
			Table:    col.Table,
			Name:     col.Name,
			TypeInfo: col.TypeInfo,
		}
	}

	return result
}

func (i *Iter) Warnings() []string {
	if i.iter == nil {
		return nil
	}

	return i.iter.Warnings()
}
