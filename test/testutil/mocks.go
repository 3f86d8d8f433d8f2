package testutil

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
)

// ExecutedStatement records one statement sent to a MockSession.
type ExecutedStatement struct {
	Statement         string
	Values            []any
	Consistency       cql.Consistency
	SerialConsistency cql.Consistency
	PageSize          int
	PageState         []byte
	Timestamp         int64
	Idempotent        bool
}

// Response scripts the result of statements containing a substring.
type Response struct {
	match     string
	once      bool
	used      bool
	rows      []map[string]any
	pageState []byte
	err       error
	closeErr  error
	applied   bool
	existing  map[string]any
	warnings  []string
}

// Rows sets the rows returned by matching statements.
func (r *Response) Rows(rows ...map[string]any) *Response {
	r.rows = rows
	return r
}

// PageState sets the paging state returned with the rows.
func (r *Response) PageState(state []byte) *Response {
	r.pageState = state
	return r
}

// Err makes matching statements fail with err.
func (r *Response) Err(err error) *Response {
	r.err = err
	return r
}

// CloseErr makes the iterator of matching statements fail on Close.
func (r *Response) CloseErr(err error) *Response {
	r.closeErr = err
	return r
}

// NotApplied makes matching conditional statements report not applied,
// returning existing as the current row.
func (r *Response) NotApplied(existing map[string]any) *Response {
	r.applied = false
	r.existing = existing
	return r
}

// Warnings sets server warnings returned with the rows.
func (r *Response) Warnings(warnings ...string) *Response {
	r.warnings = warnings
	return r
}

// Once limits the response to the first matching statement.
func (r *Response) Once() *Response {
	r.once = true
	return r
}

// MockSession is an in-memory cql.Session that records statements and
// returns scripted responses.
//
// Responses are matched against the statement text by substring in
// registration order; statements without a response succeed without rows.
type MockSession struct {
	mu        sync.Mutex
	closed    bool
	responses []*Response
	batch     *Response
	executed  []ExecutedStatement
	batches   []*MockBatch
}

// Compile-time assertion that MockSession implements cql.Session.
var _ cql.Session = (*MockSession)(nil)

// NewMockSession creates an empty mock session.
func NewMockSession() *MockSession {
	return &MockSession{}
}

// On registers a response for statements containing match.
func (m *MockSession) On(match string) *Response {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &Response{match: match, applied: true}
	m.responses = append(m.responses, r)

	return r
}

// OnBatch registers the response of executed batches.
func (m *MockSession) OnBatch() *Response {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batch = &Response{applied: true}

	return m.batch
}

// Query implements cql.Session.
func (m *MockSession) Query(stmt string, values ...any) cql.Query {
	return &MockQuery{session: m, record: ExecutedStatement{Statement: stmt, Values: values}}
}

// Batch implements cql.Session.
func (m *MockSession) Batch(kind cql.BatchType) cql.Batch {
	b := &MockBatch{session: m, Kind: kind}

	m.mu.Lock()
	m.batches = append(m.batches, b)
	m.mu.Unlock()

	return b
}

// Close implements cql.Session.
func (m *MockSession) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
}

// IsClosed reports whether Close was called.
func (m *MockSession) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Executed returns the executed statements in order.
func (m *MockSession) Executed() []ExecutedStatement {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]ExecutedStatement(nil), m.executed...)
}

// Statements returns the executed statement texts in order.
func (m *MockSession) Statements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.executed))
	for i, e := range m.executed {
		out[i] = e.Statement
	}

	return out
}

// LastExecuted returns the most recent statement, or a zero value.
func (m *MockSession) LastExecuted() ExecutedStatement {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.executed) == 0 {
		return ExecutedStatement{}
	}

	return m.executed[len(m.executed)-1]
}

// Batches returns the batches created so far.
func (m *MockSession) Batches() []*MockBatch {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*MockBatch(nil), m.batches...)
}

// Reset forgets executed statements and batches, keeping responses.
func (m *MockSession) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executed = nil
	m.batches = nil
}

func (m *MockSession) execute(rec ExecutedStatement) *Response {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executed = append(m.executed, rec)
	for _, r := range m.responses {
		if !strings.Contains(rec.Statement, r.match) {
			continue
		}
		if r.once {
			if r.used {
				continue
			}
			r.used = true
		}

		return r
	}

	return nil
}

// MockQuery records options and executes against its MockSession.
type MockQuery struct {
	session *MockSession
	record  ExecutedStatement
}

var _ cql.Query = (*MockQuery)(nil)

func (q *MockQuery) Consistency(c cql.Consistency) cql.Query {
	q.record.Consistency = c
	return q
}

func (q *MockQuery) SerialConsistency(c cql.Consistency) cql.Query {
	q.record.SerialConsistency = c
	return q
}

func (q *MockQuery) PageSize(n int) cql.Query {
	q.record.PageSize = n
	return q
}

func (q *MockQuery) PageState(state []byte) cql.Query {
	q.record.PageState = state
	return q
}

func (q *MockQuery) WithTimestamp(ts int64) cql.Query {
	q.record.Timestamp = ts
	return q
}

func (q *MockQuery) Idempotent(value bool) cql.Query {
	q.record.Idempotent = value
	return q
}

func (q *MockQuery) ExecContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r := q.session.execute(q.record); r != nil {
		return r.err
	}

	return nil
}

func (q *MockQuery) IterContext(ctx context.Context) cql.Iter {
	if err := ctx.Err(); err != nil {
		return &MockIter{err: err}
	}

	r := q.session.execute(q.record)
	if r == nil {
		return &MockIter{}
	}
	if r.err != nil {
		return &MockIter{err: r.err}
	}

	return &MockIter{rows: r.rows, pageState: r.pageState, err: r.closeErr, warnings: r.warnings}
}

func (q *MockQuery) MapScanCASContext(ctx context.Context, dest map[string]any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r := q.session.execute(q.record)
	if r == nil {
		return true, nil
	}
	if r.err != nil {
		return false, r.err
	}
	if !r.applied {
		maps.Copy(dest, r.existing)
	}

	return r.applied, nil
}

func (q *MockQuery) Statement() string {
	return q.record.Statement
}

func (q *MockQuery) Values() []any {
	return q.record.Values
}

// MockBatch records batch entries and executes against its MockSession.
type MockBatch struct {
	session *MockSession

	Kind          cql.BatchType
	Entries       []cql.BatchEntry
	Consist       cql.Consistency
	SerialConsist cql.Consistency
	Timestamp     int64
	Executed      bool
}

var _ cql.Batch = (*MockBatch)(nil)

func (b *MockBatch) Query(stmt string, args ...any) cql.Batch {
	b.Entries = append(b.Entries, cql.BatchEntry{Statement: stmt, Args: args})
	return b
}

func (b *MockBatch) Consistency(c cql.Consistency) cql.Batch {
	b.Consist = c
	return b
}

func (b *MockBatch) SerialConsistency(c cql.Consistency) cql.Batch {
	b.SerialConsist = c
	return b
}

func (b *MockBatch) WithTimestamp(ts int64) cql.Batch {
	b.Timestamp = ts
	return b
}

func (b *MockBatch) response() *Response {
	b.session.mu.Lock()
	defer b.session.mu.Unlock()

	b.Executed = true

	return b.session.batch
}

func (b *MockBatch) ExecContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r := b.response(); r != nil {
		return r.err
	}

	return nil
}

func (b *MockBatch) MapExecCASContext(ctx context.Context, dest map[string]any) (bool, cql.Iter, error) {
	if err := ctx.Err(); err != nil {
		return false, &MockIter{}, err
	}

	r := b.response()
	if r == nil {
		return true, &MockIter{}, nil
	}
	if r.err != nil {
		return false, &MockIter{}, r.err
	}
	if !r.applied {
		maps.Copy(dest, r.existing)
	}

	return r.applied, &MockIter{}, nil
}

func (b *MockBatch) Size() int {
	return len(b.Entries)
}

func (b *MockBatch) Statements() []cql.BatchEntry {
	return b.Entries
}

// MockIter iterates over scripted rows.
type MockIter struct {
	rows      []map[string]any
	pos       int
	pageState []byte
	err       error
	warnings  []string
	closed    bool
}

var _ cql.Iter = (*MockIter)(nil)

// NewMockIter creates an iterator over rows.
func NewMockIter(rows ...map[string]any) *MockIter {
	return &MockIter{rows: rows}
}

func (i *MockIter) MapScan(m map[string]any) bool {
	if i.err != nil || i.pos >= len(i.rows) {
		return false
	}

	maps.Copy(m, i.rows[i.pos])
	i.pos++

	return true
}

func (i *MockIter) Close() error {
	i.closed = true
	return i.err
}

// Closed reports whether Close was called.
func (i *MockIter) Closed() bool {
	return i.closed
}

func (i *MockIter) PageState() []byte {
	return i.pageState
}

func (i *MockIter) NumRows() int {
	return len(i.rows)
}

func (i *MockIter) Columns() []cql.ColumnInfo {
	if len(i.rows) == 0 {
		return nil
	}

	names := make([]string, 0, len(i.rows[0]))
	for name := range i.rows[0] {
		names = append(names, name)
	}

	cols := make([]cql.ColumnInfo, len(names))
	for idx, name := range names {
		cols[idx] = cql.ColumnInfo{Name: name}
	}

	return cols
}

func (i *MockIter) Warnings() []string {
	return i.warnings
}
