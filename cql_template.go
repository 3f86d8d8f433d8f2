package cassandra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
	"github.com/spring-projects/spring-data-cassandra-sub011/convert"
	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/schema"
	"github.com/spring-projects/spring-data-cassandra-sub011/statement"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// RowCallback processes one row. Returning an error stops iteration.
type RowCallback func(row map[string]any) error

// ResultSetExtractor consumes the rows of a result. The iterator is closed
// by the template.
type ResultSetExtractor func(rows cql.Iter) error

// RowMapper maps one row to a value. rowNum starts at zero.
type RowMapper[T any] func(row map[string]any, rowNum int) (T, error)

// WriteResult is the outcome of a write.
type WriteResult struct {
	// Applied is false when a conditional write was rejected.
	Applied bool

	// Existing holds the current row returned by a rejected conditional
	// write.
	Existing map[string]any
}

// Page is one page of rows together with the paging state of the
// following page.
type Page struct {
	Rows        []map[string]any
	PagingState []byte
}

// HasNext reports whether another page follows.
func (p Page) HasNext() bool {
	return len(p.PagingState) > 0
}

// BatchStatement groups statements executed as one CQL batch.
type BatchStatement struct {
	Type       types.BatchType
	Statements []statement.Statement
	Options    query.QueryOptions

	// Timestamp sets the write timestamp of the batch in microseconds.
	Timestamp int64
}

// errStopIteration ends row iteration early without an error.
var errStopIteration = errors.New("stop iteration")

// CqlTemplate executes CQL statements and translates driver failures.
//
// It handles session lookup, statement options, metrics, logging and
// exception translation, leaving callers to supply CQL and consume rows.
//
// # Thread Safety
//
// CqlTemplate is safe for concurrent use and is meant to be shared.
type CqlTemplate struct {
	sessions  SessionFactory
	config    *TemplateConfig
	converter *convert.Converter
}

// Compile-time assertion that CqlTemplate can drive schema actions.
var _ schema.Executor = (*CqlTemplate)(nil)

// NewCqlTemplate creates a template over the sessions of factory.
//
// Parameters:
//   - sessions: Session factory, e.g. NewSessionFactory(v1.NewSession(s))
//   - opts: Optional configuration options
//
// Returns:
//   - *CqlTemplate: A new template
//   - error: ErrNilSession if sessions is nil, or an invalid option error
func NewCqlTemplate(sessions SessionFactory, opts ...Option) (*CqlTemplate, error) {
	if sessions == nil {
		return nil, types.ErrNilSession
	}

	config, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return newCqlTemplate(sessions, config), nil
}

func newCqlTemplate(sessions SessionFactory, config *TemplateConfig) *CqlTemplate {
	var convertOpts []convert.Option
	if config.Conversions != nil {
		convertOpts = append(convertOpts, convert.WithConversions(config.Conversions))
	}

	return &CqlTemplate{
		sessions:  sessions,
		config:    config,
		converter: convert.NewConverter(config.MappingContext, convertOpts...),
	}
}

// Config returns the template configuration.
func (t *CqlTemplate) Config() *TemplateConfig {
	return t.config
}

// SessionFactory returns the session factory.
func (t *CqlTemplate) SessionFactory() SessionFactory {
	return t.sessions
}

// Converter returns the value converter.
func (t *CqlTemplate) Converter() *convert.Converter {
	return t.converter
}

// Execute runs a statement that returns no rows.
//
// Parameters:
//   - ctx: Context for cancellation and session routing
//   - stmt: CQL statement with ? placeholders
//   - args: Values to bind
//
// Returns:
//   - error: Translated *types.DataAccessError on failure
func (t *CqlTemplate) Execute(ctx context.Context, stmt string, args ...any) error {
	kind := statementKind(stmt)

	return t.run(ctx, kind, stmt, args, func(session cql.Session) error {
		return t.newQuery(session, kind, stmt, args, query.QueryOptions{}, nil).ExecContext(ctx)
	})
}

// ExecuteStatement runs a rendered statement. Conditional statements
// report whether they were applied.
func (t *CqlTemplate) ExecuteStatement(ctx context.Context, s statement.Statement) (WriteResult, error) {
	result := WriteResult{Applied: true}

	err := t.run(ctx, s.Kind, s.CQL, s.Args, func(session cql.Session) error {
		q := t.newQuery(session, s.Kind, s.CQL, s.Args, s.Options, s.PagingState)
		if !s.Conditional {
			return q.ExecContext(ctx)
		}

		existing := make(map[string]any)
		applied, err := q.MapScanCASContext(ctx, existing)
		if err != nil {
			return err
		}
		result.Applied = applied
		if !applied {
			result.Existing = existing
		}

		return nil
	})
	if err != nil {
		return WriteResult{}, err
	}
	if !result.Applied {
		t.config.Metrics.IncWriteNotApplied(s.Kind)
	}

	return result, nil
}

// QueryForMaps returns all rows of a query.
func (t *CqlTemplate) QueryForMaps(ctx context.Context, stmt string, args ...any) ([]map[string]any, error) {
	var rows []map[string]any
	err := t.QueryRows(ctx, func(row map[string]any) error {
		rows = append(rows, row)
		return nil
	}, stmt, args...)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// QueryForMap returns the single row of a query.
//
// Returns:
//   - map[string]any: The row
//   - error: ErrNotFound without rows, ErrIncorrectResultSize with more than one
func (t *CqlTemplate) QueryForMap(ctx context.Context, stmt string, args ...any) (map[string]any, error) {
	rows, err := t.QueryForMaps(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	return singleRow(rows)
}

// QueryRows calls cb for every row of a query.
func (t *CqlTemplate) QueryRows(ctx context.Context, cb RowCallback, stmt string, args ...any) error {
	return t.QueryStatement(ctx, rawStatement(stmt, args), cb)
}

// Query hands the result iterator of a query to extractor.
func (t *CqlTemplate) Query(ctx context.Context, extractor ResultSetExtractor, stmt string, args ...any) error {
	kind := statementKind(stmt)

	var extractErr error
	err := t.run(ctx, kind, stmt, args, func(session cql.Session) error {
		it := t.newQuery(session, kind, stmt, args, query.QueryOptions{}, nil).IterContext(ctx)
		extractErr = extractor(it)

		return it.Close()
	})
	if extractErr != nil {
		return extractErr
	}

	return err
}

// QueryStatement calls cb for every row of a rendered statement, fetching
// further pages as needed.
func (t *CqlTemplate) QueryStatement(ctx context.Context, s statement.Statement, cb RowCallback) error {
	var cbErr error
	rows := 0

	err := t.run(ctx, s.Kind, s.CQL, s.Args, func(session cql.Session) error {
		it := t.newQuery(session, s.Kind, s.CQL, s.Args, s.Options, s.PagingState).IterContext(ctx)
		for {
			row := make(map[string]any)
			if !it.MapScan(row) {
				break
			}
			rows++
			if cbErr = cb(row); cbErr != nil {
				break
			}
		}

		return it.Close()
	})
	t.config.Metrics.AddRowsRead(s.Kind, rows)

	if errors.Is(cbErr, errStopIteration) {
		return err
	}
	if cbErr != nil {
		return cbErr
	}

	return err
}

// QueryPage fetches the single page of s selected by its paging state and
// page size.
func (t *CqlTemplate) QueryPage(ctx context.Context, s statement.Statement) (Page, error) {
	var page Page

	err := t.run(ctx, s.Kind, s.CQL, s.Args, func(session cql.Session) error {
		it := t.newQuery(session, s.Kind, s.CQL, s.Args, s.Options, s.PagingState).IterContext(ctx)

		// Only the rows of the current page; the driver would fetch on.
		n := it.NumRows()
		page.Rows = make([]map[string]any, 0, n)
		for range n {
			row := make(map[string]any)
			if !it.MapScan(row) {
				break
			}
			page.Rows = append(page.Rows, row)
		}
		page.PagingState = append([]byte(nil), it.PageState()...)

		return it.Close()
	})
	if err != nil {
		return Page{}, err
	}
	t.config.Metrics.AddRowsRead(s.Kind, len(page.Rows))

	if len(page.PagingState) == 0 {
		page.PagingState = nil
	}

	return page, nil
}

// ExecuteBatch runs statements as one batch.
func (t *CqlTemplate) ExecuteBatch(ctx context.Context, b BatchStatement) (WriteResult, error) {
	if len(b.Statements) == 0 {
		return WriteResult{}, types.InvalidArgumentf("batch must contain at least one statement")
	}

	conditional := false
	for _, s := range b.Statements {
		conditional = conditional || s.Conditional
	}

	summary := batchSummary(b)
	result := WriteResult{Applied: true}

	err := t.run(ctx, types.StatementBatch, summary, nil, func(session cql.Session) error {
		batch := session.Batch(b.Type)
		for _, s := range b.Statements {
			batch = batch.Query(s.CQL, s.Args...)
		}

		opts := t.mergeOptions(b.Options)
		if opts.Consistency != 0 {
			batch = batch.Consistency(opts.Consistency)
		}
		if opts.SerialConsistency != 0 {
			batch = batch.SerialConsistency(opts.SerialConsistency)
		}
		if ts := t.timestamp(types.StatementBatch, b.Timestamp); ts != 0 {
			batch = batch.WithTimestamp(ts)
		}

		if !conditional {
			return batch.ExecContext(ctx)
		}

		existing := make(map[string]any)
		applied, it, err := batch.MapExecCASContext(ctx, existing)
		if it != nil {
			if closeErr := it.Close(); err == nil {
				err = closeErr
			}
		}
		if err != nil {
			return err
		}
		result.Applied = applied
		if !applied {
			result.Existing = existing
		}

		return nil
	})
	if err != nil {
		return WriteResult{}, err
	}
	if !result.Applied {
		t.config.Metrics.IncWriteNotApplied(types.StatementBatch)
	}

	return result, nil
}

// run executes fn against the session of ctx, recording metrics and
// translating the returned error.
func (t *CqlTemplate) run(ctx context.Context, kind types.StatementKind, stmt string, args []any, fn func(cql.Session) error) error {
	session, err := t.sessions.Session(ctx)
	if err != nil {
		return err
	}

	t.config.Logger.Debug("executing CQL statement", "cql", stmt, "args", len(args), "kind", kind)

	start := time.Now()
	err = fn(session)
	elapsed := time.Since(start).Seconds()

	t.config.Metrics.IncStatementTotal(kind)
	t.config.Metrics.ObserveStatementDuration(kind, elapsed)
	if err == nil {
		return nil
	}

	err = t.config.Translator.Translate(kind, stmt, err)

	errKind := types.KindUncategorized
	var dae *types.DataAccessError
	if errors.As(err, &dae) {
		errKind = dae.Kind
	}
	t.config.Metrics.IncStatementError(kind, errKind)
	t.config.Logger.Warn("CQL statement failed",
		"cql", stmt,
		"kind", kind,
		"error", err,
	)

	return err
}

func (t *CqlTemplate) newQuery(session cql.Session, kind types.StatementKind, stmt string, args []any, options query.QueryOptions, pagingState []byte) cql.Query {
	opts := t.mergeOptions(options)

	q := session.Query(stmt, args...)
	if opts.Consistency != 0 {
		q = q.Consistency(opts.Consistency)
	}
	if opts.SerialConsistency != 0 {
		q = q.SerialConsistency(opts.SerialConsistency)
	}
	if opts.PageSize > 0 {
		q = q.PageSize(opts.PageSize)
	}
	if len(pagingState) > 0 {
		q = q.PageState(pagingState)
	}
	if opts.Idempotent || isRead(kind) {
		q = q.Idempotent(true)
	}
	if ts := t.timestamp(kind, 0); ts != 0 {
		q = q.WithTimestamp(ts)
	}

	return q
}

// mergeOptions fills unset fields of opts from the default options.
func (t *CqlTemplate) mergeOptions(opts query.QueryOptions) query.QueryOptions {
	defaults := t.config.DefaultQueryOptions
	if opts.Consistency == 0 {
		opts.Consistency = defaults.Consistency
	}
	if opts.SerialConsistency == 0 {
		opts.SerialConsistency = defaults.SerialConsistency
	}
	if opts.PageSize == 0 {
		opts.PageSize = defaults.PageSize
	}
	opts.Idempotent = opts.Idempotent || defaults.Idempotent

	return opts
}

func (t *CqlTemplate) timestamp(kind types.StatementKind, explicit int64) int64 {
	if explicit != 0 {
		return explicit
	}
	if t.config.TimestampProvider == nil || !isWrite(kind) {
		return 0
	}

	return t.config.TimestampProvider()
}

// QueryForList maps every row of a query with mapper.
//
// Example:
//
//	names, err := cassandra.QueryForList(ctx, template,
//	    cassandra.SingleColumn[string](), "SELECT name FROM person")
func QueryForList[T any](ctx context.Context, t *CqlTemplate, mapper RowMapper[T], stmt string, args ...any) ([]T, error) {
	var out []T
	err := t.QueryRows(ctx, func(row map[string]any) error {
		v, err := mapper(row, len(out))
		if err != nil {
			return err
		}
		out = append(out, v)

		return nil
	}, stmt, args...)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// QueryForObject maps the single row of a query with mapper.
//
// Returns:
//   - T: The mapped row
//   - error: ErrNotFound without rows, ErrIncorrectResultSize with more than one
func QueryForObject[T any](ctx context.Context, t *CqlTemplate, mapper RowMapper[T], stmt string, args ...any) (T, error) {
	var zero T

	rows, err := t.QueryForMaps(ctx, stmt, args...)
	if err != nil {
		return zero, err
	}
	row, err := singleRow(rows)
	if err != nil {
		return zero, err
	}

	return mapper(row, 0)
}

var defaultConverter = sync.OnceValue(func() *convert.Converter {
	return convert.NewConverter(mapping.NewContext())
})

// SingleColumn maps rows holding exactly one column to the column value,
// converted to T.
func SingleColumn[T any]() RowMapper[T] {
	return func(row map[string]any, _ int) (T, error) {
		var zero T
		if len(row) != 1 {
			return zero, fmt.Errorf("%w: expected 1 column, got %d", types.ErrIncorrectResultSize, len(row))
		}

		for _, v := range row {
			return convert.ReadValue[T](defaultConverter(), v)
		}

		return zero, nil
	}
}

func singleRow(rows []map[string]any) (map[string]any, error) {
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%w: expected 1 row, got 0", types.ErrNotFound)
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("%w: expected 1 row, got %d", types.ErrIncorrectResultSize, len(rows))
	}
}

func rawStatement(stmt string, args []any) statement.Statement {
	return statement.Statement{CQL: stmt, Args: args, Kind: statementKind(stmt)}
}

// statementKind classifies raw CQL by its leading keyword.
func statementKind(stmt string) types.StatementKind {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return types.StatementOther
	}

	switch strings.ToUpper(fields[0]) {
	case "SELECT":
		if len(fields) > 1 && strings.HasPrefix(strings.ToUpper(fields[1]), "COUNT(") {
			return types.StatementCount
		}
		return types.StatementSelect
	case "INSERT":
		return types.StatementInsert
	case "UPDATE":
		return types.StatementUpdate
	case "DELETE":
		return types.StatementDelete
	case "TRUNCATE":
		return types.StatementTruncate
	case "BEGIN", "APPLY":
		return types.StatementBatch
	case "CREATE", "ALTER", "DROP":
		return types.StatementSchema
	default:
		return types.StatementOther
	}
}

func isRead(kind types.StatementKind) bool {
	return kind == types.StatementSelect || kind == types.StatementCount
}

func batchSummary(b BatchStatement) string {
	var sb strings.Builder
	sb.WriteString("BEGIN ")
	switch b.Type {
	case types.UnloggedBatch:
		sb.WriteString("UNLOGGED ")
	case types.CounterBatch:
		sb.WriteString("COUNTER ")
	}
	sb.WriteString("BATCH ")
	for _, s := range b.Statements {
		sb.WriteString(s.CQL)
		sb.WriteString("; ")
	}
	sb.WriteString("APPLY BATCH")

	return sb.String()
}
