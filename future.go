package cassandra

import (
	"context"
	"sync"

	"github.com/spring-projects/spring-data-cassandra-sub011/statement"
)

// Future is the pending result of an asynchronous operation.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error

	mu        sync.Mutex
	callbacks []func(T, error)
}

// Go runs fn in a new goroutine and returns its future. fn receives ctx and
// should honor its cancellation.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		value, err := fn(ctx)
		f.complete(value, err)
	}()

	return f
}

// Get waits for the result. It returns ctx.Err() if ctx ends first; the
// operation keeps running in that case.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// OnComplete registers cb to receive the result. cb runs immediately when
// the future has already completed, otherwise on the completing goroutine.
func (f *Future[T]) OnComplete(cb func(T, error)) {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		cb(f.value, f.err)
		return
	default:
	}
	f.callbacks = append(f.callbacks, cb)
	f.mu.Unlock()
}

func (f *Future[T]) complete(value T, err error) {
	f.mu.Lock()
	f.value, f.err = value, err
	close(f.done)
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(value, err)
	}
}

// AsyncCqlTemplate runs CqlTemplate operations in the background and
// returns futures.
type AsyncCqlTemplate struct {
	cql *CqlTemplate
}

// Async returns the asynchronous view of t.
func (t *CqlTemplate) Async() *AsyncCqlTemplate {
	return &AsyncCqlTemplate{cql: t}
}

// Execute runs a statement without reading rows.
func (a *AsyncCqlTemplate) Execute(ctx context.Context, stmt string, args ...any) *Future[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.cql.Execute(ctx, stmt, args...)
	})
}

// ExecuteStatement runs a rendered statement.
func (a *AsyncCqlTemplate) ExecuteStatement(ctx context.Context, s statement.Statement) *Future[WriteResult] {
	return Go(ctx, func(ctx context.Context) (WriteResult, error) {
		return a.cql.ExecuteStatement(ctx, s)
	})
}

// QueryForMaps reads all rows as maps.
func (a *AsyncCqlTemplate) QueryForMaps(ctx context.Context, stmt string, args ...any) *Future[[]map[string]any] {
	return Go(ctx, func(ctx context.Context) ([]map[string]any, error) {
		return a.cql.QueryForMaps(ctx, stmt, args...)
	})
}

// QueryRows calls cb for each row on the background goroutine.
func (a *AsyncCqlTemplate) QueryRows(ctx context.Context, cb RowCallback, stmt string, args ...any) *Future[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.cql.QueryRows(ctx, cb, stmt, args...)
	})
}

// QueryPage reads one page of a statement.
func (a *AsyncCqlTemplate) QueryPage(ctx context.Context, s statement.Statement) *Future[Page] {
	return Go(ctx, func(ctx context.Context) (Page, error) {
		return a.cql.QueryPage(ctx, s)
	})
}
