package cassandra

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// SessionFactory supplies the session a template executes against.
type SessionFactory interface {
	// Session returns the session for the operation bound to ctx.
	Session(ctx context.Context) (cql.Session, error)
}

// DefaultSessionFactory hands out a single session.
//
// The factory owns the session: Close closes it and subsequent calls to
// Session return ErrSessionClosed.
type DefaultSessionFactory struct {
	session cql.Session
	closed  atomic.Bool
}

// Compile-time assertion that DefaultSessionFactory implements SessionFactory.
var _ SessionFactory = (*DefaultSessionFactory)(nil)

// NewSessionFactory creates a factory for session.
//
// Parameters:
//   - session: An open session, e.g. v1.NewSession(gocqlSession)
//
// Returns:
//   - *DefaultSessionFactory: The factory
func NewSessionFactory(session cql.Session) *DefaultSessionFactory {
	return &DefaultSessionFactory{session: session}
}

// Session implements SessionFactory.
func (f *DefaultSessionFactory) Session(_ context.Context) (cql.Session, error) {
	if f.session == nil {
		return nil, types.ErrNilSession
	}
	if f.closed.Load() {
		return nil, types.ErrSessionClosed
	}

	return f.session, nil
}

// Close closes the session. Closing twice is a no-op.
func (f *DefaultSessionFactory) Close() {
	if f.closed.CompareAndSwap(false, true) && f.session != nil {
		f.session.Close()
	}
}

// routingKey is the context key of the routing lookup key.
type routingKey struct{}

// WithRoutingKey returns a context that routes template operations to the
// session registered under key.
func WithRoutingKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, routingKey{}, key)
}

// RoutingKeyFrom returns the routing key bound to ctx.
func RoutingKeyFrom(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(routingKey{}).(string)
	return key, ok && key != ""
}

// RoutingSessionFactory selects a target factory by the routing key bound
// to the context, falling back to a default factory.
//
// Typical use is one session per keyspace or tenant:
//
//	routing := cassandra.NewRoutingSessionFactory(defaultFactory)
//	routing.Register("tenant_a", tenantAFactory)
//
//	ctx = cassandra.WithRoutingKey(ctx, "tenant_a")
//	template.Select(ctx, q, &people)
type RoutingSessionFactory struct {
	mu       sync.RWMutex
	targets  map[string]SessionFactory
	fallback SessionFactory
	lenient  bool
}

var _ SessionFactory = (*RoutingSessionFactory)(nil)

// NewRoutingSessionFactory creates a routing factory. fallback serves
// contexts without a routing key and may be nil.
func NewRoutingSessionFactory(fallback SessionFactory) *RoutingSessionFactory {
	return &RoutingSessionFactory{
		targets:  make(map[string]SessionFactory),
		fallback: fallback,
	}
}

// Register binds key to target.
func (r *RoutingSessionFactory) Register(key string, target SessionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.targets[key] = target
}

// Lenient makes unknown routing keys fall back to the default factory
// instead of failing.
func (r *RoutingSessionFactory) Lenient(lenient bool) *RoutingSessionFactory {
	r.lenient = lenient
	return r
}

// Session implements SessionFactory.
func (r *RoutingSessionFactory) Session(ctx context.Context) (cql.Session, error) {
	key, ok := RoutingKeyFrom(ctx)
	if !ok {
		return r.fallbackSession(ctx, "")
	}

	r.mu.RLock()
	target, found := r.targets[key]
	r.mu.RUnlock()

	if found {
		return target.Session(ctx)
	}
	if r.lenient {
		return r.fallbackSession(ctx, key)
	}

	return nil, types.IllegalStatef("no session factory registered for routing key %q", key)
}

func (r *RoutingSessionFactory) fallbackSession(ctx context.Context, key string) (cql.Session, error) {
	if r.fallback == nil {
		return nil, fmt.Errorf("%w: no default session factory for routing key %q", types.ErrIllegalState, key)
	}

	return r.fallback.Session(ctx)
}
