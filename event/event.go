package event

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Type identifies a mapping lifecycle event.
type Type int

// Event types in the order they occur for a write.
const (
	BeforeConvert Type = iota + 1
	BeforeSave
	AfterSave
	AfterLoad
	AfterConvert
	BeforeDelete
	AfterDelete
)

var typeNames = map[Type]string{
	BeforeConvert: "before_convert",
	BeforeSave:    "before_save",
	AfterSave:     "after_save",
	AfterLoad:     "after_load",
	AfterConvert:  "after_convert",
	BeforeDelete:  "before_delete",
	AfterDelete:   "after_delete",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return "unknown"
}

// ParseType parses a snake case event type name.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}

	return 0, types.InvalidArgumentf("unknown event type %q", name)
}

// Event is a mapping lifecycle event.
type Event struct {
	// ID uniquely identifies the event. IDs are time ordered.
	ID uuid.UUID

	Type Type

	// Table is the CQL name of the table the entity maps to.
	Table string

	// Entity is the domain object, or the id for deletes by id.
	Entity any

	// Columns holds the converted column values for save events and the
	// loaded row for load events.
	Columns map[string]any

	Time time.Time
}

// New creates an event stamped with a new id and the current time.
func New(t Type, table string, entity any) Event {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return Event{ID: id, Type: t, Table: table, Entity: entity, Time: time.Now()}
}

// WithColumns returns a copy of e carrying columns.
func (e Event) WithColumns(columns map[string]any) Event {
	e.Columns = columns
	return e
}

// Publisher delivers events.
//
// Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Listener handles events delivered by a Multicaster.
type Listener func(ctx context.Context, e Event) error

type subscription struct {
	id       uint64
	listener Listener
	types    map[Type]struct{}
}

func (s subscription) accepts(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]

	return ok
}

// Multicaster delivers events to in-process listeners in subscription
// order.
type Multicaster struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

var _ Publisher = (*Multicaster)(nil)

// NewMulticaster creates a multicaster without listeners.
func NewMulticaster() *Multicaster {
	return &Multicaster{}
}

// Subscribe registers a listener for the given event types, or for all
// types when none are given. The returned function removes the listener.
func (m *Multicaster) Subscribe(listener Listener, eventTypes ...Type) (unsubscribe func()) {
	filter := make(map[Type]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		filter[t] = struct{}{}
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, subscription{id: id, listener: listener, types: filter})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of listeners.
func (m *Multicaster) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.subs)
}

// Publish calls every listener accepting the event type. All listeners
// are called; their errors are joined.
func (m *Multicaster) Publish(ctx context.Context, e Event) error {
	m.mu.RLock()
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if !s.accepts(e.Type) {
			continue
		}
		if err := s.listener(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Composite publishes to several publishers in order.
type Composite []Publisher

// Publish implements Publisher. Every publisher is called; errors are joined.
func (c Composite) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range c {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// BeforeConvertCallback is implemented by entities that adjust themselves
// before being converted for a write.
type BeforeConvertCallback interface {
	BeforeConvert(ctx context.Context, table string) error
}

// BeforeSaveCallback is implemented by entities that inspect the converted
// columns before they are written.
type BeforeSaveCallback interface {
	BeforeSave(ctx context.Context, table string, columns map[string]any) error
}

// AfterLoadCallback is implemented by entities that complete themselves
// after being read.
type AfterLoadCallback interface {
	AfterLoad(ctx context.Context, table string) error
}
