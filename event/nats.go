package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// NATSConfig configures the JetStream event publisher.
type NATSConfig struct {
	// StreamName is the JetStream stream holding mapping events.
	// Default: "cassandra-events"
	StreamName string

	// SubjectPrefix prefixes event subjects. Events are published to
	// "{SubjectPrefix}.{type}.{table}", e.g. "cassandra.events.after_save.person".
	// Default: "cassandra.events"
	SubjectPrefix string

	// MaxAge is the maximum age of events in the stream.
	// Default: 24 hours
	MaxAge time.Duration

	// MaxMsgs is the maximum number of events in the stream.
	// Default: 1,000,000
	MaxMsgs int64

	// Replicas is the number of stream replicas.
	// Default: 1
	Replicas int

	// PublishTimeout bounds each publish.
	// Default: 5 seconds
	PublishTimeout time.Duration

	// Types restricts the published event types. Empty publishes all types.
	Types []Type
}

// DefaultNATSConfig returns the default configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		StreamName:     "cassandra-events",
		SubjectPrefix:  "cassandra.events",
		MaxAge:         24 * time.Hour,
		MaxMsgs:        1_000_000,
		Replicas:       1,
		PublishTimeout: 5 * time.Second,
	}
}

// NATSOption configures a NATSPublisher.
type NATSOption func(*NATSConfig)

// WithStreamName sets the JetStream stream name.
func WithStreamName(name string) NATSOption {
	return func(c *NATSConfig) {
		c.StreamName = name
	}
}

// WithSubjectPrefix sets the subject prefix.
func WithSubjectPrefix(prefix string) NATSOption {
	return func(c *NATSConfig) {
		c.SubjectPrefix = prefix
	}
}

// WithMaxAge sets the maximum age of events in the stream.
func WithMaxAge(d time.Duration) NATSOption {
	return func(c *NATSConfig) {
		c.MaxAge = d
	}
}

// WithReplicas sets the number of stream replicas.
func WithReplicas(n int) NATSOption {
	return func(c *NATSConfig) {
		c.Replicas = n
	}
}

// WithPublishTimeout sets the timeout of a single publish.
func WithPublishTimeout(d time.Duration) NATSOption {
	return func(c *NATSConfig) {
		c.PublishTimeout = d
	}
}

// WithTypes restricts publishing to the given event types.
func WithTypes(eventTypes ...Type) NATSOption {
	return func(c *NATSConfig) {
		c.Types = eventTypes
	}
}

// NATSPublisher publishes mapping events to a NATS JetStream stream as
// MessagePack envelopes.
type NATSPublisher struct {
	js     jetstream.JetStream
	stream jetstream.Stream
	config NATSConfig
	types  map[Type]struct{}

	mu     sync.RWMutex
	closed bool
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher creates the event stream if needed and returns a
// publisher writing to it.
//
// Parameters:
//   - js: A JetStream context (created via jetstream.New(conn))
//   - opts: Optional configuration options
//
// Returns:
//   - *NATSPublisher: The publisher
//   - error: If js is nil or the stream cannot be created
//
// Example:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	publisher, _ := event.NewNATSPublisher(js, event.WithTypes(event.AfterSave, event.AfterDelete))
func NewNATSPublisher(js jetstream.JetStream, opts ...NATSOption) (*NATSPublisher, error) {
	if js == nil {
		return nil, types.InvalidArgumentf("JetStream context is nil")
	}

	config := DefaultNATSConfig()
	for _, opt := range opts {
		opt(&config)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        config.StreamName,
		Description: "Cassandra mapping lifecycle events",
		Subjects:    []string{config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      config.MaxAge,
		MaxMsgs:     config.MaxMsgs,
		Replicas:    config.Replicas,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
	})
	if err != nil {
		return nil, fmt.Errorf("create event stream: %w", err)
	}

	p := &NATSPublisher{js: js, stream: stream, config: config}
	if len(config.Types) > 0 {
		p.types = make(map[Type]struct{}, len(config.Types))
		for _, t := range config.Types {
			p.types[t] = struct{}{}
		}
	}

	return p, nil
}

// Subject returns the subject an event is published to.
func (p *NATSPublisher) Subject(e Event) string {
	table := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", `"`, "").Replace(e.Table)
	if table == "" {
		table = "_"
	}

	return p.config.SubjectPrefix + "." + e.Type.String() + "." + table
}

// Publish implements Publisher. Events of filtered types are dropped.
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return types.ErrSessionClosed
	}

	if p.types != nil {
		if _, ok := p.types[e.Type]; !ok {
			return nil
		}
	}

	data, err := EncodeEnvelope(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Type, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	if _, err := p.js.Publish(pubCtx, p.Subject(e), data, jetstream.WithMsgID(e.ID.String())); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}

	return nil
}

// Stream returns the JetStream stream.
func (p *NATSPublisher) Stream() jetstream.Stream {
	return p.stream
}

// Close stops publishing. The JetStream connection is owned by the caller.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("event publisher already closed")
	}
	p.closed = true

	return nil
}
