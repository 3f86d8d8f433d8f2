// Package event publishes mapping lifecycle events.
//
// Templates emit events around conversion, saving, loading and deleting
// entities when lifecycle events are enabled. Events can be handled in
// process through a Multicaster or forwarded to NATS JetStream with a
// NATSPublisher:
//
//	m := event.NewMulticaster()
//	m.Subscribe(func(ctx context.Context, e event.Event) error {
//	    log.Printf("%s %s", e.Type, e.Table)
//	    return nil
//	}, event.AfterSave)
//
//	template, _ := cassandra.NewCassandraTemplate(factory,
//	    cassandra.WithEventPublisher(event.Composite{m, natsPublisher}),
//	    cassandra.WithEntityLifecycleEvents(true),
//	)
//
// Entities may implement BeforeConvertCallback, BeforeSaveCallback and
// AfterLoadCallback to take part in the lifecycle directly.
package event
