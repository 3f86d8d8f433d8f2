// Package cassandra maps Go structs to Cassandra tables and runs CQL on top
// of a gocql session.
//
// The package has three layers:
//
//   - CqlTemplate runs raw CQL, translating driver errors into
//     DataAccessError values and recording metrics
//   - CassandraTemplate maps entities through package mapping and renders
//     statements from query.Query, query.Update and entity values
//   - AdminTemplate creates, drops and validates the schema of the mapped
//     entities
//
// # Basic Usage
//
//	session, err := cluster.CreateSession()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sessions := cassandra.NewSessionFactory(v1.NewSession(session))
//	defer sessions.Close()
//
//	template, err := cassandra.NewCassandraTemplate(sessions,
//	    cassandra.WithLogger(zaplog.New(logger)),
//	    cassandra.WithDefaultQueryOptions(query.QueryOptions{Consistency: cassandra.LocalQuorum}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_, err = template.Insert(ctx, &Person{ID: "1", Name: "Walter"}, query.InsertOptions{})
//
//	people, err := cassandra.SelectAs[Person](ctx, template,
//	    query.NewQuery(query.Where("name").Is("Walter")).WithAllowFiltering())
//
// # Error Handling
//
// Every driver error is returned as a *DataAccessError carrying the error
// kind, the statement kind and the CQL text. Check the kind with errors.Is
// against the sentinels of package types:
//
//	if errors.Is(err, types.ErrWriteTimeout) {
//	    // retry an idempotent write
//	}
//
// Errors of the module itself are plain sentinels:
//
//   - ErrNotFound: a single-row read found no row
//   - ErrIncorrectResultSize: a single-row read found several rows
//   - ErrOptimisticLocking: a versioned write was not applied
//   - ErrSessionClosed: the session factory was closed
//
// # Optimistic Locking
//
// An entity with a `cql:",version"` field is written conditionally: inserts
// use IF NOT EXISTS and updates and deletes compare the current version.
// Pass versioned entities by pointer; the template stores the new version
// after a successful write.
//
// # Lifecycle Events
//
// Entities implementing event.BeforeConvertCallback, event.BeforeSaveCallback
// or event.AfterLoadCallback are called during writes and reads, and their
// errors abort the operation. A configured event.Publisher receives
// notifications for every lifecycle step; publish failures are logged and
// never fail the operation.
package cassandra
