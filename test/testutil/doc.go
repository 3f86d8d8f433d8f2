// Package testutil provides test doubles and container helpers for the
// data-access packages.
//
// # In-memory session
//
// [MockSession] implements cql.Session without a database. Statements are
// recorded and answered from scripted responses matched by substring:
//
//	session := testutil.NewMockSession()
//	session.On("SELECT").Rows(map[string]any{"id": "1", "name": "Walter"})
//	session.On("INSERT").NotApplied(map[string]any{"id": "1"})
//
//	template, _ := cassandra.NewCassandraTemplate(cassandra.NewSessionFactory(session))
//	...
//	last := session.LastExecuted()
//
// [SlowSession] delays every execution and honours context cancellation.
// [TestMetricsCollector] records metric calls for assertions.
//
// # Integration helpers
//
//   - [StartCQLCluster]: starts ScyllaDB, or Cassandra when ScyllaDB cannot
//     run, and creates a test keyspace (requires Docker)
//   - [StartEmbeddedNATS]: starts an in-process NATS server with JetStream
package testutil
