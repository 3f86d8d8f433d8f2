// Package cql defines the driver-neutral session interfaces used by the
// templates.
//
// The interfaces mirror the subset of the gocql API the data-access layer
// needs:
//
//   - Session: creates queries and batches
//   - Query: a CQL statement with bind values and execution options
//   - Batch: groups statements for atomic execution
//   - Iter: iterates over one result page
//
// # Adapters
//
// Driver-specific adapters are provided in subpackages:
//
//   - [github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql/v1]: gocql v1.x
//   - [github.com/spring-projects/spring-data-cassandra-sub011/adapter/cql/v2]: apache/cassandra-gocql-driver v2.x
//
// # Usage
//
//	cluster := gocql.NewCluster("127.0.0.1")
//	gocqlSession, _ := cluster.CreateSession()
//
//	session := v1.NewSession(gocqlSession)
//	template, _ := cassandra.NewCqlTemplate(cassandra.NewSessionFactory(session),
//	    cassandra.WithErrorClassifier(v1.Classifier{}),
//	)
package cql
