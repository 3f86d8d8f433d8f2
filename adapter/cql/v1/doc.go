// Package v1 adapts gocql v1.x sessions to the cql interfaces.
//
//	cluster := gocql.NewCluster("127.0.0.1", "127.0.0.2")
//	cluster.Keyspace = "my_keyspace"
//	cluster.Consistency = gocql.Quorum
//
//	gocqlSession, err := cluster.CreateSession()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session := v1.NewSession(gocqlSession)
//
// [Classifier] maps gocql client-side errors (no connections, timeouts,
// closed sessions) to data-access error kinds; register it on a template
// with cassandra.WithErrorClassifier.
//
// All adapter types are safe for concurrent use, matching gocql.
package v1
