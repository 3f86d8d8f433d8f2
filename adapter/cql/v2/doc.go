// Package v2 adapts apache/cassandra-gocql-driver v2.x sessions to the cql
// interfaces.
//
//	cluster := gocql.NewCluster("127.0.0.1")
//	gocqlSession, err := cluster.CreateSession()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session := v2.NewSession(gocqlSession)
//
// Unlike gocql v1, the v2 driver executes batches directly and accepts a
// context on every execution method, so the adapter is a thin pass-through.
package v2
