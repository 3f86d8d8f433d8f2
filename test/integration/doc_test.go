// Package integration_test runs the templates, the repository and the
// schema tooling against a real CQL cluster.
//
// # Running Integration Tests
//
// Integration tests are skipped by default when using -short flag:
//
//	go test -short ./...           # Skips integration tests
//	go test ./test/integration/... # Runs integration tests
//
// The tests require Docker and use testcontainers to start one ScyllaDB
// node, falling back to Cassandra when the host has no free AIO slots.
// Set SKIP_INTEGRATION_TESTS=1 to skip container setup.
package integration_test
