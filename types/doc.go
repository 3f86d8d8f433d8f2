// Package types provides shared types and error definitions for the data-access layer.
//
// This is a leaf package with no imports from other packages of this module,
// so every package can depend on it without creating import cycles.
//
// # Identifiers
//
// Identifier models a CQL identifier (keyspace, table, column, type or index
// name). Unquoted identifiers are case-insensitive and rendered lower-cased;
// anything that is not a legal unquoted identifier is rendered double-quoted:
//
//	types.NewIdentifier("firstName").CQL()    // firstname
//	types.QuotedIdentifier("firstName").CQL() // "firstName"
//	types.NewIdentifier("select").CQL()       // "select"
//
// # Errors
//
// Driver failures are translated into a DataAccessError carrying a Kind.
// Every kind has a sentinel so callers can use errors.Is:
//
//	if errors.Is(err, types.ErrWriteTimeout) {
//	    // retry with a lower consistency level
//	}
//
// DSL misuse is reported with ErrInvalidArgument or ErrIllegalState, and
// missing single results with ErrNotFound.
package types
