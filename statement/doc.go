// Package statement renders queries, updates and entity operations into
// CQL statements with bound driver values.
//
// A Factory resolves property names through the mapping context, so
// criteria and assignments may name either the Go field or the column:
//
//	q := query.NewQuery(query.Where("LastName").Is("smith")).Limit(10)
//	stmt, err := factory.Select(q, personEntity)
//	// SELECT * FROM person WHERE last_name = ? LIMIT 10
//
// Entity writes honor the version property: inserts become conditional
// on IF NOT EXISTS, updates and deletes on the current version. The
// template reports a write that was not applied as an optimistic locking
// failure.
//
// Statement texts that only depend on the entity type, such as lookups by
// id, are kept in an LRU cache.
package statement
