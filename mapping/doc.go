// Package mapping derives table, column and user type metadata from Go
// struct types.
//
// Fields are mapped through the `cql` struct tag:
//
//	type Person struct {
//	    ID        uuid.UUID         `cql:"id,id"`
//	    FirstName string            `cql:"first_name"`
//	    Tags      []string          `cql:",set"`
//	    Address   Address           `cql:",frozen"`
//	    Notes     string            `cql:"-"`
//	    Version   int64             `cql:",version"`
//	}
//
// The first tag element is the column name; an empty name defers to the
// NamingStrategy. Options:
//
//	id              single-column primary key
//	partition       partition key column (combine with ordinal=N)
//	clustering      clustering column (combine with ordinal=N, order=asc|desc)
//	pk              composite primary key struct whose fields carry partition/clustering
//	type=<cql>      explicit CQL type, e.g. type=timeuuid or type=map<text, int>
//	frozen          freeze a collection or user type
//	static          static column
//	index[=name]    secondary index
//	quoted          force a quoted, case-sensitive column name
//	version         optimistic locking version column
//	set             map a slice to set<...> instead of list<...>
//
// Struct-typed fields that are not composite keys map to user-defined
// types. Untagged embedded structs are flattened. Entity types may
// implement TableNamer, KeyspaceNamer and UserTypeNamer to choose names.
package mapping
