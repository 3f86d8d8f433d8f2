// Package query provides immutable builders for CQL restrictions,
// projections and assignments.
//
// Criteria, Query, Update and Columns are values: every method returns a
// new value and never modifies its receiver, so they can be shared between
// goroutines and reused as templates.
//
//	q := query.NewQuery(query.Where("lastName").Is("White")).
//	    Columns(query.ColumnsFrom("firstName", "lastName").TTL("email")).
//	    Sort(query.ByOrders(query.Desc("createdAt"))).
//	    Limit(10)
//
//	u := query.UpdateOf("email", "w@example.com").
//	    AddTo("tags").Append("vip").
//	    Increment("visits", 1)
//
// Names passed to the builders are property (Go field) names or column
// names; the statement factory maps them through the entity metadata.
//
// Paging is forward-only. CassandraPageRequest carries the driver paging
// state: a request for any page after the first is valid only when it holds
// the state returned by the previous page.
package query
