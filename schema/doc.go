// Package schema renders CQL DDL and keeps the keyspace schema in line
// with the mapped entities.
//
// Specifications such as CreateTable, AlterTable, CreateIndex and
// CreateUserType are fluent builders rendering one or more statements:
//
//	spec := schema.CreateTable("readings").
//	    IfNotExists().
//	    PartitionKeyColumn("sensor", mapping.Text).
//	    ClusteredKeyColumn("at", mapping.Timestamp, mapping.Descending).
//	    Column("value", mapping.Double)
//
// CreateTableSpecification, CreateUserTypeSpecification and
// CreateIndexSpecifications derive specifications from mapped entities,
// optionally with IF NOT EXISTS. Creator and Dropper execute them through an
// Executor in dependency order, Apply runs a schema Action, and Validate
// compares the mapping with the live schema read from system_schema.
package schema
