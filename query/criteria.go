package query

import (
	"reflect"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Operator is a CQL comparison operator.
type Operator string

// Supported operators.
const (
	OpEq          Operator = "="
	OpNe          Operator = "!="
	OpGt          Operator = ">"
	OpGte         Operator = ">="
	OpLt          Operator = "<"
	OpLte         Operator = "<="
	OpIn          Operator = "IN"
	OpLike        Operator = "LIKE"
	OpContains    Operator = "CONTAINS"
	OpContainsKey Operator = "CONTAINS KEY"
	OpIsNotNull   Operator = "IS NOT NULL"
)

// Predicate is an operator and its operand.
type Predicate struct {
	Operator Operator
	Value    any
}

// Values returns the bind values of the predicate. IN predicates bind one
// value per element; IS NOT NULL binds none.
func (p Predicate) Values() []any {
	switch p.Operator {
	case OpIsNotNull:
		return nil
	case OpIn:
		values, _ := p.Value.([]any)
		return values
	default:
		return []any{p.Value}
	}
}

// Render renders the predicate for a column that has already been rendered.
func (p Predicate) Render(column string) string {
	switch p.Operator {
	case OpIsNotNull:
		return column + " IS NOT NULL"
	case OpIn:
		return column + " IN (" + placeholders(len(p.Values())) + ")"
	default:
		return column + " " + string(p.Operator) + " ?"
	}
}

// CriteriaDefinition is a single predicate on a column.
type CriteriaDefinition interface {
	ColumnName() ColumnName
	Predicate() Predicate
}

// Criteria is an immutable CriteriaDefinition.
type Criteria struct {
	column    ColumnName
	predicate Predicate
}

// NewCriteria creates a criteria from its parts.
func NewCriteria(column ColumnName, predicate Predicate) Criteria {
	return Criteria{column: column, predicate: predicate}
}

// ColumnName implements CriteriaDefinition.
func (c Criteria) ColumnName() ColumnName {
	return c.column
}

// Predicate implements CriteriaDefinition.
func (c Criteria) Predicate() Predicate {
	return c.predicate
}

// And starts a chained criteria continuing from c.
func (c Criteria) And(name string) CriteriaBuilder[ChainedCriteria] {
	return ChainedCriteria{definitions: []CriteriaDefinition{c}}.And(name)
}

func (c Criteria) String() string {
	return RenderCriteria(c, PlainResolver)
}

// ValidateCriteria checks a definition for misuse that the fluent builders
// cannot report, such as an empty IN list.
func ValidateCriteria(def CriteriaDefinition) error {
	if def == nil {
		return types.InvalidArgumentf("criteria must not be nil")
	}
	if def.ColumnName().IsZero() {
		return types.InvalidArgumentf("criteria column name must not be empty")
	}
	p := def.Predicate()
	if p.Operator == OpIn && len(p.Values()) == 0 {
		return types.InvalidArgumentf("IN criteria on %s requires at least one value", def.ColumnName().Name())
	}

	return nil
}

// RenderCriteria renders a definition using resolve for its column.
func RenderCriteria(def CriteriaDefinition, resolve ColumnResolver) string {
	return def.Predicate().Render(resolve(def.ColumnName()))
}

// CriteriaBuilder completes a criteria for one column. R is Criteria for
// Where and ChainedCriteria for chained builders.
type CriteriaBuilder[R any] struct {
	column ColumnName
	build  func(Criteria) R
}

// Where starts a criteria on a property or column name.
func Where(name string) CriteriaBuilder[Criteria] {
	return WhereColumn(FromName(name))
}

// WhereColumn starts a criteria on a column name.
func WhereColumn(column ColumnName) CriteriaBuilder[Criteria] {
	return CriteriaBuilder[Criteria]{column: column, build: func(c Criteria) Criteria { return c }}
}

func (b CriteriaBuilder[R]) with(op Operator, value any) R {
	return b.build(Criteria{column: b.column, predicate: Predicate{Operator: op, Value: value}})
}

// Is creates an equality predicate.
func (b CriteriaBuilder[R]) Is(value any) R { return b.with(OpEq, value) }

// Ne creates a not-equal predicate.
func (b CriteriaBuilder[R]) Ne(value any) R { return b.with(OpNe, value) }

// Lt creates a less-than predicate.
func (b CriteriaBuilder[R]) Lt(value any) R { return b.with(OpLt, value) }

// Lte creates a less-than-or-equal predicate.
func (b CriteriaBuilder[R]) Lte(value any) R { return b.with(OpLte, value) }

// Gt creates a greater-than predicate.
func (b CriteriaBuilder[R]) Gt(value any) R { return b.with(OpGt, value) }

// Gte creates a greater-than-or-equal predicate.
func (b CriteriaBuilder[R]) Gte(value any) R { return b.with(OpGte, value) }

// Like creates a LIKE predicate, which requires a SASI or SAI index.
func (b CriteriaBuilder[R]) Like(value any) R { return b.with(OpLike, value) }

// Contains creates a CONTAINS predicate on a collection column.
func (b CriteriaBuilder[R]) Contains(value any) R { return b.with(OpContains, value) }

// ContainsKey creates a CONTAINS KEY predicate on a map column.
func (b CriteriaBuilder[R]) ContainsKey(key any) R { return b.with(OpContainsKey, key) }

// IsNotNull creates an IS NOT NULL predicate, valid in materialized view definitions.
func (b CriteriaBuilder[R]) IsNotNull() R { return b.with(OpIsNotNull, nil) }

// In creates an IN predicate. A single slice argument is expanded into its
// elements. Arrays (such as UUIDs) and byte slices (blobs, IPs) are single
// values.
func (b CriteriaBuilder[R]) In(values ...any) R {
	return b.with(OpIn, expandValues(values))
}

func expandValues(values []any) []any {
	if len(values) != 1 || values[0] == nil {
		return append([]any(nil), values...)
	}

	rv := reflect.ValueOf(values[0])
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return []any{values[0]}
	}

	expanded := make([]any, rv.Len())
	for i := range expanded {
		expanded[i] = rv.Index(i).Interface()
	}

	return expanded
}

// ChainedCriteria is an immutable, ordered list of criteria joined by AND.
type ChainedCriteria struct {
	definitions []CriteriaDefinition
}

// Chain creates a chained criteria from existing definitions.
func Chain(defs ...CriteriaDefinition) ChainedCriteria {
	return ChainedCriteria{definitions: append([]CriteriaDefinition(nil), defs...)}
}

// And continues the chain with a criteria on name.
func (c ChainedCriteria) And(name string) CriteriaBuilder[ChainedCriteria] {
	return CriteriaBuilder[ChainedCriteria]{
		column: FromName(name),
		build: func(criteria Criteria) ChainedCriteria {
			defs := make([]CriteriaDefinition, len(c.definitions), len(c.definitions)+1)
			copy(defs, c.definitions)

			return ChainedCriteria{definitions: append(defs, criteria)}
		},
	}
}

// Definitions returns a copy of the chained definitions.
func (c ChainedCriteria) Definitions() []CriteriaDefinition {
	return append([]CriteriaDefinition(nil), c.definitions...)
}

func (c ChainedCriteria) String() string {
	return renderDefinitions(c.definitions, PlainResolver)
}

// Filter is an immutable, ordered list of criteria joined by AND, used for
// conditional updates and deletes.
type Filter struct {
	definitions []CriteriaDefinition
}

// FilterFrom creates a filter from definitions.
func FilterFrom(defs ...CriteriaDefinition) Filter {
	return Filter{definitions: append([]CriteriaDefinition(nil), defs...)}
}

// And returns a copy of f with def appended.
func (f Filter) And(def CriteriaDefinition) Filter {
	defs := make([]CriteriaDefinition, len(f.definitions), len(f.definitions)+1)
	copy(defs, f.definitions)

	return Filter{definitions: append(defs, def)}
}

// Definitions returns a copy of the filter definitions.
func (f Filter) Definitions() []CriteriaDefinition {
	return append([]CriteriaDefinition(nil), f.definitions...)
}

// IsEmpty reports whether the filter has no criteria.
func (f Filter) IsEmpty() bool {
	return len(f.definitions) == 0
}

func (f Filter) String() string {
	return renderDefinitions(f.definitions, PlainResolver)
}

func renderDefinitions(defs []CriteriaDefinition, resolve ColumnResolver) string {
	parts := make([]string, len(defs))
	for i, d := range defs {
		parts[i] = RenderCriteria(d, resolve)
	}

	return strings.Join(parts, " AND ")
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}

	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
