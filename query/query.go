package query

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Query is an immutable description of a SELECT, UPDATE or DELETE
// restriction: criteria, projection, sort, limit, paging and options.
//
// Every method returns a new Query. Misuse that a fluent call cannot report
// (negative limits, invalid page requests, nil criteria) is recorded and
// returned by Err; statement builders refuse queries with an error.
type Query struct {
	criteria       []CriteriaDefinition
	columns        Columns
	sort           Sort
	limit          int
	allowFiltering bool
	pagingState    []byte
	options        QueryOptions
	err            error
}

// EmptyQuery returns a query without restrictions.
func EmptyQuery() Query {
	return Query{}
}

// NewQuery creates a query from criteria definitions.
func NewQuery(defs ...CriteriaDefinition) Query {
	q := Query{}
	for _, d := range defs {
		q = q.And(d)
	}

	return q
}

// FromChain creates a query from chained criteria.
func FromChain(chain ChainedCriteria) Query {
	return NewQuery(chain.definitions...)
}

func (q Query) withErr(err error) Query {
	if q.err == nil {
		q.err = err
	}

	return q
}

// And returns a copy with def appended to the criteria.
func (q Query) And(def CriteriaDefinition) Query {
	if err := ValidateCriteria(def); err != nil {
		return q.withErr(err)
	}

	criteria := make([]CriteriaDefinition, len(q.criteria), len(q.criteria)+1)
	copy(criteria, q.criteria)
	q.criteria = append(criteria, def)

	return q
}

// Columns returns a copy with the projection merged with columns.
func (q Query) Columns(columns Columns) Query {
	q.columns = q.columns.And(columns)
	return q
}

// Sort returns a copy with sort appended to the existing sort.
func (q Query) Sort(sort Sort) Query {
	q.sort = q.sort.And(sort)
	return q
}

// Limit returns a copy limited to n rows. Zero removes the limit.
func (q Query) Limit(n int) Query {
	if n < 0 {
		return q.withErr(types.InvalidArgumentf("limit must not be negative, got %d", n))
	}

	q.limit = n

	return q
}

// WithAllowFiltering returns a copy rendering ALLOW FILTERING.
func (q Query) WithAllowFiltering() Query {
	q.allowFiltering = true
	return q
}

// PageRequest applies the sort, page size and paging state of p. Pages
// after the first require a CassandraPageRequest with a paging state.
func (q Query) PageRequest(p Pageable) Query {
	if err := ValidatePageable(p); err != nil {
		return q.withErr(err)
	}
	if !p.IsPaged() {
		return q.Sort(p.Sort())
	}

	q = q.Sort(p.Sort())
	q.options.PageSize = p.PageSize()
	if req, ok := p.(CassandraPageRequest); ok {
		q.pagingState = req.PagingState()
	}

	return q
}

// PagingState returns a copy resuming from state.
func (q Query) PagingState(state []byte) Query {
	q.pagingState = append([]byte(nil), state...)
	if len(state) == 0 {
		q.pagingState = nil
	}

	return q
}

// QueryOptions returns a copy using opts.
func (q Query) QueryOptions(opts QueryOptions) Query {
	if err := opts.Validate(); err != nil {
		return q.withErr(err)
	}

	q.options = opts

	return q
}

// CriteriaDefinitions returns a copy of the criteria.
func (q Query) CriteriaDefinitions() []CriteriaDefinition {
	return append([]CriteriaDefinition(nil), q.criteria...)
}

// Projection returns the projection.
func (q Query) Projection() Columns { return q.columns }

// SortOrder returns the sort.
func (q Query) SortOrder() Sort { return q.sort }

// LimitValue returns the limit, zero if unlimited.
func (q Query) LimitValue() int { return q.limit }

// AllowFiltering reports whether ALLOW FILTERING is rendered.
func (q Query) AllowFiltering() bool { return q.allowFiltering }

// State returns the paging state, nil if none.
func (q Query) State() []byte { return q.pagingState }

// Options returns the query options.
func (q Query) Options() QueryOptions { return q.options }

// Err returns the first misuse recorded while building the query.
func (q Query) Err() error { return q.err }

// IsSorted reports whether the query has a sort.
func (q Query) IsSorted() bool {
	return q.sort.IsSorted()
}

// IsEmpty reports whether the query has no criteria.
func (q Query) IsEmpty() bool {
	return len(q.criteria) == 0
}

// Equal reports whether both queries are equal.
func (q Query) Equal(other Query) bool {
	return reflect.DeepEqual(q.criteria, other.criteria) &&
		q.columns.Equal(other.columns) &&
		q.sort.String() == other.sort.String() &&
		q.limit == other.limit &&
		q.allowFiltering == other.allowFiltering &&
		bytes.Equal(q.pagingState, other.pagingState) &&
		q.options == other.options
}

func (q Query) String() string {
	return fmt.Sprintf("Query: %s, Columns: %s, Sort: %s, Limit: %d",
		renderDefinitions(q.criteria, PlainResolver), q.columns, q.sort, q.limit)
}
