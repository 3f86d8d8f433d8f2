package query

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Pageable describes a page request.
type Pageable interface {
	// PageNumber returns the zero-based page index.
	PageNumber() int

	// PageSize returns the number of rows per page.
	PageSize() int

	// Sort returns the requested sort.
	Sort() Sort

	// IsPaged reports whether paging applies at all.
	IsPaged() bool
}

type unpaged struct {
	sort Sort
}

// Unpaged returns a Pageable that requests all rows.
func Unpaged() Pageable {
	return unpaged{}
}

// UnpagedSorted returns an unpaged request with a sort.
func UnpagedSorted(sort Sort) Pageable {
	return unpaged{sort: sort}
}

func (unpaged) PageNumber() int { return 0 }
func (unpaged) PageSize() int   { return 0 }
func (u unpaged) Sort() Sort    { return u.sort }
func (unpaged) IsPaged() bool   { return false }
func (unpaged) String() string  { return "UNPAGED" }

// CassandraPageRequest is a page request carrying the driver paging state.
//
// Cassandra pages forward only: page N can be fetched only with the paging
// state returned by page N-1. A request for page N holding a paging state
// describes the position after page N, so Next moves to page N+1 using that
// state.
type CassandraPageRequest struct {
	page        int
	size        int
	sort        Sort
	pagingState []byte
	nextAllowed bool
}

// PageRequestOf creates an unsorted page request.
func PageRequestOf(page, size int) (CassandraPageRequest, error) {
	return PageRequestOfSorted(page, size, Unsorted())
}

// PageRequestOfSorted creates a sorted page request.
func PageRequestOfSorted(page, size int, sort Sort) (CassandraPageRequest, error) {
	if page < 0 {
		return CassandraPageRequest{}, types.InvalidArgumentf("page index must not be negative, got %d", page)
	}
	if size < 1 {
		return CassandraPageRequest{}, types.InvalidArgumentf("page size must be at least one, got %d", size)
	}

	return CassandraPageRequest{page: page, size: size, sort: sort}, nil
}

// FirstPage creates a request for the first page.
//
// FirstPage panics if size is less than one.
func FirstPage(size int) CassandraPageRequest {
	req, err := PageRequestOf(0, size)
	if err != nil {
		panic(err)
	}

	return req
}

// PageNumber implements Pageable.
func (r CassandraPageRequest) PageNumber() int { return r.page }

// PageSize implements Pageable.
func (r CassandraPageRequest) PageSize() int { return r.size }

// Sort implements Pageable.
func (r CassandraPageRequest) Sort() Sort { return r.sort }

// IsPaged implements Pageable.
func (r CassandraPageRequest) IsPaged() bool { return true }

// PagingState returns the paging state, nil if none.
func (r CassandraPageRequest) PagingState() []byte {
	return r.pagingState
}

// WithPagingState returns a copy carrying state. A non-empty state allows
// navigating to the next page.
func (r CassandraPageRequest) WithPagingState(state []byte) CassandraPageRequest {
	r.pagingState = append([]byte(nil), state...)
	if len(state) == 0 {
		r.pagingState = nil
	}
	r.nextAllowed = len(state) > 0

	return r
}

// WithSort returns a copy with a different sort.
func (r CassandraPageRequest) WithSort(sort Sort) CassandraPageRequest {
	r.sort = sort
	return r
}

// IsNextAllowed reports whether Next can be called.
func (r CassandraPageRequest) IsNextAllowed() bool {
	return r.nextAllowed
}

// HasNext is an alias for IsNextAllowed.
func (r CassandraPageRequest) HasNext() bool {
	return r.nextAllowed
}

// HasPrevious reports whether the request is past the first page.
func (r CassandraPageRequest) HasPrevious() bool {
	return r.page > 0
}

// Next returns the request for the following page. The returned request
// keeps the paging state used to fetch it but cannot advance again until a
// new state is attached.
func (r CassandraPageRequest) Next() (CassandraPageRequest, error) {
	if !r.nextAllowed {
		return CassandraPageRequest{}, fmt.Errorf("%w: page %d has no next page", types.ErrNoPagingState, r.page)
	}

	r.page++
	r.nextAllowed = false

	return r, nil
}

// Previous returns the first page when r is the first page. Moving backwards
// is not supported because paging states only move forward.
func (r CassandraPageRequest) Previous() (CassandraPageRequest, error) {
	if r.page == 0 {
		return r, nil
	}

	return CassandraPageRequest{}, fmt.Errorf("%w: cannot navigate to a previous page", types.ErrUnsupportedOperation)
}

// First returns the request for the first page with the same size and sort.
func (r CassandraPageRequest) First() CassandraPageRequest {
	return CassandraPageRequest{size: r.size, sort: r.sort}
}

// Equal reports whether both requests are equal.
func (r CassandraPageRequest) Equal(other CassandraPageRequest) bool {
	return r.page == other.page &&
		r.size == other.size &&
		r.nextAllowed == other.nextAllowed &&
		r.sort.String() == other.sort.String() &&
		bytes.Equal(r.pagingState, other.pagingState)
}

func (r CassandraPageRequest) String() string {
	return fmt.Sprintf("CassandraPageRequest [number: %d, size: %d, sort: %s, paging state: %s]",
		r.page, r.size, r.sort, hex.EncodeToString(r.pagingState))
}

// ValidatePageable checks that p can be executed. Pages after the first
// require a CassandraPageRequest carrying a paging state.
func ValidatePageable(p Pageable) error {
	if p == nil {
		return types.InvalidArgumentf("pageable must not be nil")
	}
	if !p.IsPaged() || p.PageNumber() == 0 {
		return nil
	}

	req, ok := p.(CassandraPageRequest)
	if !ok || len(req.PagingState()) == 0 {
		return types.InvalidArgumentf(
			"paging queries for page %d require a CassandraPageRequest with a valid paging state", p.PageNumber())
	}

	return nil
}
