package query

import (
	"bytes"
	"encoding/hex"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// ScrollPosition is a position in a result set expressed by a paging state.
// The zero value is the initial position.
type ScrollPosition struct {
	state []byte
}

// InitialPosition returns the position before the first row.
func InitialPosition() ScrollPosition {
	return ScrollPosition{}
}

// PositionOf returns the position described by a paging state.
func PositionOf(state []byte) (ScrollPosition, error) {
	if len(state) == 0 {
		return ScrollPosition{}, types.InvalidArgumentf("paging state must not be empty")
	}

	return ScrollPosition{state: append([]byte(nil), state...)}, nil
}

// IsInitial reports whether the position is the initial position.
func (p ScrollPosition) IsInitial() bool {
	return len(p.state) == 0
}

// PagingState returns the paging state. The initial position has none.
func (p ScrollPosition) PagingState() ([]byte, error) {
	if p.IsInitial() {
		return nil, types.IllegalStatef("initial scroll position has no paging state")
	}

	return p.state, nil
}

// Equal reports whether both positions are equal.
func (p ScrollPosition) Equal(other ScrollPosition) bool {
	return bytes.Equal(p.state, other.state)
}

func (p ScrollPosition) String() string {
	if p.IsInitial() {
		return "CassandraScrollPosition.initial"
	}

	return "CassandraScrollPosition [" + hex.EncodeToString(p.state) + "]"
}

// Window is one chunk of a scrolled result.
type Window[T any] struct {
	// Content holds the rows of the window.
	Content []T

	// Position resumes scrolling after the last row.
	Position ScrollPosition

	// HasNext reports whether more rows may follow.
	HasNext bool
}

// IsLast reports whether no further window follows.
func (w Window[T]) IsLast() bool {
	return !w.HasNext
}
