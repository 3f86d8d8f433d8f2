package query

// Slice is one page of a forward-paged result.
type Slice[T any] struct {
	// Content holds the rows of the page.
	Content []T

	// Pageable is the request for this page, carrying the paging state of
	// the following page when one exists.
	Pageable CassandraPageRequest

	// HasNext reports whether another page follows.
	HasNext bool
}

// NumberOfElements returns the number of rows in the page.
func (s Slice[T]) NumberOfElements() int {
	return len(s.Content)
}

// NextPageable returns the request for the following page.
func (s Slice[T]) NextPageable() (CassandraPageRequest, error) {
	return s.Pageable.Next()
}

// MapSlice converts the content of a slice while keeping its paging.
func MapSlice[T, R any](s Slice[T], fn func(T) R) Slice[R] {
	content := make([]R, len(s.Content))
	for i, v := range s.Content {
		content[i] = fn(v)
	}

	return Slice[R]{Content: content, Pageable: s.Pageable, HasNext: s.HasNext}
}
