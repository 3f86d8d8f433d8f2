package statement

import (
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Statement is a rendered CQL statement with its bind values.
type Statement struct {
	// CQL is the statement text with ? placeholders.
	CQL string

	// Args are the driver values bound to the placeholders.
	Args []any

	// Kind classifies the statement for metrics and logging.
	Kind types.StatementKind

	// Table is the target table.
	Table types.Identifier

	// Options are the execution options.
	Options query.QueryOptions

	// PagingState resumes a paged SELECT.
	PagingState []byte

	// Conditional marks a lightweight transaction (IF ...), whose result
	// reports whether it was applied.
	Conditional bool

	// Version is the version property of a versioned write, nil otherwise.
	Version *mapping.PersistentProperty

	// ExpectedVersion is the version the write is conditioned on.
	ExpectedVersion int64

	// NextVersion is the version value written when the statement applies.
	NextVersion int64
}

// IsVersioned reports whether the statement is an optimistic locking write.
func (s Statement) IsVersioned() bool {
	return s.Version != nil
}

func (s Statement) String() string {
	return s.CQL
}

// builder assembles statement text.
type builder struct {
	b    strings.Builder
	args []any
}

func (b *builder) write(parts ...string) {
	for _, p := range parts {
		b.b.WriteString(p)
	}
}

func (b *builder) bind(args ...any) {
	b.args = append(b.args, args...)
}

func (b *builder) String() string {
	return b.b.String()
}
