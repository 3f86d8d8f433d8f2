package query

import (
	"fmt"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Selector is a single entry of a SELECT clause.
type Selector interface {
	// Render returns the selector expression with columns rendered by resolve.
	Render(resolve ColumnResolver) string

	// Alias returns the alias of the selector, if any.
	Alias() (types.Identifier, bool)

	fmt.Stringer
}

// ColumnSelector selects a plain column.
type ColumnSelector struct {
	column ColumnName
	alias  types.Identifier
}

// SelectColumn creates a selector for column.
func SelectColumn(column ColumnName) ColumnSelector {
	return ColumnSelector{column: column}
}

// As returns a copy of the selector with an alias.
func (s ColumnSelector) As(alias string) ColumnSelector {
	s.alias = types.NewIdentifier(alias)
	return s
}

// Column returns the selected column.
func (s ColumnSelector) Column() ColumnName {
	return s.column
}

// Render implements Selector.
func (s ColumnSelector) Render(resolve ColumnResolver) string {
	return withAlias(resolve(s.column), s.alias)
}

// Alias implements Selector.
func (s ColumnSelector) Alias() (types.Identifier, bool) {
	return s.alias, !s.alias.IsZero()
}

func (s ColumnSelector) String() string {
	return s.Render(PlainResolver)
}

// FunctionCall selects the result of a CQL function. Parameters that are
// ColumnName values are rendered as columns; other parameters are rendered
// with %v.
type FunctionCall struct {
	function string
	params   []any
	alias    types.Identifier
}

// Function creates a function call selector, e.g. Function("ttl", FromName("name")).
func Function(name string, params ...any) FunctionCall {
	return FunctionCall{function: name, params: params}
}

// As returns a copy of the function call with an alias.
func (f FunctionCall) As(alias string) FunctionCall {
	f.alias = types.NewIdentifier(alias)
	return f
}

// FunctionName returns the function name.
func (f FunctionCall) FunctionName() string {
	return f.function
}

// Params returns the function parameters.
func (f FunctionCall) Params() []any {
	return f.params
}

// Render implements Selector.
func (f FunctionCall) Render(resolve ColumnResolver) string {
	params := make([]string, len(f.params))
	for i, p := range f.params {
		switch v := p.(type) {
		case ColumnName:
			params[i] = resolve(v)
		case Selector:
			params[i] = v.Render(resolve)
		default:
			params[i] = fmt.Sprintf("%v", v)
		}
	}

	return withAlias(f.function+"("+strings.Join(params, ", ")+")", f.alias)
}

// Alias implements Selector.
func (f FunctionCall) Alias() (types.Identifier, bool) {
	return f.alias, !f.alias.IsZero()
}

func (f FunctionCall) String() string {
	return f.Render(PlainResolver)
}

func withAlias(expr string, alias types.Identifier) string {
	if alias.IsZero() {
		return expr
	}

	return expr + " AS " + alias.CQL()
}

// ColumnEntry is one entry of a Columns projection.
type ColumnEntry struct {
	Column   ColumnName
	Selector Selector
	Excluded bool
}

// Columns is an immutable, insertion-ordered projection. Every method
// returns a new value; the receiver is never modified. Adding a column that
// is already present replaces its entry in place.
type Columns struct {
	entries []ColumnEntry
}

// EmptyColumns returns a projection selecting all columns.
func EmptyColumns() Columns {
	return Columns{}
}

// ColumnsFrom returns a projection including the given columns.
func ColumnsFrom(names ...string) Columns {
	c := Columns{}
	for _, name := range names {
		c = c.Include(name)
	}

	return c
}

// Include selects a column.
func (c Columns) Include(name string) Columns {
	column := FromName(name)
	return c.put(ColumnEntry{Column: column, Selector: SelectColumn(column)})
}

// Exclude removes a column from the projection. Exclusions only take effect
// when the projection is expanded against an entity.
func (c Columns) Exclude(name string) Columns {
	return c.put(ColumnEntry{Column: FromName(name), Excluded: true})
}

// TTL selects the remaining time-to-live of a column.
func (c Columns) TTL(name string) Columns {
	column := FromName(name)
	return c.put(ColumnEntry{Column: column, Selector: Function("TTL", column)})
}

// WriteTime selects the write timestamp of a column.
func (c Columns) WriteTime(name string) Columns {
	column := FromName(name)
	return c.put(ColumnEntry{Column: column, Selector: Function("WRITETIME", column)})
}

// Select selects a column using a custom selector.
func (c Columns) Select(name string, selector Selector) Columns {
	return c.put(ColumnEntry{Column: FromName(name), Selector: selector})
}

// And merges other into a copy of c; entries of other win.
func (c Columns) And(other Columns) Columns {
	result := c
	for _, e := range other.entries {
		result = result.put(e)
	}

	return result
}

func (c Columns) put(entry ColumnEntry) Columns {
	entries := make([]ColumnEntry, len(c.entries), len(c.entries)+1)
	copy(entries, c.entries)

	for i := range entries {
		if entries[i].Column.Equal(entry.Column) {
			entries[i] = entry
			return Columns{entries: entries}
		}
	}

	return Columns{entries: append(entries, entry)}
}

// IsEmpty reports whether the projection selects all columns.
func (c Columns) IsEmpty() bool {
	return len(c.entries) == 0
}

// Entries returns a copy of all entries in insertion order.
func (c Columns) Entries() []ColumnEntry {
	return append([]ColumnEntry(nil), c.entries...)
}

// Selectors returns the selectors of included columns in insertion order.
func (c Columns) Selectors() []Selector {
	var selectors []Selector
	for _, e := range c.entries {
		if !e.Excluded {
			selectors = append(selectors, e.Selector)
		}
	}

	return selectors
}

// Selector returns the selector of an included column.
func (c Columns) Selector(name string) (Selector, bool) {
	column := FromName(name)
	for _, e := range c.entries {
		if !e.Excluded && e.Column.Equal(column) {
			return e.Selector, true
		}
	}

	return nil, false
}

// Excluded returns the excluded columns.
func (c Columns) Excluded() []ColumnName {
	var excluded []ColumnName
	for _, e := range c.entries {
		if e.Excluded {
			excluded = append(excluded, e.Column)
		}
	}

	return excluded
}

// IsExcluded reports whether the column with the given name is excluded.
func (c Columns) IsExcluded(name string) bool {
	column := FromName(name)
	for _, e := range c.entries {
		if e.Excluded && e.Column.Equal(column) {
			return true
		}
	}

	return false
}

// Equal reports whether both projections have the same entries in the same order.
func (c Columns) Equal(other Columns) bool {
	if len(c.entries) != len(other.entries) {
		return false
	}
	for i, e := range c.entries {
		o := other.entries[i]
		if !e.Column.Equal(o.Column) || e.Excluded != o.Excluded {
			return false
		}
		if !e.Excluded && e.Selector.String() != o.Selector.String() {
			return false
		}
	}

	return true
}

// String renders the projection, "*" when empty.
func (c Columns) String() string {
	selectors := c.Selectors()
	if len(selectors) == 0 {
		return "*"
	}

	parts := make([]string, len(selectors))
	for i, s := range selectors {
		parts[i] = s.String()
	}

	return strings.Join(parts, ", ")
}
