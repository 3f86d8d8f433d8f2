package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// AssignmentOp is the kind of an update assignment.
type AssignmentOp int

// Assignment kinds.
const (
	// AssignSet renders col = ?.
	AssignSet AssignmentOp = iota
	// AssignSetAtIndex renders col[index] = ?.
	AssignSetAtIndex
	// AssignSetAtKey renders col[?] = ?.
	AssignSetAtKey
	// AssignAppend renders col = col + ? for lists and sets.
	AssignAppend
	// AssignPrepend renders col = ? + col for lists.
	AssignPrepend
	// AssignPutAll renders col = col + ? for maps.
	AssignPutAll
	// AssignRemove renders col = col - ?.
	AssignRemove
	// AssignIncrement renders col = col + ? or col = col - ? for counters.
	AssignIncrement
)

// Assignment is one column assignment of an Update.
type Assignment struct {
	Op     AssignmentOp
	Column ColumnName

	// Value is the assigned value, the collection to add or remove, or the
	// counter delta.
	Value any

	// Key is the list index (int) or the map key.
	Key any
}

// Render renders the assignment for an already rendered column and returns
// the bind values.
func (a Assignment) Render(column string) (string, []any) {
	switch a.Op {
	case AssignSetAtIndex:
		return fmt.Sprintf("%s[%d] = ?", column, a.Key), []any{a.Value}
	case AssignSetAtKey:
		return column + "[?] = ?", []any{a.Key, a.Value}
	case AssignAppend, AssignPutAll:
		return column + " = " + column + " + ?", []any{a.Value}
	case AssignPrepend:
		return column + " = ? + " + column, []any{a.Value}
	case AssignRemove:
		return column + " = " + column + " - ?", []any{a.Value}
	case AssignIncrement:
		delta, _ := a.Value.(int64)
		if delta < 0 {
			return column + " = " + column + " - ?", []any{-delta}
		}

		return column + " = " + column + " + ?", []any{delta}
	default:
		return column + " = ?", []any{a.Value}
	}
}

func (a Assignment) String() string {
	s, _ := a.Render(a.Column.CQL())
	return s
}

// Update is an immutable, insertion-ordered list of assignments with at
// most one assignment per column. Assigning a column again replaces its
// assignment in place.
type Update struct {
	assignments []Assignment
	err         error
}

// EmptyUpdate returns an update without assignments.
func EmptyUpdate() Update {
	return Update{}
}

// UpdateOf returns an update setting one column.
func UpdateOf(name string, value any) Update {
	return Update{}.Set(name, value)
}

func (u Update) add(a Assignment) Update {
	if a.Column.IsZero() {
		if u.err == nil {
			u.err = types.InvalidArgumentf("update column name must not be empty")
		}

		return u
	}

	assignments := make([]Assignment, len(u.assignments), len(u.assignments)+1)
	copy(assignments, u.assignments)

	for i := range assignments {
		if assignments[i].Column.Equal(a.Column) {
			assignments[i] = a
			return Update{assignments: assignments, err: u.err}
		}
	}

	return Update{assignments: append(assignments, a), err: u.err}
}

// Set assigns value to a column.
func (u Update) Set(name string, value any) Update {
	return u.add(Assignment{Op: AssignSet, Column: FromName(name), Value: value})
}

// SetAtIndex assigns value to a list element.
func (u Update) SetAtIndex(name string, index int, value any) Update {
	if index < 0 {
		if u.err == nil {
			u.err = types.InvalidArgumentf("list index must not be negative, got %d", index)
		}

		return u
	}

	return u.add(Assignment{Op: AssignSetAtIndex, Column: FromName(name), Key: index, Value: value})
}

// SetAtKey assigns value to a map entry.
func (u Update) SetAtKey(name string, key, value any) Update {
	return u.add(Assignment{Op: AssignSetAtKey, Column: FromName(name), Key: key, Value: value})
}

// Clear removes all elements of a collection column.
func (u Update) Clear(name string) Update {
	return u.add(Assignment{Op: AssignSet, Column: FromName(name), Value: nil})
}

// Increment adds delta to a counter column.
func (u Update) Increment(name string, delta int64) Update {
	return u.add(Assignment{Op: AssignIncrement, Column: FromName(name), Value: delta})
}

// Decrement subtracts delta from a counter column.
func (u Update) Decrement(name string, delta int64) Update {
	return u.add(Assignment{Op: AssignIncrement, Column: FromName(name), Value: -delta})
}

// AddTo starts an assignment adding to a collection column.
func (u Update) AddTo(name string) AddToBuilder {
	return AddToBuilder{update: u, column: FromName(name)}
}

// RemoveFrom starts an assignment removing from a collection column.
func (u Update) RemoveFrom(name string) RemoveFromBuilder {
	return RemoveFromBuilder{update: u, column: FromName(name)}
}

// Assignments returns a copy of the assignments in insertion order.
func (u Update) Assignments() []Assignment {
	return append([]Assignment(nil), u.assignments...)
}

// IsEmpty reports whether the update has no assignments.
func (u Update) IsEmpty() bool {
	return len(u.assignments) == 0
}

// Err returns the first misuse recorded while building the update.
func (u Update) Err() error {
	return u.err
}

// Equal reports whether both updates have equal assignments in the same order.
func (u Update) Equal(other Update) bool {
	return reflect.DeepEqual(u.assignments, other.assignments)
}

func (u Update) String() string {
	parts := make([]string, len(u.assignments))
	for i, a := range u.assignments {
		parts[i] = a.String()
	}

	return strings.Join(parts, ", ")
}

// AddToBuilder completes an AddTo assignment.
type AddToBuilder struct {
	update Update
	column ColumnName
}

// Prepend prepends one element to a list.
func (b AddToBuilder) Prepend(value any) Update {
	return b.PrependAll(value)
}

// PrependAll prepends elements to a list, keeping their order.
func (b AddToBuilder) PrependAll(values ...any) Update {
	return b.update.add(Assignment{Op: AssignPrepend, Column: b.column, Value: expandValues(values)})
}

// Append appends one element to a list or adds it to a set.
func (b AddToBuilder) Append(value any) Update {
	return b.AppendAll(value)
}

// AppendAll appends elements to a list or adds them to a set.
func (b AddToBuilder) AppendAll(values ...any) Update {
	return b.update.add(Assignment{Op: AssignAppend, Column: b.column, Value: expandValues(values)})
}

// Entry puts one entry into a map.
func (b AddToBuilder) Entry(key, value any) Update {
	return b.update.add(Assignment{Op: AssignPutAll, Column: b.column, Value: map[any]any{key: value}})
}

// Entries puts all entries of m, which must be a map, into a map column.
func (b AddToBuilder) Entries(m any) Update {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		u := b.update
		if u.err == nil {
			u.err = types.InvalidArgumentf("entries for %s must be a map, got %T", b.column.Name(), m)
		}

		return u
	}

	entries := make(map[any]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries[iter.Key().Interface()] = iter.Value().Interface()
	}

	return b.update.add(Assignment{Op: AssignPutAll, Column: b.column, Value: entries})
}

// RemoveFromBuilder completes a RemoveFrom assignment.
type RemoveFromBuilder struct {
	update Update
	column ColumnName
}

// Value removes one element (or map key).
func (b RemoveFromBuilder) Value(value any) Update {
	return b.Values(value)
}

// Values removes elements (or map keys).
func (b RemoveFromBuilder) Values(values ...any) Update {
	return b.update.add(Assignment{Op: AssignRemove, Column: b.column, Value: expandValues(values)})
}
