package query

import "strings"

// Direction is a sort direction.
type Direction int

// Sort directions.
const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}

	return "ASC"
}

// Order sorts by one property or column.
type Order struct {
	Property  string
	Direction Direction
}

// Asc orders by property ascending.
func Asc(property string) Order {
	return Order{Property: property, Direction: Ascending}
}

// Desc orders by property descending.
func Desc(property string) Order {
	return Order{Property: property, Direction: Descending}
}

func (o Order) String() string {
	return o.Property + " " + o.Direction.String()
}

// Sort is an immutable list of orders. Cassandra only sorts by clustering
// columns, in clustering order or its reverse.
type Sort struct {
	orders []Order
}

// Unsorted returns a sort without orders.
func Unsorted() Sort {
	return Sort{}
}

// By sorts ascending by the given properties.
func By(properties ...string) Sort {
	orders := make([]Order, len(properties))
	for i, p := range properties {
		orders[i] = Asc(p)
	}

	return Sort{orders: orders}
}

// ByOrders creates a sort from orders.
func ByOrders(orders ...Order) Sort {
	return Sort{orders: append([]Order(nil), orders...)}
}

// And returns a sort with the orders of other appended.
func (s Sort) And(other Sort) Sort {
	if len(other.orders) == 0 {
		return s
	}

	orders := make([]Order, 0, len(s.orders)+len(other.orders))
	orders = append(orders, s.orders...)

	return Sort{orders: append(orders, other.orders...)}
}

// Descending returns a copy with all orders descending.
func (s Sort) Descending() Sort {
	orders := make([]Order, len(s.orders))
	for i, o := range s.orders {
		orders[i] = Desc(o.Property)
	}

	return Sort{orders: orders}
}

// IsSorted reports whether the sort has orders.
func (s Sort) IsSorted() bool {
	return len(s.orders) > 0
}

// Orders returns a copy of the orders.
func (s Sort) Orders() []Order {
	return append([]Order(nil), s.orders...)
}

func (s Sort) String() string {
	if !s.IsSorted() {
		return "UNSORTED"
	}

	parts := make([]string, len(s.orders))
	for i, o := range s.orders {
		parts[i] = o.String()
	}

	return strings.Join(parts, ", ")
}
