package mapping

import (
	"reflect"
	"strings"
	"unicode"
)

// NamingStrategy derives default table, user type and column names.
// Explicit names from tags and namer interfaces take precedence.
type NamingStrategy interface {
	// TableName returns the table name for an entity type.
	TableName(t reflect.Type) string

	// UserTypeName returns the user type name for a UDT struct type.
	UserTypeName(t reflect.Type) string

	// ColumnName returns the column name for a struct field.
	ColumnName(field reflect.StructField) string
}

// DefaultNamingStrategy uses Go names unchanged. Because unquoted CQL
// identifiers are case-insensitive, "FirstName" becomes column firstname.
var DefaultNamingStrategy NamingStrategy = defaultNaming{}

// SnakeCaseNamingStrategy converts Go names to snake_case, e.g.
// "FirstName" to first_name and "UserID" to user_id.
var SnakeCaseNamingStrategy NamingStrategy = Transform(defaultNaming{}, SnakeCase)

type defaultNaming struct{}

func (defaultNaming) TableName(t reflect.Type) string             { return t.Name() }
func (defaultNaming) UserTypeName(t reflect.Type) string          { return t.Name() }
func (defaultNaming) ColumnName(field reflect.StructField) string { return field.Name }

type transformNaming struct {
	delegate NamingStrategy
	fn       func(string) string
}

// Transform returns a strategy applying fn to every name produced by strategy.
func Transform(strategy NamingStrategy, fn func(string) string) NamingStrategy {
	return transformNaming{delegate: strategy, fn: fn}
}

func (n transformNaming) TableName(t reflect.Type) string {
	return n.fn(n.delegate.TableName(t))
}

func (n transformNaming) UserTypeName(t reflect.Type) string {
	return n.fn(n.delegate.UserTypeName(t))
}

func (n transformNaming) ColumnName(field reflect.StructField) string {
	return n.fn(n.delegate.ColumnName(field))
}

// SnakeCase converts a Go identifier to snake_case. Runs of upper-case
// letters are treated as one word: "HTTPServer" becomes http_server.
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))

			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
