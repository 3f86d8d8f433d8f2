package types

import (
	"regexp"
	"strings"
)

// unquotedPattern matches identifiers that can be used without quoting.
var unquotedPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// reservedKeywords cannot be used as unquoted identifiers.
var reservedKeywords = map[string]struct{}{}

func init() {
	for _, kw := range []string{
		"ADD", "ALLOW", "ALTER", "AND", "APPLY", "ASC", "AUTHORIZE", "BATCH",
		"BEGIN", "BY", "COLUMNFAMILY", "CREATE", "DEFAULT", "DELETE", "DESC",
		"DESCRIBE", "DROP", "ENTRIES", "EXECUTE", "FROM", "FULL", "GRANT",
		"IF", "IN", "INDEX", "INFINITY", "INSERT", "INTO", "IS", "KEYSPACE",
		"LIMIT", "MATERIALIZED", "MBEAN", "MBEANS", "MODIFY", "NAN",
		"NORECURSIVE", "NOT", "NULL", "OF", "ON", "OR", "ORDER", "PRIMARY",
		"RENAME", "REPLACE", "REVOKE", "SCHEMA", "SELECT", "SET", "TABLE",
		"TO", "TOKEN", "TRUNCATE", "UNLOGGED", "UNSET", "UPDATE", "USE",
		"USING", "VIEW", "WHERE", "WITH",
	} {
		reservedKeywords[kw] = struct{}{}
	}
}

// IsReservedKeyword reports whether word is a reserved CQL keyword.
func IsReservedKeyword(word string) bool {
	_, ok := reservedKeywords[strings.ToUpper(word)]
	return ok
}

// IsValidUnquoted reports whether name can be used as an unquoted identifier.
func IsValidUnquoted(name string) bool {
	return unquotedPattern.MatchString(name) && !IsReservedKeyword(name)
}

// Identifier is a CQL identifier for keyspaces, tables, columns, types and indexes.
//
// The zero value is an empty identifier; see IsZero.
type Identifier struct {
	name   string
	quoted bool
}

// NewIdentifier creates an identifier that is quoted only when required.
//
// Legal unquoted names are case-insensitive and render lower-cased.
// Reserved keywords and names with other characters render quoted.
func NewIdentifier(name string) Identifier {
	if IsValidUnquoted(name) {
		return Identifier{name: name}
	}

	return Identifier{name: name, quoted: true}
}

// QuotedIdentifier creates an identifier that always renders quoted and is
// therefore case-sensitive.
func QuotedIdentifier(name string) Identifier {
	return Identifier{name: name, quoted: true}
}

// Name returns the name as given.
func (id Identifier) Name() string {
	return id.name
}

// IsQuoted reports whether the identifier renders quoted.
func (id Identifier) IsQuoted() bool {
	return id.quoted
}

// IsZero reports whether the identifier is empty.
func (id Identifier) IsZero() bool {
	return id.name == ""
}

// CQL renders the identifier for use in a CQL statement.
func (id Identifier) CQL() string {
	if id.quoted {
		return `"` + strings.ReplaceAll(id.name, `"`, `""`) + `"`
	}

	return strings.ToLower(id.name)
}

// String returns the CQL rendering.
func (id Identifier) String() string {
	return id.CQL()
}

// Canonical returns the name as Cassandra stores it in the schema tables:
// lower-cased for unquoted identifiers, verbatim for quoted ones.
func (id Identifier) Canonical() string {
	if id.quoted {
		return id.name
	}

	return strings.ToLower(id.name)
}

// Equal reports whether both identifiers refer to the same schema element.
func (id Identifier) Equal(other Identifier) bool {
	return id.Canonical() == other.Canonical()
}

// ParseIdentifier parses a name as written in CQL: a name in double quotes
// is case-sensitive and may contain escaped quotes, any other name is
// treated like NewIdentifier.
func ParseIdentifier(name string) Identifier {
	if len(name) >= 2 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return QuotedIdentifier(strings.ReplaceAll(name[1:len(name)-1], `""`, `"`))
	}

	return NewIdentifier(name)
}

// CanonicalIdentifier creates an identifier from a name as stored in the
// schema tables, quoting it when the stored form is not lower-case.
func CanonicalIdentifier(name string) Identifier {
	if name == strings.ToLower(name) && IsValidUnquoted(name) {
		return Identifier{name: name}
	}

	return Identifier{name: name, quoted: true}
}
