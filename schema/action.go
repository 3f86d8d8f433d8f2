package schema

import (
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Action is the schema action applied on startup.
type Action int

const (
	// ActionNone leaves the schema untouched.
	ActionNone Action = iota
	// ActionCreate creates user types, tables and indexes and fails when
	// one already exists.
	ActionCreate
	// ActionCreateIfNotExists creates missing user types, tables and indexes.
	ActionCreateIfNotExists
	// ActionRecreate drops the mapped tables and user types, then creates them.
	ActionRecreate
	// ActionRecreateDropUnused drops every table and user type of the
	// keyspace, then creates the mapped ones.
	ActionRecreateDropUnused
)

var actionNames = map[Action]string{
	ActionNone:               "none",
	ActionCreate:             "create",
	ActionCreateIfNotExists:  "create_if_not_exists",
	ActionRecreate:           "recreate",
	ActionRecreateDropUnused: "recreate_drop_unused",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}

	return "unknown"
}

// ParseAction parses an action name. Names are case-insensitive and accept
// '-' in place of '_'.
func ParseAction(s string) (Action, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if name == "" {
		return ActionNone, nil
	}
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}

	return ActionNone, types.InvalidArgumentf("unknown schema action %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed

	return nil
}
