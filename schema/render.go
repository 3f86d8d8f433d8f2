package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Spec is a schema change rendered to one or more CQL statements.
type Spec interface {
	Statements() []string
}

// Raw is an option value rendered verbatim instead of as a string literal.
type Raw string

// Option names accepted by CREATE TABLE and ALTER TABLE.
const (
	OptionComment             = "comment"
	OptionCompaction          = "compaction"
	OptionCompression         = "compression"
	OptionCaching             = "caching"
	OptionDefaultTTL          = "default_time_to_live"
	OptionGCGraceSeconds      = "gc_grace_seconds"
	OptionBloomFilterFPChance = "bloom_filter_fp_chance"
	OptionReadRepair          = "read_repair"
	OptionSpeculativeRetry    = "speculative_retry"
)

func qualified(keyspace, name types.Identifier) string {
	if keyspace.IsZero() {
		return name.CQL()
	}

	return keyspace.CQL() + "." + name.CQL()
}

// literal renders an option value as a CQL literal.
func literal(v any) string {
	switch val := v.(type) {
	case Raw:
		return string(val)
	case string:
		return quote(val)
	case bool:
		return strconv.FormatBool(val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]any:
		return mapLiteral(val)
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return mapLiteral(m)
	case fmt.Stringer:
		return quote(val.String())
	}

	return fmt.Sprint(v)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func mapLiteral(m map[string]any) string {
	keys := sortedKeys(m)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = quote(k) + ": " + literal(m[k])
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// options renders "k1 = v1 AND k2 = v2" in key order.
func options(m map[string]any) string {
	keys := sortedKeys(m)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " = " + literal(m[k])
	}

	return strings.Join(parts, " AND ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

func ifNotExists(b bool) string {
	if b {
		return "IF NOT EXISTS "
	}

	return ""
}

func ifExists(b bool) string {
	if b {
		return "IF EXISTS "
	}

	return ""
}
