package mapping

import (
	"strconv"
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// TagName is the struct tag key read by the mapping context.
const TagName = "cql"

// Ordering is the clustering order of a clustering column.
type Ordering int

// Clustering orders.
const (
	Ascending Ordering = iota
	Descending
)

func (o Ordering) String() string {
	if o == Descending {
		return "DESC"
	}

	return "ASC"
}

// fieldTag is a parsed `cql:"..."` tag.
type fieldTag struct {
	name       string
	transient  bool
	id         bool
	partition  bool
	clustering bool
	ordinal    int
	hasOrdinal bool
	ordering   Ordering
	cqlType    string
	frozen     bool
	static     bool
	indexed    bool
	indexName  string
	quoted     bool
	version    bool
	set        bool
	pk         bool
}

// parseTag parses the tag grammar:
//
//	cql:"-"
//	cql:"name,opt,opt=value,..."
//
// Options: id, partition, clustering, ordinal=N, order=asc|desc, type=<cql>,
// frozen, static, index[=name], quoted, version, set, pk.
func parseTag(tag string) (fieldTag, error) {
	if tag == "-" {
		return fieldTag{transient: true}, nil
	}

	parts := splitTag(tag)
	ft := fieldTag{name: strings.TrimSpace(parts[0])}

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, "=")
		switch key {
		case "id":
			ft.id = true
		case "partition":
			ft.partition = true
		case "clustering":
			ft.clustering = true
		case "ordinal":
			n, err := strconv.Atoi(value)
			if err != nil || !hasValue {
				return fieldTag{}, types.MappingErrorf("invalid ordinal %q in tag %q", value, tag)
			}
			ft.ordinal = n
			ft.hasOrdinal = true
		case "order":
			switch strings.ToLower(value) {
			case "asc", "ascending":
				ft.ordering = Ascending
			case "desc", "descending":
				ft.ordering = Descending
			default:
				return fieldTag{}, types.MappingErrorf("invalid order %q in tag %q", value, tag)
			}
		case "type":
			if value == "" {
				return fieldTag{}, types.MappingErrorf("empty type in tag %q", tag)
			}
			ft.cqlType = value
		case "frozen":
			ft.frozen = true
		case "static":
			ft.static = true
		case "index":
			ft.indexed = true
			ft.indexName = value
		case "quoted":
			ft.quoted = true
		case "version":
			ft.version = true
		case "set":
			ft.set = true
		case "pk":
			ft.pk = true
		default:
			return fieldTag{}, types.MappingErrorf("unknown option %q in tag %q", key, tag)
		}
	}

	return ft, nil
}

// splitTag splits on commas that are not nested inside <...>, so that
// type=map<text, int> stays one option.
func splitTag(tag string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range tag {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, tag[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, tag[start:])
}

// identifierFor creates an identifier from a configured name. Names wrapped
// in double quotes and names with force set are quoted.
func identifierFor(name string, force bool) types.Identifier {
	if force && !strings.HasPrefix(name, `"`) {
		return types.QuotedIdentifier(name)
	}

	return types.ParseIdentifier(name)
}
