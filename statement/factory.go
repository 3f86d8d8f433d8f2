package statement

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/spring-projects/spring-data-cassandra-sub011/convert"
	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// DefaultCacheSize is the number of cached statement texts.
const DefaultCacheSize = 1024

// Option configures a Factory.
type Option func(*Factory)

// WithCacheSize sets the size of the statement text cache. Zero disables
// caching.
func WithCacheSize(size int) Option {
	return func(f *Factory) {
		f.cacheSize = size
	}
}

// Factory renders Query, Update and entity operations into statements,
// mapping property names to columns and values to driver values.
//
// A Factory is safe for concurrent use.
type Factory struct {
	converter *convert.Converter
	cacheSize int
	cache     *lru.Cache
}

// NewFactory creates a statement factory.
//
// Parameters:
//   - converter: Converter used for entity values and query parameters
//   - opts: Optional configuration
//
// Returns:
//   - *Factory: The factory
//   - error: If the cache cannot be created
func NewFactory(converter *convert.Converter, opts ...Option) (*Factory, error) {
	f := &Factory{converter: converter, cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(f)
	}

	if f.cacheSize > 0 {
		cache, err := lru.New(f.cacheSize)
		if err != nil {
			return nil, err
		}
		f.cache = cache
	}

	return f, nil
}

// Converter returns the converter.
func (f *Factory) Converter() *convert.Converter {
	return f.converter
}

// CachedStatements returns the number of cached statement texts.
func (f *Factory) CachedStatements() int {
	if f.cache == nil {
		return 0
	}

	return f.cache.Len()
}

// cached returns the statement text for key, rendering and storing it on
// a miss.
func (f *Factory) cached(key string, render func() string) string {
	if f.cache == nil {
		return render()
	}
	if val, ok := f.cache.Get(key); ok {
		return val.(string)
	}

	text := render()
	f.cache.Add(key, text)

	return text
}

func cacheKey(kind string, e *mapping.PersistentEntity, opts query.QueryOptions) string {
	return fmt.Sprintf("%s|%s|%s", kind, e.Type(), opts.Keyspace)
}

// tableName renders the table of e, qualified by the options keyspace or
// the entity keyspace.
func tableName(e *mapping.PersistentEntity, opts query.QueryOptions) string {
	switch {
	case opts.Keyspace != "":
		return types.ParseIdentifier(opts.Keyspace).CQL() + "." + e.TableName().CQL()
	case !e.Keyspace().IsZero():
		return e.Keyspace().CQL() + "." + e.TableName().CQL()
	default:
		return e.TableName().CQL()
	}
}

func tableEntity(e *mapping.PersistentEntity) error {
	if e == nil {
		return types.InvalidArgumentf("entity must not be nil")
	}
	if e.IsUserDefinedType() || e.IsCompositePrimaryKey() {
		return types.InvalidArgumentf("%s is not a table entity", e.Type())
	}

	return nil
}
