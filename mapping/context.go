package mapping

import (
	"reflect"
	"sort"
	"sync"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Option configures a Context.
type Option func(*Context)

// WithNamingStrategy sets the naming strategy used for entities created
// after the option is applied.
func WithNamingStrategy(strategy NamingStrategy) Option {
	return func(c *Context) {
		if strategy != nil {
			c.naming = strategy
		}
	}
}

// Context derives and caches entity metadata from Go struct types.
//
// Entities are built on first use and verified before they are cached; a
// type that fails verification is not cached and fails again on every
// lookup. Context is safe for concurrent use.
type Context struct {
	mu       sync.RWMutex
	naming   NamingStrategy
	entities map[reflect.Type]*PersistentEntity
	order    []*PersistentEntity
	building map[reflect.Type]bool
}

// NewContext creates a mapping context.
func NewContext(opts ...Option) *Context {
	c := &Context{
		naming:   DefaultNamingStrategy,
		entities: make(map[reflect.Type]*PersistentEntity),
		building: make(map[reflect.Type]bool),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetNamingStrategy replaces the naming strategy. Entities already cached
// keep their names.
func (c *Context) SetNamingStrategy(strategy NamingStrategy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strategy != nil {
		c.naming = strategy
	}
}

// Register builds the entities of the given values or types up front.
func (c *Context) Register(values ...any) error {
	for _, v := range values {
		if _, err := c.EntityFor(v); err != nil {
			return err
		}
	}

	return nil
}

// EntityFor returns the entity of a struct value, a pointer to one, a
// slice of either, or a reflect.Type.
func (c *Context) EntityFor(v any) (*PersistentEntity, error) {
	if v == nil {
		return nil, types.InvalidArgumentf("cannot resolve entity of nil")
	}

	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}

	return c.Entity(t)
}

// Entity returns the entity of a struct type. Pointer and slice types are
// dereferenced to their struct element.
func (c *Context) Entity(t reflect.Type) (*PersistentEntity, error) {
	t = structType(t)
	if t == nil {
		return nil, types.MappingErrorf("entity type must be a struct")
	}

	c.mu.RLock()
	e, ok := c.entities[t]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kind := tableEntity
	if implements[UserTypeNamer](t) {
		kind = userTypeEntity
	}

	return c.build(t, kind)
}

// UserTypeEntity returns the entity of a struct type mapped as a
// user-defined type. It fails when t is already mapped as a table.
func (c *Context) UserTypeEntity(t reflect.Type) (*PersistentEntity, error) {
	t = structType(t)
	if t == nil {
		return nil, types.MappingErrorf("user type must be a struct")
	}

	c.mu.RLock()
	e, ok := c.entities[t]
	c.mu.RUnlock()
	if ok && e.kind == userTypeEntity {
		return e, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.build(t, userTypeEntity)
}

// Contains reports whether an entity for t is cached.
func (c *Context) Contains(t reflect.Type) bool {
	t = structType(t)
	if t == nil {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.entities[t]

	return ok
}

// Entities returns all cached entities in creation order. User types are
// always created before the entities referencing them.
func (c *Context) Entities() []*PersistentEntity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]*PersistentEntity(nil), c.order...)
}

// TableEntities returns the cached table entities sorted by table name.
func (c *Context) TableEntities() []*PersistentEntity {
	var tables []*PersistentEntity
	for _, e := range c.Entities() {
		if e.kind == tableEntity {
			tables = append(tables, e)
		}
	}

	sort.SliceStable(tables, func(i, j int) bool {
		return tables[i].name.Canonical() < tables[j].name.Canonical()
	})

	return tables
}

// UserTypeEntities returns the cached user types in dependency order: a
// user type is listed after every user type it references.
func (c *Context) UserTypeEntities() []*PersistentEntity {
	var udts []*PersistentEntity
	for _, e := range c.Entities() {
		if e.kind == userTypeEntity {
			udts = append(udts, e)
		}
	}

	return udts
}

func structType(t reflect.Type) reflect.Type {
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct || t == timeType {
		return nil
	}

	return t
}

func implements[I any](t reflect.Type) bool {
	_, ok := reflect.New(t).Interface().(I)
	return ok
}

func namerValue[I any](t reflect.Type) (I, bool) {
	v, ok := reflect.New(t).Interface().(I)
	return v, ok
}

// build creates, verifies and caches an entity. c.mu must be held.
func (c *Context) build(t reflect.Type, kind entityKind) (*PersistentEntity, error) {
	if e, ok := c.entities[t]; ok {
		if kind == userTypeEntity && e.kind != userTypeEntity {
			return nil, types.MappingErrorf("%s is mapped as a table and cannot be used as a user type", t)
		}

		return e, nil
	}
	if c.building[t] {
		return nil, types.MappingErrorf("recursive type reference through %s", t)
	}

	c.building[t] = true
	defer delete(c.building, t)

	e := &PersistentEntity{typ: t, kind: kind}
	switch kind {
	case userTypeEntity:
		name := c.naming.UserTypeName(t)
		if namer, ok := namerValue[UserTypeNamer](t); ok {
			name = namer.UserTypeName()
		}
		e.name = identifierFor(name, false)
	case tableEntity:
		name := c.naming.TableName(t)
		if namer, ok := namerValue[TableNamer](t); ok {
			name = namer.TableName()
		}
		e.name = identifierFor(name, false)
		if namer, ok := namerValue[KeyspaceNamer](t); ok && namer.KeyspaceName() != "" {
			e.keyspace = identifierFor(namer.KeyspaceName(), false)
		}
	case keyEntity:
		e.name = identifierFor(t.Name(), false)
	}

	declared := 0
	if err := c.collect(e, t, nil, "", &declared); err != nil {
		return nil, err
	}

	e.flatten()
	if err := e.verify(); err != nil {
		return nil, err
	}
	e.index()

	c.entities[t] = e
	c.order = append(c.order, e)

	return e, nil
}

func (c *Context) collect(e *PersistentEntity, t reflect.Type, index []int, prefix string, declared *int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, hasTag := f.Tag.Lookup(TagName)
		ft, err := parseTag(tag)
		if err != nil {
			return types.MappingErrorf("%s.%s: %v", t, f.Name, err)
		}
		if ft.transient {
			continue
		}

		idx := make([]int, len(index)+1)
		copy(idx, index)
		idx[len(index)] = i

		if !f.IsExported() {
			continue
		}

		ftype := f.Type
		if ftype.Kind() == reflect.Pointer {
			ftype = ftype.Elem()
		}

		// Untagged embedded structs are flattened like encoding/json does.
		if f.Anonymous && ftype.Kind() == reflect.Struct && ftype != timeType && (!hasTag || (ft.name == "" && !ft.pk)) {
			if err := c.collect(e, ftype, idx, prefix, declared); err != nil {
				return err
			}

			continue
		}

		p, err := c.property(e, f, ft, idx, prefix)
		if err != nil {
			return types.MappingErrorf("%s.%s: %v", e.typ, f.Name, err)
		}
		p.declared = *declared
		*declared++
		e.properties = append(e.properties, p)
	}

	return nil
}

func (c *Context) property(e *PersistentEntity, f reflect.StructField, ft fieldTag, idx []int, prefix string) (*PersistentProperty, error) {
	name := ft.name
	if name == "" {
		name = c.naming.ColumnName(f)
	}

	p := &PersistentProperty{
		Name:       f.Name,
		Path:       prefix + f.Name,
		Index:      idx,
		Type:       f.Type,
		Column:     identifierFor(name, ft.quoted),
		ID:         ft.id,
		Partition:  ft.partition,
		Clustering: ft.clustering,
		Ordinal:    ft.ordinal,
		Ordering:   ft.ordering,
		Static:     ft.static,
		Indexed:    ft.indexed,
		IndexName:  ft.indexName,
		Version:    ft.version,
	}
	if ft.hasOrdinal {
		p.Ordinal = ft.ordinal
	} else {
		p.Ordinal = -1
	}

	if ft.pk {
		kt := structType(f.Type)
		if kt == nil {
			return nil, types.MappingErrorf("pk property must be a struct")
		}
		key, err := c.build(kt, keyEntity)
		if err != nil {
			return nil, err
		}
		p.CompositeKey = key

		return p, nil
	}

	var deps []*PersistentEntity
	dt, resolveErr := c.resolveType(f.Type, ft.set, &deps)
	if ft.cqlType != "" {
		parsed, err := ParseDataType(ft.cqlType)
		if err != nil {
			return nil, err
		}
		dt = parsed
	} else if resolveErr != nil {
		return nil, resolveErr
	}

	// key columns and user type fields cannot hold non-frozen collections or user types
	if ft.frozen || ((p.IsPrimaryKeyColumn() || e.kind == userTypeEntity) && !isScalar(dt)) {
		dt = Frozen(dt)
	}

	p.DataType = dt
	if len(deps) > 0 {
		p.UserType = deps[0]
	}
	for _, d := range deps {
		e.userTypeDeps = appendUnique(e.userTypeDeps, d)
	}

	return p, nil
}

func isScalar(t DataType) bool {
	return t.Kind() == KindScalar
}

// flatten expands composite key properties into columns and orders keys.
func (e *PersistentEntity) flatten() {
	e.columns = e.columns[:0]
	for _, p := range e.properties {
		if p.IsCompositePrimaryKey() {
			e.idProperty = p
			for _, keys := range [][]*PersistentProperty{p.CompositeKey.partition, p.CompositeKey.clustering} {
				for i, kp := range keys {
					col := *kp
					col.Index = append(append([]int(nil), p.Index...), kp.Index...)
					col.Path = p.Name + "." + kp.Path
					col.declared = p.declared
					if col.Ordinal < 0 {
						col.Ordinal = i
					}
					e.columns = append(e.columns, &col)
				}
			}
			for _, d := range p.CompositeKey.userTypeDeps {
				e.userTypeDeps = appendUnique(e.userTypeDeps, d)
			}

			continue
		}

		if p.ID {
			e.idProperty = p
		}
		if p.Version {
			e.version = p
		}
		e.columns = append(e.columns, p)
	}

	e.partition, e.clustering = nil, nil
	for _, p := range e.columns {
		switch {
		case p.Partition || p.ID:
			e.partition = append(e.partition, p)
		case p.Clustering:
			e.clustering = append(e.clustering, p)
		}
	}

	byOrdinal := func(keys []*PersistentProperty) func(i, j int) bool {
		return func(i, j int) bool {
			return effectiveOrdinal(keys[i]) < effectiveOrdinal(keys[j])
		}
	}
	sort.SliceStable(e.partition, byOrdinal(e.partition))
	sort.SliceStable(e.clustering, byOrdinal(e.clustering))
}

func effectiveOrdinal(p *PersistentProperty) int {
	if p.Ordinal >= 0 {
		return p.Ordinal
	}

	return p.declared
}
