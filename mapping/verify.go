package mapping

import (
	"reflect"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// verify checks an entity after its properties have been collected.
func (e *PersistentEntity) verify() error {
	switch e.kind {
	case userTypeEntity:
		return e.verifyUserType()
	case keyEntity:
		return e.verifyCompositeKey()
	default:
		return e.verifyTable()
	}
}

func (e *PersistentEntity) verifyTable() error {
	var ids, keyTags, versions int
	for _, p := range e.properties {
		if p.ID || p.IsCompositePrimaryKey() {
			ids++
		}
		if p.Partition || p.Clustering {
			keyTags++
		}
		if p.Version {
			versions++
		}
	}

	switch {
	case ids > 1:
		return types.MappingErrorf("%s declares more than one id or pk property", e.typ)
	case ids == 1 && keyTags > 0:
		return types.MappingErrorf("%s mixes an id or pk property with partition/clustering tags", e.typ)
	case len(e.partition) == 0:
		return types.MappingErrorf("%s has no primary key; tag a field with id or partition", e.typ)
	case versions > 1:
		return types.MappingErrorf("%s declares more than one version property", e.typ)
	}

	if e.version != nil {
		if err := verifyVersionType(e.version); err != nil {
			return err
		}
	}

	if err := verifyOrdinals(e.typ, "partition", e.partition); err != nil {
		return err
	}
	if err := verifyOrdinals(e.typ, "clustering", e.clustering); err != nil {
		return err
	}

	for _, p := range e.columns {
		if p.Static && p.IsPrimaryKeyColumn() {
			return types.MappingErrorf("%s: key column %s cannot be static", e.typ, p.Path)
		}
		if p.Static && len(e.clustering) == 0 {
			return types.MappingErrorf("%s: static column %s requires clustering columns", e.typ, p.Path)
		}
		if p.Version && p.IsPrimaryKeyColumn() {
			return types.MappingErrorf("%s: key column %s cannot be a version", e.typ, p.Path)
		}
	}

	return e.verifyUniqueColumns()
}

func (e *PersistentEntity) verifyCompositeKey() error {
	for _, p := range e.properties {
		if !p.Partition && !p.Clustering {
			return types.MappingErrorf("%s: composite key field %s must be tagged partition or clustering", e.typ, p.Name)
		}
		if p.ID || p.Version || p.Static || p.IsCompositePrimaryKey() {
			return types.MappingErrorf("%s: composite key field %s may only carry key options", e.typ, p.Name)
		}
	}
	if len(e.partition) == 0 {
		return types.MappingErrorf("%s: composite key requires at least one partition column", e.typ)
	}

	if err := verifyOrdinals(e.typ, "partition", e.partition); err != nil {
		return err
	}
	if err := verifyOrdinals(e.typ, "clustering", e.clustering); err != nil {
		return err
	}

	return e.verifyUniqueColumns()
}

func (e *PersistentEntity) verifyUserType() error {
	for _, p := range e.properties {
		if p.IsPrimaryKeyColumn() || p.IsCompositePrimaryKey() || p.Static || p.Version || p.Indexed {
			return types.MappingErrorf("%s: user type field %s cannot carry key, static, version or index options", e.typ, p.Name)
		}
	}

	return e.verifyUniqueColumns()
}

func (e *PersistentEntity) verifyUniqueColumns() error {
	seen := make(map[string]string, len(e.columns))
	for _, p := range e.columns {
		key := p.Column.Canonical()
		if other, dup := seen[key]; dup {
			return types.MappingErrorf("%s: %s and %s both map to column %s", e.typ, other, p.Path, p.Column.CQL())
		}
		seen[key] = p.Path
	}

	return nil
}

func verifyOrdinals(t reflect.Type, kind string, keys []*PersistentProperty) error {
	seen := make(map[int]string, len(keys))
	for _, p := range keys {
		if p.Ordinal < 0 {
			continue
		}
		if other, dup := seen[p.Ordinal]; dup {
			return types.MappingErrorf("%s: %s columns %s and %s share ordinal %d", t, kind, other, p.Path, p.Ordinal)
		}
		seen[p.Ordinal] = p.Path
	}

	return nil
}

func verifyVersionType(p *PersistentProperty) error {
	t := p.Type
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return nil
	default:
		return types.MappingErrorf("version property %s must be an int, int32 or int64, got %s", p.Path, p.Type)
	}
}
