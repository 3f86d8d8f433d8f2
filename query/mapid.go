package query

// MapID is a composite identifier keyed by property or column name, used
// for entities whose primary key spans several properties.
type MapID map[string]any

// ID creates a MapID with one entry.
func ID(name string, value any) MapID {
	return MapID{name: value}
}

// With returns a copy of m with name set to value.
func (m MapID) With(name string, value any) MapID {
	result := make(MapID, len(m)+1)
	for k, v := range m {
		result[k] = v
	}
	result[name] = value

	return result
}
