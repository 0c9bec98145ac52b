package mediaprops

import (
	"encoding/json"
	"sort"
)

// PropertyMap holds property values keyed by descriptor. Absence is key
// absence; a nil value is never stored.
type PropertyMap struct {
	values map[*Descriptor]any
}

func NewPropertyMap() PropertyMap {
	return PropertyMap{values: make(map[*Descriptor]any)}
}

// Get returns the value of p in pm.
func Get[T Value](pm PropertyMap, p Property[T]) (T, bool) {
	v, ok := pm.values[p.desc]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// GetOrDefault returns the value of p in pm, or def when absent.
func GetOrDefault[T Value](pm PropertyMap, p Property[T], def T) T {
	if v, ok := Get(pm, p); ok {
		return v
	}
	return def
}

// Put stores value under p.
func Put[T Value](pm *PropertyMap, p Property[T], value T) {
	if pm.values == nil {
		pm.values = make(map[*Descriptor]any)
	}
	pm.values[p.desc] = value
}

// Set stores an untyped value under d. A nil value deletes the key. The
// value must be a string for string properties and an int for unsigned ones.
func (pm *PropertyMap) Set(d *Descriptor, value any) error {
	if value == nil {
		pm.Delete(d)
		return nil
	}

	switch d.kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return mismatch(d, value)
		}
	case KindUint:
		if _, ok := value.(int); !ok {
			return mismatch(d, value)
		}
	}

	if pm.values == nil {
		pm.values = make(map[*Descriptor]any)
	}
	pm.values[d] = value
	return nil
}

func (pm *PropertyMap) Delete(d *Descriptor) {
	delete(pm.values, d)
}

// Value returns the untyped value stored under d.
func (pm PropertyMap) Value(d *Descriptor) (any, bool) {
	v, ok := pm.values[d]
	return v, ok
}

func (pm PropertyMap) Contains(d *Descriptor) bool {
	_, ok := pm.values[d]
	return ok
}

func (pm PropertyMap) Len() int {
	return len(pm.values)
}

// Descriptors returns the keys of pm in ordinal order.
func (pm PropertyMap) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(pm.values))
	for d := range pm.values {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ordinal < out[j].ordinal })
	return out
}

// Equal reports whether both maps hold the same keys and values.
func (pm PropertyMap) Equal(other PropertyMap) bool {
	if len(pm.values) != len(other.values) {
		return false
	}
	for d, v := range pm.values {
		ov, ok := other.values[d]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Idents returns the map keyed by property identifier.
func (pm PropertyMap) Idents() map[string]any {
	out := make(map[string]any, len(pm.values))
	for d, v := range pm.values {
		out[d.ident] = v
	}
	return out
}

// MarshalYAML implements yaml.Marshaler.
func (pm PropertyMap) MarshalYAML() (interface{}, error) {
	return pm.Idents(), nil
}

func (pm PropertyMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(pm.Idents())
}
