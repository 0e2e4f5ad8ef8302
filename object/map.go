package object

import (
	"strings"

	"github.com/quill-lang/quill/op"
)

type mapEntry struct {
	key   Object
	value Object
}

// Map of hashable keys to objects. Insertion order is preserved.
type Map struct {
	items map[HashKey]*mapEntry
	order []HashKey
}

func (m *Map) GetAttr(name string) (Object, bool) {
	return nil, false
}

func (m *Map) SetAttr(name string, value Object) error {
	return TypeErrorf("type error: map has no attribute %q", name)
}

func (m *Map) Type() Type {
	return MAP
}

func (m *Map) Inspect() string {
	var out strings.Builder
	items := make([]string, 0, len(m.order))
	for _, hk := range m.order {
		entry := m.items[hk]
		items = append(items, entry.key.Inspect()+": "+entry.value.Inspect())
	}
	out.WriteString("{")
	out.WriteString(strings.Join(items, ", "))
	out.WriteString("}")
	return out.String()
}

func (m *Map) String() string {
	return m.Inspect()
}

func (m *Map) Interface() interface{} {
	result := make(map[string]interface{}, len(m.order))
	for _, hk := range m.order {
		entry := m.items[hk]
		result[entry.key.Inspect()] = entry.value.Interface()
	}
	return result
}

func (m *Map) Equals(other Object) bool {
	otherMap, ok := other.(*Map)
	if !ok {
		return false
	}
	if len(m.items) != len(otherMap.items) {
		return false
	}
	for hk, entry := range m.items {
		otherEntry, found := otherMap.items[hk]
		if !found || !entry.value.Equals(otherEntry.value) {
			return false
		}
	}
	return true
}

func (m *Map) IsTruthy() bool {
	return len(m.items) > 0
}

func (m *Map) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("type error: unsupported operation for map: %v", opType)
}

// Set stores a key-value pair, in place. An error is returned if the key is
// not hashable.
func (m *Map) Set(key, value Object) error {
	hashable, ok := key.(Hashable)
	if !ok {
		return TypeErrorf("type error: unhashable map key (got %s)", key.Type())
	}
	hk := hashable.HashKey()
	if _, exists := m.items[hk]; !exists {
		m.order = append(m.order, hk)
	}
	m.items[hk] = &mapEntry{key: key, value: value}
	return nil
}

// Get returns the value for the given key, if present.
func (m *Map) Get(key Object) (Object, bool) {
	hashable, ok := key.(Hashable)
	if !ok {
		return nil, false
	}
	entry, found := m.items[hashable.HashKey()]
	if !found {
		return nil, false
	}
	return entry.value, true
}

// Keys returns the map keys in insertion order.
func (m *Map) Keys() []Object {
	keys := make([]Object, 0, len(m.order))
	for _, hk := range m.order {
		keys = append(keys, m.items[hk].key)
	}
	return keys
}

func (m *Map) GetItem(key Object) (Object, *Error) {
	value, found := m.Get(key)
	if !found {
		return nil, NewError(ValueErrorf("key error: %s", key.Inspect()))
	}
	return value, nil
}

func (m *Map) SetItem(key, value Object) *Error {
	if err := m.Set(key, value); err != nil {
		return NewError(err)
	}
	return nil
}

func (m *Map) Contains(item Object) *Bool {
	_, found := m.Get(item)
	return NewBool(found)
}

func (m *Map) Len() *Int {
	return NewInt(int64(len(m.items)))
}

// Iter returns an iterator over the map keys, in insertion order.
func (m *Map) Iter() Iterator {
	return &listIterator{items: m.Keys()}
}

var _ Iterator = (*listIterator)(nil)

// NewMap creates a Map from the given key-value pairs. Unhashable keys are
// reported as an error.
func NewMap(pairs []Object) (*Map, error) {
	if len(pairs)%2 != 0 {
		return nil, EvalErrorf("eval error: map requires an even number of items")
	}
	m := NewEmptyMap()
	for i := 0; i < len(pairs); i += 2 {
		if err := m.Set(pairs[i], pairs[i+1]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewEmptyMap creates an empty Map.
func NewEmptyMap() *Map {
	return &Map{items: map[HashKey]*mapEntry{}}
}
