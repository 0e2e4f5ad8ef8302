package object

import (
	"strings"

	"github.com/quill-lang/quill/op"
)

// Set of hashable objects. Insertion order is preserved.
type Set struct {
	items map[HashKey]Object
	order []HashKey
}

func (s *Set) GetAttr(name string) (Object, bool) {
	return nil, false
}

func (s *Set) SetAttr(name string, value Object) error {
	return TypeErrorf("type error: set has no attribute %q", name)
}

func (s *Set) Type() Type {
	return SET
}

func (s *Set) Inspect() string {
	var out strings.Builder
	items := make([]string, 0, len(s.order))
	for _, hk := range s.order {
		items = append(items, s.items[hk].Inspect())
	}
	out.WriteString("{")
	out.WriteString(strings.Join(items, ", "))
	out.WriteString("}")
	return out.String()
}

func (s *Set) String() string {
	return s.Inspect()
}

func (s *Set) Interface() interface{} {
	items := make([]interface{}, 0, len(s.order))
	for _, hk := range s.order {
		items = append(items, s.items[hk].Interface())
	}
	return items
}

func (s *Set) Equals(other Object) bool {
	otherSet, ok := other.(*Set)
	if !ok {
		return false
	}
	if len(s.items) != len(otherSet.items) {
		return false
	}
	for hk := range s.items {
		if _, found := otherSet.items[hk]; !found {
			return false
		}
	}
	return true
}

func (s *Set) IsTruthy() bool {
	return len(s.items) > 0
}

func (s *Set) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("type error: unsupported operation for set: %v", opType)
}

// Add inserts an item into the set, in place. An error is returned if the
// item is not hashable.
func (s *Set) Add(item Object) error {
	hashable, ok := item.(Hashable)
	if !ok {
		return TypeErrorf("type error: unhashable set item (got %s)", item.Type())
	}
	hk := hashable.HashKey()
	if _, exists := s.items[hk]; !exists {
		s.order = append(s.order, hk)
		s.items[hk] = item
	}
	return nil
}

// Items returns the set items in insertion order.
func (s *Set) Items() []Object {
	items := make([]Object, 0, len(s.order))
	for _, hk := range s.order {
		items = append(items, s.items[hk])
	}
	return items
}

func (s *Set) GetItem(key Object) (Object, *Error) {
	return nil, NewError(TypeErrorf("type error: set does not support indexing"))
}

func (s *Set) SetItem(key, value Object) *Error {
	return NewError(TypeErrorf("type error: set does not support item assignment"))
}

func (s *Set) Contains(item Object) *Bool {
	hashable, ok := item.(Hashable)
	if !ok {
		return False
	}
	_, found := s.items[hashable.HashKey()]
	return NewBool(found)
}

func (s *Set) Len() *Int {
	return NewInt(int64(len(s.items)))
}

// Iter returns an iterator over the set items, in insertion order.
func (s *Set) Iter() Iterator {
	return &listIterator{items: s.Items()}
}

// NewSet creates a Set from the given items. Unhashable items are reported
// as an error.
func NewSet(items []Object) (*Set, error) {
	s := NewEmptySet()
	for _, item := range items {
		if err := s.Add(item); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewEmptySet creates an empty Set.
func NewEmptySet() *Set {
	return &Set{items: map[HashKey]Object{}}
}
