package object

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/quill-lang/quill/op"
)

// List of objects.
type List struct {
	items []Object
}

func (ls *List) GetAttr(name string) (Object, bool) {
	return nil, false
}

func (ls *List) SetAttr(name string, value Object) error {
	return TypeErrorf("type error: list has no attribute %q", name)
}

func (ls *List) Type() Type {
	return LIST
}

func (ls *List) Value() []Object {
	return ls.items
}

func (ls *List) Inspect() string {
	var out strings.Builder
	items := make([]string, 0, len(ls.items))
	for _, item := range ls.items {
		items = append(items, item.Inspect())
	}
	out.WriteString("[")
	out.WriteString(strings.Join(items, ", "))
	out.WriteString("]")
	return out.String()
}

func (ls *List) String() string {
	return ls.Inspect()
}

func (ls *List) Interface() interface{} {
	items := make([]interface{}, 0, len(ls.items))
	for _, item := range ls.items {
		items = append(items, item.Interface())
	}
	return items
}

func (ls *List) Equals(other Object) bool {
	otherList, ok := other.(*List)
	if !ok {
		return false
	}
	if len(ls.items) != len(otherList.items) {
		return false
	}
	for i, item := range ls.items {
		if !item.Equals(otherList.items[i]) {
			return false
		}
	}
	return true
}

func (ls *List) IsTruthy() bool {
	return len(ls.items) > 0
}

func (ls *List) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	if opType == op.Add {
		otherList, ok := right.(*List)
		if !ok {
			return nil, TypeErrorf("type error: unable to add list and %s", right.Type())
		}
		combined := make([]Object, 0, len(ls.items)+len(otherList.items))
		combined = append(combined, ls.items...)
		combined = append(combined, otherList.items...)
		return NewList(combined), nil
	}
	return nil, TypeErrorf("type error: unsupported operation for list: %v", opType)
}

// Append adds an item to the end of the list, in place.
func (ls *List) Append(item Object) {
	ls.items = append(ls.items, item)
}

func (ls *List) GetItem(key Object) (Object, *Error) {
	index, ok := key.(*Int)
	if !ok {
		return nil, NewError(TypeErrorf("type error: list index must be an int (got %s)", key.Type()))
	}
	idx, err := ResolveIndex(index.value, int64(len(ls.items)))
	if err != nil {
		return nil, NewError(err)
	}
	return ls.items[idx], nil
}

func (ls *List) SetItem(key, value Object) *Error {
	index, ok := key.(*Int)
	if !ok {
		return NewError(TypeErrorf("type error: list index must be an int (got %s)", key.Type()))
	}
	idx, err := ResolveIndex(index.value, int64(len(ls.items)))
	if err != nil {
		return NewError(err)
	}
	ls.items[idx] = value
	return nil
}

func (ls *List) Contains(item Object) *Bool {
	for _, it := range ls.items {
		if it.Equals(item) {
			return True
		}
	}
	return False
}

func (ls *List) Len() *Int {
	return NewInt(int64(len(ls.items)))
}

// Iter returns an iterator over the items of the list.
func (ls *List) Iter() Iterator {
	return &listIterator{items: ls.items}
}

type listIterator struct {
	items []Object
	pos   int
}

func (it *listIterator) Next(ctx context.Context) (Object, bool) {
	if it.pos >= len(it.items) {
		return nil, false
	}
	value := it.items[it.pos]
	it.pos++
	return value, true
}

func (ls *List) MarshalJSON() ([]byte, error) {
	return json.Marshal(ls.items)
}

func NewList(items []Object) *List {
	return &List{items: items}
}
