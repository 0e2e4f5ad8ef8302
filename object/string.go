package object

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quill-lang/quill/op"
)

// String wraps string and implements Object and Hashable interfaces.
type String struct {
	value string
}

func (s *String) GetAttr(name string) (Object, bool) {
	return nil, false
}

func (s *String) SetAttr(name string, value Object) error {
	return TypeErrorf("type error: string has no attribute %q", name)
}

func (s *String) Type() Type {
	return STRING
}

func (s *String) Value() string {
	return s.value
}

func (s *String) Inspect() string {
	return fmt.Sprintf("%q", s.value)
}

func (s *String) String() string {
	return s.value
}

func (s *String) Interface() interface{} {
	return s.value
}

func (s *String) HashKey() HashKey {
	return HashKey{Type: s.Type(), StrValue: s.value}
}

func (s *String) Compare(other Object) (int, error) {
	otherStr, ok := other.(*String)
	if !ok {
		return 0, TypeErrorf("type error: unable to compare string and %s", other.Type())
	}
	return strings.Compare(s.value, otherStr.value), nil
}

func (s *String) Equals(other Object) bool {
	otherStr, ok := other.(*String)
	return ok && s.value == otherStr.value
}

func (s *String) IsTruthy() bool {
	return s.value != ""
}

func (s *String) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch right := right.(type) {
	case *String:
		if opType == op.Add {
			return NewString(s.value + right.value), nil
		}
	case *Int:
		if opType == op.Multiply {
			if right.value < 0 {
				return nil, ValueErrorf("value error: negative repeat count")
			}
			return NewString(strings.Repeat(s.value, int(right.value))), nil
		}
	}
	return nil, TypeErrorf("type error: unsupported operation for string: %v on type %s",
		opType, right.Type())
}

func (s *String) GetItem(key Object) (Object, *Error) {
	index, ok := key.(*Int)
	if !ok {
		return nil, NewError(TypeErrorf("type error: string index must be an int (got %s)", key.Type()))
	}
	runes := []rune(s.value)
	idx, err := ResolveIndex(index.value, int64(len(runes)))
	if err != nil {
		return nil, NewError(err)
	}
	return NewString(string(runes[idx])), nil
}

func (s *String) SetItem(key, value Object) *Error {
	return NewError(TypeErrorf("type error: string does not support item assignment"))
}

func (s *String) Contains(item Object) *Bool {
	sub, ok := item.(*String)
	if !ok {
		return False
	}
	return NewBool(strings.Contains(s.value, sub.value))
}

func (s *String) Len() *Int {
	return NewInt(int64(len([]rune(s.value))))
}

// Iter returns an iterator over the characters of the string.
func (s *String) Iter() Iterator {
	runes := []rune(s.value)
	return &stringIterator{runes: runes}
}

type stringIterator struct {
	runes []rune
	pos   int
}

func (it *stringIterator) Next(ctx context.Context) (Object, bool) {
	if it.pos >= len(it.runes) {
		return nil, false
	}
	value := NewString(string(it.runes[it.pos]))
	it.pos++
	return value, true
}

func (s *String) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value)
}

func NewString(value string) *String {
	return &String{value: value}
}

// ResolveIndex checks that the index is in range and transforms a negative
// index into the corresponding positive index. If the index is out of range,
// an error is returned.
func ResolveIndex(idx int64, size int64) (int64, error) {
	max := size - 1
	if idx > max {
		return 0, ValueErrorf("index error: index out of range: %d", idx)
	}
	if idx >= 0 {
		return idx, nil
	}
	// Handle negative indices, where -1 is the last item in the array
	reversed := size + idx
	if reversed < 0 || reversed > max {
		return 0, ValueErrorf("index error: index out of range: %d", idx)
	}
	return reversed, nil
}
