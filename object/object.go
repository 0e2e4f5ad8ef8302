// Package object provides the standard set of Quill object types.
//
// For external users of Quill, often an object.Object interface
// will be type asserted to a specific object type, such as *object.Float.
//
// For example:
//
//	switch obj := obj.(type) {
//	case *object.String:
//		// do something with obj.Value()
//	case *object.Float:
//		// do something with obj.Value()
//	}
//
// The Type() method of each object may also be used to get a string
// name of the object type, such as "string" or "float".
package object

import (
	"context"
	"fmt"
	"sort"

	"github.com/quill-lang/quill/op"
)

// Type of an object as a string.
type Type string

// Type constants
const (
	BOOL     Type = "bool"
	BUILTIN  Type = "builtin"
	CELL     Type = "cell"
	ERROR    Type = "error"
	FLOAT    Type = "float"
	FUNCTION Type = "function"
	INT      Type = "int"
	ITERATOR Type = "iterator"
	LIST     Type = "list"
	MAP      Type = "map"
	NIL      Type = "nil"
	RANGE    Type = "range"
	SET      Type = "set"
	STRING   Type = "string"
)

var (
	Nil   = &NilType{}
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// Object is the interface that all object types in Quill must implement.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns a string representation of the given object.
	Inspect() string

	// Interface converts the given object to a native Go value.
	Interface() interface{}

	// Returns true if the given object is equal to this object.
	Equals(other Object) bool

	// GetAttr returns the attribute with the given name from this object.
	GetAttr(name string) (Object, bool)

	// SetAttr sets the attribute with the given name on this object.
	SetAttr(name string, value Object) error

	// IsTruthy returns true if the object is considered "truthy".
	IsTruthy() bool

	// RunOperation runs an operation on this object with the given
	// right-hand side object.
	RunOperation(opType op.BinaryOpType, right Object) (Object, error)
}

// HashKey is used to identify unique values in maps and sets.
type HashKey struct {
	Type     Type
	StrValue string
	IntValue int64
	FltValue float64
}

// Hashable types can be used as map keys and set members.
type Hashable interface {
	HashKey() HashKey
}

// Container is an interface for object types that hold items.
type Container interface {
	// GetItem implements the [key] operator for a container type.
	GetItem(key Object) (Object, *Error)

	// SetItem implements the [key] = value operator for a container type.
	SetItem(key, value Object) *Error

	// Contains returns true if the given item is found in this container.
	Contains(item Object) *Bool

	// Len returns the number of items in this container.
	Len() *Int
}

// Iterator is an interface used to iterate over a container's items.
type Iterator interface {
	// Next advances the iterator and returns the next item. The returned
	// bool value indicates whether the iterator is exhausted.
	Next(ctx context.Context) (Object, bool)
}

// Iterable is an interface for containers that can produce an Iterator.
type Iterable interface {
	Iter() Iterator
}

// Callable is an interface for objects that can be invoked as functions.
// Both *Builtin and *Closure implement this interface, allowing code to
// call functions without knowing their concrete type.
type Callable interface {
	// Call invokes the callable with the given arguments and returns the result.
	Call(ctx context.Context, args ...Object) (Object, error)
}

// Comparable is an interface used to compare two objects.
//
//	-1 if this < other
//	 0 if this == other
//	 1 if this > other
type Comparable interface {
	Compare(other Object) (int, error)
}

// Keys returns the keys of an object map as a sorted slice of strings.
func Keys(m map[string]Object) []string {
	var names []string
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// PrintableValue returns a value that should be used when printing an object.
func PrintableValue(obj Object) interface{} {
	switch obj := obj.(type) {
	// Primitive types have their underlying Go value passed to fmt.Printf
	// so that Go's Printf-style formatting directives work as expected.
	case *String, *Int, *Float, *Bool, *Error:
		return obj.Interface()
	}
	switch obj := obj.(type) {
	case fmt.Stringer:
		return obj.String()
	default:
		return obj.Inspect()
	}
}
