package object

import (
	"context"

	"github.com/quill-lang/quill/op"
)

// Iter adapts an Iterator so that it can travel on the virtual machine
// stack like any other value. It is produced internally when a for loop
// or comprehension begins iterating over a container.
type Iter struct {
	*base
	it Iterator
}

func (i *Iter) Type() Type {
	return ITERATOR
}

func (i *Iter) Inspect() string {
	return "iterator()"
}

func (i *Iter) String() string {
	return i.Inspect()
}

func (i *Iter) Interface() interface{} {
	return i.it
}

func (i *Iter) Equals(other Object) bool {
	otherIter, ok := other.(*Iter)
	return ok && i == otherIter
}

func (i *Iter) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("type error: unsupported operation for iterator: %v", opType)
}

// Next advances the underlying iterator.
func (i *Iter) Next(ctx context.Context) (Object, bool) {
	return i.it.Next(ctx)
}

// NewIter wraps the given Iterator in an object.
func NewIter(it Iterator) *Iter {
	return &Iter{it: it}
}
