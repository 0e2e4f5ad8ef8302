package object

import (
	"context"
	"fmt"

	"github.com/quill-lang/quill/op"
)

// Range is a lazy sequence of integers, produced by the range() builtin.
type Range struct {
	*base
	start int64
	stop  int64
	step  int64
}

func (r *Range) Type() Type {
	return RANGE
}

func (r *Range) Inspect() string {
	if r.step == 1 {
		return fmt.Sprintf("range(%d, %d)", r.start, r.stop)
	}
	return fmt.Sprintf("range(%d, %d, %d)", r.start, r.stop, r.step)
}

func (r *Range) String() string {
	return r.Inspect()
}

func (r *Range) Interface() interface{} {
	var items []interface{}
	for v := r.start; r.inBounds(v); v += r.step {
		items = append(items, v)
	}
	return items
}

func (r *Range) Equals(other Object) bool {
	otherRange, ok := other.(*Range)
	if !ok {
		return false
	}
	return r.start == otherRange.start &&
		r.stop == otherRange.stop &&
		r.step == otherRange.step
}

func (r *Range) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("type error: unsupported operation for range: %v", opType)
}

func (r *Range) inBounds(v int64) bool {
	if r.step > 0 {
		return v < r.stop
	}
	return v > r.stop
}

// Iter returns an iterator over the integers of the range.
func (r *Range) Iter() Iterator {
	return &rangeIterator{r: r, pos: r.start}
}

type rangeIterator struct {
	r   *Range
	pos int64
}

func (it *rangeIterator) Next(ctx context.Context) (Object, bool) {
	if !it.r.inBounds(it.pos) {
		return nil, false
	}
	value := NewInt(it.pos)
	it.pos += it.r.step
	return value, true
}

// NewRange creates a Range with the given bounds. A zero step is an error.
func NewRange(start, stop, step int64) (*Range, error) {
	if step == 0 {
		return nil, ValueErrorf("value error: range() step must not be zero")
	}
	return &Range{start: start, stop: stop, step: step}, nil
}
