package vm

import (
	"github.com/quill-lang/quill/compiler"
	"github.com/quill-lang/quill/object"
)

// DefaultFrameLocals is the number of local variable slots stored inline in
// each frame. Frames needing more fall back to a heap allocated slice.
const DefaultFrameLocals = 8

// activeRegion tracks one inlined comprehension region that has begun but
// not yet ended in a frame, so that unwinding can restore the saved
// variables if an exception escapes the region.
type activeRegion struct {
	region *compiler.InlinedRegion

	// baseSP is the stack index of the region's outermost iterator when the
	// region began. The saved variable values sit directly above it.
	baseSP int
}

type frame struct {
	returnAddr int
	returnSp   int
	resumeIP   int
	fn         *object.Closure
	code       *loadedCode

	localsCount    uint16
	storage        [DefaultFrameLocals]object.Object
	locals         []object.Object
	extendedLocals []object.Object
	capturedLocals []object.Object

	// regions holds the comprehension regions currently active in this
	// frame, innermost last
	regions []activeRegion
}

// ActivateCode readies the frame to run module level code. The frame's local
// slots alias the global storage, since at module level fast slots and
// global slots address the same variables.
func (f *frame) ActivateCode(code *loadedCode) {
	f.returnAddr = 0
	f.returnSp = 0
	f.fn = nil
	f.code = code
	f.localsCount = uint16(len(code.Globals))
	f.locals = code.Globals
	f.extendedLocals = code.Globals
	f.capturedLocals = nil
	f.regions = f.regions[:0]
}

// ActivateFunction readies the frame to run a function call with the given
// argument values, which include the function's own reference when its code
// is named.
func (f *frame) ActivateFunction(fn *object.Closure, code *loadedCode, returnAddr, returnSp int, args []object.Object) {
	f.returnAddr = returnAddr
	f.returnSp = returnSp
	f.fn = fn
	f.code = code
	f.capturedLocals = nil
	f.regions = f.regions[:0]
	localsCount := code.LocalsCount()
	f.localsCount = uint16(localsCount)
	if localsCount <= DefaultFrameLocals {
		f.locals = f.storage[:localsCount]
		f.extendedLocals = nil
		for i := range f.locals {
			f.locals[i] = nil
		}
	} else {
		f.extendedLocals = make([]object.Object, localsCount)
		f.locals = f.extendedLocals
	}
	copy(f.locals, args)
}

// CaptureLocals moves the frame's local variables to the heap, so that cells
// pointing into them remain valid after the frame returns.
func (f *frame) CaptureLocals() []object.Object {
	if f.extendedLocals != nil {
		return f.extendedLocals
	}
	if f.capturedLocals == nil {
		f.capturedLocals = make([]object.Object, f.localsCount)
		copy(f.capturedLocals, f.locals[:f.localsCount])
		f.locals = f.capturedLocals
	}
	return f.capturedLocals
}

// Locals returns the frame's local variable values.
func (f *frame) Locals() []object.Object {
	return f.locals[:f.localsCount]
}

// Code returns the code the frame is running.
func (f *frame) Code() *loadedCode {
	return f.code
}

// Function returns the closure the frame is running, or nil for module
// level code.
func (f *frame) Function() *object.Closure {
	return f.fn
}
