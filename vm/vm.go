// Package vm provides a virtual machine for running compiled Quill code.
//
// Call the Run function to execute code in a new virtual machine:
//
//	result, err := vm.Run(ctx, code)
//
// Comprehensions compile into the code unit that contains them, so the
// machine never creates a frame for one. Instead, the compiler brackets each
// comprehension with BeginRegion and EndRegion instructions and records the
// frame slots whose values were saved on the stack at region entry. The
// machine tracks active regions per frame so that an exception leaving a
// region restores those slots before control reaches the handler, exactly as
// the normal restore sequence would have.
package vm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/quill-lang/quill/compiler"
	"github.com/quill-lang/quill/errz"
	"github.com/quill-lang/quill/object"
	"github.com/quill-lang/quill/op"
)

const (
	// MaxStackDepth is the maximum depth of the value stack.
	MaxStackDepth = 1024

	// MaxFrameDepth is the maximum depth of the call frame stack.
	MaxFrameDepth = 1024

	// MaxTmpSize is the size of the scratch space used to stage call
	// arguments.
	MaxTmpSize = 256

	// StopSignal is a return address used to indicate that evaluation
	// should stop when the active frame returns.
	StopSignal = -1

	// DefaultContextCheckInterval is the number of instructions executed
	// between context cancellation checks.
	DefaultContextCheckInterval = 100
)

// ErrHalted is returned by Run when execution stops before completion, for
// example when an observer requests a halt.
var ErrHalted = errors.New("execution halted")

// errStopEval signals the innermost eval loop to stop. It is never returned
// to callers.
var errStopEval = errors.New("stop eval")

// handlerEntry records one exception handler pushed by a try block, with
// the frame and stack depth at the time it was pushed.
type handlerEntry struct {
	handler *compiler.ExceptionHandler
	fp      int
	sp      int
}

// raisedError carries a thrown Quill value through the Go error return path
// until a handler catches it.
type raisedError struct {
	value object.Object
}

func (e *raisedError) Error() string {
	if errObj, ok := e.value.(*object.Error); ok {
		return errObj.Value().Error()
	}
	return fmt.Sprintf("exception: %s", e.value.Inspect())
}

// VirtualMachine runs compiled Quill code.
type VirtualMachine struct {
	ip             int
	sp             int
	fp             int
	instrIP        int
	halt           int32
	steps          int
	stack          [MaxStackDepth]object.Object
	frames         [MaxFrameDepth]frame
	tmp            [MaxTmpSize]object.Object
	activeFrame    *frame
	activeCode     *loadedCode
	rootCode       *loadedCode
	main           *compiler.Code
	handlers       []handlerEntry
	globals        map[string]object.Object
	loadedCode     map[*compiler.Code]*loadedCode
	running        bool
	runMutex       sync.Mutex
	observer       Observer
	observerConfig ObserverConfig
	checkInterval  int
}

// New creates a virtual machine to run the given compiled code.
func New(main *compiler.Code, options ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		sp:            -1,
		main:          main,
		globals:       map[string]object.Object{},
		loadedCode:    map[*compiler.Code]*loadedCode{},
		checkInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(vm)
	}
	return vm
}

// Run the virtual machine to completion, or until the context is canceled.
func (vm *VirtualMachine) Run(ctx context.Context) (err error) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()

	if vm.running {
		return errz.NewStructuredErrorf(errz.ErrRuntime,
			errz.SourceLocation{}, nil, "the machine is already running")
	}
	vm.running = true
	defer func() { vm.running = false }()

	// Translate panics into errors so the caller can handle them
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx = vm.initContext(ctx)

	if vm.observer != nil {
		vm.observerConfig = vm.observer.Config()
	}

	code := vm.loadRootCode(vm.main)
	vm.fp = 0
	vm.activeFrame = &vm.frames[vm.fp]
	vm.activeFrame.ActivateCode(code)
	vm.activeCode = code
	vm.ip = 0
	vm.sp = -1
	vm.handlers = vm.handlers[:0]
	atomic.StoreInt32(&vm.halt, 0)

	// Watch for context cancellation while running
	doneChan := make(chan struct{})
	defer close(doneChan)
	go func() {
		select {
		case <-ctx.Done():
			atomic.StoreInt32(&vm.halt, 1)
		case <-doneChan:
		}
	}()

	return vm.eval(ctx)
}

// initContext adds hooks to the context that give builtin functions access
// to machine internals, without exposing the machine itself.
func (vm *VirtualMachine) initContext(ctx context.Context) context.Context {
	ctx = object.WithCallFunc(ctx, vm.callFunction)
	ctx = object.WithLocalsFunc(ctx, vm.currentLocals)
	return ctx
}

// eval runs instructions until the active code is exhausted, an error
// escapes uncaught, or a stop is requested. Function calls re-enter eval via
// callFunction, so each frame unwinds its own state on the way out.
func (vm *VirtualMachine) eval(ctx context.Context) error {
	for vm.ip < len(vm.activeCode.Instructions) {
		if atomic.LoadInt32(&vm.halt) == 1 {
			vm.unwindCurrentFrame()
			if err := ctx.Err(); err != nil {
				return err
			}
			return ErrHalted
		}
		vm.steps++
		if vm.steps%vm.checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				vm.unwindCurrentFrame()
				return err
			}
		}
		if vm.observer != nil && vm.observerConfig.Steps {
			event := StepEvent{
				IP:         vm.ip,
				Opcode:     vm.activeCode.Instructions[vm.ip],
				FrameDepth: vm.fp,
				StackSize:  vm.sp + 1,
				Location:   vm.activeCode.LocationAt(vm.ip),
			}
			if !vm.observer.OnStep(event) {
				atomic.StoreInt32(&vm.halt, 1)
				continue
			}
		}
		if err := vm.execute(ctx); err != nil {
			if err == errStopEval {
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				vm.unwindCurrentFrame()
				return err
			}
			if vm.dispatchException(err) {
				continue
			}
			vm.unwindCurrentFrame()
			return err
		}
	}
	return nil
}

// execute runs a single instruction.
func (vm *VirtualMachine) execute(ctx context.Context) error {
	vm.instrIP = vm.ip
	opcode := vm.activeCode.Instructions[vm.ip]
	vm.ip++

	switch opcode {

	case op.Nop:

	case op.Halt:
		return errStopEval

	case op.LoadConst:
		vm.push(vm.activeCode.Constants[vm.fetch()])

	case op.Nil:
		vm.push(object.Nil)

	case op.True:
		vm.push(object.True)

	case op.False:
		vm.push(object.False)

	case op.LoadFast:
		idx := vm.fetch()
		value := vm.activeFrame.locals[idx]
		if value == nil {
			return vm.nameError("undefined variable %q", vm.localName(idx))
		}
		vm.push(value)

	case op.LoadFastAndClear:
		idx := vm.fetch()
		vm.push(vm.activeFrame.locals[idx])
		vm.activeFrame.locals[idx] = nil

	case op.StoreFast:
		vm.activeFrame.locals[vm.fetch()] = vm.pop()

	case op.LoadGlobal:
		idx := vm.fetch()
		value := vm.activeCode.Globals[idx]
		if value == nil {
			return vm.nameError("undefined variable %q", vm.globalName(idx))
		}
		vm.push(value)

	case op.StoreGlobal:
		vm.activeCode.Globals[vm.fetch()] = vm.pop()

	case op.LoadFree:
		idx := int(vm.fetch())
		vm.push(vm.activeFrame.fn.FreeVar(idx).Value())

	case op.StoreFree:
		idx := int(vm.fetch())
		vm.activeFrame.fn.FreeVar(idx).Set(vm.pop())

	case op.MakeCell:
		symbolIndex := vm.fetch()
		framesBack := int(vm.fetch())
		frameIndex := vm.fp - framesBack
		if frameIndex < 0 {
			return vm.evalError("invalid frame for cell")
		}
		locals := vm.frames[frameIndex].CaptureLocals()
		vm.push(object.NewCell(&locals[symbolIndex]))

	case op.LoadClosure:
		constIndex := vm.fetch()
		freeCount := int(vm.fetch())
		free := make([]*object.Cell, freeCount)
		for i := freeCount - 1; i >= 0; i-- {
			cell, ok := vm.pop().(*object.Cell)
			if !ok {
				return vm.evalError("expected a cell")
			}
			free[i] = cell
		}
		fn, ok := vm.activeCode.Constants[constIndex].(*object.Closure)
		if !ok {
			return vm.evalError("expected a function")
		}
		vm.push(object.CloneWithCaptures(fn, free))

	case op.BinaryOp:
		opType := op.BinaryOpType(vm.fetch())
		b := vm.pop()
		a := vm.pop()
		result, err := object.BinaryOp(opType, a, b)
		if err != nil {
			return vm.augmentError(err)
		}
		vm.push(result)

	case op.CompareOp:
		opType := op.CompareOpType(vm.fetch())
		b := vm.pop()
		a := vm.pop()
		result, err := object.Compare(opType, a, b)
		if err != nil {
			return vm.augmentError(err)
		}
		vm.push(result)

	case op.UnaryNegative:
		switch obj := vm.pop().(type) {
		case *object.Int:
			vm.push(object.NewInt(-obj.Value()))
		case *object.Float:
			vm.push(object.NewFloat(-obj.Value()))
		default:
			return vm.typeError("unsupported operand for -: %s", obj.Type())
		}

	case op.UnaryNot:
		if vm.pop().IsTruthy() {
			vm.push(object.False)
		} else {
			vm.push(object.True)
		}

	case op.Call:
		argc := int(vm.fetch())
		args := make([]object.Object, argc)
		copy(args, vm.stack[vm.sp-argc+1:vm.sp+1])
		vm.sp -= argc
		obj := vm.pop()
		result, err := vm.callObject(ctx, obj, args)
		if err != nil {
			return err
		}
		vm.push(result)

	case op.ReturnValue:
		// Handlers pushed by try blocks that a return statement jumped out
		// of are removed here
		for len(vm.handlers) > 0 && vm.handlers[len(vm.handlers)-1].fp == vm.fp {
			vm.handlers = vm.handlers[:len(vm.handlers)-1]
		}
		f := vm.activeFrame
		returnAddr := f.returnAddr
		if vm.observer != nil && vm.observerConfig.Calls {
			vm.observer.OnReturn(ReturnEvent{
				Function:   f.fn,
				Value:      vm.stack[vm.sp],
				FrameDepth: vm.fp,
			})
		}
		vm.resumeFrame(vm.fp-1, returnAddr, f.returnSp)
		if returnAddr == StopSignal {
			return errStopEval
		}

	case op.JumpForward:
		base := vm.ip - 1
		delta := int(vm.fetch())
		vm.ip = base + delta

	case op.JumpBackward:
		base := vm.ip - 1
		delta := int(vm.fetch())
		vm.ip = base - delta

	case op.PopJumpForwardIfFalse:
		base := vm.ip - 1
		delta := int(vm.fetch())
		if !vm.pop().IsTruthy() {
			vm.ip = base + delta
		}

	case op.PopJumpForwardIfTrue:
		base := vm.ip - 1
		delta := int(vm.fetch())
		if vm.pop().IsTruthy() {
			vm.ip = base + delta
		}

	case op.BuildList:
		count := int(vm.fetch())
		items := make([]object.Object, count)
		copy(items, vm.stack[vm.sp-count+1:vm.sp+1])
		vm.sp -= count
		vm.push(object.NewList(items))

	case op.BuildSet:
		count := int(vm.fetch())
		base := vm.sp - count + 1
		set := object.NewEmptySet()
		vm.sp = base - 1
		for i := 0; i < count; i++ {
			if err := set.Add(vm.stack[base+i]); err != nil {
				return vm.augmentError(err)
			}
		}
		vm.push(set)

	case op.BuildMap:
		count := int(vm.fetch()) // number of key, value pairs
		base := vm.sp - 2*count + 1
		m := object.NewEmptyMap()
		vm.sp = base - 1
		for i := 0; i < count; i++ {
			key := vm.stack[base+2*i]
			value := vm.stack[base+2*i+1]
			if err := m.Set(key, value); err != nil {
				return vm.augmentError(err)
			}
		}
		vm.push(m)

	case op.ListAppend:
		value := vm.pop()
		list, ok := vm.pop().(*object.List)
		if !ok {
			return vm.evalError("expected a list")
		}
		list.Append(value)

	case op.SetAdd:
		value := vm.pop()
		set, ok := vm.pop().(*object.Set)
		if !ok {
			return vm.evalError("expected a set")
		}
		if err := set.Add(value); err != nil {
			return vm.augmentError(err)
		}

	case op.MapSet:
		value := vm.pop()
		key := vm.pop()
		m, ok := vm.pop().(*object.Map)
		if !ok {
			return vm.evalError("expected a map")
		}
		if err := m.Set(key, value); err != nil {
			return vm.augmentError(err)
		}

	case op.BinarySubscr:
		index := vm.pop()
		obj := vm.pop()
		container, ok := obj.(object.Container)
		if !ok {
			return vm.typeError("object is not subscriptable: %s", obj.Type())
		}
		result, getErr := container.GetItem(index)
		if getErr != nil {
			return vm.augmentError(getErr.Value())
		}
		vm.push(result)

	case op.StoreSubscr:
		index := vm.pop()
		obj := vm.pop()
		value := vm.pop()
		container, ok := obj.(object.Container)
		if !ok {
			return vm.typeError("object does not support item assignment: %s", obj.Type())
		}
		if setErr := container.SetItem(index, value); setErr != nil {
			return vm.augmentError(setErr.Value())
		}

	case op.Swap:
		pos := int(vm.fetch())
		other := vm.sp - pos
		vm.stack[vm.sp], vm.stack[other] = vm.stack[other], vm.stack[vm.sp]

	case op.Copy:
		offset := int(vm.fetch())
		vm.push(vm.stack[vm.sp-offset])

	case op.PopTop:
		vm.sp--

	case op.GetIter:
		obj := vm.pop()
		switch obj := obj.(type) {
		case *object.Iter:
			vm.push(obj)
		case object.Iterable:
			vm.push(object.NewIter(obj.Iter()))
		default:
			return vm.typeError("object is not iterable: %s", obj.Type())
		}

	case op.ForIter:
		base := vm.ip - 1
		delta := int(vm.fetch())
		iter, ok := vm.stack[vm.sp].(*object.Iter)
		if !ok {
			return vm.evalError("expected an iterator")
		}
		value, ok := iter.Next(ctx)
		if !ok {
			vm.sp-- // discard the exhausted iterator
			vm.ip = base + delta
		} else {
			vm.push(value)
		}

	case op.BeginRegion:
		idx := vm.fetch()
		f := vm.activeFrame
		f.regions = append(f.regions, activeRegion{
			region: vm.activeCode.Region(idx),
			baseSP: vm.sp,
		})

	case op.EndRegion:
		f := vm.activeFrame
		if n := len(f.regions); n > 0 {
			f.regions = f.regions[:n-1]
		}

	case op.PushExcept:
		idx := vm.fetch()
		vm.handlers = append(vm.handlers, handlerEntry{
			handler: vm.activeCode.ExceptionHandler(idx),
			fp:      vm.fp,
			sp:      vm.sp,
		})

	case op.PopExcept:
		if n := len(vm.handlers); n > 0 {
			vm.handlers = vm.handlers[:n-1]
		}

	case op.Throw:
		return &raisedError{value: vm.pop()}

	default:
		return vm.evalError("unknown opcode: %d", opcode)
	}
	return nil
}

// dispatchException routes an error to the innermost handler belonging to
// the active frame, if there is one. Comprehension regions between the
// current location and the handler are unwound first, restoring the saved
// variable slots from the stack before the stack is truncated.
func (vm *VirtualMachine) dispatchException(err error) bool {
	n := len(vm.handlers)
	if n == 0 {
		return false
	}
	entry := vm.handlers[n-1]
	if entry.fp != vm.fp {
		return false
	}
	vm.handlers = vm.handlers[:n-1]
	vm.unwindRegions(vm.activeFrame, entry.sp)
	vm.sp = entry.sp
	if raised, ok := err.(*raisedError); ok {
		vm.push(raised.value)
	} else {
		vm.push(object.NewError(err))
	}
	vm.ip = int(entry.handler.CatchStart)
	return true
}

// unwindRegions restores the saved variable slots of every active region in
// the frame whose stack area lies above minSP, innermost first. The saved
// values sit on the stack directly above each region's base.
func (vm *VirtualMachine) unwindRegions(f *frame, minSP int) {
	for i := len(f.regions) - 1; i >= 0; i-- {
		ar := f.regions[i]
		if ar.baseSP <= minSP {
			break
		}
		saves := ar.region.SaveSlots
		for j := len(saves) - 1; j >= 0; j-- {
			f.locals[saves[j]] = vm.stack[ar.baseSP+1+j]
		}
		f.regions = f.regions[:i]
	}
}

// unwindCurrentFrame cleans up frame state before an error propagates to
// the caller: active regions restore their saved variables and handlers
// belonging to the frame are discarded.
func (vm *VirtualMachine) unwindCurrentFrame() {
	if vm.activeFrame != nil {
		vm.unwindRegions(vm.activeFrame, -1)
	}
	for len(vm.handlers) > 0 && vm.handlers[len(vm.handlers)-1].fp == vm.fp {
		vm.handlers = vm.handlers[:len(vm.handlers)-1]
	}
}

// callObject invokes any callable object with the given arguments.
func (vm *VirtualMachine) callObject(ctx context.Context, obj object.Object, args []object.Object) (object.Object, error) {
	switch obj := obj.(type) {
	case *object.Closure:
		return vm.callFunction(ctx, obj, args)
	case object.Callable:
		result, err := obj.Call(ctx, args...)
		if err != nil {
			return nil, vm.augmentError(err)
		}
		return result, nil
	default:
		return nil, vm.typeError("object is not callable: %s", obj.Type())
	}
}

// callFunction executes a compiled function in a new frame and returns its
// result. It re-enters the eval loop, so Quill calls consume Go stack.
func (vm *VirtualMachine) callFunction(ctx context.Context, fn *object.Closure, args []object.Object) (object.Object, error) {
	code := fn.Code()
	if code == nil {
		return nil, vm.evalError("function is not compiled: %s", fn.Name())
	}
	argc := len(args)
	if argc != fn.ParameterCount() {
		return nil, object.NewArgsError(fn.Name(), fn.ParameterCount(), argc)
	}
	if vm.fp+1 >= MaxFrameDepth {
		return nil, vm.evalError("call stack overflow")
	}

	copy(vm.tmp[:argc], args)
	localCount := argc
	if code.IsNamed() {
		// A named function can refer to itself, via an extra local slot
		vm.tmp[localCount] = fn
		localCount++
	}

	baseFP := vm.fp
	baseIP := vm.ip
	baseSP := vm.sp
	vm.activeFrame.resumeIP = baseIP

	loaded := vm.loadCode(code)
	vm.fp++
	f := &vm.frames[vm.fp]
	f.ActivateFunction(fn, loaded, StopSignal, baseSP, vm.tmp[:localCount])
	vm.activeFrame = f
	vm.activeCode = loaded
	vm.ip = 0

	if vm.observer != nil && vm.observerConfig.Calls {
		if !vm.observer.OnCall(CallEvent{Function: fn, Args: args, FrameDepth: vm.fp}) {
			atomic.StoreInt32(&vm.halt, 1)
		}
	}

	if err := vm.eval(ctx); err != nil {
		vm.fp = baseFP
		vm.activeFrame = &vm.frames[baseFP]
		vm.activeCode = vm.activeFrame.code
		vm.ip = baseIP
		vm.sp = baseSP
		return nil, err
	}

	// The frame returned normally, so resumeFrame already restored the
	// caller and left the result on top of the stack
	result := vm.pop()
	vm.ip = baseIP
	return result, nil
}

// resumeFrame reactivates the frame at the given index, preserving the
// value on top of the stack as the result of the completed frame.
func (vm *VirtualMachine) resumeFrame(fp, ip, sp int) {
	var result object.Object
	if vm.sp >= 0 {
		result = vm.stack[vm.sp]
	}
	vm.fp = fp
	vm.activeFrame = &vm.frames[fp]
	vm.activeCode = vm.activeFrame.code
	vm.ip = ip
	vm.sp = sp
	if result != nil {
		vm.push(result)
	}
}

func (vm *VirtualMachine) loadRootCode(cc *compiler.Code) *loadedCode {
	if code, found := vm.loadedCode[cc]; found {
		return code
	}
	code := loadRootCode(cc, vm.globals)
	vm.loadedCode[cc] = code
	vm.rootCode = code
	return code
}

func (vm *VirtualMachine) loadCode(cc *compiler.Code) *loadedCode {
	if code, found := vm.loadedCode[cc]; found {
		return code
	}
	code := loadChildCode(vm.rootCode, cc)
	vm.loadedCode[cc] = code
	return code
}

// currentLocals builds a map of the named variables visible in the active
// frame. Variables bound by active comprehension regions are merged in on
// top, so that a locals() call inside a comprehension sees the loop
// variables with their current values.
func (vm *VirtualMachine) currentLocals(ctx context.Context) (*object.Map, error) {
	result := object.NewEmptyMap()
	f := vm.activeFrame
	code := f.code
	if code.IsRoot() {
		for i, name := range code.GlobalNames {
			if name == "" {
				continue
			}
			if value := code.Globals[i]; value != nil {
				if err := result.Set(object.NewString(name), value); err != nil {
					return nil, err
				}
			}
		}
	} else {
		symbols := code.Symbols()
		locals := f.Locals()
		for i := range locals {
			sym := symbols.Symbol(uint16(i))
			if sym == nil || sym.IsRegionLocal() {
				continue
			}
			if value := locals[i]; value != nil {
				if err := result.Set(object.NewString(sym.Name()), value); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, ar := range f.regions {
		for _, rv := range ar.region.Vars {
			if value := f.locals[rv.Slot]; value != nil {
				if err := result.Set(object.NewString(rv.Name), value); err != nil {
					return nil, err
				}
			}
		}
	}
	return result, nil
}

// TOS returns the top of stack object, if there is one. This is most useful
// after Run completes, when the final expression value remains on the stack.
func (vm *VirtualMachine) TOS() (object.Object, bool) {
	if vm.sp >= 0 {
		return vm.stack[vm.sp], true
	}
	return nil, false
}

// Get returns the value of the named global variable.
func (vm *VirtualMachine) Get(name string) (object.Object, error) {
	if vm.rootCode == nil {
		return nil, errors.New("no code has been run")
	}
	for i, n := range vm.rootCode.GlobalNames {
		if n == name {
			if value := vm.rootCode.Globals[i]; value != nil {
				return value, nil
			}
			return nil, fmt.Errorf("name error: undefined variable %q", name)
		}
	}
	return nil, fmt.Errorf("name error: undefined variable %q", name)
}

// GlobalNames returns the names of all global variables.
func (vm *VirtualMachine) GlobalNames() []string {
	if vm.rootCode == nil {
		return nil
	}
	var names []string
	for _, name := range vm.rootCode.GlobalNames {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (vm *VirtualMachine) fetch() uint16 {
	value := vm.activeCode.Instructions[vm.ip]
	vm.ip++
	return uint16(value)
}

func (vm *VirtualMachine) push(obj object.Object) {
	vm.sp++
	vm.stack[vm.sp] = obj
}

func (vm *VirtualMachine) pop() object.Object {
	obj := vm.stack[vm.sp]
	vm.sp--
	return obj
}

func (vm *VirtualMachine) location() errz.SourceLocation {
	if vm.activeCode == nil {
		return errz.SourceLocation{}
	}
	return vm.activeCode.LocationAt(vm.instrIP)
}

// captureStack builds a stack trace from the current frames. Comprehensions
// run inline in their enclosing code, so they never contribute a frame.
func (vm *VirtualMachine) captureStack() []errz.StackFrame {
	var frames []errz.StackFrame
	for i := vm.fp; i >= 0; i-- {
		f := &vm.frames[i]
		if f.code == nil {
			continue
		}
		var name string
		if f.fn != nil {
			name = f.fn.Name()
		}
		var loc errz.SourceLocation
		if i == vm.fp {
			loc = vm.location()
		} else {
			loc = f.code.LocationAt(f.resumeIP - 2)
		}
		frames = append(frames, errz.StackFrame{Function: name, Location: loc})
	}
	return frames
}

// augmentError attaches the current location and stack trace to errors that
// lack them.
func (vm *VirtualMachine) augmentError(err error) error {
	var structured *errz.StructuredError
	if errors.As(err, &structured) {
		if structured.Location.IsZero() {
			structured.Location = vm.location()
		}
		if structured.Stack == nil {
			structured.Stack = vm.captureStack()
		}
		return err
	}
	return errz.NewStructuredError(errz.ErrRuntime, err.Error(), vm.location(), vm.captureStack())
}

func (vm *VirtualMachine) nameError(format string, args ...any) error {
	return errz.NewStructuredErrorf(errz.ErrName, vm.location(), vm.captureStack(), format, args...)
}

func (vm *VirtualMachine) typeError(format string, args ...any) error {
	return errz.NewStructuredErrorf(errz.ErrType, vm.location(), vm.captureStack(), format, args...)
}

func (vm *VirtualMachine) evalError(format string, args ...any) error {
	return errz.NewStructuredErrorf(errz.ErrRuntime, vm.location(), vm.captureStack(), format, args...)
}

func (vm *VirtualMachine) localName(idx uint16) string {
	if sym := vm.activeCode.Symbols().Symbol(idx); sym != nil {
		return sym.Name()
	}
	return fmt.Sprintf("local %d", idx)
}

func (vm *VirtualMachine) globalName(idx uint16) string {
	if int(idx) < len(vm.activeCode.GlobalNames) {
		if name := vm.activeCode.GlobalNames[idx]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("global %d", idx)
}
