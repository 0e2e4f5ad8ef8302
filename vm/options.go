package vm

import "github.com/quill-lang/quill/object"

// Option is a configuration function for a VirtualMachine.
type Option func(*VirtualMachine)

// WithGlobals provides global variables to the machine, such as builtin
// functions. Names must correspond to globals the code was compiled with.
func WithGlobals(globals map[string]object.Object) Option {
	return func(vm *VirtualMachine) {
		for name, value := range globals {
			vm.globals[name] = value
		}
	}
}

// WithObserver attaches an execution observer to the machine.
func WithObserver(observer Observer) Option {
	return func(vm *VirtualMachine) {
		vm.observer = observer
	}
}

// WithContextCheckInterval sets the number of instructions executed between
// checks for context cancellation.
func WithContextCheckInterval(count int) Option {
	return func(vm *VirtualMachine) {
		if count > 0 {
			vm.checkInterval = count
		}
	}
}
