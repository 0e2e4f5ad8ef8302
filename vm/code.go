package vm

import (
	"github.com/quill-lang/quill/compiler"
	"github.com/quill-lang/quill/errz"
	"github.com/quill-lang/quill/object"
	"github.com/quill-lang/quill/op"
)

// loadedCode wraps a compiled code object with runtime state, notably the
// constants converted to objects and the storage for global variables. Child
// code objects share the Globals slice of their root.
type loadedCode struct {
	*compiler.Code

	// Instructions in executable form
	Instructions []op.Code

	// Constants converted to their object representations
	Constants []object.Object

	// Globals storage, shared across all code loaded from the same root
	Globals []object.Object

	// GlobalNames contains the name of each global, by index. Anonymous
	// slots claimed for comprehension shadowing have an empty name.
	GlobalNames []string

	// Locations correlates instruction offsets to source locations
	Locations []errz.SourceLocation
}

func wrapCode(cc *compiler.Code) *loadedCode {
	instrCount := cc.InstructionCount()
	code := &loadedCode{
		Code:         cc,
		Instructions: make([]op.Code, instrCount),
		Constants:    make([]object.Object, cc.ConstantsCount()),
		Locations:    make([]errz.SourceLocation, instrCount),
	}
	for i := 0; i < instrCount; i++ {
		code.Instructions[i] = cc.Instruction(uint16(i))
		if loc, ok := cc.Location(uint16(i)); ok {
			code.Locations[i] = loc
		}
	}
	for i := 0; i < len(code.Constants); i++ {
		code.Constants[i] = convertConstant(cc.Constant(uint16(i)))
	}
	return code
}

func convertConstant(value any) object.Object {
	switch value := value.(type) {
	case int64:
		return object.NewInt(value)
	case float64:
		return object.NewFloat(value)
	case string:
		return object.NewString(value)
	case bool:
		return object.NewBool(value)
	case nil:
		return object.Nil
	case *compiler.Function:
		return object.NewClosure(value)
	default:
		panic("code contains unsupported constant type")
	}
}

// loadRootCode wraps a root compiled code object and initializes its global
// variable storage from the given values.
func loadRootCode(cc *compiler.Code, globals map[string]object.Object) *loadedCode {
	code := wrapCode(cc)
	names := cc.GlobalNames()
	code.GlobalNames = names
	code.Globals = make([]object.Object, len(names))
	for i, name := range names {
		if name == "" {
			continue
		}
		if value, found := globals[name]; found {
			code.Globals[i] = value
		}
	}
	return code
}

// loadChildCode wraps a non-root compiled code object, sharing the global
// storage of the given root.
func loadChildCode(root *loadedCode, cc *compiler.Code) *loadedCode {
	code := wrapCode(cc)
	code.Globals = root.Globals
	code.GlobalNames = root.GlobalNames
	return code
}

func (c *loadedCode) GlobalsCount() int {
	return len(c.Globals)
}

func (c *loadedCode) LocationAt(ip int) errz.SourceLocation {
	if ip < 0 || ip >= len(c.Locations) {
		return errz.SourceLocation{}
	}
	return c.Locations[ip]
}
