// Package op defines opcodes used by the Quill compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop         Code = 1
	Halt        Code = 2
	Call        Code = 3
	ReturnValue Code = 4

	// Jump
	JumpBackward          Code = 10
	JumpForward           Code = 11
	PopJumpForwardIfFalse Code = 12
	PopJumpForwardIfTrue  Code = 13

	// Load
	LoadFast   Code = 20
	LoadFree   Code = 21
	LoadGlobal Code = 22
	LoadConst  Code = 23

	// LoadFastAndClear pushes the current value of a local slot, or the
	// unbound marker if the slot is empty, and then clears the slot. Paired
	// with StoreFast it implements the save/restore protocol that brackets
	// an inlined comprehension region.
	LoadFastAndClear Code = 24

	// Store. StoreFast accepts the unbound marker, which clears the slot.
	StoreFast   Code = 30
	StoreFree   Code = 31
	StoreGlobal Code = 32

	// Operations
	BinaryOp      Code = 40
	CompareOp     Code = 41
	UnaryNegative Code = 42
	UnaryNot      Code = 43

	// Build
	BuildList  Code = 50
	BuildMap   Code = 51
	BuildSet   Code = 52
	ListAppend Code = 53 // Append TOS to the list at TOS-1, popping both
	SetAdd     Code = 54 // Add TOS to the set at TOS-1, popping both
	MapSet     Code = 55 // Set key (TOS-1) to value (TOS) in map at TOS-2, popping all three

	// Containers
	BinarySubscr Code = 60
	StoreSubscr  Code = 61

	// Stack
	Swap   Code = 70
	Copy   Code = 71
	PopTop Code = 72

	// Push constants
	Nil   Code = 80
	False Code = 81
	True  Code = 82

	// Iteration
	GetIter Code = 90
	ForIter Code = 91

	// Closures
	LoadClosure Code = 100
	MakeCell    Code = 101

	// Exception handling
	PushExcept Code = 110 // Push exception handler: operand is the handler table index
	PopExcept  Code = 111 // Pop exception handler (normal try completion)
	Throw      Code = 112 // Throw TOS as an exception

	// Inlined comprehension regions. BeginRegion records the region index and
	// the stack depth at entry so that unwinding can locate the SaveSlots;
	// EndRegion discards that record after the restore sequence has run.
	BeginRegion Code = 120
	EndRegion   Code = 121
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add      BinaryOpType = 1
	Subtract BinaryOpType = 2
	Multiply BinaryOpType = 3
	Divide   BinaryOpType = 4
	Modulo   BinaryOpType = 5
	Power    BinaryOpType = 6
	And      BinaryOpType = 7
	Or       BinaryOpType = 8
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case Power:
		return "**"
	case And:
		return "&&"
	case Or:
		return "||"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{BeginRegion, "BEGIN_REGION", 1},
		{BinaryOp, "BINARY_OP", 1},
		{BinarySubscr, "BINARY_SUBSCR", 0},
		{BuildList, "BUILD_LIST", 1},
		{BuildMap, "BUILD_MAP", 1},
		{BuildSet, "BUILD_SET", 1},
		{Call, "CALL", 1},
		{CompareOp, "COMPARE_OP", 1},
		{Copy, "COPY", 1},
		{EndRegion, "END_REGION", 0},
		{False, "FALSE", 0},
		{ForIter, "FOR_ITER", 1},
		{GetIter, "GET_ITER", 0},
		{Halt, "HALT", 0},
		{JumpBackward, "JUMP_BACKWARD", 1},
		{JumpForward, "JUMP_FORWARD", 1},
		{ListAppend, "LIST_APPEND", 0},
		{LoadClosure, "LOAD_CLOSURE", 2},
		{LoadConst, "LOAD_CONST", 1},
		{LoadFast, "LOAD_FAST", 1},
		{LoadFastAndClear, "LOAD_FAST_AND_CLEAR", 1},
		{LoadFree, "LOAD_FREE", 1},
		{LoadGlobal, "LOAD_GLOBAL", 1},
		{MakeCell, "MAKE_CELL", 2},
		{MapSet, "MAP_SET", 0},
		{Nil, "NIL", 0},
		{Nop, "NOP", 0},
		{PopExcept, "POP_EXCEPT", 0},
		{PopJumpForwardIfFalse, "POP_JUMP_FORWARD_IF_FALSE", 1},
		{PopJumpForwardIfTrue, "POP_JUMP_FORWARD_IF_TRUE", 1},
		{PopTop, "POP_TOP", 0},
		{PushExcept, "PUSH_EXCEPT", 1},
		{ReturnValue, "RETURN_VALUE", 0},
		{SetAdd, "SET_ADD", 0},
		{StoreFast, "STORE_FAST", 1},
		{StoreFree, "STORE_FREE", 1},
		{StoreGlobal, "STORE_GLOBAL", 1},
		{StoreSubscr, "STORE_SUBSCR", 0},
		{Swap, "SWAP", 1},
		{Throw, "THROW", 0},
		{True, "TRUE", 0},
		{UnaryNegative, "UNARY_NEGATIVE", 0},
		{UnaryNot, "UNARY_NOT", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}
