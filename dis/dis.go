// Package dis supports analysis of Quill bytecode by disassembling it.
// This works with the opcodes defined in the `op` package and the code
// objects produced by the `compiler` package.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/quill-lang/quill/compiler"
	"github.com/quill-lang/quill/internal/table"
	"github.com/quill-lang/quill/op"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Operands   []op.Code
	Annotation string
	Constant   interface{}
}

// Disassemble returns a parsed representation of the given bytecode.
func Disassemble(code *compiler.Code) ([]Instruction, error) {
	var instructions []Instruction
	count := code.InstructionCount()
	for offset := 0; offset < count; {
		opcode := code.Instruction(uint16(offset))
		info := op.GetInfo(opcode)
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode at offset %d: %d", offset, opcode)
		}
		if offset+info.OperandCount >= count+1 {
			return nil, fmt.Errorf("truncated instruction at offset %d: %s", offset, info.Name)
		}
		operands := make([]op.Code, info.OperandCount)
		for i := 0; i < info.OperandCount; i++ {
			operands[i] = code.Instruction(uint16(offset + 1 + i))
		}
		var err error
		var constant interface{}
		var annotation string
		switch opcode {
		case op.LoadFast, op.StoreFast, op.LoadFastAndClear:
			annotation = localVariableName(code, operands[0])
		case op.LoadGlobal, op.StoreGlobal:
			annotation, err = globalVariableName(code, int(operands[0]))
			if err != nil {
				return nil, err
			}
		case op.LoadFree, op.StoreFree:
			annotation = freeVariableName(code, operands[0])
		case op.BinaryOp:
			annotation = op.BinaryOpType(operands[0]).String()
		case op.CompareOp:
			annotation = op.CompareOpType(operands[0]).String()
		case op.LoadConst:
			constant, err = constantValue(code, int(operands[0]))
			if err != nil {
				return nil, err
			}
			annotation = fmt.Sprintf("%v", constant)
		case op.BeginRegion:
			annotation, err = regionInfo(code, operands[0])
			if err != nil {
				return nil, err
			}
		case op.PushExcept:
			annotation, err = handlerInfo(code, operands[0])
			if err != nil {
				return nil, err
			}
		}
		instructions = append(instructions, Instruction{
			Offset:     offset,
			Name:       info.Name,
			Opcode:     opcode,
			Operands:   operands,
			Annotation: annotation,
			Constant:   constant,
		})
		offset += 1 + info.OperandCount
	}
	return instructions, nil
}

var (
	boldText    = color.New(color.Bold)
	italicText  = color.New(color.Italic)
	yellowText  = color.New(color.FgYellow)
	greenText   = color.New(color.FgGreen)
	magentaText = color.New(color.FgMagenta)
	cyanText    = color.New(color.FgHiCyan)
)

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		var values []string
		values = append(values, fmt.Sprintf("%d", instr.Offset))
		values = append(values, boldText.Sprint(instr.Name))
		values = append(values, formatOperands(instr.Operands))
		if instr.Constant != nil {
			switch c := instr.Constant.(type) {
			case int64:
				values = append(values, yellowText.Sprintf("%d", c))
			case float64:
				values = append(values, yellowText.Sprintf("%f", c))
			case string:
				if len(c) > 80 {
					c = c[:77] + "..."
				}
				values = append(values, greenText.Sprintf("%q", c))
			case *compiler.Function:
				name := c.Name()
				if name == "" {
					name = italicText.Sprint("<anonymous>")
				}
				values = append(values, magentaText.Sprintf("func:%s", name))
			default:
				values = append(values, boldText.Sprintf("%v", c))
			}
		} else if instr.Annotation != "" {
			values = append(values, cyanText.Sprint(instr.Annotation))
		} else {
			values = append(values, "")
		}
		lines = append(lines, values)
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

func formatOperands(ops []op.Code) string {
	var sb strings.Builder
	for i, operand := range ops {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d", operand))
	}
	return sb.String()
}

func localVariableName(code *compiler.Code, index op.Code) string {
	// Shadow slots claimed for comprehension variables have no symbol
	if sym := code.Symbols().Symbol(uint16(index)); sym != nil {
		return sym.Name()
	}
	return fmt.Sprintf("slot_%d", index)
}

func globalVariableName(code *compiler.Code, index int) (string, error) {
	names := code.GlobalNames()
	if index >= len(names) {
		return "", fmt.Errorf("global variable index out of range: %d", index)
	}
	if names[index] == "" {
		return fmt.Sprintf("slot_%d", index), nil
	}
	return names[index], nil
}

func freeVariableName(code *compiler.Code, index op.Code) string {
	symbols := code.Symbols()
	if uint16(index) >= symbols.FreeCount() {
		return ""
	}
	return symbols.Free(uint16(index)).Symbol().Name()
}

func constantValue(code *compiler.Code, index int) (any, error) {
	if code.ConstantsCount() <= index {
		return "", fmt.Errorf("constant index out of range: %d", index)
	}
	return code.Constant(uint16(index)), nil
}

func regionInfo(code *compiler.Code, index op.Code) (string, error) {
	if int(index) >= code.RegionCount() {
		return "", fmt.Errorf("region index out of range: %d", index)
	}
	region := code.Region(uint16(index))
	names := make([]string, 0, len(region.Vars))
	for _, v := range region.Vars {
		names = append(names, v.Name)
	}
	return fmt.Sprintf("vars=%s saves=%d", strings.Join(names, ","), len(region.SaveSlots)), nil
}

func handlerInfo(code *compiler.Code, index op.Code) (string, error) {
	if int(index) >= len(code.ExceptionHandlers()) {
		return "", fmt.Errorf("exception handler index out of range: %d", index)
	}
	handler := code.ExceptionHandler(uint16(index))
	return fmt.Sprintf("catch=%d", handler.CatchStart), nil
}
