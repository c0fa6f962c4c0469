/*
File    : PitLang/bytecode/bytecode.go
Package bytecode defines the PitLang stack-machine instruction format.
*/

// Package bytecode defines the opcode set, constant pool, and compiled
// Function representation consumed by compiler and executed by vm: an
// Opcode byte plus a single-operand Instruction shape, a constant pool,
// and a Disassemble text-dump helper, covering PitLang's fixed arithmetic/
// logic/variable/control-flow/object instruction set.
package bytecode

import (
	"fmt"

	"github.com/Captainexpo-1/PitLang/value"
)

// Opcode identifies a single bytecode operation.
type Opcode byte

const (
	// Stack & constants
	OpPushConst Opcode = iota
	OpPop
	OpDup
	OpSwap

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNegate

	// Logic
	OpNot
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Variables
	OpLoadVar
	OpStoreVar
	OpLoadLocal
	OpStoreLocal

	// Control flow
	OpJmp
	OpJumpIfTrue
	OpJumpIfFalse

	// Calls
	OpCall
	OpReturn

	// Object & array
	OpGetProperty
	OpSetProperty
	OpBuildArray
	OpNewObject

	// Termination
	OpHalt
)

var opcodeNames = map[Opcode]string{
	OpPushConst:   "PushConst",
	OpPop:         "Pop",
	OpDup:         "Dup",
	OpSwap:        "Swap",
	OpAdd:         "Add",
	OpSub:         "Sub",
	OpMul:         "Mul",
	OpDiv:         "Div",
	OpMod:         "Mod",
	OpNegate:      "Negate",
	OpNot:         "Not",
	OpEq:          "Eq",
	OpNe:          "Ne",
	OpLt:          "Lt",
	OpLe:          "Le",
	OpGt:          "Gt",
	OpGe:          "Ge",
	OpLoadVar:     "LoadVar",
	OpStoreVar:    "StoreVar",
	OpLoadLocal:   "LoadLocal",
	OpStoreLocal:  "StoreLocal",
	OpJmp:         "Jmp",
	OpJumpIfTrue:  "JumpIfTrue",
	OpJumpIfFalse: "JumpIfFalse",
	OpCall:        "Call",
	OpReturn:      "Return",
	OpGetProperty: "GetProperty",
	OpSetProperty: "SetProperty",
	OpBuildArray:  "BuildArray",
	OpNewObject:   "NewObject",
	OpHalt:        "Halt",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// operandKind classifies what an opcode's operand means, purely to drive
// Disassemble's formatting.
type operandKind int

const (
	operandNone operandKind = iota
	operandInt
	operandName
)

var operandKinds = map[Opcode]operandKind{
	OpPushConst:   operandInt,
	OpLoadVar:     operandName,
	OpStoreVar:    operandName,
	OpLoadLocal:   operandInt,
	OpStoreLocal:  operandInt,
	OpJmp:         operandInt,
	OpJumpIfTrue:  operandInt,
	OpJumpIfFalse: operandInt,
	OpCall:        operandInt,
	OpGetProperty: operandName,
	OpSetProperty: operandName,
	OpBuildArray:  operandInt,
}

// Instruction is one opcode plus its operand. IntOperand holds an index
// (constant pool slot, local slot, jump target, call argc) and is the
// active field whenever the opcode's operand is numeric; NameOperand holds
// a variable/property name whenever the opcode addresses the environment
// or an object by name (LoadVar/StoreVar address globals and closures by
// name).
type Instruction struct {
	Op          Opcode
	IntOperand  int
	NameOperand string
}

// Instructions is a straight-line sequence of Instruction, addressed by
// absolute index: jump targets are absolute instruction indices, not
// relative offsets.
type Instructions []Instruction

// Function is one compiled PitLang function (or the top-level program,
// treated as a zero-parameter Function). Locals maps a LoadLocal/
// StoreLocal slot index to the source name it was declared under, so the
// VM can resolve locals through the same name-keyed env.Environment the
// tree-walk evaluator uses, rather than a separate indexed frame —
// trading the raw array-slot performance the opcode shape suggests for
// closure- and recursion-correct variable capture shared with eval (see
// DESIGN.md).
type Function struct {
	Name         string
	Parameters   []string
	Instructions Instructions
	Constants    []value.Value
	Locals       []string
	NumLocals    int
}

// Disassemble renders instructions one per line, resolving PushConst's
// operand against constants for readability.
func Disassemble(fn *Function) string {
	out := ""
	for i, ins := range fn.Instructions {
		out += fmt.Sprintf("%04d %-12s", i, ins.Op)
		switch operandKinds[ins.Op] {
		case operandInt:
			out += fmt.Sprintf(" %d", ins.IntOperand)
			if ins.Op == OpPushConst && ins.IntOperand < len(fn.Constants) {
				out += fmt.Sprintf(" ; %s", fn.Constants[ins.IntOperand].Inspect())
			}
		case operandName:
			out += fmt.Sprintf(" %s", ins.NameOperand)
		}
		out += "\n"
	}
	return out
}
