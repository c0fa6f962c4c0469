package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Captainexpo-1/PitLang/bytecode"
	"github.com/Captainexpo-1/PitLang/parser"
	"github.com/Captainexpo-1/PitLang/value"
)

func compile(t *testing.T, src string) *bytecode.Function {
	t.Helper()
	prog, errs := parser.Parse(src)
	require.Empty(t, errs, "%v", errs)
	fn, err := Compile(prog)
	require.Nil(t, err, "%v", err)
	return fn
}

func TestCompile_ArithmeticEmitsConstantsAndOps(t *testing.T) {
	fn := compile(t, `1 + 2 * 3;`)
	dis := bytecode.Disassemble(fn)
	require.True(t, strings.Contains(dis, "PushConst"))
	require.True(t, strings.Contains(dis, "Mul"))
	require.True(t, strings.Contains(dis, "Add"))
	require.True(t, strings.Contains(dis, "Halt"))
}

func TestCompile_FinalExpressionIsNotPopped(t *testing.T) {
	fn := compile(t, `1; 2; 3;`)
	last := fn.Instructions[len(fn.Instructions)-2]
	require.Equal(t, bytecode.OpPushConst, last.Op)
	require.Equal(t, "3", fn.Constants[last.IntOperand].Inspect())
}

func TestCompile_VariableDeclarationUsesLocalSlot(t *testing.T) {
	fn := compile(t, `let x = 1; x;`)
	var sawStoreLocal, sawLoadLocal bool
	for _, ins := range fn.Instructions {
		if ins.Op == bytecode.OpStoreLocal {
			sawStoreLocal = true
		}
		if ins.Op == bytecode.OpLoadLocal {
			sawLoadLocal = true
		}
	}
	require.True(t, sawStoreLocal)
	require.True(t, sawLoadLocal)
	require.Equal(t, []string{"x"}, fn.Locals)
}

func TestCompile_UndeclaredIdentifierEmitsLoadVar(t *testing.T) {
	fn := compile(t, `x;`)
	require.Equal(t, bytecode.OpLoadVar, fn.Instructions[0].Op)
	require.Equal(t, "x", fn.Instructions[0].NameOperand)
}

func TestCompile_IfElseEmitsPatchedJumps(t *testing.T) {
	fn := compile(t, `if (true) { 1; } else { 2; }`)
	var sawJumpIfFalse, sawJmp bool
	for _, ins := range fn.Instructions {
		if ins.Op == bytecode.OpJumpIfFalse {
			sawJumpIfFalse = true
		}
		if ins.Op == bytecode.OpJmp {
			sawJmp = true
		}
	}
	require.True(t, sawJumpIfFalse)
	require.True(t, sawJmp)
}

func TestCompile_FunctionDeclarationAddsFunctionConstant(t *testing.T) {
	fn := compile(t, `fn add(a, b) { return a + b; } add(1, 2);`)
	foundFn, foundCall := false, false
	for _, c := range fn.Constants {
		if _, ok := c.(*value.Function); ok {
			foundFn = true
		}
	}
	for _, ins := range fn.Instructions {
		if ins.Op == bytecode.OpCall {
			foundCall = true
		}
	}
	require.True(t, foundFn)
	require.True(t, foundCall)
}

func TestCompile_ObjectLiteralUsesNewObjectAndSetProperty(t *testing.T) {
	fn := compile(t, `({x: 1, y: 2});`)
	var sawNewObject, sawSetProperty int
	for _, ins := range fn.Instructions {
		if ins.Op == bytecode.OpNewObject {
			sawNewObject++
		}
		if ins.Op == bytecode.OpSetProperty {
			sawSetProperty++
		}
	}
	require.Equal(t, 1, sawNewObject)
	require.Equal(t, 2, sawSetProperty)
}

func TestCompile_MemberAssignmentCompilesReceiverBeforeValue(t *testing.T) {
	fn := compile(t, `let o = {x: 1}; o.x = 2;`)
	var setIdx = -1
	for i, ins := range fn.Instructions {
		if ins.Op == bytecode.OpSetProperty && ins.NameOperand == "x" {
			setIdx = i
		}
	}
	require.NotEqual(t, -1, setIdx)
	require.Equal(t, bytecode.OpLoadLocal, fn.Instructions[setIdx-2].Op)
	require.Equal(t, bytecode.OpPushConst, fn.Instructions[setIdx-1].Op)
}

func TestCompile_ShortCircuitAndEmitsDupAndJump(t *testing.T) {
	fn := compile(t, `true && false;`)
	var sawDup, sawJumpIfFalse bool
	for _, ins := range fn.Instructions {
		if ins.Op == bytecode.OpDup {
			sawDup = true
		}
		if ins.Op == bytecode.OpJumpIfFalse {
			sawJumpIfFalse = true
		}
	}
	require.True(t, sawDup)
	require.True(t, sawJumpIfFalse)
}
