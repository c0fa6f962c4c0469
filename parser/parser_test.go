package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Captainexpo-1/PitLang/ast"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := Parse(src)
	require.Empty(t, errs, "%v", errs)
	return prog
}

func TestParse_VariableDeclaration(t *testing.T) {
	prog := parse(t, `let x = 1 + 2;`)
	require.Len(t, prog.Statements, 1)
	decl, ok := prog.Statements[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	require.Equal(t, "x", decl.Name)
	bin, ok := decl.Initializer.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "+", bin.Operator)
}

func TestParse_OperatorPrecedence(t *testing.T) {
	prog := parse(t, `1 + 2 * 3;`)
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	top := stmt.Expr.(*ast.BinaryOp)
	require.Equal(t, "+", top.Operator)
	right := top.Right.(*ast.BinaryOp)
	require.Equal(t, "*", right.Operator)
}

func TestParse_UnaryBindsTighterThanSum(t *testing.T) {
	prog := parse(t, `-a + b;`)
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	top := stmt.Expr.(*ast.BinaryOp)
	require.Equal(t, "+", top.Operator)
	_, ok := top.Left.(*ast.UnaryOp)
	require.True(t, ok, "expected left operand to be the unary op, got %T", top.Left)
}

func TestParse_BitwiseOperatorsHaveDistinctPrecedence(t *testing.T) {
	prog := parse(t, `a & b | c;`)
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	top := stmt.Expr.(*ast.BinaryOp)
	require.Equal(t, "&", top.Operator)
	right := top.Right.(*ast.BinaryOp)
	require.Equal(t, "|", right.Operator)
}

func TestParse_AssignmentRightAssociative(t *testing.T) {
	prog := parse(t, `a = b = 1;`)
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	outer := stmt.Expr.(*ast.Assignment)
	_, ok := outer.Value.(*ast.Assignment)
	require.True(t, ok)
}

func TestParse_MemberAccessAndCall(t *testing.T) {
	prog := parse(t, `x.push(1);`)
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	call := stmt.Expr.(*ast.FunctionCall)
	member := call.Callee.(*ast.MemberAccess)
	require.Equal(t, "push", member.Member)
	require.Len(t, call.Arguments, 1)
}

func TestParse_IfElse(t *testing.T) {
	prog := parse(t, `if (x) { return 1; } else { return 2; }`)
	stmt := prog.Statements[0].(*ast.IfStatement)
	require.NotNil(t, stmt.Then)
	require.NotNil(t, stmt.Else)
}

func TestParse_IfWithoutBraces(t *testing.T) {
	prog := parse(t, `if (x) return 1;`)
	stmt := prog.Statements[0].(*ast.IfStatement)
	_, ok := stmt.Then.(*ast.ReturnStatement)
	require.True(t, ok)
}

func TestParse_While(t *testing.T) {
	prog := parse(t, `while (x) { x = x - 1; }`)
	stmt := prog.Statements[0].(*ast.WhileStatement)
	_, ok := stmt.Body.(*ast.Block)
	require.True(t, ok)
}

func TestParse_ForLoop(t *testing.T) {
	prog := parse(t, `for let i = 0; i < 10 ; i = i + 1 { print(i); }`)
	stmt := prog.Statements[0].(*ast.ForStatement)
	_, ok := stmt.Init.(*ast.VariableDeclaration)
	require.True(t, ok)
	require.NotNil(t, stmt.Condition)
	_, ok = stmt.Step.(*ast.ExpressionStatement)
	require.True(t, ok)
	_, ok = stmt.Body.(*ast.Block)
	require.True(t, ok)
}

func TestParse_FunctionDeclaration(t *testing.T) {
	prog := parse(t, `fn add(a, b) { return a + b; }`)
	decl := prog.Statements[0].(*ast.FunctionDeclaration)
	require.Equal(t, "add", decl.Name)
	require.Equal(t, []string{"a", "b"}, decl.Parameters)
}

func TestParse_AnonymousFunctionExpression(t *testing.T) {
	prog := parse(t, `let f = fn(a) { return a; };`)
	decl := prog.Statements[0].(*ast.VariableDeclaration)
	fn := decl.Initializer.(*ast.FunctionDeclaration)
	require.Equal(t, "", fn.Name)
}

func TestParse_ArrayAndObjectLiterals(t *testing.T) {
	prog := parse(t, `let a = [1, 2, 3]; let o = {x: 1, y: 2};`)
	arrDecl := prog.Statements[0].(*ast.VariableDeclaration)
	arr := arrDecl.Initializer.(*ast.ArrayLiteral)
	require.Len(t, arr.Elements, 3)

	objDecl := prog.Statements[1].(*ast.VariableDeclaration)
	obj := objDecl.Initializer.(*ast.ObjectLiteral)
	require.Len(t, obj.Entries, 2)
}

func TestParse_ObjectLiteralDuplicateKeysKept(t *testing.T) {
	prog := parse(t, `let o = {x: 1, x: 2};`)
	decl := prog.Statements[0].(*ast.VariableDeclaration)
	obj := decl.Initializer.(*ast.ObjectLiteral)
	require.Len(t, obj.Entries, 2)
}

func TestParse_PrefixIncDec(t *testing.T) {
	prog := parse(t, `++x;`)
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	inc := stmt.Expr.(*ast.IncDec)
	require.Equal(t, "++", inc.Operator)
}

func TestParse_BareReturn(t *testing.T) {
	prog := parse(t, `fn f() { return; }`)
	decl := prog.Statements[0].(*ast.FunctionDeclaration)
	ret := decl.Body.Statements[0].(*ast.ReturnStatement)
	require.Nil(t, ret.Value)
}

func TestParse_InvalidAssignmentTargetIsError(t *testing.T) {
	_, errs := Parse(`1 = 2;`)
	require.NotEmpty(t, errs)
}

func TestParse_SyntaxErrorRecoversToNextStatement(t *testing.T) {
	_, errs := Parse(`let x = ; let y = 1;`)
	require.NotEmpty(t, errs)
	require.Len(t, errs, 1)
}
