/*
File    : PitLang/eval/eval.go
Package eval implements the PitLang tree-walk evaluator.
*/

// Package eval executes an ast.Program directly against an env.Environment:
// a single eval method type-switches over node kinds, delegating each
// case to a small per-construct method.
package eval

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Captainexpo-1/PitLang/ast"
	"github.com/Captainexpo-1/PitLang/env"
	"github.com/Captainexpo-1/PitLang/langerr"
	"github.com/Captainexpo-1/PitLang/stdlib"
	"github.com/Captainexpo-1/PitLang/value"
)

// returnSignal wraps a value propagating out of a function body: a
// distinguished variant detected by pattern-matching at every
// control-flow junction. It is never exposed outside this package.
type returnSignal struct{ value value.Value }

func (r returnSignal) Kind() value.Kind  { return "return_signal" }
func (r returnSignal) Truthy() bool      { return r.value.Truthy() }
func (r returnSignal) Inspect() string   { return r.value.Inspect() }

// Evaluator walks an ast.Program against a global environment pre-seeded
// with the `std` standard library object.
type Evaluator struct {
	Global *env.Environment
	io     *stdlib.IO
}

// New builds an Evaluator with std bound in a fresh global environment.
func New(io_ *stdlib.IO, argv []string) *Evaluator {
	g := env.New()
	g.Define("std", stdlib.New(io_, argv))
	return &Evaluator{Global: g, io: io_}
}

// NewWithWriter is a convenience constructor for callers (such as tests)
// that only care about stdout.
func NewWithWriter(w io.Writer) *Evaluator {
	return New(&stdlib.IO{Out: w, In: nil, Err: os.Stderr}, nil)
}

// Run evaluates every top-level statement in prog against e.Global and
// returns the value of the last statement (Null if the program is empty).
func (e *Evaluator) Run(prog *ast.Program) (value.Value, error) {
	var result value.Value = value.NullValue
	for _, stmt := range prog.Statements {
		v, err := e.eval(stmt, e.Global)
		if err != nil {
			return nil, err
		}
		if rs, ok := v.(returnSignal); ok {
			return rs.value, nil
		}
		result = v
	}
	return result, nil
}

func (e *Evaluator) eval(node ast.Node, scope *env.Environment) (value.Value, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return value.Number{Value: n.Value}, nil
	case *ast.StringLiteral:
		return value.String{Value: n.Value}, nil
	case *ast.BooleanLiteral:
		return value.Boolean{Value: n.Value}, nil
	case *ast.NullLiteral:
		return value.NullValue, nil
	case *ast.Identifier:
		return e.evalIdentifier(n, scope)
	case *ast.ArrayLiteral:
		return e.evalArrayLiteral(n, scope)
	case *ast.ObjectLiteral:
		return e.evalObjectLiteral(n, scope)
	case *ast.UnaryOp:
		return e.evalUnaryOp(n, scope)
	case *ast.IncDec:
		return e.evalIncDec(n, scope)
	case *ast.BinaryOp:
		return e.evalBinaryOp(n, scope)
	case *ast.Assignment:
		return e.evalAssignment(n, scope)
	case *ast.MemberAccess:
		return e.evalMemberAccess(n, scope)
	case *ast.FunctionDeclaration:
		return e.evalFunctionDeclaration(n, scope)
	case *ast.FunctionCall:
		return e.evalFunctionCall(n, scope)
	case *ast.VariableDeclaration:
		return e.evalVariableDeclaration(n, scope)
	case *ast.Block:
		return e.evalBlock(n, scope)
	case *ast.IfStatement:
		return e.evalIfStatement(n, scope)
	case *ast.WhileStatement:
		return e.evalWhileStatement(n, scope)
	case *ast.ForStatement:
		return e.evalForStatement(n, scope)
	case *ast.ReturnStatement:
		return e.evalReturnStatement(n, scope)
	case *ast.ExpressionStatement:
		return e.eval(n.Expr, scope)
	}
	return nil, langerr.Newf(langerr.Runtime, "eval: unhandled node type %T", node)
}

func (e *Evaluator) evalIdentifier(n *ast.Identifier, scope *env.Environment) (value.Value, error) {
	v, ok := scope.Get(n.Name)
	if !ok {
		return nil, langerr.New(langerr.Name, n.Token.Line, n.Token.Column, "undefined variable %q", n.Name)
	}
	return v, nil
}

func (e *Evaluator) evalArrayLiteral(n *ast.ArrayLiteral, scope *env.Environment) (value.Value, error) {
	elems := make([]value.Value, len(n.Elements))
	for i, elExpr := range n.Elements {
		v, err := e.eval(elExpr, scope)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return value.NewArray(elems), nil
}

// evalObjectLiteral evaluates entries in source order; re-setting a key
// already seen overwrites the value in place (last occurrence wins),
// matching value.Object.Set's own semantics.
func (e *Evaluator) evalObjectLiteral(n *ast.ObjectLiteral, scope *env.Environment) (value.Value, error) {
	obj := value.NewObject()
	for _, entry := range n.Entries {
		v, err := e.eval(entry.Value, scope)
		if err != nil {
			return nil, err
		}
		obj.Set(entry.Key, v)
	}
	return obj, nil
}

func (e *Evaluator) evalUnaryOp(n *ast.UnaryOp, scope *env.Environment) (value.Value, error) {
	v, err := e.eval(n.Operand, scope)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "-":
		num, ok := v.(value.Number)
		if !ok {
			return nil, langerr.New(langerr.Type, n.Token.Line, n.Token.Column, "unary '-' requires a number, got %s", value.TypeName(v))
		}
		return value.Number{Value: -num.Value}, nil
	case "!":
		b, ok := v.(value.Boolean)
		if !ok {
			return nil, langerr.New(langerr.Type, n.Token.Line, n.Token.Column, "unary '!' requires a boolean, got %s", value.TypeName(v))
		}
		return value.Boolean{Value: !b.Value}, nil
	}
	return nil, langerr.New(langerr.Runtime, n.Token.Line, n.Token.Column, "unknown unary operator %q", n.Operator)
}

// evalIncDec implements the supplemented prefix ++/-- operators: the
// target is re-read, incremented/decremented, re-assigned, and the new
// value is the expression's result.
func (e *Evaluator) evalIncDec(n *ast.IncDec, scope *env.Environment) (value.Value, error) {
	cur, err := e.eval(n.Target, scope)
	if err != nil {
		return nil, err
	}
	num, ok := cur.(value.Number)
	if !ok {
		return nil, langerr.New(langerr.Type, n.Token.Line, n.Token.Column, "%s requires a number target, got %s", n.Operator, value.TypeName(cur))
	}
	delta := 1.0
	if n.Operator == "--" {
		delta = -1.0
	}
	next := value.Number{Value: num.Value + delta}
	if err := e.assignTo(n.Target, next, scope); err != nil {
		return nil, err
	}
	return next, nil
}

func (e *Evaluator) evalBinaryOp(n *ast.BinaryOp, scope *env.Environment) (value.Value, error) {
	left, err := e.eval(n.Left, scope)
	if err != nil {
		return nil, err
	}

	if n.Operator == "&&" {
		if !left.Truthy() {
			return value.Boolean{Value: false}, nil
		}
		right, err := e.eval(n.Right, scope)
		if err != nil {
			return nil, err
		}
		return value.Boolean{Value: right.Truthy()}, nil
	}
	if n.Operator == "||" {
		if left.Truthy() {
			return value.Boolean{Value: true}, nil
		}
		right, err := e.eval(n.Right, scope)
		if err != nil {
			return nil, err
		}
		return value.Boolean{Value: right.Truthy()}, nil
	}

	right, err := e.eval(n.Right, scope)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "+":
		return evalPlus(left, right, n)
	case "-", "*", "/", "%":
		return evalArith(n.Operator, left, right, n)
	case "==":
		return value.Boolean{Value: value.Equal(left, right)}, nil
	case "!=":
		return value.Boolean{Value: !value.Equal(left, right)}, nil
	case "<", "<=", ">", ">=":
		return evalCompare(n.Operator, left, right, n)
	case "&", "|", "^":
		return evalBitwise(n.Operator, left, right, n)
	}
	return nil, langerr.New(langerr.Runtime, n.Token.Line, n.Token.Column, "unknown binary operator %q", n.Operator)
}

func evalPlus(left, right value.Value, n *ast.BinaryOp) (value.Value, error) {
	if ln, ok := left.(value.Number); ok {
		if rn, ok := right.(value.Number); ok {
			return value.Number{Value: ln.Value + rn.Value}, nil
		}
	}
	if ls, ok := left.(value.String); ok {
		if rs, ok := right.(value.String); ok {
			return value.String{Value: ls.Value + rs.Value}, nil
		}
	}
	return nil, langerr.New(langerr.Type, n.Token.Line, n.Token.Column,
		"'+' requires two numbers or two strings, got %s and %s", value.TypeName(left), value.TypeName(right))
}

// evalArith: division by zero follows IEEE semantics (±Inf/NaN), never
// raising.
func evalArith(op string, left, right value.Value, n *ast.BinaryOp) (value.Value, error) {
	ln, ok1 := left.(value.Number)
	rn, ok2 := right.(value.Number)
	if !ok1 || !ok2 {
		return nil, langerr.New(langerr.Type, n.Token.Line, n.Token.Column,
			"'%s' requires two numbers, got %s and %s", op, value.TypeName(left), value.TypeName(right))
	}
	switch op {
	case "-":
		return value.Number{Value: ln.Value - rn.Value}, nil
	case "*":
		return value.Number{Value: ln.Value * rn.Value}, nil
	case "/":
		return value.Number{Value: ln.Value / rn.Value}, nil
	case "%":
		return value.Number{Value: math.Mod(ln.Value, rn.Value)}, nil
	}
	panic("unreachable")
}

func evalCompare(op string, left, right value.Value, n *ast.BinaryOp) (value.Value, error) {
	ln, ok1 := left.(value.Number)
	rn, ok2 := right.(value.Number)
	if !ok1 || !ok2 {
		return nil, langerr.New(langerr.Type, n.Token.Line, n.Token.Column,
			"'%s' requires two numbers, got %s and %s", op, value.TypeName(left), value.TypeName(right))
	}
	switch op {
	case "<":
		return value.Boolean{Value: ln.Value < rn.Value}, nil
	case "<=":
		return value.Boolean{Value: ln.Value <= rn.Value}, nil
	case ">":
		return value.Boolean{Value: ln.Value > rn.Value}, nil
	case ">=":
		return value.Boolean{Value: ln.Value >= rn.Value}, nil
	}
	panic("unreachable")
}

func evalBitwise(op string, left, right value.Value, n *ast.BinaryOp) (value.Value, error) {
	ln, ok1 := left.(value.Number)
	rn, ok2 := right.(value.Number)
	if !ok1 || !ok2 {
		return nil, langerr.New(langerr.Type, n.Token.Line, n.Token.Column,
			"'%s' requires two numbers, got %s and %s", op, value.TypeName(left), value.TypeName(right))
	}
	li, ri := int64(ln.Value), int64(rn.Value)
	switch op {
	case "&":
		return value.Number{Value: float64(li & ri)}, nil
	case "|":
		return value.Number{Value: float64(li | ri)}, nil
	case "^":
		return value.Number{Value: float64(li ^ ri)}, nil
	}
	panic("unreachable")
}

func (e *Evaluator) evalAssignment(n *ast.Assignment, scope *env.Environment) (value.Value, error) {
	v, err := e.eval(n.Value, scope)
	if err != nil {
		return nil, err
	}
	if err := e.assignTo(n.Target, v, scope); err != nil {
		return nil, err
	}
	return v, nil
}

// assignTo implements both assignment branches: identifier assignment
// walks the chain to an existing binding (NameError if none), member
// assignment requires an Object receiver.
func (e *Evaluator) assignTo(target ast.Expression, v value.Value, scope *env.Environment) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if !scope.Assign(t.Name, v) {
			return langerr.New(langerr.Name, t.Token.Line, t.Token.Column, "assignment to undeclared variable %q", t.Name)
		}
		return nil
	case *ast.MemberAccess:
		recv, err := e.eval(t.Object, scope)
		if err != nil {
			return err
		}
		obj, ok := recv.(*value.Object)
		if !ok {
			return langerr.New(langerr.Type, t.Token.Line, t.Token.Column, "cannot set member %q on %s", t.Member, value.TypeName(recv))
		}
		obj.Set(t.Member, v)
		return nil
	}
	return langerr.Newf(langerr.Runtime, "invalid assignment target %T", target)
}

// evalMemberAccess: on Object, look up the stored property; on
// String/Number/Array, produce a method-binding so the following call
// invokes the matching host method.
func (e *Evaluator) evalMemberAccess(n *ast.MemberAccess, scope *env.Environment) (value.Value, error) {
	recv, err := e.eval(n.Object, scope)
	if err != nil {
		return nil, err
	}
	if obj, ok := recv.(*value.Object); ok {
		v, ok := obj.Get(n.Member)
		if !ok {
			return nil, langerr.New(langerr.Name, n.Token.Line, n.Token.Column, "object has no property %q", n.Member)
		}
		return v, nil
	}
	if _, ok := stdlib.Method(recv.Kind(), n.Member); ok {
		return &value.MethodBinding{Receiver: recv, Method: n.Member}, nil
	}
	return nil, langerr.New(langerr.Type, n.Token.Line, n.Token.Column, "%s has no member %q", value.TypeName(recv), n.Member)
}

func (e *Evaluator) evalFunctionDeclaration(n *ast.FunctionDeclaration, scope *env.Environment) (value.Value, error) {
	fn := &value.Function{Name: n.Name, Parameters: n.Parameters, Body: n.Body, Env: scope}
	if n.Name != "" {
		scope.Define(n.Name, fn)
	}
	return fn, nil
}

func (e *Evaluator) evalFunctionCall(n *ast.FunctionCall, scope *env.Environment) (value.Value, error) {
	callee, err := e.eval(n.Callee, scope)
	if err != nil {
		return nil, err
	}
	args := make([]value.Value, len(n.Arguments))
	for i, a := range n.Arguments {
		v, err := e.eval(a, scope)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch fn := callee.(type) {
	case *value.Function:
		return e.callUserFunction(fn, args, n)
	case *value.HostFunction:
		v, err := fn.Fn(value.NullValue, args)
		if err != nil {
			return nil, toPositioned(err, n)
		}
		return v, nil
	case *value.MethodBinding:
		method, _ := stdlib.Method(fn.Receiver.Kind(), fn.Method)
		v, err := method(fn.Receiver, args)
		if err != nil {
			return nil, toPositioned(err, n)
		}
		return v, nil
	}
	return nil, langerr.New(langerr.Type, n.Token.Line, n.Token.Column, "%s is not callable", value.TypeName(callee))
}

// toPositioned attaches the call site's position to an error raised deep
// inside a host function, unless the error already carries one.
func toPositioned(err error, n *ast.FunctionCall) error {
	if le, ok := err.(*langerr.Error); ok && le.Line == 0 && le.Column == 0 {
		return langerr.New(le.Kind, n.Token.Line, n.Token.Column, "%s", le.Message)
	}
	return err
}

func (e *Evaluator) callUserFunction(fn *value.Function, args []value.Value, call *ast.FunctionCall) (value.Value, error) {
	if len(args) != len(fn.Parameters) {
		return nil, langerr.New(langerr.Argument, call.Token.Line, call.Token.Column,
			"%s expects %d argument(s), got %d", functionLabel(fn), len(fn.Parameters), len(args))
	}
	closureEnv, ok := fn.Env.(*env.Environment)
	if !ok {
		return nil, langerr.Newf(langerr.Runtime, "function %s has no tree-walk closure environment", functionLabel(fn))
	}
	callEnv := env.NewEnclosed(closureEnv)
	for i, p := range fn.Parameters {
		callEnv.Define(p, args[i])
	}
	body, ok := fn.Body.(*ast.Block)
	if !ok {
		return nil, langerr.Newf(langerr.Runtime, "function %s has no tree-walk body", functionLabel(fn))
	}
	result, err := e.evalBlock(body, callEnv)
	if err != nil {
		return nil, err
	}
	if rs, ok := result.(returnSignal); ok {
		return rs.value, nil
	}
	return value.NullValue, nil
}

func functionLabel(fn *value.Function) string {
	if fn.Name == "" {
		return "<anonymous function>"
	}
	return fmt.Sprintf("function %q", fn.Name)
}

func (e *Evaluator) evalVariableDeclaration(n *ast.VariableDeclaration, scope *env.Environment) (value.Value, error) {
	var v value.Value = value.NullValue
	if n.Initializer != nil {
		var err error
		v, err = e.eval(n.Initializer, scope)
		if err != nil {
			return nil, err
		}
	}
	scope.Define(n.Name, v)
	return value.NullValue, nil
}

// evalBlock enters a child scope, evaluates statements in order, and
// returns the last statement's value, or a returnSignal the moment one is
// produced (propagating it unevaluated past the remaining statements).
func (e *Evaluator) evalBlock(n *ast.Block, scope *env.Environment) (value.Value, error) {
	child := env.NewEnclosed(scope)
	var result value.Value = value.NullValue
	for _, stmt := range n.Statements {
		v, err := e.eval(stmt, child)
		if err != nil {
			return nil, err
		}
		if rs, ok := v.(returnSignal); ok {
			return rs, nil
		}
		result = v
	}
	return result, nil
}

func (e *Evaluator) evalIfStatement(n *ast.IfStatement, scope *env.Environment) (value.Value, error) {
	cond, err := e.eval(n.Condition, scope)
	if err != nil {
		return nil, err
	}
	b, ok := cond.(value.Boolean)
	if !ok {
		return nil, langerr.New(langerr.Type, n.Token.Line, n.Token.Column, "if condition must be boolean, got %s", value.TypeName(cond))
	}
	if b.Value {
		return e.eval(n.Then, scope)
	}
	if n.Else != nil {
		return e.eval(n.Else, scope)
	}
	return value.NullValue, nil
}

func (e *Evaluator) evalWhileStatement(n *ast.WhileStatement, scope *env.Environment) (value.Value, error) {
	for {
		cond, err := e.eval(n.Condition, scope)
		if err != nil {
			return nil, err
		}
		if !cond.Truthy() {
			return value.NullValue, nil
		}
		v, err := e.eval(n.Body, scope)
		if err != nil {
			return nil, err
		}
		if rs, ok := v.(returnSignal); ok {
			return rs, nil
		}
	}
}

func (e *Evaluator) evalForStatement(n *ast.ForStatement, scope *env.Environment) (value.Value, error) {
	loopScope := env.NewEnclosed(scope)
	if n.Init != nil {
		if _, err := e.eval(n.Init, loopScope); err != nil {
			return nil, err
		}
	}
	for {
		cond, err := e.eval(n.Condition, loopScope)
		if err != nil {
			return nil, err
		}
		if !cond.Truthy() {
			return value.NullValue, nil
		}
		v, err := e.eval(n.Body, loopScope)
		if err != nil {
			return nil, err
		}
		if rs, ok := v.(returnSignal); ok {
			return rs, nil
		}
		if n.Step != nil {
			if _, err := e.eval(n.Step, loopScope); err != nil {
				return nil, err
			}
		}
	}
}

func (e *Evaluator) evalReturnStatement(n *ast.ReturnStatement, scope *env.Environment) (value.Value, error) {
	if n.Value == nil {
		return returnSignal{value: value.NullValue}, nil
	}
	v, err := e.eval(n.Value, scope)
	if err != nil {
		return nil, err
	}
	return returnSignal{value: v}, nil
}
