/*
File    : PitLang/vm/vm.go
Package vm implements the PitLang stack machine.
*/

// Package vm executes a compiled bytecode.Function: one shared operand
// stack, a call stack of frames, and a dispatch loop that fetches,
// advances, and executes. Locals are backed by env.Environment (shared
// with eval) rather than a raw value slice, so a frame's LoadLocal/
// StoreLocal and the closures captured from it observe the same bindings
// the tree-walk evaluator would (see compiler/compiler.go's locals doc and
// DESIGN.md).
package vm

import (
	"io"
	"math"
	"os"

	"github.com/Captainexpo-1/PitLang/bytecode"
	"github.com/Captainexpo-1/PitLang/env"
	"github.com/Captainexpo-1/PitLang/langerr"
	"github.com/Captainexpo-1/PitLang/stdlib"
	"github.com/Captainexpo-1/PitLang/value"
)

// frame is one active call's execution context: function, instruction
// pointer, and environment.
type frame struct {
	instrs     bytecode.Instructions
	constants  []value.Value
	localNames []string // slot index -> declared name (bytecode.Function.Locals)
	locals     *env.Environment
	ip         int
	name       string
}

// localName resolves a LoadLocal/StoreLocal slot index against this
// frame's function's Locals table.
func (f *frame) localName(slot int) string {
	if slot < 0 || slot >= len(f.localNames) {
		return ""
	}
	return f.localNames[slot]
}

// VM executes compiled bytecode against a global environment pre-seeded
// with the `std` standard library object, mirroring eval.Evaluator.
type VM struct {
	Global *env.Environment
	stack  []value.Value
	frames []*frame
	io     *stdlib.IO
}

// New builds a VM with std bound in a fresh global environment.
func New(io_ *stdlib.IO, argv []string) *VM {
	g := env.New()
	g.Define("std", stdlib.New(io_, argv))
	return &VM{Global: g, io: io_}
}

// NewWithWriter is a convenience constructor for callers that only care
// about stdout, such as tests.
func NewWithWriter(w io.Writer) *VM {
	return New(&stdlib.IO{Out: w, In: nil, Err: os.Stderr}, nil)
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (value.Value, *langerr.Error) {
	if len(vm.stack) == 0 {
		return nil, langerr.Newf(langerr.Runtime, "stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) top() (value.Value, *langerr.Error) {
	if len(vm.stack) == 0 {
		return nil, langerr.Newf(langerr.Runtime, "stack underflow")
	}
	return vm.stack[len(vm.stack)-1], nil
}

func (vm *VM) currentFrame() *frame { return vm.frames[len(vm.frames)-1] }

// Run executes the top-level program Function and returns the final value
// of the operand stack, or Null if it ended empty.
func (vm *VM) Run(top *bytecode.Function) (value.Value, error) {
	vm.frames = []*frame{{
		instrs:     top.Instructions,
		constants:  top.Constants,
		localNames: top.Locals,
		locals:     vm.Global,
		name:       "<program>",
	}}
	if err := vm.dispatch(); err != nil {
		return nil, err
	}
	v, lerr := vm.top()
	if lerr != nil {
		return value.NullValue, nil
	}
	return v, nil
}

// dispatch is the fetch/advance/execute loop. It runs until Halt executes
// in the outermost frame or every frame has returned.
func (vm *VM) dispatch() *langerr.Error {
	for len(vm.frames) > 0 {
		f := vm.currentFrame()
		if f.ip >= len(f.instrs) {
			vm.frames = vm.frames[:len(vm.frames)-1]
			continue
		}
		ins := f.instrs[f.ip]
		f.ip++

		switch ins.Op {
		case bytecode.OpHalt:
			return nil

		case bytecode.OpPushConst:
			c := f.constants[ins.IntOperand]
			if fn, ok := c.(*value.Function); ok {
				c = closeOver(fn, f.locals)
			}
			vm.push(c)

		case bytecode.OpPop:
			if _, err := vm.pop(); err != nil {
				return err
			}

		case bytecode.OpDup:
			v, err := vm.top()
			if err != nil {
				return err
			}
			vm.push(v)

		case bytecode.OpSwap:
			a, err := vm.pop()
			if err != nil {
				return err
			}
			b, err := vm.pop()
			if err != nil {
				return err
			}
			vm.push(a)
			vm.push(b)

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			if err := vm.execArith(ins.Op); err != nil {
				return err
			}

		case bytecode.OpNegate:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			n, ok := v.(value.Number)
			if !ok {
				return langerr.Newf(langerr.Type, "unary '-' requires a number, got %s", value.TypeName(v))
			}
			vm.push(value.Number{Value: -n.Value})

		case bytecode.OpNot:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			b, ok := v.(value.Boolean)
			if !ok {
				return langerr.Newf(langerr.Type, "unary '!' requires a boolean, got %s", value.TypeName(v))
			}
			vm.push(value.Boolean{Value: !b.Value})

		case bytecode.OpEq, bytecode.OpNe:
			b, err := vm.pop()
			if err != nil {
				return err
			}
			a, err := vm.pop()
			if err != nil {
				return err
			}
			eq := value.Equal(a, b)
			if ins.Op == bytecode.OpNe {
				eq = !eq
			}
			vm.push(value.Boolean{Value: eq})

		case bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
			if err := vm.execCompare(ins.Op); err != nil {
				return err
			}

		case bytecode.OpLoadVar:
			v, ok := f.locals.Get(ins.NameOperand)
			if !ok {
				return langerr.Newf(langerr.Name, "undefined variable %q", ins.NameOperand)
			}
			vm.push(v)

		case bytecode.OpStoreVar:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			if !f.locals.Assign(ins.NameOperand, v) {
				return langerr.Newf(langerr.Name, "assignment to undeclared variable %q", ins.NameOperand)
			}
			vm.push(v)

		case bytecode.OpLoadLocal:
			name := f.localName(ins.IntOperand)
			v, ok := f.locals.Get(name)
			if !ok {
				return langerr.Newf(langerr.Name, "undefined local %q", name)
			}
			vm.push(v)

		case bytecode.OpStoreLocal:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			name := f.localName(ins.IntOperand)
			f.locals.Define(name, v)
			vm.push(v)

		case bytecode.OpJmp:
			f.ip = ins.IntOperand

		case bytecode.OpJumpIfTrue, bytecode.OpJumpIfFalse:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			b, ok := v.(value.Boolean)
			if !ok {
				return langerr.Newf(langerr.Type, "condition must be boolean, got %s", value.TypeName(v))
			}
			if (ins.Op == bytecode.OpJumpIfTrue) == b.Value {
				f.ip = ins.IntOperand
			}

		case bytecode.OpCall:
			if err := vm.execCall(ins.IntOperand); err != nil {
				return err
			}

		case bytecode.OpReturn:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.push(v)

		case bytecode.OpGetProperty:
			if err := vm.execGetProperty(ins.NameOperand); err != nil {
				return err
			}

		case bytecode.OpSetProperty:
			if err := vm.execSetProperty(ins.NameOperand); err != nil {
				return err
			}

		case bytecode.OpBuildArray:
			elems := make([]value.Value, ins.IntOperand)
			for i := ins.IntOperand - 1; i >= 0; i-- {
				v, err := vm.pop()
				if err != nil {
					return err
				}
				elems[i] = v
			}
			vm.push(value.NewArray(elems))

		case bytecode.OpNewObject:
			vm.push(value.NewObject())

		default:
			return langerr.Newf(langerr.Runtime, "vm: unknown opcode %s", ins.Op)
		}
	}
	return nil
}

// closeOver returns a runtime copy of fn with Env bound to capturingEnv.
// Creating the callee's child environment from its captured environment
// depends on every Function constant already carrying the environment
// active at the moment its PushConst executed — mirrors
// eval.evalFunctionDeclaration's scope capture exactly.
func closeOver(fn *value.Function, capturingEnv *env.Environment) *value.Function {
	clone := *fn
	clone.Env = capturingEnv
	return &clone
}

func (vm *VM) execArith(op bytecode.Opcode) *langerr.Error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if op == bytecode.OpAdd {
		if an, ok := a.(value.Number); ok {
			if bn, ok := b.(value.Number); ok {
				vm.push(value.Number{Value: an.Value + bn.Value})
				return nil
			}
		}
		if as, ok := a.(value.String); ok {
			if bs, ok := b.(value.String); ok {
				vm.push(value.String{Value: as.Value + bs.Value})
				return nil
			}
		}
		return langerr.Newf(langerr.Type, "'+' requires two numbers or two strings, got %s and %s", value.TypeName(a), value.TypeName(b))
	}
	an, ok1 := a.(value.Number)
	bn, ok2 := b.(value.Number)
	if !ok1 || !ok2 {
		return langerr.Newf(langerr.Type, "'%s' requires two numbers, got %s and %s", op, value.TypeName(a), value.TypeName(b))
	}
	switch op {
	case bytecode.OpSub:
		vm.push(value.Number{Value: an.Value - bn.Value})
	case bytecode.OpMul:
		vm.push(value.Number{Value: an.Value * bn.Value})
	case bytecode.OpDiv:
		vm.push(value.Number{Value: an.Value / bn.Value})
	case bytecode.OpMod:
		vm.push(value.Number{Value: math.Mod(an.Value, bn.Value)})
	}
	return nil
}

func (vm *VM) execCompare(op bytecode.Opcode) *langerr.Error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	an, ok1 := a.(value.Number)
	bn, ok2 := b.(value.Number)
	if !ok1 || !ok2 {
		return langerr.Newf(langerr.Type, "'%s' requires two numbers, got %s and %s", op, value.TypeName(a), value.TypeName(b))
	}
	var result bool
	switch op {
	case bytecode.OpLt:
		result = an.Value < bn.Value
	case bytecode.OpLe:
		result = an.Value <= bn.Value
	case bytecode.OpGt:
		result = an.Value > bn.Value
	case bytecode.OpGe:
		result = an.Value >= bn.Value
	}
	vm.push(value.Boolean{Value: result})
	return nil
}

func (vm *VM) execCall(argc int) *langerr.Error {
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}
	callee, err := vm.pop()
	if err != nil {
		return err
	}
	switch fn := callee.(type) {
	case *value.Function:
		return vm.callFunction(fn, args)
	case *value.HostFunction:
		v, cerr := fn.Fn(value.NullValue, args)
		if cerr != nil {
			return asError(cerr)
		}
		vm.push(v)
		return nil
	case *value.MethodBinding:
		method, _ := stdlib.Method(fn.Receiver.Kind(), fn.Method)
		v, cerr := method(fn.Receiver, args)
		if cerr != nil {
			return asError(cerr)
		}
		vm.push(v)
		return nil
	}
	return langerr.Newf(langerr.Type, "%s is not callable", value.TypeName(callee))
}

func (vm *VM) callFunction(fn *value.Function, args []value.Value) *langerr.Error {
	if len(args) != len(fn.Parameters) {
		return langerr.Newf(langerr.Argument, "%s expects %d argument(s), got %d", functionLabel(fn), len(fn.Parameters), len(args))
	}
	closureEnv, ok := fn.Env.(*env.Environment)
	if !ok {
		return langerr.Newf(langerr.Runtime, "function %s has no VM closure environment", functionLabel(fn))
	}
	instrs, ok := fn.Instructions.(bytecode.Instructions)
	if !ok {
		return langerr.Newf(langerr.Runtime, "function %s has no compiled body", functionLabel(fn))
	}
	callLocals := env.NewEnclosed(closureEnv)
	for i, p := range fn.Parameters {
		callLocals.Define(p, args[i])
	}
	vm.frames = append(vm.frames, &frame{
		instrs:     instrs,
		constants:  fn.Constants,
		localNames: fn.Locals,
		locals:     callLocals,
		name:       functionLabel(fn),
	})
	return nil
}

func functionLabel(fn *value.Function) string {
	if fn.Name == "" {
		return "<anonymous function>"
	}
	return "function \"" + fn.Name + "\""
}

func (vm *VM) execGetProperty(name string) *langerr.Error {
	recv, err := vm.pop()
	if err != nil {
		return err
	}
	if obj, ok := recv.(*value.Object); ok {
		v, ok := obj.Get(name)
		if !ok {
			return langerr.Newf(langerr.Name, "object has no property %q", name)
		}
		vm.push(v)
		return nil
	}
	if _, ok := stdlib.Method(recv.Kind(), name); ok {
		vm.push(&value.MethodBinding{Receiver: recv, Method: name})
		return nil
	}
	return langerr.Newf(langerr.Type, "%s has no member %q", value.TypeName(recv), name)
}

// execSetProperty implements the shared stack contract every SetProperty
// call site relies on (compiler/compiler.go's compileAssignment and
// compileObjectLiteral): pop value, pop receiver, mutate, push value back.
func (vm *VM) execSetProperty(name string) *langerr.Error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	recv, err := vm.pop()
	if err != nil {
		return err
	}
	obj, ok := recv.(*value.Object)
	if !ok {
		return langerr.Newf(langerr.Type, "cannot set member %q on %s", name, value.TypeName(recv))
	}
	obj.Set(name, v)
	vm.push(v)
	return nil
}

func asError(err error) *langerr.Error {
	if le, ok := err.(*langerr.Error); ok {
		return le
	}
	return langerr.Newf(langerr.Runtime, "%s", err.Error())
}
