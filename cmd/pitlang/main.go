/*
File    : PitLang/cmd/pitlang/main.go
*/

// Command pitlang is the PitLang driver: file-mode and REPL-mode execution
// against either interpreter backend, plus -t/-ast/-d diagnostic dumps.
// Flag parsing uses urfave/cli/v3's Command{Flags, Action} shape; colored
// error reporting uses fatih/color. Argument-parsing and file-reading live
// entirely in this package and the REPL loop in package repl, outside the
// core lexer/parser/eval/compiler/vm packages' public surface.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/Captainexpo-1/PitLang/ast"
	"github.com/Captainexpo-1/PitLang/bytecode"
	"github.com/Captainexpo-1/PitLang/compiler"
	"github.com/Captainexpo-1/PitLang/eval"
	"github.com/Captainexpo-1/PitLang/lexer"
	"github.com/Captainexpo-1/PitLang/parser"
	"github.com/Captainexpo-1/PitLang/repl"
	"github.com/Captainexpo-1/PitLang/stdlib"
	"github.com/Captainexpo-1/PitLang/vm"
)

const version = "0.1.0"

func main() {
	var dumpTokens, dumpAST, forceEval, useVM, dumpBytecode bool

	app := &cli.Command{
		Name:  "pitlang",
		Usage: "Run PitLang source files or start an interactive session",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "t", Usage: "dump the token stream and exit", Destination: &dumpTokens},
			&cli.BoolFlag{Name: "ast", Usage: "dump the parsed AST and exit", Destination: &dumpAST},
			&cli.BoolFlag{Name: "eval", Usage: "run against the tree-walk evaluator (default)", Destination: &forceEval},
			&cli.BoolFlag{Name: "vm", Usage: "run against the bytecode VM instead of the tree-walk evaluator", Destination: &useVM},
			&cli.BoolFlag{Name: "d", Usage: "dump disassembled bytecode instead of running it", Destination: &dumpBytecode},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) == 0 {
				startREPL(useVM)
				return nil
			}
			return runFile(args[0], dumpTokens, dumpAST, dumpBytecode, useVM)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func startREPL(useVM bool) {
	backend := repl.TreeWalk
	if useVM {
		backend = repl.VM
	}
	r := repl.New("PitLang", version, "----------------------------------------", "pit> ", backend)
	r.Start(os.Stdout)
}

// runFile reads, parses, and executes a source file, recovering a panic
// from either backend into a plain error so a bad program exits cleanly
// instead of printing a Go stack trace.
func runFile(path string, dumpTokens, dumpAST, dumpBytecode, useVM bool) (rerr error) {
	defer func() {
		if rec := recover(); rec != nil {
			rerr = fmt.Errorf("runtime error: %v", rec)
		}
	}()

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if dumpTokens {
		return printTokens(string(src))
	}

	prog, errs := parser.Parse(string(src))
	if len(errs) > 0 {
		for _, e := range errs {
			color.New(color.FgRed).Fprintln(os.Stderr, e)
		}
		os.Exit(1)
	}

	if dumpAST {
		for _, stmt := range prog.Statements {
			printAST(stmt, 0)
		}
		return nil
	}

	if dumpBytecode {
		fn, cerr := compiler.Compile(prog)
		if cerr != nil {
			return cerr
		}
		fmt.Print(bytecode.Disassemble(fn))
		return nil
	}

	if useVM {
		fn, cerr := compiler.Compile(prog)
		if cerr != nil {
			return cerr
		}
		m := vm.New(stdlib.DefaultIO(), os.Args[1:])
		_, rerr := m.Run(fn)
		if rerr != nil {
			return rerr
		}
		return nil
	}

	e := eval.New(stdlib.DefaultIO(), os.Args[1:])
	_, rerr = e.Run(prog)
	return rerr
}

func printTokens(src string) error {
	l := lexer.New(src)
	for {
		tok, lerr := l.NextToken()
		if lerr != nil {
			return lerr
		}
		fmt.Printf("%-4d:%-4d %-12s %q\n", tok.Line, tok.Column, tok.Kind, tok.Literal)
		if tok.Kind.String() == "EOF" {
			return nil
		}
	}
}

// printAST renders a node tree with indentation for the -ast diagnostic
// flag.
func printAST(node ast.Node, depth int) {
	if node == nil {
		return
	}
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Printf("%s%T %q\n", indent, node, node.TokenLiteral())

	switch n := node.(type) {
	case *ast.Block:
		for _, s := range n.Statements {
			printAST(s, depth+1)
		}
	case *ast.IfStatement:
		printAST(n.Condition, depth+1)
		printAST(n.Then, depth+1)
		printAST(n.Else, depth+1)
	case *ast.WhileStatement:
		printAST(n.Condition, depth+1)
		printAST(n.Body, depth+1)
	case *ast.ForStatement:
		printAST(n.Init, depth+1)
		printAST(n.Condition, depth+1)
		printAST(n.Step, depth+1)
		printAST(n.Body, depth+1)
	case *ast.FunctionDeclaration:
		printAST(n.Body, depth+1)
	case *ast.ExpressionStatement:
		printAST(n.Expr, depth+1)
	case *ast.ReturnStatement:
		printAST(n.Value, depth+1)
	case *ast.VariableDeclaration:
		printAST(n.Initializer, depth+1)
	case *ast.BinaryOp:
		printAST(n.Left, depth+1)
		printAST(n.Right, depth+1)
	case *ast.UnaryOp:
		printAST(n.Operand, depth+1)
	case *ast.Assignment:
		printAST(n.Target, depth+1)
		printAST(n.Value, depth+1)
	case *ast.FunctionCall:
		printAST(n.Callee, depth+1)
		for _, a := range n.Arguments {
			printAST(a, depth+1)
		}
	case *ast.MemberAccess:
		printAST(n.Object, depth+1)
	case *ast.IncDec:
		printAST(n.Target, depth+1)
	}
}
