/*
File    : PitLang/repl/repl.go
Package repl implements the Read-Eval-Print Loop for the PitLang interpreter.
*/

// Package repl drives an interactive PitLang session: read a line, parse it,
// run it against either the tree-walk evaluator or the VM, print the
// result. Uses readline for line editing and history, fatih/color for
// feedback, and runs against whichever of PitLang's two backends the
// caller selects.
package repl

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/Captainexpo-1/PitLang/compiler"
	"github.com/Captainexpo-1/PitLang/eval"
	"github.com/Captainexpo-1/PitLang/parser"
	"github.com/Captainexpo-1/PitLang/stdlib"
	"github.com/Captainexpo-1/PitLang/vm"
)

var (
	blueColor   = color.New(color.FgBlue)
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	greenColor  = color.New(color.FgGreen)
	cyanColor   = color.New(color.FgCyan)
)

// Backend selects which of PitLang's two execution engines a Repl drives.
type Backend int

const (
	TreeWalk Backend = iota
	VM
)

// Repl is a configured interactive session. Banner/Version/Line/Prompt are
// purely cosmetic; Backend picks which engine executes each line.
type Repl struct {
	Banner  string
	Version string
	Line    string
	Prompt  string
	Backend Backend
}

// New creates a Repl. Banner/version/line/prompt are display-only; backend
// selects the tree-walk evaluator or the VM.
func New(banner, version, line, prompt string, backend Backend) *Repl {
	return &Repl{Banner: banner, Version: version, Line: line, Prompt: prompt, Backend: backend}
}

func (r *Repl) printBanner(w io.Writer) {
	blueColor.Fprintf(w, "%s\n", r.Line)
	greenColor.Fprintf(w, "%s\n", r.Banner)
	blueColor.Fprintf(w, "%s\n", r.Line)
	yellowColor.Fprintf(w, "PitLang %s\n", r.Version)
	blueColor.Fprintf(w, "%s\n", r.Line)
	cyanColor.Fprintln(w, "Type PitLang code and press enter. Type '.exit' to quit.")
	blueColor.Fprintf(w, "%s\n", r.Line)
}

// session holds whichever backend state persists across lines, so
// variables declared on one line are visible on the next.
type session struct {
	evaluator *eval.Evaluator
	machine   *vm.VM
}

// Start runs the main read-eval-print loop until '.exit' or EOF.
func (r *Repl) Start(w io.Writer) {
	r.printBanner(w)

	rl, err := readline.New(r.Prompt)
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	s := &session{}
	switch r.Backend {
	case VM:
		s.machine = vm.New(&stdlib.IO{Out: w}, nil)
	default:
		s.evaluator = eval.New(&stdlib.IO{Out: w}, nil)
	}

	for {
		line, err := rl.Readline()
		if err != nil {
			w.Write([]byte("Good bye!\n"))
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ".exit" {
			w.Write([]byte("Good bye!\n"))
			return
		}
		rl.SaveHistory(line)
		r.execute(w, line, s)
	}
}

// execute parses and runs one line, printing the result or error. Unlike
// file-mode execution, a failing line does not end the session: a panic
// from either backend is recovered here and reported as a runtime error
// so one bad line can't take down the REPL.
func (r *Repl) execute(w io.Writer, line string, s *session) {
	defer func() {
		if rec := recover(); rec != nil {
			redColor.Fprintf(w, "[runtime error] %v\n", rec)
		}
	}()

	prog, errs := parser.Parse(line)
	if len(errs) > 0 {
		for _, e := range errs {
			redColor.Fprintf(w, "%s\n", e)
		}
		return
	}

	switch r.Backend {
	case VM:
		fn, cerr := compiler.Compile(prog)
		if cerr != nil {
			redColor.Fprintf(w, "%s\n", cerr)
			return
		}
		v, err := s.machine.Run(fn)
		if err != nil {
			redColor.Fprintf(w, "%s\n", err)
			return
		}
		yellowColor.Fprintf(w, "%s\n", v.Inspect())
	default:
		v, err := s.evaluator.Run(prog)
		if err != nil {
			redColor.Fprintf(w, "%s\n", err)
			return
		}
		yellowColor.Fprintf(w, "%s\n", v.Inspect())
	}
}
