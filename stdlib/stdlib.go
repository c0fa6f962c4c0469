/*
File    : PitLang/stdlib/stdlib.go
Package stdlib implements the PitLang standard library.
*/

// Package stdlib builds the global `std` object and the built-in methods
// callable on String/Number/Array receivers. Built-ins are registered into
// a lookup table and exposed as a value.Object, so PitLang programs see
// `std` as an ordinary bound name rather than a magic prefix.
package stdlib

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Captainexpo-1/PitLang/langerr"
	"github.com/Captainexpo-1/PitLang/value"
)

// IO bundles the streams std functions read from and write to, so tests can
// substitute buffers instead of the process's real stdio (grounded on the
// teacher's Runtime.GetInputReader()/io.Writer callback parameters).
type IO struct {
	Out io.Writer
	In  *bufio.Reader
	Err io.Writer
}

// DefaultIO wires std to the process's real standard streams.
func DefaultIO() *IO {
	return &IO{Out: os.Stdout, In: bufio.NewReader(os.Stdin), Err: os.Stderr}
}

// New builds the `std` object bound into the global environment.
func New(io_ *IO, argv []string) *value.Object {
	std := value.NewObject()

	host := func(name string, fn value.HostFunctionImpl) *value.HostFunction {
		return &value.HostFunction{Name: name, Fn: fn}
	}

	std.Set("time", host("time", func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, langerr.Newf(langerr.Argument, "std.time expects 0 arguments, got %d", len(args))
		}
		return value.Number{Value: float64(time.Now().UnixNano()) / 1e9}, nil
	}))

	std.Set("random", host("random", func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, langerr.Newf(langerr.Argument, "std.random expects 0 arguments, got %d", len(args))
		}
		return value.Number{Value: rand.Float64()}, nil
	}))

	std.Set("print", host("print", func(_ value.Value, args []value.Value) (value.Value, error) {
		for _, a := range args {
			fmt.Fprint(io_.Out, a.Inspect())
		}
		return value.NullValue, nil
	}))

	std.Set("println", host("println", func(_ value.Value, args []value.Value) (value.Value, error) {
		for _, a := range args {
			fmt.Fprint(io_.Out, a.Inspect())
		}
		fmt.Fprintln(io_.Out)
		return value.NullValue, nil
	}))

	std.Set("argv", host("argv", func(_ value.Value, args []value.Value) (value.Value, error) {
		elems := make([]value.Value, len(argv))
		for i, a := range argv {
			elems[i] = value.String{Value: a}
		}
		return value.NewArray(elems), nil
	}))

	std.Set("get_line", host("get_line", func(_ value.Value, args []value.Value) (value.Value, error) {
		line, err := io_.In.ReadString('\n')
		if err != nil && line == "" {
			return value.NullValue, nil
		}
		return value.String{Value: line}, nil
	}))

	std.Set("read_file", host("read_file", func(_ value.Value, args []value.Value) (value.Value, error) {
		path, err := argString(args, 0, "std.read_file")
		if err != nil {
			return nil, err
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return value.NullValue, nil
		}
		return value.String{Value: string(data)}, nil
	}))

	std.Set("write_file", host("write_file", func(_ value.Value, args []value.Value) (value.Value, error) {
		path, err := argString(args, 0, "std.write_file")
		if err != nil {
			return nil, err
		}
		contents, err := argString(args, 1, "std.write_file")
		if err != nil {
			return nil, err
		}
		if werr := os.WriteFile(path, []byte(contents), 0644); werr != nil {
			fmt.Fprintf(io_.Err, "std.write_file: %v\n", werr)
		}
		return value.NullValue, nil
	}))

	std.Set("exit", host("exit", func(_ value.Value, args []value.Value) (value.Value, error) {
		code, err := argNumber(args, 0, "std.exit")
		if err != nil {
			return nil, err
		}
		os.Exit(int(code))
		return value.NullValue, nil
	}))

	return std
}

func argString(args []value.Value, i int, who string) (string, error) {
	if i >= len(args) {
		return "", langerr.Newf(langerr.Argument, "%s expects at least %d argument(s), got %d", who, i+1, len(args))
	}
	s, ok := args[i].(value.String)
	if !ok {
		return "", langerr.Newf(langerr.Type, "%s expects a string argument, got %s", who, value.TypeName(args[i]))
	}
	return s.Value, nil
}

func argNumber(args []value.Value, i int, who string) (float64, error) {
	if i >= len(args) {
		return 0, langerr.Newf(langerr.Argument, "%s expects at least %d argument(s), got %d", who, i+1, len(args))
	}
	n, ok := args[i].(value.Number)
	if !ok {
		return 0, langerr.Newf(langerr.Type, "%s expects a number argument, got %s", who, value.TypeName(args[i]))
	}
	return n.Value, nil
}

// MethodFn is a built-in method's implementation, already bound to a
// receiver by the caller.
type MethodFn func(receiver value.Value, args []value.Value) (value.Value, error)

// Method looks up the built-in method named name for a receiver of kind k,
// returning ok=false when the receiver kind has no such method (the caller
// raises NameError/TypeError as appropriate to the call site).
func Method(k value.Kind, name string) (MethodFn, bool) {
	var table map[string]MethodFn
	switch k {
	case value.StringKind:
		table = stringMethods
	case value.NumberKind:
		table = numberMethods
	case value.ArrayKind:
		table = arrayMethods
	default:
		return nil, false
	}
	fn, ok := table[name]
	return fn, ok
}

var stringMethods = map[string]MethodFn{
	"length": func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(value.String)
		return value.Number{Value: float64(utf8.RuneCountInString(s.Value))}, nil
	},
	"ord": func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(value.String)
		runes := []rune(s.Value)
		if len(runes) != 1 {
			return nil, langerr.Newf(langerr.Argument, "String.ord requires a single-character string, got length %d", len(runes))
		}
		return value.Number{Value: float64(runes[0])}, nil
	},
	"get": func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(value.String)
		i, err := argNumber(args, 0, "String.get")
		if err != nil {
			return nil, err
		}
		runes := []rune(s.Value)
		idx, err := resolveIndex(int(i), len(runes), "String.get")
		if err != nil {
			return nil, err
		}
		return value.String{Value: string(runes[idx])}, nil
	},
	"to_int": func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(value.String)
		n, perr := strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
		if perr != nil {
			return nil, langerr.Newf(langerr.Value, "String.to_int: %q is not numeric", s.Value)
		}
		return value.Number{Value: math.Trunc(n)}, nil
	},
	"to_float": func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(value.String)
		n, perr := strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
		if perr != nil {
			return nil, langerr.Newf(langerr.Value, "String.to_float: %q is not numeric", s.Value)
		}
		return value.Number{Value: n}, nil
	},
	"replace": func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(value.String)
		if len(args)%2 != 0 {
			return nil, langerr.Newf(langerr.Argument, "String.replace expects (a,b) pairs, got %d arguments", len(args))
		}
		out := s.Value
		for i := 0; i+1 < len(args); i += 2 {
			a, ok1 := args[i].(value.String)
			b, ok2 := args[i+1].(value.String)
			if !ok1 || !ok2 {
				return nil, langerr.Newf(langerr.Type, "String.replace expects string pairs")
			}
			out = strings.ReplaceAll(out, a.Value, b.Value)
		}
		return value.String{Value: out}, nil
	},
	"split": func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(value.String)
		sep, err := argString(args, 0, "String.split")
		if err != nil {
			return nil, err
		}
		parts := strings.Split(s.Value, sep)
		elems := make([]value.Value, len(parts))
		for i, p := range parts {
			elems[i] = value.String{Value: p}
		}
		return value.NewArray(elems), nil
	},
	"find": func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(value.String)
		sub, err := argString(args, 0, "String.find")
		if err != nil {
			return nil, err
		}
		idx := strings.Index(s.Value, sub)
		if idx < 0 {
			return value.Number{Value: -1}, nil
		}
		return value.Number{Value: float64(utf8.RuneCountInString(s.Value[:idx]))}, nil
	},
}

var numberMethods = map[string]MethodFn{
	"to_string": func(recv value.Value, args []value.Value) (value.Value, error) {
		return value.String{Value: recv.Inspect()}, nil
	},
	"round": func(recv value.Value, args []value.Value) (value.Value, error) {
		n := recv.(value.Number)
		return value.Number{Value: math.Round(n.Value)}, nil
	},
	"floor": func(recv value.Value, args []value.Value) (value.Value, error) {
		n := recv.(value.Number)
		return value.Number{Value: math.Floor(n.Value)}, nil
	},
	"ceil": func(recv value.Value, args []value.Value) (value.Value, error) {
		n := recv.(value.Number)
		return value.Number{Value: math.Ceil(n.Value)}, nil
	},
}

var arrayMethods = map[string]MethodFn{
	"length": func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		return value.Number{Value: float64(len(a.Elements))}, nil
	},
	"push": func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		if len(args) != 1 {
			return nil, langerr.Newf(langerr.Argument, "Array.push expects 1 argument, got %d", len(args))
		}
		a.Elements = append(a.Elements, args[0])
		return value.NullValue, nil
	},
	"pop": func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		if len(a.Elements) == 0 {
			return nil, langerr.Newf(langerr.Value, "Array.pop: array is empty")
		}
		last := a.Elements[len(a.Elements)-1]
		a.Elements = a.Elements[:len(a.Elements)-1]
		return last, nil
	},
	"get": func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		i, err := argNumber(args, 0, "Array.get")
		if err != nil {
			return nil, err
		}
		idx, err := resolveIndex(int(i), len(a.Elements), "Array.get")
		if err != nil {
			return nil, err
		}
		return a.Elements[idx], nil
	},
	"set": func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		i, err := argNumber(args, 0, "Array.set")
		if err != nil {
			return nil, err
		}
		if len(args) < 2 {
			return nil, langerr.Newf(langerr.Argument, "Array.set expects 2 arguments, got %d", len(args))
		}
		idx, err := resolveIndex(int(i), len(a.Elements), "Array.set")
		if err != nil {
			return nil, err
		}
		a.Elements[idx] = args[1]
		return value.NullValue, nil
	},
	"remove": func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		i, err := argNumber(args, 0, "Array.remove")
		if err != nil {
			return nil, err
		}
		idx, err := resolveIndex(int(i), len(a.Elements), "Array.remove")
		if err != nil {
			return nil, err
		}
		removed := a.Elements[idx]
		a.Elements = append(a.Elements[:idx], a.Elements[idx+1:]...)
		return removed, nil
	},
	"find": func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		if len(args) != 1 {
			return nil, langerr.Newf(langerr.Argument, "Array.find expects 1 argument, got %d", len(args))
		}
		for i, e := range a.Elements {
			if value.Equal(e, args[0]) {
				return value.Number{Value: float64(i)}, nil
			}
		}
		return value.Number{Value: -1}, nil
	},
}

// resolveIndex applies negative indexing and raises a ValueError for an
// out-of-bounds result.
func resolveIndex(i, length int, who string) (int, error) {
	idx := i
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		return 0, langerr.Newf(langerr.Value, "%s: index %d out of bounds for length %d", who, i, length)
	}
	return idx, nil
}
