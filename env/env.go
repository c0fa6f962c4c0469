/*
File    : PitLang/env/env.go
Package env implements the PitLang lexical environment chain.
*/

// Package env implements a name-to-value table with an optional shared
// parent, forming the lexical scope chain closures capture.
package env

import "github.com/Captainexpo-1/PitLang/value"

// Environment is a single lexical frame. The zero value is not usable;
// construct with New or NewEnclosed.
type Environment struct {
	vars   map[string]value.Value
	parent *Environment
}

// New creates a root (global) environment with no parent.
func New() *Environment {
	return &Environment{vars: make(map[string]value.Value)}
}

// NewEnclosed creates a child environment of parent, as happens on block
// entry and on function call.
func NewEnclosed(parent *Environment) *Environment {
	return &Environment{vars: make(map[string]value.Value), parent: parent}
}

// Get walks the chain from this frame outward, returning the first binding
// found.
func (e *Environment) Get(name string) (value.Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Define inserts name into this (innermost) frame, shadowing any outer
// binding of the same name.
func (e *Environment) Define(name string, v value.Value) {
	e.vars[name] = v
}

// Assign writes v into the innermost frame that already defines name,
// walking outward through the chain, and reports whether such a frame was
// found. It never creates a new binding; the caller is responsible for
// raising a NameError when Assign returns false.
func (e *Environment) Assign(name string, v value.Value) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return true
		}
	}
	return false
}

// Parent returns the enclosing environment, or nil at the global frame.
func (e *Environment) Parent() *Environment { return e.parent }
