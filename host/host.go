// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package host bridges Go functions into the Lua runtime as callable
// values, and holds the global variable environment a running chunk
// sees.
package host

import (
	"errors"
	"fmt"

	"github.com/lua51vm/lua51vm/value"
)

// ErrArg is the sentinel every *ArgError wraps, so callers can test for
// a bad-argument failure with errors.Is(err, host.ErrArg).
var ErrArg = errors.New("bad host function argument")

// ArgError reports a host function called with an unacceptable
// argument: wrong type, missing, or out of range.
type ArgError struct {
	Func string
	Arg  int
	Msg  string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("bad argument #%d to '%s' (%s)", e.Arg, e.Func, e.Msg)
}

// Unwrap lets errors.Is/errors.As see ArgError as an ErrArg.
func (e *ArgError) Unwrap() error { return ErrArg }

// NewArgError builds an ArgError for the given host function name,
// 1-based argument position, and complaint.
func NewArgError(funcName string, arg int, msg string) *ArgError {
	return &ArgError{Func: funcName, Arg: arg, Msg: msg}
}

// Func is a host-implemented callable, the bridge between a Go function
// and a value.Value that the VM's CALL opcode can invoke. Always held
// and compared by pointer so it satisfies Go's map-key comparability
// even though it closes over a func field.
type Func struct {
	name string
	fn   func(args []value.Value) ([]value.Value, error)
}

// NewFunc wraps fn as a named host callable.
func NewFunc(name string, fn func(args []value.Value) ([]value.Value, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Call invokes the wrapped function. It satisfies value.HostFunc.
func (f *Func) Call(args []value.Value) ([]value.Value, error) {
	return f.fn(args)
}

// Name returns the callable's registered name. It satisfies
// value.HostFunc.
func (f *Func) Name() string { return f.name }

// Value wraps f as a value.Value for storage in globals or tables.
func (f *Func) Value() value.Value { return value.FromHostFunc(f) }

// Environment holds the global variable namespace a chunk executes
// against: GETGLOBAL/SETGLOBAL read and write here. Mirrors LuaEnv's
// get/set surface.
type Environment struct {
	globals map[string]value.Value
}

// NewEnvironment creates an empty global environment.
func NewEnvironment() *Environment {
	return &Environment{globals: make(map[string]value.Value)}
}

// Get returns the value of a global, or Nil if it has never been set.
func (e *Environment) Get(name string) value.Value {
	v, ok := e.globals[name]
	if !ok {
		return value.Nil
	}
	return v
}

// Set assigns a global variable.
func (e *Environment) Set(name string, v value.Value) {
	e.globals[name] = v
}

// Register installs a host function as a global, for library bootstrap
// code (stdlib.OpenLibs and friends).
func (e *Environment) Register(name string, fn func(args []value.Value) ([]value.Value, error)) {
	e.Set(name, value.FromHostFunc(NewFunc(name, fn)))
}

// RegisterTable installs a pre-built table as a global, used to expose a
// library namespace such as `math` or `string`.
func (e *Environment) RegisterTable(name string, t *value.Table) {
	e.Set(name, value.FromTable(t))
}
