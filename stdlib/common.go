// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package stdlib implements the portion of the Lua 5.1 base, math,
// string, and table libraries that make sense for a host embedding
// this VM: no OS, io, or coroutine access, no pattern matching.
package stdlib

import (
	"github.com/lua51vm/lua51vm/host"
	"github.com/lua51vm/lua51vm/value"
)

// requiredArg fetches the 1-based argument idx, raising an ArgError if
// it is missing or (when kind is non-empty) of the wrong type. Mirrors
// lib/common.py's required_arg.
func requiredArg(funcName string, args []value.Value, idx int, kind string) (value.Value, error) {
	if idx-1 >= len(args) {
		return value.Nil, host.NewArgError(funcName, idx, "value expected")
	}
	arg := args[idx-1]
	if kind != "" && arg.TypeName() != kind {
		return value.Nil, host.NewArgError(funcName, idx, kind+" expected, got "+arg.TypeName())
	}
	return arg, nil
}

// optionalArg fetches the 1-based argument idx, returning Nil with no
// error when absent or explicitly nil, and validating its type otherwise.
// Mirrors lib/common.py's optional_arg.
func optionalArg(funcName string, args []value.Value, idx int, kind string) (value.Value, error) {
	if idx-1 >= len(args) || args[idx-1].IsNil() {
		return value.Nil, nil
	}
	arg := args[idx-1]
	if kind != "" && arg.TypeName() != kind {
		return value.Nil, host.NewArgError(funcName, idx, kind+" expected, got "+arg.TypeName())
	}
	return arg, nil
}

func argOr(v value.Value, fallback value.Value) value.Value {
	if v.IsNil() {
		return fallback
	}
	return v
}

// OpenLibs installs the base library directly as globals and the
// math/string/table libraries as their namespace tables, the way a
// Lua host normally bootstraps an Environment before running a chunk.
// pcall is not included here: call RegisterPCall(env, vm) once the
// *vm.VM it calls back through exists.
func OpenLibs(env *host.Environment) {
	openBase(env)
	env.RegisterTable("math", mathTable())
	env.RegisterTable("string", stringTable())
	env.RegisterTable("table", tableTable())
}
