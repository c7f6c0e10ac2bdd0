// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package stdlib

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lua51vm/lua51vm/host"
	"github.com/lua51vm/lua51vm/value"
)

// openBase installs the base library functions (print/error/assert/
// type/tostring/tonumber/next/pairs/ipairs) as globals, grounded on
// lib/globals.py's lua_globals table. dofile/dostring/require/
// setglobal/getglobal are dropped: they shell out to a luac binary or
// are no-ops in the original, neither of which belongs in an embedded
// host. pcall needs a *vm.VM to call back through, so it is installed
// separately by RegisterPCall once a VM exists.
func openBase(env *host.Environment) {
	RegisterPrint(env, os.Stdout)
	env.Register("error", baseError)
	env.Register("assert", baseAssert)
	env.Register("type", baseType)
	env.Register("tostring", baseToString)
	env.Register("tonumber", baseToNumber)
	env.Register("next", baseNext)
	env.Register("pairs", basePairs)
	env.Register("ipairs", baseIPairs)
}

// RegisterPrint installs `print` writing tab-separated, newline-
// terminated output to w. Split out from openBase so a host can
// redirect it (tests capture to a strings.Builder; openBase writes to
// os.Stdout).
func RegisterPrint(env *host.Environment, w io.Writer) {
	env.Register("print", func(args []value.Value) ([]value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.ToString()
		}
		fmt.Fprintln(w, strings.Join(parts, "\t"))
		return nil, nil
	})
}

func baseError(args []value.Value) ([]value.Value, error) {
	if len(args) == 0 {
		return nil, errors.New("error")
	}
	return nil, errors.New(args[0].ToString())
}

func baseAssert(args []value.Value) ([]value.Value, error) {
	v, err := requiredArg("assert", args, 1, "")
	if err != nil {
		return nil, err
	}
	if !v.Truthy() {
		if len(args) > 1 {
			return nil, errors.New(args[1].ToString())
		}
		return nil, errors.New("assertion failed!")
	}
	return args, nil
}

func baseType(args []value.Value) ([]value.Value, error) {
	v, err := requiredArg("type", args, 1, "")
	if err != nil {
		return nil, err
	}
	return []value.Value{value.String(v.TypeName())}, nil
}

func baseToString(args []value.Value) ([]value.Value, error) {
	v, err := requiredArg("tostring", args, 1, "")
	if err != nil {
		return nil, err
	}
	return []value.Value{value.String(v.ToString())}, nil
}

func baseToNumber(args []value.Value) ([]value.Value, error) {
	v, err := requiredArg("tonumber", args, 1, "")
	if err != nil {
		return nil, err
	}
	n, ok := v.ToNumber()
	if !ok {
		return []value.Value{value.Nil}, nil
	}
	return []value.Value{n}, nil
}

// baseNext implements `next`, grounded on lib/globals.py's lua_next
// and Table's array-then-hash iteration order.
func baseNext(args []value.Value) ([]value.Value, error) {
	t, err := requiredArg("next", args, 1, "table")
	if err != nil {
		return nil, err
	}
	key, err := optionalArg("next", args, 2, "")
	if err != nil {
		return nil, err
	}
	k, v, ok := t.AsTable().Next(key)
	if !ok {
		return []value.Value{value.Nil}, nil
	}
	return []value.Value{k, v}, nil
}

// basePairs returns (next, t, nil) for the generic `for k, v in
// pairs(t) do ... end` idiom.
func basePairs(args []value.Value) ([]value.Value, error) {
	t, err := requiredArg("pairs", args, 1, "table")
	if err != nil {
		return nil, err
	}
	return []value.Value{host.NewFunc("next", baseNext).Value(), t, value.Nil}, nil
}

// baseIPairs returns an iterator walking the array part from index 1
// until the first nil, plus (t, 0) as its state/control variable, for
// `for i, v in ipairs(t) do ... end`.
func baseIPairs(args []value.Value) ([]value.Value, error) {
	t, err := requiredArg("ipairs", args, 1, "table")
	if err != nil {
		return nil, err
	}
	iter := func(iargs []value.Value) ([]value.Value, error) {
		tbl := iargs[0].AsTable()
		i := iargs[1].AsNumber() + 1
		v := tbl.Get(value.Number(i))
		if v.IsNil() {
			return []value.Value{value.Nil}, nil
		}
		return []value.Value{value.Number(i), v}, nil
	}
	return []value.Value{host.NewFunc("ipairs_iterator", iter).Value(), t, value.Number(0)}, nil
}

// invoker is the slice of *vm.VM that pcall needs: a way to call an
// arbitrary callable Value the same way CALL does. Declared here
// rather than imported directly so this file doesn't pull in package
// vm just to describe the shape; RegisterPCall's caller supplies the
// real *vm.VM, which satisfies this trivially.
type invoker interface {
	Invoke(callee value.Value, args []value.Value) ([]value.Value, error)
}

// RegisterPCall installs `pcall`, Lua's protected call: run f with the
// remaining arguments, trapping any error into a leading false/message
// pair instead of propagating it. The VM's dispatcher has no notion of
// protection; pcall exists entirely at this host-function layer by
// calling back into vm through Invoke, the same path CALL uses.
func RegisterPCall(env *host.Environment, vm invoker) {
	env.Register("pcall", func(args []value.Value) ([]value.Value, error) {
		f, err := requiredArg("pcall", args, 1, "")
		if err != nil {
			return nil, err
		}
		if !f.IsCallable() {
			return []value.Value{value.Bool(false), value.String("attempt to call a " + f.TypeName() + " value")}, nil
		}
		var callArgs []value.Value
		if len(args) > 1 {
			callArgs = args[1:]
		}
		results, callErr := vm.Invoke(f, callArgs)
		if callErr != nil {
			return []value.Value{value.Bool(false), value.String(callErr.Error())}, nil
		}
		return append([]value.Value{value.Bool(true)}, results...), nil
	})
}
