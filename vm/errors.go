// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"errors"
	"fmt"
)

// ErrRuntime is the sentinel every *RuntimeError wraps, so callers can
// test for a Lua-level failure with errors.Is(err, vm.ErrRuntime)
// without caring about the specific message.
var ErrRuntime = errors.New("lua runtime error")

// RuntimeError is a Lua-level error: a failed arithmetic/index/call
// operation, or a value raised explicitly via the `error` builtin.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return e.Msg }

// Unwrap lets errors.Is/errors.As see RuntimeError as an ErrRuntime.
func (e *RuntimeError) Unwrap() error { return ErrRuntime }

func newRuntimeError(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

// wrapRuntime lifts an error from package value (a *value.TypeError) or
// package host (a *host.ArgError) into a RuntimeError, preserving its
// message, so the dispatcher has one error type to unwind.
func wrapRuntime(err error) *RuntimeError {
	return &RuntimeError{Msg: err.Error()}
}

// ErrInternal is the sentinel every *InternalError wraps.
var ErrInternal = errors.New("internal vm error")

// InternalError reports a VM invariant violation: a bug in the
// bytecode, the loader, or the dispatcher itself, never a user
// programming mistake. These are meant to fail loudly rather than be
// recovered from.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal vm error: " + e.Msg }

// Unwrap lets errors.Is/errors.As see InternalError as an ErrInternal.
func (e *InternalError) Unwrap() error { return ErrInternal }

func newInternalError(format string, args ...interface{}) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}
