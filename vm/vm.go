// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package vm implements the Lua 5.1 register-based bytecode dispatcher:
// closures, upvalues, the per-call register stack, and the opcode
// interpreter itself.
package vm

import (
	"github.com/lua51vm/lua51vm/chunk"
	"github.com/lua51vm/lua51vm/host"
	"github.com/lua51vm/lua51vm/instruction"
	"github.com/lua51vm/lua51vm/value"
)

// lfieldsPerFlush is SETLIST's array-block size: each extended-C block
// covers 50 consecutive array indices, matching the Lua 5.1 reference
// implementation's LFIELDS_PER_FLUSH.
const lfieldsPerFlush = 50

// VM runs closures against a shared global Environment.
type VM struct {
	Env *host.Environment
}

// New creates a VM bound to env; GETGLOBAL/SETGLOBAL read and write
// through to it.
func New(env *host.Environment) *VM {
	return &VM{Env: env}
}

// Load wraps a loaded top-level Prototype as a zero-upvalue Closure,
// matching the external "load(bytes) -> Closure" contract from §6 (the
// byte-parsing half of load is chunk.Load; this is the wrap step).
func Load(proto *chunk.Prototype) *Closure {
	return newClosure(proto, nil)
}

// Run executes cl with the given arguments from its entry point,
// matching the external "run(closure, args) -> values | error"
// contract from §6.
func (vm *VM) Run(cl *Closure, args []value.Value) ([]value.Value, error) {
	return vm.Call(cl, args)
}

// Call invokes a closure with args, returning its result values. Used
// both for the top-level entry point and recursively by CALL/TAILCALL/
// TFORLOOP dispatch.
func (vm *VM) Call(cl *Closure, args []value.Value) ([]value.Value, error) {
	proto := cl.Proto
	stack := newStack(proto.MaxStackSize)

	nfixed := proto.NumParams
	for i := 0; i < nfixed; i++ {
		if i < len(args) {
			stack.Set(i, args[i])
		} else {
			stack.Set(i, value.Nil)
		}
	}
	if proto.IsVararg && len(args) > nfixed {
		stack.varargs = append([]value.Value(nil), args[nfixed:]...)
	}
	stack.top = nfixed

	results, err := vm.execute(cl, stack)
	// Every exit from the frame (RETURN, TAILCALL, or a Lua-level error
	// unwinding through it) closes all of its open upvalues, so sibling
	// closures observe the final shared value.
	stack.CloseFrom(0)
	return results, err
}

// Invoke dispatches a call to whatever is callable: a Lua closure or a
// host-provided function. Exported so host functions that themselves
// need to call back into Lua values (such as pcall) can reach the same
// dispatch path CALL/TFORLOOP use.
func (vm *VM) Invoke(callee value.Value, args []value.Value) ([]value.Value, error) {
	return vm.invoke(callee, args)
}

// invoke is Invoke's unexported implementation, used directly by the
// opcode dispatcher.
func (vm *VM) invoke(callee value.Value, args []value.Value) ([]value.Value, error) {
	switch callee.Kind() {
	case value.KindClosure:
		cl, ok := callee.AsClosure().(*Closure)
		if !ok {
			return nil, newInternalError("closure value did not wrap a *vm.Closure")
		}
		return vm.Call(cl, args)
	case value.KindHostFunc:
		res, err := callee.AsHostFunc().Call(args)
		if err != nil {
			return nil, wrapRuntime(err)
		}
		return res, nil
	default:
		return nil, newRuntimeError("attempt to call a %s value", callee.TypeName())
	}
}

// constantValue converts a loaded chunk.Constant into a runtime Value.
func constantValue(c chunk.Constant) value.Value {
	switch c.Kind {
	case chunk.ConstNil:
		return value.Nil
	case chunk.ConstBoolean:
		return value.Bool(c.Boolean)
	case chunk.ConstNumber:
		return value.Number(c.Number)
	case chunk.ConstString:
		return value.String(c.String)
	default:
		return value.Nil
	}
}

// rk resolves an RK-encoded operand: the high bit selects the constant
// pool over the register file.
func rk(proto *chunk.Prototype, stack *Stack, x int) value.Value {
	if instruction.IsConstant(x) {
		idx := instruction.ConstIndex(x)
		if idx < 0 || idx >= len(proto.Constants) {
			return value.Nil
		}
		return constantValue(proto.Constants[idx])
	}
	return stack.Get(x)
}

// execute runs the fetch-decode-dispatch loop for a single invocation
// of cl over stack until a RETURN/TAILCALL or an error ends it.
func (vm *VM) execute(cl *Closure, stack *Stack) ([]value.Value, error) {
	proto := cl.Proto
	pc := 0

	for {
		if pc < 0 || pc >= len(proto.Code) {
			return nil, newInternalError("pc %d out of range (%d instructions)", pc, len(proto.Code))
		}
		inst := proto.Code[pc]
		A, B, C := inst.A, inst.B, inst.C

		switch inst.Op {
		case instruction.OpMove:
			stack.Set(A, stack.Get(B))

		case instruction.OpLoadK:
			stack.Set(A, constantValue(proto.Constants[inst.Bx]))

		case instruction.OpLoadBool:
			stack.Set(A, value.Bool(B != 0))
			if C != 0 {
				pc++
			}

		case instruction.OpLoadNil:
			for i := A; i <= B; i++ {
				stack.Set(i, value.Nil)
			}

		case instruction.OpGetUpval:
			stack.Set(A, cl.Upvals[B].Get())

		case instruction.OpGetGlobal:
			name := proto.Constants[inst.Bx].String
			stack.Set(A, vm.Env.Get(name))

		case instruction.OpGetTable:
			target := stack.Get(B)
			if target.Kind() != value.KindTable {
				return nil, newRuntimeError("attempt to index a %s value", target.TypeName())
			}
			stack.Set(A, target.AsTable().Get(rk(proto, stack, C)))

		case instruction.OpSetGlobal:
			name := proto.Constants[inst.Bx].String
			vm.Env.Set(name, stack.Get(A))

		case instruction.OpSetUpval:
			cl.Upvals[B].Set(stack.Get(A))

		case instruction.OpSetTable:
			target := stack.Get(A)
			if target.Kind() != value.KindTable {
				return nil, newRuntimeError("attempt to index a %s value", target.TypeName())
			}
			target.AsTable().Set(rk(proto, stack, B), rk(proto, stack, C))

		case instruction.OpNewTable:
			arrHint := instruction.DecodeFloatingByte(B)
			hashHint := instruction.DecodeFloatingByte(C)
			stack.Set(A, value.FromTable(value.NewTable(arrHint, hashHint)))

		case instruction.OpSelf:
			recv := stack.Get(B)
			stack.Set(A+1, recv)
			if recv.Kind() != value.KindTable {
				return nil, newRuntimeError("attempt to index a %s value", recv.TypeName())
			}
			stack.Set(A, recv.AsTable().Get(rk(proto, stack, C)))

		case instruction.OpAdd:
			res, err := value.Add(rk(proto, stack, B), rk(proto, stack, C))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			stack.Set(A, res)

		case instruction.OpSub:
			res, err := value.Sub(rk(proto, stack, B), rk(proto, stack, C))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			stack.Set(A, res)

		case instruction.OpMul:
			res, err := value.Mul(rk(proto, stack, B), rk(proto, stack, C))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			stack.Set(A, res)

		case instruction.OpDiv:
			res, err := value.Div(rk(proto, stack, B), rk(proto, stack, C))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			stack.Set(A, res)

		case instruction.OpMod:
			res, err := value.Mod(rk(proto, stack, B), rk(proto, stack, C))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			stack.Set(A, res)

		case instruction.OpPow:
			res, err := value.Pow(rk(proto, stack, B), rk(proto, stack, C))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			stack.Set(A, res)

		case instruction.OpUnm:
			res, err := value.Unm(stack.Get(B))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			stack.Set(A, res)

		case instruction.OpNot:
			stack.Set(A, value.Not(stack.Get(B)))

		case instruction.OpLen:
			res, err := value.Len(stack.Get(B))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			stack.Set(A, res)

		case instruction.OpConcat:
			acc := stack.Get(C)
			for i := C - 1; i >= B; i-- {
				var err error
				acc, err = value.Concat(stack.Get(i), acc)
				if err != nil {
					return nil, wrapRuntime(err)
				}
			}
			stack.Set(A, acc)

		case instruction.OpJmp:
			pc += inst.SBx

		case instruction.OpEq:
			eq := value.Equals(rk(proto, stack, B), rk(proto, stack, C))
			if eq != (A != 0) {
				pc++
			}

		case instruction.OpLt:
			lt, err := value.LessThan(rk(proto, stack, B), rk(proto, stack, C))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			if lt != (A != 0) {
				pc++
			}

		case instruction.OpLe:
			le, err := value.LessEqual(rk(proto, stack, B), rk(proto, stack, C))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			if le != (A != 0) {
				pc++
			}

		case instruction.OpTest:
			if stack.Get(A).Truthy() != (C != 0) {
				pc++
			}

		case instruction.OpTestSet:
			if stack.Get(B).Truthy() != (C != 0) {
				pc++
			} else {
				stack.Set(A, stack.Get(B))
			}

		case instruction.OpCall, instruction.OpTailCall:
			args := callArgs(stack, A, B)
			results, err := vm.invoke(stack.Get(A), args)
			if err != nil {
				return nil, err
			}
			if inst.Op == instruction.OpTailCall {
				stack.CloseFrom(0)
				return results, nil
			}
			nres := C - 1
			if C == 0 {
				nres = len(results)
			}
			for i := 0; i < nres; i++ {
				if i < len(results) {
					stack.Set(A+i, results[i])
				} else {
					stack.Set(A+i, value.Nil)
				}
			}
			stack.top = A + nres

		case instruction.OpReturn:
			results := returnValues(stack, A, B)
			stack.CloseFrom(A)
			return results, nil

		case instruction.OpForLoop:
			sum, err := value.Add(stack.Get(A), stack.Get(A+2))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			stack.Set(A, sum)
			le, err := value.LessEqual(sum, stack.Get(A+1))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			if le {
				pc += inst.SBx
				stack.Set(A+3, sum)
			}

		case instruction.OpForPrep:
			diff, err := value.Sub(stack.Get(A), stack.Get(A+2))
			if err != nil {
				return nil, wrapRuntime(err)
			}
			stack.Set(A, diff)
			pc += inst.SBx

		case instruction.OpTForLoop:
			results, err := vm.invoke(stack.Get(A), []value.Value{stack.Get(A + 1), stack.Get(A + 2)})
			if err != nil {
				return nil, err
			}
			for i := 0; i < C; i++ {
				if i < len(results) {
					stack.Set(A+3+i, results[i])
				} else {
					stack.Set(A+3+i, value.Nil)
				}
			}
			if !stack.Get(A + 3).IsNil() {
				stack.Set(A+2, stack.Get(A+3))
			} else {
				pc++
			}

		case instruction.OpSetList:
			b, c := B, C
			if b == 0 {
				b = stack.top - A - 1
			}
			if c == 0 {
				pc++
				if pc >= len(proto.Code) {
					return nil, newInternalError("missing extended C word after SETLIST")
				}
				c = int(instruction.Encode(proto.Code[pc]))
			}
			target := stack.Get(A)
			if target.Kind() != value.KindTable {
				return nil, newInternalError("SETLIST target is not a table")
			}
			tbl := target.AsTable()
			for i := 1; i <= b; i++ {
				tbl.Set(value.Number(float64((c-1)*lfieldsPerFlush+i)), stack.Get(A+i))
			}

		case instruction.OpClose:
			stack.CloseFrom(A)

		case instruction.OpClosure:
			nested := proto.Protos[inst.Bx]
			upvals := make([]*Upvalue, 0, nested.NumUpvalues)
			for len(upvals) < nested.NumUpvalues {
				pc++
				if pc >= len(proto.Code) {
					return nil, newInternalError("truncated upvalue pseudo-instructions for closure")
				}
				pseudo := proto.Code[pc]
				switch pseudo.Op {
				case instruction.OpMove:
					upvals = append(upvals, stack.OpenUpvalue(pseudo.B))
				case instruction.OpGetUpval:
					upvals = append(upvals, cl.Upvals[pseudo.B])
				default:
					return nil, newInternalError("unexpected pseudo-instruction %s building closure upvalues", pseudo.Op)
				}
			}
			if len(upvals) != nested.NumUpvalues {
				return nil, newInternalError("closure upvalue count mismatch: want %d got %d", nested.NumUpvalues, len(upvals))
			}
			stack.Set(A, value.FromClosure(newClosure(nested, upvals)))

		case instruction.OpVararg:
			n := B - 1
			if B == 0 {
				n = len(stack.varargs)
			}
			for i := 0; i < n; i++ {
				if i < len(stack.varargs) {
					stack.Set(A+i, stack.varargs[i])
				} else {
					stack.Set(A+i, value.Nil)
				}
			}
			if B == 0 {
				stack.top = A + n
			}

		default:
			return nil, newInternalError("unknown opcode 0x%02x", uint8(inst.Op))
		}

		pc++
	}
}

// callArgs resolves CALL/TAILCALL's argument window: B=1 means no
// args, B=0 means every register from A+1 through the current top of
// stack, and any other B means exactly the B-1 registers at A+1..A+B-1.
func callArgs(stack *Stack, a, b int) []value.Value {
	switch b {
	case 1:
		return nil
	case 0:
		return stack.window(a+1, stack.top-a-1)
	default:
		return stack.window(a+1, b-1)
	}
}

// returnValues resolves RETURN's result window: B=1 means no values,
// B=0 means every register from A through the current top of stack,
// and any other B means exactly the B-1 registers at A..A+B-2.
func returnValues(stack *Stack, a, b int) []value.Value {
	switch b {
	case 1:
		return nil
	case 0:
		return stack.window(a, stack.top-a)
	default:
		return stack.window(a, b-1)
	}
}
