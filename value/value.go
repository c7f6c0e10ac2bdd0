// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package value implements the Lua 5.1 dynamic value model: the closed
// set of runtime types, their arithmetic/comparison/concatenation
// contracts, and the Table type.
package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind categorizes the fundamental shape of a Value.
type Kind int

const (
	KindNil Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindTable
	KindClosure
	KindHostFunc
)

var kindNames = [...]string{
	KindNil:      "nil",
	KindBoolean:  "boolean",
	KindNumber:   "number",
	KindString:   "string",
	KindTable:    "table",
	KindClosure:  "function",
	KindHostFunc: "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// noArithmetic holds the kinds for which arithmetic operators raise
// immediately, regardless of what they're paired with: nil, table, and
// both function representations. Mirrors luatypes.py's NO_ARITHMETIC.
var noArithmetic = map[Kind]bool{
	KindNil:      true,
	KindTable:    true,
	KindClosure:  true,
	KindHostFunc: true,
}

// noMathOps holds the kinds that, even though not in noArithmetic,
// still cannot appear as an arithmetic operand: boolean and string.
// Mirrors luatypes.py's NO_MATHOPS.
var noMathOps = map[Kind]bool{
	KindBoolean: true,
	KindString:  true,
}

// noLength holds the kinds for which the length operator raises.
// Mirrors luatypes.py's NO_LENGTH.
var noLength = map[Kind]bool{
	KindNil:      true,
	KindBoolean:  true,
	KindNumber:   true,
	KindClosure:  true,
	KindHostFunc: true,
}

// ErrType is the sentinel every *TypeError wraps, so callers can test
// for a value-type mismatch with errors.Is(err, value.ErrType).
var ErrType = errors.New("lua type error")

// TypeError reports an operation attempted on a value of an
// incompatible type, e.g. arithmetic on nil or indexing a number.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return e.Msg }

// Unwrap lets errors.Is/errors.As see TypeError as an ErrType.
func (e *TypeError) Unwrap() error { return ErrType }

func typeErrorf(format string, args ...interface{}) *TypeError {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

// Value is a single Lua runtime value. The zero Value is Lua nil.
//
// Exactly one of the typed fields is meaningful, selected by Kind; this
// mirrors the tagged-union shape of the reference implementation's
// TValue without resorting to an interface{}, so that Nil/Boolean/Number
// values never allocate.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	str     string
	table   *Table
	closure Closurer
	host    HostFunc
}

// Closurer is implemented by package vm's Closure type. Declared here as
// an interface (rather than importing package vm, which depends on
// value) to break the import cycle: vm.Closure satisfies this trivially.
type Closurer interface {
	// ClosureID is an opaque identity token used for equality; two
	// Values wrap "the same" closure iff their ClosureID matches.
	ClosureID() uintptr
	String() string
}

// HostFunc is a Go function invokable from Lua code, the value package's
// view of package host's callable bridge. It takes and returns Value
// slices to support Lua's multiple-return-value convention.
type HostFunc interface {
	Call(args []Value) ([]Value, error)
	Name() string
}

// Nil is the singular Lua nil value.
var Nil = Value{kind: KindNil}

// Bool constructs a Lua boolean.
func Bool(b bool) Value { return Value{kind: KindBoolean, boolean: b} }

// Number constructs a Lua number.
func Number(n float64) Value { return Value{kind: KindNumber, number: n} }

// String constructs a Lua string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// FromTable wraps a *Table as a Value.
func FromTable(t *Table) Value { return Value{kind: KindTable, table: t} }

// FromClosure wraps a vm.Closure as a Value.
func FromClosure(c Closurer) Value { return Value{kind: KindClosure, closure: c} }

// FromHostFunc wraps a host callable as a Value.
func FromHostFunc(f HostFunc) Value { return Value{kind: KindHostFunc, host: f} }

// Kind reports v's runtime type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is Lua nil.
func (v Value) IsNil() bool { return v.kind == KindNil }

// AsBool returns v's boolean payload; only meaningful when Kind is
// KindBoolean.
func (v Value) AsBool() bool { return v.boolean }

// AsNumber returns v's numeric payload; only meaningful when Kind is
// KindNumber.
func (v Value) AsNumber() float64 { return v.number }

// AsString returns v's string payload; only meaningful when Kind is
// KindString.
func (v Value) AsString() string { return v.str }

// AsTable returns v's table payload; only meaningful when Kind is
// KindTable.
func (v Value) AsTable() *Table { return v.table }

// AsClosure returns v's closure payload; only meaningful when Kind is
// KindClosure.
func (v Value) AsClosure() Closurer { return v.closure }

// AsHostFunc returns v's host-function payload; only meaningful when
// Kind is KindHostFunc.
func (v Value) AsHostFunc() HostFunc { return v.host }

// IsCallable reports whether v can appear as CALL's target register.
func (v Value) IsCallable() bool {
	return v.kind == KindClosure || v.kind == KindHostFunc
}

// Truthy implements Lua's truthiness rule: everything is true except
// nil and false.
func (v Value) Truthy() bool {
	return v.kind != KindNil && !(v.kind == KindBoolean && !v.boolean)
}

// TypeName returns the name used in Lua error messages for v's type.
func (v Value) TypeName() string { return v.kind.String() }

// ToString implements the `tostring` conversion contract.
func (v Value) ToString() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBoolean:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.number)
	case KindString:
		return v.str
	case KindTable:
		return fmt.Sprintf("table: %p", v.table)
	case KindClosure:
		return v.closure.String()
	case KindHostFunc:
		return fmt.Sprintf("function: %p", v.host)
	default:
		return "?"
	}
}

// formatNumber renders a Lua number the way the reference implementation
// does: integral values print without a fractional part.
func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', 14, 64)
}

// ToNumber implements the `tonumber` conversion contract: numbers pass
// through, numeric-looking strings are parsed, everything else fails.
func (v Value) ToNumber() (Value, bool) {
	switch v.kind {
	case KindNumber:
		return v, true
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return Nil, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Nil, false
		}
		return Number(n), true
	default:
		return Nil, false
	}
}

// arith applies a binary arithmetic operator, enforcing the same
// type-gating rules as maybe_attempt_op: operands in noArithmetic
// always fail; otherwise both operands must share a kind, and neither
// may be in noMathOps.
func arith(opName string, a, b Value, f func(x, y float64) float64) (Value, error) {
	if noArithmetic[a.kind] {
		return Nil, typeErrorf("attempt to perform arithmetic on a %s value", a.kind)
	}
	if noArithmetic[b.kind] {
		return Nil, typeErrorf("attempt to perform arithmetic on a %s value", b.kind)
	}
	if noMathOps[a.kind] || noMathOps[b.kind] || a.kind != b.kind {
		return Nil, typeErrorf("attempt to %s a '%s' with a '%s'", opName, a.kind, b.kind)
	}
	return Number(f(a.number, b.number)), nil
}

// Add implements the ADD opcode's operator.
func Add(a, b Value) (Value, error) {
	return arith("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub implements the SUB opcode's operator.
func Sub(a, b Value) (Value, error) {
	return arith("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul implements the MUL opcode's operator.
func Mul(a, b Value) (Value, error) {
	return arith("mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div implements the DIV opcode's operator.
func Div(a, b Value) (Value, error) {
	return arith("div", a, b, func(x, y float64) float64 { return x / y })
}

// Mod implements the MOD opcode's operator: Lua's `%` is a floored
// modulo, matching `a - floor(a/b)*b` rather than Go's truncated `%`.
func Mod(a, b Value) (Value, error) {
	return arith("mod", a, b, func(x, y float64) float64 {
		r := x - flr(x/y)*y
		return r
	})
}

func flr(x float64) float64 {
	return math.Floor(x)
}

// Pow implements the POW opcode's operator.
func Pow(a, b Value) (Value, error) {
	return arith("pow", a, b, math.Pow)
}

// Unm implements the UNM (unary minus) opcode's operator.
func Unm(a Value) (Value, error) {
	if noArithmetic[a.kind] {
		return Nil, typeErrorf("attempt to perform arithmetic on a %s value", a.kind)
	}
	if noMathOps[a.kind] {
		return Nil, typeErrorf("attempt to perform arithmetic on a %s value", a.kind)
	}
	return Number(-a.number), nil
}

// Not implements the NOT opcode: logical negation of truthiness, valid
// on every value.
func Not(a Value) Value {
	return Bool(!a.Truthy())
}

// Len implements the LEN opcode. Only strings and tables have a
// meaningful length; every other kind raises, per noLength.
func Len(a Value) (Value, error) {
	switch a.kind {
	case KindString:
		return Number(float64(len(a.str))), nil
	case KindTable:
		return Number(float64(a.table.Len())), nil
	default:
		return Nil, typeErrorf("attempt to get length of a %s value", a.kind)
	}
}

// Concat implements the CONCAT opcode's pairwise operator. Lua allows
// concatenating strings and numbers (numbers are stringified); any
// other kind raises.
func Concat(a, b Value) (Value, error) {
	as, ok := concatOperand(a)
	if !ok {
		return Nil, typeErrorf("attempt to concatenate a %s value", a.kind)
	}
	bs, ok := concatOperand(b)
	if !ok {
		return Nil, typeErrorf("attempt to concatenate a %s value", b.kind)
	}
	return String(as + bs), nil
}

func concatOperand(v Value) (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		return formatNumber(v.number), true
	default:
		return "", false
	}
}

// Equals implements Lua's `==`: values of different kinds are never
// equal (no coercion), nil equals only nil, tables/closures/host
// functions compare by identity.
func Equals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBoolean:
		return a.boolean == b.boolean
	case KindNumber:
		return a.number == b.number
	case KindString:
		return a.str == b.str
	case KindTable:
		return a.table == b.table
	case KindClosure:
		return a.closure.ClosureID() == b.closure.ClosureID()
	case KindHostFunc:
		return a.host == b.host
	default:
		return false
	}
}

// LessThan implements Lua's `<`. Only numbers and strings are ordered;
// any other kind raises.
func LessThan(a, b Value) (bool, error) {
	if a.kind != b.kind || (a.kind != KindNumber && a.kind != KindString) {
		return false, typeErrorf("attempt to compare %s with %s", a.kind, b.kind)
	}
	if a.kind == KindNumber {
		return a.number < b.number, nil
	}
	return a.str < b.str, nil
}

// LessEqual implements Lua's `<=`.
func LessEqual(a, b Value) (bool, error) {
	if a.kind != b.kind || (a.kind != KindNumber && a.kind != KindString) {
		return false, typeErrorf("attempt to compare %s with %s", a.kind, b.kind)
	}
	if a.kind == KindNumber {
		return a.number <= b.number, nil
	}
	return a.str <= b.str, nil
}
