// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package stdlib

import (
	"strings"

	"github.com/lua51vm/lua51vm/host"
	"github.com/lua51vm/lua51vm/value"
)

func strByte(args []value.Value) ([]value.Value, error) {
	s, err := requiredArg("byte", args, 1, "string")
	if err != nil {
		return nil, err
	}
	idxArg, err := optionalArg("byte", args, 2, "number")
	if err != nil {
		return nil, err
	}
	idx := 1
	if !idxArg.IsNil() {
		idx = int(idxArg.AsNumber())
	}
	str := s.AsString()
	if idx < 1 || idx > len(str) {
		return []value.Value{value.Nil}, nil
	}
	return []value.Value{value.Number(float64(str[idx-1]))}, nil
}

func strChar(args []value.Value) ([]value.Value, error) {
	var b strings.Builder
	for i := range args {
		v, err := requiredArg("char", args, i+1, "number")
		if err != nil {
			return nil, err
		}
		b.WriteByte(byte(v.AsNumber()))
	}
	return []value.Value{value.String(b.String())}, nil
}

// strFind implements a literal-substring `find`: the VM's non-goals
// exclude Lua pattern matching, so this covers only the plain-text
// search lib/string.py's own `find` performs via Python's str.find.
func strFind(args []value.Value) ([]value.Value, error) {
	s, err := requiredArg("find", args, 1, "string")
	if err != nil {
		return nil, err
	}
	pat, err := requiredArg("find", args, 2, "string")
	if err != nil {
		return nil, err
	}
	idx := strings.Index(s.AsString(), pat.AsString())
	if idx == -1 {
		return []value.Value{value.Nil}, nil
	}
	return []value.Value{value.Number(float64(idx + 1)), value.Number(float64(idx + len(pat.AsString())))}, nil
}

func strLen(args []value.Value) ([]value.Value, error) {
	s, err := requiredArg("len", args, 1, "string")
	if err != nil {
		return nil, err
	}
	return []value.Value{value.Number(float64(len(s.AsString())))}, nil
}

func strLower(args []value.Value) ([]value.Value, error) {
	s, err := requiredArg("lower", args, 1, "string")
	if err != nil {
		return nil, err
	}
	return []value.Value{value.String(strings.ToLower(s.AsString()))}, nil
}

func strUpper(args []value.Value) ([]value.Value, error) {
	s, err := requiredArg("upper", args, 1, "string")
	if err != nil {
		return nil, err
	}
	return []value.Value{value.String(strings.ToUpper(s.AsString()))}, nil
}

func strRep(args []value.Value) ([]value.Value, error) {
	s, err := requiredArg("rep", args, 1, "string")
	if err != nil {
		return nil, err
	}
	n, err := requiredArg("rep", args, 2, "number")
	if err != nil {
		return nil, err
	}
	count := int(n.AsNumber())
	if count <= 0 {
		return []value.Value{value.String("")}, nil
	}
	return []value.Value{value.String(strings.Repeat(s.AsString(), count))}, nil
}

func strReverse(args []value.Value) ([]value.Value, error) {
	s, err := requiredArg("reverse", args, 1, "string")
	if err != nil {
		return nil, err
	}
	r := []rune(s.AsString())
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return []value.Value{value.String(string(r))}, nil
}

// strSub mirrors lib/string.py's sub: 1-based, inclusive end, negative
// indices count from the string's end per the Lua reference manual
// (the Python original only handles the positive case; negative-index
// support is supplemented here since any complete string.sub needs it).
func strSub(args []value.Value) ([]value.Value, error) {
	s, err := requiredArg("sub", args, 1, "string")
	if err != nil {
		return nil, err
	}
	startArg, err := requiredArg("sub", args, 2, "number")
	if err != nil {
		return nil, err
	}
	endArg, err := optionalArg("sub", args, 3, "number")
	if err != nil {
		return nil, err
	}

	str := s.AsString()
	n := len(str)
	start := normalizeIndex(int(startArg.AsNumber()), n)
	end := n
	if !endArg.IsNil() {
		end = normalizeIndex(int(endArg.AsNumber()), n)
	}
	if start < 1 {
		start = 1
	}
	if end > n {
		end = n
	}
	if start > end {
		return []value.Value{value.String("")}, nil
	}
	return []value.Value{value.String(str[start-1 : end])}, nil
}

func normalizeIndex(i, length int) int {
	if i < 0 {
		return length + i + 1
	}
	return i
}

// stringTable builds the `string` library namespace table, grounded
// on lib/string.py's lua_strlib dict. format/gmatch/gsub/match/dump
// are dropped: they require either Lua patterns (pattern matching is
// explicitly out of scope) or a function serialization format this VM
// has no use for.
func stringTable() *value.Table {
	t := value.NewTable(0, 16)
	set := func(name string, fn func([]value.Value) ([]value.Value, error)) {
		t.Set(value.String(name), host.NewFunc(name, fn).Value())
	}
	set("byte", strByte)
	set("char", strChar)
	set("find", strFind)
	set("len", strLen)
	set("lower", strLower)
	set("upper", strUpper)
	set("rep", strRep)
	set("reverse", strReverse)
	set("sub", strSub)
	return t
}
