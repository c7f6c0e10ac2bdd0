// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package chunk parses Lua 5.1 precompiled binary chunks ("luac" output)
// into a tree of Prototype values ready for execution by package vm.
package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/lua51vm/lua51vm/instruction"
)

// ErrLoad is the sentinel every *LoadError wraps, so callers can test
// for a malformed-chunk failure with errors.Is(err, chunk.ErrLoad)
// without matching on message text.
var ErrLoad = errors.New("malformed lua binary chunk")

// LoadError reports a malformed or unsupported binary chunk. Offset is
// the byte position in the source at which the problem was detected.
type LoadError struct {
	Offset int
	Msg    string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("chunk: offset %d: %s", e.Offset, e.Msg)
}

// Unwrap lets errors.Is/errors.As see LoadError as an ErrLoad.
func (e *LoadError) Unwrap() error { return ErrLoad }

func newLoadError(offset int, format string, args ...interface{}) *LoadError {
	return &LoadError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// ConstKind tags the variant held by a Constant.
type ConstKind int

const (
	ConstNil ConstKind = iota
	ConstBoolean
	ConstNumber
	ConstString
)

// Constant is one entry of a prototype's constant pool.
type Constant struct {
	Kind    ConstKind
	Boolean bool
	Number  float64
	String  string
}

// LocalVar is one entry of a prototype's local variable debug table.
type LocalVar struct {
	Name    string
	StartPC int
	EndPC   int
}

// Prototype is one compiled Lua function, the `Proto` of the reference
// implementation. The top-level chunk is itself a Prototype with no
// parameters and is_vararg set.
type Prototype struct {
	// ProtoNum is the pre-order index assigned to this prototype during
	// loading: the top-level chunk is 0, and nested prototypes are
	// numbered in the order their CLOSURE-generating definitions appear.
	ProtoNum int

	SourceName   string
	FirstLine    int
	LastLine     int
	NumUpvalues  int
	NumParams    int
	IsVararg     bool
	MaxStackSize int

	Code      []instruction.Instruction
	Constants []Constant
	Protos    []*Prototype

	LinePositions []int
	Locals        []LocalVar
	UpvalueNames  []string
}

// Header fields asserted by Load to hold the exact constants this
// loader supports: the official Lua 5.1 little-endian chunk format.
const (
	expectedLuaVersion   = 0x51
	expectedFormatVer    = 0
	expectedIntSize      = 4
	expectedSizeTSize    = 8
	expectedInstructSize = 4
	expectedNumberSize   = 8
)

var magic = [4]byte{0x1b, 'L', 'u', 'a'}

// reader is a cursor over a chunk's raw bytes, mirroring LuaFile's
// position-tracked read methods.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) read(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, newLoadError(r.pos, "unexpected end of chunk (need %d bytes, have %d)", n, len(r.data)-r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) bool() (bool, error) {
	b, err := r.byte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// int32 reads a chunk "int": a 4-byte little-endian signed integer used
// for counts, line numbers, and sizes within instruction lists.
func (r *reader) int32() (int, error) {
	b, err := r.read(4)
	if err != nil {
		return 0, err
	}
	return int(int32(binary.LittleEndian.Uint32(b))), nil
}

// sizeT reads a chunk "size_t": an 8-byte little-endian unsigned integer
// used as a string length prefix.
func (r *reader) sizeT() (int, error) {
	b, err := r.read(8)
	if err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint64(b)), nil
}

// str reads a length-prefixed string. The on-disk encoding includes a
// trailing NUL that get_str strips; an empty string is encoded as a
// zero length with no bytes at all.
func (r *reader) str() (string, error) {
	size, err := r.sizeT()
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", nil
	}
	b, err := r.read(size)
	if err != nil {
		return "", err
	}
	return string(b[:len(b)-1]), nil
}

func (r *reader) number() (float64, error) {
	b, err := r.read(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (r *reader) instruction() (instruction.Instruction, error) {
	b, err := r.read(4)
	if err != nil {
		return instruction.Instruction{}, err
	}
	return instruction.Decode(binary.LittleEndian.Uint32(b)), nil
}

func (r *reader) constant() (Constant, error) {
	kindByte, err := r.byte()
	if err != nil {
		return Constant{}, err
	}
	switch kindByte {
	case 0:
		return Constant{Kind: ConstNil}, nil
	case 1:
		v, err := r.bool()
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: ConstBoolean, Boolean: v}, nil
	case 3:
		v, err := r.number()
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: ConstNumber, Number: v}, nil
	case 4:
		v, err := r.str()
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: ConstString, String: v}, nil
	default:
		return Constant{}, newLoadError(r.pos-1, "unrecognized constant tag %d", kindByte)
	}
}

func (r *reader) local() (LocalVar, error) {
	name, err := r.str()
	if err != nil {
		return LocalVar{}, err
	}
	start, err := r.int32()
	if err != nil {
		return LocalVar{}, err
	}
	end, err := r.int32()
	if err != nil {
		return LocalVar{}, err
	}
	return LocalVar{Name: name, StartPC: start, EndPC: end}, nil
}

// header validates and consumes the 12-byte chunk signature.
func (r *reader) header() error {
	m, err := r.read(4)
	if err != nil {
		return err
	}
	if m[0] != magic[0] || m[1] != magic[1] || m[2] != magic[2] || m[3] != magic[3] {
		return newLoadError(0, "not a compiled lua file (bad magic)")
	}

	luaVersion, err := r.byte()
	if err != nil {
		return err
	}
	if luaVersion != expectedLuaVersion {
		return newLoadError(r.pos-1, "compiled with the wrong lua version (expected 5.1, got 0x%02x)", luaVersion)
	}

	formatVer, err := r.byte()
	if err != nil {
		return err
	}
	if formatVer != expectedFormatVer {
		return newLoadError(r.pos-1, "not the official format version")
	}

	endian, err := r.byte()
	if err != nil {
		return err
	}
	if endian != 1 {
		return newLoadError(r.pos-1, "expected little-endian chunk, found big-endian")
	}

	intSize, err := r.byte()
	if err != nil {
		return err
	}
	if int(intSize) != expectedIntSize {
		return newLoadError(r.pos-1, "expected int size of %d, found %d", expectedIntSize, intSize)
	}

	sizeSize, err := r.byte()
	if err != nil {
		return err
	}
	if int(sizeSize) != expectedSizeTSize {
		return newLoadError(r.pos-1, "expected size_t size of %d, found %d", expectedSizeTSize, sizeSize)
	}

	instructSize, err := r.byte()
	if err != nil {
		return err
	}
	if int(instructSize) != expectedInstructSize {
		return newLoadError(r.pos-1, "expected instruction size of %d, found %d", expectedInstructSize, instructSize)
	}

	numberSize, err := r.byte()
	if err != nil {
		return err
	}
	if int(numberSize) != expectedNumberSize {
		return newLoadError(r.pos-1, "expected number size of %d, found %d", expectedNumberSize, numberSize)
	}

	integral, err := r.bool()
	if err != nil {
		return err
	}
	if integral {
		return newLoadError(r.pos-1, "expected integral flag to be unset, but it was set")
	}

	return nil
}

// protoCounter assigns pre-order ProtoNum values across a recursive load.
type protoCounter struct{ next int }

func (c *protoCounter) take() int {
	n := c.next
	c.next++
	return n
}

func (r *reader) function(counter *protoCounter) (*Prototype, error) {
	p := &Prototype{ProtoNum: counter.take()}

	var err error
	if p.SourceName, err = r.str(); err != nil {
		return nil, err
	}
	if p.FirstLine, err = r.int32(); err != nil {
		return nil, err
	}
	if p.LastLine, err = r.int32(); err != nil {
		return nil, err
	}
	numUpvals, err := r.byte()
	if err != nil {
		return nil, err
	}
	p.NumUpvalues = int(numUpvals)
	numParams, err := r.byte()
	if err != nil {
		return nil, err
	}
	p.NumParams = int(numParams)
	if p.IsVararg, err = r.bool(); err != nil {
		return nil, err
	}
	maxStack, err := r.byte()
	if err != nil {
		return nil, err
	}
	p.MaxStackSize = int(maxStack)

	codeLen, err := r.int32()
	if err != nil {
		return nil, err
	}
	p.Code = make([]instruction.Instruction, codeLen)
	for i := range p.Code {
		if p.Code[i], err = r.instruction(); err != nil {
			return nil, err
		}
	}

	constLen, err := r.int32()
	if err != nil {
		return nil, err
	}
	p.Constants = make([]Constant, constLen)
	for i := range p.Constants {
		if p.Constants[i], err = r.constant(); err != nil {
			return nil, err
		}
	}

	protoLen, err := r.int32()
	if err != nil {
		return nil, err
	}
	p.Protos = make([]*Prototype, protoLen)
	for i := range p.Protos {
		if p.Protos[i], err = r.function(counter); err != nil {
			return nil, err
		}
	}

	lineLen, err := r.int32()
	if err != nil {
		return nil, err
	}
	p.LinePositions = make([]int, lineLen)
	for i := range p.LinePositions {
		if p.LinePositions[i], err = r.int32(); err != nil {
			return nil, err
		}
	}

	localLen, err := r.int32()
	if err != nil {
		return nil, err
	}
	p.Locals = make([]LocalVar, localLen)
	for i := range p.Locals {
		if p.Locals[i], err = r.local(); err != nil {
			return nil, err
		}
	}

	upvalLen, err := r.int32()
	if err != nil {
		return nil, err
	}
	p.UpvalueNames = make([]string, upvalLen)
	for i := range p.UpvalueNames {
		if p.UpvalueNames[i], err = r.str(); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Load parses a complete Lua 5.1 binary chunk and returns its top-level
// Prototype.
func Load(data []byte) (*Prototype, error) {
	r := &reader{data: data}
	if err := r.header(); err != nil {
		return nil, err
	}
	counter := &protoCounter{}
	return r.function(counter)
}
