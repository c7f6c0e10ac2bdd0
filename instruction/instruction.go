// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package instruction decodes and encodes Lua 5.1 bytecode instruction
// words.
//
// Each instruction is a single 32-bit little-endian word:
//
//	opcode[6] | A[8] | C[9] | B[9]   (LSB to MSB)
//
// Bx is the unsigned 18-bit combination of B and C (B<<9|C); sBx is Bx
// biased by -131071 to represent a signed jump offset. Which fields a
// given opcode actually uses is recorded in the opcode table below.
package instruction

import "fmt"

// Opcode is one of the 38 Lua 5.1 instruction codes (0x00-0x25).
type Opcode uint8

const (
	OpMove Opcode = iota
	OpLoadK
	OpLoadBool
	OpLoadNil
	OpGetUpval
	OpGetGlobal
	OpGetTable
	OpSetGlobal
	OpSetUpval
	OpSetTable
	OpNewTable
	OpSelf
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpUnm
	OpNot
	OpLen
	OpConcat
	OpJmp
	OpEq
	OpLt
	OpLe
	OpTest
	OpTestSet
	OpCall
	OpTailCall
	OpReturn
	OpForLoop
	OpForPrep
	OpTForLoop
	OpSetList
	OpClose
	OpClosure
	OpVararg

	opcodeCount
)

// Format tags the operand shape of an instruction, used by Encode to
// decide whether B/C or Bx supplies the upper bits and by Disassemble to
// decide which of A/B/C/Bx/sBx to print. Decode fills every field
// regardless of format.
type Format int

const (
	FormatA Format = iota
	FormatAB
	FormatABC
	FormatABx
	FormatAsBx
	FormatsBx
	FormatAC
)

type opcodeInfo struct {
	name   string
	format Format
}

// opcodeTable maps every opcode to its mnemonic and operand format,
// mirroring the Lua 5.1 reference `luaP_opnames`/`luaP_opmodes` tables.
var opcodeTable = [opcodeCount]opcodeInfo{
	OpMove:      {"MOVE", FormatAB},
	OpLoadK:     {"LOADK", FormatABx},
	OpLoadBool:  {"LOADBOOL", FormatABC},
	OpLoadNil:   {"LOADNIL", FormatAB},
	OpGetUpval:  {"GETUPVAL", FormatAB},
	OpGetGlobal: {"GETGLOBAL", FormatABx},
	OpGetTable:  {"GETTABLE", FormatABC},
	OpSetGlobal: {"SETGLOBAL", FormatABx},
	OpSetUpval:  {"SETUPVAL", FormatAB},
	OpSetTable:  {"SETTABLE", FormatABC},
	OpNewTable:  {"NEWTABLE", FormatABC},
	OpSelf:      {"SELF", FormatABC},
	OpAdd:       {"ADD", FormatABC},
	OpSub:       {"SUB", FormatABC},
	OpMul:       {"MUL", FormatABC},
	OpDiv:       {"DIV", FormatABC},
	OpMod:       {"MOD", FormatABC},
	OpPow:       {"POW", FormatABC},
	OpUnm:       {"UNM", FormatAB},
	OpNot:       {"NOT", FormatAB},
	OpLen:       {"LEN", FormatAB},
	OpConcat:    {"CONCAT", FormatABC},
	OpJmp:       {"JMP", FormatsBx},
	OpEq:        {"EQ", FormatABC},
	OpLt:        {"LT", FormatABC},
	OpLe:        {"LE", FormatABC},
	OpTest:      {"TEST", FormatAC},
	OpTestSet:   {"TESTSET", FormatABC},
	OpCall:      {"CALL", FormatABC},
	OpTailCall:  {"TAILCALL", FormatABC},
	OpReturn:    {"RETURN", FormatAB},
	OpForLoop:   {"FORLOOP", FormatAsBx},
	OpForPrep:   {"FORPREP", FormatAsBx},
	OpTForLoop:  {"TFORLOOP", FormatAC},
	OpSetList:   {"SETLIST", FormatABC},
	OpClose:     {"CLOSE", FormatA},
	OpClosure:   {"CLOSURE", FormatABx},
	OpVararg:    {"VARARG", FormatAB},
}

// String returns the opcode's mnemonic, or "UNKNOWN" for an out-of-range
// value.
func (op Opcode) String() string {
	if int(op) >= len(opcodeTable) {
		return "UNKNOWN"
	}
	return opcodeTable[op].name
}

// Format returns the operand shape for op.
func (op Opcode) Format() Format {
	if int(op) >= len(opcodeTable) {
		return FormatABC
	}
	return opcodeTable[op].format
}

// Valid reports whether op names a defined Lua 5.1 instruction.
func (op Opcode) Valid() bool {
	return int(op) < len(opcodeTable)
}

// constFlag is the RK high bit: when set on a B or C operand, the
// operand names a constant-pool index rather than a register.
const constFlag = 1 << 8

// sBxBias is the bias Bx is offset by to produce a signed jump/loop
// displacement.
const sBxBias = 131071

// Instruction is a decoded instruction word with every field populated,
// regardless of which ones the opcode's Format actually uses.
type Instruction struct {
	Op Opcode
	A  int
	B  int
	C  int
	Bx int
	// SBx is Bx reinterpreted as a signed displacement (Bx - sBxBias).
	SBx int
}

// Decode unpacks a 32-bit instruction word.
func Decode(word uint32) Instruction {
	op := Opcode(word & 0x3F)
	a := int((word >> 6) & 0xFF)
	c := int((word >> 14) & 0x1FF)
	b := int((word >> 23) & 0x1FF)
	bx := (b << 9) | c
	return Instruction{
		Op:  op,
		A:   a,
		B:   b,
		C:   c,
		Bx:  bx,
		SBx: bx - sBxBias,
	}
}

// Encode packs an instruction back into a 32-bit word. For ABx/sBx
// formats, B and C are ignored in favor of Bx (sBx is expected to
// already be reflected in Bx by the caller, as Decode produces it).
func Encode(inst Instruction) uint32 {
	b, c := inst.B, inst.C
	switch inst.Op.Format() {
	case FormatABx, FormatAsBx:
		b = (inst.Bx >> 9) & 0x1FF
		c = inst.Bx & 0x1FF
	case FormatsBx:
		// A is unused for JMP in the reference encoder but Lua still
		// leaves it zero; preserve whatever the caller supplied.
		b = (inst.Bx >> 9) & 0x1FF
		c = inst.Bx & 0x1FF
	}
	return uint32(inst.Op)&0x3F |
		uint32(inst.A&0xFF)<<6 |
		uint32(c&0x1FF)<<14 |
		uint32(b&0x1FF)<<23
}

// IsConstant reports whether an RK-encoded operand names a constant pool
// slot (as opposed to a register).
func IsConstant(rk int) bool {
	return rk&constFlag != 0
}

// ConstIndex extracts the constant pool index from an RK operand for
// which IsConstant is true.
func ConstIndex(rk int) int {
	return rk &^ constFlag
}

// RKAsConstant encodes a constant pool index as an RK operand.
func RKAsConstant(idx int) int {
	return idx | constFlag
}

// DecodeFloatingByte expands the 8-bit compressed size hint used by
// NEWTABLE's B/C fields and SETLIST's extended block index.
//
// Values below 8 are exact; at and above 8 the low 3 bits plus an
// implicit leading 1 form a mantissa that is left-shifted by the
// remaining high bits minus one, i.e. (b&7|8) << ((b>>3)-1).
func DecodeFloatingByte(b int) int {
	if b < 8 {
		return b
	}
	return (b&7 | 8) << uint((b>>3)-1)
}

// Disassemble returns a human-readable listing of a decoded instruction,
// one opcode-appropriate operand projection per Format.
func (inst Instruction) Disassemble() string {
	switch inst.Op.Format() {
	case FormatA:
		return fmt.Sprintf("%-10s R%d", inst.Op, inst.A)
	case FormatAB:
		return fmt.Sprintf("%-10s R%d R%d", inst.Op, inst.A, inst.B)
	case FormatAC:
		return fmt.Sprintf("%-10s R%d %d", inst.Op, inst.A, inst.C)
	case FormatABC:
		return fmt.Sprintf("%-10s R%d %d %d", inst.Op, inst.A, inst.B, inst.C)
	case FormatABx:
		return fmt.Sprintf("%-10s R%d %d", inst.Op, inst.A, inst.Bx)
	case FormatAsBx:
		return fmt.Sprintf("%-10s R%d %d", inst.Op, inst.A, inst.SBx)
	case FormatsBx:
		return fmt.Sprintf("%-10s %d", inst.Op, inst.SBx)
	default:
		return inst.Op.String()
	}
}
