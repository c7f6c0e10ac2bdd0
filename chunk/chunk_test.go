package chunk

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/lua51vm/lua51vm/instruction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkBuilder assembles a well-formed binary chunk byte-by-byte for
// tests, mirroring the on-disk format chunk.Load consumes.
type chunkBuilder struct {
	buf bytes.Buffer
}

func newChunkBuilder() *chunkBuilder {
	b := &chunkBuilder{}
	b.buf.Write([]byte{0x1b, 'L', 'u', 'a'})
	b.buf.WriteByte(0x51) // lua version
	b.buf.WriteByte(0)    // format version
	b.buf.WriteByte(1)    // little endian
	b.buf.WriteByte(4)    // int size
	b.buf.WriteByte(8)    // size_t size
	b.buf.WriteByte(4)    // instruction size
	b.buf.WriteByte(8)    // number size
	b.buf.WriteByte(0)    // integral flag unset
	return b
}

func (b *chunkBuilder) int32(v int32) *chunkBuilder {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	b.buf.Write(tmp[:])
	return b
}

func (b *chunkBuilder) sizeT(v uint64) *chunkBuilder {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *chunkBuilder) str(s string) *chunkBuilder {
	if s == "" {
		b.sizeT(0)
		return b
	}
	b.sizeT(uint64(len(s) + 1))
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
	return b
}

func (b *chunkBuilder) byte(v byte) *chunkBuilder {
	b.buf.WriteByte(v)
	return b
}

func (b *chunkBuilder) bool(v bool) *chunkBuilder {
	if v {
		return b.byte(1)
	}
	return b.byte(0)
}

func (b *chunkBuilder) instruction(word uint32) *chunkBuilder {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], word)
	b.buf.Write(tmp[:])
	return b
}

func (b *chunkBuilder) number(v float64) *chunkBuilder {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	b.buf.Write(tmp[:])
	return b
}

// function writes a complete prototype with the given instructions and
// string constants, no nested prototypes, no debug info.
func (b *chunkBuilder) function(name string, numParams int, isVararg bool, maxStack int, code []uint32, strConsts []string) *chunkBuilder {
	b.str(name)
	b.int32(0) // first line
	b.int32(0) // last line
	b.byte(0)  // num upvalues
	b.byte(byte(numParams))
	b.bool(isVararg)
	b.byte(byte(maxStack))

	b.int32(int32(len(code)))
	for _, w := range code {
		b.instruction(w)
	}

	b.int32(int32(len(strConsts)))
	for _, s := range strConsts {
		b.byte(4) // LUA_TSTRING
		b.str(s)
	}

	b.int32(0) // nested protos
	b.int32(0) // line positions
	b.int32(0) // locals
	b.int32(0) // upvalue names
	return b
}

func (b *chunkBuilder) bytes() []byte {
	return b.buf.Bytes()
}

func TestLoadMinimalChunk(t *testing.T) {
	retWord := instruction.Encode(instruction.Instruction{Op: instruction.OpReturn, A: 0, B: 1})
	data := newChunkBuilder().
		function("main.lua", 0, true, 2, []uint32{retWord}, []string{"hello"}).
		bytes()

	proto, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, "main.lua", proto.SourceName)
	assert.True(t, proto.IsVararg)
	assert.Equal(t, 2, proto.MaxStackSize)
	require.Len(t, proto.Code, 1)
	assert.Equal(t, instruction.OpReturn, proto.Code[0].Op)
	require.Len(t, proto.Constants, 1)
	assert.Equal(t, ConstString, proto.Constants[0].Kind)
	assert.Equal(t, "hello", proto.Constants[0].String)
	assert.Empty(t, proto.Protos)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data := newChunkBuilder().bytes()
	data[0] = 0x00
	_, err := Load(data)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	data := newChunkBuilder().bytes()
	data[4] = 0x52 // claim lua 5.2
	_, err := Load(data)
	require.Error(t, err)
}

func TestLoadRejectsTruncatedChunk(t *testing.T) {
	data := newChunkBuilder().bytes()
	_, err := Load(data[:6])
	require.Error(t, err)
}

func TestLoadNestedPrototypesNumberedPreOrder(t *testing.T) {
	inner := newChunkBuilder()
	inner.function("inner.lua", 0, false, 1, []uint32{
		instruction.Encode(instruction.Instruction{Op: instruction.OpReturn, A: 0, B: 1}),
	}, nil)
	innerBytes := inner.bytes()
	// strip the 12-byte header the inner builder added; we only want its
	// function body appended inline as a nested prototype.
	innerBody := innerBytes[12:]

	b := newChunkBuilder()
	b.str("outer.lua")
	b.int32(0)
	b.int32(0)
	b.byte(0)
	b.byte(0)
	b.bool(false)
	b.byte(2)
	b.int32(1)
	b.instruction(instruction.Encode(instruction.Instruction{Op: instruction.OpReturn, A: 0, B: 1}))
	b.int32(0) // constants
	b.int32(1) // one nested proto
	b.buf.Write(innerBody)
	b.int32(0) // line positions
	b.int32(0) // locals
	b.int32(0) // upvalue names

	proto, err := Load(b.bytes())
	require.NoError(t, err)
	assert.Equal(t, 0, proto.ProtoNum)
	require.Len(t, proto.Protos, 1)
	assert.Equal(t, 1, proto.Protos[0].ProtoNum)
	assert.Equal(t, "inner.lua", proto.Protos[0].SourceName)
}

func TestFingerprintStable(t *testing.T) {
	data := newChunkBuilder().function("x.lua", 0, false, 1, nil, nil).bytes()
	f1 := Fingerprint(data)
	f2 := Fingerprint(data)
	assert.Equal(t, f1, f2)
	assert.Len(t, f1, 64) // hex-encoded 32-byte digest
}
