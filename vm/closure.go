package vm

import (
	"fmt"

	"github.com/lua51vm/lua51vm/chunk"
)

// closureSeq hands out monotonically increasing identities for Closure
// values. The VM is single-threaded and synchronous (§5), so a plain
// package-level counter needs no synchronization.
var closureSeq uintptr

// Closure is a Prototype bound to a vector of captured Upvalues,
// created by the CLOSURE opcode. It implements value.Closurer so it can
// be wrapped in a value.Value without package value importing vm.
type Closure struct {
	id     uintptr
	Proto  *chunk.Prototype
	Upvals []*Upvalue
}

// newClosure builds a Closure and assigns it a fresh identity.
func newClosure(proto *chunk.Prototype, upvals []*Upvalue) *Closure {
	closureSeq++
	return &Closure{id: closureSeq, Proto: proto, Upvals: upvals}
}

// ClosureID satisfies value.Closurer: two Values wrap the same closure
// iff their ClosureID matches.
func (c *Closure) ClosureID() uintptr { return c.id }

// String satisfies value.Closurer and is used by Value.ToString.
func (c *Closure) String() string {
	return fmt.Sprintf("function: 0x%012x", c.id)
}
