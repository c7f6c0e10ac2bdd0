package vm

import (
	"fmt"
	"strings"

	"github.com/lua51vm/lua51vm/chunk"
)

// Disassemble renders a prototype's instruction stream as a human
// readable listing, one line per instruction, recursing into nested
// prototypes. Intended for debugging, not part of the execution path.
func Disassemble(proto *chunk.Prototype) string {
	var b strings.Builder
	disassemble(&b, proto)
	return b.String()
}

func disassemble(b *strings.Builder, proto *chunk.Prototype) {
	fmt.Fprintf(b, "function <%s:%d,%d> (proto %d, %d instructions)\n",
		proto.SourceName, proto.FirstLine, proto.LastLine, proto.ProtoNum, len(proto.Code))
	for i, inst := range proto.Code {
		fmt.Fprintf(b, "\t%d\t%s\n", i+1, inst.Disassemble())
	}
	for _, nested := range proto.Protos {
		disassemble(b, nested)
	}
}
