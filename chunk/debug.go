package chunk

import (
	"fmt"
	"strings"
)

// Disassemble renders every instruction in c as a multi-line human
// readable listing, in the OFFSET | OPCODE [operand ['VALUE']] format
// spec.md's debug trace uses. name is printed as a header, matching the
// teacher's DiassembleBytecode convention of labelling a dump.
func (c *Chunk) Disassemble(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		line, next := c.DisassembleInstruction(offset)
		b.WriteString(line)
		b.WriteString("\n")
		offset = next
	}
	return b.String()
}

// DisassembleInstruction formats the single instruction at offset and
// returns the offset of the following instruction. The line number
// column is replaced by "   |" when it repeats the previous
// instruction's line, exactly as spec.md §6 specifies.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)

	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", c.Lines[offset])
	}

	op := OpCode(c.Code[offset])
	if op.HasConstantOperand() {
		idx := int(c.Code[offset+1])
		var val string
		if idx < len(c.Constants) {
			val = c.Constants[idx].String()
		} else {
			val = "<invalid>"
		}
		fmt.Fprintf(&b, "%-16s %4d '%s'", op.String(), idx, val)
		return b.String(), offset + 2
	}

	fmt.Fprintf(&b, "%s", op.String())
	return b.String(), offset + 1
}
