// Package diag provides best-effort disassembly of a faulting
// instruction (C8), folded into internal-error messages when the parent
// supervisor hits a signal it doesn't otherwise interpret. Decode failure
// degrades to a placeholder; it never becomes an error the caller has to
// handle.
package diag

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble renders the instruction at the start of code, assumed to
// have been read from the traced process at virtual address rip, in GNU
// syntax. code may be shorter than any real instruction (a truncated read
// near an unmapped page boundary); Decode's own error is folded into the
// placeholder rather than propagated.
func Disassemble(code []byte, rip uint64) string {
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return fmt.Sprintf("<undecodable at %#x: %v>", rip, err)
	}

	return x86asm.GNUSyntax(inst, rip, nil)
}
