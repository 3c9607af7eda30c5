// Package asmtest hand-assembles the tiny x86-64 byte sequences used by
// the probe package's end-to-end scenario tests. It is not a general
// assembler: each function returns exactly the bytes for one scenario.
package asmtest

// NOP returns a single-instruction block that touches no memory.
func NOP() []byte {
	return []byte{0x90}
}

// LoadRAX returns `mov rax, [rax]`: dereferences RAX once.
func LoadRAX() []byte {
	return []byte{0x48, 0x8B, 0x00}
}

// LoadRAXAndRBXOffset returns:
//
//	mov rax, [rax]
//	mov rbx, [rbx+0x2000]
//
// touching two distinct pages when RAX and RBX both start at 0x15000.
func LoadRAXAndRBXOffset() []byte {
	return []byte{
		0x48, 0x8B, 0x00, // mov rax, [rax]
		0x48, 0x8B, 0x9B, 0x00, 0x20, 0x00, 0x00, // mov rbx, [rbx+0x2000]
	}
}

// LoadNullPointer returns `mov rax, [0]`, dereferencing an address that no
// register randomization can make mappable.
func LoadNullPointer() []byte {
	return []byte{0x48, 0x8B, 0x04, 0x25, 0x00, 0x00, 0x00, 0x00}
}

// DivRCX returns `div rcx`, which raises SIGFPE whenever RCX is zero or
// the quotient of RDX:RAX / RCX overflows (RDX >= RCX), as it does under
// the initial register file where every register holds the same value.
func DivRCX() []byte {
	return []byte{0x48, 0xF7, 0xF1}
}

// UD2 returns a single illegal instruction.
func UD2() []byte {
	return []byte{0x0F, 0x0B}
}
