package probe

import "unsafe"

// repmovsb is implemented in repmovsb_amd64.s as a bare REP MOVSB, so the
// compiler has no opportunity to lower a hand-written copy loop back into
// a call to a library memcpy that may not be mapped by the time the child
// needs it.
//
//go:noescape
func repmovsb(dst, src unsafe.Pointer, n uintptr)

// callBlock is implemented in repmovsb_amd64.s: it loads the System V
// AMD64 first-argument register (RDI) with initialRegs and calls
// codeAddr. It does not return in the success path — the after-block stub
// terminates the process — but the declaration itself must still look
// like an ordinary call for the Go assembler's frame layout to be valid.
//
//go:noescape
func callBlock(codeAddr uintptr, initialRegs unsafe.Pointer)

// installCode copies before, block, and after, back to back, into the
// page mapped at dst. The three chunks are copied by three explicit
// sequential calls rather than a loop over a slice literal: this runs in
// the forked child, where even a composite literal that the compiler
// chose to heap-allocate would be unacceptable.
func installCode(dst uintptr, before, block, after []byte) {
	off := uintptr(0)
	if len(before) > 0 {
		repmovsb(unsafe.Pointer(dst+off), unsafe.Pointer(&before[0]), uintptr(len(before)))
	}
	off += uintptr(len(before))

	if len(block) > 0 {
		repmovsb(unsafe.Pointer(dst+off), unsafe.Pointer(&block[0]), uintptr(len(block)))
	}
	off += uintptr(len(block))

	if len(after) > 0 {
		repmovsb(unsafe.Pointer(dst+off), unsafe.Pointer(&after[0]), uintptr(len(after)))
	}
}
