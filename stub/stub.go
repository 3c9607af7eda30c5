// Package stub provides the concrete before-block/after-block machine code
// (C7) that spec.md leaves as an opaque collaborator: raw byte literals in
// the same tradition as this codebase's other hand-encoded instruction
// constants, with no assembler dependency.
package stub

// beforeBlockCode loads every field of a regs.X64Regs from the pointer
// handed in RDI (System V AMD64 ABI: RDI carries the first integer
// argument), one `mov reg64, [rdi+disp8]` per register. RDI itself is
// loaded last, since until then it is still needed as the source pointer.
//
//nolint:gochecknoglobals
var beforeBlockCode = []byte{
	0x48, 0x8B, 0x47, 0x00, // mov rax, [rdi+0x00]
	0x48, 0x8B, 0x5F, 0x08, // mov rbx, [rdi+0x08]
	0x48, 0x8B, 0x4F, 0x10, // mov rcx, [rdi+0x10]
	0x48, 0x8B, 0x57, 0x18, // mov rdx, [rdi+0x18]
	0x48, 0x8B, 0x77, 0x20, // mov rsi, [rdi+0x20]
	0x48, 0x8B, 0x67, 0x30, // mov rsp, [rdi+0x30]
	0x48, 0x8B, 0x6F, 0x38, // mov rbp, [rdi+0x38]
	0x4C, 0x8B, 0x47, 0x40, // mov r8,  [rdi+0x40]
	0x4C, 0x8B, 0x4F, 0x48, // mov r9,  [rdi+0x48]
	0x4C, 0x8B, 0x57, 0x50, // mov r10, [rdi+0x50]
	0x4C, 0x8B, 0x5F, 0x58, // mov r11, [rdi+0x58]
	0x4C, 0x8B, 0x67, 0x60, // mov r12, [rdi+0x60]
	0x4C, 0x8B, 0x6F, 0x68, // mov r13, [rdi+0x68]
	0x4C, 0x8B, 0x77, 0x70, // mov r14, [rdi+0x70]
	0x4C, 0x8B, 0x7F, 0x78, // mov r15, [rdi+0x78]
	0x48, 0x8B, 0x7F, 0x28, // mov rdi, [rdi+0x28]
}

// afterBlockCode raises SIGABRT with no libc involved: getpid() followed
// by kill(pid, SIGABRT), each a bare `mov eax, N` / `syscall` pair, then an
// hlt that is never reached because the signal is delivered first.
//
//nolint:gochecknoglobals
var afterBlockCode = []byte{
	0xB8, 0x27, 0x00, 0x00, 0x00, // mov eax, 39 (SYS_getpid)
	0x0F, 0x05, // syscall
	0x89, 0xC7, // mov edi, eax   (pid -> arg0)
	0xBE, 0x06, 0x00, 0x00, 0x00, // mov esi, 6 (SIGABRT -> arg1)
	0xB8, 0x3E, 0x00, 0x00, 0x00, // mov eax, 62 (SYS_kill)
	0x0F, 0x05, // syscall
	0xF4, // hlt
}

// BeforeBlockCode returns a fresh copy of the register-loading prelude.
func BeforeBlockCode() []byte {
	return append([]byte(nil), beforeBlockCode...)
}

// AfterBlockCode returns a fresh copy of the SIGABRT-raising postlude.
func AfterBlockCode() []byte {
	return append([]byte(nil), afterBlockCode...)
}
