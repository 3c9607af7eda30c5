//go:build linux && amd64

package probe

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/bobuhiro11/blockprobe/ipc"
)

// childProcess is the child executor (C2). It runs entirely inside the
// forked child, with the pipe's read end already closed, and never
// returns: every path either transfers control into the mapped code page
// or terminates the process. before, after, and the two message slices
// (one entry per acc.AccessedBlocks index) are all built by the parent
// before fork, so nothing here allocates: the child only indexes and
// copies out of memory that already existed pre-fork.
func childProcess(block []byte, acc *AccessedAddrs, pipeWriteFD int,
	before, after []byte, remapFailed, remapMismatch []string) {
	// 1. Attach: request tracing and self-stop, so the parent has
	// definitely attached before anything observable happens.
	_, _, _ = syscall.RawSyscall(syscall.SYS_PTRACE, uintptr(syscall.PTRACE_TRACEME), 0, 0)
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGSTOP)

	// 2. Clear the sentinel range so a stray small pointer-like register
	// value reliably faults rather than resolving into whatever this
	// process image happened to have mapped there.
	_ = munmapAt(sentinelAddr, sentinelLen)

	// 3-4. Remap and seed every page a previous attempt discovered.
	for i, addr := range acc.AccessedBlocks {
		mapped, err := mmapAt(uintptr(addr), uintptr(acc.BlockSize),
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
		if err != nil {
			abortChild(pipeWriteFD, ipc.StatusInternal, remapFailed[i])
		}

		if uint64(mapped) != addr {
			// The address a prior run discovered is no longer mappable.
			// That is a property of the current register configuration,
			// not of the block, so it is retryable.
			abortChild(pipeWriteFD, ipc.StatusInvalidArgument, remapMismatch[i])
		}

		seedPage(mapped, acc.BlockSize)
	}

	// 5. Map the code page.
	total := uintptr(len(before) + len(block) + len(after))

	desired := uintptr(acc.CodeLocation)
	if desired == 0 {
		desired = defaultCodeAddr
	}

	codeAddr, err := mmapAt(desired, total, unix.PROT_WRITE|unix.PROT_EXEC, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		// No IPC record on this path: there is no code address to report
		// and no register configuration would fix a page allocation
		// failure, matching the original tool's unconditional abort here.
		syscall.Kill(syscall.Getpid(), syscall.SIGABRT)
		selectForever()
	}

	// 6. Publish the address before touching the page any further, so the
	// parent can interpret whatever happens next even if it never sees
	// another IPC record.
	rec := ipc.Record{Status: ipc.StatusOK, CodeAddress: uint64(codeAddr)}
	if err := ipc.WriteAll(pipeWriteFD, &rec); err != nil {
		syscall.Kill(syscall.Getpid(), syscall.SIGABRT)
		selectForever()
	}

	// 7. Install before || block || after with a hand-inlined byte move
	// (repmovsb_amd64.s) rather than a library memcpy: earlier remaps may
	// have torn down whatever backed a shared library, and the compiler
	// must not be free to lower a hand-written copy loop back into a call
	// to one.
	installCode(codeAddr, before, block, after)

	// 8. Transfer control. The before-block stub restores registers, the
	// probed block runs, and the after-block stub raises SIGABRT.
	callBlock(codeAddr, unsafe.Pointer(&acc.InitialRegs))

	// 9. Unreachable: callBlock never returns.
	syscall.Kill(syscall.Getpid(), syscall.SIGABRT)
	selectForever()
}

// selectForever blocks without returning. Used right after sending
// ourselves a fatal signal: signal delivery is asynchronous, and nothing
// after this point may run.
func selectForever() {
	select {}
}

// abortChild reports status/message to the parent on a best-effort basis,
// then terminates the child. It never returns.
func abortChild(pipeWriteFD int, status ipc.StatusCode, message string) {
	rec := ipc.Record{Status: status}
	rec.SetMessage(message)
	_ = ipc.WriteAll(pipeWriteFD, &rec)
	syscall.Kill(syscall.Getpid(), syscall.SIGABRT)
	selectForever()
}
