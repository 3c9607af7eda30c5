//go:build linux && amd64

package probe

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/bobuhiro11/blockprobe/stub"
)

const (
	// defaultCodeAddr sits well away from any address the palette in
	// package regs can produce, so a probed block's own memory accesses
	// are unlikely to collide with its own code page.
	defaultCodeAddr = 0x00002b0000000000

	// sentinelAddr/sentinelLen mark the low-memory window the child
	// unmaps before mapping any data page, so the pointer-like value
	// seedPage leaves in every data page (0x0000000800000008 for an
	// aligned 8-byte load) reliably segfaults when dereferenced instead of
	// resolving into memory the runtime happened to have mapped there.
	sentinelAddr = 0x0000000800000000
	sentinelLen  = 0x10000
)

// forkAndTest is the fork/pipe harness (C4): it opens a pipe, forks, and
// routes the child into childProcess (which never returns) and the
// parent into parentProcess.
func forkAndTest(block []byte, acc *AccessedAddrs) error {
	var fds [2]int
	if err := unix.Pipe2(fds[:], 0); err != nil {
		return errnoErr("pipe2", err)
	}
	readFD, writeFD := fds[0], fds[1]

	// Everything the child could conceivably need to allocate or format
	// is built here, in the parent, where a heap allocation is completely
	// ordinary. fork(2) via a raw syscall bypasses the Go runtime's own
	// fork-safety hooks, and unlike glibc, Go has no pthread_atfork-style
	// mechanism to reset the allocator's internal locks in the child; if
	// another thread held one at the instant of fork, the child would
	// deadlock on its first allocation. So the child below touches none:
	// it only indexes into and copies out of what is precomputed here.
	before := stub.BeforeBlockCode()
	after := stub.AfterBlockCode()

	remapFailed := make([]string, len(acc.AccessedBlocks))
	remapMismatch := make([]string, len(acc.AccessedBlocks))
	for i, addr := range acc.AccessedBlocks {
		remapFailed[i] = fmt.Sprintf("mapping previously discovered address %#x failed", addr)
		remapMismatch[i] = fmt.Sprintf(
			"tried to map previously discovered address %#x, kernel placed it elsewhere", addr)
	}

	// fork(2) duplicates only the calling thread; lock to it so the Go
	// scheduler cannot migrate this goroutine mid-fork.
	runtime.LockOSThread()

	pid, _, errno := unix.RawSyscall(unix.SYS_FORK, 0, 0, 0)
	if errno != 0 {
		runtime.UnlockOSThread()
		unix.Close(readFD)
		unix.Close(writeFD)
		return errnoErr("fork", errno)
	}

	if pid == 0 {
		// Child: everything from here until control transfers into the
		// mapped code page must be an async-signal-safe raw syscall, or
		// an operation over already-allocated memory such as copy() or
		// slice indexing. None of Go's usual runtime guarantees hold
		// post-fork in a multi-threaded process.
		unix.RawSyscall(unix.SYS_CLOSE, uintptr(readFD), 0, 0)
		childProcess(block, acc, writeFD, before, after, remapFailed, remapMismatch)
		unix.RawSyscall(unix.SYS_EXIT, 1, 0, 0)
		panic("unreachable")
	}

	runtime.UnlockOSThread()
	unix.Close(writeFD)

	return parentProcess(int(pid), readFD, acc)
}
