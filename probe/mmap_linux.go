//go:build linux && amd64

package probe

import (
	"syscall"
	"unsafe"
)

// mmapAt requests an anonymous private mapping at addr as a hint, not a
// requirement: MAP_FIXED is never set, so the kernel is free to place the
// mapping elsewhere if addr is unavailable. Callers compare the returned
// address against addr to tell "mapped somewhere else" apart from a
// genuine mmap failure.
func mmapAt(addr, length uintptr, prot, flags int) (uintptr, error) {
	ret, _, errno := syscall.Syscall6(syscall.SYS_MMAP, addr, length,
		uintptr(prot), uintptr(flags), ^uintptr(0), 0)
	if errno != 0 {
		return 0, errno
	}
	return ret, nil
}

// munmapAt is best-effort: the sentinel unmap in the child ignores its
// result, since the sentinel range may already be unmapped.
func munmapAt(addr, length uintptr) error {
	_, _, errno := syscall.Syscall(syscall.SYS_MUNMAP, addr, length, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// seedPage fills a freshly mapped page with a repeating non-zero pattern,
// so a block that reads the page back observes something other than the
// kernel's own zero-fill, and so a pointer-shaped value stored there
// segfaults on a subsequent dereference rather than resolving to zero.
func seedPage(addr uintptr, size uint64) {
	page := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	for i := uint64(0); i < size; i += 4 {
		page[i] = 0x08
	}
}
