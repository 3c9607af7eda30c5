//go:build linux && amd64

package probe

import (
	"syscall"
	"unsafe"
)

const ptraceGetSigInfo = 0x4202 // PTRACE_GETSIGINFO

// rawSiginfo mirrors the head of the kernel's siginfo_t on linux/amd64:
// the three leading signal-identifying ints, the alignment gap before the
// union, and the si_addr field carried by the sigfault member SIGSEGV and
// SIGBUS reports use. The trailing padding exists only so PTRACE_GETSIGINFO
// has the full 128 bytes of scratch space the kernel expects to write.
type rawSiginfo struct {
	Signo int32
	Errno int32
	Code  int32
	_     int32
	Addr  uint64
	_     [104]byte
}

func getSiginfo(pid int) (rawSiginfo, error) {
	var info rawSiginfo
	_, _, errno := syscall.Syscall6(syscall.SYS_PTRACE, ptraceGetSigInfo,
		uintptr(pid), 0, uintptr(unsafe.Pointer(&info)), 0, 0)
	if errno != 0 {
		return rawSiginfo{}, errno
	}
	return info, nil
}
