// Package ipc implements the fixed-layout IPC record (C1) the child
// executor publishes over a pipe to the parent supervisor: one whole
// record or nothing, tolerant of the child dying mid-write.
package ipc

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// StatusCode tags the outcome the child reports to the parent.
type StatusCode uint32

const (
	// StatusOK means the child mapped its code page; CodeAddress holds
	// the address the page landed at.
	StatusOK StatusCode = iota
	// StatusInvalidArgument marks a register-sensitive failure the
	// convergence driver can retry by randomizing registers.
	StatusInvalidArgument
	// StatusInternal marks a failure the convergence driver cannot retry
	// its way out of.
	StatusInternal
)

func (s StatusCode) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidArgument:
		return "invalid argument"
	case StatusInternal:
		return "internal"
	default:
		return fmt.Sprintf("StatusCode(%d)", uint32(s))
	}
}

// Record is the whole-message unit exchanged over the pipe. Its layout is
// fixed size and zero-padded so a truncated read is unambiguous: any read
// shorter than unsafe.Sizeof(Record{}) is a truncation, never a partial-but-valid
// record.
type Record struct {
	Status      StatusCode
	Message     [1024]byte
	CodeAddress uint64
}

// SetMessage copies s into Message, truncating and always NUL-terminating
// so MessageString never runs past a partial multi-byte write.
func (r *Record) SetMessage(s string) {
	n := copy(r.Message[:len(r.Message)-1], s)
	r.Message[n] = 0
	for i := n + 1; i < len(r.Message); i++ {
		r.Message[i] = 0
	}
}

// MessageString returns Message up to its first NUL byte.
func (r *Record) MessageString() string {
	n := 0
	for n < len(r.Message) && r.Message[n] != 0 {
		n++
	}
	return string(r.Message[:n])
}

// ErrTruncated is returned by ReadAll when the pipe closed before a whole
// record arrived, typically because the child died before publishing one.
var ErrTruncated = errors.New("ipc: truncated record")

// bytesOf aliases r's memory as a byte slice, the same fixed-layout
// struct-as-bytes technique used elsewhere in this codebase for shipping
// ABI-shaped structs across a syscall boundary.
func bytesOf(r *Record) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(r)), unsafe.Sizeof(*r))
}

func isRetryable(err error) bool {
	return errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN)
}

// WriteAll writes rec to fd in its entirety, retrying on EINTR/EAGAIN and
// on short writes, matching the whole-message framing this codebase's
// other transports use. On success it closes fd: a Record is written at
// most once per fd's lifetime, so the writer is always done with it
// afterward.
func WriteAll(fd int, rec *Record) error {
	buf := bytesOf(rec)
	for len(buf) > 0 {
		n, err := unix.Write(fd, buf)
		if err != nil {
			if isRetryable(err) {
				continue
			}
			return fmt.Errorf("ipc: write: %w", err)
		}
		buf = buf[n:]
	}
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("ipc: close: %w", err)
	}
	return nil
}

// ReadAll reads one whole Record from fd. If the pipe closes (EOF) before a
// full record has arrived, it returns ErrTruncated: the caller treats this
// the same as any other internal failure, since a truncated record means
// the child died before it could report its own outcome. fd is closed
// before ReadAll returns, on every path: a complete read, a truncated
// read, or a hard read error.
func ReadAll(fd int) (*Record, error) {
	var rec Record
	buf := bytesOf(&rec)
	for len(buf) > 0 {
		n, err := unix.Read(fd, buf)
		if err != nil {
			if isRetryable(err) {
				continue
			}
			unix.Close(fd)
			return nil, fmt.Errorf("ipc: read: %w", err)
		}
		if n == 0 {
			unix.Close(fd)
			return nil, ErrTruncated
		}
		buf = buf[n:]
	}
	unix.Close(fd)
	return &rec, nil
}
