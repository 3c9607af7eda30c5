package probe

import (
	"errors"
	"fmt"

	"github.com/bobuhiro11/blockprobe/ipc"
)

// Kind tags the category of failure Find can return.
type Kind int

const (
	// KindErrno wraps a failed OS call: pipe2, fork, wait4, and so on.
	KindErrno Kind = iota
	// KindInvalidArgument marks a register-sensitive failure. The
	// convergence driver retries these by randomizing InitialRegs, and
	// only surfaces one once the retry budget is exhausted.
	KindInvalidArgument
	// KindInternal marks a failure that no amount of retrying fixes: an
	// unexpected signal, a truncated IPC record, an inconsistent mmap
	// result.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindErrno:
		return "errno"
	case KindInvalidArgument:
		return "invalid argument"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the tagged error type Find returns.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errnoErr(op string, err error) error {
	return &Error{Kind: KindErrno, Err: fmt.Errorf("%s: %w", op, err)}
}

func invalidArgumentErr(format string, a ...any) error {
	return &Error{Kind: KindInvalidArgument, Err: fmt.Errorf(format, a...)}
}

func internalErr(format string, a ...any) error {
	return &Error{Kind: KindInternal, Err: fmt.Errorf(format, a...)}
}

func statusToKind(s ipc.StatusCode) Kind {
	if s == ipc.StatusInvalidArgument {
		return KindInvalidArgument
	}
	return KindInternal
}

func isInvalidArgument(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == KindInvalidArgument
}
