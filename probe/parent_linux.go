//go:build linux && amd64

package probe

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/bobuhiro11/blockprobe/diag"
	"github.com/bobuhiro11/blockprobe/ipc"
)

// parentProcess is the parent supervisor (C3). It waits on the traced
// child, interprets its stop signal, and tears the child down
// unconditionally before consulting the IPC pipe: the child's exit status
// alone is never trusted to mean success.
func parentProcess(pid int, pipeReadFD int, acc *AccessedAddrs) error {
	result := parentProcessInner(pid, acc)

	// Teardown always runs once parentProcessInner returns. Killing
	// outright, rather than resuming the stopped child, means its pending
	// signal is never delivered and no stopped tracee is left behind. A
	// block that never stops at all keeps parentProcessInner waiting;
	// there is no timeout.
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil && result == nil {
		result = errnoErr(fmt.Sprintf("killing child process %d", pid), err)
	}

	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil && result == nil {
		result = errnoErr(fmt.Sprintf("reaping child process %d", pid), err)
	}

	if result != nil {
		// ipc.ReadAll, which would otherwise own closing pipeReadFD, is
		// never reached on this path.
		unix.Close(pipeReadFD)
		return result
	}

	// Only a clean ptrace outcome (a discovered fault, or the after-block
	// SIGABRT) reaches here; only now does the IPC record get consulted.
	rec, err := ipc.ReadAll(pipeReadFD)
	if err != nil {
		return internalErr("reading child's status: %v", err)
	}

	if rec.Status != ipc.StatusOK {
		return &Error{Kind: statusToKind(rec.Status), Err: fmt.Errorf("%s", rec.MessageString())}
	}

	acc.CodeLocation = rec.CodeAddress

	return nil
}

func parentProcessInner(pid int, acc *AccessedAddrs) error {
	var ws syscall.WaitStatus

	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return errnoErr("wait4 (initial stop)", err)
	}
	if !ws.Stopped() {
		return internalErr("child did not stop as expected: %v", ws)
	}

	if err := syscall.PtraceCont(pid, 0); err != nil {
		return errnoErr("ptrace cont", err)
	}

	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return errnoErr("wait4", err)
	}
	if !ws.Stopped() {
		return internalErr("child terminated with an unexpected status: %v", ws)
	}

	switch sig := ws.StopSignal(); sig {
	case syscall.SIGSEGV:
		info, err := getSiginfo(pid)
		if err != nil {
			return errnoErr("ptrace getsiginfo", err)
		}
		acc.recordBlock(alignDown(info.Addr, acc.BlockSize))
		return nil

	case syscall.SIGABRT:
		// The after-block stub ran to completion: every touched page was
		// already mapped.
		return nil

	case syscall.SIGFPE:
		return invalidArgumentErr("floating point exception")

	case syscall.SIGBUS:
		info, err := getSiginfo(pid)
		if err != nil {
			return internalErr("child stopped with unexpected signal: %s\n%s", sig, dumpRegs(pid))
		}
		return internalErr("child stopped with unexpected signal: %s, address %#x\n%s%s",
			sig, info.Addr, dumpRegs(pid), disasmAt(pid))

	default:
		return internalErr("child stopped with unexpected signal: %s\n%s%s", sig, dumpRegs(pid), disasmAt(pid))
	}
}

// dumpRegs formats the child's general-purpose registers for inclusion in
// an internal error.
func dumpRegs(pid int) string {
	var regs syscall.PtraceRegs
	if err := syscall.PtraceGetRegs(pid, &regs); err != nil {
		return fmt.Sprintf("\t<failed to read registers: %v>", err)
	}

	return fmt.Sprintf(
		"\trsp=%016x rbp=%016x rip=%016x\n"+
			"\trax=%016x rbx=%016x rcx=%016x\n"+
			"\trdx=%016x rsi=%016x rdi=%016x\n"+
			"\t r8=%016x  r9=%016x r10=%016x\n"+
			"\tr11=%016x r12=%016x r13=%016x\n"+
			"\tr14=%016x r15=%016x",
		regs.Rsp, regs.Rbp, regs.Rip, regs.Rax, regs.Rbx, regs.Rcx,
		regs.Rdx, regs.Rsi, regs.Rdi, regs.R8, regs.R9, regs.R10,
		regs.R11, regs.R12, regs.R13, regs.R14, regs.R15)
}

// disasmAt best-effort disassembles the faulting instruction. It never
// fails the caller: a register or memory read failure degrades to an empty
// string, and a decode failure to diag.Disassemble's placeholder.
func disasmAt(pid int) string {
	var regs syscall.PtraceRegs
	if err := syscall.PtraceGetRegs(pid, &regs); err != nil {
		return ""
	}

	code := make([]byte, 16)
	n, err := syscall.PtracePeekData(pid, uintptr(regs.Rip), code)
	if err != nil || n == 0 {
		return ""
	}

	return fmt.Sprintf("\n\tinstruction: %s", diag.Disassemble(code[:n], regs.Rip))
}
