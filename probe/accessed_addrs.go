// Package probe implements the fault-driven memory-access discovery loop:
// the child executor, the parent supervisor, the fork/pipe harness, and
// the top-level convergence driver.
package probe

import "github.com/bobuhiro11/blockprobe/regs"

// AccessedAddrs is both the convergence driver's accumulator and its
// result: the page-aligned addresses a basic block has been observed to
// touch, the register file that produced them, and the code page address
// the child settled on.
type AccessedAddrs struct {
	// CodeLocation is the address the code page was actually mapped at.
	// Zero means no attempt has mapped a page yet; the child executor
	// then requests defaultCodeAddr.
	CodeLocation uint64

	// BlockSize is the host page size, fixed for the lifetime of a run.
	BlockSize uint64

	// AccessedBlocks holds page-aligned addresses observed as faulting
	// reads or writes, in order of first discovery, with no duplicates.
	AccessedBlocks []uint64

	// InitialRegs is the register file loaded into the CPU by the
	// before-block stub prior to executing the probed block.
	InitialRegs regs.X64Regs
}

func newAccessedAddrs(pageSize int) *AccessedAddrs {
	return &AccessedAddrs{
		BlockSize:   uint64(pageSize),
		InitialRegs: regs.Initial(),
	}
}

func (a *AccessedAddrs) hasBlock(addr uint64) bool {
	for _, b := range a.AccessedBlocks {
		if b == addr {
			return true
		}
	}
	return false
}

func (a *AccessedAddrs) recordBlock(addr uint64) {
	if !a.hasBlock(addr) {
		a.AccessedBlocks = append(a.AccessedBlocks, addr)
	}
}

func alignDown(addr, align uint64) uint64 {
	return addr - (addr % align)
}
