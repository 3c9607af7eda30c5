// Package regs defines the register-value policy (C6): the initial
// X64Regs configuration handed to the before-block stub, and the
// randomization palette used when a run needs a different one.
package regs

import "math/rand"

// X64Regs mirrors the general-purpose register file the before-block stub
// loads into the CPU before transferring control into a probed block. The
// field order and width (16 uint64s, no padding) matches the layout the
// stub's raw `mov reg, [rdi+offset]` sequence expects: offset 0x00 is RAX,
// offset 0x08 is RBX, and so on down to R15 at 0x78.
type X64Regs struct {
	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	RSP uint64
	RBP uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64
}

// initialValue is the default register value: a mid-range address that,
// under a page-aligned 4KiB block, keeps register+small-offset addressing
// away from both the zero page and the code page's own default location.
const initialValue = 0x15000

// palette holds every value Randomize may assign to a register: zero (to
// exercise null-pointer-style faults), the default, and a second
// distinct page far from the default so two-register instructions can be
// observed touching different pages.
var palette = [...]uint64{0, initialValue, 0x1000000}

// Initial returns the register file every convergence run starts from:
// every register set to the same address, so a block that dereferences
// any single register alone reliably faults on the same page.
func Initial() X64Regs {
	return X64Regs{
		RAX: initialValue, RBX: initialValue, RCX: initialValue, RDX: initialValue,
		RSI: initialValue, RDI: initialValue, RSP: initialValue, RBP: initialValue,
		R8: initialValue, R9: initialValue, R10: initialValue, R11: initialValue,
		R12: initialValue, R13: initialValue, R14: initialValue, R15: initialValue,
	}
}

// Randomize overwrites every field of r with an independently drawn value
// from the palette. Called when a run needs to escape a register
// configuration that produced an invalid-argument outcome (for example, an
// unmappable pointer value that the palette's other entries might avoid).
func Randomize(rng *rand.Rand, r *X64Regs) {
	r.RAX = pick(rng)
	r.RBX = pick(rng)
	r.RCX = pick(rng)
	r.RDX = pick(rng)
	r.RSI = pick(rng)
	r.RDI = pick(rng)
	r.RSP = pick(rng)
	r.RBP = pick(rng)
	r.R8 = pick(rng)
	r.R9 = pick(rng)
	r.R10 = pick(rng)
	r.R11 = pick(rng)
	r.R12 = pick(rng)
	r.R13 = pick(rng)
	r.R14 = pick(rng)
	r.R15 = pick(rng)
}

func pick(rng *rand.Rand) uint64 {
	return palette[rng.Intn(len(palette))]
}
