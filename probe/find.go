package probe

import (
	"math/rand"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bobuhiro11/blockprobe/regs"
)

// maxRegisterRetries bounds how many times Find randomizes registers and
// retries after a register-sensitive failure before giving up.
const maxRegisterRetries = 100

// Find is the convergence driver (C5): it forks and traces block
// repeatedly, growing the set of pages it maps before each attempt, until
// a full pass touches no page it hadn't already discovered. Register-
// sensitive failures are retried, up to maxRegisterRetries times, with a
// freshly randomized initial register file.
func Find(block []byte) (*AccessedAddrs, error) {
	return find(block, nil)
}

// FindSeeded behaves like Find but starts from a caller-supplied set of
// already-discovered pages, for example a prior call's result. Feeding a
// converged result back in should reconverge in a single attempt with an
// unchanged set, since nothing new remains to discover.
func FindSeeded(block []byte, seed []uint64) (*AccessedAddrs, error) {
	return find(block, seed)
}

func find(block []byte, seed []uint64) (*AccessedAddrs, error) {
	acc := newAccessedAddrs(unix.Getpagesize())
	acc.AccessedBlocks = append([]uint64(nil), seed...)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempts := 0; ; attempts++ {
		prior := len(acc.AccessedBlocks)

		err := forkAndTest(block, acc)
		switch {
		case err == nil:
			if len(acc.AccessedBlocks) == prior {
				return acc, nil
			}
		case isInvalidArgument(err):
			if attempts >= maxRegisterRetries {
				return nil, err
			}
			// A page set discovered under the old registers may no
			// longer apply once the registers change.
			acc.AccessedBlocks = nil
			regs.Randomize(rng, &acc.InitialRegs)
		default:
			return nil, err
		}
	}
}
