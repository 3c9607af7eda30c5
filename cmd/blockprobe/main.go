// Command blockprobe discovers the page-aligned memory regions a single
// x86-64 basic block reads or writes when run under a chosen initial
// register configuration.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/felixge/fgprof"
	"github.com/pkg/profile"

	"github.com/bobuhiro11/blockprobe/probe"
)

func main() {
	var (
		hexInput   = flag.Bool("hex", false, "the block file is hex-encoded rather than raw bytes")
		cpuProfile = flag.Bool("cpuprofile", false, "profile the convergence loop's CPU usage")
		fgprofPath = flag.String("fgprof", "", "write an fgprof wall-clock profile to this path")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: blockprobe [-hex] [-cpuprofile] [-fgprof file] <block-file>")
		os.Exit(2)
	}

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	if *fgprofPath != "" {
		f, err := os.Create(*fgprofPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()

		stop := fgprof.Start(f, fgprof.FormatPprof)
		defer stop()
	}

	block, err := loadBlock(flag.Arg(0), *hexInput)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	acc, err := probe.Find(block)
	if err != nil {
		var perr *probe.Error
		if errors.As(err, &perr) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", perr.Kind, perr.Err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	fmt.Printf("code_location: %#x\n", acc.CodeLocation)
	fmt.Printf("block_size:    %#x\n", acc.BlockSize)
	fmt.Printf("accessed_blocks (%d):\n", len(acc.AccessedBlocks))
	for _, addr := range acc.AccessedBlocks {
		fmt.Printf("  %#x\n", addr)
	}
}

func loadBlock(path string, isHex bool) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !isHex {
		return raw, nil
	}

	decoded, err := hex.DecodeString(string(trimNewline(raw)))
	if err != nil {
		return nil, fmt.Errorf("decoding hex in %s: %w", path, err)
	}
	return decoded, nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
