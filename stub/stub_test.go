package stub_test

import (
	"testing"

	"github.com/bobuhiro11/blockprobe/stub"
)

func TestBeforeBlockCodeLoadsAllSixteenRegisters(t *testing.T) {
	code := stub.BeforeBlockCode()
	// Each `mov reg64, [rdi+disp8]` is 4 bytes; 16 registers.
	if len(code) != 16*4 {
		t.Fatalf("got %d bytes, want %d", len(code), 16*4)
	}
}

func TestAfterBlockCodeEndsInHlt(t *testing.T) {
	code := stub.AfterBlockCode()
	if len(code) == 0 || code[len(code)-1] != 0xF4 {
		t.Fatalf("want the after-block stub to end in hlt (0xf4), got %#x", code)
	}
}

func TestCodeProvidersReturnFreshCopies(t *testing.T) {
	a := stub.BeforeBlockCode()
	a[0] = 0xFF
	if b := stub.BeforeBlockCode(); b[0] == 0xFF {
		t.Fatal("BeforeBlockCode must return a fresh copy each call")
	}

	c := stub.AfterBlockCode()
	c[0] = 0xFF
	if d := stub.AfterBlockCode(); d[0] == 0xFF {
		t.Fatal("AfterBlockCode must return a fresh copy each call")
	}
}
