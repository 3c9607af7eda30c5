package probe

import "testing"

func TestRecordBlockDeduplicates(t *testing.T) {
	acc := newAccessedAddrs(4096)
	acc.recordBlock(0x15000)
	acc.recordBlock(0x17000)
	acc.recordBlock(0x15000)

	if len(acc.AccessedBlocks) != 2 {
		t.Fatalf("want 2 distinct blocks, got %#x", acc.AccessedBlocks)
	}
}

func TestAlignDown(t *testing.T) {
	cases := map[uint64]uint64{
		0x15000: 0x15000,
		0x15fff: 0x15000,
		0x16000: 0x16000,
	}
	for addr, want := range cases {
		if got := alignDown(addr, 0x1000); got != want {
			t.Errorf("alignDown(%#x, 0x1000) = %#x, want %#x", addr, got, want)
		}
	}
}
