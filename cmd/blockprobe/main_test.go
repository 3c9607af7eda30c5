package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBlockRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.bin")
	want := []byte{0x90, 0x48, 0x8B, 0x00}
	if err := os.WriteFile(path, want, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := loadBlock(path, false)
	if err != nil {
		t.Fatalf("loadBlock: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("got %#x, want %#x", got, want)
	}
}

func TestLoadBlockHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.hex")
	if err := os.WriteFile(path, []byte("90488b00\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := loadBlock(path, true)
	if err != nil {
		t.Fatalf("loadBlock: %v", err)
	}
	want := []byte{0x90, 0x48, 0x8B, 0x00}
	if string(got) != string(want) {
		t.Fatalf("got %#x, want %#x", got, want)
	}
}

func TestLoadBlockInvalidHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.hex")
	if err := os.WriteFile(path, []byte("not hex"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadBlock(path, true); err == nil {
		t.Fatal("want an error decoding invalid hex")
	}
}

func TestTrimNewline(t *testing.T) {
	cases := map[string]string{
		"abc\n":   "abc",
		"abc\r\n": "abc",
		"abc":     "abc",
		"":        "",
	}
	for in, want := range cases {
		if got := string(trimNewline([]byte(in))); got != want {
			t.Errorf("trimNewline(%q) = %q, want %q", in, got, want)
		}
	}
}
