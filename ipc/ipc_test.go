package ipc_test

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/bobuhiro11/blockprobe/ipc"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], 0); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	// Both fds[1] (via WriteAll) and fds[0] (via ReadAll) are closed by the
	// calls below, on every path, so nothing needs closing here.

	rec := &ipc.Record{Status: ipc.StatusOK, CodeAddress: 0x2b0000000000}
	rec.SetMessage("")

	done := make(chan error, 1)
	go func() {
		done <- ipc.WriteAll(fds[1], rec)
	}()

	got, err := ipc.ReadAll(fds[0])
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	if got.Status != ipc.StatusOK || got.CodeAddress != 0x2b0000000000 {
		t.Fatalf("got %+v", got)
	}
}

func TestReadAllTruncated(t *testing.T) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], 0); err != nil {
		t.Fatalf("pipe2: %v", err)
	}

	unix.Close(fds[1]) // nothing will ever be written.

	// ReadAll closes fds[0] itself once it observes EOF.
	if _, err := ipc.ReadAll(fds[0]); err != ipc.ErrTruncated {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	rec := &ipc.Record{}
	const want = "mapping previously discovered address 0x15000 failed"
	rec.SetMessage(want)

	if got := rec.MessageString(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMessageTruncatesButNulTerminates(t *testing.T) {
	rec := &ipc.Record{}
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	rec.SetMessage(string(long))

	got := rec.MessageString()
	if len(got) != len(rec.Message)-1 {
		t.Fatalf("want truncation to %d bytes, got %d", len(rec.Message)-1, len(got))
	}
}
