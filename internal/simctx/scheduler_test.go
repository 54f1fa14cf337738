package simctx

import (
	"testing"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/constants"
	"github.com/ckblabs/ckb-x64-simulator-go/pkg/ids"
)

// newPipeWithWriter returns a SimContext with a second process (pid 1)
// already registered, plus a pipe (r owned by the root process, w
// handed to pid 1) so read and write can be driven from two distinct
// processes the way a real parent/child pair would.
func newPipeWithWriter(t *testing.T) (sc *SimContext, r, w ids.Fd) {
	t.Helper()
	sc = New()
	rfd, wfd, code := sc.NewPipe(0)
	if code != constants.Success {
		t.Fatalf("NewPipe: code %d", code)
	}
	child, code := sc.RegisterProcess(0, []ids.Fd{wfd})
	if code != constants.Success {
		t.Fatalf("RegisterProcess: code %d", code)
	}
	sc.MovePipe(wfd, 0, child)
	return sc, rfd, wfd
}

func TestWriteThenRead(t *testing.T) {
	sc, r, w := newPipeWithWriter(t)

	sc.BeginWrite(1, w, []byte("hello"))
	sc.RunToQuiescence()
	sc.BeginRead(0, r, 5)
	sc.RunToQuiescence()

	wres := sc.TakeWrite(1)
	if wres.ErrCode != constants.Success {
		t.Fatalf("write result: %+v", wres)
	}
	rres := sc.TakeRead(0)
	if rres.ErrCode != constants.Success || string(rres.Data) != "hello" {
		t.Fatalf("read result: %+v", rres)
	}
}

func TestReadThenWriteRendezvous(t *testing.T) {
	sc, r, w := newPipeWithWriter(t)

	sc.BeginRead(0, r, 5)
	sc.RunToQuiescence()

	sc.BeginWrite(1, w, []byte("world"))
	sc.RunToQuiescence()

	rres := sc.TakeRead(0)
	if rres.ErrCode != constants.Success || string(rres.Data) != "world" {
		t.Fatalf("read result: %+v", rres)
	}
	sc.TakeWrite(1)
}

func TestOversizedWriteSplitsAcrossTwoReads(t *testing.T) {
	sc, r, w := newPipeWithWriter(t)

	sc.BeginRead(0, r, 1)
	sc.RunToQuiescence()
	sc.BeginWrite(1, w, []byte("abcd"))
	sc.RunToQuiescence()

	rres := sc.TakeRead(0)
	if rres.ErrCode != constants.Success || string(rres.Data) != "a" {
		t.Fatalf("first read: %+v", rres)
	}
	wres := sc.TakeWrite(1)
	if wres.ErrCode != constants.Success {
		t.Fatalf("write result: %+v", wres)
	}

	// The remaining 3 bytes the write over-delivered are cached against
	// the reader's fd and satisfy the next read with no further write.
	sc.BeginRead(0, r, 10)
	sc.RunToQuiescence()
	rres = sc.TakeRead(0)
	if rres.ErrCode != constants.Success || string(rres.Data) != "bcd" {
		t.Fatalf("second read did not drain the cached remainder: %+v", rres)
	}
}

func TestShortReadOnPeerClose(t *testing.T) {
	sc, r, w := newPipeWithWriter(t)

	sc.BeginWrite(1, w, []byte("hi"))
	sc.RunToQuiescence()
	sc.BeginRead(0, r, 10)
	sc.RunToQuiescence()

	rres := sc.TakeRead(0)
	if rres.ErrCode != constants.Success || string(rres.Data) != "hi" {
		t.Fatalf("expected a short read of \"hi\", got %+v", rres)
	}
	sc.TakeWrite(1)

	sc.forceClose(1, w)
	sc.BeginRead(0, r, 10)
	sc.RunToQuiescence()
	rres = sc.TakeRead(0)
	if rres.ErrCode != constants.Success || len(rres.Data) != 0 {
		t.Fatalf("expected an empty, error-free read on a closed peer, got %+v", rres)
	}
}

func TestWriteToClosedPeerFails(t *testing.T) {
	sc, r, w := newPipeWithWriter(t)
	sc.forceClose(0, r)

	sc.BeginWrite(1, w, []byte("x"))
	sc.RunToQuiescence()
	wres := sc.TakeWrite(1)
	if wres.ErrCode != constants.OtherEndClosed {
		t.Fatalf("expected OtherEndClosed, got %+v", wres)
	}
}

func TestWaitSpawnResolvesAgainstZombie(t *testing.T) {
	sc := New()
	child, code := sc.RegisterProcess(0, nil)
	if code != constants.Success {
		t.Fatalf("RegisterProcess: code %d", code)
	}

	sc.BeginWait(0, child)
	sc.RunToQuiescence()

	sc.Exit(child, 7)

	wres := sc.TakeWait(0)
	if wres.ErrCode != constants.Success || wres.ExitCode != 7 {
		t.Fatalf("wait result: %+v", wres)
	}
	if sc.HasProcess(child) {
		t.Fatalf("child should have been reaped after a successful wait")
	}
}

func TestWaitOnUnknownChildFails(t *testing.T) {
	sc := New()
	bogus, _ := sc.RegisterProcess(0, nil)
	sc.Exit(bogus, 0)
	sc.reap(bogus) // simulate the child having already been reaped elsewhere

	sc.BeginWait(0, bogus)
	sc.RunToQuiescence()
	wres := sc.TakeWait(0)
	if wres.ErrCode != constants.InvalidFd {
		t.Fatalf("expected InvalidFd waiting on an unknown child, got %+v", wres)
	}
}

func TestMaxFdsQuota(t *testing.T) {
	sc := New()
	pipes := 0
	for {
		_, _, code := sc.NewPipe(0)
		if code != constants.Success {
			if code != constants.MaxFdsCreated {
				t.Fatalf("unexpected quota error code %d", code)
			}
			break
		}
		pipes++
	}
	if pipes != constants.MaxFds/2 {
		t.Fatalf("created %d pipes, want %d", pipes, constants.MaxFds/2)
	}
}

func TestMaxProcessesQuota(t *testing.T) {
	sc := New()
	spawned := 0
	for {
		_, code := sc.RegisterProcess(0, nil)
		if code != constants.Success {
			if code != constants.MaxVMsSpawned {
				t.Fatalf("unexpected quota error code %d", code)
			}
			break
		}
		spawned++
	}
	// one process slot is already used by the root process (pid 0).
	if spawned != constants.MaxProcesses-1 {
		t.Fatalf("spawned %d processes, want %d", spawned, constants.MaxProcesses-1)
	}
}

func TestCloseWakesBlockedClose(t *testing.T) {
	sc, r, w := newPipeWithWriter(t)

	sc.BeginClose(0, r)
	sc.RunToQuiescence()
	sc.BeginClose(1, w)
	sc.RunToQuiescence()

	cres := sc.TakeClose(0)
	if cres.ErrCode != constants.Success {
		t.Fatalf("close result (reader): %+v", cres)
	}
	cres = sc.TakeClose(1)
	if cres.ErrCode != constants.Success {
		t.Fatalf("close result (writer): %+v", cres)
	}
}
