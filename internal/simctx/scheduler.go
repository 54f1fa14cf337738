package simctx

import (
	"sort"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/constants"
	"github.com/ckblabs/ckb-x64-simulator-go/pkg/ids"
)

type opKind int

const (
	opReadWait opKind = iota
	opWriteWait
	opCloseWait
	opWaitSpawn
)

// pendingOp is the single outstanding operation a blocked process is
// waiting on. Exactly one of these may exist per process at a time.
type pendingOp struct {
	kind opKind

	fd        ids.Fd     // opReadWait, opWriteWait, opCloseWait
	child     ids.ProcID // opWaitSpawn
	remaining int        // opReadWait: bytes still wanted
	data      []byte     // opReadWait: bytes accumulated so far; opWriteWait: bytes not yet delivered

	satisfied bool
	woken     bool  // true once wakeOne has retired this op; awaits TakeX
	errCode   int   // non-zero result delivered to the waiter once satisfied
	exitCode  int8  // opWaitSpawn result
}

// BeginRead registers pid as blocked reading want bytes from fd.
func (sc *SimContext) BeginRead(pid ids.ProcID, fd ids.Fd, want int) {
	sc.proc(pid).op = &pendingOp{kind: opReadWait, fd: fd, remaining: want}
	sc.waitingOn[fd] = pid
}

// BeginWrite registers pid as blocked writing data to fd.
func (sc *SimContext) BeginWrite(pid ids.ProcID, fd ids.Fd, data []byte) {
	cp := append([]byte(nil), data...)
	sc.proc(pid).op = &pendingOp{kind: opWriteWait, fd: fd, data: cp}
	sc.waitingOn[fd] = pid
}

// BeginClose registers pid as closing fd.
func (sc *SimContext) BeginClose(pid ids.ProcID, fd ids.Fd) {
	sc.proc(pid).op = &pendingOp{kind: opCloseWait, fd: fd}
	sc.waitingOn[fd] = pid
}

// BeginWait registers pid as blocked waiting for child to terminate.
func (sc *SimContext) BeginWait(pid, child ids.ProcID) {
	sc.proc(pid).op = &pendingOp{kind: opWaitSpawn, child: child}
}

// ReadResult reports what a completed opReadWait delivered.
type ReadResult struct {
	Data    []byte
	ErrCode int
}

// WriteResult reports what a completed opWriteWait delivered.
type WriteResult struct {
	ErrCode int
}

// CloseResult reports what a completed opCloseWait delivered.
type CloseResult struct {
	ErrCode int
}

// WaitResult reports what a completed opWaitSpawn delivered.
type WaitResult struct {
	ExitCode int8
	ErrCode  int
}

// TakeRead clears pid's pending op and returns its read result. Must
// only be called once the op's Event has fired.
func (sc *SimContext) TakeRead(pid ids.ProcID) ReadResult {
	pi := sc.proc(pid)
	op := pi.op
	pi.op = nil
	return ReadResult{Data: op.data, ErrCode: op.errCode}
}

// TakeWrite clears pid's pending op and returns its write result.
func (sc *SimContext) TakeWrite(pid ids.ProcID) WriteResult {
	pi := sc.proc(pid)
	op := pi.op
	pi.op = nil
	return WriteResult{ErrCode: op.errCode}
}

// TakeClose clears pid's pending op and returns its close result.
func (sc *SimContext) TakeClose(pid ids.ProcID) CloseResult {
	pi := sc.proc(pid)
	op := pi.op
	pi.op = nil
	return CloseResult{ErrCode: op.errCode}
}

// TakeWait clears pid's pending op and, if satisfied, reaps the child
// and returns its exit code.
func (sc *SimContext) TakeWait(pid ids.ProcID) WaitResult {
	pi := sc.proc(pid)
	op := pi.op
	pi.op = nil
	if op.errCode == constants.Success {
		sc.reap(op.child)
	}
	return WaitResult{ExitCode: op.exitCode, ErrCode: op.errCode}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RunToQuiescence runs match/wake steps until neither phase makes
// further progress. Exit and CloseAll end by calling this, and callers
// run it right after each Begin* call, so a single lock section fully
// resolves every rendezvous it made possible, matching the scheduler's
// two-phase match/wake step repeated until the simulation state is
// quiescent.
func (sc *SimContext) RunToQuiescence() {
	for {
		matched := sc.matchAll()
		woke := sc.wakeOne()
		if !matched && !woke {
			return
		}
	}
}

// matchAll is scheduler phase A: it pairs every blocked read against a
// blocked write or close on its peer fd, copying bytes and marking
// operations satisfied as far as the currently available data allows.
// It never wakes anyone; that is phase B's job.
func (sc *SimContext) matchAll() bool {
	progressed := false
	for _, pid := range sc.orderedPids() {
		pi := sc.processes[pid]
		op := pi.op
		if op == nil || op.satisfied || op.kind != opReadWait {
			continue
		}
		fd := op.fd

		if cached := sc.readable[fd]; len(cached) > 0 {
			n := min(op.remaining, len(cached))
			op.data = append(op.data, cached[:n]...)
			op.remaining -= n
			if n == len(cached) {
				delete(sc.readable, fd)
			} else {
				sc.readable[fd] = cached[n:]
			}
			sc.lastMatchedFds[fd] = true
			progressed = true
		}
		if op.remaining == 0 {
			op.satisfied = true
			continue
		}

		peer := fd.Other()
		if !sc.fdOpen[peer] {
			// Peer already closed: short read, whatever was
			// accumulated (possibly nothing) is the final result.
			op.satisfied = true
			progressed = true
			continue
		}
		peerPid, ok := sc.waitingOn[peer]
		if !ok {
			continue
		}
		peerPi, ok := sc.processes[peerPid]
		if !ok || peerPi.op == nil {
			continue
		}
		switch peerPi.op.kind {
		case opWriteWait:
			wop := peerPi.op
			n := min(op.remaining, len(wop.data))
			if n == 0 {
				continue
			}
			op.data = append(op.data, wop.data[:n]...)
			op.remaining -= n
			leftover := wop.data[n:]
			wop.data = leftover
			if len(wop.data) == 0 {
				wop.satisfied = true
			}
			if op.remaining == 0 {
				op.satisfied = true
				if len(leftover) > 0 {
					// The write delivered more than this read
					// wanted; the remainder is cached for the
					// next read on this fd, overwriting (rather
					// than queuing behind) whatever was cached
					// before, and the write completes.
					sc.readable[fd] = leftover
					wop.data = nil
					wop.satisfied = true
				}
			}
			sc.lastMatchedFds[fd] = true
			sc.lastMatchedFds[peer] = true
			progressed = true
		case opCloseWait:
			op.satisfied = true
			sc.lastMatchedFds[fd] = true
			progressed = true
		}
	}

	for _, pid := range sc.orderedPids() {
		pi := sc.processes[pid]
		op := pi.op
		if op == nil || op.satisfied {
			continue
		}
		switch op.kind {
		case opWriteWait:
			peer := op.fd.Other()
			if !sc.fdOpen[peer] {
				op.satisfied = true
				op.errCode = constants.OtherEndClosed
				progressed = true
			}
		case opCloseWait:
			peer := op.fd.Other()
			if !sc.fdOpen[peer] {
				op.satisfied = true
				progressed = true
				continue
			}
			peerPid, ok := sc.waitingOn[peer]
			if !ok {
				continue
			}
			peerPi := sc.processes[peerPid]
			if peerPi == nil || peerPi.op == nil {
				continue
			}
			if peerPi.op.kind == opCloseWait {
				op.satisfied = true
				peerPi.op.satisfied = true
				progressed = true
			}
		case opWaitSpawn:
			cpi, ok := sc.processes[op.child]
			if !ok {
				op.errCode = constants.InvalidFd
				op.satisfied = true
				progressed = true
			} else if cpi.isZombie {
				op.exitCode = cpi.zombieCode
				op.errCode = constants.Success
				op.satisfied = true
				progressed = true
			}
		}
	}
	return progressed
}

// wakeOne is scheduler phase B: it retires exactly one satisfied
// pending operation, preferring one whose fd was touched during the
// most recent matchAll pass, falling back to the smallest ProcID with
// any satisfied operation. It returns whether it woke anyone.
func (sc *SimContext) wakeOne() bool {
	pids := sc.orderedPids()

	for fd := range sc.lastMatchedFds {
		for _, pid := range pids {
			pi := sc.processes[pid]
			if pi.op != nil && pi.op.satisfied && !pi.op.woken && pi.op.fd == fd {
				sc.retire(pid, fd)
				return true
			}
		}
	}
	sc.lastMatchedFds = make(map[ids.Fd]bool)

	for _, pid := range pids {
		pi := sc.processes[pid]
		if pi.op != nil && pi.op.satisfied && !pi.op.woken {
			var fd ids.Fd
			switch pi.op.kind {
			case opReadWait, opWriteWait, opCloseWait:
				fd = pi.op.fd
			}
			sc.retire(pid, fd)
			return true
		}
	}
	return false
}

func (sc *SimContext) retire(pid ids.ProcID, fd ids.Fd) {
	pi := sc.processes[pid]
	pi.op.woken = true
	if pi.op.kind != opWaitSpawn {
		delete(sc.waitingOn, fd)
	}
	pi.wake.Notify()
}

func (sc *SimContext) orderedPids() []ids.ProcID {
	out := make([]ids.ProcID, 0, len(sc.processes))
	for pid := range sc.processes {
		out = append(out, pid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
