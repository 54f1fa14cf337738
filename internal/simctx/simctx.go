// Package simctx implements the per-simulation state machine: the
// process table, the pipe table and the cooperative scheduler that
// pairs blocked reads, writes, closes and waits into a single
// deterministic wakeup per step. One SimContext exists per simulation
// (normally one per test run); internal/registry owns the
// SimID -> *SimContext map and the lock that serializes every method
// here.
package simctx

import (
	"fmt"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/constants"
	"github.com/ckblabs/ckb-x64-simulator-go/pkg/event"
	"github.com/ckblabs/ckb-x64-simulator-go/pkg/ids"
)

// procInfo is the bookkeeping record for one simulated process: who
// spawned it, which fds it was handed at spawn time, the fds it
// currently holds open, its wakeup handle and (while blocked) its
// single outstanding pending operation.
type procInfo struct {
	parentID     ids.ProcID
	inheritedFds []ids.Fd
	openFds      map[ids.Fd]bool
	wake         event.Event
	op           *pendingOp
	isZombie     bool
	zombieCode   int8
}

// SimContext holds every live process, every open pipe and the
// scheduler's bookkeeping for one simulation run. The zero value is not
// usable; construct with New.
type SimContext struct {
	id ids.SimID

	fdCounter  *ids.Counter
	pidCounter *ids.Counter

	processes map[ids.ProcID]*procInfo
	fdOpen    map[ids.Fd]bool
	readable  map[ids.Fd][]byte // leftover bytes a write over-delivered, cached per reader fd
	waitingOn map[ids.Fd]ids.ProcID

	lastMatchedFds map[ids.Fd]bool
}

// New returns a SimContext with the implicit root process (id 0)
// already registered.
func New() *SimContext {
	sc := &SimContext{
		fdCounter:      ids.NewCounter(2),
		pidCounter:     ids.NewCounter(1),
		processes:      make(map[ids.ProcID]*procInfo),
		fdOpen:         make(map[ids.Fd]bool),
		readable:       make(map[ids.Fd][]byte),
		waitingOn:      make(map[ids.Fd]ids.ProcID),
		lastMatchedFds: make(map[ids.Fd]bool),
	}
	sc.processes[0] = &procInfo{parentID: 0, openFds: make(map[ids.Fd]bool), wake: event.New()}
	return sc
}

// SetID records which SimID this context is registered under, so a
// spawned process's thread-local identity can be set from the id alone.
func (sc *SimContext) SetID(id ids.SimID) { sc.id = id }

// ID returns the SimID this context was created under.
func (sc *SimContext) ID() ids.SimID { return sc.id }

func (sc *SimContext) proc(pid ids.ProcID) *procInfo {
	pi := sc.processes[pid]
	if pi == nil {
		panic(fmt.Sprintf("simctx: unknown process %s", pid))
	}
	return pi
}

// HasProcess reports whether pid names a live (non-reaped) process,
// zombie or otherwise.
func (sc *SimContext) HasProcess(pid ids.ProcID) bool {
	_, ok := sc.processes[pid]
	return ok
}

// Wake returns the Event a caller should Wait() on, after unlocking the
// registry, once it has registered a pending operation for pid.
func (sc *SimContext) Wake(pid ids.ProcID) event.Event {
	return sc.proc(pid).wake
}

// RegisterProcess allocates a new ProcID for a child of parent,
// inheriting the given fds, and returns it. It does not spawn anything;
// the caller (which owns the dynamic loader) is responsible for
// starting the OS thread that will run the child's entry point under
// this id.
func (sc *SimContext) RegisterProcess(parent ids.ProcID, inheritedFds []ids.Fd) (ids.ProcID, int) {
	if len(sc.processes) >= constants.MaxProcesses {
		return 0, constants.MaxVMsSpawned
	}
	pid := ids.ProcID(sc.pidCounter.Next())
	open := make(map[ids.Fd]bool, len(inheritedFds))
	for _, fd := range inheritedFds {
		open[fd] = true
	}
	sc.processes[pid] = &procInfo{
		parentID:     parent,
		inheritedFds: append([]ids.Fd(nil), inheritedFds...),
		openFds:      open,
		wake:         event.New(),
	}
	return pid, constants.Success
}

// InheritedFds returns the fd list pid was spawned with.
func (sc *SimContext) InheritedFds(pid ids.ProcID) []ids.Fd {
	return sc.proc(pid).inheritedFds
}

// NotifyParentAlive wakes child's parent once child's OS thread has
// actually started running, so spawn_cell can block until the child is
// observably alive before returning to the caller.
func (sc *SimContext) NotifyParentAlive(child ids.ProcID) {
	sc.proc(sc.ParentOf(child)).wake.Notify()
}

// ParentOf returns pid's parent.
func (sc *SimContext) ParentOf(pid ids.ProcID) ids.ProcID {
	return sc.proc(pid).parentID
}

// Exit marks pid as a zombie carrying exitCode, closes every fd it
// still holds open (waking any peer blocked on them) and runs the
// scheduler to completion so a parent already blocked in Wait can be
// satisfied.
func (sc *SimContext) Exit(pid ids.ProcID, exitCode int8) {
	pi := sc.proc(pid)
	for fd := range pi.openFds {
		sc.forceClose(pid, fd)
	}
	pi.isZombie = true
	pi.zombieCode = exitCode
	sc.RunToQuiescence()
}

// reap removes a zombie process's record once its exit code has been
// delivered to a waiter.
func (sc *SimContext) reap(pid ids.ProcID) {
	delete(sc.processes, pid)
}

// HasFd reports whether fd currently names an open pipe endpoint.
func (sc *SimContext) HasFd(fd ids.Fd) bool { return sc.fdOpen[fd] }

// OtherEndOpen reports whether fd's peer endpoint is still open.
func (sc *SimContext) OtherEndOpen(fd ids.Fd) bool { return sc.fdOpen[fd.Other()] }

// NewPipe allocates a fresh (read, write) fd pair owned by pid.
func (sc *SimContext) NewPipe(pid ids.ProcID) (r, w ids.Fd, errCode int) {
	openPipes := 0
	for fd, open := range sc.fdOpen {
		if open && fd.IsRead() {
			openPipes++
		}
	}
	if openPipes*2 >= constants.MaxFds {
		return 0, 0, constants.MaxFdsCreated
	}
	r = ids.Fd(sc.fdCounter.Next())
	w = ids.Fd(sc.fdCounter.Next())
	sc.fdOpen[r] = true
	sc.fdOpen[w] = true
	pi := sc.proc(pid)
	pi.openFds[r] = true
	pi.openFds[w] = true
	return r, w, constants.Success
}

// MovePipe transfers fd's presence in from's open-fd set to to's,
// without affecting global open/closed state. Used when a spawned
// child is handed fds its parent created.
func (sc *SimContext) MovePipe(fd ids.Fd, from, to ids.ProcID) {
	if pi := sc.processes[from]; pi != nil {
		delete(pi.openFds, fd)
	}
	sc.proc(to).openFds[fd] = true
}

// forceClose closes fd immediately (no rendezvous), used by Exit and by
// CloseAll. It still wakes any peer blocked waiting on fd.
func (sc *SimContext) forceClose(pid ids.ProcID, fd ids.Fd) {
	if !sc.fdOpen[fd] {
		return
	}
	sc.fdOpen[fd] = false
	delete(sc.proc(pid).openFds, fd)
	delete(sc.readable, fd)
}

// CloseAll force-closes every fd pid still holds open, as on process
// exit or abnormal termination.
func (sc *SimContext) CloseAll(pid ids.ProcID) {
	pi := sc.proc(pid)
	for fd := range pi.openFds {
		sc.forceClose(pid, fd)
	}
	sc.RunToQuiescence()
}
