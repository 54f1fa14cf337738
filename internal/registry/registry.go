// Package registry is the process-wide map from simulation id to
// simulation state. It is the Go analogue of the Rust simulator's
// GlobalData: a single mutex-guarded table that every syscall handler
// locks for the full duration of its state mutation and scheduler step,
// plus a raw-pointer escape hatch so a guest library that happens to
// embed its own copy of this same registry type can be pointed at the
// host's table instead of keeping a second, disconnected one.
package registry

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/simctx"
	"github.com/ckblabs/ckb-x64-simulator-go/pkg/ids"
)

// Registry owns every live SimContext. The zero value is not usable;
// construct with New.
type Registry struct {
	mu   sync.Mutex
	sims map[ids.SimID]*simctx.SimContext
	next uint64
}

// global is the single process-wide Registry every hostabi syscall
// handler acquires. Tests construct their own Registry; the one test
// that installs a registry over this one replaces it with a fresh
// Registry afterward.
var global = New()

// Global returns the process-wide Registry.
func Global() *Registry { return global }

// New returns an empty Registry.
func New() *Registry {
	return &Registry{sims: make(map[ids.SimID]*simctx.SimContext)}
}

// Lock acquires the registry's single mutex. Every method below assumes
// the caller already holds it; Lock/Unlock are exported separately (not
// folded into each method) so a syscall handler can look up a
// SimContext, mutate it, and run a scheduler step as one atomic section,
// exactly as the Rust handlers run their whole body inside
// GlobalData::locked().
func (r *Registry) Lock() { r.mu.Lock() }

// Unlock releases the registry's mutex.
func (r *Registry) Unlock() { r.mu.Unlock() }

// Create allocates a fresh SimID and an empty SimContext for it. Caller
// must hold the lock.
func (r *Registry) Create() (ids.SimID, *simctx.SimContext) {
	id := ids.SimID(r.next)
	r.next++
	sc := simctx.New()
	sc.SetID(id)
	r.sims[id] = sc
	return id, sc
}

// Get returns the SimContext for id, or nil if none exists. Caller must
// hold the lock.
func (r *Registry) Get(id ids.SimID) *simctx.SimContext {
	return r.sims[id]
}

// MustGet is like Get but panics if id is unknown; used at points where
// an unknown SimID means the host has a bookkeeping bug rather than a
// guest-reachable error.
func (r *Registry) MustGet(id ids.SimID) *simctx.SimContext {
	sc := r.sims[id]
	if sc == nil {
		panic(fmt.Sprintf("registry: no simulation context for %s", id))
	}
	return sc
}

// Clean discards the simulation context for id. Caller must hold the
// lock.
func (r *Registry) Clean(id ids.SimID) {
	delete(r.sims, id)
}

// RawPointer returns an unsafe.Pointer to this Registry, suitable for
// handing to a dynamically loaded guest's __set_script_info so that,
// if the guest embeds its own copy of this package, it can install the
// host's table over its own via InstallPointer instead of running with
// a disconnected registry that would never observe the host's
// processes. Most guests are plain native code with no Go runtime of
// their own and simply ignore this value.
func (r *Registry) RawPointer() unsafe.Pointer {
	return unsafe.Pointer(r)
}

// InstallPointer replaces the package-level Global registry with the
// one living at ptr, a value obtained from another copy of this
// package's RawPointer. It is the receiving end of the handoff
// performed by __set_script_info.
func InstallPointer(ptr unsafe.Pointer) {
	global = (*Registry)(ptr)
}
