// Package threadctx records which simulation and process a given OS
// thread is currently acting as. A loaded guest library has no Go call
// stack of its own: when it calls back into one of this simulator's
// exported syscalls, the only thing identifying "who is calling" is the
// OS thread the call arrives on. That thread is pinned for the lifetime
// of one simulated process (hostabi locks it with
// runtime.LockOSThread before invoking the guest's entry point), so a C
// thread-local variable is the right place to stash the identity: it
// survives the Go->C->Go round trip that cgo performs when the guest
// calls back into us, which a goroutine-keyed map would not (cgo runs
// each such callback on a fresh goroutine bound to the same OS thread).
package threadctx

/*
static __thread unsigned long long tls_sim_id = 0;
static __thread unsigned long long tls_proc_id = 0;
static __thread int tls_set = 0;

static void threadctx_set(unsigned long long sim, unsigned long long proc) {
	tls_sim_id = sim;
	tls_proc_id = proc;
	tls_set = 1;
}

static unsigned long long threadctx_sim(void) { return tls_sim_id; }
static unsigned long long threadctx_proc(void) { return tls_proc_id; }
static int threadctx_is_set(void) { return tls_set; }
static void threadctx_clear(void) { tls_set = 0; }
*/
import "C"

import "github.com/ckblabs/ckb-x64-simulator-go/pkg/ids"

// Set records that the calling OS thread is now acting as proc within
// sim. Must be called from the exact OS thread that will run the
// guest's entry point (and thus receive its syscall callbacks).
func Set(sim ids.SimID, proc ids.ProcID) {
	C.threadctx_set(C.ulonglong(sim), C.ulonglong(proc))
}

// Clear forgets the calling OS thread's identity. Called once the
// thread's guest entry point has returned and the thread is about to be
// retired.
func Clear() {
	C.threadctx_clear()
}

// Current returns the sim/proc pair last recorded with Set on the
// calling OS thread, and false if Set was never called on it.
func Current() (ids.SimID, ids.ProcID, bool) {
	if C.threadctx_is_set() == 0 {
		return 0, 0, false
	}
	return ids.SimID(C.threadctx_sim()), ids.ProcID(C.threadctx_proc()), true
}
