package main

import (
	"runtime"
	"unsafe"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/loader"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/registry"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/simlog"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/threadctx"
	"github.com/ckblabs/ckb-x64-simulator-go/pkg/ids"
)

// runtimeLockAndRun is the body of one simulated process: it pins the
// calling goroutine to its own OS thread for the process's whole
// lifetime (so "thread-per-process" is literal, and so the guest's
// syscall callbacks land on a thread whose threadctx identity never
// changes underneath them), tells the parent the child is alive, hands
// the already-opened guest library the host registry pointer, and runs
// its entry point to completion.
func runtimeLockAndRun(sim ids.SimID, proc ids.ProcID, registryPtr unsafe.Pointer, lib *loader.Library, args []string) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	threadctx.Set(sim, proc)
	defer threadctx.Clear()

	reg := registry.Global()
	reg.Lock()
	reg.MustGet(sim).NotifyParentAlive(proc)
	reg.Unlock()

	if err := lib.SetScriptInfo(registryPtr, uint64(sim), uint64(proc)); err != nil {
		simlog.Errorf("proc %s: set_script_info failed: %v", proc, err)
	}

	run := func() (int8, error) { return lib.RunMain(args) }
	if loader.DebugPTYEnabled() {
		run = func() (int8, error) { return loader.WithDebugPTY(func() (int8, error) { return lib.RunMain(args) }) }
	}

	code, err := run()
	if err != nil {
		simlog.Errorf("proc %s: %v", proc, err)
		code = -1
	}

	reg.Lock()
	sc := reg.MustGet(sim)
	sc.Exit(proc, code)
	reg.Unlock()

	tracef("proc %s exited with code %d", proc, code)
}
