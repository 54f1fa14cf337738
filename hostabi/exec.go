package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"bytes"
	"os"
	"runtime"
	"syscall"
	"unsafe"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/config"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/constants"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/loader"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/registry"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/simlog"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/threadctx"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/txmodel"
)

//export ckb_exit
func ckb_exit(code C.int8_t) C.int32_t {
	os.Exit(int(int8(code)))
	return 0 // unreachable
}

//export ckb_vm_version
func ckb_vm_version() C.int32_t {
	var result C.int32_t
	recovered("ckb_vm_version", func() {
		mustLoadState()
		assertVMVersion()
		result = C.int32_t(setup.VMVersion)
	})
	return result
}

//export ckb_current_cycles
func ckb_current_cycles() C.uint64_t {
	var result C.uint64_t
	recovered("ckb_current_cycles", func() {
		mustLoadState()
		assertVMVersion()
		result = C.uint64_t(constants.CurrentCyclesPlaceholder)
	})
	return result
}

//export ckb_debug
func ckb_debug(s *C.char) {
	simlog.Infof("[contract debug] %s", C.GoString(s))
}

//export ckb_exec_cell
func ckb_exec_cell(codeHash *C.uint8_t, hashType C.uint8_t, offset, length C.uint32_t, argc C.int32_t, argv **C.char) C.int32_t {
	var result C.int32_t
	recovered("ckb_exec_cell", func() {
		mustLoadState()
		assertVMVersion()

		var hash [32]byte
		copy(hash[:], unsafe.Slice((*byte)(unsafe.Pointer(codeHash)), 32))
		path, ok := setup.ResolveBinary(hash, byte(hashType), uint32(offset), uint32(length))
		if !ok {
			simlog.Fatalf("ckb_exec_cell: cannot locate native binary for code hash %x", hash)
		}
		args := cStringArray(argv, int(argc))

		switch setup.RunType {
		case config.RunDynamicLib:
			result = C.int32_t(execDynamicLib(path, args))
		default:
			result = C.int32_t(execExecutable(path, args))
		}
	})
	return result
}

// execExecutable replaces the current process image, mirroring the
// Rust original's libc::execvp call for RunType::Executable.
func execExecutable(path string, args []string) int32 {
	argv := append([]string{path}, args...)
	if err := syscall.Exec(path, argv, os.Environ()); err != nil {
		simlog.Errorf("ckb_exec_cell: execvp %s failed: %v", path, err)
		return -1
	}
	return 0 // unreachable on success
}

// execDynamicLib spawns a fresh simulated process under a new
// simulation (the Rust original starts a brand new SimContext for an
// exec'd dynamic library), runs it to completion synchronously, and
// returns its exit code.
func execDynamicLib(path string, args []string) int32 {
	reg := registry.Global()
	reg.Lock()
	simID, sc := reg.Create()
	child, _ := sc.RegisterProcess(0, nil)
	registryPtr := reg.RawPointer()
	reg.Unlock()

	lib, err := loader.Open(path)
	if err != nil {
		simlog.Errorf("ckb_exec_cell: %v", err)
		reg.Lock()
		reg.Clean(simID)
		reg.Unlock()
		return -1
	}

	done := make(chan int8, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		threadctx.Set(simID, child)
		defer threadctx.Clear()

		if err := lib.SetScriptInfo(registryPtr, uint64(simID), uint64(child)); err != nil {
			simlog.Errorf("exec dynamiclib: set_script_info: %v", err)
		}
		code, err := lib.RunMain(args)
		if err != nil {
			simlog.Errorf("exec dynamiclib: %v", err)
			code = -1
		}
		done <- code
	}()

	code := <-done

	reg.Lock()
	reg.Clean(simID)
	reg.Unlock()
	return int32(code)
}

//export ckb_dlopen2
func ckb_dlopen2(depCellHash *C.uint8_t, hashType C.uint8_t, alignedAddr unsafe.Pointer, alignedSize C.uint64_t, handle *unsafe.Pointer, consumedSize *C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_dlopen2", func() {
		mustLoadState()

		var hash [32]byte
		copy(hash[:], unsafe.Slice((*byte)(unsafe.Pointer(depCellHash)), 32))
		key := config.DlopenKey(hash, byte(hashType))
		path, ok := setup.NativeBinaries[key]
		if !ok {
			simlog.Fatalf("ckb_dlopen2: cannot locate native binary for dep cell hash %x", hash)
		}
		if cellDep := findCellDepByHash(hash, byte(hashType)); cellDep == nil {
			simlog.Fatalf("ckb_dlopen2: cannot locate cell dep for hash %x", hash)
		}

		lib, err := loader.Open(path)
		if err != nil {
			simlog.Errorf("ckb_dlopen2: %v", err)
			result = C.int32_t(constants.ItemMissing)
			return
		}
		*handle = lib.Handle()
		*consumedSize = alignedSize
		result = C.int32_t(constants.Success)
	})
	return result
}

func findCellDepByHash(hash [32]byte, hashType byte) *txmodel.MockCellDep {
	for i := range tx.MockInfo.CellDeps {
		cd := &tx.MockInfo.CellDeps[i]
		var h [32]byte
		if hashType == 1 {
			if cd.Output.Type == nil {
				continue
			}
			h = cd.Output.Type.Hash()
		} else {
			h = txmodel.DataHash(cd.Data)
		}
		if bytes.Equal(h[:], hash[:]) {
			return cd
		}
	}
	return nil
}
