package main

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/constants"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/loader"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/registry"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/simlog"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/threadctx"
	"github.com/ckblabs/ckb-x64-simulator-go/pkg/ids"
)

// recovered wraps a cgo-exported handler so a panicking internal
// invariant violation is logged with the simulator's own logger before
// crossing back into C, which would otherwise abort the process with
// no diagnosable message at all. It always re-panics: an invariant
// violation is a host bug, not something a guest can recover from.
func recovered(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			simlog.Errorf("panic in %s: %v", name, r)
			traceErrorf("%s panicked: %v", name, r)
			panic(r)
		}
	}()
	fn()
}

//export ckb_pipe
func ckb_pipe(fds *C.uint64_t) C.int {
	var result C.int
	recovered("ckb_pipe", func() {
		sim, proc := callerContext()
		reg := registry.Global()
		reg.Lock()
		defer reg.Unlock()
		sc := reg.MustGet(sim)

		r, w, errCode := sc.NewPipe(proc)
		if errCode != constants.Success {
			result = C.int(errCode)
			return
		}
		out := (*[2]C.uint64_t)(unsafe.Pointer(fds))
		out[0] = C.uint64_t(r)
		out[1] = C.uint64_t(w)
		tracef("pipe: sim=%s proc=%s -> r=%s w=%s", sim, proc, r, w)
		result = C.int(constants.Success)
	})
	return result
}

//export ckb_close
func ckb_close(fd C.uint64_t) C.int {
	var result C.int
	recovered("ckb_close", func() {
		sim, proc := callerContext()
		f := ids.Fd(uint64(fd))

		reg := registry.Global()
		reg.Lock()
		sc := reg.MustGet(sim)
		if !sc.HasFd(f) {
			reg.Unlock()
			result = C.int(constants.InvalidFd)
			return
		}
		sc.BeginClose(proc, f)
		sc.RunToQuiescence()
		ev := sc.Wake(proc)
		reg.Unlock()

		ev.Wait()

		reg.Lock()
		res := sc.TakeClose(proc)
		reg.Unlock()
		result = C.int(res.ErrCode)
	})
	return result
}

//export ckb_read
func ckb_read(fd C.uint64_t, buf unsafe.Pointer, length *C.size_t) C.int {
	var result C.int
	recovered("ckb_read", func() {
		sim, proc := callerContext()
		f := ids.Fd(uint64(fd))
		if !f.IsRead() {
			result = C.int(constants.InvalidFd)
			return
		}

		reg := registry.Global()
		reg.Lock()
		sc := reg.MustGet(sim)
		if !sc.HasFd(f) {
			reg.Unlock()
			result = C.int(constants.InvalidFd)
			return
		}
		if !sc.OtherEndOpen(f) {
			reg.Unlock()
			result = C.int(constants.OtherEndClosed)
			return
		}
		want := int(*length)
		sc.BeginRead(proc, f, want)
		sc.RunToQuiescence()
		ev := sc.Wake(proc)
		reg.Unlock()

		ev.Wait()

		reg.Lock()
		res := sc.TakeRead(proc)
		reg.Unlock()

		if res.ErrCode != constants.Success {
			result = C.int(res.ErrCode)
			return
		}
		n := len(res.Data)
		if n > want {
			n = want
		}
		if n > 0 {
			dst := unsafe.Slice((*byte)(buf), want)
			copy(dst, res.Data[:n])
		}
		*length = C.size_t(n)
		result = C.int(constants.Success)
	})
	return result
}

//export ckb_write
func ckb_write(fd C.uint64_t, buf unsafe.Pointer, length *C.size_t) C.int {
	var result C.int
	recovered("ckb_write", func() {
		sim, proc := callerContext()
		f := ids.Fd(uint64(fd))
		if !f.IsWrite() {
			result = C.int(constants.InvalidFd)
			return
		}

		reg := registry.Global()
		reg.Lock()
		sc := reg.MustGet(sim)
		if !sc.HasFd(f) {
			reg.Unlock()
			result = C.int(constants.InvalidFd)
			return
		}
		if !sc.OtherEndOpen(f) {
			reg.Unlock()
			result = C.int(constants.OtherEndClosed)
			return
		}
		n := int(*length)
		var data []byte
		if n > 0 {
			data = append([]byte(nil), unsafe.Slice((*byte)(buf), n)...)
		}
		sc.BeginWrite(proc, f, data)
		sc.RunToQuiescence()
		ev := sc.Wake(proc)
		reg.Unlock()

		ev.Wait()

		reg.Lock()
		res := sc.TakeWrite(proc)
		reg.Unlock()

		if res.ErrCode == constants.Success {
			*length = C.size_t(n)
		}
		result = C.int(res.ErrCode)
	})
	return result
}

//export ckb_wait
func ckb_wait(pid C.uint64_t, code *C.int8_t) C.int {
	var result C.int
	recovered("ckb_wait", func() {
		sim, proc := callerContext()
		child := ids.ProcID(uint64(pid))

		reg := registry.Global()
		reg.Lock()
		sc := reg.MustGet(sim)
		if !sc.HasProcess(child) {
			reg.Unlock()
			result = C.int(constants.WaitFailure)
			return
		}
		sc.BeginWait(proc, child)
		sc.RunToQuiescence()
		ev := sc.Wake(proc)
		reg.Unlock()

		ev.Wait()

		reg.Lock()
		res := sc.TakeWait(proc)
		reg.Unlock()

		if res.ErrCode == constants.Success {
			*code = C.int8_t(res.ExitCode)
		}
		result = C.int(res.ErrCode)
	})
	return result
}

//export ckb_process_id
func ckb_process_id() C.uint64_t {
	_, proc := callerContext()
	return C.uint64_t(proc)
}

//export ckb_inherited_fds
func ckb_inherited_fds(fds *C.uint64_t, length *C.size_t) C.int {
	var result C.int
	recovered("ckb_inherited_fds", func() {
		sim, proc := callerContext()
		reg := registry.Global()
		reg.Lock()
		sc := reg.MustGet(sim)
		all := sc.InheritedFds(proc)
		reg.Unlock()

		n := len(all)
		if want := int(*length); n > want {
			n = want
		}
		if n > 0 {
			out := unsafe.Slice(fds, n)
			for i := 0; i < n; i++ {
				out[i] = C.uint64_t(all[i])
			}
		}
		*length = C.size_t(n)
		result = C.int(constants.Success)
	})
	return result
}

//export ckb_spawn_cell
func ckb_spawn_cell(codeHash *C.uint8_t, hashType C.uint8_t, offset, length C.uint32_t, argc C.int32_t, argv **C.char, inheritedFds *C.uint64_t, pidOut *C.uint64_t) C.int {
	var result C.int
	recovered("ckb_spawn_cell", func() {
		mustLoadState()
		assertVMVersion()

		sim, parent := callerContext()

		var hash [32]byte
		copy(hash[:], unsafe.Slice((*byte)(unsafe.Pointer(codeHash)), 32))
		path, ok := setup.ResolveBinary(hash, byte(hashType), uint32(offset), uint32(length))
		if !ok {
			result = C.int(constants.ItemMissing)
			return
		}

		var fdList []ids.Fd
		if inheritedFds != nil {
			for p := inheritedFds; *p != 0; p = (*C.uint64_t)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) + unsafe.Sizeof(*p))) {
				fdList = append(fdList, ids.Fd(uint64(*p)))
			}
		}
		args := cStringArray(argv, int(argc))

		reg := registry.Global()
		reg.Lock()
		sc := reg.MustGet(sim)

		for _, fd := range fdList {
			if !sc.HasFd(fd) {
				reg.Unlock()
				result = C.int(constants.InvalidFd)
				return
			}
			if !sc.OtherEndOpen(fd) {
				reg.Unlock()
				result = C.int(constants.InvalidFd)
				return
			}
		}

		child, errCode := sc.RegisterProcess(parent, fdList)
		if errCode != constants.Success {
			reg.Unlock()
			result = C.int(errCode)
			return
		}
		for _, fd := range fdList {
			sc.MovePipe(fd, parent, child)
		}
		registryPtr := reg.RawPointer()
		parentAlive := sc.Wake(parent)
		reg.Unlock()

		lib, err := loader.Open(path)
		if err != nil {
			simlog.Errorf("spawn_cell: %v", err)
			result = C.int(constants.ItemMissing)
			return
		}

		go func() {
			runtimeLockAndRun(sim, child, registryPtr, lib, args)
		}()

		// Block until the child's OS thread has actually started
		// running, so the child is observably alive before this call
		// returns to the caller.
		parentAlive.Wait()

		*pidOut = C.uint64_t(child)
		tracef("spawn_cell: sim=%s parent=%s -> child=%s path=%s", sim, parent, child, path)
		result = C.int(constants.Success)
	})
	return result
}

//export ckb_load_block_extension
func ckb_load_block_extension(addr unsafe.Pointer, length *C.uint64_t, offset, index, source C.size_t) C.int {
	panic("hostabi: ckb_load_block_extension is not implemented by this simulator")
}

func cStringArray(argv **C.char, argc int) []string {
	if argv == nil || argc == 0 {
		return nil
	}
	ptrs := unsafe.Slice(argv, argc)
	out := make([]string, argc)
	for i, p := range ptrs {
		out[i] = C.GoString(p)
	}
	return out
}
