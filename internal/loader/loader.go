// Package loader dynamically loads a compiled guest contract and calls
// into its entry points. It is the one place outside hostabi itself
// where this module talks to arbitrary native code, grounded on the
// teacher's own cgo binding for an external native library
// (src/minimega/readline.go's dlopen-equivalent use of a C LDFLAGS
// binding), generalized here from a fixed link-time dependency to a
// runtime dlopen/dlsym pair since the guest path is only known once the
// mock transaction and running setup are loaded.
package loader

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef int8_t (*ckb_std_main_fn)(int32_t argc, char **argv);
typedef void (*set_script_info_fn)(void *registry_ptr, uint64_t sim_id, uint64_t proc_id);

static void *ckbsim_dlopen(const char *path) {
	return dlopen(path, RTLD_NOW);
}

static void *ckbsim_dlsym(void *handle, const char *name) {
	return dlsym(handle, name);
}

static int8_t ckbsim_call_main(void *fn, int32_t argc, char **argv) {
	return ((ckb_std_main_fn)fn)(argc, argv);
}

static void ckbsim_call_set_info(void *fn, void *registry_ptr, unsigned long long sim_id, unsigned long long proc_id) {
	((set_script_info_fn)fn)(registry_ptr, sim_id, proc_id);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Library is a dlopen'd guest contract, kept open for the lifetime of
// the process that runs it (the real simulator never dlcloses a loaded
// contract, matching the original's own "load once per process" model).
type Library struct {
	handle unsafe.Pointer
	path   string
}

// Handle returns the raw dlopen handle, for syscalls (ckb_dlopen2) that
// hand a loaded library's handle back to the guest directly.
func (l *Library) Handle() unsafe.Pointer { return l.handle }

// Open dlopens path, failing if the file does not exist or is not a
// loadable shared object.
func Open(path string) (*Library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	h := C.ckbsim_dlopen(cpath)
	if h == nil {
		return nil, fmt.Errorf("loader: dlopen %s failed", path)
	}
	return &Library{handle: unsafe.Pointer(h), path: path}, nil
}

// SetScriptInfo calls the guest's __set_script_info export, handing it
// the host registry pointer and the sim/proc ids it should tag its own
// syscalls with, for guests that embed their own copy of this module's
// registry type and need to adopt the host's table.
func (l *Library) SetScriptInfo(registryPtr unsafe.Pointer, simID, procID uint64) error {
	sym := C.CString("__set_script_info")
	defer C.free(unsafe.Pointer(sym))

	fn := C.ckbsim_dlsym(l.handle, sym)
	if fn == nil {
		// Not every guest needs the registry-sharing handshake (a
		// plain native contract with no embedded copy of this
		// module simply will not export it); that is not an error.
		return nil
	}
	C.ckbsim_call_set_info(fn, registryPtr, C.ulonglong(simID), C.ulonglong(procID))
	return nil
}

// RunMain calls the guest's __ckb_std_main(argc, argv) export and
// returns its i8 exit code.
func (l *Library) RunMain(args []string) (int8, error) {
	sym := C.CString("__ckb_std_main")
	defer C.free(unsafe.Pointer(sym))

	fn := C.ckbsim_dlsym(l.handle, sym)
	if fn == nil {
		return 0, fmt.Errorf("loader: %s does not export __ckb_std_main", l.path)
	}

	argv := make([]*C.char, len(args)+1)
	for i, a := range args {
		argv[i] = C.CString(a)
	}
	argv[len(args)] = nil
	defer func() {
		for _, a := range argv[:len(args)] {
			C.free(unsafe.Pointer(a))
		}
	}()

	code := C.ckbsim_call_main(fn, C.int32_t(len(args)), (**C.char)(unsafe.Pointer(&argv[0])))
	return int8(code), nil
}
