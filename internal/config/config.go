// Package config loads CKB_RUNNING_SETUP (which script is running, and
// the native binary registry spawn/exec/dlopen resolve against) and
// builds the registry's lookup keys. The debug/trace toggles
// (CKB_SIM_DEBUG_PTY, CKB_SIM_TRACE_ADDR) are read by internal/loader
// and hostabi, not here.
package config

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/txmodel"
)

// RunType selects how ckb_exec_cell hands off to a resolved binary.
type RunType string

const (
	RunExecutable RunType = "executable"
	RunDynamicLib RunType = "dynamic_lib"
)

// RunningSetup mirrors the CKB_RUNNING_SETUP fixture: which script in
// the mock transaction is "currently executing" and the registry
// mapping binary keys to native library paths on disk.
type RunningSetup struct {
	IsLockScript   bool              `json:"is_lock_script"`
	IsOutput       bool              `json:"is_output"`
	ScriptIndex    uint64            `json:"script_index"`
	VMVersion      int32             `json:"vm_version"`
	NativeBinaries map[string]string `json:"native_binaries"`
	RunType        RunType           `json:"run_type"`
}

// ScriptInfo adapts RunningSetup to the subset of fields txmodel's
// fetch functions need, so txmodel does not depend on this package.
func (s *RunningSetup) ScriptInfo() txmodel.ScriptInfo {
	return txmodel.ScriptInfo{
		IsLockScript: s.IsLockScript,
		IsOutput:     s.IsOutput,
		ScriptIndex:  s.ScriptIndex,
	}
}

// LoadRunningSetup reads and parses the fixture named by the
// CKB_RUNNING_SETUP environment variable.
func LoadRunningSetup() (*RunningSetup, error) {
	path := os.Getenv("CKB_RUNNING_SETUP")
	if path == "" {
		return nil, fmt.Errorf("config: CKB_RUNNING_SETUP is not set")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading CKB_RUNNING_SETUP: %w", err)
	}
	var s RunningSetup
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("config: parsing CKB_RUNNING_SETUP: %w", err)
	}
	if s.RunType == "" {
		s.RunType = RunExecutable
	}
	return &s, nil
}

// BinaryKey builds the "0x" + hex(code_hash || hash_type || offset_be ||
// length_be) key format the native binary registry is indexed by.
func BinaryKey(codeHash [32]byte, hashType byte, offset, length uint32) string {
	buf := make([]byte, 0, 32+1+4+4)
	buf = append(buf, codeHash[:]...)
	buf = append(buf, hashType)
	be := make([]byte, 4)
	binary.BigEndian.PutUint32(be, offset)
	buf = append(buf, be...)
	binary.BigEndian.PutUint32(be, length)
	buf = append(buf, be...)
	return "0x" + hex.EncodeToString(buf)
}

// DlopenKey builds the "0x" + hex(code_hash || hash_type) key format
// ckb_dlopen2 resolves against, which carries no offset/length since a
// dlopen dep cell is addressed by its whole contents.
func DlopenKey(codeHash [32]byte, hashType byte) string {
	buf := make([]byte, 0, 32+1)
	buf = append(buf, codeHash[:]...)
	buf = append(buf, hashType)
	return "0x" + hex.EncodeToString(buf)
}

// ResolveBinary looks up the native library path for (codeHash,
// hashType, offset, length), falling back to a hashType=0xFF wildcard
// entry if no exact-hashType key matches, exactly as the Rust
// original's get_simulator_path does.
func (s *RunningSetup) ResolveBinary(codeHash [32]byte, hashType byte, offset, length uint32) (string, bool) {
	for _, ht := range [2]byte{hashType, 0xFF} {
		key := BinaryKey(codeHash, ht, offset, length)
		if path, ok := s.NativeBinaries[key]; ok {
			return path, true
		}
		if ht == hashType && hashType == 0xFF {
			break // avoid probing the same wildcard key twice
		}
	}
	return "", false
}
