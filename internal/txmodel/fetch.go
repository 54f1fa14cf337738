package txmodel

import (
	"bytes"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/constants"
)

// Resolved is what FetchCell and friends return: a cell's output plus
// its stored data, if the source/index combination resolves to one.
type Resolved struct {
	Output CellOutput
	Data   []byte
}

// ScriptInfo is the part of CKB_RUNNING_SETUP the fetch functions need
// to know which script is "currently running" and whether it is a lock
// or type script.
type ScriptInfo struct {
	IsLockScript bool
	IsOutput     bool
	ScriptIndex  uint64
}

// FetchCell resolves load_cell's (index, source) pair against tx.
func (t *Transaction) FetchCell(index uint64, source uint64, info ScriptInfo) (Resolved, int) {
	switch source {
	case constants.SourceInput:
		if int(index) >= len(t.MockInfo.Inputs) {
			return Resolved{}, constants.IndexOutOfBound
		}
		in := t.MockInfo.Inputs[index]
		return Resolved{Output: in.Output, Data: in.Data}, constants.Success
	case constants.SourceOutput:
		if int(index) >= len(t.Raw.Outputs) {
			return Resolved{}, constants.IndexOutOfBound
		}
		return Resolved{Output: t.Raw.Outputs[index], Data: t.Raw.OutputsData[index]}, constants.Success
	case constants.SourceCellDep:
		if int(index) >= len(t.MockInfo.CellDeps) {
			return Resolved{}, constants.IndexOutOfBound
		}
		cd := t.MockInfo.CellDeps[index]
		return Resolved{Output: cd.Output, Data: cd.Data}, constants.Success
	case constants.SourceHeaderDep:
		return Resolved{}, constants.IndexOutOfBound
	case constants.SourceGroupInput:
		inputIdx, _ := t.FetchGroupIndices(info)
		if int(index) >= len(inputIdx) {
			return Resolved{}, constants.IndexOutOfBound
		}
		in := t.MockInfo.Inputs[inputIdx[index]]
		return Resolved{Output: in.Output, Data: in.Data}, constants.Success
	case constants.SourceGroupOutput:
		_, outputIdx := t.FetchGroupIndices(info)
		if int(index) >= len(outputIdx) {
			return Resolved{}, constants.IndexOutOfBound
		}
		i := outputIdx[index]
		return Resolved{Output: t.Raw.Outputs[i], Data: t.Raw.OutputsData[i]}, constants.Success
	case constants.SourceGroupCellDep, constants.SourceGroupHeaderDep:
		return Resolved{}, constants.IndexOutOfBound
	default:
		panic("txmodel: invalid source")
	}
}

// FetchInput resolves load_input's (index, source) pair against tx.
func (t *Transaction) FetchInput(index uint64, source uint64, info ScriptInfo) (CellInput, int) {
	switch source {
	case constants.SourceInput:
		if int(index) >= len(t.Raw.Inputs) {
			return CellInput{}, constants.IndexOutOfBound
		}
		return t.Raw.Inputs[index], constants.Success
	case constants.SourceGroupInput:
		inputIdx, _ := t.FetchGroupIndices(info)
		if int(index) >= len(inputIdx) {
			return CellInput{}, constants.IndexOutOfBound
		}
		return t.Raw.Inputs[inputIdx[index]], constants.Success
	default:
		return CellInput{}, constants.IndexOutOfBound
	}
}

// FetchHeader resolves load_header's (index, source) pair against tx.
func (t *Transaction) FetchHeader(index uint64, source uint64, info ScriptInfo) (Header, int) {
	find := func(hash [32]byte) (Header, bool) {
		for _, h := range t.MockInfo.HeaderDeps {
			if h.Hash == hash {
				return h, true
			}
		}
		return Header{}, false
	}
	switch source {
	case constants.SourceInput:
		if int(index) >= len(t.MockInfo.Inputs) {
			return Header{}, constants.IndexOutOfBound
		}
		hh := t.MockInfo.Inputs[index].Header
		if hh == nil {
			return Header{}, constants.IndexOutOfBound
		}
		h, ok := find(*hh)
		if !ok {
			return Header{}, constants.ItemMissing
		}
		return h, constants.Success
	case constants.SourceCellDep:
		if int(index) >= len(t.MockInfo.CellDeps) {
			return Header{}, constants.IndexOutOfBound
		}
		hh := t.MockInfo.CellDeps[index].Header
		if hh == nil {
			return Header{}, constants.IndexOutOfBound
		}
		h, ok := find(*hh)
		if !ok {
			return Header{}, constants.ItemMissing
		}
		return h, constants.Success
	case constants.SourceHeaderDep:
		if int(index) >= len(t.MockInfo.HeaderDeps) {
			return Header{}, constants.IndexOutOfBound
		}
		return t.MockInfo.HeaderDeps[index], constants.Success
	case constants.SourceGroupInput:
		inputIdx, _ := t.FetchGroupIndices(info)
		if int(index) >= len(inputIdx) {
			return Header{}, constants.IndexOutOfBound
		}
		hh := t.MockInfo.Inputs[inputIdx[index]].Header
		if hh == nil {
			return Header{}, constants.IndexOutOfBound
		}
		h, ok := find(*hh)
		if !ok {
			return Header{}, constants.ItemMissing
		}
		return h, constants.Success
	default:
		return Header{}, constants.IndexOutOfBound
	}
}

// FetchWitness resolves load_witness's (index, source) pair against tx.
func (t *Transaction) FetchWitness(index uint64, source uint64, info ScriptInfo) ([]byte, bool) {
	switch source {
	case constants.SourceInput, constants.SourceOutput:
		if int(index) >= len(t.Witnesses) {
			return nil, false
		}
		return t.Witnesses[index], true
	case constants.SourceGroupInput:
		inputIdx, _ := t.FetchGroupIndices(info)
		if int(index) >= len(inputIdx) {
			return nil, false
		}
		i := inputIdx[index]
		if i >= len(t.Witnesses) {
			return nil, false
		}
		return t.Witnesses[i], true
	case constants.SourceGroupOutput:
		_, outputIdx := t.FetchGroupIndices(info)
		if int(index) >= len(outputIdx) {
			return nil, false
		}
		i := outputIdx[index]
		if i >= len(t.Witnesses) {
			return nil, false
		}
		return t.Witnesses[i], true
	default:
		return nil, false
	}
}

// FetchGroupIndices returns, for the currently running script, the
// indices of inputs whose lock (or type, for a type script) script
// matches it exactly, and the indices of outputs whose type script
// matches it exactly. Outputs are never grouped by their lock script.
func (t *Transaction) FetchGroupIndices(info ScriptInfo) (inputs, outputs []int) {
	current := t.FetchCurrentScript(info)
	for i, in := range t.MockInfo.Inputs {
		if info.IsLockScript {
			if scriptEqual(in.Output.Lock, current) {
				inputs = append(inputs, i)
			}
		} else if in.Output.Type != nil && scriptEqual(*in.Output.Type, current) {
			inputs = append(inputs, i)
		}
	}
	for i, out := range t.Raw.Outputs {
		if out.Type != nil && scriptEqual(*out.Type, current) {
			outputs = append(outputs, i)
		}
	}
	return inputs, outputs
}

// FetchCurrentScript returns the lock or type script named by
// CKB_RUNNING_SETUP's script_index/is_output/is_lock_script triple.
func (t *Transaction) FetchCurrentScript(info ScriptInfo) Script {
	var cell CellOutput
	if info.IsOutput {
		cell = t.Raw.Outputs[info.ScriptIndex]
	} else {
		cell = t.MockInfo.Inputs[info.ScriptIndex].Output
	}
	if info.IsLockScript {
		return cell.Lock
	}
	if cell.Type == nil {
		panic("txmodel: running script has no type script")
	}
	return *cell.Type
}

func scriptEqual(a, b Script) bool {
	return a.HashType == b.HashType && bytes.Equal(a.CodeHash[:], b.CodeHash[:]) && bytes.Equal(a.Args, b.Args)
}
