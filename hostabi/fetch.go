package main

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/constants"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/txmodel"
)

// outBuf adapts a (ptr, len) pair from the C side into the []byte plus
// *uint64 shape txmodel.StoreData expects.
func outBuf(ptr unsafe.Pointer, length *C.uint64_t) ([]byte, *uint64) {
	size := uint64(*length)
	buf := unsafe.Slice((*byte)(ptr), size)
	sizeOut := new(uint64)
	*sizeOut = size
	return buf, sizeOut
}

func writeBack(length *C.uint64_t, sizeOut *uint64) {
	*length = C.uint64_t(*sizeOut)
}

//export ckb_load_tx_hash
func ckb_load_tx_hash(ptr unsafe.Pointer, length *C.uint64_t, offset C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_tx_hash", func() {
		mustLoadState()
		buf, size := outBuf(ptr, length)
		hash := tx.TxHash()
		txmodel.StoreData(buf, size, uint64(offset), hash[:])
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_transaction
func ckb_load_transaction(ptr unsafe.Pointer, length *C.uint64_t, offset C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_transaction", func() {
		mustLoadState()
		buf, size := outBuf(ptr, length)
		txmodel.StoreData(buf, size, uint64(offset), tx.Bytes())
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_script_hash
func ckb_load_script_hash(ptr unsafe.Pointer, length *C.uint64_t, offset C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_script_hash", func() {
		mustLoadState()
		buf, size := outBuf(ptr, length)
		hash := tx.FetchCurrentScript(setup.ScriptInfo()).Hash()
		txmodel.StoreData(buf, size, uint64(offset), hash[:])
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_script
func ckb_load_script(ptr unsafe.Pointer, length *C.uint64_t, offset C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_script", func() {
		mustLoadState()
		buf, size := outBuf(ptr, length)
		script := tx.FetchCurrentScript(setup.ScriptInfo())
		txmodel.StoreData(buf, size, uint64(offset), script.Bytes())
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_cell
func ckb_load_cell(ptr unsafe.Pointer, length *C.uint64_t, offset, index, source C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_cell", func() {
		mustLoadState()
		cell, code := tx.FetchCell(uint64(index), uint64(source), setup.ScriptInfo())
		if code != constants.Success {
			result = C.int32_t(code)
			return
		}
		buf, size := outBuf(ptr, length)
		txmodel.StoreData(buf, size, uint64(offset), cell.Output.Bytes())
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_input
func ckb_load_input(ptr unsafe.Pointer, length *C.uint64_t, offset, index, source C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_input", func() {
		mustLoadState()
		in, code := tx.FetchInput(uint64(index), uint64(source), setup.ScriptInfo())
		if code != constants.Success {
			result = C.int32_t(code)
			return
		}
		buf, size := outBuf(ptr, length)
		txmodel.StoreData(buf, size, uint64(offset), in.Bytes())
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_header
func ckb_load_header(ptr unsafe.Pointer, length *C.uint64_t, offset, index, source C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_header", func() {
		mustLoadState()
		h, code := tx.FetchHeader(uint64(index), uint64(source), setup.ScriptInfo())
		if code != constants.Success {
			result = C.int32_t(code)
			return
		}
		buf, size := outBuf(ptr, length)
		txmodel.StoreData(buf, size, uint64(offset), h.Bytes())
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_witness
func ckb_load_witness(ptr unsafe.Pointer, length *C.uint64_t, offset, index, source C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_witness", func() {
		mustLoadState()
		w, ok := tx.FetchWitness(uint64(index), uint64(source), setup.ScriptInfo())
		if !ok {
			result = C.int32_t(constants.IndexOutOfBound)
			return
		}
		buf, size := outBuf(ptr, length)
		txmodel.StoreData(buf, size, uint64(offset), w)
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_cell_data
func ckb_load_cell_data(ptr unsafe.Pointer, length *C.uint64_t, offset, index, source C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_cell_data", func() {
		mustLoadState()
		cell, code := tx.FetchCell(uint64(index), uint64(source), setup.ScriptInfo())
		if code != constants.Success {
			result = C.int32_t(code)
			return
		}
		buf, size := outBuf(ptr, length)
		txmodel.StoreData(buf, size, uint64(offset), cell.Data)
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_cell_by_field
func ckb_load_cell_by_field(ptr unsafe.Pointer, length *C.uint64_t, offset, index, source, field C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_cell_by_field", func() {
		mustLoadState()
		cell, code := tx.FetchCell(uint64(index), uint64(source), setup.ScriptInfo())
		if code != constants.Success {
			result = C.int32_t(code)
			return
		}

		var data []byte
		switch uint64(field) {
		case constants.CellFieldCapacity:
			data = leUint64(cell.Output.Capacity)
		case constants.CellFieldDataHash:
			h := txmodel.DataHash(cell.Data)
			data = h[:]
		case constants.CellFieldOccupiedCapacity:
			// Occupied capacity is a real chain rule (cell size in
			// bytes at the minimum byte/CKB ratio); this fixture has
			// no notion of it, so it reports declared capacity.
			data = leUint64(cell.Output.Capacity)
		case constants.CellFieldLock:
			data = cell.Output.Lock.Bytes()
		case constants.CellFieldLockHash:
			h := cell.Output.LockHash()
			data = h[:]
		case constants.CellFieldType:
			if cell.Output.Type == nil {
				result = C.int32_t(constants.ItemMissing)
				return
			}
			data = cell.Output.Type.Bytes()
		case constants.CellFieldTypeHash:
			if cell.Output.Type == nil {
				result = C.int32_t(constants.ItemMissing)
				return
			}
			h := cell.Output.Type.Hash()
			data = h[:]
		default:
			panic("hostabi: invalid cell field")
		}

		buf, size := outBuf(ptr, length)
		txmodel.StoreData(buf, size, uint64(offset), data)
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_header_by_field
func ckb_load_header_by_field(ptr unsafe.Pointer, length *C.uint64_t, offset, index, source, field C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_header_by_field", func() {
		mustLoadState()
		h, code := tx.FetchHeader(uint64(index), uint64(source), setup.ScriptInfo())
		if code != constants.Success {
			result = C.int32_t(code)
			return
		}

		var value uint64
		switch uint64(field) {
		case constants.HeaderFieldEpochNumber:
			value = h.Epoch.Number
		case constants.HeaderFieldEpochStartBlockNumber:
			value = h.Number - h.Epoch.Index
		case constants.HeaderFieldEpochLength:
			value = h.Epoch.Length
		default:
			panic("hostabi: invalid header field")
		}

		buf, size := outBuf(ptr, length)
		txmodel.StoreData(buf, size, uint64(offset), leUint64(value))
		writeBack(length, size)
		result = success
	})
	return result
}

//export ckb_load_input_by_field
func ckb_load_input_by_field(ptr unsafe.Pointer, length *C.uint64_t, offset, index, source, field C.uint64_t) C.int32_t {
	var result C.int32_t
	recovered("ckb_load_input_by_field", func() {
		mustLoadState()
		in, code := tx.FetchInput(uint64(index), uint64(source), setup.ScriptInfo())
		if code != constants.Success {
			result = C.int32_t(code)
			return
		}

		var data []byte
		switch uint64(field) {
		case constants.InputFieldOutPoint:
			b4 := leUint32(in.PreviousOutput.Index)
			data = append(append([]byte{}, in.PreviousOutput.TxHash[:]...), b4...)
		case constants.InputFieldSince:
			data = leUint64(in.Since)
		default:
			panic("hostabi: invalid input field")
		}

		buf, size := outBuf(ptr, length)
		txmodel.StoreData(buf, size, uint64(offset), data)
		writeBack(length, size)
		result = success
	})
	return result
}

func leUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func leUint32(v uint32) []byte {
	b := make([]byte, 4)
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
