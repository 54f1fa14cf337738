package txmodel

import (
	"testing"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/constants"
)

func testTransaction() *Transaction {
	lockA := Script{CodeHash: [32]byte{0xA}, HashType: 0, Args: []byte("a")}
	lockB := Script{CodeHash: [32]byte{0xB}, HashType: 0, Args: []byte("b")}

	return &Transaction{
		Raw: RawTransaction{
			Outputs: []CellOutput{
				{Capacity: 100, Lock: lockA},
				{Capacity: 200, Lock: lockB},
			},
			OutputsData: [][]byte{[]byte("out0"), []byte("out1")},
		},
		Witnesses: [][]byte{[]byte("w0"), []byte("w1")},
		MockInfo: MockInfo{
			Inputs: []MockCellInput{
				{Output: CellOutput{Capacity: 10, Lock: lockA}, Data: []byte("in0")},
				{Output: CellOutput{Capacity: 20, Lock: lockB}, Data: []byte("in1")},
			},
		},
	}
}

func TestFetchCellBySource(t *testing.T) {
	tx := testTransaction()
	info := ScriptInfo{IsLockScript: true, ScriptIndex: 0}

	cell, code := tx.FetchCell(0, constants.SourceInput, info)
	if code != constants.Success || string(cell.Data) != "in0" {
		t.Fatalf("SourceInput: code=%d cell=%+v", code, cell)
	}

	cell, code = tx.FetchCell(1, constants.SourceOutput, info)
	if code != constants.Success || string(cell.Data) != "out1" {
		t.Fatalf("SourceOutput: code=%d cell=%+v", code, cell)
	}

	_, code = tx.FetchCell(5, constants.SourceInput, info)
	if code != constants.IndexOutOfBound {
		t.Fatalf("expected IndexOutOfBound for an out-of-range index, got %d", code)
	}
}

func TestFetchGroupIndicesMatchCurrentLockScript(t *testing.T) {
	tx := testTransaction()
	// Running as the lock script of input 0, whose lock is lockA; only
	// input 0 among the inputs shares that lock. Output 0 carries lockA
	// as well, but that does not put it in the group (see below).
	info := ScriptInfo{IsLockScript: true, IsOutput: false, ScriptIndex: 0}

	inputs, outputs := tx.FetchGroupIndices(info)
	if len(inputs) != 1 || inputs[0] != 0 {
		t.Fatalf("expected group input [0], got %v", inputs)
	}
	if len(outputs) != 0 {
		// Outputs only group by type script, not lock script; neither
		// output here carries a type script.
		t.Fatalf("expected no group outputs for a lock-script group, got %v", outputs)
	}
}

func TestFetchCellGroupInputUsesGroupIndices(t *testing.T) {
	tx := testTransaction()
	info := ScriptInfo{IsLockScript: true, ScriptIndex: 1} // running as input 1's lock (lockB)

	cell, code := tx.FetchCell(0, constants.SourceGroupInput, info)
	if code != constants.Success || string(cell.Data) != "in1" {
		t.Fatalf("expected group input 0 to resolve to input 1 (lockB), got code=%d cell=%+v", code, cell)
	}

	_, code = tx.FetchCell(1, constants.SourceGroupInput, info)
	if code != constants.IndexOutOfBound {
		t.Fatalf("expected only one match in the lockB group, got code %d", code)
	}
}

func TestFetchWitnessBySource(t *testing.T) {
	tx := testTransaction()
	info := ScriptInfo{IsLockScript: true, ScriptIndex: 0}

	w, ok := tx.FetchWitness(1, constants.SourceInput, info)
	if !ok || string(w) != "w1" {
		t.Fatalf("FetchWitness(SourceInput): ok=%v w=%q", ok, w)
	}

	_, ok = tx.FetchWitness(99, constants.SourceInput, info)
	if ok {
		t.Fatalf("expected FetchWitness to fail for an out-of-range index")
	}
}

func TestFetchCurrentScriptResolvesLockScript(t *testing.T) {
	tx := testTransaction()

	lock := tx.FetchCurrentScript(ScriptInfo{IsLockScript: true, ScriptIndex: 1})
	if lock.Args[0] != 'b' {
		t.Fatalf("expected input 1's lock script (args=\"b\"), got %+v", lock)
	}
}

func TestFetchCurrentScriptPanicsWithoutTypeScript(t *testing.T) {
	tx := testTransaction()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic resolving a type script on a cell with none")
		}
	}()
	tx.FetchCurrentScript(ScriptInfo{IsLockScript: false, ScriptIndex: 0})
}
