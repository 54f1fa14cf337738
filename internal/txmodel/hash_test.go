package txmodel

import (
	"bytes"
	"testing"
)

func TestScriptHashIsDeterministicAndArgsSensitive(t *testing.T) {
	s1 := Script{CodeHash: [32]byte{1}, HashType: 1, Args: []byte("a")}
	s2 := Script{CodeHash: [32]byte{1}, HashType: 1, Args: []byte("a")}
	s3 := Script{CodeHash: [32]byte{1}, HashType: 1, Args: []byte("b")}

	h1 := s1.Hash()
	h2 := s2.Hash()
	h3 := s3.Hash()

	if !bytes.Equal(h1[:], h2[:]) {
		t.Fatalf("identical scripts hashed differently: %x vs %x", h1, h2)
	}
	if bytes.Equal(h1[:], h3[:]) {
		t.Fatalf("scripts differing only in args hashed the same: %x", h1)
	}
}

func TestDataHashIsDeterministicAndInputSensitive(t *testing.T) {
	data := []byte("contract bytes")
	h1 := DataHash(data)
	h2 := DataHash(append([]byte(nil), data...))
	if !bytes.Equal(h1[:], h2[:]) {
		t.Fatalf("DataHash not deterministic: %x vs %x", h1, h2)
	}

	other := DataHash([]byte("different bytes"))
	if bytes.Equal(h1[:], other[:]) {
		t.Fatalf("DataHash collided for different inputs")
	}
}

func TestTxHashIgnoresWitnesses(t *testing.T) {
	base := RawTransaction{
		Version: 0,
		Outputs: []CellOutput{{Capacity: 100, Lock: Script{HashType: 0}}},
		OutputsData: [][]byte{
			[]byte("data"),
		},
	}
	t1 := Transaction{Raw: base, Witnesses: [][]byte{[]byte("w1")}}
	t2 := Transaction{Raw: base, Witnesses: [][]byte{[]byte("w2"), []byte("w3")}}

	h1 := t1.TxHash()
	h2 := t2.TxHash()
	if !bytes.Equal(h1[:], h2[:]) {
		t.Fatalf("tx hash changed with witnesses, want it to depend only on Raw: %x vs %x", h1, h2)
	}
}

func TestTxHashSensitiveToOutputs(t *testing.T) {
	raw1 := RawTransaction{Outputs: []CellOutput{{Capacity: 100}}, OutputsData: [][]byte{nil}}
	raw2 := RawTransaction{Outputs: []CellOutput{{Capacity: 200}}, OutputsData: [][]byte{nil}}

	h1 := (Transaction{Raw: raw1}).TxHash()
	h2 := (Transaction{Raw: raw2}).TxHash()
	if bytes.Equal(h1[:], h2[:]) {
		t.Fatalf("transactions with different output capacities hashed the same")
	}
}
