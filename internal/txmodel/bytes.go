package txmodel

import "encoding/binary"

// Bytes returns a canonical, deterministic encoding of the script. As
// with the hash functions in hash.go, this does not reproduce the real
// chain's Molecule wire format byte-for-byte (see DESIGN.md); it only
// needs to be stable within one run, since load_script and friends
// exist so a guest can inspect fields of its own input, not to trade
// bytes with a real node.
func (s Script) Bytes() []byte {
	var buf []byte
	buf = append(buf, s.CodeHash[:]...)
	buf = append(buf, s.HashType)
	buf = append(buf, lenPrefixed(s.Args)...)
	return buf
}

// Bytes returns a canonical encoding of the cell output.
func (c CellOutput) Bytes() []byte {
	var buf []byte
	b8 := make([]byte, 8)
	binary.LittleEndian.PutUint64(b8, c.Capacity)
	buf = append(buf, b8...)
	buf = append(buf, lenPrefixed(c.Lock.Bytes())...)
	if c.Type != nil {
		buf = append(buf, 1)
		buf = append(buf, lenPrefixed(c.Type.Bytes())...)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

// Bytes returns a canonical encoding of the cell input.
func (in CellInput) Bytes() []byte {
	var buf []byte
	b8 := make([]byte, 8)
	binary.LittleEndian.PutUint64(b8, in.Since)
	buf = append(buf, b8...)
	buf = append(buf, in.PreviousOutput.TxHash[:]...)
	b4 := make([]byte, 4)
	binary.LittleEndian.PutUint32(b4, in.PreviousOutput.Index)
	buf = append(buf, b4...)
	return buf
}

// Bytes returns a canonical encoding of the header.
func (h Header) Bytes() []byte {
	var buf []byte
	buf = append(buf, h.Hash[:]...)
	b8 := make([]byte, 8)
	binary.LittleEndian.PutUint64(b8, h.Number)
	buf = append(buf, b8...)
	binary.LittleEndian.PutUint64(b8, h.Epoch.Number)
	buf = append(buf, b8...)
	binary.LittleEndian.PutUint64(b8, h.Epoch.Index)
	buf = append(buf, b8...)
	binary.LittleEndian.PutUint64(b8, h.Epoch.Length)
	buf = append(buf, b8...)
	return buf
}

// Bytes returns a canonical encoding of the whole transaction,
// including witnesses, matching what ckb_load_transaction exposes.
func (t Transaction) Bytes() []byte {
	var buf []byte
	b4 := make([]byte, 4)
	binary.LittleEndian.PutUint32(b4, t.Raw.Version)
	buf = append(buf, b4...)
	for _, op := range t.Raw.CellDeps {
		buf = append(buf, op.TxHash[:]...)
		binary.LittleEndian.PutUint32(b4, op.Index)
		buf = append(buf, b4...)
	}
	for _, h := range t.Raw.HeaderDeps {
		buf = append(buf, h[:]...)
	}
	for _, in := range t.Raw.Inputs {
		buf = append(buf, lenPrefixed(in.Bytes())...)
	}
	for _, out := range t.Raw.Outputs {
		buf = append(buf, lenPrefixed(out.Bytes())...)
	}
	for _, d := range t.Raw.OutputsData {
		buf = append(buf, lenPrefixed(d)...)
	}
	for _, w := range t.Witnesses {
		buf = append(buf, lenPrefixed(w)...)
	}
	return buf
}
