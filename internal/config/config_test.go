package config

import "testing"

func TestBinaryKeyDistinguishesOffsetAndLength(t *testing.T) {
	hash := [32]byte{1, 2, 3}
	k1 := BinaryKey(hash, 0, 0, 100)
	k2 := BinaryKey(hash, 0, 4, 100)
	if k1 == k2 {
		t.Fatalf("BinaryKey did not vary with offset")
	}
	k3 := BinaryKey(hash, 0, 0, 200)
	if k1 == k3 {
		t.Fatalf("BinaryKey did not vary with length")
	}
}

func TestDlopenKeyShorterThanBinaryKey(t *testing.T) {
	hash := [32]byte{1, 2, 3}
	dk := DlopenKey(hash, 0)
	bk := BinaryKey(hash, 0, 0, 0)
	if len(dk) >= len(bk) {
		t.Fatalf("DlopenKey (%d chars) should be shorter than BinaryKey (%d chars): it carries no offset/length", len(dk), len(bk))
	}
}

func TestResolveBinaryExactMatch(t *testing.T) {
	hash := [32]byte{9}
	s := &RunningSetup{NativeBinaries: map[string]string{
		BinaryKey(hash, 1, 0, 0): "/path/to/lib.so",
	}}

	path, ok := s.ResolveBinary(hash, 1, 0, 0)
	if !ok || path != "/path/to/lib.so" {
		t.Fatalf("ResolveBinary exact match: ok=%v path=%q", ok, path)
	}
}

func TestResolveBinaryWildcardFallback(t *testing.T) {
	hash := [32]byte{9}
	s := &RunningSetup{NativeBinaries: map[string]string{
		BinaryKey(hash, 0xFF, 0, 0): "/path/to/wildcard.so",
	}}

	path, ok := s.ResolveBinary(hash, 2, 0, 0)
	if !ok || path != "/path/to/wildcard.so" {
		t.Fatalf("ResolveBinary wildcard fallback: ok=%v path=%q", ok, path)
	}
}

func TestResolveBinaryNoMatch(t *testing.T) {
	hash := [32]byte{9}
	s := &RunningSetup{NativeBinaries: map[string]string{}}

	_, ok := s.ResolveBinary(hash, 0, 0, 0)
	if ok {
		t.Fatalf("expected no match against an empty registry")
	}
}
