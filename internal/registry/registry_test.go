package registry

import (
	"testing"

	"github.com/ckblabs/ckb-x64-simulator-go/pkg/ids"
)

func TestCreateAssignsIncreasingIds(t *testing.T) {
	r := New()

	id1, sc1 := r.Create()
	id2, sc2 := r.Create()

	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %s twice", id1)
	}
	if id2 < id1 {
		t.Fatalf("expected increasing ids, got %s then %s", id1, id2)
	}
	if sc1.ID() != id1 || sc2.ID() != id2 {
		t.Fatalf("SimContext.ID() did not match the id Create returned")
	}
}

func TestGetUnknownReturnsNil(t *testing.T) {
	r := New()
	if sc := r.Get(ids.SimID(999)); sc != nil {
		t.Fatalf("expected nil for an unknown SimID, got %v", sc)
	}
}

func TestMustGetPanicsOnUnknown(t *testing.T) {
	r := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustGet to panic on an unknown SimID")
		}
	}()
	r.MustGet(ids.SimID(999))
}

func TestCleanRemovesContext(t *testing.T) {
	r := New()
	id, _ := r.Create()
	r.Clean(id)
	if sc := r.Get(id); sc != nil {
		t.Fatalf("expected nil after Clean, got %v", sc)
	}
}

func TestInstallPointerRoundTrips(t *testing.T) {
	r := New()
	id, sc := r.Create()

	ptr := r.RawPointer()
	InstallPointer(ptr)
	defer func() { global = New() }() // leave the package-level registry clean for other tests

	if Global().Get(id) != sc {
		t.Fatalf("InstallPointer did not make Global() observe the installed registry's contexts")
	}
}
