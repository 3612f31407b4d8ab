package pathinfo

import (
	"encoding/json"
	"testing"
)

func TestNewIsRegularFile(t *testing.T) {
	pi := New()
	if len(pi.PathID) != IDLength {
		t.Fatalf("path_id length = %d, want %d", len(pi.PathID), IDLength)
	}
	if len(pi.Key) != KeySize || len(pi.IV) != IVSize {
		t.Fatalf("key/iv size = %d/%d, want %d/%d", len(pi.Key), len(pi.IV), KeySize, IVSize)
	}
	if pi.IsDirLike() {
		t.Fatal("New() should not be dir-like")
	}
}

func TestNewIDOnlyIsDirLike(t *testing.T) {
	pi := NewIDOnly()
	if !pi.IsDirLike() {
		t.Fatal("NewIDOnly() should be dir-like")
	}
	if pi.LinkTo != "" {
		t.Fatal("NewIDOnly() should have no link target")
	}
}

func TestNewSymlinkCarriesTarget(t *testing.T) {
	pi := NewSymlink("/a/b")
	if pi.LinkTo != "/a/b" {
		t.Fatalf("LinkTo = %q, want /a/b", pi.LinkTo)
	}
	if pi.IsDirLike() {
		t.Fatal("symlink should carry key material like a regular file")
	}
}

func TestDictRoundTrip(t *testing.T) {
	pi := NewSymlink("/x")
	blob, err := json.Marshal(pi.ToDict())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(blob, &raw); err != nil {
		t.Fatal(err)
	}
	got, err := FromDict(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.PathID != pi.PathID || got.LinkTo != pi.LinkTo {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, pi)
	}
	if string(got.Key) != string(pi.Key) || string(got.IV) != string(pi.IV) {
		t.Fatal("key/iv round trip mismatch")
	}
}

func TestEqualityByPathID(t *testing.T) {
	a := New()
	b := a
	b.Key = nil // mutate everything but the id
	if a.PathID != b.PathID {
		t.Fatal("expected same path_id")
	}
}
