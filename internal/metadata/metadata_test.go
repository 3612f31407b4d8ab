package metadata

import (
	"encoding/json"
	"testing"

	"github.com/freyafs/freyafs/internal/ferrors"
	"github.com/freyafs/freyafs/internal/pathinfo"
)

func TestAddFileDefaults(t *testing.T) {
	m := New()
	id := pathinfo.PathID("abc1234567")
	pm := m.AddFile(id, 0, 1000, 1000)

	if pm.Nlink != 1 {
		t.Fatalf("file nlink = %d, want 1", pm.Nlink)
	}
	if pm.Mode&0o170000 != sIFREG {
		t.Fatal("file should carry the regular-file type bit")
	}
	if pm.Mode&0o777 != DefaultMode {
		t.Fatalf("default perm bits = %o, want %o", pm.Mode&0o777, DefaultMode)
	}
}

func TestAddDirNlinkIsTwo(t *testing.T) {
	m := New()
	id := pathinfo.PathID("dir0000001")
	pm := m.AddDir(id, 0, 0, 0)
	if pm.Nlink != 2 {
		t.Fatalf("dir nlink = %d, want 2", pm.Nlink)
	}
}

func TestGetMissing(t *testing.T) {
	m := New()
	if _, err := m.Get("nope"); !ferrors.Is(err, ferrors.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestIncDecNlink(t *testing.T) {
	pm := NewEntry(File, 0, 0, 0)
	pm.IncNlink()
	if pm.Nlink != 2 {
		t.Fatalf("nlink after inc = %d, want 2", pm.Nlink)
	}
	pm.DecNlink()
	pm.DecNlink()
	pm.DecNlink() // should not go below 0
	if pm.Nlink != 0 {
		t.Fatalf("nlink after over-decrement = %d, want 0", pm.Nlink)
	}
}

func TestChmodPreservesTypeBits(t *testing.T) {
	pm := NewEntry(Dir, 0, 0, 0)
	pm.Chmod(0o700)
	if pm.Mode&0o170000 != sIFDIR {
		t.Fatal("chmod must not clobber the directory type bit")
	}
	if pm.Mode&0o777 != 0o700 {
		t.Fatalf("perm bits = %o, want 0700", pm.Mode&0o777)
	}
}

func TestDictRoundTrip(t *testing.T) {
	m := New()
	id := pathinfo.PathID("file0000a1")
	pm := m.AddFile(id, 0o644, 1000, 1000)
	pm.SetSize(42)

	blob, err := json.Marshal(m.ToDict())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(blob, &raw); err != nil {
		t.Fatal(err)
	}
	restored := FromDict(raw)

	got, err := restored.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Size != 42 || got.Mode != pm.Mode || got.Uid != 1000 {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, pm)
	}
	if got.Type() != File {
		t.Fatal("round trip should recover the File type from st_mode")
	}
}
