package manifest

import (
	"path/filepath"
	"testing"

	"github.com/freyafs/freyafs/internal/pathinfo"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	m := Empty()
	info := pathinfo.New()
	m.Structure.Add("/a/b.txt", info)
	m.Metadata.AddFile(info.PathID, 0o644, 1000, 1000)
	m.Cids[string(info.PathID)] = []string{"cid1", "cid2"}

	blob, err := Marshal(m)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Unmarshal(blob)
	if err != nil {
		t.Fatal(err)
	}

	gotInfo, err := got.Structure.Get("/a/b.txt", false)
	if err != nil {
		t.Fatal(err)
	}
	if gotInfo.PathID != info.PathID {
		t.Fatal("structure round trip lost the path_id")
	}
	if !got.Metadata.Contains(info.PathID) {
		t.Fatal("metadata round trip lost the entry")
	}
	if len(got.Cids[string(info.PathID)]) != 2 {
		t.Fatal("cid list round trip mismatch")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".freyafs")
	key := DeriveKey([]byte("correct horse battery staple"))

	m := Empty()
	info := pathinfo.New()
	m.Structure.Add("/f.txt", info)
	m.Metadata.AddFile(info.PathID, 0o644, 0, 0)

	if err := Save(file, key, m); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(file, key)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("expected a manifest, got nil")
	}
	gotInfo, err := loaded.Structure.Get("/f.txt", false)
	if err != nil {
		t.Fatal(err)
	}
	if gotInfo.PathID != info.PathID {
		t.Fatal("save/load round trip lost the path_id")
	}
}

func TestLoadMissingFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	key := DeriveKey([]byte("pw"))
	m, err := Load(filepath.Join(dir, ".freyafs"), key)
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Fatal("expected nil manifest for a nonexistent file")
	}
}

func TestLoadWrongKeyFails(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".freyafs")

	if err := Save(file, DeriveKey([]byte("right")), Empty()); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(file, DeriveKey([]byte("wrong"))); err == nil {
		t.Fatal("expected an auth failure with the wrong key")
	}
}
