package structure

import (
	"encoding/json"
	"testing"

	"github.com/freyafs/freyafs/internal/ferrors"
	"github.com/freyafs/freyafs/internal/pathinfo"
)

func TestRootExists(t *testing.T) {
	s := New()
	if !s.Contains("/") {
		t.Fatal("root should exist on a fresh structure")
	}
}

func TestAddAndGet(t *testing.T) {
	s := New()
	info := pathinfo.New()
	s.Add("/a/b.txt", info)

	got, err := s.Get("/a/b.txt", true)
	if err != nil {
		t.Fatal(err)
	}
	if got.PathID != info.PathID {
		t.Fatalf("got path_id %q, want %q", got.PathID, info.PathID)
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	if _, err := s.Get("/nope", true); !ferrors.Is(err, ferrors.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestSymlinkResolution(t *testing.T) {
	s := New()
	target := pathinfo.New()
	s.Add("/dir/real.txt", target)
	s.Add("/dir/link.txt", pathinfo.NewSymlink("real.txt"))

	got, err := s.Get("/dir/link.txt", true)
	if err != nil {
		t.Fatal(err)
	}
	if got.PathID != target.PathID {
		t.Fatal("symlink should resolve to the target's path_id")
	}

	raw, err := s.Get("/dir/link.txt", false)
	if err != nil {
		t.Fatal(err)
	}
	if raw.LinkTo != "real.txt" {
		t.Fatal("unresolved get should return the symlink itself")
	}
}

func TestSymlinkCycleIsBounded(t *testing.T) {
	s := New()
	s.Add("/a", pathinfo.NewSymlink("b"))
	s.Add("/b", pathinfo.NewSymlink("a"))

	if _, err := s.Get("/a", true); !ferrors.Is(err, ferrors.Loop) {
		t.Fatalf("expected Loop, got %v", err)
	}
}

func TestHardLinkSharesPathID(t *testing.T) {
	s := New()
	info := pathinfo.New()
	s.Add("/orig.txt", info)

	linked, err := s.AddHardLink("/alias.txt", "/orig.txt")
	if err != nil {
		t.Fatal(err)
	}
	if linked.PathID != info.PathID {
		t.Fatal("hard link must share path_id with its target")
	}

	got, err := s.Get("/alias.txt", false)
	if err != nil {
		t.Fatal(err)
	}
	if got.PathID != info.PathID {
		t.Fatal("alias should resolve to the same path_id")
	}
}

func TestRenameMovesSubtree(t *testing.T) {
	s := New()
	info := pathinfo.New()
	s.Add("/old/file.txt", info)

	s.Rename("/old", "/new")

	if s.Contains("/old/file.txt") {
		t.Fatal("old location should be gone after rename")
	}
	got, err := s.Get("/new/file.txt", false)
	if err != nil {
		t.Fatal(err)
	}
	if got.PathID != info.PathID {
		t.Fatal("renamed entry should keep its path_id")
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	s := New()
	s.Add("/f.txt", pathinfo.New())
	s.Delete("/f.txt")
	if s.Contains("/f.txt") {
		t.Fatal("deleted entry should no longer be present")
	}
}

func TestContents(t *testing.T) {
	s := New()
	s.Add("/dir/a.txt", pathinfo.New())
	s.Add("/dir/b.txt", pathinfo.New())

	names := s.Contents("/dir")
	if len(names) != 2 {
		t.Fatalf("expected 2 children, got %d: %v", len(names), names)
	}
}

func TestDictRoundTrip(t *testing.T) {
	s := New()
	info := pathinfo.New()
	s.Add("/x/y.txt", info)

	blob, err := json.Marshal(s.ToDict())
	if err != nil {
		t.Fatal(err)
	}
	var jsonish map[string]interface{}
	if err := json.Unmarshal(blob, &jsonish); err != nil {
		t.Fatal(err)
	}

	restored, err := FromDict(jsonish)
	if err != nil {
		t.Fatal(err)
	}
	got, err := restored.Get("/x/y.txt", false)
	if err != nil {
		t.Fatal(err)
	}
	if got.PathID != info.PathID {
		t.Fatal("round-tripped structure lost the path_id")
	}
}
