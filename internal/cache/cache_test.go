package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/freyafs/freyafs/internal/blockstore"
	"github.com/freyafs/freyafs/internal/pathinfo"
)

func TestCreateWriteFlushReadRoundTrip(t *testing.T) {
	root := t.TempDir()
	c := New(root, blockstore.NewMemStore(), LRU, 0)
	ctx := context.Background()

	info := pathinfo.New()
	if err := c.Create(ctx, info); err != nil {
		t.Fatal(err)
	}
	n, size, err := c.WriteBytes(ctx, info, []byte("hello"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || size != 5 {
		t.Fatalf("write: n=%d size=%d, want 5, 5", n, size)
	}
	if err := c.Flush(ctx, info, true); err != nil {
		t.Fatal(err)
	}

	got, err := c.ReadBytes(ctx, info, 0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("read back %q, want hello", got)
	}

	if len(c.Cids()[string(info.PathID)]) == 0 {
		t.Fatal("expected at least one cid for a 5-byte macroblock remainder")
	}
}

// TestEmptyFileRoundTrip exercises boundary behavior B1: an empty file
// still pads out to one all-padding macroblock, so its cid list has
// length 1, and reading it back yields zero bytes.
func TestEmptyFileRoundTrip(t *testing.T) {
	root := t.TempDir()
	c := New(root, blockstore.NewMemStore(), LRU, 0)
	ctx := context.Background()

	info := pathinfo.New()
	if err := c.Create(ctx, info); err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(ctx, info, true); err != nil {
		t.Fatal(err)
	}
	if cids := c.Cids()[string(info.PathID)]; len(cids) != 1 {
		t.Fatalf("cids = %v, want length 1 for an empty file", cids)
	}

	got, err := c.ReadBytes(ctx, info, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d bytes, want 0", len(got))
	}
}

// TestDirEntryNeverEncrypted exercises the invariant that an id-only
// (directory) PathInfo never touches the Mix&Slice codec, even when
// forced through flush.
func TestDirEntryNeverEncrypted(t *testing.T) {
	root := t.TempDir()
	c := New(root, blockstore.NewMemStore(), LRU, 0)
	ctx := context.Background()

	info := pathinfo.NewIDOnly()
	if err := c.Create(ctx, info); err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(ctx, info, true); err != nil {
		t.Fatal(err)
	}
	if cids := c.Cids()[string(info.PathID)]; cids != nil {
		t.Fatalf("cids = %v, want nil for a directory entry", cids)
	}
}

func TestTruncateGrowsWithZeroFill(t *testing.T) {
	root := t.TempDir()
	c := New(root, blockstore.NewMemStore(), LRU, 0)
	ctx := context.Background()

	info := pathinfo.New()
	if err := c.Create(ctx, info); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.WriteBytes(ctx, info, []byte("ab"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.TruncateBytes(ctx, info, 5); err != nil {
		t.Fatal(err)
	}
	got, err := c.ReadBytes(ctx, info, 0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ab\x00\x00\x00" {
		t.Fatalf("got %q, want zero-padded", got)
	}
}

// TestMemoryCapEvictsOnReload exercises eviction under real memory
// pressure: reloading an entry whose content no longer fits alongside
// what is already resident must evict a resident entry to make room,
// and the evicted entry's content must still round-trip once it is
// read back in turn.
func TestMemoryCapEvictsOnReload(t *testing.T) {
	root := t.TempDir()
	store := blockstore.NewMemStore()
	c := New(root, store, LRU, 8)
	ctx := context.Background()

	a := pathinfo.New()
	if err := c.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.WriteBytes(ctx, a, []byte("aaaaaaaa"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(ctx, a, true); err != nil {
		t.Fatal(err)
	}
	if err := c.Release(ctx, a, true); err != nil {
		t.Fatal(err)
	}

	b := pathinfo.New()
	if err := c.Create(ctx, b); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.WriteBytes(ctx, b, []byte("bbbbbbbb"), 0); err != nil {
		t.Fatal(err)
	}

	// Reading a back in must evict b (the only resident entry) to
	// make room under the 8-byte cap.
	got, err := c.ReadBytes(ctx, a, 0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "aaaaaaaa" {
		t.Fatalf("a's content = %q, want reloaded aaaaaaaa", got)
	}

	// b must still be readable from its evicted placeholder.
	got, err = c.ReadBytes(ctx, b, 0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "bbbbbbbb" {
		t.Fatalf("b's content = %q, want reloaded bbbbbbbb", got)
	}
}

// TestMemoryCapRejectsEntryLargerThanCap exercises the OUT_OF_MEMORY
// path: an entry that alone cannot fit under memoryCap, even after
// evicting every other resident entry, must surface as an error.
func TestMemoryCapRejectsEntryLargerThanCap(t *testing.T) {
	root := t.TempDir()
	store := blockstore.NewMemStore()
	unbounded := New(root, store, LRU, 0)
	ctx := context.Background()

	info := pathinfo.New()
	if err := unbounded.Create(ctx, info); err != nil {
		t.Fatal(err)
	}
	if _, _, err := unbounded.WriteBytes(ctx, info, []byte("too much data"), 0); err != nil {
		t.Fatal(err)
	}
	if err := unbounded.Flush(ctx, info, true); err != nil {
		t.Fatal(err)
	}
	if err := unbounded.Release(ctx, info, true); err != nil {
		t.Fatal(err)
	}

	tight := New(root, store, LRU, 4)
	tight.LoadCids(unbounded.Cids())

	if _, err := tight.ReadBytes(ctx, info, 0, 4); err == nil {
		t.Fatal("expected an out-of-memory error reloading an entry bigger than the cap")
	}
}

func TestForgetRemovesSidecar(t *testing.T) {
	root := t.TempDir()
	c := New(root, blockstore.NewMemStore(), LRU, 0)
	ctx := context.Background()

	info := pathinfo.New()
	if err := c.Create(ctx, info); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.WriteBytes(ctx, info, []byte("gone"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(ctx, info, true); err != nil {
		t.Fatal(err)
	}

	c.Forget(info.PathID)
	if c.Contains(info.PathID) {
		t.Fatal("expected Forget to drop the entry entirely")
	}
	if len(c.Cids()[string(info.PathID)]) != 0 {
		t.Fatal("expected Forget to drop the cid list")
	}
	if _, err := os.Stat(filepath.Join(root, string(info.PathID))); !os.IsNotExist(err) {
		t.Fatalf("expected Forget to remove the sidecar file, stat err = %v", err)
	}
}

func TestRegisterMetrics(t *testing.T) {
	root := t.TempDir()
	c := New(root, blockstore.NewMemStore(), LRU, 0)
	reg := prometheus.NewRegistry()
	if err := c.RegisterMetrics(reg); err != nil {
		t.Fatal(err)
	}
}
