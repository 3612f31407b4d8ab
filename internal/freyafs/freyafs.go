// Package freyafs wires the path structure, metadata map, and cache
// together behind cgofuse's fuse.FileSystemInterface, the way the
// teacher's src/fs/ptfs/ptfs.go wires a passthrough filesystem and
// src/fs/hubfs/hubfs.go wires a GitHub-backed one behind the same
// interface.
//
// Ported from original_source/freyafs.py.
package freyafs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/winfsp/cgofuse/fuse"

	"github.com/freyafs/freyafs/internal/blockstore"
	"github.com/freyafs/freyafs/internal/cache"
	"github.com/freyafs/freyafs/internal/manifest"
	"github.com/freyafs/freyafs/internal/metadata"
	"github.com/freyafs/freyafs/internal/pathinfo"
	"github.com/freyafs/freyafs/internal/structure"
)

// ManifestName is the well-known file under the data root holding the
// encrypted structure+metadata+cid manifest (spec.md §6).
const ManifestName = ".freyafs"

// Config bundles what New needs to bring up one mount.
type Config struct {
	// Root is the data root: where the manifest and kept-prefix
	// sidecar files live on local disk.
	Root string
	// Key is the manifest's Argon2id-derived secretbox key.
	Key *[32]byte
	// Store is the content-addressed block store macroblock
	// remainders round-trip through.
	Store blockstore.Store
	// MemoryCap bounds the cache's resident plaintext bytes, checked
	// when an entry is loaded or created; <=0 means unlimited.
	MemoryCap int64
	// Policy picks which resident entry to evict first under memory
	// pressure; nil defaults to cache.LRU.
	Policy cache.Policy
	// DumpMetadata prints a one-shot report of the mount's files and
	// manifest size to stdout at startup (original_source/main.py's
	// --dump-metadata flag).
	DumpMetadata bool
}

// FreyaFS is one mount's worth of state: the structure+metadata+cache
// trio plus the manifest key, wired behind fuse.FileSystemInterface.
type FreyaFS struct {
	fuse.FileSystemBase

	root     string
	filename string
	key      *[32]byte

	mu        sync.Mutex
	structure *structure.PathStructure
	metadata  *metadata.Metadata
	cache     *cache.Cache
}

// New loads (or, on a fresh data root, initializes) the manifest at
// cfg.Root/.freyafs and builds the cache on top of it. A MAC failure
// while decrypting an existing manifest is surfaced as
// ferrors.AuthFailure, matching spec.md §7's AUTH_FAILURE row.
func New(cfg Config) (*FreyaFS, error) {
	filename := filepath.Join(cfg.Root, ManifestName)

	m, err := manifest.Load(filename, cfg.Key)
	if err != nil {
		return nil, err
	}

	if m == nil {
		m = manifest.Empty()
		rootInfo, err := m.Structure.Get("/", false)
		if err != nil {
			return nil, err
		}
		uid, gid, _ := fuse.Getcontext()
		m.Metadata.AddDir(rootInfo.PathID, metadata.DefaultMode, uid, gid)
	}

	c := cache.New(cfg.Root, cfg.Store, cfg.Policy, cfg.MemoryCap)
	c.LoadCids(m.Cids)

	fs := &FreyaFS{
		root:      cfg.Root,
		filename:  filename,
		key:       cfg.Key,
		structure: m.Structure,
		metadata:  m.Metadata,
		cache:     c,
	}

	fmt.Printf("FreyaFS will persist your encrypted data at %s.\n", cfg.Root)
	if cfg.MemoryCap > 0 {
		fmt.Printf("[i] Cache memory cap set at %d B.\n", cfg.MemoryCap)
	}
	if cfg.DumpMetadata {
		fs.dumpMetadataReport()
	}

	return fs, nil
}

// Dump persists the current structure+metadata+cid state to the
// manifest file. Called on clean unmount, matching the source's
// FreyaFS.dump().
func (fs *FreyaFS) Dump() error {
	fs.mu.Lock()
	m := &manifest.Manifest{
		Structure: fs.structure,
		Metadata:  fs.metadata,
		Cids:      fs.cache.Cids(),
	}
	fs.mu.Unlock()
	return manifest.Save(fs.filename, fs.key, m)
}

// RegisterMetrics exposes the cache's Prometheus collectors under reg,
// wired up by cmd/freyafs's --metrics-addr flag.
func (fs *FreyaFS) RegisterMetrics(reg prometheus.Registerer) error {
	return fs.cache.RegisterMetrics(reg)
}

// dumpMetadataReport prints a human-readable rundown of every file
// and the in-memory/on-disk manifest size, matching
// original_source/freyafs.py's --dump-metadata output.
func (fs *FreyaFS) dumpMetadataReport() {
	fs.mu.Lock()
	cids := fs.cache.Cids()
	fmt.Println("[i] Some information about the file system")
	fmt.Println("[i] Files")
	for id, idCids := range cids {
		pm, err := fs.metadata.Get(pathinfo.PathID(id))
		if err != nil {
			continue
		}
		var onDiskSize int64
		if info, statErr := os.Stat(filepath.Join(fs.root, id)); statErr == nil {
			onDiskSize = info.Size()
		}
		fmt.Printf("> ID:                       %s\n", id)
		fmt.Printf("  Size:                     %d\n", pm.Size)
		fmt.Printf("  On disk size (encrypted): %d\n", onDiskSize)
		fmt.Printf("  Number of CIDs:           %d\n", len(idCids))
	}
	fs.mu.Unlock()

	fmt.Println("[i] FreyaFS metadata")
	if info, err := os.Stat(fs.filename); err == nil {
		fmt.Printf("> On disk size (encrypted): %d\n", info.Size())
	}
}
