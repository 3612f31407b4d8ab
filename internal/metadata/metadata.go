package metadata

import (
	"github.com/freyafs/freyafs/internal/ferrors"
	"github.com/freyafs/freyafs/internal/pathinfo"
)

// Metadata is the path_id -> PathMetadata map shared across one mount,
// ported from original_source/metadata/metadata.py.
type Metadata struct {
	entries map[pathinfo.PathID]*PathMetadata
}

// New returns an empty Metadata map.
func New() *Metadata {
	return &Metadata{entries: make(map[pathinfo.PathID]*PathMetadata)}
}

// Contains reports whether id has a metadata entry.
func (m *Metadata) Contains(id pathinfo.PathID) bool {
	_, ok := m.entries[id]
	return ok
}

// Get returns the PathMetadata for id, or a NotFound error.
func (m *Metadata) Get(id pathinfo.PathID) (*PathMetadata, error) {
	pm, ok := m.entries[id]
	if !ok {
		return nil, ferrors.New(ferrors.NotFound, "metadata.get", nil)
	}
	return pm, nil
}

// Set installs pm under id, replacing any existing entry.
func (m *Metadata) Set(id pathinfo.PathID, pm *PathMetadata) {
	m.entries[id] = pm
}

// Delete removes id's entry, if any.
func (m *Metadata) Delete(id pathinfo.PathID) {
	delete(m.entries, id)
}

// AddFile installs a fresh regular-file entry for id.
func (m *Metadata) AddFile(id pathinfo.PathID, mode, uid, gid uint32) *PathMetadata {
	pm := NewEntry(File, mode, uid, gid)
	m.entries[id] = pm
	return pm
}

// AddDir installs a fresh directory entry for id.
func (m *Metadata) AddDir(id pathinfo.PathID, mode, uid, gid uint32) *PathMetadata {
	pm := NewEntry(Dir, mode, uid, gid)
	m.entries[id] = pm
	return pm
}

// AddSymlink installs a fresh symlink entry for id.
func (m *Metadata) AddSymlink(id pathinfo.PathID, mode, uid, gid uint32) *PathMetadata {
	pm := NewEntry(Symlink, mode, uid, gid)
	m.entries[id] = pm
	return pm
}

// ToDict renders the whole map in the manifest's JSON shape, keyed by
// path_id string.
func (m *Metadata) ToDict() interface{} {
	out := make(map[string]interface{}, len(m.entries))
	for id, pm := range m.entries {
		out[string(id)] = pm.ToDict()
	}
	return out
}

// FromDict parses the manifest's metadata object (as decoded into
// map[string]interface{}) back into a Metadata map.
func FromDict(raw map[string]interface{}) *Metadata {
	m := New()
	for idStr, v := range raw {
		entryRaw, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		m.entries[pathinfo.PathID(idStr)] = statFromDict(entryRaw)
	}
	return m
}
