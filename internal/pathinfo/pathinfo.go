// Package pathinfo implements the stable per-object identity FreyaFS
// hangs everything else off: PathInfo ties a path_id to the per-file
// key material a regular file is encrypted with.
//
// Ported from original_source/structure/pathinfo.py.
package pathinfo

import (
	"crypto/rand"
	"encoding/base64"
)

const (
	// KeySize is the Mix&Slice per-file key length, in bytes.
	KeySize = 16
	// IVSize is the Mix&Slice per-file IV length, in bytes.
	IVSize = 16
	// IDLength is the path_id length, in characters.
	IDLength = 10
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// PathID is the opaque identity every PathInfo carries. Two PathInfo
// values with the same PathID denote a hard link to the same object.
type PathID string

// PathInfo is the stable identity of a file-system object: a path_id
// plus, for regular files, the key/iv it is encrypted with. A
// directory or an id-only handle carries empty Key/IV. A symlink
// additionally carries LinkTo, the textual target.
type PathInfo struct {
	PathID PathID
	Key    []byte
	IV     []byte
	LinkTo string // "" unless this is a symlink
}

// randomID returns an IDLength-character lowercase alphanumeric token.
func randomID() PathID {
	b := make([]byte, IDLength)
	idx := make([]byte, IDLength)
	if _, err := rand.Read(idx); err != nil {
		panic(err) // crypto/rand failing means the platform is broken
	}
	for i, v := range idx {
		b[i] = idAlphabet[int(v)%len(idAlphabet)]
	}
	return PathID(b)
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// New creates a fresh PathInfo for a regular file, with a random
// path_id, key and iv.
func New() PathInfo {
	return PathInfo{PathID: randomID(), Key: randomBytes(KeySize), IV: randomBytes(IVSize)}
}

// NewSymlink creates a PathInfo for a symbolic link pointing at target.
// Symlink content is still cache-backed (see §9 of the design), so it
// carries real key/iv material like a regular file.
func NewSymlink(target string) PathInfo {
	pi := New()
	pi.LinkTo = target
	return pi
}

// NewIDOnly creates a directory or id-only handle: a path_id with no
// key material, since directories are never encrypted.
func NewIDOnly() PathInfo {
	return PathInfo{PathID: randomID()}
}

// IsDirLike reports whether this PathInfo carries no key material,
// i.e. it must never be routed through the Mix&Slice codec.
func (p PathInfo) IsDirLike() bool {
	return len(p.Key) == 0 && len(p.IV) == 0
}

// dict is the JSON-shaped transfer form, matching the manifest
// schema's <path-info> = {"path_id", "link_to_path", "key", "iv"}.
type dict struct {
	PathID     string  `json:"path_id"`
	LinkToPath *string `json:"link_to_path"`
	Key        string  `json:"key"`
	IV         string  `json:"iv"`
}

// ToDict renders p in the manifest's JSON shape.
func (p PathInfo) ToDict() interface{} {
	var link *string
	if p.LinkTo != "" {
		l := p.LinkTo
		link = &l
	}
	return dict{
		PathID:     string(p.PathID),
		LinkToPath: link,
		Key:        base64.StdEncoding.EncodeToString(p.Key),
		IV:         base64.StdEncoding.EncodeToString(p.IV),
	}
}

// FromDict parses the manifest's JSON shape for a PathInfo. raw must
// have come from json.Unmarshal into map[string]interface{} (the
// generic decode used for trie nodes) or from a dict above.
func FromDict(raw map[string]interface{}) (PathInfo, error) {
	pi := PathInfo{}
	if v, ok := raw["path_id"].(string); ok {
		pi.PathID = PathID(v)
	}
	if v, ok := raw["link_to_path"].(string); ok {
		pi.LinkTo = v
	}
	if v, ok := raw["key"].(string); ok && v != "" {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return pi, err
		}
		pi.Key = key
	}
	if v, ok := raw["iv"].(string); ok && v != "" {
		iv, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return pi, err
		}
		pi.IV = iv
	}
	return pi, nil
}
