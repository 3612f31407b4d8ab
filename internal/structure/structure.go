// Package structure implements the trie-keyed directory tree that
// maps path strings to PathInfo identities (spec.md §3/§4.6), ported
// from original_source/structure/structure.py.
package structure

import (
	"path"
	"strings"

	"github.com/freyafs/freyafs/internal/ferrors"
	"github.com/freyafs/freyafs/internal/pathinfo"
)

// maxSymlinkHops bounds Get's symlink-following resolution loop (spec
// §9 design note: the source does not detect cycles).
const maxSymlinkHops = 40

// PathStructure is the trie-backed name -> PathInfo map for one
// FreyaFS mount.
type PathStructure struct {
	t *trie
}

// New returns an empty PathStructure, with the root directory already
// installed at "/".
func New() *PathStructure {
	return &PathStructure{t: newTrie()}
}

func parts(p string) []string {
	p = path.Clean(p)
	if p == "/" || p == "." {
		return []string{"/"}
	}
	comp := strings.Split(strings.TrimPrefix(p, "/"), "/")
	return append([]string{"/"}, comp...)
}

// Contains reports whether p resolves to a node (without following
// symlinks).
func (s *PathStructure) Contains(p string) bool {
	return s.t.get(parts(p)) != nil
}

func (s *PathStructure) rawGet(p string) (*pathinfo.PathInfo, error) {
	n := s.t.get(parts(p))
	if n == nil || n.value == nil {
		return nil, ferrors.New(ferrors.NotFound, "structure.get", nil)
	}
	return n.value, nil
}

// Get returns the PathInfo at p. With followSymlinks, a chain of
// symlinks is resolved iteratively, re-anchoring at
// (parent_of_current / link_to_path) each hop, capped at
// maxSymlinkHops.
func (s *PathStructure) Get(p string, followSymlinks bool) (pathinfo.PathInfo, error) {
	current := p
	info, err := s.rawGet(current)
	if err != nil {
		return pathinfo.PathInfo{}, err
	}

	hops := 0
	for followSymlinks && info.LinkTo != "" {
		hops++
		if hops > maxSymlinkHops {
			return pathinfo.PathInfo{}, ferrors.New(ferrors.Loop, "structure.get", nil)
		}
		if strings.HasPrefix(info.LinkTo, "/") {
			current = path.Clean(info.LinkTo)
		} else {
			current = path.Clean(path.Join(path.Dir(current), info.LinkTo))
		}
		info, err = s.rawGet(current)
		if err != nil {
			return pathinfo.PathInfo{}, err
		}
	}

	return *info, nil
}

// Contents returns the names of the immediate children of p.
func (s *PathStructure) Contents(p string) []string {
	n := s.t.get(parts(p))
	if n == nil {
		return nil
	}
	return n.contents()
}

// Add installs info at p, creating implicit intermediate directories.
func (s *PathStructure) Add(p string, info pathinfo.PathInfo) {
	v := info
	s.t.insert(parts(p), newNode(&v))
}

// AddHardLink installs the same PathInfo already at to under from,
// returning it so the caller can bump st_nlink.
func (s *PathStructure) AddHardLink(from, to string) (pathinfo.PathInfo, error) {
	target, err := s.Get(to, false)
	if err != nil {
		return pathinfo.PathInfo{}, err
	}
	s.Add(from, target)
	return target, nil
}

// Rename relocates the subtree at old to new wholesale.
func (s *PathStructure) Rename(old, new string) {
	s.t.move(parts(old), parts(new))
}

// Delete removes the node at p (never a sibling). No-op if absent.
func (s *PathStructure) Delete(p string) {
	s.t.delete(parts(p))
}

// --------------------------------------------------------------- JSON shape

// ToDict renders the trie in the manifest's JSON shape: nested
// {"value": ..., "children": {...}} objects.
func (s *PathStructure) ToDict() interface{} {
	return nodeToDict(s.t.root)
}

func nodeToDict(n *node) map[string]interface{} {
	children := make(map[string]interface{}, len(n.children))
	for name, child := range n.children {
		children[name] = nodeToDict(child)
	}
	var value interface{}
	if n.value != nil {
		value = n.value.ToDict()
	}
	return map[string]interface{}{
		"value":    value,
		"children": children,
	}
}

// FromDict parses the manifest's JSON shape (as produced by
// json.Unmarshal into map[string]interface{}) back into a
// PathStructure.
func FromDict(data map[string]interface{}) (*PathStructure, error) {
	root, err := nodeFromDict(data)
	if err != nil {
		return nil, err
	}
	return &PathStructure{t: &trie{root: root}}, nil
}

func nodeFromDict(data map[string]interface{}) (*node, error) {
	var value *pathinfo.PathInfo
	if raw, ok := data["value"].(map[string]interface{}); ok {
		pi, err := pathinfo.FromDict(raw)
		if err != nil {
			return nil, err
		}
		value = &pi
	}

	n := newNode(value)
	childrenRaw, _ := data["children"].(map[string]interface{})
	for name, childRaw := range childrenRaw {
		childMap, ok := childRaw.(map[string]interface{})
		if !ok {
			continue
		}
		child, err := nodeFromDict(childMap)
		if err != nil {
			return nil, err
		}
		n.children[name] = child
	}
	return n, nil
}
