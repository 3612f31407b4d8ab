package structure

import "github.com/freyafs/freyafs/internal/pathinfo"

// node is a trie node keyed by path component. Ported from
// original_source/utils/trie.py's Node/Trie pair.
type node struct {
	value    *pathinfo.PathInfo
	children map[string]*node
}

func newNode(value *pathinfo.PathInfo) *node {
	return &node{value: value, children: make(map[string]*node)}
}

func (n *node) contents() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	return names
}

// trie is a directory tree keyed by path components, the root
// child-key being literally "/".
type trie struct {
	root *node
}

func newTrie() *trie {
	root := newNode(nil)
	rootInfo := pathinfo.NewIDOnly()
	root.children["/"] = newNode(&rootInfo)
	return &trie{root: root}
}

// insert installs n at keys, creating null-valued intermediate
// nodes along the way (idempotent along the prefix).
func (t *trie) insert(keys []string, n *node) {
	if len(keys) == 0 {
		return
	}
	last := len(keys) - 1
	cur := t.root
	for i, key := range keys {
		if i == last {
			cur.children[key] = n
			return
		}
		if child, ok := cur.children[key]; ok {
			cur = child
		} else {
			tmp := newNode(nil)
			cur.children[key] = tmp
			cur = tmp
		}
	}
}

// get returns the node at keys, or nil if it does not exist.
func (t *trie) get(keys []string) *node {
	cur := t.root
	for _, k := range keys {
		child, ok := cur.children[k]
		if !ok {
			return nil
		}
		cur = child
	}
	return cur
}

// delete removes the node at keys from its parent; it never removes a
// sibling and is a no-op if keys does not resolve.
func (t *trie) delete(keys []string) {
	if len(keys) == 0 {
		return
	}
	last := len(keys) - 1
	cur := t.root
	for i, key := range keys {
		child, ok := cur.children[key]
		if !ok {
			return
		}
		if i == last {
			delete(cur.children, key)
			return
		}
		cur = child
	}
}

// move relocates the subtree at fromKeys to toKeys wholesale.
func (t *trie) move(fromKeys, toKeys []string) {
	n := t.get(fromKeys)
	if n == nil {
		return
	}
	t.delete(toKeys)
	t.insert(toKeys, n)
	t.delete(fromKeys)
}
