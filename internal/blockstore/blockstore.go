// Package blockstore implements the content-addressed remainder
// storage Mix&Slice offloads the non-kept part of each macroblock to,
// ported from original_source/utils/ipfs.py.
package blockstore

import "context"

// Store is the opaque content-addressed block interface spec.md §6
// requires: Put stores bytes and returns a content id; Get fetches
// them back by that id. Any implementation with exact-byte round trip
// suffices.
type Store interface {
	Put(ctx context.Context, data []byte) (cid string, err error)
	Get(ctx context.Context, cid string) ([]byte, error)
}
