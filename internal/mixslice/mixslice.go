// Package mixslice implements the Mix&Slice file codec: it splits
// each encrypted macroblock into a small locally kept prefix and a
// larger remainder pushed to a content-addressed block store, so that
// neither the sidecar file nor the store alone is enough to recover
// the plaintext. Ported from original_source/utils/mixslice.py.
package mixslice

import (
	"context"

	"github.com/freyafs/freyafs/internal/blockstore"
	"github.com/freyafs/freyafs/internal/ferrors"
	"github.com/freyafs/freyafs/internal/mix"
)

// SizeToKeep is the length, in bytes, of the locally kept prefix of
// each encrypted macroblock.
const SizeToKeep = 1024

var padder = mix.NewPadder(mix.MacroSize)

// Encrypt pads data to a multiple of MacroSize, mixes each macroblock
// under key/iv, splits each into a kept prefix and a remainder,
// pushes every remainder to store, and returns the concatenated kept
// prefixes (the sidecar file's contents) plus the cid list in
// macroblock order.
func Encrypt(ctx context.Context, data, key, iv []byte, store blockstore.Store) (kept []byte, cids []string, err error) {
	padded := padder.PadMutable(data)

	n := len(padded) / mix.MacroSize
	blocks := make([][]byte, n)
	for i := 0; i < n; i++ {
		blocks[i] = padded[i*mix.MacroSize : (i+1)*mix.MacroSize]
	}

	encrypted, err := mix.EncryptBlocks(blocks, key, iv)
	if err != nil {
		return nil, nil, ferrors.New(ferrors.CodecFailure, "mixslice.encrypt", err)
	}

	kept = make([]byte, 0, n*SizeToKeep)
	cids = make([]string, n)
	for i, blk := range encrypted {
		cid, err := store.Put(ctx, blk[SizeToKeep:])
		if err != nil {
			return nil, nil, ferrors.New(ferrors.BlockStoreFailure, "mixslice.encrypt", err)
		}
		kept = append(kept, blk[:SizeToKeep]...)
		cids[i] = cid
	}

	return kept, cids, nil
}

// Decrypt reassembles each macroblock from its kept prefix (read from
// kept, in sidecar order) and its remainder (fetched from store by
// cid), decrypts, and strips the padding trailer.
func Decrypt(ctx context.Context, kept []byte, key, iv []byte, cids []string, store blockstore.Store) ([]byte, error) {
	if len(kept)%SizeToKeep != 0 {
		return nil, ferrors.New(ferrors.Corruption, "mixslice.decrypt", nil)
	}
	n := len(kept) / SizeToKeep
	if n != len(cids) {
		return nil, ferrors.New(ferrors.Corruption, "mixslice.decrypt", nil)
	}

	blocks := make([][]byte, n)
	for i := 0; i < n; i++ {
		remainder, err := store.Get(ctx, cids[i])
		if err != nil {
			return nil, ferrors.New(ferrors.BlockStoreFailure, "mixslice.decrypt", err)
		}
		blk := make([]byte, 0, SizeToKeep+len(remainder))
		blk = append(blk, kept[i*SizeToKeep:(i+1)*SizeToKeep]...)
		blk = append(blk, remainder...)
		blocks[i] = blk
	}

	decrypted, err := mix.DecryptBlocks(blocks, key, iv)
	if err != nil {
		return nil, ferrors.New(ferrors.CodecFailure, "mixslice.decrypt", err)
	}

	out := make([]byte, 0, len(decrypted)*mix.MacroSize)
	for _, blk := range decrypted {
		out = append(out, blk...)
	}
	return padder.UnpadMutable(out), nil
}
