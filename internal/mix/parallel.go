package mix

import "golang.org/x/sync/errgroup"

// EncryptBlocks mixes each MACRO_SIZE-d block in blocks concurrently,
// the Go analogue of original_source/utils/mixslice.py's use of a
// multiprocessing.Pool to map _encrypt_block over macroblocks.
func EncryptBlocks(blocks [][]byte, key, iv []byte) ([][]byte, error) {
	return mapBlocks(blocks, key, iv, true)
}

// DecryptBlocks reverses EncryptBlocks.
func DecryptBlocks(blocks [][]byte, key, iv []byte) ([][]byte, error) {
	return mapBlocks(blocks, key, iv, false)
}

func mapBlocks(blocks [][]byte, key, iv []byte, encrypt bool) ([][]byte, error) {
	out := make([][]byte, len(blocks))
	var g errgroup.Group
	for i := range blocks {
		i := i
		g.Go(func() error {
			var err error
			if encrypt {
				out[i], err = Encrypt(blocks[i], key, iv)
			} else {
				out[i], err = Decrypt(blocks[i], key, iv)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
