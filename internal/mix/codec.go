// Package mix implements FreyaFS's macroblock cipher.
//
// original_source/aesmix256k treats the mixing primitive as an
// opaque FFI call into a C extension (aesmix256k); the Mix&Slice
// design only requires that it behave as a keyed permutation over a
// whole MACRO_SIZE block such that no byte of the output can be
// recovered without every byte of input (so splitting the ciphertext
// into a locally kept prefix and a remotely stored remainder denies
// access to either half alone). This package gives that requirement a
// concrete, from-stdlib construction: a two-pass CFB-style chain (one
// forward, one backward) over MINI_SIZE blocks, so each direction's
// pass makes every output mini depend on every mini already visited,
// and running both passes makes every output byte depend on the
// entire macroblock. It is a pedagogical stand-in, not an audited
// replacement for the vendor's aesmix256k.
package mix

import (
	"crypto/aes"
	"crypto/cipher"
)

const (
	// MiniSize is the width of one mixing unit, in bytes.
	MiniSize = 16
	// MiniPerBlock is the number of minis in one macroblock.
	MiniPerBlock = 16384
	// MacroSize is the fixed macroblock size Mix&Slice operates on.
	MacroSize = MiniSize * MiniPerBlock
	// BlockSize is an alias kept for parity with the vendor constant
	// name used in original_source/aesmix256k/build_aesmix.py.
	BlockSize = MiniSize
)

// Encrypt mixes one MACRO_SIZE-d plaintext block under key/iv (both
// 16 bytes). It is the Go analogue of aesmix256k.mixencrypt.
func Encrypt(block, key, iv []byte) ([]byte, error) {
	return process(block, key, iv, true)
}

// Decrypt reverses Encrypt.
func Decrypt(block, key, iv []byte) ([]byte, error) {
	return process(block, key, iv, false)
}

func process(block, key, iv []byte, encrypt bool) ([]byte, error) {
	if len(key) != MiniSize || len(iv) != MiniSize {
		panic("mix: key and iv must each be 16 bytes")
	}
	if len(block)%MiniSize != 0 {
		panic("mix: block length must be a multiple of MiniSize")
	}

	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv2 := foldIV(iv)

	out := make([]byte, len(block))
	copy(out, block)

	if encrypt {
		chainMix(c, out, iv, true, true)
		chainMix(c, out, iv2, false, true)
	} else {
		chainMix(c, out, iv2, false, false)
		chainMix(c, out, iv, true, false)
	}
	return out, nil
}

// chainMix applies one CFB-style chained pass over data's minis, in
// forward order if forward is true, else from the last mini back to
// the first. encrypt selects which side of the pair (input or
// output) is fed back as the chain's ciphertext state, so that a
// (forward, encrypt) pass and a (forward, !encrypt) pass over the
// same iv are exact inverses of each other.
func chainMix(c cipher.Block, data []byte, iv []byte, forward, encrypt bool) {
	n := len(data) / MiniSize
	acc := make([]byte, MiniSize)
	copy(acc, iv)
	ks := make([]byte, MiniSize)

	visit := func(i int) {
		off := i * MiniSize
		c.Encrypt(ks, acc)
		mini := data[off : off+MiniSize]

		if !encrypt {
			// mini currently holds ciphertext: that is this
			// step's chain feedback, captured before the XOR
			// turns it into plaintext.
			copy(acc, mini)
			for j := range mini {
				mini[j] ^= ks[j]
			}
			return
		}

		for j := range mini {
			mini[j] ^= ks[j]
		}
		// mini now holds ciphertext: feed it back.
		copy(acc, mini)
	}

	if forward {
		for i := 0; i < n; i++ {
			visit(i)
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			visit(i)
		}
	}
}

// foldIV derives the second pass's iv from the first, so the two
// passes do not chain from an identical starting point.
func foldIV(iv []byte) []byte {
	out := make([]byte, len(iv))
	for i := range iv {
		out[i] = iv[len(iv)-1-i] ^ 0xff
	}
	return out
}
