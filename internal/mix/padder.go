package mix

import "encoding/binary"

// padInfoSize is the width, in bytes, of the trailing pad-length
// field Padder appends — wide enough to hold any macroblock-sized
// pad count.
const padInfoSize = 8

// Padder extends a buffer to a multiple of blockSize, adapted from
// original_source/utils/padder.py's bytearray variant of
// aesmix.padder.Padder. PadMutable does not pad in place: it copies
// the data into a newly allocated slice of the padded length.
// UnpadMutable returns a subslice of its input without copying.
type Padder struct {
	blockSize int
}

// NewPadder returns a Padder that rounds up to multiples of blockSize.
func NewPadder(blockSize int) Padder {
	return Padder{blockSize: blockSize}
}

// PadMutable appends zero padding plus an 8-byte big-endian pad-length
// trailer so the result is a multiple of p.blockSize, and returns the
// extended slice.
func (p Padder) PadMutable(data []byte) []byte {
	total := len(data) + padInfoSize
	rem := total % p.blockSize
	padLen := 0
	if rem != 0 {
		padLen = p.blockSize - rem
	}

	out := make([]byte, len(data)+padLen+padInfoSize)
	copy(out, data)
	binary.BigEndian.PutUint64(out[len(out)-padInfoSize:], uint64(padLen))
	return out
}

// UnpadMutable reads the trailing pad-length field and truncates it
// and the padding away, returning the original data.
func (p Padder) UnpadMutable(data []byte) []byte {
	if len(data) < padInfoSize {
		return data
	}
	padLen := binary.BigEndian.Uint64(data[len(data)-padInfoSize:])
	end := len(data) - padInfoSize - int(padLen)
	if end < 0 || end > len(data) {
		return data
	}
	return data[:end]
}
