package mix

import (
	"bytes"
	"testing"
)

func TestPadMutableIsMultipleOfBlockSize(t *testing.T) {
	p := NewPadder(64)
	for _, n := range []int{0, 1, 10, 63, 64, 65, 1000} {
		data := make([]byte, n)
		padded := p.PadMutable(data)
		if len(padded)%64 != 0 {
			t.Fatalf("len(n=%d) = %d, not a multiple of 64", n, len(padded))
		}
	}
}

func TestPadUnpadRoundTrip(t *testing.T) {
	p := NewPadder(MacroSize)
	original := []byte("the quick brown fox jumps over the lazy dog")
	padded := p.PadMutable(original)
	if len(padded)%MacroSize != 0 {
		t.Fatal("padded length must be a multiple of MacroSize")
	}
	unpadded := p.UnpadMutable(padded)
	if !bytes.Equal(unpadded, original) {
		t.Fatalf("unpad mismatch: got %q, want %q", unpadded, original)
	}
}

func TestPadEmpty(t *testing.T) {
	p := NewPadder(32)
	padded := p.PadMutable(nil)
	unpadded := p.UnpadMutable(padded)
	if len(unpadded) != 0 {
		t.Fatalf("unpad of empty input = %d bytes, want 0", len(unpadded))
	}
}
