// Package buffer implements the in-memory plaintext container the
// cache keeps per open file, ported from
// original_source/utils/filebytecontent.py. Readers may run
// concurrently; a writer has exclusive access and waits for every
// outstanding reader to finish first.
package buffer

import "sync"

// ByteBuffer is a growable byte slice guarded for one-writer/many-reader
// access, mirroring FileByteContent's condition-variable scheme.
type ByteBuffer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	text    []byte
	readers int
}

// New wraps text (copied) in a fresh ByteBuffer.
func New(text []byte) *ByteBuffer {
	b := &ByteBuffer{text: append([]byte(nil), text...)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *ByteBuffer) rAcquire() {
	b.mu.Lock()
	b.readers++
	b.mu.Unlock()
}

func (b *ByteBuffer) rRelease() {
	b.mu.Lock()
	b.readers--
	if b.readers == 0 {
		b.cond.Broadcast()
	}
	b.mu.Unlock()
}

// wAcquire blocks until no reader is active, then returns with the
// lock held; the caller must call wRelease when done.
func (b *ByteBuffer) wAcquire() {
	b.mu.Lock()
	for b.readers > 0 {
		b.cond.Wait()
	}
}

func (b *ByteBuffer) wRelease() {
	b.mu.Unlock()
}

// Len returns the current content length.
func (b *ByteBuffer) Len() int {
	b.rAcquire()
	defer b.rRelease()
	return len(b.text)
}

// ReadAll returns a copy of the whole buffer.
func (b *ByteBuffer) ReadAll() []byte {
	b.rAcquire()
	defer b.rRelease()
	out := make([]byte, len(b.text))
	copy(out, b.text)
	return out
}

// ReadBytes returns up to length bytes starting at offset. Reading
// past the end returns fewer bytes (possibly zero), never an error.
func (b *ByteBuffer) ReadBytes(offset, length int) []byte {
	b.rAcquire()
	defer b.rRelease()
	if offset >= len(b.text) || length <= 0 {
		return nil
	}
	end := offset + length
	if end > len(b.text) {
		end = len(b.text)
	}
	out := make([]byte, end-offset)
	copy(out, b.text[offset:end])
	return out
}

// WriteBytes writes buf at offset, growing the content (zero-filling
// any gap) as needed, and returns the number of bytes written.
func (b *ByteBuffer) WriteBytes(buf []byte, offset int) int {
	b.wAcquire()
	defer b.wRelease()

	need := offset + len(buf)
	if need > len(b.text) {
		grown := make([]byte, need)
		copy(grown, b.text)
		b.text = grown
	}
	copy(b.text[offset:], buf)
	return len(buf)
}

// Truncate sets the content length to length, zero-filling on growth.
func (b *ByteBuffer) Truncate(length int) {
	b.wAcquire()
	defer b.wRelease()

	if length <= len(b.text) {
		b.text = b.text[:length]
		return
	}
	grown := make([]byte, length)
	copy(grown, b.text)
	b.text = grown
}
