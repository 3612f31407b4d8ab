package cache

import (
	"time"

	"github.com/freyafs/freyafs/internal/buffer"
	"github.com/freyafs/freyafs/internal/pathinfo"
)

// Entry is one open file's in-memory plaintext, ported from
// original_source/cache/entry.py. It carries its own PathInfo so that
// an eviction sweep can flush a victim entry without needing the
// original caller to hand the key/iv back in.
type Entry struct {
	info     pathinfo.PathInfo
	content  *buffer.ByteBuffer
	opens    int
	modified bool
	atime    time.Time
	mtime    time.Time
}

// newEntry wraps content as a fresh Entry for info. If mtime is the
// zero value the entry is treated as brand new (modified=true,
// matching CacheEntry.__init__'s `modified = True if not mtime else
// False`); otherwise it is a reload of existing content and starts
// unmodified.
func newEntry(info pathinfo.PathInfo, content []byte, mtime time.Time) *Entry {
	now := time.Now()
	modified := mtime.IsZero()
	if modified {
		mtime = now
	}
	return &Entry{
		info:     info,
		content:  buffer.New(content),
		opens:    1,
		modified: modified,
		atime:    now,
		mtime:    mtime,
	}
}

// Size returns the entry's current plaintext length.
func (e *Entry) Size() int64 {
	return int64(e.content.Len())
}

// touch marks the entry modified and bumps mtime, as every mutating
// cache call does.
func (e *Entry) touch() {
	e.modified = true
	e.mtime = time.Now()
}
