// +build linux

package freyafs

import (
	"github.com/winfsp/cgofuse/fuse"
	"golang.org/x/sys/unix"
)

// realStatfs reports the real statvfs of root, the way
// original_source/freyafs.py's statfs() calls os.statvfs on the
// sidecar directory rather than fabricating numbers — supplemental to
// the distilled spec, which leaves Statfs unspecified (see
// SPEC_FULL.md's domain stack table).
func realStatfs(root string, stat *fuse.Statfs_t) (errc int) {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		if errno, ok := err.(unix.Errno); ok {
			return -int(errno)
		}
		return -fuse.EIO
	}

	*stat = fuse.Statfs_t{
		Bsize:   uint64(st.Bsize),
		Frsize:  uint64(st.Frsize),
		Blocks:  st.Blocks,
		Bfree:   st.Bfree,
		Bavail:  st.Bavail,
		Files:   st.Files,
		Ffree:   st.Ffree,
		Favail:  st.Ffree,
		Namemax: uint64(st.Namelen),
	}
	return 0
}
