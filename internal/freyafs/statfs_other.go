// +build !linux

package freyafs

import "github.com/winfsp/cgofuse/fuse"

// realStatfs fills in conservative placeholder numbers on platforms
// where golang.org/x/sys doesn't expose a portable statvfs-equivalent
// struct (darwin, windows); the Linux build (statfs_linux.go) reports
// the real values.
func realStatfs(root string, stat *fuse.Statfs_t) (errc int) {
	*stat = fuse.Statfs_t{
		Bsize:   4096,
		Frsize:  4096,
		Namemax: 255,
	}
	return 0
}
