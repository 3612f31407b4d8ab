package freyafs

import (
	"context"
	"time"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/freyafs/freyafs/internal/ferrors"
	"github.com/freyafs/freyafs/internal/metadata"
	"github.com/freyafs/freyafs/internal/pathinfo"
)

// statOf resolves path to its PathMetadata, following symlinks per
// follow. Caller must hold fs.mu.
func (fs *FreyaFS) statOf(path string, follow bool) (*metadata.PathMetadata, error) {
	info, err := fs.structure.Get(path, follow)
	if err != nil {
		return nil, err
	}
	return fs.metadata.Get(info.PathID)
}

func (fs *FreyaFS) Access(path string, mask uint32) (errc int) {
	defer trace(path, mask)(&errc)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !fs.structure.Contains(path) {
		return -fuse.EACCES
	}
	return 0
}

func (fs *FreyaFS) Chmod(path string, mode uint32) (errc int) {
	defer trace(path, mode)(&errc)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	pm, err := fs.statOf(path, true)
	if err != nil {
		return ferrors.Errno(err)
	}
	pm.Chmod(mode)
	return 0
}

// noChange is the FUSE convention for "leave this field alone" on
// chown, carried through as ^uint32(0) the way cgofuse passes it.
const noChange = ^uint32(0)

func (fs *FreyaFS) Chown(path string, uid uint32, gid uint32) (errc int) {
	defer trace(path, uid, gid)(&errc)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	pm, err := fs.statOf(path, true)
	if err != nil {
		return ferrors.Errno(err)
	}
	newUid, newGid := pm.Uid, pm.Gid
	if uid != noChange {
		newUid = uid
	}
	if gid != noChange {
		newGid = gid
	}
	pm.Chown(newUid, newGid)
	return 0
}

func (fs *FreyaFS) Getattr(path string, stat *fuse.Stat_t, fh uint64) (errc int) {
	defer trace(path, fh)(&errc, stat)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	pm, err := fs.statOf(path, false)
	if err != nil {
		return ferrors.Errno(err)
	}
	fuseStat(stat, pm)
	return 0
}

func (fs *FreyaFS) Readdir(path string,
	fill func(name string, stat *fuse.Stat_t, ofst int64) bool,
	ofst int64, fh uint64) (errc int) {
	defer trace(path, ofst, fh)(&errc)

	fs.mu.Lock()
	names := fs.structure.Contents(path)
	fs.mu.Unlock()

	fill(".", nil, 0)
	fill("..", nil, 0)
	for _, n := range names {
		if !fill(n, nil, 0) {
			break
		}
	}
	return 0
}

func (fs *FreyaFS) Readlink(path string) (errc int, target string) {
	defer trace(path)(&errc, &target)
	fs.mu.Lock()
	info, err := fs.structure.Get(path, false)
	fs.mu.Unlock()
	if err != nil {
		return ferrors.Errno(err), ""
	}
	if info.LinkTo == "" {
		return -fuse.EINVAL, ""
	}
	return 0, info.LinkTo
}

// Mknod handles mknod(2) calls that bypass create() (FIFOs and
// similar special files are represented here as an empty regular
// file, since FreyaFS has no on-disk device-node concept to mirror).
func (fs *FreyaFS) Mknod(path string, mode uint32, dev uint64) (errc int) {
	defer trace(path, mode, dev)(&errc)

	fs.mu.Lock()
	info := pathinfo.New()
	uid, gid, _ := fuse.Getcontext()
	fs.structure.Add(path, info)
	fs.metadata.AddFile(info.PathID, mode, uid, gid)
	fs.mu.Unlock()

	ctx := context.Background()
	if err := fs.cache.Create(ctx, info); err != nil {
		return ferrors.Errno(err)
	}
	if err := fs.cache.Release(ctx, info, true); err != nil {
		return ferrors.Errno(err)
	}
	return 0
}

func (fs *FreyaFS) Mkdir(path string, mode uint32) (errc int) {
	defer trace(path, mode)(&errc)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	info := pathinfo.NewIDOnly()
	uid, gid, _ := fuse.Getcontext()
	fs.structure.Add(path, info)
	fs.metadata.AddDir(info.PathID, mode, uid, gid)
	return 0
}

func (fs *FreyaFS) Rmdir(path string) (errc int) {
	defer trace(path)(&errc)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	info, err := fs.structure.Get(path, true)
	if err != nil {
		return ferrors.Errno(err)
	}
	fs.structure.Delete(path)
	fs.metadata.Delete(info.PathID)
	return 0
}

func (fs *FreyaFS) Statfs(path string, stat *fuse.Statfs_t) (errc int) {
	defer trace(path)(&errc, stat)
	return realStatfs(fs.root, stat)
}

// Unlink removes path from the structure; a regular file's st_nlink
// is decremented and its sidecar/cid entry only actually disappears
// once it reaches zero (spec.md §4 Metadata invariant, §6 "unlink on
// a file").
func (fs *FreyaFS) Unlink(path string) (errc int) {
	defer trace(path)(&errc)

	fs.mu.Lock()
	info, err := fs.structure.Get(path, false)
	if err != nil {
		fs.mu.Unlock()
		return ferrors.Errno(err)
	}
	fs.structure.Delete(path)

	pm, err := fs.metadata.Get(info.PathID)
	if err != nil {
		fs.mu.Unlock()
		return 0
	}
	if pm.IsDir() {
		fs.metadata.Delete(info.PathID)
		fs.mu.Unlock()
		return 0
	}

	pm.DecNlink()
	forget := pm.Nlink == 0
	if forget {
		fs.metadata.Delete(info.PathID)
	}
	fs.mu.Unlock()

	if forget {
		fs.cache.Forget(info.PathID)
	}
	return 0
}

// Symlink installs the link, then writes its target string as the
// link's own cache-backed content, keeping the target both in the
// PathInfo and on disk (original_source/freyafs.py's symlink()).
// Readlink answers from the PathInfo; Read follows the link and
// serves the target's content.
func (fs *FreyaFS) Symlink(target string, newpath string) (errc int) {
	defer trace(target, newpath)(&errc)

	fs.mu.Lock()
	info := pathinfo.NewSymlink(target)
	uid, gid, _ := fuse.Getcontext()
	fs.structure.Add(newpath, info)
	fs.metadata.AddSymlink(info.PathID, 0o777, uid, gid)
	fs.mu.Unlock()

	ctx := context.Background()
	if err := fs.cache.Create(ctx, info); err != nil {
		return ferrors.Errno(err)
	}
	_, size, err := fs.cache.WriteBytes(ctx, info, []byte(target), 0)
	if err != nil {
		return ferrors.Errno(err)
	}

	fs.mu.Lock()
	if pm, merr := fs.metadata.Get(info.PathID); merr == nil {
		pm.SetSize(size)
	}
	fs.mu.Unlock()

	if err := fs.cache.Flush(ctx, info, true); err != nil {
		return ferrors.Errno(err)
	}
	if err := fs.cache.Release(ctx, info, true); err != nil {
		return ferrors.Errno(err)
	}
	return 0
}

// Rename only moves the structure subtree; sidecar files and cids
// stay named by path_id and are untouched (spec.md §4 "rename: moves
// subtrees without touching sidecars or CIDs").
func (fs *FreyaFS) Rename(oldpath string, newpath string) (errc int) {
	defer trace(oldpath, newpath)(&errc)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.structure.Rename(oldpath, newpath)
	return 0
}

// Link installs a hard link: newpath gets oldpath's existing PathInfo
// and st_nlink is bumped (libfuse's link(oldpath, newpath) convention:
// oldpath already exists, newpath is the new name).
func (fs *FreyaFS) Link(oldpath string, newpath string) (errc int) {
	defer trace(oldpath, newpath)(&errc)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	info, err := fs.structure.AddHardLink(newpath, oldpath)
	if err != nil {
		return ferrors.Errno(err)
	}
	pm, err := fs.metadata.Get(info.PathID)
	if err != nil {
		return ferrors.Errno(err)
	}
	pm.IncNlink()
	return 0
}

func (fs *FreyaFS) Utimens(path string, tmsp []fuse.Timespec) (errc int) {
	defer trace(path, tmsp)(&errc)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	pm, err := fs.statOf(path, true)
	if err != nil {
		return ferrors.Errno(err)
	}
	if len(tmsp) < 2 {
		pm.Utimens(time.Time{}, time.Time{})
		return 0
	}
	pm.Utimens(timespecToTime(tmsp[0]), timespecToTime(tmsp[1]))
	return 0
}

// timespecToTime converts a cgofuse Timespec (seconds + nanoseconds,
// the same fields port_unix.go's UtimesNano copies field-by-field)
// into a time.Time.
func timespecToTime(ts fuse.Timespec) time.Time {
	return time.Unix(ts.Sec, ts.Nsec)
}
