package freyafs

import (
	"context"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/freyafs/freyafs/internal/ferrors"
	"github.com/freyafs/freyafs/internal/pathinfo"
)

// noHandle is returned as fh on error, matching port.Open's
// ^uint64(0) sentinel for "no file descriptor" (FreyaFS never hands
// out a real fd; the cache is keyed by PathInfo, re-resolved from
// path on every call, so fh itself carries no state).
const noHandle = ^uint64(0)

func (fs *FreyaFS) Open(path string, flags int) (errc int, fh uint64) {
	defer trace(path, flags)(&errc, &fh)

	fs.mu.Lock()
	info, err := fs.structure.Get(path, true)
	fs.mu.Unlock()
	if err != nil {
		return ferrors.Errno(err), noHandle
	}

	if err := fs.cache.Open(context.Background(), info); err != nil {
		return ferrors.Errno(err), noHandle
	}
	return 0, 0
}

func (fs *FreyaFS) Create(path string, flags int, mode uint32) (errc int, fh uint64) {
	defer trace(path, flags, mode)(&errc, &fh)

	fs.mu.Lock()
	info := pathinfo.New()
	uid, gid, _ := fuse.Getcontext()
	fs.structure.Add(path, info)
	fs.metadata.AddFile(info.PathID, mode, uid, gid)
	fs.mu.Unlock()

	if err := fs.cache.Create(context.Background(), info); err != nil {
		return ferrors.Errno(err), noHandle
	}
	return 0, 0
}

func (fs *FreyaFS) Read(path string, buff []byte, ofst int64, fh uint64) (n int) {
	defer trace(path, ofst, fh)(&n)

	fs.mu.Lock()
	info, err := fs.structure.Get(path, true)
	fs.mu.Unlock()
	if err != nil {
		return ferrors.Errno(err)
	}

	data, err := fs.cache.ReadBytes(context.Background(), info, int(ofst), len(buff))
	if err != nil {
		return ferrors.Errno(err)
	}
	return copy(buff, data)
}

func (fs *FreyaFS) Write(path string, buff []byte, ofst int64, fh uint64) (n int) {
	defer trace(path, ofst, fh)(&n)

	fs.mu.Lock()
	info, err := fs.structure.Get(path, true)
	fs.mu.Unlock()
	if err != nil {
		return ferrors.Errno(err)
	}

	written, size, err := fs.cache.WriteBytes(context.Background(), info, buff, int(ofst))
	if err != nil {
		return ferrors.Errno(err)
	}

	fs.mu.Lock()
	if pm, merr := fs.metadata.Get(info.PathID); merr == nil {
		pm.SetSize(size)
	}
	fs.mu.Unlock()

	return written
}

func (fs *FreyaFS) Truncate(path string, size int64, fh uint64) (errc int) {
	defer trace(path, size, fh)(&errc)

	fs.mu.Lock()
	info, err := fs.structure.Get(path, true)
	fs.mu.Unlock()
	if err != nil {
		return ferrors.Errno(err)
	}

	if err := fs.cache.TruncateBytes(context.Background(), info, int(size)); err != nil {
		return ferrors.Errno(err)
	}

	fs.mu.Lock()
	if pm, merr := fs.metadata.Get(info.PathID); merr == nil {
		pm.SetSize(size)
	}
	fs.mu.Unlock()
	return 0
}

func (fs *FreyaFS) Flush(path string, fh uint64) (errc int) {
	defer trace(path, fh)(&errc)

	fs.mu.Lock()
	info, err := fs.structure.Get(path, true)
	fs.mu.Unlock()
	if err != nil {
		return ferrors.Errno(err)
	}

	if err := fs.cache.Flush(context.Background(), info, true); err != nil {
		return ferrors.Errno(err)
	}
	return 0
}

func (fs *FreyaFS) Release(path string, fh uint64) (errc int) {
	defer trace(path, fh)(&errc)

	fs.mu.Lock()
	info, err := fs.structure.Get(path, true)
	fs.mu.Unlock()
	if err != nil {
		return ferrors.Errno(err)
	}

	if err := fs.cache.Release(context.Background(), info, false); err != nil {
		return ferrors.Errno(err)
	}
	return 0
}

func (fs *FreyaFS) Fsync(path string, datasync bool, fh uint64) (errc int) {
	defer trace(path, datasync, fh)(&errc)
	return fs.Flush(path, fh)
}
