package freyafs

import (
	"github.com/winfsp/cgofuse/fuse"

	"github.com/freyafs/freyafs/internal/metadata"
)

// fuseStat renders pm into stat, mirroring the teacher's fuseStat
// helper in src/fs/hubfs/hubfs.go (there: synthesize a Stat_t from a
// tree entry's mode/size/time; here: from a PathMetadata record that
// already carries every field FUSE wants).
func fuseStat(stat *fuse.Stat_t, pm *metadata.PathMetadata) {
	*stat = fuse.Stat_t{
		Mode:  pm.Mode,
		Nlink: pm.Nlink,
		Size:  pm.Size,
		Uid:   pm.Uid,
		Gid:   pm.Gid,
		Atim:  fuse.NewTimespec(pm.Atime),
		Mtim:  fuse.NewTimespec(pm.Mtime),
		Ctim:  fuse.NewTimespec(pm.Ctime),
	}
}
