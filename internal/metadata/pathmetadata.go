// Package metadata implements the POSIX stat bookkeeping FreyaFS keeps
// per path_id, ported from original_source/metadata/pathmetadata.py
// and metadata/metadata.py.
package metadata

import "time"

// DefaultMode is the permission bits a freshly created path starts with.
const DefaultMode = 0o755

// PathType distinguishes the three kinds of object FreyaFS tracks.
type PathType int

const (
	File PathType = iota
	Dir
	Symlink
)

// POSIX type bits, S_IFMT-masked.
const (
	sIFREG = 0o100000
	sIFDIR = 0o040000
	sIFLNK = 0o120000
)

// StatFlags returns the S_IFMT bits for t.
func (t PathType) StatFlags() uint32 {
	switch t {
	case Dir:
		return sIFDIR
	case Symlink:
		return sIFLNK
	default:
		return sIFREG
	}
}

// PathMetadata is the mutable stat record for one path_id.
type PathMetadata struct {
	Mode  uint32
	Size  int64
	Nlink uint32
	Atime time.Time
	Ctime time.Time
	Mtime time.Time
	Uid   uint32
	Gid   uint32

	pathType PathType
}

// NewEntry builds a PathMetadata of the given type, with the default
// mode and nlink (2 for a directory, 1 otherwise), owned by uid/gid.
func NewEntry(pathType PathType, mode uint32, uid, gid uint32) *PathMetadata {
	if mode == 0 {
		mode = DefaultMode
	}
	now := time.Now()
	nlink := uint32(1)
	if pathType == Dir {
		nlink = 2
	}
	return &PathMetadata{
		Mode:     mode | pathType.StatFlags(),
		Nlink:    nlink,
		Atime:    now,
		Ctime:    now,
		Mtime:    now,
		Uid:      uid,
		Gid:      gid,
		pathType: pathType,
	}
}

// Type reports the kind this metadata record belongs to.
func (m *PathMetadata) Type() PathType { return m.pathType }

func (m *PathMetadata) IsFile() bool { return m.pathType == File }
func (m *PathMetadata) IsDir() bool  { return m.pathType == Dir }

// Chmod replaces the permission bits, keeping the type bits intact.
func (m *PathMetadata) Chmod(mode uint32) {
	m.Mode = (mode &^ uint32(0o170000)) | m.pathType.StatFlags()
	m.Ctime = time.Now()
}

// Chown updates ownership to exactly uid/gid. A uid/gid of -1
// (^uint32(0), FUSE's "leave unchanged") is not special here: the
// caller replaces it with the current value before calling; this
// mirrors the source's chown(path, uid, gid).
func (m *PathMetadata) Chown(uid, gid uint32) {
	m.Uid = uid
	m.Gid = gid
	m.Ctime = time.Now()
}

// Utimens sets atime/mtime; a zero time.Time for either means "now",
// matching the source's utimens(times=None) default.
func (m *PathMetadata) Utimens(atime, mtime time.Time) {
	now := time.Now()
	if atime.IsZero() {
		atime = now
	}
	if mtime.IsZero() {
		mtime = now
	}
	m.Atime = atime
	m.Mtime = mtime
}

// SetSize updates st_size, as FreyaFS does after every write/truncate.
func (m *PathMetadata) SetSize(size int64) {
	m.Size = size
}

// IncNlink bumps the hard-link count, e.g. on link().
func (m *PathMetadata) IncNlink() {
	m.Nlink++
}

// DecNlink drops the hard-link count, e.g. on unlink(); never below 0.
func (m *PathMetadata) DecNlink() {
	if m.Nlink > 0 {
		m.Nlink--
	}
}

// dict is the JSON-shaped transfer form of one metadata entry.
type dict struct {
	StMode  uint32  `json:"st_mode"`
	StSize  int64   `json:"st_size"`
	StNlink uint32  `json:"st_nlink"`
	StAtime float64 `json:"st_atime"`
	StCtime float64 `json:"st_ctime"`
	StMtime float64 `json:"st_mtime"`
	StUid   uint32  `json:"st_uid"`
	StGid   uint32  `json:"st_gid"`
}

func toEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromEpoch(f float64) time.Time {
	return time.Unix(0, int64(f*1e9))
}

// ToDict renders m in the manifest's JSON shape.
func (m *PathMetadata) ToDict() interface{} {
	return dict{
		StMode:  m.Mode,
		StSize:  m.Size,
		StNlink: m.Nlink,
		StAtime: toEpoch(m.Atime),
		StCtime: toEpoch(m.Ctime),
		StMtime: toEpoch(m.Mtime),
		StUid:   m.Uid,
		StGid:   m.Gid,
	}
}

// typeFromMode recovers the PathType from the S_IFMT bits, since the
// manifest only persists the combined st_mode.
func typeFromMode(mode uint32) PathType {
	switch mode & 0o170000 {
	case sIFDIR:
		return Dir
	case sIFLNK:
		return Symlink
	default:
		return File
	}
}

// statFromDict parses one manifest metadata entry (as decoded into
// map[string]interface{} by encoding/json) into a PathMetadata.
func statFromDict(raw map[string]interface{}) *PathMetadata {
	m := &PathMetadata{}
	if v, ok := raw["st_mode"].(float64); ok {
		m.Mode = uint32(v)
	}
	if v, ok := raw["st_size"].(float64); ok {
		m.Size = int64(v)
	}
	if v, ok := raw["st_nlink"].(float64); ok {
		m.Nlink = uint32(v)
	}
	if v, ok := raw["st_atime"].(float64); ok {
		m.Atime = fromEpoch(v)
	}
	if v, ok := raw["st_ctime"].(float64); ok {
		m.Ctime = fromEpoch(v)
	}
	if v, ok := raw["st_mtime"].(float64); ok {
		m.Mtime = fromEpoch(v)
	}
	if v, ok := raw["st_uid"].(float64); ok {
		m.Uid = uint32(v)
	}
	if v, ok := raw["st_gid"].(float64); ok {
		m.Gid = uint32(v)
	}
	m.pathType = typeFromMode(m.Mode)
	return m
}
