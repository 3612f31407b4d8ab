// Package ferrors defines the typed error kinds FreyaFS's core raises
// and maps them to FUSE errno codes at the surface.
package ferrors

import (
	"errors"

	"github.com/winfsp/cgofuse/fuse"
)

// Kind identifies one of the error surfaces from the design's error table.
type Kind int

const (
	NotFound Kind = iota
	AccessDenied
	OutOfMemory
	CodecFailure
	BlockStoreFailure
	Corruption
	AuthFailure
	Loop
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case AccessDenied:
		return "access denied"
	case OutOfMemory:
		return "out of memory"
	case CodecFailure:
		return "codec failure"
	case BlockStoreFailure:
		return "block store failure"
	case Corruption:
		return "corruption"
	case AuthFailure:
		return "auth failure"
	case Loop:
		return "symlink loop"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with the underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind for op, wrapping cause (may be nil).
func New(kind Kind, op string, cause error) error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Is reports whether err is a FreyaFS error of kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// Errno maps a FreyaFS error (or nil) to a cgofuse errc, the same role
// the teacher's fs/port.Errno plays for syscall.Errno values — except
// here the input is always one of our own typed errors, since FreyaFS
// never forwards a FUSE call straight through to a real syscall.
func Errno(err error) int {
	if err == nil {
		return 0
	}

	var fe *Error
	if errors.As(err, &fe) {
		switch fe.Kind {
		case NotFound:
			return -fuse.ENOENT
		case AccessDenied:
			return -fuse.EACCES
		case OutOfMemory:
			return -fuse.ENOMEM
		case Loop:
			return -fuse.ELOOP
		case CodecFailure, BlockStoreFailure, Corruption, AuthFailure:
			return -fuse.EIO
		}
	}

	return -fuse.EIO
}
