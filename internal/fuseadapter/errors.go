package fuseadapter

import (
	"errors"
	"syscall"

	"bazil.org/fuse"
	"github.com/fatxtool/fatx/internal/xtaf"
)

// bazil.org/fuse only predefines a handful of Errno constants;
// fuse.Errno is a defined type over syscall.Errno, so the rest of the
// POSIX codes spec §6.3 lists are named locally.
const (
	errNotDir     = syscall.ENOTDIR
	errNotEmpty   = syscall.ENOTEMPTY
	errNameTooLng = syscall.ENAMETOOLONG
	errBusy       = syscall.EBUSY
	errBadFD      = syscall.EBADF
	errPerm       = syscall.EPERM
	errAccess     = syscall.EACCES
	errROFS       = syscall.EROFS
	errNoSpace    = syscall.ENOSPC
	errExist      = syscall.EEXIST
)

// mapErr translates an engine error into the negative POSIX code
// spec §6.3 requires the mount adapter to return.
func mapErr(err error) error {
	if err == nil {
		return nil
	}

	var noSpace *xtaf.NoSpaceError
	var dupName *xtaf.DuplicateNameError
	var readOnly *xtaf.ReadOnlyError
	var outOfBounds *xtaf.OutOfBoundsError
	var deviceUnreachable *xtaf.DeviceUnreachableError
	var deviceShort *xtaf.DeviceShortError

	switch {
	case errors.As(err, &noSpace):
		return fuse.Errno(errNoSpace)
	case errors.As(err, &dupName):
		return fuse.Errno(errExist)
	case errors.As(err, &readOnly):
		return fuse.Errno(errROFS)
	case errors.As(err, &outOfBounds), errors.As(err, &deviceUnreachable), errors.As(err, &deviceShort):
		return fuse.EIO
	}
	return fuse.EIO
}
