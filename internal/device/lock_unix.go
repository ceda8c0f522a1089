//go:build unix

package device

import (
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// lockRange takes an advisory whole-file range lock, exclusive for
// read-write devices and shared for read-only ones (spec §4.1).
// Non-*os.File afero backends (e.g. MemMapFs, used by tests) have no
// underlying fd to lock, so lockRange is a no-op for them.
func lockRange(f afero.File, readOnly bool) (func() error, error) {
	fd, ok := fileDescriptor(f)
	if !ok {
		return nil, nil
	}
	how := unix.LOCK_EX
	if readOnly {
		how = unix.LOCK_SH
	}
	if err := unix.Flock(fd, how|unix.LOCK_NB); err != nil {
		return nil, err
	}
	return func() error {
		return unix.Flock(fd, unix.LOCK_UN)
	}, nil
}

func fileDescriptor(f afero.File) (int, bool) {
	type fder interface{ Fd() uintptr }
	fd, ok := f.(fder)
	if !ok {
		return 0, false
	}
	return int(fd.Fd()), true
}
