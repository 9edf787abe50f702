//go:build windows

package dbase

import (
	"math"
	"os"

	"golang.org/x/sys/windows"
)

// lockFile locks the whole file, shared for read-only handles
func lockFile(file *os.File, write bool) error {
	flags := uint32(windows.LOCKFILE_FAIL_IMMEDIATELY)
	if write {
		flags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	o := &windows.Overlapped{}
	return windows.LockFileEx(windows.Handle(file.Fd()), flags, 0, math.MaxUint32, math.MaxUint32, o)
}

func unlockFile(file *os.File) error {
	o := &windows.Overlapped{}
	return windows.UnlockFileEx(windows.Handle(file.Fd()), 0, math.MaxUint32, math.MaxUint32, o)
}
