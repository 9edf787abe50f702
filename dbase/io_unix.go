//go:build unix

package dbase

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile places an advisory lock on the file, shared for read-only handles
func lockFile(file *os.File, write bool) error {
	how := unix.LOCK_SH
	if write {
		how = unix.LOCK_EX
	}
	return unix.Flock(int(file.Fd()), how|unix.LOCK_NB)
}

func unlockFile(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_UN)
}
