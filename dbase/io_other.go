//go:build !unix && !windows

package dbase

import "os"

// Locking is not supported on this platform
func lockFile(file *os.File, write bool) error {
	debugf("File locking is not supported, opening %s without lock", file.Name())
	return nil
}

func unlockFile(file *os.File) error {
	return nil
}
