package dbase

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Handle is an open table or memo file
type Handle interface {
	io.ReadWriteSeeker
	io.Closer
}

// IO is the interface to get the file handles of a table.
// Two implementations are available:
// - FileIO (for direct file access, with platform specific locking)
// - GenericIO (for any custom file access implementing io.ReadWriteSeeker)
// If memo is true the handle of the memo file belonging to the table is requested.
type IO interface {
	Open(config *Config, memo bool) (Handle, error)
	Create(config *Config, memo bool) (Handle, error)
}

// FileIO implements the IO interface on the local file system
type FileIO struct{}

// DefaultIO is used if the configuration does not define an IO
var DefaultIO IO = FileIO{}

func (f FileIO) Open(config *Config, memo bool) (Handle, error) {
	fileName, err := findFile(filepath.Clean(config.Filename))
	if err != nil {
		return nil, newError("dbase-io-open-1", err)
	}
	if memo {
		fileName, err = findFile(memoFileName(fileName))
		if err != nil {
			return nil, newErrorf("dbase-io-open-2", "%w: %v", ErrNoFPT, err)
		}
	}
	mode := os.O_RDWR
	if config.ReadOnly {
		mode = os.O_RDONLY
	}
	debugf("Opening file: %s - Exclusive: %v - Read only: %v", fileName, config.Exclusive, config.ReadOnly)
	handle, err := f.open(fileName, mode, config.Exclusive)
	if err != nil {
		return nil, newErrorf("dbase-io-open-3", "opening file failed with error: %w", err)
	}
	return handle, nil
}

func (f FileIO) Create(config *Config, memo bool) (Handle, error) {
	fileName := filepath.Clean(config.Filename)
	if memo {
		fileName = memoFileName(fileName)
	}
	debugf("Creating file: %s - Exclusive: %v", fileName, config.Exclusive)
	handle, err := f.open(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, config.Exclusive)
	if err != nil {
		return nil, newErrorf("dbase-io-create-1", "creating file failed with error: %w", err)
	}
	return handle, nil
}

func (f FileIO) open(name string, mode int, exclusive bool) (Handle, error) {
	file, err := os.OpenFile(name, mode, 0644)
	if err != nil {
		return nil, err
	}
	if !exclusive {
		return file, nil
	}
	if err := lockFile(file, mode&(os.O_RDWR|os.O_WRONLY) != 0); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("locking %s failed: %w", name, err)
	}
	return &lockedFile{File: file}, nil
}

// lockedFile releases the lock on close
type lockedFile struct {
	*os.File
}

func (l *lockedFile) Close() error {
	if err := unlockFile(l.File); err != nil {
		errorf("Unlocking %s failed: %v", l.Name(), err)
	}
	return l.File.Close()
}

// memoFileName returns the name of the memo file, using the case of the table extension
func memoFileName(fileName string) string {
	ext := filepath.Ext(fileName)
	memo := string(FPT)
	if ext != "" && ext == strings.ToLower(ext) {
		memo = strings.ToLower(memo)
	}
	return strings.TrimSuffix(fileName, ext) + memo
}

// findFile returns the path of the file, matching the file name case-insensitively if needed
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	dir, base := filepath.Split(name)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDBF, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(entry.Name(), base) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoDBF, name)
}
