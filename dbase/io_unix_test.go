//go:build unix

package dbase

import (
	"path/filepath"
	"testing"
)

func TestExclusiveLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.dbf")
	createTestTable(t, path, []*Column{mustColumn(t, "NAME", Character, 4, 0, false)}, nil)

	file, err := OpenTable(&Config{Filename: path, Exclusive: true})
	if err != nil {
		t.Fatalf("opening exclusively failed: %v", err)
	}
	if _, err := OpenTable(&Config{Filename: path, Exclusive: true}); err == nil {
		t.Error("expected second exclusive open to fail")
	}
	if err := file.Close(); err != nil {
		t.Fatal(err)
	}
	file, err = OpenTable(&Config{Filename: path, Exclusive: true})
	if err != nil {
		t.Fatalf("expected lock to be released on close, got %v", err)
	}
	file.Close()
}
