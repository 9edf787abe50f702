package dbase

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoFileName(t *testing.T) {
	tests := map[string]string{
		"people.dbf":      "people.fpt",
		"PEOPLE.DBF":      "PEOPLE.FPT",
		"dir/people.Dbf":  "dir/people.FPT",
		"dir/sub/a.b.dbf": "dir/sub/a.b.fpt",
	}
	for in, expected := range tests {
		if got := memoFileName(in); got != expected {
			t.Errorf("%s: got %s, want %s", in, got, expected)
		}
	}
}

func TestFindFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Mixed.DBF")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	got, err := findFile(filepath.Join(dir, "mixed.dbf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Errorf("got %s, want %s", got, path)
	}
	if _, err := findFile(filepath.Join(dir, "other.dbf")); !errors.Is(err, ErrNoDBF) {
		t.Errorf("expected ErrNoDBF, got %v", err)
	}
}

func TestGenericIO(t *testing.T) {
	dir := t.TempDir()
	handle, err := os.Create(filepath.Join(dir, "generic.dbf"))
	if err != nil {
		t.Fatal(err)
	}
	memo, err := os.Create(filepath.Join(dir, "generic.fpt"))
	if err != nil {
		t.Fatal(err)
	}
	config := &Config{IO: GenericIO{Handle: handle, RelatedHandle: memo}}
	columns := []*Column{
		mustColumn(t, "NAME", Character, 5, 0, false),
		mustColumn(t, "NOTE", Memo, 0, 0, false),
	}
	file, err := NewTable(FoxPro, config, columns, 32)
	if err != nil {
		t.Fatalf("creating table on generic io failed: %v", err)
	}
	if err := file.WriteRow([]interface{}{"abc", "memo text"}); err != nil {
		t.Fatal(err)
	}
	if err := file.Close(); err != nil {
		t.Fatal(err)
	}

	handle, err = os.Open(filepath.Join(dir, "generic.dbf"))
	if err != nil {
		t.Fatal(err)
	}
	memo, err = os.Open(filepath.Join(dir, "generic.fpt"))
	if err != nil {
		t.Fatal(err)
	}
	file, err = OpenTable(&Config{IO: GenericIO{Handle: handle, RelatedHandle: memo}, TrimSpaces: true})
	if err != nil {
		t.Fatalf("opening table on generic io failed: %v", err)
	}
	defer file.Close()
	row, err := file.Next()
	if err != nil {
		t.Fatal(err)
	}
	if row.Value(0) != "abc" || row.Value(1) != "memo text" {
		t.Errorf("got %v", row.Values())
	}
}

func TestGenericIOMissingHandles(t *testing.T) {
	if _, err := (GenericIO{}).Open(&Config{}, false); !errors.Is(err, ErrNoDBF) {
		t.Errorf("expected ErrNoDBF, got %v", err)
	}
	if _, err := (GenericIO{}).Create(&Config{}, true); !errors.Is(err, ErrNoFPT) {
		t.Errorf("expected ErrNoFPT, got %v", err)
	}
}
