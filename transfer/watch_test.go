package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsChangedFiles(t *testing.T) {
	root := t.TempDir()
	writePeople(t, filepath.Join(root, "people.dbf"))

	s := openTestStore(t)
	loader := NewLoader(s, nil, Options{SkipUnchanged: true}, nil)
	watcher := NewWatcher(loader, root, nil)
	watcher.Settle = 100 * time.Millisecond
	reloaded := make(chan string, 8)
	watcher.loaded = func(path string, err error) {
		if err != nil {
			t.Errorf("reloading %s failed: %v", path, err)
			return
		}
		reloaded <- TableName(root, path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for len(loader.Session().Files()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("the folder was not loaded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	writePeople(t, filepath.Join(root, "orders.dbf"))
	select {
	case table := <-reloaded:
		if table != "orders" {
			t.Errorf("got reload of %q, want orders", table)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("the new file was not loaded")
	}
	if n := len(queryAll(t, s, `SELECT * FROM "orders"`)); n != 2 {
		t.Errorf("got %d rows, want 2", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("the watcher did not stop")
	}
}

func TestWatcherTableFile(t *testing.T) {
	root := t.TempDir()
	dbf := filepath.Join(root, "Notes.DBF")
	for _, name := range []string{dbf, filepath.Join(root, "notes.fpt"), filepath.Join(root, "orphan.fpt")} {
		if err := os.WriteFile(name, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	watcher := NewWatcher(nil, root, nil)
	if path, ok := watcher.tableFile(dbf); !ok || path != dbf {
		t.Errorf("got %q %v", path, ok)
	}
	if path, ok := watcher.tableFile(filepath.Join(root, "notes.fpt")); !ok || path != dbf {
		t.Errorf("memo file: got %q %v", path, ok)
	}
	if _, ok := watcher.tableFile(filepath.Join(root, "orphan.fpt")); ok {
		t.Error("a memo file without table must be ignored")
	}
	if _, ok := watcher.tableFile(filepath.Join(root, "readme.txt")); ok {
		t.Error("other files must be ignored")
	}
}

func TestWatcherDeliver(t *testing.T) {
	ready := make(chan string, 1)
	done := make(chan struct{})
	deliver(ready, done, "people.dbf")
	if path := <-ready; path != "people.dbf" {
		t.Errorf("got %q", path)
	}

	// Nobody receives once the event loop has returned
	close(done)
	returned := make(chan struct{})
	go func() {
		deliver(make(chan string), done, "orders.dbf")
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("a settled path blocks after the watcher stopped")
	}
}
