package transfer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultSettle is the time a file has to stay unchanged before it is reloaded
const DefaultSettle = 500 * time.Millisecond

// Watcher keeps the store in sync with a folder: changed DBF and FPT files are reloaded
type Watcher struct {
	// Settle is the time a file has to stay unchanged before it is reloaded, defaults to DefaultSettle
	Settle time.Duration

	loader *Loader
	root   string
	logger *zap.SugaredLogger
	// loaded is notified with the path of every reload attempt
	loaded func(path string, err error)
}

// NewWatcher returns a watcher reloading the files below root with the loader
func NewWatcher(loader *Loader, root string, logger *zap.SugaredLogger) *Watcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Watcher{
		Settle: DefaultSettle,
		loader: loader,
		root:   root,
		logger: logger.Named("watcher"),
	}
}

// Run loads the folder and reloads changed files until the context is done.
// A failing reload is logged and does not stop the watcher.
func (w *Watcher) Run(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		err = multierr.Append(err, watcher.Close())
	}()
	if err := w.watchTree(watcher, w.root); err != nil {
		return err
	}
	if err := w.loader.LoadFolder(ctx, w.root); err != nil {
		return err
	}

	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	ready := make(chan string)
	done := make(chan struct{})
	timers := make(map[string]*time.Timer)
	defer func() {
		close(done)
		for _, timer := range timers {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchTree(watcher, event.Name); err != nil {
						w.logger.Warnf("Watching %s failed: %v", event.Name, err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path, ok := w.tableFile(event.Name)
			if !ok {
				continue
			}
			if timer, exists := timers[path]; exists {
				timer.Stop()
			}
			timers[path] = time.AfterFunc(settle, func() {
				deliver(ready, done, path)
			})
		case path := <-ready:
			delete(timers, path)
			w.logger.Infof("File changed: %s", path)
			err := w.loader.LoadFile(ctx, w.root, path)
			if err != nil {
				w.logger.Errorf("Reloading %s failed: %v", path, err)
			}
			if w.loaded != nil {
				w.loaded(path, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnf("Watcher error: %v", err)
		}
	}
}

// deliver hands a settled path to the event loop unless the loop has returned
func deliver(ready chan<- string, done <-chan struct{}, path string) {
	select {
	case ready <- path:
	case <-done:
	}
}

// watchTree adds the folder and all of its sub folders
func (w *Watcher) watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		if !entry.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("%w: watch %s: %w", ErrIO, path, err)
		}
		return nil
	})
}

// tableFile returns the DBF file a changed file belongs to, memo files resolve to their table
func (w *Watcher) tableFile(name string) (string, bool) {
	if isDBF(name) {
		return name, true
	}
	ext := filepath.Ext(name)
	if !strings.EqualFold(ext, ".fpt") {
		return "", false
	}
	base := strings.TrimSuffix(filepath.Base(name), ext)
	entries, err := os.ReadDir(filepath.Dir(name))
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		n := entry.Name()
		if !entry.IsDir() && isDBF(n) && strings.EqualFold(strings.TrimSuffix(n, filepath.Ext(n)), base) {
			return filepath.Join(filepath.Dir(name), n), true
		}
	}
	return "", false
}
