package docstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
)

// watchedDirs are the fixture subdirectories registered alongside the root;
// fsnotify does not recurse.
var watchedDirs = []string{
	"pollutant_bref_hierarchies",
	"pollutants",
	"bref_relevance",
	"sdgs",
}

// Watcher reports changed fixture files under a directory as
// source-relative paths.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	logger  logging.Logger
}

// NewWatcher registers root and the fixture subdirectories that exist.
func NewWatcher(root string, logger logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(root); err != nil {
		fw.Close()
		return nil, err
	}
	for _, d := range watchedDirs {
		dir := filepath.Join(root, d)
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			if err := fw.Add(dir); err != nil {
				logger.Warn("fixture directory not watched", logging.String("dir", dir), logging.Err(err))
			}
		}
	}
	return &Watcher{root: root, watcher: fw, logger: logger}, nil
}

// Run delivers changed paths to onChange until ctx is done or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context, onChange func(rel string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			w.logger.Debug("fixture changed", logging.String("path", rel), logging.String("op", ev.Op.String()))
			onChange(rel)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fixture watcher error", logging.Err(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

//Personal.AI order the ending
