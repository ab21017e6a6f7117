// Package watch reports changes to model files.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ModelExt is the extension of watched model files inside directories.
const ModelExt = ".obj"

// Watcher watches model files and directories of model files.
//
// Parent directories are watched rather than the files themselves, so
// editors that save by renaming a temporary file are still seen. One save
// can produce more than one change.
type Watcher struct {
	fw    *fsnotify.Watcher
	files map[string]bool // explicitly watched files
	dirs  map[string]bool // directories whose .obj files are all watched
	log   *zap.Logger
}

// New starts watching paths. Each path is a model file or a directory.
func New(paths []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}

	w := &Watcher{
		fw:    fw,
		files: make(map[string]bool),
		dirs:  make(map[string]bool),
		log:   zap.L().Named("watch"),
	}

	added := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "resolve %s", p)
		}

		dir := filepath.Dir(abs)
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			dir = abs
			w.dirs[abs] = true
		} else {
			w.files[abs] = true
		}

		if added[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "watch %s", dir)
		}
		added[dir] = true
	}
	return w, nil
}

// Run calls onChange for every write to or creation of a watched model
// until ctx is done. It closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	defer w.fw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if w.matches(ev.Name) {
				w.log.Debug("model changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
				onChange(ev.Name)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if w.files[abs] {
		return true
	}
	return w.dirs[filepath.Dir(abs)] && strings.EqualFold(filepath.Ext(abs), ModelExt)
}

// Watch is New followed by Run.
func Watch(ctx context.Context, paths []string, onChange func(path string)) error {
	w, err := New(paths)
	if err != nil {
		return err
	}
	return w.Run(ctx, onChange)
}
