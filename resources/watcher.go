package resources

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"ebiten-arcade/logger"
)

// Watcher reloads cached assets when their files change on disk
type Watcher struct {
	cache   *Cache
	root    string
	watcher *fsnotify.Watcher
	logger  *log.Logger

	// Reloaded receives the identifier of every successful reload, if set
	Reloaded chan<- string
}

// NewWatcher watches root and every directory below it
func NewWatcher(cache *Cache, root string, l *log.Logger) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cache:   cache,
		root:    root,
		watcher: fsWatch,
		logger:  logger.OrDefault(l, "watcher"),
	}
	if err := w.addRecursive(root); err != nil {
		fsWatch.Close()
		return nil, err
	}
	return w, nil
}

// addRecursive adds name and all sub-directories to the watch list
func (w *Watcher) addRecursive(name string) error {
	return filepath.WalkDir(name, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(walkPath)
		}
		return nil
	})
}

// Run processes file events until ctx is done, then closes the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			// New directories need their own watch
			if e.Op&fsnotify.Create != 0 {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					if err := w.addRecursive(e.Name); err != nil {
						w.logger.Warn("watch directory failed", "dir", e.Name, "err", err)
					}
					continue
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.handleFileEvent(ctx, e.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "err", err)
		}
	}
}

// handleFileEvent reloads the asset backing path, if the cache holds it
func (w *Watcher) handleFileEvent(ctx context.Context, path string) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}
	id := filepath.ToSlash(rel)
	if w.cache.State(id) != StateLoaded {
		return
	}

	if err := w.cache.Reload(ctx, id); err != nil {
		// Editors often write files in several steps, the next event retries
		w.logger.Debug("reload failed", "id", id, "err", err)
		return
	}
	if w.Reloaded != nil {
		select {
		case w.Reloaded <- id:
		default:
		}
	}
}
