package artifact

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the bundle whenever the artifact file is rewritten,
// so a retrained model can be deployed by dropping the new file in
// place. Reloads are debounced because a rename shows up as several
// filesystem events.
type Watcher struct {
	path     string
	onReload func(*Bundle)
	log      *zap.SugaredLogger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewWatcher(path string, onReload func(*Bundle), log *zap.SugaredLogger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: rename-over-target replaces the inode, and
	// a watch on the file itself would be lost.
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		onReload: onReload,
		log:      log,
		watcher:  fsWatcher,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	var pending *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			bundle, err := Load(w.path)
			if err != nil {
				w.log.Warnw("artifact changed but reload failed", "path", w.path, "error", err)
				continue
			}
			w.log.Infow("artifact reloaded",
				"path", w.path,
				"model", bundle.Metadata.ModelName,
				"mape", bundle.Metadata.MAPE,
			)
			w.onReload(bundle)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnw("artifact watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
