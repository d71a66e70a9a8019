package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher notifies when an on-disk template store changes: a template
// directory is added, removed or renamed, or catalog.yaml is edited.
// fsnotify is not recursive; the root and each template directory are
// watched, which covers both cases.
type Watcher struct {
	fw       *fsnotify.Watcher
	log      *zap.Logger
	onChange func()
	done     chan struct{}
	wg       sync.WaitGroup
}

// Watch starts watching dir. onChange runs on the watcher goroutine.
func Watch(dir string, log *zap.Logger, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := fw.Add(filepath.Join(dir, e.Name())); err != nil {
				log.Warn("cannot watch template directory", zap.String("template", e.Name()), zap.Error(err))
			}
		}
	}

	w := &Watcher{
		fw:       fw,
		log:      log,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()

	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			// New template directories need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.fw.Add(event.Name)
				}
			}
			w.log.Debug("template store changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			w.onChange()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("template watcher error", zap.Error(err))

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fw.Close()
	w.wg.Wait()
	return err
}
