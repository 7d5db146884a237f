// Package confloader loads the Blobnom server configuration.
package confloader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports edits to registered configuration files. It monitors
// each file's parent directory, so the write-to-temp-and-rename pattern
// editors use still counts as a change to the file, and it ignores
// events for any other file in those directories.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger

	mu        sync.Mutex
	files     map[string]struct{}
	callbacks []func(string)

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for watch events.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a configuration file watcher.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("confloader: create watcher: %w", err)
	}

	w := &Watcher{
		fsw:    fsw,
		logger: slog.Default(),
		files:  make(map[string]struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch registers path for change delivery.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)
	if err := w.fsw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("confloader: watch %s: %w", path, err)
	}

	w.mu.Lock()
	w.files[path] = struct{}{}
	w.mu.Unlock()

	w.logger.Debug("watching configuration file", "path", path)
	return nil
}

// OnChange registers a callback invoked with the path of a watched
// file after it changes.
func (w *Watcher) OnChange(callback func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start delivers change events until Stop is called.
func (w *Watcher) Start() {
	w.logger.Info("configuration watcher started")

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path, ok := w.watched(ev.Name)
			if !ok {
				continue
			}
			w.logger.Debug("configuration file changed",
				"path", path,
				"op", ev.Op.String())
			w.notify(path)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("configuration watch error", "error", err)
		}
	}
}

// StartAsync runs Start in a goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop ends event delivery. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.logger.Info("configuration watcher stopped")
	})
	return err
}

// watched maps an event name to the registered path it refers to.
func (w *Watcher) watched(name string) (string, bool) {
	name = filepath.Clean(name)

	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[name]
	return name, ok
}

// notify runs the callbacks outside the lock; a slow reload must not
// block Watch or OnChange.
func (w *Watcher) notify(path string) {
	w.mu.Lock()
	callbacks := slices.Clone(w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(path)
	}
}
