// Package tlsroots reloads serving certificates for Blobnom's TLS listeners.
package tlsroots

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after a file event before the
// certificate pair reloads. Rotation tools rewrite the certificate and
// key as separate operations; waiting lets both land so one reload
// picks up a matching pair.
const DefaultDebounce = 500 * time.Millisecond

// Watcher keeps the serving certificate for a TLS listener fresh. It
// watches the certificate and key files with fsnotify and swaps the
// reloaded pair in atomically, so handshakes in flight keep the pair
// they started with and new handshakes see the rotated one.
type Watcher struct {
	certFile string
	keyFile  string

	current atomic.Pointer[tls.Certificate]

	debounce time.Duration
	logger   *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for load and watch events.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher loads the certificate pair from certFile and keyFile and
// returns a watcher ready to serve it. A pair that fails to load fails
// here, before any listener starts handing out handshakes.
func NewWatcher(certFile, keyFile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// GetCertificate returns the current certificate. Its signature matches
// tls.Config.GetCertificate.
func (w *Watcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	if cert := w.current.Load(); cert != nil {
		return cert, nil
	}
	return nil, errors.New("tlsroots: no certificate loaded")
}

// Start watches the certificate and key files until Stop is called.
// It watches their parent directories rather than the files themselves,
// which survives the rename-and-replace pattern editors and rotation
// tools use.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.watchDirs() {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	w.logger.Info("watching certificate files",
		"cert", w.certFile,
		"key", w.keyFile)

	// Events reset the debounce timer; the reload runs once the files
	// have been quiet for the full debounce window.
	var pending *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(w.debounce)
				fire = pending.C
				continue
			}
			if !pending.Stop() {
				<-pending.C
			}
			pending.Reset(w.debounce)

		case <-fire:
			pending = nil
			fire = nil
			if err := w.reload(); err != nil {
				// Keep serving the previous pair.
				w.logger.Error("certificate reload failed",
					"cert", w.certFile,
					"error", err)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("certificate watch error", "error", err)
		}
	}
}

// StartAsync runs Start in a goroutine, logging any watch failure.
func (w *Watcher) StartAsync() {
	go func() {
		if err := w.Start(); err != nil {
			w.logger.Error("certificate watcher stopped", "error", err)
		}
	}()
}

// Stop ends the watch loop. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// watchDirs returns the parent directories to watch, deduplicated for
// the common case of the certificate and key living side by side.
func (w *Watcher) watchDirs() []string {
	certDir := filepath.Dir(w.certFile)
	keyDir := filepath.Dir(w.keyFile)
	if keyDir == certDir {
		return []string{certDir}
	}
	return []string{certDir, keyDir}
}

// relevant reports whether ev is a write to one of the watched files.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	name := filepath.Base(ev.Name)
	return name == filepath.Base(w.certFile) || name == filepath.Base(w.keyFile)
}

// reload loads the pair from disk and publishes it. On failure the
// previous certificate stays in place, so a half-written rotation never
// takes the listener down.
func (w *Watcher) reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	w.current.Store(&cert)

	attrs := []any{"cert", w.certFile}
	if cert.Leaf != nil {
		attrs = append(attrs, "expires", cert.Leaf.NotAfter.Format(time.RFC3339))
	}
	w.logger.Info("certificate loaded", attrs...)
	return nil
}
