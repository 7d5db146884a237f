// Package shutdown coordinates ordered teardown of server components.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"
)

// Hook releases one component. Every hook shares the teardown
// deadline.
type Hook func(context.Context) error

// Handler waits for a stop condition and then runs registered hooks in
// reverse registration order, so a component is stopped before
// anything it depends on.
type Handler struct {
	timeout time.Duration

	mu    sync.Mutex
	hooks []Hook

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewHandler builds a Handler that gives the whole teardown the given
// amount of time.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers hook. Registration order matters: hooks run
// last-registered first.
func (h *Handler) OnShutdown(hook Hook) {
	h.mu.Lock()
	h.hooks = append(h.hooks, hook)
	h.mu.Unlock()
}

// Trigger starts teardown without an OS signal. Calls after the first
// are no-ops.
func (h *Handler) Trigger() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Wait blocks until SIGINT, SIGTERM or Trigger, then runs the hooks.
// The returned error joins every hook failure.
func (h *Handler) Wait() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case <-ctx.Done():
	case <-h.stop:
	}

	return h.run()
}

// run executes the hooks under the teardown deadline.
func (h *Handler) run() error {
	defer close(h.done)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := slices.Clone(h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Done closes once teardown has finished.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
