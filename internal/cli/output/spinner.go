// Package output provides output formatting for blobnom-cli.
package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner displays a progress animation for slow operations.
type Spinner struct {
	w        io.Writer
	message  string
	frames   []string
	interval time.Duration
	done     chan struct{}
	stop     sync.Once
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}
}

// Start begins the animation. It returns immediately.
func (s *Spinner) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
				i++
			}
		}
	}()
}

// Stop halts the animation and clears the line. Stop, Success, and
// Fail are safe to call in any combination; the first call wins.
func (s *Spinner) Stop() {
	s.stop.Do(func() {
		close(s.done)
		fmt.Fprint(s.w, "\r\033[K")
	})
}

// Success halts the animation and prints a check-marked message.
func (s *Spinner) Success(message string) {
	s.stop.Do(func() {
		close(s.done)
		fmt.Fprintf(s.w, "\r\033[K✓ %s\n", message)
	})
}

// Fail halts the animation and prints a crossed message.
func (s *Spinner) Fail(message string) {
	s.stop.Do(func() {
		close(s.done)
		fmt.Fprintf(s.w, "\r\033[K✗ %s\n", message)
	})
}
