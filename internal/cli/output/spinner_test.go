package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncWriter serializes writes from the spinner goroutine.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestSpinnerSuccess(t *testing.T) {
	w := &syncWriter{}
	s := NewSpinner(w, "working")
	s.Start()
	time.Sleep(250 * time.Millisecond)
	s.Success("done")

	out := w.String()
	if !strings.Contains(out, "working") {
		t.Errorf("output missing spinner message: %q", out)
	}
	if !strings.Contains(out, "✓ done\n") {
		t.Errorf("output missing success line: %q", out)
	}
}

func TestSpinnerFail(t *testing.T) {
	w := &syncWriter{}
	s := NewSpinner(w, "working")
	s.Start()
	s.Fail("broke")

	if !strings.Contains(w.String(), "✗ broke\n") {
		t.Errorf("output missing fail line: %q", w.String())
	}
}

func TestSpinnerStopIdempotent(t *testing.T) {
	w := &syncWriter{}
	s := NewSpinner(w, "working")
	s.Start()
	s.Stop()
	s.Stop()
	s.Success("late")

	if strings.Contains(w.String(), "late") {
		t.Errorf("Success after Stop still printed: %q", w.String())
	}
}
