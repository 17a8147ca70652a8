package policy

import (
	"sync"
	"time"
)

// Window is a time-boxed approve-all period.
type Window struct {
	mu        sync.Mutex
	now       func() time.Time
	expiresAt time.Time
}

// NewWindow creates a closed window. now defaults to time.Now.
func NewWindow(now func() time.Time) *Window {
	if now == nil {
		now = time.Now
	}
	return &Window{now: now}
}

// Open starts an approve-all period of length d. A non-positive d is a no-op.
func (w *Window) Open(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expiresAt = w.now().Add(d)
	return true
}

// Active reports whether the window is open. An expired window is cleared.
func (w *Window) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.expiresAt.IsZero() {
		return false
	}
	if w.now().Before(w.expiresAt) {
		return true
	}
	w.expiresAt = time.Time{}
	return false
}

// ExpiresAt returns the end of the current window, or the zero time.
func (w *Window) ExpiresAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expiresAt
}

// Close ends the window immediately.
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expiresAt = time.Time{}
}
