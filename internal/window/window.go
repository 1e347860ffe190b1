// Package window provides the fixed-capacity ring buffer shared by all
// request workers.
package window

import (
	"sync"

	"github.com/webtop-sh/webtop/internal/sample"
)

// Window retains the most recent outcomes in insertion order. Once full,
// each append evicts the single oldest entry. Appends are O(1) and safe for
// any number of concurrent writers; Snapshot copies the contents under the
// same lock so readers never observe a torn entry.
type Window struct {
	mu    sync.Mutex
	buf   []sample.Outcome
	head  int // index of the oldest entry
	count int
}

// New creates a window holding at most capacity outcomes. Capacity below 1
// is treated as 1.
func New(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]sample.Outcome, capacity)}
}

// Append records an outcome, evicting the oldest entry when full.
func (w *Window) Append(o sample.Outcome) {
	w.mu.Lock()
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = o
		w.count++
	} else {
		w.buf[w.head] = o
		w.head = (w.head + 1) % len(w.buf)
	}
	w.mu.Unlock()
}

// Snapshot returns a copy of the current contents, oldest first. The copy is
// detached: later appends do not affect it.
func (w *Window) Snapshot() []sample.Outcome {
	w.mu.Lock()
	out := make([]sample.Outcome, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	w.mu.Unlock()
	return out
}

// Len returns the number of entries currently held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Cap returns the fixed capacity.
func (w *Window) Cap() int { return len(w.buf) }
