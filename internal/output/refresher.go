package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/webtop-sh/webtop/internal/config"
	"github.com/webtop-sh/webtop/internal/stats"
)

// clearSequence moves the cursor home and wipes the screen.
const clearSequence = "\033[H\033[2J"

// Refresher redraws the current statistics on its own cadence, decoupled
// from request issuance: it pulls a fresh snapshot from the source each tick.
type Refresher struct {
	source   func() stats.Snapshot
	format   config.OutputFormat
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
}

// NewRefresher creates a refresher that redraws at the given interval.
func NewRefresher(source func() stats.Snapshot, format config.OutputFormat, interval time.Duration, writer io.Writer) *Refresher {
	if writer == nil {
		writer = io.Discard
	}
	return &Refresher{
		source:   source,
		format:   format,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins redrawing in a background goroutine.
func (r *Refresher) Start() {
	if !atomic.CompareAndSwapInt32(&r.active, 0, 1) {
		return // already running
	}
	go r.run()
}

// Stop halts redrawing and waits for the last draw to finish.
func (r *Refresher) Stop() {
	if atomic.CompareAndSwapInt32(&r.active, 1, 0) {
		close(r.done)
		r.ticker.Stop()
		<-r.finished
	}
}

func (r *Refresher) run() {
	defer close(r.finished)
	for {
		select {
		case <-r.ticker.C:
			fmt.Fprint(r.writer, clearSequence)
			if err := Render(r.writer, BuildReport(r.source()), r.format); err != nil {
				return
			}
		case <-r.done:
			return
		}
	}
}
