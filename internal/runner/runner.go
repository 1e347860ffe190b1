// Package runner drives concurrent request workers against a single target
// and exposes on-demand statistics over their rolling results.
package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/webtop-sh/webtop/internal/stats"
	"github.com/webtop-sh/webtop/internal/window"
)

// ErrAlreadyStarted is returned by Start when the runner has already run.
var ErrAlreadyStarted = errors.New("runner already started")

// Runner owns the worker pool, the shared result window, and the run's
// cancellation. Workers are independent: their only shared state is the
// window, the run context, and the optional rate limiter.
type Runner struct {
	opt     Options
	exec    *Executor
	win     *window.Window
	limiter *rate.Limiter
	log     *zap.Logger

	started    atomic.Bool
	cancel     context.CancelFunc
	timer      *time.Timer
	stopOnce   sync.Once
	reportOnce sync.Once
	wg         sync.WaitGroup
	done       chan struct{}
}

// New creates a Runner for one run.
func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{
		opt:     opt,
		exec:    NewExecutor(opt),
		win:     window.New(opt.WindowSize),
		limiter: opt.limiter(),
		log:     opt.Logger,
		done:    make(chan struct{}),
	}
}

// Start spawns the workers and returns immediately. When a run duration was
// configured, a timer cancels the run after it elapses; the timer and a
// manual Stop are idempotent with each other. Start is not reentrant: a
// Runner manages exactly one run.
func (r *Runner) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	if r.opt.Duration > 0 {
		r.timer = time.AfterFunc(r.opt.Duration, cancel)
	}

	r.log.Info("run started",
		zap.String("url", r.opt.URL),
		zap.String("method", r.opt.Method),
		zap.Int("workers", r.opt.Workers),
		zap.Int("window", r.opt.WindowSize),
		zap.Duration("duration", r.opt.Duration),
	)

	r.wg.Add(r.opt.Workers)
	for i := 0; i < r.opt.Workers; i++ {
		go r.worker(runCtx, i)
	}
	go func() {
		r.wg.Wait()
		close(r.done)
	}()
	return nil
}

// Done is closed once every worker has stopped, whether the run ended by
// Stop, by parent context cancellation, or by the duration timer.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// worker loops until cancelled: one request, one append, one cancellation
// check. The check happens only between attempts, so the worst-case exit
// latency is one in-flight request bounded by the client timeout.
func (r *Runner) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	r.log.Debug("worker started", zap.Int("worker", id))
	defer r.log.Debug("worker stopped", zap.Int("worker", id))

	for {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return
			}
		}
		r.win.Append(r.exec.Do(ctx))
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Stop cancels the run and blocks until every worker has finished its
// current attempt. Safe to call any number of times, including before Start.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		if r.timer != nil {
			r.timer.Stop()
		}
		if r.cancel != nil {
			r.cancel()
		}
	})
	r.wg.Wait()
	r.reportOnce.Do(func() {
		r.log.Info("run stopped", zap.Int("samples", r.win.Len()))
	})
}

// Stats aggregates a point-in-time snapshot of the result window. Callable
// at any time, during or after the run, on any cadence.
func (r *Runner) Stats() stats.Snapshot {
	return stats.Compute(r.opt.URL, r.opt.Method, r.win.Snapshot())
}
