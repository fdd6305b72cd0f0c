// Package fleet drives a controller: it runs one goroutine per worker,
// feeds them through Controller.Dispatch and reports every job outcome back.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"artd/internal/controller"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultInterval     = 250 * time.Millisecond
	defaultDrainTimeout = 30 * time.Second
	abortGrace          = 5 * time.Second
)

// ErrDrainTimeout is returned by Run when in-flight jobs had to be aborted.
var ErrDrainTimeout = errors.New("drain timeout: in-flight jobs aborted")

// Executor runs one job. It must return promptly once ctx is canceled.
// Anything written to out ends up in the output log, one entry per line.
type Executor interface {
	Execute(ctx context.Context, job controller.Job, out io.Writer) error
}

// Config holds fleet tunables.
type Config struct {
	// Interval between dispatch passes when nothing wakes the loop.
	Interval time.Duration
	// DrainTimeout bounds how long shutdown waits for in-flight jobs.
	DrainTimeout time.Duration
	Logger       *zerolog.Logger
}

// Fleet runs jobs for a controller.
type Fleet struct {
	ctrl         *controller.Controller
	exec         Executor
	interval     time.Duration
	drainTimeout time.Duration
	log          zerolog.Logger

	mu    sync.Mutex
	slots map[int]chan controller.Job
	wg    sync.WaitGroup
}

// New constructs a Fleet; Run starts it.
func New(ctrl *controller.Controller, exec Executor, cfg Config) *Fleet {
	f := &Fleet{
		ctrl:         ctrl,
		exec:         exec,
		interval:     cfg.Interval,
		drainTimeout: cfg.DrainTimeout,
		log:          zerolog.Nop(),
		slots:        make(map[int]chan controller.Job),
	}
	if f.interval <= 0 {
		f.interval = defaultInterval
	}
	if f.drainTimeout <= 0 {
		f.drainTimeout = defaultDrainTimeout
	}
	if cfg.Logger != nil {
		f.log = *cfg.Logger
	}
	return f
}

// Run dispatches until ctx is done or the controller shuts down, then waits
// up to DrainTimeout for in-flight jobs. Jobs still running after that are
// canceled and their workers forced idle; Run then returns ErrDrainTimeout.
func (f *Fleet) Run(ctx context.Context) error {
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	for _, r := range f.ctrl.Pool().SnapshotAll() {
		f.slot(jobCtx, r.ID)
	}
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.dispatch(jobCtx)
loop:
	for {
		select {
		case <-ctx.Done():
			f.ctrl.Shutdown()
			break loop
		case <-f.ctrl.Done():
			break loop
		case <-ticker.C:
		case <-f.ctrl.Wake():
		}
		f.dispatch(jobCtx)
	}

	f.mu.Lock()
	for id, ch := range f.slots {
		close(ch)
		delete(f.slots, id)
	}
	f.mu.Unlock()
	return f.drain(cancelJobs)
}

func (f *Fleet) dispatch(jobCtx context.Context) {
	for _, a := range f.ctrl.Dispatch() {
		// a worker assigned by Dispatch is idle, so its slot is always empty
		f.slot(jobCtx, a.WorkerID) <- a.Job
	}
}

// slot returns the job channel of a worker, starting its goroutine on first use.
func (f *Fleet) slot(jobCtx context.Context, id int) chan controller.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.slots[id]; ok {
		return ch
	}
	ch := make(chan controller.Job, 1)
	f.slots[id] = ch
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for job := range ch {
			f.run(jobCtx, id, job)
		}
	}()
	return ch
}

func (f *Fleet) run(ctx context.Context, id int, job controller.Job) {
	out := newLineWriter(f.log, id)
	err := f.execute(ctx, job, out)
	out.Flush()
	if err != nil {
		if rerr := f.ctrl.RecordJobFailure(id, err); rerr != nil && !controller.IsInvalidArgument(rerr) {
			f.log.Error().Err(rerr).Int("worker", id).Msg("record job failure")
		}
		return
	}
	if rerr := f.ctrl.RecordJobCompletion(id); rerr != nil && !controller.IsInvalidArgument(rerr) {
		f.log.Error().Err(rerr).Int("worker", id).Msg("record job completion")
	}
}

// execute shields the worker goroutine from executor panics.
func (f *Fleet) execute(ctx context.Context, job controller.Job, out io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return f.exec.Execute(ctx, job, out)
}

func (f *Fleet) drain(cancelJobs context.CancelFunc) error {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	busy := len(f.ctrl.Pool().SnapshotAll()) - len(f.ctrl.Pool().IdleIDs())
	if busy > 0 {
		f.log.Info().Int("jobs", busy).Dur("timeout", f.drainTimeout).Msg("waiting for in-flight jobs")
	}
	timer := time.NewTimer(f.drainTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
	}
	f.ctrl.ForceIdleAll()
	cancelJobs()
	select {
	case <-done:
	case <-time.After(abortGrace):
		f.log.Error().Msg("executors ignored cancellation")
	}
	return ErrDrainTimeout
}
