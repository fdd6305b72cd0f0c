package controller

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Controller is the single coordination point for the worker fleet: it
// composes the Pool, the OutputLog and the DispatchQueue and owns the
// process-wide lifecycle state.
type Controller struct {
	mu    sync.RWMutex
	state State

	// serializes Dispatch so two callers never race for the same idle worker
	dispatchMu sync.Mutex

	startupTime   time.Time
	totalJobsDone atomic.Uint64

	pool       *Pool
	outlog     *OutputLog
	queue      *DispatchQueue
	promptsDir string

	pubMu     sync.RWMutex
	publisher EventPublisher

	log      zerolog.Logger
	now      func() time.Time
	done     chan struct{}
	wake     chan struct{}
	newJobID func() string
}

// SetEventPublisher replaces the event publisher; nil restores the no-op one.
func (c *Controller) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	c.pubMu.Lock()
	c.publisher = p
	c.pubMu.Unlock()
}

func (c *Controller) publish(name string, workerID int, fields map[string]any) {
	c.pubMu.RLock()
	p := c.publisher
	c.pubMu.RUnlock()
	p.Publish(Event{Name: name, WorkerID: workerID, Time: c.now(), Fields: fields})
}

// signalWake nudges the dispatch loop without blocking.
func (c *Controller) signalWake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsPaused reports whether dispatch is paused.
func (c *Controller) IsPaused() bool { return c.State() == StatePaused }

// Ready reports whether the controller still accepts work.
func (c *Controller) Ready() bool { return c.State() != StateShuttingDown }

// Pause stops new assignments. In-flight jobs keep running. It reports
// whether the state changed; pausing twice is a no-op.
func (c *Controller) Pause() bool {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return false
	}
	c.state = StatePaused
	c.mu.Unlock()
	controllerPaused.Set(1)
	c.log.Info().Msg("dispatch paused")
	c.publish(EventPaused, 0, nil)
	return true
}

// Unpause resumes assignments after Pause. No-op unless paused.
func (c *Controller) Unpause() bool {
	c.mu.Lock()
	if c.state != StatePaused {
		c.mu.Unlock()
		return false
	}
	c.state = StateRunning
	c.mu.Unlock()
	controllerPaused.Set(0)
	c.log.Info().Msg("dispatch resumed")
	c.publish(EventUnpaused, 0, nil)
	c.signalWake()
	return true
}

// Shutdown moves the controller to its terminal state: no further jobs are
// assigned and Done is closed. In-flight jobs are left to the driving
// process, which may wait for them or abort them with ForceIdleAll.
func (c *Controller) Shutdown() bool {
	c.mu.Lock()
	if c.state == StateShuttingDown {
		c.mu.Unlock()
		return false
	}
	c.state = StateShuttingDown
	close(c.done)
	c.mu.Unlock()
	controllerPaused.Set(0)
	c.log.Warn().Msg("shutdown requested; no new jobs will be assigned")
	c.publish(EventShutdown, 0, nil)
	return true
}

// Done is closed once Shutdown has been called.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Wake receives a value whenever new work may be assignable: after a source
// load, an unpause, or a worker becoming idle. Signals are coalesced.
func (c *Controller) Wake() <-chan struct{} { return c.wake }

// StartupTime returns the construction time.
func (c *Controller) StartupTime() time.Time { return c.startupTime }

// Uptime returns the time elapsed since construction.
func (c *Controller) Uptime() time.Duration { return c.now().Sub(c.startupTime) }

// TotalJobsDone returns the number of jobs completed across all workers.
func (c *Controller) TotalJobsDone() uint64 { return c.totalJobsDone.Load() }

// Pool returns the worker pool. Completing jobs directly on the pool bypasses
// TotalJobsDone; use RecordJobCompletion instead.
func (c *Controller) Pool() *Pool { return c.pool }

// OutputLog returns the rolling output log.
func (c *Controller) OutputLog() *OutputLog { return c.outlog }

// Queue returns the dispatch queue.
func (c *Controller) Queue() *DispatchQueue { return c.queue }

// SwitchPromptSource activates a new prompt file. Errors from the queue
// (NotFound, ParseError, InvalidArgument) are returned unchanged and leave
// the current source active.
func (c *Controller) SwitchPromptSource(path string) error {
	if c.State() == StateShuttingDown {
		return shuttingDownError{op: "switch prompt source"}
	}
	err := c.queue.LoadSource(path)
	sourceLoadsTotal.WithLabelValues(loadResult(err)).Inc()
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("prompt file not loaded")
		c.publish(EventSourceFailed, 0, map[string]any{"path": path, "error": err.Error()})
		return err
	}
	info := c.queue.CurrentSourceInfo()
	c.log.Info().Str("path", info.Path).Int("jobs", info.Total).Bool("repeat", info.Repeat).Msg("prompt file loaded")
	c.publish(EventSourceLoaded, 0, map[string]any{"path": info.Path, "total": info.Total})
	c.signalWake()
	return nil
}

// ReloadPromptSource re-reads the active prompt file from the start.
func (c *Controller) ReloadPromptSource() error {
	path := c.queue.CurrentSourceInfo().Path
	if path == "" {
		return ErrInvalidArgument("no prompt file loaded")
	}
	return c.SwitchPromptSource(path)
}

// LogLines returns the output log contents, oldest first.
func (c *Controller) LogLines() []string { return c.outlog.Snapshot() }

// LogCapacity returns the maximum number of output log entries kept.
func (c *Controller) LogCapacity() int { return c.outlog.Cap() }

// ResizeLog changes the output log capacity.
func (c *Controller) ResizeLog(n int) error {
	if err := c.outlog.Resize(n); err != nil {
		return err
	}
	c.publish(EventLogResized, 0, map[string]any{"capacity": n})
	return nil
}

// ClearLog empties the output log.
func (c *Controller) ClearLog() {
	c.outlog.Clear()
	c.publish(EventLogCleared, 0, nil)
}
