package controller

import (
	"time"

	"artd/internal/prompts"
)

// State is the controller lifecycle state.
type State string

const (
	StateRunning      State = "running"
	StatePaused       State = "paused"
	StateShuttingDown State = "shutting_down"
)

// WorkerRecord is a point-in-time copy of one worker's status.
type WorkerRecord struct {
	ID            int
	Name          string
	Idle          bool
	JobID         string
	JobPromptInfo string
	JobOptions    string
	JobStartTime  time.Time
	JobsDone      uint64

	// generation of the prompt source the current job came from
	jobGen uint64
}

// Elapsed returns how long the current job has been running, or 0 when idle.
func (r WorkerRecord) Elapsed(now time.Time) time.Duration {
	if r.Idle || r.JobStartTime.IsZero() {
		return 0
	}
	if d := now.Sub(r.JobStartTime); d > 0 {
		return d
	}
	return 0
}

// Job is one unit of work handed to a worker.
type Job struct {
	ID      string
	Index   int
	Prompt  string
	Options string
	Source  string

	gen uint64
}

// Assignment pairs a job with the worker it was assigned to.
type Assignment struct {
	WorkerID int
	Job      Job
}

// SourceInfo is the read-only status of the dispatch queue.
type SourceInfo struct {
	Path      string
	Total     int
	Completed int
	Pending   int
	LoopsDone int
	Repeat    bool
}

func jobFromDescriptor(id, source string, gen uint64, d prompts.Descriptor) Job {
	return Job{ID: id, Index: d.Index, Prompt: d.Prompt, Options: d.OptionsText(), Source: source, gen: gen}
}
