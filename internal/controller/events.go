package controller

import "time"

// Event represents a controller lifecycle event.
// Minimal and stable: name + optional worker id and fields via key/values.
type Event struct {
	Name     string         `json:"name"`
	WorkerID int            `json:"worker_id,omitempty"`
	Time     time.Time      `json:"time"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// Event names published by the controller.
const (
	EventPaused        = "paused"
	EventUnpaused      = "unpaused"
	EventShutdown      = "shutdown"
	EventSourceLoaded  = "source_loaded"
	EventSourceFailed  = "source_failed"
	EventJobAssigned   = "job_assigned"
	EventJobCompleted  = "job_completed"
	EventJobFailed     = "job_failed"
	EventWorkersForced = "workers_forced_idle"
	EventLogResized    = "log_resized"
	EventLogCleared    = "log_cleared"
)

// EventPublisher receives events from the controller. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MultiPublisher fans an event out to several publishers in order.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(e Event) {
	for _, p := range m {
		p.Publish(e)
	}
}
