package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// WorkerStatus summarizes one worker for /api/workers and /api/status.
type WorkerStatus struct {
	// Stable worker identifier.
	// example: 1
	ID int `json:"id" example:"1"`
	// Display label.
	// example: gpu-0
	Name string `json:"name" example:"gpu-0"`
	// True when no job is assigned.
	Idle bool `json:"idle"`
	// Identifier of the current job (empty when idle).
	JobID string `json:"job_id,omitempty"`
	// Prompt text of the current job (empty when idle).
	// example: a lighthouse at dusk, oil painting
	PromptInfo string `json:"prompt_info,omitempty" example:"a lighthouse at dusk, oil painting"`
	// Options of the current job rendered as key=value pairs.
	// example: width=512, height=512
	PromptOptions string `json:"prompt_options,omitempty" example:"width=512, height=512"`
	// Job start time in unix seconds (0 when idle).
	JobStartUnix int64 `json:"job_start_unix,omitempty"`
	// Seconds the current job has been running (0 when idle).
	// example: 42
	ElapsedSeconds int64 `json:"elapsed_seconds" example:"42"`
	// Jobs this worker has completed.
	// example: 12
	JobsDone uint64 `json:"jobs_done" example:"12"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	// Controller state: running, paused or shutting_down.
	// example: running
	State string `json:"state" example:"running"`
	// Convenience flag mirroring State == paused.
	Paused bool `json:"paused"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server start time in unix seconds.
	StartedUnix int64 `json:"started_unix"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Jobs completed across all workers since startup.
	// example: 1234
	TotalJobsDone uint64 `json:"total_jobs_done" example:"1234"`
	// Number of workers currently running a job.
	BusyWorkers int `json:"busy_workers"`
	// Number of idle workers.
	IdleWorkers int `json:"idle_workers"`
	// Per-worker status, ordered by id.
	Workers []WorkerStatus `json:"workers"`
	// Active prompt source.
	Source PromptSourceInfo `json:"source"`
	// Entries currently held by the output log.
	LogEntries int `json:"log_entries"`
	// Maximum entries the output log keeps.
	// example: 100
	LogCapacity int `json:"log_capacity" example:"100"`
}

// LogResponse is returned by GET /api/log.
type LogResponse struct {
	// Log entries, oldest first.
	Lines []string `json:"lines"`
	// Maximum entries kept.
	Capacity int `json:"capacity"`
}

// LogLengthRequest is the payload of PUT /api/log/length.
type LogLengthRequest struct {
	// New output log capacity; must be >= 0.
	// example: 250
	Length *int `json:"length" example:"250"`
}

// PromptSourceRequest is the payload of POST /api/prompt-source.
type PromptSourceRequest struct {
	// Path of the prompt file to activate.
	Path string `json:"path"`
}

// ControlResponse is returned by the pause/unpause/shutdown endpoints.
type ControlResponse struct {
	// State after the operation.
	// example: paused
	State string `json:"state" example:"paused"`
	// False when the call was a no-op.
	Changed bool `json:"changed"`
}

// PromptFilesResponse wraps the listing returned by GET /api/prompts.
type PromptFilesResponse struct {
	Files []PromptFile `json:"files"`
}

// WorkersResponse wraps the worker list returned by GET /api/workers.
type WorkersResponse struct {
	Workers []WorkerStatus `json:"workers"`
}
