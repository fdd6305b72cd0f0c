package controller

import (
	"path/filepath"

	"artd/internal/prompts"
	"artd/pkg/types"
)

// Workers returns the per-worker projection used by the status renderer.
func (c *Controller) Workers() []types.WorkerStatus {
	now := c.now()
	recs := c.pool.SnapshotAll()
	out := make([]types.WorkerStatus, 0, len(recs))
	for _, r := range recs {
		ws := types.WorkerStatus{
			ID:       r.ID,
			Name:     r.Name,
			Idle:     r.Idle,
			JobsDone: r.JobsDone,
		}
		if !r.Idle {
			ws.JobID = r.JobID
			ws.PromptInfo = r.JobPromptInfo
			ws.PromptOptions = r.JobOptions
			ws.JobStartUnix = r.JobStartTime.Unix()
			ws.ElapsedSeconds = int64(r.Elapsed(now).Seconds())
		}
		out = append(out, ws)
	}
	return out
}

// PromptSource returns the active prompt source for display.
func (c *Controller) PromptSource() types.PromptSourceInfo {
	si := c.queue.CurrentSourceInfo()
	info := types.PromptSourceInfo{
		Path:      si.Path,
		Total:     si.Total,
		Completed: si.Completed,
		Pending:   si.Pending,
		LoopsDone: si.LoopsDone,
		Repeat:    si.Repeat,
	}
	if si.Path != "" {
		info.Name = prompts.DisplayName(si.Path)
		info.Dir = filepath.Dir(si.Path)
	}
	return info
}

// ListPromptFiles lists the prompt files in the configured prompts directory.
func (c *Controller) ListPromptFiles() ([]types.PromptFile, error) {
	if c.promptsDir == "" {
		return []types.PromptFile{}, nil
	}
	return prompts.ListDir(c.promptsDir)
}

// Status builds the overall status summary for /api/status.
func (c *Controller) Status() types.StatusResponse {
	now := c.now()
	state := c.State()
	workers := c.Workers()
	busy := 0
	for _, w := range workers {
		if !w.Idle {
			busy++
		}
	}
	return types.StatusResponse{
		State:          string(state),
		Paused:         state == StatePaused,
		UptimeSeconds:  int64(now.Sub(c.startupTime).Seconds()),
		StartedUnix:    c.startupTime.Unix(),
		ServerTimeUnix: now.Unix(),
		TotalJobsDone:  c.TotalJobsDone(),
		BusyWorkers:    busy,
		IdleWorkers:    len(workers) - busy,
		Workers:        workers,
		Source:         c.PromptSource(),
		LogEntries:     c.outlog.Len(),
		LogCapacity:    c.outlog.Cap(),
	}
}
