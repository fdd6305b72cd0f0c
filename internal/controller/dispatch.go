package controller

// Dispatch assigns pending jobs to idle workers and returns the new
// assignments. It assigns nothing unless the controller is Running, and it
// holds the state read lock throughout, so once Pause or Shutdown returns no
// further assignment can happen.
func (c *Controller) Dispatch() []Assignment {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateRunning {
		return nil
	}
	var out []Assignment
	for _, id := range c.pool.IdleIDs() {
		d, src, gen, ok := c.queue.pop()
		if !ok {
			break
		}
		job := jobFromDescriptor(c.newJobID(), src, gen, d)
		if err := c.pool.Assign(id, job); err != nil {
			// the worker was assigned outside of Dispatch; keep the job
			c.queue.requeue(d, gen)
			continue
		}
		out = append(out, Assignment{WorkerID: id, Job: job})
	}
	for _, a := range out {
		jobsAssignedTotal.Inc()
		workersBusy.Inc()
		c.log.Info().Int("worker", a.WorkerID).Str("job", a.Job.ID).Str("prompt", a.Job.Prompt).Msg("job started")
		c.publish(EventJobAssigned, a.WorkerID, map[string]any{"job_id": a.Job.ID, "prompt": a.Job.Prompt, "index": a.Job.Index})
	}
	return out
}

// RecordJobCompletion returns the worker to idle, counts the job on the
// worker and in TotalJobsDone exactly once, and credits the prompt source it
// came from.
func (c *Controller) RecordJobCompletion(workerID int) error {
	prev, err := c.pool.finish(workerID, true)
	if err != nil {
		return err
	}
	total := c.totalJobsDone.Add(1)
	c.queue.markCompleted(prev.jobGen)
	jobsFinishedTotal.WithLabelValues("completed").Inc()
	workersBusy.Dec()
	c.log.Info().Int("worker", workerID).Str("job", prev.JobID).
		Dur("took", prev.Elapsed(c.now())).Uint64("total", total).Msg("job completed")
	c.publish(EventJobCompleted, workerID, map[string]any{"job_id": prev.JobID, "total_jobs_done": total})
	c.signalWake()
	return nil
}

// RecordJobFailure returns the worker to idle without counting the job.
func (c *Controller) RecordJobFailure(workerID int, cause error) error {
	prev, err := c.pool.finish(workerID, false)
	if err != nil {
		return err
	}
	jobsFinishedTotal.WithLabelValues("failed").Inc()
	workersBusy.Dec()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	c.log.Error().Int("worker", workerID).Str("job", prev.JobID).Str("error", msg).Msg("job failed")
	c.publish(EventJobFailed, workerID, map[string]any{"job_id": prev.JobID, "error": msg})
	c.signalWake()
	return nil
}

// ForceIdleAll aborts every in-flight job record (none is counted as done)
// and returns how many workers were busy.
func (c *Controller) ForceIdleAll() int {
	n := c.pool.ForceIdleAll()
	if n > 0 {
		workersBusy.Sub(float64(n))
		jobsFinishedTotal.WithLabelValues("aborted").Add(float64(n))
		c.log.Warn().Int("workers", n).Msg("in-flight jobs aborted")
	}
	c.publish(EventWorkersForced, 0, map[string]any{"aborted": n})
	return n
}
