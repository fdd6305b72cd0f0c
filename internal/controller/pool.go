package controller

import (
	"fmt"
	"sync"
	"time"
)

// workerSlot guards one record. The owning worker is the only writer outside
// of pool-wide lifecycle operations.
type workerSlot struct {
	mu  sync.RWMutex
	rec WorkerRecord
}

// Pool owns the set of worker records.
//
// Lock order is always pool then slot. Per-worker operations hold the pool
// read lock and a single slot lock, so workers never stall each other;
// ForceIdleAll and Add take the pool write lock to exclude all of them.
type Pool struct {
	mu     sync.RWMutex
	slots  []*workerSlot // ordered by id
	byID   map[int]*workerSlot
	nextID int
	now    func() time.Time
}

// NewPool creates a pool with one idle worker per name. IDs start at 1.
func NewPool(names ...string) *Pool {
	p := &Pool{byID: make(map[int]*workerSlot), nextID: 1, now: time.Now}
	for _, n := range names {
		p.Add(n)
	}
	return p
}

// Add appends an idle worker and returns its id. IDs are never reused.
func (p *Pool) Add(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	if name == "" {
		name = fmt.Sprintf("worker %d", id)
	}
	s := &workerSlot{rec: WorkerRecord{ID: id, Name: name, Idle: true}}
	p.slots = append(p.slots, s)
	p.byID[id] = s
	return id
}

// Len returns the number of workers.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.slots)
}

func (p *Pool) slot(id int) *workerSlot {
	return p.byID[id]
}

// SnapshotAll returns a copy of every record ordered by id. Each record is
// copied under its own lock so no record is ever observed half-updated.
func (p *Pool) SnapshotAll() []WorkerRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]WorkerRecord, 0, len(p.slots))
	for _, s := range p.slots {
		s.mu.RLock()
		out = append(out, s.rec)
		s.mu.RUnlock()
	}
	return out
}

// Get returns a copy of one record.
func (p *Pool) Get(id int) (WorkerRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.slot(id)
	if s == nil {
		return WorkerRecord{}, workerNotFound(id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec, nil
}

// IdleIDs returns the ids of idle workers in id order.
func (p *Pool) IdleIDs() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var ids []int
	for _, s := range p.slots {
		s.mu.RLock()
		if s.rec.Idle {
			ids = append(ids, s.rec.ID)
		}
		s.mu.RUnlock()
	}
	return ids
}

// AssignJob moves an idle worker to busy with the given prompt text.
func (p *Pool) AssignJob(id int, promptInfo string) error {
	return p.Assign(id, Job{Prompt: promptInfo})
}

// Assign moves an idle worker to busy with job. It fails with AlreadyBusy
// rather than overwriting a running job.
func (p *Pool) Assign(id int, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.slot(id)
	if s == nil {
		return workerNotFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rec.Idle {
		return alreadyBusyError{workerID: id}
	}
	s.rec.Idle = false
	s.rec.JobID = job.ID
	s.rec.JobPromptInfo = job.Prompt
	s.rec.JobOptions = job.Options
	s.rec.JobStartTime = p.now()
	s.rec.jobGen = job.gen
	return nil
}

// CompleteJob returns the worker to idle and counts the job as done.
func (p *Pool) CompleteJob(id int) error {
	_, err := p.finish(id, true)
	return err
}

// AbortJob returns the worker to idle without counting the job.
func (p *Pool) AbortJob(id int) error {
	_, err := p.finish(id, false)
	return err
}

// finish idles a busy worker and returns the record as it was while busy.
func (p *Pool) finish(id int, done bool) (WorkerRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.slot(id)
	if s == nil {
		return WorkerRecord{}, workerNotFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.Idle {
		return WorkerRecord{}, ErrInvalidArgument(fmt.Sprintf("worker %d has no job", id))
	}
	prev := s.rec
	if done {
		s.rec.JobsDone++
	}
	s.rec.clearJob()
	return prev, nil
}

// ForceIdleAll marks every worker idle without counting in-flight jobs and
// returns how many were busy.
func (p *Pool) ForceIdleAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.slots {
		s.mu.Lock()
		if !s.rec.Idle {
			n++
			s.rec.clearJob()
		}
		s.mu.Unlock()
	}
	return n
}

// JobsDoneSum returns the sum of JobsDone across all records.
func (p *Pool) JobsDoneSum() uint64 {
	var total uint64
	for _, r := range p.SnapshotAll() {
		total += r.JobsDone
	}
	return total
}

func (r *WorkerRecord) clearJob() {
	r.Idle = true
	r.JobID = ""
	r.JobPromptInfo = ""
	r.JobOptions = ""
	r.JobStartTime = time.Time{}
	r.jobGen = 0
}
