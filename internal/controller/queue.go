package controller

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"artd/internal/common/fsutil"
	"artd/internal/prompts"
)

// DispatchQueue holds the pending jobs of the active prompt source.
type DispatchQueue struct {
	mu        sync.Mutex
	source    string
	all       []prompts.Descriptor
	next      int // index of the next descriptor to hand out
	completed int
	loops     int
	repeat    bool
	gen       uint64 // bumped on every successful load
}

// NewDispatchQueue returns a queue with no source loaded.
func NewDispatchQueue() *DispatchQueue { return &DispatchQueue{} }

// LoadSource parses path and makes it the active source, discarding the
// pending jobs of the previous one. On any error the previous source stays
// active and untouched. Jobs already handed out are unaffected.
func (q *DispatchQueue) LoadSource(path string) error {
	if path == "" {
		return ErrInvalidArgument("prompt file path is empty")
	}
	abs, err := fsutil.AbsPath(path)
	if err != nil {
		return err
	}
	f, err := prompts.ParseFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notFoundError{what: "prompt file", id: abs}
		}
		if IsParseError(err) {
			return err
		}
		return fmt.Errorf("load %s: %w", abs, err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.source = abs
	q.all = f.Descriptors
	q.repeat = f.Repeat
	q.next = 0
	q.completed = 0
	q.loops = 0
	q.gen++
	return nil
}

// NextPending pops the next descriptor in source order. The boolean is false
// when the source is exhausted or unset. A repeating source starts over
// instead of running dry.
func (q *DispatchQueue) NextPending() (prompts.Descriptor, bool) {
	d, _, _, ok := q.pop()
	return d, ok
}

func (q *DispatchQueue) pop() (prompts.Descriptor, string, uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.all) == 0 {
		return prompts.Descriptor{}, "", 0, false
	}
	if q.next >= len(q.all) {
		if !q.repeat {
			return prompts.Descriptor{}, "", 0, false
		}
		q.next = 0
	}
	d := q.all[q.next]
	q.next++
	if q.next == len(q.all) {
		q.loops++
	}
	return d, q.source, q.gen, true
}

// requeue puts back the most recently popped descriptor if it still belongs
// to the active source.
func (q *DispatchQueue) requeue(d prompts.Descriptor, gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if gen != q.gen || q.next == 0 || q.all[q.next-1].Index != d.Index {
		return
	}
	if q.next == len(q.all) {
		q.loops--
	}
	q.next--
}

// markCompleted counts a finished job against the source it came from.
func (q *DispatchQueue) markCompleted(gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if gen != 0 && gen == q.gen {
		q.completed++
	}
}

// CurrentSourceInfo returns the active source and its progress counters.
func (q *DispatchQueue) CurrentSourceInfo() SourceInfo {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := len(q.all) - q.next
	if q.repeat && pending == 0 {
		pending = len(q.all)
	}
	return SourceInfo{
		Path:      q.source,
		Total:     len(q.all),
		Completed: q.completed,
		Pending:   pending,
		LoopsDone: q.loops,
		Repeat:    q.repeat,
	}
}
