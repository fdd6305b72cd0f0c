package controller

import (
	"sync"
	"testing"
	"time"
)

func TestPool_AssignCompleteScenario(t *testing.T) {
	p := NewPool("alpha", "beta")
	recs := p.SnapshotAll()
	if len(recs) != 2 || recs[0].ID != 1 || recs[1].ID != 2 {
		t.Fatalf("unexpected records: %+v", recs)
	}
	for _, r := range recs {
		if !r.Idle {
			t.Fatalf("worker %d should start idle", r.ID)
		}
	}
	if err := p.AssignJob(1, "prompt A"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := p.AssignJob(1, "prompt B"); !IsAlreadyBusy(err) {
		t.Fatalf("expected AlreadyBusy, got %v", err)
	}
	r, _ := p.Get(1)
	if r.Idle || r.JobPromptInfo != "prompt A" {
		t.Fatalf("busy job overwritten: %+v", r)
	}
	if err := p.CompleteJob(1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	r, _ = p.Get(1)
	if !r.Idle || r.JobsDone != 1 || r.JobPromptInfo != "" || !r.JobStartTime.IsZero() {
		t.Fatalf("unexpected record after completion: %+v", r)
	}
}

func TestPool_NotFound(t *testing.T) {
	p := NewPool("only")
	if err := p.AssignJob(7, "x"); !IsNotFound(err) {
		t.Fatalf("assign: expected NotFound, got %v", err)
	}
	if err := p.CompleteJob(7); !IsNotFound(err) {
		t.Fatalf("complete: expected NotFound, got %v", err)
	}
	if _, err := p.Get(0); !IsNotFound(err) {
		t.Fatalf("get: expected NotFound, got %v", err)
	}
}

func TestPool_CompleteIdleWorkerDoesNotCount(t *testing.T) {
	p := NewPool("w")
	if err := p.CompleteJob(1); !IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if r, _ := p.Get(1); r.JobsDone != 0 {
		t.Fatalf("idle completion counted: %+v", r)
	}
}

func TestPool_IdleBetweenAssignAndComplete(t *testing.T) {
	p := NewPool("w")
	for i := 0; i < 5; i++ {
		if r, _ := p.Get(1); !r.Idle {
			t.Fatalf("round %d: expected idle before assign", i)
		}
		if err := p.AssignJob(1, "job"); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if r, _ := p.Get(1); r.Idle {
			t.Fatalf("round %d: idle while busy", i)
		}
		if err := p.CompleteJob(1); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
	if r, _ := p.Get(1); !r.Idle || r.JobsDone != 5 {
		t.Fatalf("unexpected final record: %+v", r)
	}
}

func TestPool_AbortJobDoesNotCount(t *testing.T) {
	p := NewPool("w")
	_ = p.AssignJob(1, "x")
	if err := p.AbortJob(1); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if r, _ := p.Get(1); !r.Idle || r.JobsDone != 0 {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestPool_ForceIdleAll(t *testing.T) {
	p := NewPool("a", "b", "c")
	_ = p.AssignJob(1, "x")
	_ = p.AssignJob(3, "y")
	if n := p.ForceIdleAll(); n != 2 {
		t.Fatalf("expected 2 aborted, got %d", n)
	}
	for _, r := range p.SnapshotAll() {
		if !r.Idle || r.JobsDone != 0 || r.JobPromptInfo != "" {
			t.Fatalf("unexpected record after force idle: %+v", r)
		}
	}
}

func TestPool_AddNeverReusesIDs(t *testing.T) {
	p := NewPool("a")
	id := p.Add("")
	if id != 2 {
		t.Fatalf("expected id 2, got %d", id)
	}
	r, _ := p.Get(2)
	if r.Name != "worker 2" {
		t.Fatalf("default name: %q", r.Name)
	}
	if p.Len() != 2 {
		t.Fatalf("len=%d", p.Len())
	}
}

func TestPool_JobStartTimeAndElapsed(t *testing.T) {
	clk := newFakeClock()
	p := NewPool("w")
	p.now = clk.Now
	_ = p.AssignJob(1, "x")
	clk.Advance(90 * time.Second)
	r, _ := p.Get(1)
	if got := r.Elapsed(clk.Now()); got != 90*time.Second {
		t.Fatalf("elapsed=%v", got)
	}
	_ = p.CompleteJob(1)
	r, _ = p.Get(1)
	if got := r.Elapsed(clk.Now()); got != 0 {
		t.Fatalf("idle elapsed should be 0, got %v", got)
	}
}

// Workers hammer their own records while a poller snapshots; every observed
// record must satisfy the idle invariant.
func TestPool_SnapshotNeverTorn(t *testing.T) {
	const workers = 8
	names := make([]string, workers)
	p := NewPool(names...)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for id := 1; id <= workers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if err := p.AssignJob(id, "busy"); err != nil {
					t.Errorf("assign %d: %v", id, err)
					return
				}
				if err := p.CompleteJob(id); err != nil {
					t.Errorf("complete %d: %v", id, err)
					return
				}
			}
		}(id)
	}
	defer func() {
		close(stop)
		wg.Wait()
	}()
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		for _, r := range p.SnapshotAll() {
			if r.Idle && r.JobPromptInfo != "" {
				t.Fatalf("torn record: %+v", r)
			}
			if !r.Idle && r.JobPromptInfo != "busy" {
				t.Fatalf("torn record: %+v", r)
			}
		}
	}
}
