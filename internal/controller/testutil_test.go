package controller

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// writePromptFile writes content to dir/name and returns its path.
func writePromptFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// promptLines builds a prompt file with one [prompts] section of n lines.
func promptLines(n int, prefix string) string {
	s := "[prompts]\n"
	for i := 0; i < n; i++ {
		s += prefix + string(rune('a'+i)) + "\n"
	}
	return s
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
