package controller

import (
	"strings"
	"sync"
)

// OutputLog is a bounded, append-only log of recent text entries. When the
// capacity is exceeded the oldest entries are evicted.
type OutputLog struct {
	mu       sync.Mutex
	entries  []string // live entries are entries[start:]
	start    int
	capacity int
}

// NewOutputLog returns an empty log holding at most capacity entries.
// Negative capacities are treated as 0.
func NewOutputLog(capacity int) *OutputLog {
	if capacity < 0 {
		capacity = 0
	}
	return &OutputLog{capacity: capacity}
}

// Append adds one entry, evicting from the front if needed.
func (l *OutputLog) Append(text string) {
	l.mu.Lock()
	l.appendLocked(text)
	l.mu.Unlock()
}

func (l *OutputLog) appendLocked(text string) {
	if l.capacity == 0 {
		return
	}
	l.entries = append(l.entries, text)
	l.trimLocked()
}

// trimLocked evicts down to capacity and compacts once at least half of the
// backing slice is dead, keeping Append amortized O(1).
func (l *OutputLog) trimLocked() {
	if over := len(l.entries) - l.start - l.capacity; over > 0 {
		clear(l.entries[l.start : l.start+over])
		l.start += over
	}
	if l.start > 0 && l.start*2 >= len(l.entries) {
		n := copy(l.entries, l.entries[l.start:])
		clear(l.entries[n:])
		l.entries = l.entries[:n]
		l.start = 0
	}
}

// Write implements io.Writer. Each non-empty line of p becomes one entry;
// all lines of a single call are appended without interleaving.
func (l *OutputLog) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\r\n")
	l.mu.Lock()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			l.appendLocked(line)
		}
	}
	l.mu.Unlock()
	return len(p), nil
}

// Snapshot returns a copy of the current entries, oldest first.
func (l *OutputLog) Snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries)-l.start)
	copy(out, l.entries[l.start:])
	return out
}

// Resize changes the capacity. Shrinking evicts the oldest entries right
// away; growing only affects future evictions.
func (l *OutputLog) Resize(capacity int) error {
	if capacity < 0 {
		return ErrInvalidArgument("log capacity must be >= 0")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.capacity = capacity
	if capacity == 0 {
		l.entries, l.start = nil, 0
		return nil
	}
	l.trimLocked()
	return nil
}

// Clear removes all entries.
func (l *OutputLog) Clear() {
	l.mu.Lock()
	l.entries, l.start = nil, 0
	l.mu.Unlock()
}

// Len returns the number of entries held.
func (l *OutputLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries) - l.start
}

// Cap returns the current capacity.
func (l *OutputLog) Cap() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capacity
}
