package prompts

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatcher_ReportsPromptFileWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, 20*time.Millisecond, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan string, 4)
	go w.Run(ctx, func(p string) { changed <- p })

	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	target := filepath.Join(dir, "a.prompts")
	if err := os.WriteFile(target, []byte("[prompts]\nx\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case p := <-changed:
		if p != target {
			t.Fatalf("expected %s got %s", target, p)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for change notification")
	}
}
