package prompts

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to prompt files in a directory.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher starts watching dir. Close must be called to release it.
func NewWatcher(dir string, debounce time.Duration, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{fw: fw, debounce: debounce, log: log, pending: make(map[string]*time.Timer)}, nil
}

// Run delivers the absolute path of every changed *.prompts file to onChange
// until ctx is done. onChange is called from timer goroutines, once per
// debounce window per file.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) {
	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !IsPromptFile(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			path, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			w.schedule(path, onChange)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("prompt watcher error")
		}
	}
}

func (w *Watcher) schedule(path string, onChange func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		onChange(path)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fw.Close() }
