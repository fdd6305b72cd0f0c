package fleet

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

// lineWriter logs complete lines of job output, tagged with the worker id.
// Executors may write from several goroutines (stdout and stderr pipes).
type lineWriter struct {
	mu     sync.Mutex
	log    zerolog.Logger
	worker int
	buf    []byte
}

func newLineWriter(log zerolog.Logger, worker int) *lineWriter {
	return &lineWriter{log: log, worker: worker}
}

func (lw *lineWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		lw.emit(lw.buf[:idx])
		lw.buf = lw.buf[idx+1:]
	}
	return len(p), nil
}

// Flush logs a trailing partial line.
func (lw *lineWriter) Flush() {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.emit(lw.buf)
	lw.buf = nil
}

func (lw *lineWriter) emit(b []byte) {
	line := string(bytes.TrimRight(b, "\r"))
	if line == "" {
		return
	}
	lw.log.Info().Int("worker", lw.worker).Msg(line)
}
