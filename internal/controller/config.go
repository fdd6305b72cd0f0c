package controller

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultWorkers     = 1
	defaultLogCapacity = 100
)

// Config encapsulates all tunables for Controller construction.
type Config struct {
	// WorkerNames creates one worker per name. When empty, Workers workers
	// named "worker N" are created.
	WorkerNames []string
	Workers     int
	// OutputLog lets callers build the log first (e.g. to point a logger at
	// it). When nil a log of LogCapacity entries is created.
	OutputLog   *OutputLog
	LogCapacity int
	// PromptsDir is scanned by ListPromptFiles.
	PromptsDir string
	Logger     *zerolog.Logger
	Publisher  EventPublisher
	// Now overrides the clock (tests).
	Now func() time.Time
}

// New constructs a Controller in the Running state.
func New(cfg Config) *Controller {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	names := cfg.WorkerNames
	if len(names) == 0 {
		n := cfg.Workers
		if n <= 0 {
			n = defaultWorkers
		}
		names = make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("worker %d", i+1)
		}
	}
	pool := NewPool()
	pool.now = now
	for _, n := range names {
		pool.Add(n)
	}
	outlog := cfg.OutputLog
	if outlog == nil {
		capacity := cfg.LogCapacity
		if capacity <= 0 {
			capacity = defaultLogCapacity
		}
		outlog = NewOutputLog(capacity)
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	var pub EventPublisher = noopPublisher{}
	if cfg.Publisher != nil {
		pub = cfg.Publisher
	}
	c := &Controller{
		state:      StateRunning,
		pool:       pool,
		outlog:     outlog,
		queue:      NewDispatchQueue(),
		promptsDir: cfg.PromptsDir,
		publisher:  pub,
		log:        log,
		now:        now,
		done:       make(chan struct{}),
		wake:       make(chan struct{}, 1),
		newJobID:   uuid.NewString,
	}
	c.startupTime = now()
	controllerPaused.Set(0)
	return c
}
