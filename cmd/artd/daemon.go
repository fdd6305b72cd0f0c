package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"artd/internal/common/fsutil"
	"artd/internal/config"
	"artd/internal/controller"
	"artd/internal/fleet"
	"artd/internal/httpapi"
	"artd/internal/prompts"
)

const httpShutdownTimeout = 5 * time.Second

// newLogger writes every record into the output log, and to stderr unless
// console logging is disabled.
func newLogger(cfg config.Config, outlog *controller.OutputLog, stderr io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: outlog, NoColor: true, TimeFormat: "15:04:05"}}
	if cfg.ConsoleLogEnabled() {
		writers = append(writers, zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339})
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(lvl).With().Timestamp().Logger()
}

func newExecutor(cfg config.Config) fleet.Executor {
	if cfg.Executor == config.ExecutorCommand {
		return fleet.CommandExecutor{Argv: cfg.Command}
	}
	return fleet.SimExecutor{Duration: cfg.SimJobDuration()}
}

// run starts the daemon and blocks until it has shut down, either because
// ctx was canceled or because shutdown was requested over HTTP. onListen,
// when set, receives the bound address.
func run(ctx context.Context, cfg config.Config, stderr io.Writer, onListen func(net.Addr)) error {
	outlog := controller.NewOutputLog(cfg.OutputBufferLength)
	log := newLogger(cfg, outlog, stderr)

	promptsDir, err := fsutil.AbsPath(cfg.PromptsLocation)
	if err != nil {
		return fmt.Errorf("prompts location: %w", err)
	}
	events := controller.NewBroadcaster()
	defer events.Close()
	ctrl := controller.New(controller.Config{
		WorkerNames: cfg.Workers,
		Workers:     cfg.WorkerCount,
		OutputLog:   outlog,
		PromptsDir:  promptsDir,
		Logger:      &log,
		Publisher:   events,
	})
	if cfg.PromptFile != "" {
		// a bad startup file is reported and the daemon waits for another one
		_ = ctrl.SwitchPromptSource(cfg.PromptFile)
	}

	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()
	httpapi.SetLogger(log)
	httpapi.SetBaseContext(baseCtx)
	if len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			[]string{"Content-Type", "X-Log-Level"})
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(ctrl, events),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	if cfg.WatchPromptsEnabled() && fsutil.PathExists(promptsDir) {
		w, err := prompts.NewWatcher(promptsDir, prompts.DefaultDebounce, log)
		if err != nil {
			log.Warn().Err(err).Str("dir", promptsDir).Msg("prompt watcher disabled")
		} else {
			defer w.Close()
			go w.Run(baseCtx, func(path string) {
				if filepath.Clean(path) != ctrl.PromptSource().Path {
					return
				}
				log.Info().Str("path", path).Msg("active prompt file changed; reloading")
				_ = ctrl.ReloadPromptSource()
			})
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("prompts", promptsDir).
			Int("workers", ctrl.Pool().Len()).Msg("artd listening")
		serveErr <- srv.Serve(ln)
	}()
	if onListen != nil {
		onListen(ln.Addr())
	}

	fleetErr := make(chan error, 1)
	go func() {
		fleetErr <- fleet.New(ctrl, newExecutor(cfg), fleet.Config{
			Interval:     cfg.DispatchInterval(),
			DrainTimeout: cfg.DrainTimeout(),
			Logger:       &log,
		}).Run(ctx)
	}()

	var runErr error
	select {
	case err := <-fleetErr:
		if errors.Is(err, fleet.ErrDrainTimeout) {
			log.Warn().Msg("shutdown aborted in-flight jobs")
		} else if err != nil {
			runErr = err
		}
	case err := <-serveErr:
		ctrl.Shutdown()
		<-fleetErr
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	}

	cancelBase()
	shCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Uint64("total_jobs_done", ctrl.TotalJobsDone()).Msg("artd stopped")
	return runErr
}
