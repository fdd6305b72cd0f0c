package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"artd/internal/config"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "artd",
		Short:         "Run the art generation worker pool and its web console",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, cmd.ErrOrStderr(), nil)
		},
	}
	f := cmd.Flags()
	f.StringP("config", "c", "", "Config file (.yaml, .json or .toml)")
	f.String("addr", envOr("ARTD_ADDR", config.DefaultAddr), "HTTP listen address (defaults ARTD_ADDR or :8080)")
	f.String("prompts-dir", "", "Directory scanned for *.prompts files")
	f.String("prompt-file", "", "Prompt file to load at startup")
	f.String("workers", "", "Comma-separated worker names")
	f.Int("worker-count", 0, "Number of workers when no names are given")
	f.Int("log-length", 0, "Output log capacity in lines")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.Bool("quiet", false, "Do not mirror the log to stderr")
	f.String("executor", "", "Job executor: sim|command")
	f.String("command", "", "Command run per job; supports {prompt}, {options}, {job_id}, {index}")
	f.Int("sim-job-ms", 0, "Duration of a simulated job in milliseconds")
	f.Int("dispatch-interval-ms", 0, "Dispatch poll interval in milliseconds")
	f.Int("drain-timeout", 0, "Seconds to wait for in-flight jobs on shutdown")
	f.Bool("no-watch", false, "Do not reload the active prompt file when it changes")
	f.String("cors-origins", "", "Comma-separated CORS origins (enables CORS)")
	return cmd
}

// resolveConfig loads --config when given, applies explicitly set flags on
// top of it, then fills defaults and validates the result.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	f := cmd.Flags()
	var cfg config.Config
	if p, _ := f.GetString("config"); p != "" {
		loaded, err := config.Load(p)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if f.Changed("addr") || cfg.Addr == "" {
		cfg.Addr, _ = f.GetString("addr")
	}
	if f.Changed("prompts-dir") {
		cfg.PromptsLocation, _ = f.GetString("prompts-dir")
	}
	if f.Changed("prompt-file") {
		cfg.PromptFile, _ = f.GetString("prompt-file")
	}
	if f.Changed("workers") {
		v, _ := f.GetString("workers")
		cfg.Workers = splitCSV(v)
	}
	if f.Changed("worker-count") {
		cfg.WorkerCount, _ = f.GetInt("worker-count")
		if !f.Changed("workers") {
			cfg.Workers = nil
		}
	}
	if f.Changed("log-length") {
		cfg.OutputBufferLength, _ = f.GetInt("log-length")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("quiet") {
		q, _ := f.GetBool("quiet")
		on := !q
		cfg.ConsoleLog = &on
	}
	if f.Changed("executor") {
		cfg.Executor, _ = f.GetString("executor")
	}
	if f.Changed("command") {
		v, _ := f.GetString("command")
		cfg.Command = strings.Fields(v)
	}
	if f.Changed("sim-job-ms") {
		cfg.SimJobMS, _ = f.GetInt("sim-job-ms")
	}
	if f.Changed("dispatch-interval-ms") {
		cfg.DispatchIntervalMS, _ = f.GetInt("dispatch-interval-ms")
	}
	if f.Changed("drain-timeout") {
		cfg.DrainTimeoutSeconds, _ = f.GetInt("drain-timeout")
	}
	if f.Changed("no-watch") {
		nw, _ := f.GetBool("no-watch")
		on := !nw
		cfg.WatchPrompts = &on
	}
	if f.Changed("cors-origins") {
		v, _ := f.GetString("cors-origins")
		cfg.CORSOrigins = splitCSV(v)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// splitCSV splits a comma-separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
