package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Default values applied by WithDefaults.
const (
	DefaultAddr               = ":8080"
	DefaultPromptsLocation    = "prompts"
	DefaultWorkerCount        = 1
	DefaultOutputBufferLength = 100
	DefaultLogLevel           = "info"
	DefaultDispatchIntervalMS = 250
	DefaultDrainTimeoutSec    = 30
	DefaultSimJobMS           = 2000

	ExecutorSim     = "sim"
	ExecutorCommand = "command"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr            string `json:"addr" yaml:"addr" toml:"addr"`
	PromptsLocation string `json:"prompts_location" yaml:"prompts_location" toml:"prompts_location"`
	// PromptFile is loaded at startup when set.
	PromptFile string `json:"prompt_file" yaml:"prompt_file" toml:"prompt_file"`
	// Workers names the workers; when empty WorkerCount workers are created.
	Workers            []string `json:"workers" yaml:"workers" toml:"workers"`
	WorkerCount        int      `json:"worker_count" yaml:"worker_count" toml:"worker_count"`
	OutputBufferLength int      `json:"output_buffer_length" yaml:"output_buffer_length" toml:"output_buffer_length"`
	LogLevel           string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	// ConsoleLog mirrors the daemon log to stderr (default true).
	ConsoleLog          *bool  `json:"console_log" yaml:"console_log" toml:"console_log"`
	DispatchIntervalMS  int    `json:"dispatch_interval_ms" yaml:"dispatch_interval_ms" toml:"dispatch_interval_ms"`
	DrainTimeoutSeconds int    `json:"drain_timeout_seconds" yaml:"drain_timeout_seconds" toml:"drain_timeout_seconds"`
	Executor            string `json:"executor" yaml:"executor" toml:"executor"`
	// Command is the argv run per job by the command executor.
	Command  []string `json:"command" yaml:"command" toml:"command"`
	SimJobMS int      `json:"sim_job_ms" yaml:"sim_job_ms" toml:"sim_job_ms"`
	// WatchPrompts reloads the active prompt file when it changes on disk (default true).
	WatchPrompts *bool    `json:"watch_prompts" yaml:"watch_prompts" toml:"watch_prompts"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults returns a copy of c with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.PromptsLocation == "" {
		c.PromptsLocation = DefaultPromptsLocation
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if len(c.Workers) > 0 {
		c.WorkerCount = len(c.Workers)
	}
	if c.OutputBufferLength <= 0 {
		c.OutputBufferLength = DefaultOutputBufferLength
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ConsoleLog == nil {
		c.ConsoleLog = boolPtr(true)
	}
	if c.DispatchIntervalMS <= 0 {
		c.DispatchIntervalMS = DefaultDispatchIntervalMS
	}
	if c.DrainTimeoutSeconds <= 0 {
		c.DrainTimeoutSeconds = DefaultDrainTimeoutSec
	}
	if c.Executor == "" {
		c.Executor = ExecutorSim
	}
	if c.SimJobMS <= 0 {
		c.SimJobMS = DefaultSimJobMS
	}
	if c.WatchPrompts == nil {
		c.WatchPrompts = boolPtr(true)
	}
	return c
}

// Validate reports configuration errors WithDefaults cannot repair.
func (c Config) Validate() error {
	switch c.Executor {
	case ExecutorSim:
	case ExecutorCommand:
		if len(c.Command) == 0 {
			return fmt.Errorf("executor %q requires a command", ExecutorCommand)
		}
	default:
		return fmt.Errorf("unknown executor %q (want %s or %s)", c.Executor, ExecutorSim, ExecutorCommand)
	}
	for i, n := range c.Workers {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("workers[%d]: empty name", i)
		}
	}
	return nil
}

// DispatchInterval returns DispatchIntervalMS as a duration.
func (c Config) DispatchInterval() time.Duration {
	return time.Duration(c.DispatchIntervalMS) * time.Millisecond
}

// DrainTimeout returns DrainTimeoutSeconds as a duration.
func (c Config) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutSeconds) * time.Second
}

// SimJobDuration returns SimJobMS as a duration.
func (c Config) SimJobDuration() time.Duration {
	return time.Duration(c.SimJobMS) * time.Millisecond
}

// ConsoleLogEnabled reports the effective console_log value.
func (c Config) ConsoleLogEnabled() bool { return c.ConsoleLog == nil || *c.ConsoleLog }

// WatchPromptsEnabled reports the effective watch_prompts value.
func (c Config) WatchPromptsEnabled() bool { return c.WatchPrompts == nil || *c.WatchPrompts }

func boolPtr(b bool) *bool { return &b }
