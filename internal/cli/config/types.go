// Package config provides configuration management for the leapmap CLI.
//
// Values are layered from defaults, leapmap.yaml, LEAPMAP_ environment
// variables and explicitly set flags, in that order.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	Input        string       `koanf:"input"`
	Mapping      string       `koanf:"mapping"`
	StatePath    string       `koanf:"state_path"`
	OutputFormat string       `koanf:"output"`
	Verbose      bool         `koanf:"verbose"`
	Quiet        bool         `koanf:"quiet"`
	History      bool         `koanf:"history"`
	Trace        *TraceConfig `koanf:"trace"`
	Watch        *WatchConfig `koanf:"watch"`

	// ProjectRoot is the directory holding the config file, or the working directory.
	ProjectRoot string `koanf:"-"`
}

// TraceConfig holds field lineage options.
type TraceConfig struct {
	MaxDepth           int    `koanf:"max_depth"`
	MatchMode          string `koanf:"match_mode"`
	Workers            int    `koanf:"workers"`
	MaxFieldsPerTarget int    `koanf:"max_fields_per_target"`
}

// WatchConfig holds options for the watch command.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Default configuration values.
const (
	DefaultStateFile = ".leapmap/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultMaxDepth  = 20
	DefaultMatchMode = "substring"
	DefaultWorkers   = 4
	DefaultDebounce  = 200 * time.Millisecond
)

// Match modes accepted by trace.match_mode.
const (
	MatchModeSubstring = "substring"
	MatchModeWord      = "word"
)

// GetTraceConfig returns the trace config with defaults applied for any unset values.
func (c *Config) GetTraceConfig() *TraceConfig {
	if c.Trace == nil {
		return &TraceConfig{MaxDepth: DefaultMaxDepth, MatchMode: DefaultMatchMode, Workers: DefaultWorkers}
	}
	tc := *c.Trace
	if tc.MaxDepth == 0 {
		tc.MaxDepth = DefaultMaxDepth
	}
	if tc.MatchMode == "" {
		tc.MatchMode = DefaultMatchMode
	}
	if tc.Workers == 0 {
		tc.Workers = DefaultWorkers
	}
	return &tc
}

// GetWatchConfig returns the watch config with defaults applied.
func (c *Config) GetWatchConfig() *WatchConfig {
	if c.Watch == nil || c.Watch.Debounce <= 0 {
		return &WatchConfig{Debounce: DefaultDebounce}
	}
	return c.Watch
}
