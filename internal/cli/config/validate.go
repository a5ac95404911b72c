package config

import (
	"fmt"
	"os"
	"strings"
)

var outputModes = []string{"auto", "text", "markdown", "json", "csv", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.OutputFormat != "" && !contains(outputModes, c.OutputFormat) {
		return fmt.Errorf("invalid output %q: expected one of %s", c.OutputFormat, strings.Join(outputModes, ", "))
	}
	if c.Verbose && c.Quiet {
		return fmt.Errorf("verbose and quiet cannot both be set")
	}
	if c.Trace != nil {
		if c.Trace.MaxDepth < 0 {
			return fmt.Errorf("trace.max_depth must not be negative, got %d", c.Trace.MaxDepth)
		}
		if m := c.Trace.MatchMode; m != "" && m != MatchModeSubstring && m != MatchModeWord {
			return fmt.Errorf("invalid trace.match_mode %q: expected %s or %s", m, MatchModeSubstring, MatchModeWord)
		}
		if c.Trace.Workers < 1 {
			return fmt.Errorf("trace.workers must be at least 1, got %d", c.Trace.Workers)
		}
		if c.Trace.MaxFieldsPerTarget < 0 {
			return fmt.Errorf("trace.max_fields_per_target must not be negative, got %d", c.Trace.MaxFieldsPerTarget)
		}
	}
	return nil
}

// ValidateInput checks that an input metadata file is configured and exists.
func (c *Config) ValidateInput() error {
	if c.Input == "" {
		return fmt.Errorf("no input metadata file\nHint: pass --input export.xml or set input in leapmap.yaml")
	}
	info, err := os.Stat(c.Input)
	if os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", c.Input)
	}
	if err != nil {
		return fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input is a directory, expected an .xml or .json file: %s", c.Input)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
