package config

import "netero/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`       // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"` // structured JSON lines instead of console text
	DebugMode  bool            `yaml:"debug_mode"`  // Master toggle - false = no logging
	Categories map[string]bool `yaml:"categories"`  // Per-category toggles
}

// Options converts the section into logging.Options.
// verbose forces debug mode on.
func (c LoggingConfig) Options(verbose bool) logging.Options {
	o := logging.Options{
		DebugMode:  c.DebugMode || verbose,
		Level:      c.Level,
		JSONFormat: c.JSONFormat,
		Categories: c.Categories,
	}
	if verbose {
		o.Level = "debug"
	}
	return o
}
