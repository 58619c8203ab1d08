package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/hepscan/internal/config"
	"github.com/specialistvlad/hepscan/internal/dataset"
	"github.com/specialistvlad/hepscan/internal/events"
	"github.com/specialistvlad/hepscan/internal/fsutil"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Inputs   []string // files or directories to count
	Datasets []string // catalog datasets to resolve

	Tree      string
	Extension string

	Command    string
	Redirector string
	Strict     bool

	LogLevel        string
	LogFormat       string
	MetricsTextfile string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Tree:       events.DefaultTree,
		Extension:  fsutil.RootExtension,
		Command:    dataset.DefaultCommand,
		Redirector: dataset.DefaultRedirector,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Field names accepted by MergeFile's explicit set.
const (
	FieldTree            = "tree"
	FieldExtension       = "extension"
	FieldCommand         = "command"
	FieldRedirector      = "redirector"
	FieldLogLevel        = "log-level"
	FieldLogFormat       = "log-format"
	FieldMetricsTextfile = "metrics-textfile"
)

// MergeFile copies non-empty values from f into cfg, except for fields named
// in explicit, which were set on the command line and take precedence.
func (cfg *Config) MergeFile(f *config.File, explicit map[string]bool) {
	set := func(field string, dst *string, v string) {
		if v != "" && !explicit[field] {
			*dst = v
		}
	}

	if f.Log != nil {
		set(FieldLogLevel, &cfg.LogLevel, f.Log.Level)
		set(FieldLogFormat, &cfg.LogFormat, f.Log.Format)
	}
	if f.Resolver != nil {
		set(FieldCommand, &cfg.Command, f.Resolver.Command)
		set(FieldRedirector, &cfg.Redirector, f.Resolver.Redirector)
	}
	if f.Counter != nil {
		set(FieldTree, &cfg.Tree, f.Counter.Tree)
		set(FieldExtension, &cfg.Extension, f.Counter.Extension)
	}
	if f.Metrics != nil {
		set(FieldMetricsTextfile, &cfg.MetricsTextfile, f.Metrics.Textfile)
	}
}

// Validate checks the settings shared by both tools.
func (cfg *Config) Validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.Tree == "" {
		return errors.New("tree name cannot be empty")
	}
	if cfg.Extension == "" || cfg.Extension[0] != '.' {
		return fmt.Errorf("invalid extension %q: must start with '.'", cfg.Extension)
	}
	if cfg.Command == "" {
		return errors.New("query command cannot be empty")
	}
	return nil
}
