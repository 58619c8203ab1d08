package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/hepscan/internal/app"
	"github.com/specialistvlad/hepscan/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const countUsage = `
eventcount - Recursively count events in ROOT files.

Usage:
  eventcount [options] INPUT...

Arguments:
  INPUT
    A .root file or a directory scanned recursively for .root files.

Options:
`

const resolveUsage = `
dasfiles - List the files of a DAS dataset as XRootD access paths.

Usage:
  dasfiles [options] DATASET...

Arguments:
  DATASET
    Full dataset path, e.g. /Primary/Processed/NANOAODSIM.

Options:
`

// common holds the flags shared by both tools.
type common struct {
	configPath      string
	logLevel        string
	logFormat       string
	metricsTextfile string
}

func (c *common) register(fs *flag.FlagSet, defaults app.Config) {
	fs.StringVar(&c.configPath, "config", "", "Path to an HCL config file.")
	fs.StringVar(&c.logLevel, app.FieldLogLevel, defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&c.logFormat, app.FieldLogFormat, defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&c.metricsTextfile, app.FieldMetricsTextfile, "", "Write Prometheus metrics to this file on exit.")
}

// ParseCount processes eventcount arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func ParseCount(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.", "tool", "eventcount")
	cfg := app.DefaultConfig()
	flagSet := newFlagSet("eventcount", countUsage, output)

	var c common
	c.register(flagSet, cfg)
	flagSet.StringVar(&cfg.Tree, app.FieldTree, cfg.Tree, "Target TTree name.")
	flagSet.StringVar(&cfg.Tree, "t", cfg.Tree, "Target TTree name (shorthand).")
	flagSet.StringVar(&cfg.Extension, app.FieldExtension, cfg.Extension, "Data file extension to collect.")

	positional, shouldExit, err := parseFlags(flagSet, args)
	if shouldExit || err != nil {
		return nil, shouldExit, err
	}

	cfg.Inputs = positional
	if len(cfg.Inputs) == 0 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "at least one INPUT is required"}
	}

	explicit := explicitFlags(flagSet)
	if explicit["t"] {
		explicit[app.FieldTree] = true
	}
	if err := finish(&cfg, &c, explicit); err != nil {
		return nil, false, err
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return &cfg, false, nil
}

// ParseResolve processes dasfiles arguments, with the same contract as ParseCount.
func ParseResolve(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.", "tool", "dasfiles")
	cfg := app.DefaultConfig()
	flagSet := newFlagSet("dasfiles", resolveUsage, output)

	var c common
	c.register(flagSet, cfg)
	flagSet.StringVar(&cfg.Redirector, app.FieldRedirector, cfg.Redirector, "XRootD redirector prepended to each file.")
	flagSet.StringVar(&cfg.Command, app.FieldCommand, cfg.Command, "DAS query client executable.")
	flagSet.BoolVar(&cfg.Strict, "strict", false, "Exit with an error when a query fails instead of printing nothing.")

	positional, shouldExit, err := parseFlags(flagSet, args)
	if shouldExit || err != nil {
		return nil, shouldExit, err
	}

	cfg.Datasets = positional
	if len(cfg.Datasets) == 0 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "at least one DATASET is required"}
	}

	if err := finish(&cfg, &c, explicitFlags(flagSet)); err != nil {
		return nil, false, err
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return &cfg, false, nil
}

func newFlagSet(name, usage string, output io.Writer) *flag.FlagSet {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usage)
		flagSet.PrintDefaults()
	}
	return flagSet
}

// parseFlags parses args allowing flags and positional arguments to be
// interleaved, so "eventcount ./data -t Runs" works. Everything after "--"
// is positional.
func parseFlags(flagSet *flag.FlagSet, args []string) ([]string, bool, error) {
	var positional []string
	for {
		if err := flagSet.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, true, nil
			}
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}

		rest := flagSet.Args()
		if len(rest) == 0 {
			break
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			positional = append(positional, rest...)
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
	slog.Debug("Arguments parsed successfully.", "positional", len(positional))
	return positional, false, nil
}

// explicitFlags returns the names of flags set on the command line.
func explicitFlags(flagSet *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// finish applies the shared flags and the config file, then validates.
func finish(cfg *app.Config, c *common, explicit map[string]bool) error {
	cfg.LogLevel = strings.ToLower(c.logLevel)
	cfg.LogFormat = strings.ToLower(c.logFormat)
	cfg.MetricsTextfile = c.metricsTextfile

	if c.configPath != "" {
		file, err := config.Load(context.Background(), c.configPath)
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		cfg.MergeFile(file, explicit)
		cfg.LogLevel = strings.ToLower(cfg.LogLevel)
		cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	}

	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI parameter validation complete.")
	return nil
}
