package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/specialistvlad/hepscan/internal/command"
	"github.com/specialistvlad/hepscan/internal/ctxlog"
	"github.com/specialistvlad/hepscan/internal/dataset"
	"github.com/specialistvlad/hepscan/internal/events"
	"github.com/specialistvlad/hepscan/internal/fsutil"
	"github.com/specialistvlad/hepscan/internal/metrics"
)

// ErrNoFiles is returned by Count when expansion finds no data files.
var ErrNoFiles = errors.New("no ROOT files found")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	fs       afero.Fs
	runner   command.Runner
	opener   events.Opener
	recorder *metrics.Recorder
}

// Option overrides one of the App's collaborators.
type Option func(*App)

// WithFs replaces the file system used for path expansion.
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithRunner replaces the external command runner.
func WithRunner(r command.Runner) Option {
	return func(a *App) { a.runner = r }
}

// WithOpener replaces the ROOT file reader.
func WithOpener(o events.Opener) Option {
	return func(a *App) { a.opener = o }
}

// NewApp is the constructor for the main application. Results are written to
// outW; diagnostics go to logW through the App's own logger.
func NewApp(outW, logW io.Writer, cfg *Config, opts ...Option) *App {
	a := &App{
		outW:     outW,
		logger:   NewLogger(cfg, logW),
		config:   cfg,
		fs:       afero.NewOsFs(),
		runner:   command.NewExecRunner(),
		opener:   events.GrootOpener{},
		recorder: metrics.NewRecorder(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger.Debug("App configured.", "log_level", cfg.LogLevel, "log_format", cfg.LogFormat)
	return a
}

// Metrics returns the App's recorder. This is primarily for testing.
func (a *App) Metrics() *metrics.Recorder {
	return a.recorder
}

// Count expands the configured inputs, counts tree entries across the
// resulting files and prints the grand total.
func (a *App) Count(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	files := fsutil.Expand(ctx, a.fs, a.config.Inputs, a.config.Extension)
	if len(files) == 0 {
		a.logger.Error("No ROOT files found.", "inputs", len(a.config.Inputs))
		return ErrNoFiles
	}

	counter := events.NewCounter(events.WithTree(a.config.Tree), events.WithOpener(a.opener))
	report := counter.CountFiles(ctx, files)
	a.recorder.ObserveReport(report)
	a.logger.Info("Count finished.",
		"tree", report.Tree,
		"total", report.Total,
		"ok", report.Count(events.OutcomeOK),
		"skipped", report.Count(events.OutcomeSkip),
		"failed", report.Count(events.OutcomeError),
	)

	rule := strings.Repeat("=", 50)
	fmt.Fprintln(a.outW, rule)
	fmt.Fprintf(a.outW, " GRAND TOTAL : %d\n", report.Total)
	fmt.Fprintln(a.outW, rule)

	a.writeMetrics()
	return nil
}

// Resolve queries every configured dataset and prints one access path per
// line. In strict mode the first failed query aborts the run; otherwise
// failures degrade to an empty result, as Resolver.Resolve does.
func (a *App) Resolve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	resolver, err := dataset.New(ctx, a.runner,
		dataset.WithCommand(a.config.Command),
		dataset.WithRedirector(a.config.Redirector),
		dataset.WithObserver(a.recorder.ObserveQuery),
	)
	if err != nil {
		return err
	}

	for _, ds := range a.config.Datasets {
		var files []string
		if a.config.Strict {
			listing, err := resolver.Query(ctx, ds)
			if err != nil {
				a.writeMetrics()
				return fmt.Errorf("dataset %s: %w", ds, err)
			}
			files = listing.Files
			if len(files) == 0 {
				a.logger.Warn("No files found for dataset.", "dataset", ds)
			} else {
				a.logger.Info("Found files.", "dataset", ds, "count", len(files))
			}
		} else {
			files = resolver.Resolve(ctx, ds)
		}

		for _, f := range files {
			fmt.Fprintln(a.outW, f)
		}
	}

	a.writeMetrics()
	return nil
}

// writeMetrics writes the textfile when one is configured. A failure here
// never changes the outcome of the run.
func (a *App) writeMetrics() {
	if a.config.MetricsTextfile == "" {
		return
	}
	if err := a.recorder.WriteTextfile(a.config.MetricsTextfile); err != nil {
		a.logger.Warn("Metrics not written.", "error", err)
		return
	}
	a.logger.Debug("Metrics written.", "path", a.config.MetricsTextfile)
}
