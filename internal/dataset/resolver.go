// Package dataset resolves catalog dataset names into remotely readable file
// paths by asking the DAS query tool for the dataset's logical file names and
// prefixing each one with an XRootD redirector.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/hepscan/internal/command"
	"github.com/specialistvlad/hepscan/internal/ctxlog"
)

const (
	// DefaultRedirector is the CMS global XRootD redirector.
	DefaultRedirector = "root://cms-xrd-global.cern.ch//"
	// DefaultCommand is the DAS command-line client.
	DefaultCommand = "dasgoclient"
)

var (
	// ErrToolMissing is returned by New when the query tool is not on PATH.
	ErrToolMissing = errors.New("dataset query tool missing")
	// ErrQueryFailed wraps every failure returned by Query.
	ErrQueryFailed = errors.New("dataset query failed")
)

// Listing is the result of a successful catalog query.
type Listing struct {
	Dataset string
	// Files holds access paths, already prefixed with the redirector.
	Files []string
}

// Resolver queries the data catalog for the files of a dataset.
type Resolver struct {
	redirector string
	command    string
	runner     command.Runner
	observe    func(*Listing, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRedirector overrides DefaultRedirector. The value is prepended verbatim.
func WithRedirector(redirector string) Option {
	return func(r *Resolver) { r.redirector = redirector }
}

// WithCommand overrides DefaultCommand.
func WithCommand(name string) Option {
	return func(r *Resolver) { r.command = name }
}

// WithObserver registers fn to be called once per query with its outcome:
// the listing on success, or a nil listing and the error on failure. It sees
// failures that Resolve hides from its caller.
func WithObserver(fn func(*Listing, error)) Option {
	return func(r *Resolver) { r.observe = fn }
}

// New builds a Resolver and fails fast when the query tool cannot be found,
// before any query is attempted.
func New(ctx context.Context, runner command.Runner, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		redirector: DefaultRedirector,
		command:    DefaultCommand,
		runner:     runner,
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := runner.LookPath(r.command); err != nil {
		logger := ctxlog.FromContext(ctx)
		logger.Error("Query tool not found.", "command", r.command)
		logger.Error("Please ensure you have run 'cmsenv' and have a valid grid certificate.")
		return nil, fmt.Errorf("%w: %s: %w", ErrToolMissing, r.command, err)
	}
	return r, nil
}

// Redirector returns the prefix applied to every logical file name.
func (r *Resolver) Redirector() string {
	return r.redirector
}

// Query asks the catalog for the files of ds. Unlike Resolve it reports a
// failed query as an error wrapping ErrQueryFailed, so an empty dataset and a
// broken query can be told apart.
func (r *Resolver) Query(ctx context.Context, ds string) (*Listing, error) {
	listing, err := r.query(ctx, ds)
	if r.observe != nil {
		r.observe(listing, err)
	}
	return listing, err
}

func (r *Resolver) query(ctx context.Context, ds string) (*Listing, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Querying DAS.", "dataset", ds)

	res, err := r.runner.Run(ctx, r.command, "--query", "file dataset="+ds, "--limit=0")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	if !res.Success() {
		return nil, fmt.Errorf("%w: %s exited with status %d: %s",
			ErrQueryFailed, r.command, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	lfns := parseLines(res.Stdout)
	listing := &Listing{Dataset: ds, Files: make([]string, 0, len(lfns))}
	for _, lfn := range lfns {
		listing.Files = append(listing.Files, r.redirector+lfn)
	}
	return listing, nil
}

// Resolve returns the access paths of every file in ds. An empty dataset and
// a failed query both yield an empty slice; the difference is only visible in
// the log.
func (r *Resolver) Resolve(ctx context.Context, ds string) []string {
	logger := ctxlog.FromContext(ctx)

	listing, err := r.Query(ctx, ds)
	if err != nil {
		logger.Error("DAS query failed.", "dataset", ds, "error", err)
		return []string{}
	}
	if len(listing.Files) == 0 {
		logger.Warn("No files found for dataset.", "dataset", ds)
		return []string{}
	}

	logger.Info("Found files.", "dataset", ds, "count", len(listing.Files))
	return listing.Files
}

// parseLines splits tool output into trimmed, non-empty lines.
func parseLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
