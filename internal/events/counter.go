// Package events counts the entries of a named tree across a set of ROOT
// files. Files are visited one at a time; a file that cannot be read or lacks
// the tree contributes zero and never stops the run.
package events

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/hepscan/internal/ctxlog"
)

// DefaultTree is the tree counted when no other name is configured.
const DefaultTree = "Events"

// Outcome classifies how a single file was handled.
type Outcome int

const (
	// OutcomeOK means the tree was found and its entries were added.
	OutcomeOK Outcome = iota
	// OutcomeSkip means the file was readable but had no such tree.
	OutcomeSkip
	// OutcomeError means the file could not be opened or read.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeSkip:
		return "skip"
	case OutcomeError:
		return "err"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// FileResult is the per-file result of a count.
type FileResult struct {
	Path    string
	Entries int64
	Outcome Outcome
	Err     error
}

// Report summarises a count over many files.
type Report struct {
	Tree  string
	Total int64
	Files []FileResult
}

// Count returns how many files ended with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == o {
			n++
		}
	}
	return n
}

// Counter sums tree entries over files.
type Counter struct {
	tree   string
	opener Opener
}

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithTree sets the tree name to look up.
func WithTree(name string) CounterOption {
	return func(c *Counter) { c.tree = name }
}

// WithOpener replaces the ROOT file reader.
func WithOpener(o Opener) CounterOption {
	return func(c *Counter) { c.opener = o }
}

// NewCounter returns a Counter for DefaultTree backed by GrootOpener unless
// overridden by opts.
func NewCounter(opts ...CounterOption) *Counter {
	c := &Counter{tree: DefaultTree, opener: GrootOpener{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tree returns the configured tree name.
func (c *Counter) Tree() string {
	return c.tree
}

// Count returns the total number of entries across paths.
func (c *Counter) Count(ctx context.Context, paths []string) int64 {
	return c.CountFiles(ctx, paths).Total
}

// CountFiles visits paths in order and returns the per-file results along
// with the total. Only OutcomeOK results add to the total.
func (c *Counter) CountFiles(ctx context.Context, paths []string) Report {
	logger := ctxlog.FromContext(ctx)
	report := Report{Tree: c.tree}

	if len(paths) == 0 {
		logger.Warn("No files provided to count.")
		return report
	}

	logger.Info("Starting count.", "tree", c.tree, "files", len(paths))
	report.Files = make([]FileResult, 0, len(paths))

	for _, path := range paths {
		res := c.countOne(path)
		name := filepath.Base(path)

		switch res.Outcome {
		case OutcomeOK:
			report.Total += res.Entries
			logger.Info("[OK]", "file", name, "entries", res.Entries)
		case OutcomeSkip:
			logger.Warn("[SKIP] Tree not found.", "file", name, "tree", c.tree)
		default:
			logger.Error("[ERR] Failed to read file.", "file", name, "error", res.Err)
		}
		report.Files = append(report.Files, res)
	}

	return report
}

// countOne inspects a single file. The file is closed before returning on
// every path, including a panic inside the reader.
func (c *Counter) countOne(path string) (res FileResult) {
	res = FileResult{Path: path, Outcome: OutcomeError}

	defer func() {
		if r := recover(); r != nil {
			res = FileResult{Path: path, Outcome: OutcomeError, Err: fmt.Errorf("reader panicked: %v", r)}
		}
	}()

	f, err := c.opener.Open(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to open: %w", err)
		return res
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && res.Outcome == OutcomeOK {
			res = FileResult{Path: path, Outcome: OutcomeError, Err: fmt.Errorf("failed to close: %w", cerr)}
		}
	}()

	n, found, err := f.Entries(c.tree)
	switch {
	case err != nil:
		res.Err = err
	case !found:
		res.Outcome = OutcomeSkip
	case n < 0:
		res.Err = errors.New("negative entry count")
	default:
		res.Outcome = OutcomeOK
		res.Entries = n
	}
	return res
}
