// Package fsutil provides file system utility functions.
package fsutil

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/specialistvlad/hepscan/internal/ctxlog"
)

// RootExtension is the suffix of ROOT data files.
const RootExtension = ".root"

// FindFilesByExtension recursively searches root for all regular files whose
// extension equals ext. It returns their full paths in walk order.
func FindFilesByExtension(fsys afero.Fs, root string, ext string) ([]string, error) {
	if ext == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ext {
			return nil
		}
		if isRegular(fsys, path, info) {
			files = append(files, path)
		}
		return nil
	})

	// Partial results are still useful to the caller.
	return files, err
}

// Expand turns caller-supplied files and directories into a sorted list of
// unique absolute paths ending in ext. On the host file system inputs are
// resolved through symbolic links first, so a linked data directory is
// scanned at its target. Missing inputs are logged and skipped;
// files with another extension are skipped with a debug note.
func Expand(ctx context.Context, fsys afero.Fs, inputs []string, ext string) []string {
	logger := ctxlog.FromContext(ctx)
	seen := make(map[string]struct{})

	for _, input := range inputs {
		path, err := filepath.Abs(input)
		if err != nil {
			logger.Warn("Cannot resolve path.", "path", input, "error", err)
			continue
		}
		path = resolveLinks(fsys, path)

		info, err := fsys.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("Path does not exist.", "path", path)
			} else {
				logger.Warn("Cannot access path.", "path", path, "error", err)
			}
			continue
		}

		if !info.IsDir() {
			switch {
			case !info.Mode().IsRegular():
				logger.Debug("Skipping non-regular file.", "file", filepath.Base(path), "mode", info.Mode().String())
			case filepath.Ext(path) == ext:
				seen[path] = struct{}{}
			default:
				logger.Debug("Skipping file with unexpected extension.", "file", filepath.Base(path), "extension", ext)
			}
			continue
		}

		logger.Info("Scanning directory (recursive).", "path", path)
		found, err := FindFilesByExtension(fsys, path, ext)
		if err != nil {
			logger.Warn("Directory scan incomplete.", "path", path, "error", err)
		}
		logger.Info("Directory scanned.", "dir", filepath.Base(path), "found", len(found))
		for _, f := range found {
			seen[f] = struct{}{}
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	slices.SortFunc(files, comparePaths)
	return files
}

// resolveLinks returns path with symbolic links evaluated when fsys is the
// host file system. Other file systems, and paths that cannot be evaluated,
// are returned unchanged; Stat reports the latter.
func resolveLinks(fsys afero.Fs, path string) string {
	if _, ok := fsys.(*afero.OsFs); !ok {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// isRegular reports whether info, as seen during a walk, is a regular file.
// Walks do not follow links, so a link is judged by its target.
func isRegular(fsys afero.Fs, path string, info os.FileInfo) bool {
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := fsys.Stat(path)
		if err != nil {
			return false
		}
		info = target
	}
	return info.Mode().IsRegular()
}

// comparePaths orders paths component by component, so "a/x" sorts before
// "a-b/x" regardless of how the separator compares to other bytes.
func comparePaths(a, b string) int {
	sep := string(filepath.Separator)
	return slices.Compare(strings.Split(a, sep), strings.Split(b, sep))
}
