package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/hepscan/internal/cli"
	"github.com/specialistvlad/hepscan/internal/testutil"
)

func TestRun_CountsDirectory(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	testutil.WriteTree(t, filepath.Join(dir, "f1.root"), "Events", 100)
	testutil.WriteFile(t, filepath.Join(dir, "f2.txt"), []byte("ignored"))
	testutil.WriteTree(t, filepath.Join(dir, "sub", "f3.root"), "Events", 50)
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(out, logs, []string{dir})

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out.String(), " GRAND TOTAL : 150\n")
	assert.NotContains(t, out.String(), "level=", "diagnostics must not reach stdout")
	assert.Contains(t, logs.String(), "[OK]")
}

func TestRun_CustomTree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, filepath.Join(dir, "a.root"), "Runs", 3)
	testutil.WriteTree(t, filepath.Join(dir, "b.root"), "Events", 8)
	out := &bytes.Buffer{}

	require.NoError(t, run(out, &bytes.Buffer{}, []string{"-t", "Runs", dir}))
	assert.Contains(t, out.String(), " GRAND TOTAL : 3\n")
}

func TestRun_NoRootFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "notes.txt"), []byte("x"))
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(out, logs, []string{dir, filepath.Join(dir, "missing")})

	require.Error(t, err)
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Empty(t, out.String())
	assert.Contains(t, logs.String(), "No ROOT files found.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out, errW := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(out, errW, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	assert.Contains(t, errW.String(), "Usage:")
	assert.Empty(t, out.String())
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(&bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
