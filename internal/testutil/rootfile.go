package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

// WriteTree creates a ROOT file at path holding a single tree with the given
// number of entries. Parent directories are created as needed.
func WriteTree(t *testing.T, path, tree string, entries int) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := groot.Create(path)
	require.NoError(t, err, "failed to create ROOT file %s", path)

	var run int32
	w, err := rtree.NewWriter(f, tree, []rtree.WriteVar{{Name: "run", Value: &run}})
	require.NoError(t, err, "failed to create tree %s", tree)

	for i := 0; i < entries; i++ {
		run = int32(i)
		_, err = w.Write()
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

// WriteFile writes raw bytes to path, creating parent directories.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}
