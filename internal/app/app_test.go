package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/hepscan/internal/command"
	"github.com/specialistvlad/hepscan/internal/dataset"
	"github.com/specialistvlad/hepscan/internal/testutil"
)

func setupApp(t *testing.T, cfg Config, opts ...Option) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a := NewApp(out, logs, &cfg, opts...)

	t.Cleanup(func() {
		if os.Getenv("HEPSCAN_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

func TestCount_DirectoryScenario(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, filepath.Join(dir, "f1.root"), "Events", 100)
	testutil.WriteFile(t, filepath.Join(dir, "f2.txt"), []byte("notes"))
	testutil.WriteTree(t, filepath.Join(dir, "sub", "f3.root"), "Events", 50)

	cfg := DefaultConfig()
	cfg.Inputs = []string{dir}
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "count.prom")
	a, out, logs := setupApp(t, cfg)

	require.NoError(t, a.Count(context.Background()))

	assert.Equal(t,
		"==================================================\n"+
			" GRAND TOTAL : 150\n"+
			"==================================================\n",
		out.String())
	assert.Equal(t, 150.0, prom.ToFloat64(a.Metrics().Entries))
	assert.Equal(t, 2.0, prom.ToFloat64(a.Metrics().FilesCounted.WithLabelValues("ok")))
	assert.Contains(t, logs.String(), "msg=\"Count finished.\" tree=Events total=150 ok=2 skipped=0 failed=0")

	data, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hepscan_entries_total 150")
}

func TestCount_OneUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.root")
	bad := filepath.Join(dir, "bad.root")
	testutil.WriteTree(t, good, "Events", 12)
	testutil.WriteFile(t, bad, []byte("truncated"))

	cfg := DefaultConfig()
	cfg.Inputs = []string{bad, good}
	a, out, logs := setupApp(t, cfg)

	require.NoError(t, a.Count(context.Background()))

	assert.Contains(t, out.String(), " GRAND TOTAL : 12\n")
	assert.Contains(t, logs.String(), "level=ERROR msg=\"[ERR] Failed to read file.\" file=bad.root")
}

func TestCount_NoFilesFound(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/data/readme.txt", []byte("x"), 0o644))

	cfg := DefaultConfig()
	cfg.Inputs = []string{"/data", "/does/not/exist"}
	a, out, logs := setupApp(t, cfg, WithFs(fsys))

	err := a.Count(context.Background())

	require.ErrorIs(t, err, ErrNoFiles)
	assert.Empty(t, out.String())
	assert.Contains(t, logs.String(), "No ROOT files found.")
}

func TestCount_MetricsFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, filepath.Join(dir, "a.root"), "Events", 1)

	cfg := DefaultConfig()
	cfg.Inputs = []string{dir}
	cfg.MetricsTextfile = filepath.Join(dir, "missing-dir", "m.prom")
	a, out, logs := setupApp(t, cfg)

	require.NoError(t, a.Count(context.Background()))
	assert.Contains(t, out.String(), " GRAND TOTAL : 1\n")
	assert.Contains(t, logs.String(), "Metrics not written.")
}

func TestResolve_PrintsAccessPaths(t *testing.T) {
	runner := testutil.NewFakeRunner(dataset.DefaultCommand)
	runner.Result = command.Result{Stdout: "/a/b/c.root\n/a/b/d.root\n"}

	cfg := DefaultConfig()
	cfg.Datasets = []string{"/A/B/NANOAODSIM"}
	cfg.Redirector = "root://x//"
	a, out, _ := setupApp(t, cfg, WithRunner(runner))

	require.NoError(t, a.Resolve(context.Background()))

	assert.Equal(t, "root://x///a/b/c.root\nroot://x///a/b/d.root\n", out.String())
	assert.Equal(t, 1.0, prom.ToFloat64(a.Metrics().Queries.WithLabelValues("ok")))
	assert.Equal(t, 2.0, prom.ToFloat64(a.Metrics().ResolvedFiles))
}

func TestResolve_ToolMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Datasets = []string{"/A/B/C"}
	a, out, _ := setupApp(t, cfg, WithRunner(testutil.NewFakeRunner()))

	err := a.Resolve(context.Background())

	require.ErrorIs(t, err, dataset.ErrToolMissing)
	assert.Empty(t, out.String())
}

func TestResolve_FailureDegradesUnlessStrict(t *testing.T) {
	runner := testutil.NewFakeRunner(dataset.DefaultCommand)
	runner.Result = command.Result{Stderr: "proxy expired", ExitCode: 1}

	cfg := DefaultConfig()
	cfg.Datasets = []string{"/A/B/C", "/D/E/F"}

	lenient, out, logs := setupApp(t, cfg, WithRunner(runner))
	require.NoError(t, lenient.Resolve(context.Background()))
	assert.Empty(t, out.String())
	assert.Contains(t, logs.String(), "proxy expired")
	assert.Len(t, runner.Calls(), 2)
	assert.Equal(t, 2.0, prom.ToFloat64(lenient.Metrics().Queries.WithLabelValues("failed")))
	assert.Equal(t, 0.0, prom.ToFloat64(lenient.Metrics().Queries.WithLabelValues("empty")))

	cfg.Strict = true
	strict, _, _ := setupApp(t, cfg, WithRunner(runner))
	err := strict.Resolve(context.Background())
	require.ErrorIs(t, err, dataset.ErrQueryFailed)
	assert.Contains(t, err.Error(), "dataset /A/B/C")
	assert.Len(t, runner.Calls(), 3, "strict mode stops at the first failure")
	assert.Equal(t, 1.0, prom.ToFloat64(strict.Metrics().Queries.WithLabelValues("failed")))
}
