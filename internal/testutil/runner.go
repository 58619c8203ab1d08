package testutil

import (
	"context"
	"errors"
	"os/exec"
	"sync"

	"github.com/specialistvlad/hepscan/internal/command"
)

// Call records one invocation made through FakeRunner.
type Call struct {
	Name string
	Args []string
}

// FakeRunner is an in-memory command.Runner. Programs listed in Installed are
// found by LookPath; Run returns Result and Err as configured.
type FakeRunner struct {
	Installed map[string]string
	Result    command.Result
	Err       error

	mu    sync.Mutex
	calls []Call
}

// NewFakeRunner returns a runner where each of names is installed under /usr/bin.
func NewFakeRunner(names ...string) *FakeRunner {
	installed := make(map[string]string, len(names))
	for _, n := range names {
		installed[n] = "/usr/bin/" + n
	}
	return &FakeRunner{Installed: installed}
}

// LookPath implements command.Runner.
func (f *FakeRunner) LookPath(name string) (string, error) {
	if p, ok := f.Installed[name]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Run implements command.Runner.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return command.Result{}, err
	}
	if _, ok := f.Installed[name]; !ok {
		return command.Result{}, errors.Join(exec.ErrNotFound, errors.New(name))
	}
	return f.Result, f.Err
}

// Calls returns a copy of every invocation seen so far.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
