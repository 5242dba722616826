package tools

import (
	"context"
	"sync"

	"dunmac/internal/sandbox"
)

// fakeRunner records argument vectors instead of spawning processes.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	respond func(argv []string) (sandbox.Result, error)
}

func (f *fakeRunner) Run(ctx context.Context, argv []string) (sandbox.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), argv...))
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return sandbox.Result{Argv: argv}, nil
	}
	return respond(argv)
}

func (f *fakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

func stdout(s string) func([]string) (sandbox.Result, error) {
	return func(argv []string) (sandbox.Result, error) {
		return sandbox.Result{Argv: argv, Stdout: s}, nil
	}
}

func newTestHost(runner *fakeRunner) *Host {
	return &Host{
		Runner: runner,
		Shell:  sandbox.NewGate(nil, runner, 0),
		Output: DefaultOutputFilterConfig(),
	}
}
