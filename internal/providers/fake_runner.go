package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mercator-hq/relay/pkg/providers"
)

// FakeRun is a scripted outcome of one command.
type FakeRun struct {
	Stdout   string
	Stderr   string
	ExitCode int

	// Err is returned as the start error; a non-zero ExitCode without Err
	// produces a generic exit error.
	Err error

	// OnRun is called before the result is returned, e.g. to create files
	OnRun func(cmd providers.Command)
}

// FakeRunner is a providers.Runner that records commands and replays scripted
// results keyed by executable path.
type FakeRunner struct {
	mu      sync.Mutex
	runs    map[string][]FakeRun
	history []providers.Command
}

var _ providers.Runner = (*FakeRunner)(nil)

// NewFakeRunner creates an empty FakeRunner. Unscripted commands succeed with
// no output.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{runs: make(map[string][]FakeRun)}
}

// On queues results for commands whose path is path. The last result repeats.
func (f *FakeRunner) On(path string, runs ...FakeRun) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.runs[path] = append(f.runs[path], runs...)
	return f
}

// Commands returns every command run so far, in order.
func (f *FakeRunner) Commands() []providers.Command {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]providers.Command(nil), f.history...)
}

// Run implements providers.Runner.
func (f *FakeRunner) Run(ctx context.Context, cmd providers.Command) (providers.CommandResult, error) {
	f.mu.Lock()
	f.history = append(f.history, cmd)
	var run FakeRun
	if queue := f.runs[cmd.Path]; len(queue) > 0 {
		run = queue[0]
		if len(queue) > 1 {
			f.runs[cmd.Path] = queue[1:]
		}
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return providers.CommandResult{ExitCode: -1}, err
	}

	if run.OnRun != nil {
		run.OnRun(cmd)
	}

	result := providers.CommandResult{
		Stdout:   []byte(run.Stdout),
		Stderr:   []byte(run.Stderr),
		ExitCode: run.ExitCode,
	}

	switch {
	case run.Err != nil:
		return result, run.Err
	case run.ExitCode != 0:
		return result, fmt.Errorf("exit status %d", run.ExitCode)
	default:
		return result, nil
	}
}

// ErrNotFound mimics a missing executable.
var ErrNotFound = errors.New("executable file not found in $PATH")
