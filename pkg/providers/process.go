package providers

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Command is one child process invocation.
type Command struct {
	// Path is the executable to run
	Path string

	// Args are the arguments, not including Path
	Args []string

	// Dir is the working directory ("" for the current one)
	Dir string
}

// CommandResult holds the captured output of a finished command.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner runs child processes for script-executed backends.
//
// Run returns an error when the process cannot be started or exits non-zero.
// Output captured before a failure is still returned in the result.
type Runner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}

// ExecRunner runs commands with os/exec. The process is killed when ctx ends.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, cmd Command) (CommandResult, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()

	result := CommandResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		result.ExitCode = -1
	}

	return result, err
}
