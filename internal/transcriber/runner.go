package transcriber

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Command describes one subprocess invocation.
type Command struct {
	Binary string
	Args   []string
	Dir    string
}

// CommandResult captures both output streams and the exit status.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner abstracts process execution so the protocol can be tested without a real tool.
type Runner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after the process is killed.
	WaitDelay time.Duration
}

// NewExecRunner returns a runner with a short pipe wait after cancellation.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: 5 * time.Second}
}

// Run executes cmd, capturing stdout, stderr and the exit code. A non-nil error
// is returned for non-zero exits, launch failures and context cancellation; the
// result is populated as far as the process got in every case.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (CommandResult, error) {
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = r.WaitDelay

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, err
	}
	return result, nil
}
