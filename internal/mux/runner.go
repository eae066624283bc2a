package mux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout is returned when a command exceeds the runner's bounded wait.
var ErrTimeout = errors.New("command timed out")

// ErrNoPaneHandle is returned when a create command succeeded but did not
// print a usable pane handle.
var ErrNoPaneHandle = errors.New("create command printed no pane handle")

// LaunchError reports that an external command could not be started at all.
// No exit code exists in this case.
type LaunchError struct {
	Argv []string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// CommandError reports a command that ran but exited non-zero.
type CommandError struct {
	Argv     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", strings.Join(e.Argv, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Result is the outcome of one external command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner runs one external command synchronously.
// A non-nil error means the command never produced a Result (launch failure
// or timeout); a non-zero exit code is reported in the Result, not as an error.
type Runner interface {
	Run(ctx context.Context, argv ...string) (Result, error)
}

// pipeWaitDelay bounds how long a timed-out command's output is drained.
const pipeWaitDelay = 100 * time.Millisecond

// ExecRunner implements Runner using os/exec.
type ExecRunner struct {
	// Timeout bounds each command. Zero waits indefinitely.
	Timeout time.Duration
	// Observe, when set, is called after every command with its result or
	// the launch/timeout error.
	Observe func(argv []string, elapsed time.Duration, res Result, err error)
}

// NewExecRunner creates a runner with the given per-command timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run spawns exactly one process and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, argv ...string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, &LaunchError{Argv: argv, Err: errors.New("empty command")}
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if r.Timeout > 0 {
		// A grandchild can hold the output pipes open after the child is
		// killed; stop waiting for it.
		cmd.WaitDelay = pipeWaitDelay
	}

	start := time.Now()
	res, err := r.wait(ctx, cmd, argv)
	res.Stdout, res.Stderr = stdout.String(), stderr.String()
	if err != nil {
		res = Result{}
	}
	if r.Observe != nil {
		r.Observe(argv, time.Since(start), res, err)
	}
	return res, err
}

func (r *ExecRunner) wait(ctx context.Context, cmd *exec.Cmd, argv []string) (Result, error) {
	err := cmd.Run()
	if err == nil {
		return Result{}, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{}, fmt.Errorf("%s after %s: %w", strings.Join(argv, " "), r.Timeout, ErrTimeout)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return Result{}, &LaunchError{Argv: argv, Err: err}
	}
	return Result{ExitCode: exitErr.ExitCode()}, nil
}
