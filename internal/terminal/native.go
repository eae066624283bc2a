package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/timvw/assistant-pane/internal/logging"
	"github.com/timvw/assistant-pane/internal/model"
	telem "github.com/timvw/assistant-pane/internal/otel"
)

// Native runs the companion process as an owned child of this process, for
// hosts without a multiplexer. The child is ours, so there is no drift: the
// goroutine that reaps it marks the handle finished.
type Native struct {
	tel    *telem.Telemetry
	shell  string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getwd  func() (string, error)

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// NewNative creates a native provider whose child shares this process's
// terminal.
func NewNative(tel *telem.Telemetry) *Native {
	if tel == nil {
		tel = telem.Noop()
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Native{
		tel:    tel,
		shell:  shell,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getwd:  os.Getwd,
	}
}

var _ Provider = (*Native)(nil)

func (n *Native) Name() string { return "native" }

// IsAvailable is always true: a child process needs no host support.
func (n *Native) IsAvailable() bool { return true }

// Setup ignores geometry: an owned child has no pane to size.
func (n *Native) Setup(model.PaneOptions) error { return nil }

func (n *Native) Open(ctx context.Context, command string, env map[string]string, _ model.PaneOptions, _ bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	started, err := n.open(ctx, command, env)
	action := ActionNone
	switch {
	case err != nil:
		action = ActionFailed
	case started:
		action = ActionOpened
	}
	n.tel.Metrics.RecordOperation(ctx, "open", string(action))
	return err
}

func (n *Native) Close(ctx context.Context) Action {
	n.mu.Lock()
	defer n.mu.Unlock()
	action := n.close()
	n.tel.Metrics.RecordOperation(ctx, "close", string(action))
	return action
}

func (n *Native) SimpleToggle(ctx context.Context, command string, env map[string]string, _ model.PaneOptions) Action {
	n.mu.Lock()
	defer n.mu.Unlock()

	var action Action
	if n.runningLocked() {
		action = n.close()
	} else if _, err := n.open(ctx, command, env); err != nil {
		action = ActionFailed
	} else {
		action = ActionOpened
	}
	n.tel.Metrics.RecordOperation(ctx, "toggle", string(action))
	return action
}

// FocusToggle behaves like SimpleToggle: a child process has no focus.
func (n *Native) FocusToggle(ctx context.Context, command string, env map[string]string, opts model.PaneOptions) Action {
	return n.SimpleToggle(ctx, command, env, opts)
}

// ActiveHandle returns the child's PID while it runs.
func (n *Native) ActiveHandle() (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.runningLocked() {
		return 0, false
	}
	return n.cmd.Process.Pid, true
}

// Wait blocks until the current child exits and returns its exit error.
// It returns nil immediately when nothing runs.
func (n *Native) Wait(ctx context.Context) error {
	n.mu.Lock()
	done := n.done
	n.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		n.mu.Lock()
		defer n.mu.Unlock()
		return n.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Native) runningLocked() bool {
	if n.cmd == nil {
		return false
	}
	select {
	case <-n.done:
		return false
	default:
		return true
	}
}

func (n *Native) open(_ context.Context, command string, env map[string]string) (bool, error) {
	if n.runningLocked() {
		return false, nil
	}
	dir, err := n.getwd()
	if err != nil {
		return false, fmt.Errorf("resolve working directory: %w", err)
	}

	// Not bound to ctx: the child outlives the operation that started it.
	cmd := exec.Command(n.shell, "-c", command)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), model.PlacementRequest{Env: env}.EnvPairs()...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = n.stdin, n.stdout, n.stderr
	if err := cmd.Start(); err != nil {
		logging.Error().Err(err).Str("command", command).Msg("native: start failed")
		return false, fmt.Errorf("start %q: %w", command, err)
	}

	done := make(chan struct{})
	n.cmd, n.done, n.err = cmd, done, nil
	go func() {
		err := cmd.Wait()
		n.mu.Lock()
		n.err = err
		n.mu.Unlock()
		close(done)
	}()
	logging.Info().Int("pid", cmd.Process.Pid).Str("command", command).Msg("native: process started")
	return true, nil
}

func (n *Native) close() Action {
	if !n.runningLocked() {
		n.cmd = nil
		return ActionNone
	}
	if err := n.cmd.Process.Kill(); err != nil {
		logging.Warn().Err(err).Int("pid", n.cmd.Process.Pid).Msg("native: kill failed")
	}
	n.cmd = nil
	return ActionClosed
}
