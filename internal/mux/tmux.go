package mux

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/timvw/assistant-pane/internal/logging"
	"github.com/timvw/assistant-pane/internal/model"
)

// Tmux implements the Multiplexer interface for tmux.
type Tmux struct {
	runner Runner
	getenv func(string) string
	getwd  func() (string, error)
}

// NewTmux creates a new tmux multiplexer that runs commands through r.
func NewTmux(r Runner) *Tmux {
	if r == nil {
		r = NewExecRunner(0)
	}
	return &Tmux{runner: r, getenv: os.Getenv, getwd: os.Getwd}
}

// Name returns "tmux".
func (t *Tmux) Name() string {
	return "tmux"
}

// IsAvailable reports whether $TMUX is set.
func (t *Tmux) IsAvailable() bool {
	return t.getenv("TMUX") != ""
}

// CurrentPane asks tmux which pane the current client is focused on.
func (t *Tmux) CurrentPane(ctx context.Context) (string, bool) {
	out, err := t.run(ctx, "display-message", "-p", "#{pane_id}")
	if err != nil {
		logging.Debug().Err(err).Msg("tmux: current pane unknown")
		return "", false
	}
	id := strings.TrimSpace(out)
	return id, id != ""
}

// PaneExists reports whether handle is among the live panes of every session.
func (t *Tmux) PaneExists(ctx context.Context, handle string) bool {
	if handle == "" {
		return false
	}
	out, err := t.run(ctx, "list-panes", "-a", "-F", "#{pane_id}")
	if err != nil {
		logging.Debug().Err(err).Str("pane", handle).Msg("tmux: pane listing failed, treating pane as gone")
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == handle {
			return true
		}
	}
	return false
}

// IsFocused reports whether handle exists and has input focus.
func (t *Tmux) IsFocused(ctx context.Context, handle string) bool {
	if handle == "" || !t.PaneExists(ctx, handle) {
		return false
	}
	current, ok := t.CurrentPane(ctx)
	return ok && current == handle
}

// CreatePane splits the current window and runs req.Command in the new pane.
// tmux prints the new pane id (-P -F), which becomes the handle.
func (t *Tmux) CreatePane(ctx context.Context, req model.PlacementRequest) (string, error) {
	args, err := t.splitArgs(req)
	if err != nil {
		return "", err
	}
	out, err := t.run(ctx, args...)
	if err != nil {
		logging.Error().Err(err).Strs("argv", append([]string{"tmux"}, args...)).Msg("tmux: create pane failed")
		return "", fmt.Errorf("tmux split-window: %w", err)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		logging.Error().Strs("argv", append([]string{"tmux"}, args...)).Msg("tmux: split-window printed no pane id")
		return "", fmt.Errorf("tmux split-window: %w", ErrNoPaneHandle)
	}
	return id, nil
}

// splitArgs builds the split-window argument list for req.
func (t *Tmux) splitArgs(req model.PlacementRequest) ([]string, error) {
	args := []string{"split-window", "-P", "-F", "#{pane_id}"}

	switch req.Direction {
	case model.Horizontal:
		args = append(args, "-h")
	case model.Vertical, "":
		args = append(args, "-v")
	default:
		return nil, fmt.Errorf("invalid split direction %q", req.Direction)
	}
	if req.Size != "" {
		args = append(args, "-l", req.Size)
	}
	switch req.Placement {
	case model.Before:
		args = append(args, "-b")
	case model.After, "":
	default:
		return nil, fmt.Errorf("invalid placement %q", req.Placement)
	}
	for _, pair := range req.EnvPairs() {
		args = append(args, "-e", pair)
	}

	dir := req.Dir
	if dir == "" {
		wd, err := t.getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		dir = wd
	}
	args = append(args, "-c", dir)

	if req.Command != "" {
		args = append(args, req.Command)
	}
	return args, nil
}

// FocusPane selects handle's window and then the pane itself.
func (t *Tmux) FocusPane(ctx context.Context, handle string) error {
	if _, err := t.run(ctx, "select-window", "-t", handle); err != nil {
		logging.Warn().Err(err).Str("pane", handle).Msg("tmux: select-window failed")
		return fmt.Errorf("tmux select-window -t %s: %w", handle, err)
	}
	if _, err := t.run(ctx, "select-pane", "-t", handle); err != nil {
		logging.Warn().Err(err).Str("pane", handle).Msg("tmux: select-pane failed")
		return fmt.Errorf("tmux select-pane -t %s: %w", handle, err)
	}
	return nil
}

// KillPane destroys handle after confirming it still exists.
func (t *Tmux) KillPane(ctx context.Context, handle string) error {
	if !t.PaneExists(ctx, handle) {
		return nil
	}
	if _, err := t.run(ctx, "kill-pane", "-t", handle); err != nil {
		logging.Warn().Err(err).Str("pane", handle).Msg("tmux: kill-pane failed")
		return fmt.Errorf("tmux kill-pane -t %s: %w", handle, err)
	}
	return nil
}

// SetPaneTitle sets the pane title shown in pane borders.
func (t *Tmux) SetPaneTitle(ctx context.Context, handle, title string) error {
	if _, err := t.run(ctx, "select-pane", "-t", handle, "-T", title); err != nil {
		logging.Warn().Err(err).Str("pane", handle).Msg("tmux: set pane title failed")
		return fmt.Errorf("tmux select-pane -T: %w", err)
	}
	return nil
}

// ListPanes returns all tmux panes, optionally filtered by session name pattern.
func (t *Tmux) ListPanes(ctx context.Context, filter string) ([]model.Pane, error) {
	// Format: pane_id\tsession_name:window_index.pane_index\tcurrent_command
	format := "#{pane_id}\t#{session_name}:#{window_index}.#{pane_index}\t#{pane_current_command}"
	out, err := t.run(ctx, "list-panes", "-a", "-F", format)
	if err != nil {
		return nil, fmt.Errorf("tmux list-panes: %w", err)
	}

	var re *regexp.Regexp
	if filter != "" {
		re, err = regexp.Compile(filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	var panes []model.Pane
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		pane, err := parseTarget(parts[1])
		if err != nil {
			continue
		}
		pane.ID = parts[0]
		pane.Command = parts[2]

		if re != nil && !re.MatchString(pane.Session) {
			continue
		}
		panes = append(panes, pane)
	}

	return panes, nil
}

// run executes a tmux command and returns its stdout. A non-zero exit is
// returned as *CommandError.
func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	argv := append([]string{"tmux"}, args...)
	res, err := t.runner.Run(ctx, argv...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &CommandError{Argv: argv, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res.Stdout, nil
}

// parseTarget parses a tmux target string "session:window.pane" into a Pane.
func parseTarget(target string) (model.Pane, error) {
	colonIdx := strings.LastIndex(target, ":")
	if colonIdx < 0 {
		return model.Pane{}, fmt.Errorf("invalid target %q: missing ':'", target)
	}

	session := target[:colonIdx]
	rest := target[colonIdx+1:]

	dotIdx := strings.LastIndex(rest, ".")
	if dotIdx < 0 {
		return model.Pane{}, fmt.Errorf("invalid target %q: missing '.'", target)
	}

	window, err := strconv.Atoi(rest[:dotIdx])
	if err != nil {
		return model.Pane{}, fmt.Errorf("invalid window index in %q: %w", target, err)
	}

	pane, err := strconv.Atoi(rest[dotIdx+1:])
	if err != nil {
		return model.Pane{}, fmt.Errorf("invalid pane index in %q: %w", target, err)
	}

	return model.Pane{
		Target:  target,
		Session: session,
		Window:  window,
		Pane:    pane,
	}, nil
}
