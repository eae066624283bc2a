// Package terminal manages the user-visible terminal that hosts the
// companion process.
//
// A Provider is one backend (tmux pane, owned child process). All providers
// expose the same idempotent operations: Open, Close, SimpleToggle and
// FocusToggle. The tmux provider is the interesting one: the pane lives in
// the multiplexer and can disappear at any moment, so every operation
// re-validates its cached handle before acting on it.
package terminal

import (
	"context"

	"github.com/timvw/assistant-pane/internal/model"
)

// Action reports what a session operation ended up doing.
type Action string

const (
	ActionNone    Action = "none"
	ActionOpened  Action = "opened"
	ActionClosed  Action = "closed"
	ActionFocused Action = "focused"
	ActionFailed  Action = "failed"
)

// Provider is the capability set of one terminal backend.
type Provider interface {
	// Name returns the backend name ("tmux", "native").
	Name() string

	// IsAvailable reports whether the backend can run in this environment.
	IsAvailable() bool

	// Setup records default pane options. Zero fields in the options passed
	// to later calls fall back to these.
	Setup(defaults model.PaneOptions) error

	// Open makes sure the terminal exists. It never creates a second one
	// while the first is alive. With focus=false the previously focused
	// pane keeps focus.
	Open(ctx context.Context, command string, env map[string]string, opts model.PaneOptions, focus bool) error

	// Close destroys the terminal if it exists and forgets it either way.
	Close(ctx context.Context) Action

	// SimpleToggle closes an existing terminal or opens a missing one.
	// Failures are logged and reported as ActionFailed, never returned.
	SimpleToggle(ctx context.Context, command string, env map[string]string, opts model.PaneOptions) Action

	// FocusToggle hides a focused terminal, focuses an unfocused one, and
	// opens a missing one.
	FocusToggle(ctx context.Context, command string, env map[string]string, opts model.PaneOptions) Action

	// ActiveHandle returns the host-native handle of the terminal. Backends
	// without such a concept (tmux) always return false.
	ActiveHandle() (int, bool)
}

// mergeOptions fills zero fields of opts from defaults.
func mergeOptions(opts, defaults model.PaneOptions) model.PaneOptions {
	if opts.Direction == "" {
		opts.Direction = defaults.Direction
	}
	if opts.Size == "" {
		opts.Size = defaults.Size
	}
	if opts.Placement == "" {
		opts.Placement = defaults.Placement
	}
	if opts.Title == "" {
		opts.Title = defaults.Title
	}
	return opts
}
