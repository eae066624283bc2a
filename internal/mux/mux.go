// Package mux provides an abstraction over terminal multiplexers (tmux, zellij).
//
// The multiplexer owns the panes: everything this package reports is a
// snapshot of external state at call time and is never cached.
package mux

import (
	"context"

	"github.com/timvw/assistant-pane/internal/model"
)

// Querier holds the read-only probes. Failures degrade to "absent"/false:
// callers treat unknown as absent.
type Querier interface {
	// IsAvailable reports whether the current process runs inside the
	// multiplexer. Environment inspection only.
	IsAvailable() bool

	// CurrentPane returns the handle of the pane with input focus.
	// The bool is false when the multiplexer could not tell, which does not
	// mean no pane exists.
	CurrentPane(ctx context.Context) (string, bool)

	// PaneExists lists every live pane across all sessions and reports
	// whether handle is among them.
	PaneExists(ctx context.Context, handle string) bool

	// IsFocused reports PaneExists(handle) && CurrentPane() == handle.
	IsFocused(ctx context.Context, handle string) bool
}

// Controller holds the mutating pane operations.
type Controller interface {
	// CreatePane issues one create command and returns the new pane's handle.
	CreatePane(ctx context.Context, req model.PlacementRequest) (string, error)

	// FocusPane moves input focus to handle. Best effort: callers may ignore
	// the returned error.
	FocusPane(ctx context.Context, handle string) error

	// KillPane destroys handle if it still exists. A pane that is already
	// gone is a no-op. Best effort: callers may ignore the returned error.
	KillPane(ctx context.Context, handle string) error

	// SetPaneTitle labels a pane. Best effort.
	SetPaneTitle(ctx context.Context, handle, title string) error
}

// Multiplexer abstracts terminal multiplexer operations.
// Implementations exist for tmux and (future) zellij.
type Multiplexer interface {
	Querier
	Controller

	// Name returns the multiplexer name (e.g., "tmux", "zellij").
	Name() string

	// ListPanes returns all panes, optionally filtered by a session name regex pattern.
	// An empty filter returns all panes.
	ListPanes(ctx context.Context, filter string) ([]model.Pane, error)
}
