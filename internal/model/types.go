package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Pane represents a live terminal multiplexer pane.
type Pane struct {
	// ID is the multiplexer-assigned pane handle (e.g., "%12" for tmux).
	// It is stable for the pane's lifetime and never reused by the manager.
	ID string `json:"id"`
	// Target is the positional pane identifier (e.g., "session:0.0").
	Target string `json:"target"`
	// Session is the session name.
	Session string `json:"session"`
	// Window is the window index.
	Window int `json:"window"`
	// Pane is the pane index.
	Pane int `json:"pane"`
	// Command is the current command running in the pane (e.g., "node", "bash").
	Command string `json:"command"`
}

// Direction is the split axis of a new pane.
type Direction string

const (
	// Horizontal places the new pane beside the current one (left/right).
	Horizontal Direction = "horizontal"
	// Vertical places the new pane above or below the current one.
	Vertical Direction = "vertical"
)

// Placement selects on which side of the split the new pane appears.
type Placement string

const (
	Before Placement = "before"
	After  Placement = "after"
)

// PaneOptions are the geometry settings recognized by open and the toggles.
type PaneOptions struct {
	Direction Direction `json:"split_direction"`
	Size      string    `json:"pane_size"` // "30%" or an absolute cell count such as "80"
	Placement Placement `json:"placement"`
	Title     string    `json:"title,omitempty"`
}

// PlacementRequest describes one pane to create. It is built fresh for each
// open and never mutated afterwards.
type PlacementRequest struct {
	Direction Direction
	Size      string
	Placement Placement
	// Dir is the working directory the command starts in.
	Dir string
	// Command is the shell command line to run inside the pane.
	Command string
	// Env is injected into the pane's environment.
	Env map[string]string
	// Title labels the pane after creation. Empty means no label.
	Title string
}

// NewPlacementRequest builds a request from a command, environment and options.
// The environment map is copied so later mutation by the caller has no effect.
func NewPlacementRequest(command string, env map[string]string, opts PaneOptions, dir string) PlacementRequest {
	copied := make(map[string]string, len(env))
	for k, v := range env {
		copied[k] = v
	}
	return PlacementRequest{
		Direction: opts.Direction,
		Size:      opts.Size,
		Placement: opts.Placement,
		Dir:       dir,
		Command:   command,
		Env:       copied,
		Title:     opts.Title,
	}
}

// EnvPairs returns the environment as KEY=VALUE strings sorted by key,
// so the generated command line does not depend on map iteration order.
func (r PlacementRequest) EnvPairs() []string {
	keys := make([]string, 0, len(r.Env))
	for k := range r.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+r.Env[k])
	}
	return pairs
}

// Position is a zero-based line/character location in a document.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is the span of a selection.
type Range struct {
	Start   Position `json:"start"`
	End     Position `json:"end"`
	IsEmpty bool     `json:"isEmpty"`
}

// Selection is one text selection recorded by the editor.
type Selection struct {
	Text       string    `json:"text"`
	FilePath   string    `json:"filePath"`
	FileURL    string    `json:"fileUrl"`
	Selection  Range     `json:"selection"`
	RecordedAt time.Time `json:"ts"`
}

// Validate checks that a selection event carries enough data to be recorded.
func (s Selection) Validate() error {
	if strings.TrimSpace(s.FilePath) == "" {
		return fmt.Errorf("filePath is required")
	}
	if s.RecordedAt.IsZero() {
		return fmt.Errorf("ts is required")
	}
	start, end := s.Selection.Start, s.Selection.End
	if start.Line < 0 || start.Character < 0 || end.Line < 0 || end.Character < 0 {
		return fmt.Errorf("negative position in selection")
	}
	if end.Line < start.Line || (end.Line == start.Line && end.Character < start.Character) {
		return fmt.Errorf("selection end precedes start")
	}
	return nil
}

// WithFileURL fills FileURL from FilePath when the editor did not send one.
func (s Selection) WithFileURL() Selection {
	if s.FileURL == "" && s.FilePath != "" {
		s.FileURL = "file://" + s.FilePath
	}
	return s
}
