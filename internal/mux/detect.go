package mux

import (
	"fmt"
	"os"
)

// Detect picks the multiplexer the current process runs inside, from
// environment markers only. No subprocess is spawned.
func Detect(r Runner) (Multiplexer, error) {
	if os.Getenv("TMUX") != "" {
		return NewTmux(r), nil
	}
	if os.Getenv("ZELLIJ") != "" {
		return nil, fmt.Errorf("zellij support is not yet implemented")
	}
	return nil, fmt.Errorf("no supported terminal multiplexer detected (run inside tmux)")
}

// FromName creates a Multiplexer by name.
func FromName(name string, r Runner) (Multiplexer, error) {
	switch name {
	case "tmux":
		return NewTmux(r), nil
	case "zellij":
		return nil, fmt.Errorf("zellij support is not yet implemented")
	default:
		return nil, fmt.Errorf("unknown multiplexer: %q (supported: tmux)", name)
	}
}
