package terminal

import (
	"fmt"

	"github.com/timvw/assistant-pane/internal/logging"
	"github.com/timvw/assistant-pane/internal/model"
	"github.com/timvw/assistant-pane/internal/mux"
	telem "github.com/timvw/assistant-pane/internal/otel"
)

// Deps are the collaborators a provider may need.
type Deps struct {
	Runner    mux.Runner
	Store     StateStore
	Telemetry *telem.Telemetry
}

// Select picks the provider once, at setup. "auto" prefers tmux when the
// process runs inside it and falls back to native. A provider named
// explicitly must be available.
func Select(name string, defaults model.PaneOptions, deps Deps) (Provider, error) {
	var p Provider
	switch name {
	case "", "auto":
		if m, err := mux.Detect(deps.Runner); err == nil && m.IsAvailable() {
			p = NewSession(m, deps.Store, deps.Telemetry)
		} else {
			logging.Debug().Err(err).Msg("terminal: no multiplexer, using native provider")
			p = NewNative(deps.Telemetry)
		}
	case "native":
		p = NewNative(deps.Telemetry)
	default:
		m, err := mux.FromName(name, deps.Runner)
		if err != nil {
			return nil, err
		}
		if !m.IsAvailable() {
			return nil, fmt.Errorf("provider %q is not available (not running inside %s)", name, m.Name())
		}
		p = NewSession(m, deps.Store, deps.Telemetry)
	}

	if err := p.Setup(defaults); err != nil {
		return nil, fmt.Errorf("setup %s provider: %w", p.Name(), err)
	}
	return p, nil
}
