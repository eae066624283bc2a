package terminal

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/timvw/assistant-pane/internal/logging"
	"github.com/timvw/assistant-pane/internal/model"
	"github.com/timvw/assistant-pane/internal/mux"
	telem "github.com/timvw/assistant-pane/internal/otel"
)

// Session manages one multiplexer pane running the companion process.
//
// Its only state is the last-known pane handle. The multiplexer is the
// authority: the user, the process exiting, or another tool can remove the
// pane at any time, so the handle is re-probed with PaneExists immediately
// before any action that depends on it.
type Session struct {
	mux   mux.Multiplexer
	store StateStore
	tel   *telem.Telemetry
	getwd func() (string, error)

	mu       sync.Mutex
	defaults model.PaneOptions
}

// Status is a point-in-time view of the session.
type Status struct {
	Handle  string `json:"handle,omitempty"`
	Exists  bool   `json:"exists"`
	Focused bool   `json:"focused"`
}

// NewSession creates a session on m. A nil store keeps the handle in memory;
// nil telemetry records nothing.
func NewSession(m mux.Multiplexer, store StateStore, tel *telem.Telemetry) *Session {
	if store == nil {
		store = &MemoryStore{}
	}
	if tel == nil {
		tel = telem.Noop()
	}
	return &Session{mux: m, store: store, tel: tel, getwd: os.Getwd}
}

var _ Provider = (*Session)(nil)

func (s *Session) Name() string { return s.mux.Name() }

func (s *Session) IsAvailable() bool { return s.mux.IsAvailable() }

func (s *Session) Setup(defaults model.PaneOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = defaults
	return nil
}

// ActiveHandle always reports absent: a tmux pane has no host-native handle.
func (s *Session) ActiveHandle() (int, bool) { return 0, false }

func (s *Session) Open(ctx context.Context, command string, env map[string]string, opts model.PaneOptions, focus bool) error {
	_, err := s.do(ctx, "open", func(ctx context.Context, st *sessionState) (Action, error) {
		return s.open(ctx, st, command, env, opts, focus)
	})
	return err
}

func (s *Session) Close(ctx context.Context) Action {
	action, _ := s.do(ctx, "close", func(ctx context.Context, st *sessionState) (Action, error) {
		return s.close(ctx, st), nil
	})
	return action
}

func (s *Session) SimpleToggle(ctx context.Context, command string, env map[string]string, opts model.PaneOptions) Action {
	action, _ := s.do(ctx, "toggle", func(ctx context.Context, st *sessionState) (Action, error) {
		if handle, ok := s.validate(ctx, st); ok {
			s.kill(ctx, st, handle)
			return ActionClosed, nil
		}
		return s.open(ctx, st, command, env, opts, true)
	})
	return action
}

func (s *Session) FocusToggle(ctx context.Context, command string, env map[string]string, opts model.PaneOptions) Action {
	action, _ := s.do(ctx, "focus_toggle", func(ctx context.Context, st *sessionState) (Action, error) {
		handle, ok := s.validate(ctx, st)
		if !ok {
			return s.open(ctx, st, command, env, opts, true)
		}
		if s.mux.IsFocused(ctx, handle) {
			s.kill(ctx, st, handle)
			return ActionClosed, nil
		}
		_ = s.mux.FocusPane(ctx, handle)
		return ActionFocused, nil
	})
	return action
}

// Status re-probes the tracked handle without changing any state.
func (s *Session) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.store.Lock(ctx)
	if err != nil {
		return Status{}, err
	}
	defer unlock()

	handle, err := s.store.Load()
	if err != nil {
		return Status{}, err
	}
	st := Status{Handle: handle}
	if handle != "" {
		st.Exists = s.mux.PaneExists(ctx, handle)
		st.Focused = st.Exists && s.mux.IsFocused(ctx, handle)
	}
	return st, nil
}

type sessionState struct {
	handle string
}

// do runs one operation with the state locked for its whole duration, then
// persists the handle if it changed.
func (s *Session) do(ctx context.Context, op string, fn func(context.Context, *sessionState) (Action, error)) (Action, error) {
	ctx, span := s.tel.Tracer.Start(ctx, "pane."+op)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	action, err := s.locked(ctx, op, fn)

	span.SetAttributes(attribute.String("pane.action", string(action)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.tel.Metrics.RecordOperation(ctx, op, string(action))
	return action, err
}

func (s *Session) locked(ctx context.Context, op string, fn func(context.Context, *sessionState) (Action, error)) (Action, error) {
	unlock, err := s.store.Lock(ctx)
	if err != nil {
		logging.Error().Err(err).Str("op", op).Msg("session: state lock failed")
		return ActionFailed, err
	}
	defer unlock()

	handle, err := s.store.Load()
	if err != nil {
		// An unreadable belief is no belief: proceed as closed.
		logging.Warn().Err(err).Msg("session: state unreadable, assuming closed")
		handle = ""
	}
	st := &sessionState{handle: handle}

	action, err := fn(ctx, st)
	if err != nil {
		logging.Error().Err(err).Str("op", op).Msg("session: operation failed")
	}

	if st.handle != handle {
		if serr := s.store.Save(st.handle); serr != nil {
			logging.Error().Err(serr).Str("pane", st.handle).Msg("session: persisting pane handle failed")
			if err == nil {
				err = fmt.Errorf("save session state: %w", serr)
			}
			if st.handle != "" {
				// An untracked pane would be duplicated by the next open.
				s.rollback(ctx, st.handle)
				action = ActionFailed
			}
		}
	}
	return action, err
}

// validate returns the tracked handle if the pane still exists. A handle
// that vanished out of band is dropped here; that is drift, not an error.
func (s *Session) validate(ctx context.Context, st *sessionState) (string, bool) {
	if st.handle == "" {
		return "", false
	}
	if s.mux.PaneExists(ctx, st.handle) {
		return st.handle, true
	}
	logging.Debug().Str("pane", st.handle).Msg("session: tracked pane is gone")
	s.tel.Metrics.RecordDrift(ctx)
	st.handle = ""
	return "", false
}

func (s *Session) open(ctx context.Context, st *sessionState, command string, env map[string]string, opts model.PaneOptions, focus bool) (Action, error) {
	if handle, ok := s.validate(ctx, st); ok {
		if focus {
			_ = s.mux.FocusPane(ctx, handle)
			return ActionFocused, nil
		}
		return ActionNone, nil
	}

	// Creating a pane moves focus to it, so remember where focus was.
	var previous string
	var havePrevious bool
	if !focus {
		previous, havePrevious = s.mux.CurrentPane(ctx)
	}

	dir, err := s.getwd()
	if err != nil {
		return ActionFailed, fmt.Errorf("resolve working directory: %w", err)
	}
	req := model.NewPlacementRequest(command, env, mergeOptions(opts, s.defaults), dir)

	handle, err := s.mux.CreatePane(ctx, req)
	if err != nil {
		return ActionFailed, err
	}
	st.handle = handle
	logging.Info().Str("pane", handle).Str("command", command).Msg("session: pane created")

	if req.Title != "" {
		_ = s.mux.SetPaneTitle(ctx, handle, req.Title)
	}
	if !focus && havePrevious {
		_ = s.mux.FocusPane(ctx, previous)
	}
	return ActionOpened, nil
}

func (s *Session) close(ctx context.Context, st *sessionState) Action {
	handle, ok := s.validate(ctx, st)
	if !ok {
		st.handle = ""
		return ActionNone
	}
	s.kill(ctx, st, handle)
	return ActionClosed
}

// rollback destroys a pane that was created but could not be recorded.
func (s *Session) rollback(ctx context.Context, handle string) {
	if err := s.mux.KillPane(ctx, handle); err != nil {
		logging.Error().Err(err).Str("pane", handle).Msg("session: untracked pane left behind")
		return
	}
	logging.Warn().Str("pane", handle).Msg("session: pane removed, state could not be saved")
}

// kill destroys handle and forgets it, even if the kill itself failed.
func (s *Session) kill(ctx context.Context, st *sessionState, handle string) {
	_ = s.mux.KillPane(ctx, handle)
	st.handle = ""
}
