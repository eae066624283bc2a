package terminal

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/timvw/assistant-pane/internal/model"
)

func newTestNative(t *testing.T) (*Native, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	n := NewNative(nil)
	n.shell = "/bin/sh"
	n.stdin = strings.NewReader("")
	n.stdout = &out
	n.stderr = &out
	dir := t.TempDir()
	n.getwd = func() (string, error) { return dir, nil }
	return n, &out
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNativeToggle(t *testing.T) {
	n, _ := newTestNative(t)

	if got := n.SimpleToggle(ctx, "sleep 30", nil, model.PaneOptions{}); got != ActionOpened {
		t.Fatalf("first toggle: got %q, want %q", got, ActionOpened)
	}
	pid, ok := n.ActiveHandle()
	if !ok || pid <= 0 {
		t.Fatalf("ActiveHandle: got (%d, %v)", pid, ok)
	}

	if got := n.SimpleToggle(ctx, "sleep 30", nil, model.PaneOptions{}); got != ActionClosed {
		t.Fatalf("second toggle: got %q, want %q", got, ActionClosed)
	}
	if _, ok := n.ActiveHandle(); ok {
		t.Error("handle should be absent after close")
	}
}

func TestNativeOpenIsIdempotent(t *testing.T) {
	n, _ := newTestNative(t)
	defer n.Close(ctx)

	if err := n.Open(ctx, "sleep 30", nil, model.PaneOptions{}, true); err != nil {
		t.Fatalf("Open: %v", err)
	}
	first, _ := n.ActiveHandle()
	if err := n.Open(ctx, "sleep 30", nil, model.PaneOptions{}, true); err != nil {
		t.Fatalf("Open: %v", err)
	}
	second, _ := n.ActiveHandle()
	if first != second {
		t.Errorf("second Open started a new child: %d != %d", first, second)
	}
}

func TestNativeEnvAndWorkingDirectory(t *testing.T) {
	n, out := newTestNative(t)
	dir, _ := n.getwd()

	env := map[string]string{"ASSISTANT_PORT": "4711"}
	if err := n.Open(ctx, `printf '%s %s' "$ASSISTANT_PORT" "$(pwd)"`, env, model.PaneOptions{}, true); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := n.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "4711 ") {
		t.Errorf("env not injected: %q", got)
	}
	if !strings.HasSuffix(got, dir) {
		t.Errorf("working directory: got %q, want suffix %q", got, dir)
	}
}

func TestNativeExitedChildIsClosed(t *testing.T) {
	n, _ := newTestNative(t)

	if err := n.Open(ctx, "exit 3", nil, model.PaneOptions{}, true); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := n.Wait(waitCtx(t)); err == nil {
		t.Error("Wait: expected exit error")
	}
	if _, ok := n.ActiveHandle(); ok {
		t.Error("exited child must not report a handle")
	}
	if got := n.Close(ctx); got != ActionNone {
		t.Errorf("Close: got %q, want %q", got, ActionNone)
	}
	if got := n.FocusToggle(ctx, "sleep 30", nil, model.PaneOptions{}); got != ActionOpened {
		t.Errorf("FocusToggle: got %q, want %q", got, ActionOpened)
	}
	n.Close(ctx)
}

func TestNativeWaitWithoutChild(t *testing.T) {
	n, _ := newTestNative(t)
	if err := n.Wait(ctx); err != nil {
		t.Errorf("Wait: %v", err)
	}
}

func TestSelect(t *testing.T) {
	defaults := model.PaneOptions{Direction: model.Horizontal, Size: "30%"}

	t.Run("native", func(t *testing.T) {
		p, err := Select("native", defaults, Deps{})
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if p.Name() != "native" {
			t.Errorf("Name: got %q", p.Name())
		}
	})

	t.Run("auto outside tmux", func(t *testing.T) {
		t.Setenv("TMUX", "")
		p, err := Select("auto", defaults, Deps{})
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if p.Name() != "native" {
			t.Errorf("Name: got %q, want native", p.Name())
		}
	})

	t.Run("tmux unavailable", func(t *testing.T) {
		t.Setenv("TMUX", "")
		if _, err := Select("tmux", defaults, Deps{}); err == nil {
			t.Error("expected error for unavailable tmux")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := Select("screen", defaults, Deps{}); err == nil {
			t.Error("expected error for unknown provider")
		}
	})
}
