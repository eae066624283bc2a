package mux

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerCapturesOutputAndExitCode(t *testing.T) {
	requireShell(t)

	var observed []int
	r := NewExecRunner(0)
	r.Observe = func(_ []string, _ time.Duration, res Result, _ error) { observed = append(observed, res.ExitCode) }

	res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2; exit 3")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode: got %d, want 3", res.ExitCode)
	}
	if res.Stdout != "out\n" {
		t.Errorf("Stdout: got %q, want %q", res.Stdout, "out\n")
	}
	if res.Stderr != "err\n" {
		t.Errorf("Stderr: got %q, want %q", res.Stderr, "err\n")
	}
	if len(observed) != 1 || observed[0] != 3 {
		t.Errorf("Observe: got %v, want [3]", observed)
	}
}

func TestExecRunnerLaunchError(t *testing.T) {
	r := NewExecRunner(0)
	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-4711")
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LaunchError, got %v", err)
	}

	_, err = r.Run(context.Background())
	if !errors.As(err, &le) {
		t.Fatalf("expected *LaunchError for empty argv, got %v", err)
	}
}

func TestExecRunnerTimeout(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name   string
		script string
	}{
		{"direct child", "sleep 5"},
		// The shell forks sleep, which keeps stdout open after sh is killed.
		{"grandchild holds pipes", "sleep 5; true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewExecRunner(50 * time.Millisecond)
			start := time.Now()
			_, err := r.Run(context.Background(), "sh", "-c", tt.script)
			elapsed := time.Since(start)
			if !errors.Is(err, ErrTimeout) {
				t.Fatalf("expected ErrTimeout, got %v", err)
			}
			if elapsed > 2*time.Second {
				t.Errorf("timeout not enforced: returned after %s", elapsed)
			}
		})
	}
}

func TestCommandErrorMessage(t *testing.T) {
	err := &CommandError{Argv: []string{"tmux", "kill-pane", "-t", "%1"}, ExitCode: 1, Stderr: "can't find pane\n"}
	want := "tmux kill-pane -t %1: exit status 1: can't find pane"
	if err.Error() != want {
		t.Errorf("Error(): got %q, want %q", err.Error(), want)
	}
}
