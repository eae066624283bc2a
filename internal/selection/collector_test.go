package selection

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCollector_StartBindsSocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	socketPath := shortSocketPath(t)
	c := NewCollector(NewHistory(10), socketPath)

	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}

	info, err := os.Stat(socketPath)
	if err != nil {
		t.Fatalf("expected socket at %s: %v", socketPath, err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected socket mode 0600, got %o", perm)
	}
}

func TestCollector_RequiresHistoryAndPath(t *testing.T) {
	if err := NewCollector(nil, shortSocketPath(t)).Start(context.Background()); err == nil {
		t.Fatal("expected error without history")
	}
	if err := NewCollector(NewHistory(1), "").Start(context.Background()); err == nil {
		t.Fatal("expected error without socket path")
	}
}

func TestCollector_RecordsSentSelection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	history := NewHistory(10)
	socketPath := shortSocketPath(t)
	c := NewCollector(history, socketPath)
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}

	if err := Send(socketPath, sel("/src/main.go", 3)); err != nil {
		t.Fatalf("send: %v", err)
	}

	waitFor(t, 1*time.Second, func() bool {
		got, ok := history.Latest()
		return ok && got.FilePath == "/src/main.go"
	})
}

func TestCollector_AcceptsRawEditorPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	history := NewHistory(10)
	socketPath := shortSocketPath(t)
	c := NewCollector(history, socketPath)
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}

	payload := []byte(`{"text":"x := 1","filePath":"/w/a.go","fileUrl":"file:///w/a.go",` +
		`"selection":{"start":{"line":4,"character":0},"end":{"line":4,"character":6},"isEmpty":false},` +
		`"ts":"2026-02-27T12:00:00Z"}`)
	if err := sendDatagram(socketPath, payload); err != nil {
		t.Fatalf("send datagram: %v", err)
	}

	waitFor(t, 1*time.Second, func() bool { return history.Len() == 1 })
	got, _ := history.Latest()
	if got.Text != "x := 1" || got.Selection.End.Character != 6 {
		t.Fatalf("unexpected selection: %+v", got)
	}
}

func TestCollector_IgnoresMalformedSelection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	history := NewHistory(10)
	socketPath := shortSocketPath(t)
	c := NewCollector(history, socketPath)
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}

	if err := sendDatagram(socketPath, []byte(`not-json`)); err != nil {
		t.Fatalf("send datagram: %v", err)
	}
	if err := sendDatagram(socketPath, []byte(`{"text":"no path","ts":"2026-02-27T12:00:00Z"}`)); err != nil {
		t.Fatalf("send datagram: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if got := history.Len(); got != 0 {
		t.Fatalf("expected 0 selections for malformed payloads, got %d", got)
	}
}

func TestCollector_RejectsOversizedPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	history := NewHistory(10)
	socketPath := shortSocketPath(t)
	c := NewCollector(history, socketPath)
	c.MaxPayloadBytes = 64
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}

	big := make([]byte, 128)
	for i := range big {
		big[i] = 'a'
	}
	if err := sendDatagram(socketPath, big); err != nil {
		t.Fatalf("send datagram: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if got := history.Len(); got != 0 {
		t.Fatalf("expected 0 selections for oversized payload, got %d", got)
	}
}

func TestCollector_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	socketPath := shortSocketPath(t)
	c := NewCollector(NewHistory(10), socketPath)
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}
	cancel()

	waitFor(t, 1*time.Second, func() bool {
		_, err := os.Stat(socketPath)
		return os.IsNotExist(err)
	})
}

func TestSend_NoCollector(t *testing.T) {
	if err := Send(shortSocketPath(t), sel("/a.go", 0)); err == nil {
		t.Fatal("expected error when nothing listens")
	}
}

func sendDatagram(socketPath string, payload []byte) error {
	addr, err := net.ResolveUnixAddr("unixgram", socketPath)
	if err != nil {
		return err
	}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write(payload)
	return err
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func shortSocketPath(t *testing.T) string {
	t.Helper()
	base := filepath.Join(os.TempDir(), "ap-sel")
	if err := os.MkdirAll(base, 0o700); err != nil {
		t.Fatalf("mkdir temp base: %v", err)
	}
	p := filepath.Join(base, fmt.Sprintf("%d-%d.sock", time.Now().UnixNano(), os.Getpid()))
	t.Cleanup(func() {
		_ = os.Remove(p)
	})
	return p
}
