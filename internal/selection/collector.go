package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/timvw/assistant-pane/internal/logging"
	"github.com/timvw/assistant-pane/internal/model"
)

const defaultMaxPayloadBytes = 64 * 1024

// Collector receives selection-changed datagrams from the editor and records
// them into a History. Malformed, invalid, and oversized payloads are
// dropped.
type Collector struct {
	history *History
	path    string

	MaxPayloadBytes int

	mu     sync.Mutex
	conn   *net.UnixConn
	closed bool
}

func NewCollector(history *History, socketPath string) *Collector {
	return &Collector{
		history:         history,
		path:            socketPath,
		MaxPayloadBytes: defaultMaxPayloadBytes,
	}
}

func (c *Collector) SocketPath() string {
	return c.path
}

// Start binds the socket and reads in the background until ctx is done.
func (c *Collector) Start(ctx context.Context) error {
	if c.history == nil {
		return fmt.Errorf("history is required")
	}
	if c.path == "" {
		return fmt.Errorf("socket path is required")
	}
	if c.MaxPayloadBytes <= 0 {
		c.MaxPayloadBytes = defaultMaxPayloadBytes
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Chmod(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("chmod socket dir: %w", err)
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	addr, err := net.ResolveUnixAddr("unixgram", c.path)
	if err != nil {
		return fmt.Errorf("resolve unix addr: %w", err)
	}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return fmt.Errorf("listen unixgram: %w", err)
	}
	if err := os.Chmod(c.path, 0o600); err != nil {
		_ = conn.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.close()
	}()

	go c.readLoop()

	logging.Info().Str("socket", c.path).Msg("selection: collector listening")
	return nil
}

func (c *Collector) readLoop() {
	// One spare byte to detect payloads over the limit.
	buf := make([]byte, c.MaxPayloadBytes+1)
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		n, _, err := conn.ReadFromUnix(buf)
		if err != nil {
			if c.isClosed() {
				return
			}
			continue
		}

		if n <= 0 || n > c.MaxPayloadBytes {
			logging.Debug().Int("bytes", n).Msg("selection: dropped oversized datagram")
			continue
		}

		var sel model.Selection
		if err := json.Unmarshal(buf[:n], &sel); err != nil {
			logging.Debug().Err(err).Msg("selection: dropped malformed datagram")
			continue
		}
		if err := c.history.Record(sel); err != nil {
			logging.Debug().Err(err).Msg("selection: dropped invalid selection")
		}
	}
}

func (c *Collector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Collector) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	_ = os.Remove(c.path)
}

// Send delivers sel to the collector listening on socketPath.
func Send(socketPath string, sel model.Selection) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	addr, err := net.ResolveUnixAddr("unixgram", socketPath)
	if err != nil {
		return fmt.Errorf("resolve unix addr: %w", err)
	}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", socketPath, err)
	}
	defer conn.Close()
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("send selection: %w", err)
	}
	return nil
}
