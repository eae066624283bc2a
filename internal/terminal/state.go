package terminal

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// StateStore holds the one cached pane handle. The handle is a belief, not a
// guarantee: the session re-validates it on every operation.
type StateStore interface {
	// Lock serializes a whole probe/act/update sequence. The returned
	// function releases it.
	Lock(ctx context.Context) (func(), error)
	Load() (string, error)
	Save(handle string) error
}

// MemoryStore keeps the handle in process memory. The session's own mutex
// provides the serialization.
type MemoryStore struct {
	handle string
}

func (m *MemoryStore) Lock(context.Context) (func(), error) { return func() {}, nil }
func (m *MemoryStore) Load() (string, error)                { return m.handle, nil }
func (m *MemoryStore) Save(handle string) error              { m.handle = handle; return nil }

// FileStore persists the handle between short-lived CLI invocations.
// A flock on a sibling lock file guards the read-modify-write across
// processes.
type FileStore struct {
	path string
	lock *flock.Flock

	// RetryDelay is the polling interval while waiting for the lock.
	RetryDelay time.Duration
}

type stateFile struct {
	Handle    string    `json:"handle"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFileStore creates a store for the multiplexer server identified by
// scope (typically $TMUX). Different servers never share a handle.
func NewFileStore(dir, scope string) *FileStore {
	sum := sha256.Sum256([]byte(scope))
	path := filepath.Join(dir, fmt.Sprintf("session-%x.json", sum[:8]))
	return &FileStore{
		path:       path,
		lock:       flock.New(path + ".lock"),
		RetryDelay: 25 * time.Millisecond,
	}
}

// Path returns the state file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	ok, err := f.lock.TryLockContext(ctx, f.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", f.lock.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: not acquired", f.lock.Path())
	}
	return func() { _ = f.lock.Unlock() }, nil
}

func (f *FileStore) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read state: %w", err)
	}
	var s stateFile
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("parse state %s: %w", f.path, err)
	}
	return s.Handle, nil
}

func (f *FileStore) Save(handle string) error {
	if handle == "" {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clear state: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(stateFile{Handle: handle, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
