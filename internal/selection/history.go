package selection

import (
	"sync"

	"github.com/timvw/assistant-pane/internal/model"
)

const DefaultCapacity = 50

// History keeps the most recent selections recorded by the editor, oldest
// first. It is bounded: recording past capacity evicts the oldest entry.
type History struct {
	mu       sync.RWMutex
	capacity int
	entries  []model.Selection
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity}
}

// Record validates sel and appends it. The file URL is derived from the path
// when the editor did not send one.
func (h *History) Record(sel model.Selection) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	sel = sel.WithFileURL()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == h.capacity {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, sel)
	return nil
}

// Latest returns the most recently recorded selection.
func (h *History) Latest() (model.Selection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return model.Selection{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Snapshot returns a copy of all entries, oldest first.
func (h *History) Snapshot() []model.Selection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.Selection, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
