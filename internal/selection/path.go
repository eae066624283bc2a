package selection

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultSocketPath is where the collector listens when no socket is
// configured.
func DefaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir != "" {
		return filepath.Join(runtimeDir, "assistant-pane", "selection.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("assistant-pane-%d", os.Getuid()), "selection.sock")
}
