package selection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/timvw/assistant-pane/internal/model"
)

const (
	ToolLatestSelection = "getLatestSelection"
	noSelectionMessage  = "No selection available"
)

// Loader returns the selection history backing the tool surface.
type Loader func(ctx context.Context) (*History, error)

type latestResult struct {
	Success   bool        `json:"success"`
	Text      string      `json:"text"`
	FilePath  string      `json:"filePath"`
	FileURL   string      `json:"fileUrl"`
	Selection model.Range `json:"selection"`
}

type failureResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewServer creates an MCP server exposing editor state queries.
func NewServer(name, version string, load Loader) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
	)

	latestTool := mcp.NewTool(ToolLatestSelection,
		mcp.WithDescription("Get the most recent text selection made in the editor, even if the editor no longer has focus"),
	)
	s.AddTool(latestTool, latestHandler(load))

	return s
}

func latestHandler(load Loader) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		history, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load selection history: %w", err)
		}

		var res any = failureResult{Success: false, Message: noSelectionMessage}
		if sel, ok := history.Latest(); ok {
			res = latestResult{
				Success:   true,
				Text:      sel.Text,
				FilePath:  sel.FilePath,
				FileURL:   sel.FileURL,
				Selection: sel.Selection,
			}
		}

		data, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("encode selection: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
