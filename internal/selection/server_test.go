package selection

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callLatest(t *testing.T, load Loader) (*mcp.CallToolResult, error) {
	t.Helper()
	server := NewServer("assistant-pane", "test", load)
	tool := server.GetTool(ToolLatestSelection)
	require.NotNil(t, tool, "getLatestSelection tool should exist")

	request := mcp.CallToolRequest{}
	request.Params.Name = ToolLatestSelection
	return tool.Handler(context.Background(), request)
}

func decodeText(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content should be text")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), &payload))
	return payload
}

func TestLatestSelection_ReturnsMostRecent(t *testing.T) {
	history := NewHistory(5)
	require.NoError(t, history.Record(sel("/a.go", 1)))
	require.NoError(t, history.Record(sel("/b.go", 7)))

	result, err := callLatest(t, func(context.Context) (*History, error) { return history, nil })
	require.NoError(t, err)
	assert.False(t, result.IsError)

	payload := decodeText(t, result)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "text", payload["text"])
	assert.Equal(t, "/b.go", payload["filePath"])
	assert.Equal(t, "file:///b.go", payload["fileUrl"])

	rng, ok := payload["selection"].(map[string]any)
	require.True(t, ok, "selection should be an object")
	start := rng["start"].(map[string]any)
	assert.Equal(t, float64(7), start["line"])
}

func TestLatestSelection_NoSelection(t *testing.T) {
	result, err := callLatest(t, func(context.Context) (*History, error) { return NewHistory(5), nil })
	require.NoError(t, err, "absence of a selection is not an error")

	payload := decodeText(t, result)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "No selection available", payload["message"])
	assert.NotContains(t, payload, "filePath")
}

func TestLatestSelection_LoadFailureIsInternalError(t *testing.T) {
	boom := errors.New("history unavailable")
	result, err := callLatest(t, func(context.Context) (*History, error) { return nil, boom })
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, result)
}

func TestServer_HasLatestSelectionTool(t *testing.T) {
	server := NewServer("assistant-pane", "test", func(context.Context) (*History, error) { return NewHistory(1), nil })

	tool := server.GetTool(ToolLatestSelection)
	require.NotNil(t, tool)
	assert.Equal(t, ToolLatestSelection, tool.Tool.Name)
	assert.Contains(t, tool.Tool.Description, "selection")
}
