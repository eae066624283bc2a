package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/timvw/assistant-pane/internal/logging"
	"github.com/timvw/assistant-pane/internal/selection"
)

var flagSelectionSocket string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve editor state to the assistant over MCP (stdio)",
	Long: `Run an MCP server on stdin/stdout exposing editor state to the assistant.

Selections are fed in by the editor as datagrams on a unix socket (see
"assistant-pane selection record"). The server keeps a bounded history and
answers getLatestSelection with the most recent one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		history := selection.NewHistory(cfg.SelectionHistory)
		collector := selection.NewCollector(history, selectionSocket())
		if err := collector.Start(ctx); err != nil {
			return fmt.Errorf("selection collector: %w", err)
		}

		s := selection.NewServer("assistant-pane", Version, func(context.Context) (*selection.History, error) {
			return history, nil
		})
		logging.Info().Str("socket", collector.SocketPath()).Msg("mcp: serving on stdio")
		return server.ServeStdio(s)
	},
}

// selectionSocket resolves the socket: flag -> config -> default.
func selectionSocket() string {
	if flagSelectionSocket != "" {
		return flagSelectionSocket
	}
	if cfg.SelectionSocket != "" {
		return cfg.SelectionSocket
	}
	return selection.DefaultSocketPath()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSelectionSocket, "selection-socket", "",
		"Unix datagram socket path for selection events")
	rootCmd.AddCommand(serveCmd)
}
