package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var flagFilter string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all panes",
	Long: `List all terminal multiplexer panes with their handle, target, and
current command.

Optionally filter by session name using a regex pattern.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := getMultiplexer()
		if err != nil {
			return err
		}

		panes, err := m.ListPanes(cmd.Context(), flagFilter)
		if err != nil {
			return fmt.Errorf("failed to list panes: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, p := range panes {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Target, p.Command)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().StringVar(&flagFilter, "filter", "", "regex pattern to filter by session name")
	rootCmd.AddCommand(listCmd)
}
