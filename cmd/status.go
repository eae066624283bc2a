package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/timvw/assistant-pane/internal/terminal"
)

var (
	flagTheme      string
	flagStatusJSON bool
)

type statusReport struct {
	Provider string `json:"provider"`
	Handle   string `json:"handle,omitempty"`
	Exists   bool   `json:"exists"`
	Focused  bool   `json:"focused"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the assistant pane is open and focused",
	Long: `Show the tracked pane handle and whether it still exists.

A handle that no longer exists means the pane was closed outside
assistant-pane; the next command will forget it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := getProvider()
		if err != nil {
			return err
		}

		report := statusReport{Provider: p.Name()}
		switch prov := p.(type) {
		case *terminal.Session:
			st, err := prov.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			report.Handle, report.Exists, report.Focused = st.Handle, st.Exists, st.Focused
		default:
			if pid, ok := p.ActiveHandle(); ok {
				report.Handle, report.Exists = strconv.Itoa(pid), true
			}
		}

		if flagStatusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		fmt.Println(renderStatus(report, newStyles(ThemeByName(flagTheme))))
		return nil
	},
}

func renderStatus(r statusReport, s styles) string {
	var state string
	switch {
	case r.Handle == "":
		state = s.muted.Render("closed")
	case !r.Exists:
		state = s.warn.Render("gone (closed outside assistant-pane)")
	case r.Focused:
		state = s.good.Render("open, focused")
	default:
		state = s.good.Render("open")
	}

	handle := r.Handle
	if handle == "" {
		handle = s.muted.Render("-")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("provider"), r.Provider)
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("pane"), handle)
	fmt.Fprintf(&b, "%s %s", s.label.Render("state"), state)
	return b.String()
}

func init() {
	statusCmd.Flags().StringVar(&flagTheme, "theme", "dark", "Color theme: dark, light")
	statusCmd.Flags().BoolVar(&flagStatusJSON, "json", false, "print status as JSON")
	rootCmd.AddCommand(statusCmd)
}
