package cmd

import (
	"github.com/spf13/cobra"
)

var (
	openFlags   paneFlags
	flagNoFocus bool
	toggleFlags paneFlags
	focusFlags  paneFlags
)

var openCmd = &cobra.Command{
	Use:   "open [-- command...]",
	Short: "Open the assistant pane, or focus it if already open",
	Long: `Open the assistant pane running the configured command.

If the pane is already open it is focused instead (or left alone with
--no-focus); a second pane is never created. With --no-focus, focus
returns to the pane that had it before the split.

Arguments after -- replace the configured command. Each one is quoted, so
the pane runs exactly that argv.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		command, env, opts, err := openFlags.resolve(args)
		if err != nil {
			return err
		}
		p, err := getProvider()
		if err != nil {
			return err
		}
		if err := p.Open(cmd.Context(), command, env, opts, !flagNoFocus); err != nil {
			return err
		}
		return waitNative(cmd.Context(), p)
	},
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the assistant pane if it is open",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := getProvider()
		if err != nil {
			return err
		}
		return reportAction("close", p.Close(cmd.Context()))
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle [-- command...]",
	Short: "Close the assistant pane if it exists, otherwise open it",
	RunE: func(cmd *cobra.Command, args []string) error {
		command, env, opts, err := toggleFlags.resolve(args)
		if err != nil {
			return err
		}
		p, err := getProvider()
		if err != nil {
			return err
		}
		if err := reportAction("toggle", p.SimpleToggle(cmd.Context(), command, env, opts)); err != nil {
			return err
		}
		return waitNative(cmd.Context(), p)
	},
}

var focusCmd = &cobra.Command{
	Use:   "focus [-- command...]",
	Short: "Open, focus, or close the assistant pane depending on focus",
	Long: `Smart toggle:

  closed               -> open and focus it
  open, not focused    -> focus it
  open and focused     -> close it`,
	RunE: func(cmd *cobra.Command, args []string) error {
		command, env, opts, err := focusFlags.resolve(args)
		if err != nil {
			return err
		}
		p, err := getProvider()
		if err != nil {
			return err
		}
		if err := reportAction("focus", p.FocusToggle(cmd.Context(), command, env, opts)); err != nil {
			return err
		}
		return waitNative(cmd.Context(), p)
	},
}

func init() {
	openFlags.register(openCmd)
	openCmd.Flags().BoolVar(&flagNoFocus, "no-focus", false, "keep focus on the current pane")
	toggleFlags.register(toggleCmd)
	focusFlags.register(focusCmd)

	rootCmd.AddCommand(openCmd, closeCmd, toggleCmd, focusCmd)
}
