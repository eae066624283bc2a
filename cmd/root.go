package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/timvw/assistant-pane/internal/config"
	"github.com/timvw/assistant-pane/internal/logging"
	"github.com/timvw/assistant-pane/internal/model"
	"github.com/timvw/assistant-pane/internal/mux"
	telem "github.com/timvw/assistant-pane/internal/otel"
	"github.com/timvw/assistant-pane/internal/terminal"
	"mvdan.cc/sh/v3/syntax"
)

var (
	// Global flags.
	flagProvider string
	flagLogLevel string
	flagPretty   bool

	cfg *config.Config
	tel *telem.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "assistant-pane",
	Short: "Run an AI assistant in a terminal pane next to your editor",
	Long: `assistant-pane manages one terminal pane running an interactive assistant
(claude by default) next to the editor.

The pane lives in tmux when available, or as a child process otherwise.
The pane can be closed by hand at any time; every command re-checks that
the pane still exists before acting on it.

Configuration is loaded from .assistant-pane.yaml or environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// run executes one invocation and flushes telemetry whether or not the
// command failed.
func run(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	shutdownTelemetry()
	return err
}

func shutdownTelemetry() {
	if tel == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("otel shutdown failed")
	}
	tel = nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "terminal provider: auto, tmux, native (default: from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error, off (default: from config)")
	rootCmd.PersistentFlags().BoolVar(&flagPretty, "log-pretty", false, "human-readable logs on stderr")
}

// setup loads configuration: defaults -> config file -> env vars -> flags.
// Logs always go to stderr so they never mix with the MCP stream on stdout.
func setup(ctx context.Context) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagPretty {
		cfg.LogPretty = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Output: os.Stderr,
		Pretty: cfg.LogPretty,
	})
	if cfg.ConfigFile != "" {
		logging.Debug().Str("file", cfg.ConfigFile).Msg("config loaded")
	}

	// Wire build version into OTEL service metadata
	telem.Version = Version

	// Initialize OTEL (no-op if no endpoint configured)
	tel, err = telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		logging.Warn().Err(err).Msg("otel init failed, continuing without telemetry")
		tel = telem.Noop()
	}
	return nil
}

// newRunner returns the command runner shared by the multiplexer, with
// every external command observed for latency and failures.
func newRunner() *mux.ExecRunner {
	r := mux.NewExecRunner(cfg.CommandTimeoutDuration)
	r.Observe = func(argv []string, elapsed time.Duration, res mux.Result, err error) {
		sub := subcommand(argv)
		var launch *mux.LaunchError
		if errors.As(err, &launch) {
			tel.Metrics.RecordLaunchFailure(context.Background(), sub)
			return
		}
		tel.Metrics.RecordCommand(context.Background(), sub, elapsed, res.ExitCode)
	}
	return r
}

// getProvider selects the terminal provider for this invocation. Inside tmux
// the pane handle is persisted per tmux server so that successive
// invocations share one session.
func getProvider() (terminal.Provider, error) {
	var store terminal.StateStore
	if scope := os.Getenv("TMUX"); scope != "" {
		store = terminal.NewFileStore(cfg.ResolvedStateDir(), scope)
	}
	return terminal.Select(cfg.Provider, cfg.PaneOptions(), terminal.Deps{
		Runner:    newRunner(),
		Store:     store,
		Telemetry: tel,
	})
}

// getMultiplexer returns the configured or auto-detected multiplexer.
func getMultiplexer() (mux.Multiplexer, error) {
	switch cfg.Provider {
	case "", "auto":
		return mux.Detect(newRunner())
	case "native":
		return nil, fmt.Errorf("the native provider has no panes to list")
	default:
		return mux.FromName(cfg.Provider, newRunner())
	}
}

// paneFlags are the per-invocation overrides shared by open and the toggles.
type paneFlags struct {
	command   string
	env       []string
	direction string
	size      string
	placement string
}

func (f *paneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.command, "command", "", "command to run in the pane (default: from config)")
	cmd.Flags().StringArrayVarP(&f.env, "env", "e", nil, "extra environment variable KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&f.direction, "direction", "", "split direction: horizontal, vertical")
	cmd.Flags().StringVar(&f.size, "size", "", `pane size, e.g. "30%" or "80"`)
	cmd.Flags().StringVar(&f.placement, "placement", "", "pane placement: before, after")
}

// resolve merges the flags over the configured command, env, and geometry.
func (f *paneFlags) resolve(args []string) (string, map[string]string, model.PaneOptions, error) {
	command := cfg.Command
	if f.command != "" {
		command = f.command
	}
	if len(args) > 0 {
		joined, err := shellJoin(args)
		if err != nil {
			return "", nil, model.PaneOptions{}, err
		}
		command = joined
	}

	env := make(map[string]string, len(cfg.Env)+len(f.env))
	for k, v := range cfg.Env {
		env[k] = v
	}
	for _, kv := range f.env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return "", nil, model.PaneOptions{}, fmt.Errorf("invalid --env %q (want KEY=VALUE)", kv)
		}
		env[k] = v
	}

	opts := model.PaneOptions{
		Direction: model.Direction(f.direction),
		Size:      f.size,
		Placement: model.Placement(f.placement),
	}
	if f.direction != "" && opts.Direction != model.Horizontal && opts.Direction != model.Vertical {
		return "", nil, opts, fmt.Errorf("invalid --direction %q (want horizontal or vertical)", f.direction)
	}
	if f.placement != "" && opts.Placement != model.Before && opts.Placement != model.After {
		return "", nil, opts, fmt.Errorf("invalid --placement %q (want before or after)", f.placement)
	}
	return command, env, opts, nil
}

// waitNative keeps the CLI attached to a child process it started, since
// the child shares this process's terminal.
func waitNative(ctx context.Context, p terminal.Provider) error {
	n, ok := p.(*terminal.Native)
	if !ok {
		return nil
	}
	return n.Wait(ctx)
}

// reportAction prints the outcome of a lifecycle operation.
func reportAction(op string, a terminal.Action) error {
	if a == terminal.ActionFailed {
		return fmt.Errorf("%s failed", op)
	}
	fmt.Println(a)
	return nil
}

// shellJoin quotes each argument so the pane's shell sees the same argv.
func shellJoin(args []string) (string, error) {
	quoted := make([]string, len(args))
	for i, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("cannot quote argument %q: %w", arg, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}

func subcommand(argv []string) string {
	if len(argv) < 2 {
		return strings.Join(argv, " ")
	}
	return argv[1]
}
