// Package config loads assistant-pane configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (ASSISTANT_PANE_*)
//  2. Config file
//  3. Built-in defaults
//
// Command-line flags are applied on top by the cmd package.
//
// Config file search order:
//  1. .assistant-pane.yaml in current directory
//  2. ~/.config/assistant-pane/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/timvw/assistant-pane/internal/model"
)

// Config holds all assistant-pane configuration.
type Config struct {
	// Backend: "auto", "tmux" or "native"
	Provider string `yaml:"provider"`

	// Companion process and pane geometry
	Command        string            `yaml:"command"`
	SplitDirection string            `yaml:"split_direction"` // horizontal | vertical
	PaneSize       string            `yaml:"pane_size"`       // "30%" or "80"
	Placement      string            `yaml:"placement"`       // before | after
	Title          string            `yaml:"title"`
	Env            map[string]string `yaml:"env"`

	// Bounded wait for each multiplexer command. "0"/"off" waits forever.
	CommandTimeout string `yaml:"command_timeout"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`

	// Selection feed
	SelectionSocket  string `yaml:"selection_socket"`
	SelectionHistory int    `yaml:"selection_history"`

	// Where the tracked pane handle is persisted between invocations.
	StateDir string `yaml:"state_dir"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"`

	// Parsed duration (not from YAML, set after loading)
	CommandTimeoutDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Provider:         "auto",
		Command:          "claude",
		SplitDirection:   string(model.Horizontal),
		PaneSize:         "30%",
		Placement:        string(model.After),
		Title:            "assistant",
		CommandTimeout:   "0",
		LogLevel:         "warn",
		SelectionHistory: 50,
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize parses derived values and validates the result. Call it again
// after applying command-line overrides.
func (c *Config) Finalize() error {
	var err error
	c.CommandTimeoutDuration, err = parseDurationOrDisable(c.CommandTimeout, 0)
	if err != nil {
		return fmt.Errorf("invalid command timeout %q: %w", c.CommandTimeout, err)
	}
	return c.Validate()
}

var paneSizePattern = regexp.MustCompile(`^[1-9][0-9]*%?$`)

// Validate checks enumerated options and the pane size format.
func (c *Config) Validate() error {
	switch c.Provider {
	case "auto", "tmux", "native":
	default:
		return fmt.Errorf("invalid provider %q (supported: auto, tmux, native)", c.Provider)
	}
	switch model.Direction(c.SplitDirection) {
	case model.Horizontal, model.Vertical:
	default:
		return fmt.Errorf("invalid split_direction %q (supported: horizontal, vertical)", c.SplitDirection)
	}
	switch model.Placement(c.Placement) {
	case model.Before, model.After:
	default:
		return fmt.Errorf("invalid placement %q (supported: before, after)", c.Placement)
	}
	if !paneSizePattern.MatchString(c.PaneSize) {
		return fmt.Errorf("invalid pane_size %q (want a percentage like 30%% or a cell count like 80)", c.PaneSize)
	}
	if strings.HasSuffix(c.PaneSize, "%") {
		if n, _ := strconv.Atoi(strings.TrimSuffix(c.PaneSize, "%")); n >= 100 {
			return fmt.Errorf("invalid pane_size %q: percentage must be below 100", c.PaneSize)
		}
	}
	for k := range c.Env {
		if k == "" || strings.ContainsAny(k, "= \t\n") {
			return fmt.Errorf("invalid env name %q", k)
		}
	}
	if c.SelectionHistory <= 0 {
		return fmt.Errorf("selection_history must be positive, got %d", c.SelectionHistory)
	}
	return nil
}

// PaneOptions returns the geometry settings for open and the toggles.
func (c *Config) PaneOptions() model.PaneOptions {
	return model.PaneOptions{
		Direction: model.Direction(c.SplitDirection),
		Size:      c.PaneSize,
		Placement: model.Placement(c.Placement),
		Title:     c.Title,
	}
}

// ResolvedStateDir returns StateDir or the XDG state default.
func (c *Config) ResolvedStateDir() string {
	if c.StateDir != "" {
		return c.StateDir
	}
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "assistant-pane")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "assistant-pane")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("assistant-pane-%d", os.Getuid()))
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	if data, err := os.ReadFile(".assistant-pane.yaml"); err == nil {
		return ".assistant-pane.yaml", data, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "assistant-pane", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Provider != "" {
		cfg.Provider = file.Provider
	}
	if file.Command != "" {
		cfg.Command = file.Command
	}
	if file.SplitDirection != "" {
		cfg.SplitDirection = file.SplitDirection
	}
	if file.PaneSize != "" {
		cfg.PaneSize = file.PaneSize
	}
	if file.Placement != "" {
		cfg.Placement = file.Placement
	}
	if file.Title != "" {
		cfg.Title = file.Title
	}
	if len(file.Env) > 0 {
		if cfg.Env == nil {
			cfg.Env = make(map[string]string, len(file.Env))
		}
		for k, v := range file.Env {
			cfg.Env[k] = v
		}
	}
	if file.CommandTimeout != "" {
		cfg.CommandTimeout = file.CommandTimeout
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.LogPretty {
		cfg.LogPretty = true
	}
	if file.SelectionSocket != "" {
		cfg.SelectionSocket = file.SelectionSocket
	}
	if file.SelectionHistory > 0 {
		cfg.SelectionHistory = file.SelectionHistory
	}
	if file.StateDir != "" {
		cfg.StateDir = file.StateDir
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) error {
	if v := os.Getenv("ASSISTANT_PANE_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("ASSISTANT_PANE_COMMAND"); v != "" {
		cfg.Command = v
	}
	if v := os.Getenv("ASSISTANT_PANE_SPLIT_DIRECTION"); v != "" {
		cfg.SplitDirection = v
	}
	if v := os.Getenv("ASSISTANT_PANE_SIZE"); v != "" {
		cfg.PaneSize = v
	}
	if v := os.Getenv("ASSISTANT_PANE_PLACEMENT"); v != "" {
		cfg.Placement = v
	}
	if v := os.Getenv("ASSISTANT_PANE_TITLE"); v != "" {
		cfg.Title = v
	}
	if v := os.Getenv("ASSISTANT_PANE_COMMAND_TIMEOUT"); v != "" {
		cfg.CommandTimeout = v
	}
	if v := os.Getenv("ASSISTANT_PANE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ASSISTANT_PANE_LOG_PRETTY"); v == "true" || v == "1" {
		cfg.LogPretty = true
	}
	if v := os.Getenv("ASSISTANT_PANE_SELECTION_SOCKET"); v != "" {
		cfg.SelectionSocket = v
	}
	if v := os.Getenv("ASSISTANT_PANE_SELECTION_HISTORY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ASSISTANT_PANE_SELECTION_HISTORY %q: %w", v, err)
		}
		cfg.SelectionHistory = n
	}
	if v := os.Getenv("ASSISTANT_PANE_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
	return nil
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable" return 0.
// Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration")
	}
	return d, nil
}
