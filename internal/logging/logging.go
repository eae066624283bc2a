// Package logging holds the process-wide zerolog logger.
//
// Output goes to stderr: stdout carries command output and, under serve,
// the MCP stdio stream.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. It starts at warn level on stderr.
var Logger = newLogger(Config{Level: zerolog.WarnLevel})

// Config selects the minimum level, the destination, and whether output is
// rendered for humans instead of as JSON lines.
type Config struct {
	Level  zerolog.Level
	Output io.Writer
	Pretty bool
}

// Init replaces the process-wide logger.
func Init(cfg Config) {
	Logger = newLogger(cfg)
}

func newLogger(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(cfg.Level).With().Timestamp().Logger()
}

// ParseLevel maps a config value (debug, info, warn, error, off) to a level.
// Anything else is warn.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}

func Debug() *zerolog.Event { return Logger.Debug() }
func Info() *zerolog.Event  { return Logger.Info() }
func Warn() *zerolog.Event  { return Logger.Warn() }
func Error() *zerolog.Event { return Logger.Error() }
