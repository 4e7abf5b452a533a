// Package logging builds the slog logger shared by the CLI and the MCP
// server.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Level selects how much is logged.
type Level int

const (
	// LevelQuiet logs errors only.
	LevelQuiet Level = iota
	// LevelNormal logs warnings and errors.
	LevelNormal
	// LevelVerbose adds progress detail.
	LevelVerbose
	// LevelDebug logs everything, including cache hits.
	LevelDebug
)

// LevelFromFlags maps the CLI flags to a level. Quiet wins over verbose.
func LevelFromFlags(verbose int, quiet bool) Level {
	switch {
	case quiet:
		return LevelQuiet
	case verbose >= 2:
		return LevelDebug
	case verbose == 1:
		return LevelVerbose
	default:
		return LevelNormal
	}
}

// ParseLevel maps a level name to a level.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToLower(name) {
	case "error":
		return LevelQuiet, true
	case "warn", "warning":
		return LevelNormal, true
	case "info":
		return LevelVerbose, true
	case "debug":
		return LevelDebug, true
	default:
		return LevelNormal, false
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelQuiet:
		return log.ErrorLevel
	case LevelVerbose:
		return log.InfoLevel
	case LevelDebug:
		return log.DebugLevel
	default:
		return log.WarnLevel
	}
}

// New returns a logger writing human readable lines to w.
func New(w io.Writer, level Level) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Prefix:          "cdensity",
		Level:           level.charm(),
		ReportTimestamp: level >= LevelDebug,
	})
	return slog.New(handler)
}

// NewJSON returns a logger writing JSON lines to w, for machine consumers
// such as the MCP client's stderr capture.
func NewJSON(w io.Writer, level Level) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Level:           level.charm(),
		ReportTimestamp: true,
		Formatter:       log.JSONFormatter,
	})
	return slog.New(handler)
}

// Default returns a stderr logger at the normal level.
func Default() *slog.Logger {
	return New(os.Stderr, LevelNormal)
}
