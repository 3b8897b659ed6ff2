// Package logging builds the process logger shared by the arena server,
// its rooms and the HTTP and SSH front ends.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	Level  string
	JSON   bool
	Prefix string
	Output io.Writer // defaults to stderr
}

// New returns a charm logger. Unknown levels fall back to info.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          opts.Prefix,
		Level:           ParseLevel(opts.Level),
	})
	if opts.JSON {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger
}

// ParseLevel converts a level name, accepting the usual aliases.
func ParseLevel(name string) log.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "warning":
		return log.WarnLevel
	case "":
		return log.InfoLevel
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Slog adapts a charm logger for libraries that take a *slog.Logger.
func Slog(logger *log.Logger) *slog.Logger {
	return slog.New(logger)
}
