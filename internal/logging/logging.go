// Package logging builds the process-wide hclog logger and the adapters
// other libraries need.
package logging

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
)

// Options controls the root logger.
type Options struct {
	Name   string
	Level  string
	JSON   bool
	Output io.Writer
}

// New returns the root logger. Unknown levels fall back to info.
func New(opts Options) hclog.Logger {
	level := hclog.LevelFromString(strings.TrimSpace(opts.Level))
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:            opts.Name,
		Level:           level,
		Output:          out,
		JSONFormat:      opts.JSON,
		IncludeLocation: level <= hclog.Debug,
		Color:           colorFor(out),
	})
}

// colorFor enables colour only for terminals; hclog refuses to colourise
// writers that are not files.
func colorFor(out io.Writer) hclog.ColorOption {
	f, ok := out.(*os.File)
	if !ok {
		return hclog.ColorOff
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return hclog.AutoColor
	}
	return hclog.ColorOff
}

// OrNull returns logger, or a discarding logger when it is nil.
func OrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}

// Standard adapts logger for APIs that want a *log.Logger, such as
// http.Server.ErrorLog and chi's request logger.
func Standard(logger hclog.Logger) *log.Logger {
	return OrNull(logger).StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})
}
