// Package logger builds the shared structured logger for commands and
// the watch daemon.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cdmessin/grim-hollow-pack/internal/config"
)

// Options configure a logger instance.
type Options struct {
	// Level is debug, info, warn, or error. Unknown values select info.
	Level string

	// JSON switches to machine-readable output.
	JSON bool

	// File routes output to a rotating log file instead of stderr.
	// Rotated logs are always JSON; a styled stream inside a file is
	// useless to every consumer.
	File string

	// NoColor strips styling from text output.
	NoColor bool

	// Output overrides the destination. Mainly for tests; nil selects
	// stderr, or the rotating file when File is set.
	Output io.Writer
}

// New builds a logger with the given options.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		if opts.File != "" {
			out = &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			}
			opts.JSON = true
		} else {
			out = os.Stderr
		}
	}

	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		level = log.InfoLevel
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
	if opts.JSON {
		logger.SetFormatter(log.JSONFormatter)
	}
	if opts.NoColor {
		logger.SetColorProfile(termenv.Ascii)
	}
	return logger
}

// FromRuntime builds the logger described by the environment runtime
// settings.
func FromRuntime(rt *config.Runtime) *log.Logger {
	return New(Options{
		Level:   rt.LogLevel,
		JSON:    rt.LogFormat == "json",
		File:    rt.LogFile,
		NoColor: rt.NoColor,
	})
}
