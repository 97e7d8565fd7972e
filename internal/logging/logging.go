// Package logging configures the zerolog logger shared by the gateway components.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TimeFormat is the console timestamp layout.
const TimeFormat = "15:04:05.000"

// Config is the configuration of the logger and its writers.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Config struct {
	// Level is a zerolog level name. Empty means info.
	Level string

	// JSON writes JSON lines to the console instead of the human readable format.
	JSON bool

	// NoColor disables console coloring.
	NoColor bool

	// File enables a rolling log file at the given path.
	File string

	// MaxSize is the size in MB of the log file before it is rolled.
	MaxSize int

	// MaxBackups is the number of rolled files to keep.
	MaxBackups int

	// MaxAge is the number of days to keep rolled files.
	MaxAge int

	// Console is where console output goes. Nil means stderr; stdout is left
	// alone because the stdio transport owns it.
	Console io.Writer
}

// New builds a logger from cfg.
func New(cfg Config) (zerolog.Logger, error) {
	level := zerolog.InfoLevel

	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}

		level = parsed
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{consoleWriter(console, cfg)}

	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		})
	}

	return zerolog.New(io.MultiWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func consoleWriter(w io.Writer, cfg Config) io.Writer {
	if cfg.JSON {
		return w
	}

	return zerolog.ConsoleWriter{Out: w, TimeFormat: TimeFormat, NoColor: cfg.NoColor}
}
