// Package logging builds the zerolog logger shared by every mudra component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level   string // debug, info, warn, error
	Console bool   // write human-readable output to stderr
	Dir     string // directory for daily log files; empty disables file output
}

// Logger wraps a zerolog.Logger together with its open log file.
type Logger struct {
	zerolog.Logger
	file *os.File
	path string
}

// New creates a Logger writing to the console and/or a dated file in cfg.Dir.
func New(cfg Config) (*Logger, error) {
	var writers []io.Writer
	l := &Logger{}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		name := fmt.Sprintf("mudra_%s.log", time.Now().Format("2006-01-02"))
		l.path = filepath.Join(cfg.Dir, name)

		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = file
		writers = append(writers, file)
	}

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	l.Logger = zerolog.New(io.MultiWriter(writers...)).With().
		Timestamp().
		Str("app", "mudra").
		Logger()

	return l, nil
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Path returns the current log file path, or "" when file output is disabled.
func (l *Logger) Path() string {
	return l.path
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
