// Package logging builds the process logger. It is created once in main and
// passed to the components that need it.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const filePermission = 0o664

// Options describes logger construction parameters.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // auto, console or json; auto picks console on a terminal
	File   string // optional JSON log file, appended to

	// Console defaults to os.Stdout.
	Console io.Writer
}

// Logger bundles the zerolog logger with the file it may hold open.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New constructs a logger writing to the console and, when configured, to a
// JSON log file.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	var consoleWriter io.Writer
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "auto":
		consoleWriter = console
		if isTerminal(console) {
			consoleWriter = zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}
		}
	case "console":
		consoleWriter = zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen, NoColor: !isTerminal(console)}
	case "json":
		consoleWriter = console
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	out := &Logger{}
	writers := []io.Writer{consoleWriter}
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("log dir: %w", err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out.file = f
		writers = append(writers, zerolog.SyncWriter(f))
	}

	out.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return out, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a config value to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level: unsupported value %q", s)
	}
	return level, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
