// Package logging builds the structured loggers used across databot.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Options selects where logs go and how verbose they are.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means warn.
	Level string
	// Debug forces the debug level on both handlers.
	Debug bool
	// File, when set, receives JSON records in addition to stderr.
	File string
	// Stderr overrides the console writer (tests).
	Stderr io.Writer
}

// Logger is a configured slog.Logger plus the closer for its file, if any.
type Logger struct {
	*slog.Logger
	Path  string
	close func() error
}

// Close releases the log file. Safe to call on a console-only logger.
func (l *Logger) Close() error {
	if l == nil || l.close == nil {
		return nil
	}
	return l.close()
}

func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level %q", s)
}

// New builds a text logger on stderr and, when opts.File is set, a JSON file logger fanned out
// from the same records.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		level = slog.LevelDebug
	}
	w := opts.Stderr
	if w == nil {
		w = os.Stderr
	}
	console := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if opts.File == "" {
		return &Logger{Logger: slog.New(console)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	fileLevel := slog.LevelInfo
	if level < fileLevel {
		fileLevel = level
	}
	jsonHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: fileLevel, AddSource: opts.Debug})
	return &Logger{
		Logger: slog.New(slogmulti.Fanout(console, jsonHandler)),
		Path:   opts.File,
		close:  file.Close,
	}, nil
}
