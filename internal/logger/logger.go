// Package logger provides verbose logging for the Sercha RAG CLI.
// When verbose mode is enabled via the --verbose flag, pipeline records are
// written to stderr through log/slog to help users follow ingestion and
// retrieval. When disabled, nothing is written.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// levelSilent is above every level the package emits.
const levelSilent = slog.Level(100)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	level   slog.LevelVar
	base    *slog.Logger
)

func init() {
	level.Set(levelSilent)
	base = newLogger(output)
}

// newLogger builds a text logger without timestamps so output stays stable.
func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: &level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(levelSilent)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(w)
}

// Logger returns the structured logger for key/value records.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug logs a formatted message at debug level.
func Debug(format string, args ...any) {
	Logger().Debug(fmt.Sprintf(format, args...))
}

// Info logs a formatted message at info level.
func Info(format string, args ...any) {
	Logger().Info(fmt.Sprintf(format, args...))
}

// Warn logs a formatted message at warn level.
func Warn(format string, args ...any) {
	Logger().Warn(fmt.Sprintf(format, args...))
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
