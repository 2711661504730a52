// Package logger provides leveled logging for bookchat.
// Debug, Info and Warn messages are printed only in verbose mode so that
// the RAG pipeline can be traced with --verbose. Notice and Error are
// always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	base              = newLogger(os.Stderr)
)

// newLogger builds a console logger without timestamps so output stays
// stable in tests and readable in a terminal.
func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	})
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(w)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		base.Debug().Msgf(format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		base.Info().Msgf(format, args...)
	}
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		base.Warn().Msgf(format, args...)
	}
}

// Notice prints a warning regardless of verbose mode. Use it for failures
// that were recovered from but change what the user gets.
func Notice(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Warn().Msgf(format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Error().Msgf(format, args...)
}

// Request logs one handled HTTP request if verbose mode is enabled.
func Request(method, path string, status int, elapsed time.Duration) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		base.Info().
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("request")
	}
}
