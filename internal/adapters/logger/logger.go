// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/quill/internal/core/ports"
)

// chainError is implemented by errors that carry their own message and
// metadata separately from their cause, such as zerr errors.
type chainError interface {
	Message() string
	Metadata() map[string]any
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	jsonMode bool
	output   io.Writer
}

// New creates a new Logger writing human-readable records to stderr.
func New() ports.Logger {
	l := &Logger{output: os.Stderr}
	l.rebuild()
	return l
}

// rebuild replaces the slog handler. The caller holds the write lock or
// owns l exclusively.
func (l *Logger) rebuild() {
	if l.jsonMode {
		l.logger = slog.New(slog.NewJSONHandler(l.output, nil))
		return
	}
	l.logger = slog.New(slog.NewTextHandler(l.output, nil))
}

// SetOutput updates the logger's output destination.
// If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetJSON switches between JSON and text records, keeping the output.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.rebuild()
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error. In JSON mode the error is attached as an attribute;
// otherwise its cause chain is rendered one cause per line.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err)
		return
	}
	l.logger.Error(FormatError(err))
}

// errorEntry is one link of an error chain.
type errorEntry struct {
	message string
	meta    []string
}

func collectErrorEntries(err error) []errorEntry {
	var (
		entries []errorEntry
		pending []string
	)
	for current := err; current != nil; {
		c, ok := current.(chainError)
		if !ok {
			entries = append(entries, errorEntry{message: current.Error(), meta: pending})
			break
		}
		meta := c.Metadata()
		entry := errorEntry{message: c.Message(), meta: pending}
		pending = nil
		for _, k := range slices.Sorted(maps.Keys(meta)) {
			entry.meta = append(entry.meta, fmt.Sprintf("%s=%v", k, meta[k]))
		}
		if entry.message == "" {
			// Metadata attached to a plain error belongs to that error.
			pending = entry.meta
		} else {
			entries = append(entries, entry)
		}
		current = errors.Unwrap(current)
	}
	return entries
}

func formatErrorEntries(entries []errorEntry) string {
	var lines []string
	for i, e := range entries {
		msg := e.message
		if len(e.meta) > 0 {
			msg += " (" + strings.Join(e.meta, ", ") + ")"
		}
		parts := strings.Split(msg, "\n")
		if i == 0 {
			lines = append(lines, "Error: "+parts[0])
			for _, p := range parts[1:] {
				lines = append(lines, "       "+p)
			}
			continue
		}
		if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    → "+parts[0])
		for _, p := range parts[1:] {
			lines = append(lines, "      "+p)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatError renders err and its causes for humans.
func FormatError(err error) string {
	return formatErrorEntries(collectErrorEntries(err))
}
