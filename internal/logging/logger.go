// Package logging provides leveled logging and avalanche tracing for sandpile.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - An AvalancheLogger for structured JSONL avalanche traces (avalanches.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/sandpile/internal/constants"
)

// LevelTrace is a custom slog level below Debug.
// At this level every single-grain deposit is traced, not only avalanches.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// AvalancheLogger writes avalanche events to a JSONL file.
// It is safe for concurrent use. A nil AvalancheLogger is safe to use;
// all methods are no-ops on nil receiver.
type AvalancheLogger struct {
	mu        sync.Mutex
	file      *os.File
	everyDrop bool
}

// NewAvalancheLogger creates a trace logger writing to dir/avalanches.jsonl.
// At "info" level (the default), returns nil and no file is created.
// At "debug" only drops that toppled at least one site are recorded;
// at "trace" every drop is. Returns nil if the file cannot be opened.
func NewAvalancheLogger(dir string, level string) *AvalancheLogger {
	lvl := ParseLevel(level)
	if lvl == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, constants.AvalancheTraceFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &AvalancheLogger{file: f, everyDrop: lvl <= LevelTrace}
}

// Wants reports whether a drop that caused the given number of topples
// should be recorded. Always false on nil receiver.
func (al *AvalancheLogger) Wants(topples int) bool {
	if al == nil {
		return false
	}
	return al.everyDrop || topples > 0
}

// Record writes one event as a single JSONL line. The "event" and "time"
// fields are added automatically. The caller's map is not mutated.
func (al *AvalancheLogger) Record(event string, fields map[string]any) {
	if al == nil {
		return
	}

	entry := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		entry[k] = v
	}
	entry["event"] = event
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	al.mu.Lock()
	defer al.mu.Unlock()
	if al.file == nil {
		return
	}
	_, _ = al.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (al *AvalancheLogger) Close() {
	if al == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	if al.file != nil {
		al.file.Close()
		al.file = nil
	}
}
