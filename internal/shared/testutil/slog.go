package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log entry.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that records everything handed to it, so
// tests can assert on what a component logged.
type LogCapture struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewTestLogger returns a logger whose output lands in the returned capture.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	t.Helper()
	capture := &LogCapture{}
	return slog.New(capture), capture
}

func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, LogRecord{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

// WithAttrs and WithGroup return the capture unchanged; assertions run
// against per-record attrs only.
func (c *LogCapture) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c *LogCapture) WithGroup(string) slog.Handler      { return c }

// Records returns a copy of everything captured so far.
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogRecord, len(c.records))
	copy(out, c.records)
	return out
}

// AssertLogContains fails the test unless a record at the given level
// contains message as a substring.
func AssertLogContains(t *testing.T, capture *LogCapture, level slog.Level, message string) {
	t.Helper()

	for _, r := range capture.Records() {
		if r.Level == level && strings.Contains(r.Message, message) {
			return
		}
	}
	t.Errorf("no %s log containing %q; captured:", level, message)
	for _, r := range capture.Records() {
		t.Logf("  [%s] %s %v", r.Level, r.Message, r.Attrs)
	}
}

// AssertLogAttr fails the test unless some record carries key=want.
func AssertLogAttr(t *testing.T, capture *LogCapture, key string, want any) {
	t.Helper()

	for _, r := range capture.Records() {
		if got, ok := r.Attrs[key]; ok && got == want {
			return
		}
	}
	t.Errorf("no log record with %s=%v; captured:", key, want)
	for _, r := range capture.Records() {
		t.Logf("  [%s] %s %v", r.Level, r.Message, r.Attrs)
	}
}
