package testutil

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Record is one captured log record with its attributes flattened into a
// map. Attributes bound on the logger via With appear alongside the
// per-call attributes; group names are dropped.
type Record struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder captures structured log output so tests can assert on
// messages, levels, and attributes. All levels are captured, debug
// included. Safe for concurrent use.
type LogRecorder struct {
	mu      sync.Mutex
	records []Record
}

// NewLogRecorder returns an empty recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

// Logger returns a logger whose output lands in the recorder.
func (r *LogRecorder) Logger() *slog.Logger {
	return slog.New(&recordingHandler{rec: r})
}

// Records returns a copy of everything captured so far.
func (r *LogRecorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// ByMessage returns the captured records with exactly the given message.
func (r *LogRecorder) ByMessage(message string) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, rec := range r.records {
		if rec.Message == message {
			out = append(out, rec)
		}
	}
	return out
}

// Has reports whether a record with the given level and message was
// captured.
func (r *LogRecorder) Has(level slog.Level, message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Level == level && rec.Message == message {
			return true
		}
	}
	return false
}

func (r *LogRecorder) append(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// recordingHandler feeds a LogRecorder. Each With call derives a new
// handler carrying the bound attributes, so records show the same
// attribute set a real handler would emit.
type recordingHandler struct {
	rec   *LogRecorder
	bound []slog.Attr
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *recordingHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]any, len(h.bound)+record.NumAttrs())
	for _, a := range h.bound {
		attrs[a.Key] = a.Value.Resolve().Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Resolve().Any()
		return true
	})

	h.rec.append(Record{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.bound)+len(attrs))
	merged = append(merged, h.bound...)
	merged = append(merged, attrs...)
	return &recordingHandler{rec: h.rec, bound: merged}
}

func (h *recordingHandler) WithGroup(string) slog.Handler {
	// Group names are not recorded; tests assert on bare keys.
	return h
}
