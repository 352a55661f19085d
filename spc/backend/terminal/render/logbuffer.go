package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEntry is one captured log record, stamped with the emulated frame it
// was logged in.
type LogEntry struct {
	Time    time.Time
	Frame   int
	Level   slog.Level
	Message string
}

// LogBuffer keeps the most recent log entries in a fixed-size ring. It is
// safe for concurrent use.
type LogBuffer struct {
	mu     sync.RWMutex
	ring   []LogEntry
	next   int
	filled bool
	frame  int
}

func NewLogBuffer(capacity int) *LogBuffer {
	return &LogBuffer{ring: make([]LogEntry, capacity)}
}

// SetFrame sets the frame number stamped on entries added from now on.
func (lb *LogBuffer) SetFrame(frame int) {
	lb.mu.Lock()
	lb.frame = frame
	lb.mu.Unlock()
}

// Add stores entry, overwriting the oldest one when full.
func (lb *LogBuffer) Add(entry LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	entry.Frame = lb.frame
	lb.ring[lb.next] = entry
	lb.next++
	if lb.next == len(lb.ring) {
		lb.next = 0
		lb.filled = true
	}
}

// GetRecent returns up to maxCount entries at or above minLevel, newest
// first. maxCount <= 0 means all of them.
func (lb *LogBuffer) GetRecent(maxCount int, minLevel slog.Level) []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	n := lb.next
	if lb.filled {
		n = len(lb.ring)
	}
	var out []LogEntry
	for i := 1; i <= n; i++ {
		e := lb.ring[(lb.next-i+len(lb.ring))%len(lb.ring)]
		if e.Level < minLevel {
			continue
		}
		out = append(out, e)
		if len(out) == maxCount {
			break
		}
	}
	return out
}

// Clear drops every entry.
func (lb *LogBuffer) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.next = 0
	lb.filled = false
}

// LogBufferHandler is a slog.Handler feeding a LogBuffer. Attributes are
// flattened into the message as key=value pairs.
type LogBufferHandler struct {
	buffer *LogBuffer
	level  slog.Leveler
	attrs  string
	group  string
}

func NewLogBufferHandler(buffer *LogBuffer, level slog.Leveler) *LogBufferHandler {
	return &LogBufferHandler{buffer: buffer, level: level}
}

func (h *LogBufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LogBufferHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)
	sb.WriteString(h.attrs)
	record.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&sb, a)
		return true
	})
	h.buffer.Add(LogEntry{Time: record.Time, Level: record.Level, Message: sb.String()})
	return nil
}

func (h *LogBufferHandler) writeAttr(sb *strings.Builder, a slog.Attr) {
	sb.WriteByte(' ')
	if h.group != "" {
		sb.WriteString(h.group)
		sb.WriteByte('.')
	}
	fmt.Fprintf(sb, "%s=%v", a.Key, a.Value)
}

func (h *LogBufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		h.writeAttr(&sb, a)
	}
	clone := *h
	clone.attrs = sb.String()
	return &clone
}

func (h *LogBufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = strings.TrimPrefix(h.group+"."+name, ".")
	return &clone
}

var levelTags = map[slog.Level]string{
	slog.LevelDebug: "DBG",
	slog.LevelInfo:  "INF",
	slog.LevelWarn:  "WRN",
	slog.LevelError: "ERR",
}

// FormatLogEntry renders an entry as "f<frame> LVL message".
func FormatLogEntry(entry LogEntry) string {
	tag, ok := levelTags[entry.Level]
	if !ok {
		tag = "???"
	}
	return fmt.Sprintf("f%-6d %s %s", entry.Frame, tag, entry.Message)
}
