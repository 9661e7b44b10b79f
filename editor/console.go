package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultConsoleCapacity is the number of records NewConsoleHandler keeps
// when given a non-positive capacity.
const DefaultConsoleCapacity = 512

// ConsoleEntry is one formatted log record.
type ConsoleEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   string
}

// String formats the entry as a console line.
func (e ConsoleEntry) String() string {
	s := fmt.Sprintf("%s %-5s %s", e.Time.Format("15:04:05"), e.Level.String(), e.Message)
	if e.Attrs != "" {
		s += " " + e.Attrs
	}
	return s
}

// consoleRing is the record storage shared by a handler and its derived
// handlers.
type consoleRing struct {
	mu      sync.Mutex
	entries []ConsoleEntry
	next    int
	full    bool
}

func (r *consoleRing) add(e ConsoleEntry) {
	r.mu.Lock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

// ConsoleHandler is a slog.Handler that keeps the most recent records in a
// ring buffer for the editor's console panel. It is safe for concurrent use.
type ConsoleHandler struct {
	ring   *consoleRing
	level  slog.Leveler
	attrs  string
	groups string
}

// NewConsoleHandler returns a handler keeping capacity records at or above
// level. A nil level means slog.LevelInfo.
func NewConsoleHandler(capacity int, level slog.Leveler) *ConsoleHandler {
	if capacity <= 0 {
		capacity = DefaultConsoleCapacity
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{
		ring:  &consoleRing{entries: make([]ConsoleEntry, capacity)},
		level: level,
	}
}

func (h *ConsoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.groups, a)
		return true
	})
	h.ring.add(ConsoleEntry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   strings.TrimSpace(b.String()),
	})
	return nil
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.groups, a)
	}
	h2 := *h
	h2.attrs = b.String()
	return &h2
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = h.groups + name + "."
	return &h2
}

func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, p, ga)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, a.Value.Any())
}

// Entries returns the buffered records, oldest first.
func (h *ConsoleHandler) Entries() []ConsoleEntry {
	r := h.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]ConsoleEntry(nil), r.entries[:r.next]...)
	}
	out := make([]ConsoleEntry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	return append(out, r.entries[:r.next]...)
}

// Len returns the number of buffered records.
func (h *ConsoleHandler) Len() int {
	r := h.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Clear drops every buffered record.
func (h *ConsoleHandler) Clear() {
	r := h.ring
	r.mu.Lock()
	clear(r.entries)
	r.next, r.full = 0, false
	r.mu.Unlock()
}

// multiHandler fans records out to several handlers.
type multiHandler []slog.Handler

// Tee returns a handler that forwards every record to each of handlers
// that has its level enabled.
func Tee(handlers ...slog.Handler) slog.Handler {
	return multiHandler(handlers)
}

func (m multiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}
