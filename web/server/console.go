package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// consoleHandler is a slog.Handler that mirrors records into a render's console channel
// and passes them on to the server's own handler.
type consoleHandler struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	next        slog.Handler
	attrs       []slog.Attr
}

// newConsoleLogger creates a logger for one render. Records at Info and above reach the
// console channel; next receives everything it has enabled.
func newConsoleLogger(renderID string, consoleChan chan<- ConsoleMessage, next slog.Handler) *slog.Logger {
	return slog.New(&consoleHandler{
		renderID:    renderID,
		consoleChan: consoleChan,
		next:        next,
	})
}

func (h *consoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo || (h.next != nil && h.next.Enabled(ctx, level))
}

func (h *consoleHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.next != nil && h.next.Enabled(ctx, record.Level) {
		if err := h.next.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}

	if h.consoleChan == nil || record.Level < slog.LevelInfo {
		return nil
	}

	msg := ConsoleMessage{
		Message:   formatConsoleRecord(record, h.attrs),
		Timestamp: record.Time,
		Level:     consoleLevel(record.Level),
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	// Never block the render on a slow client
	select {
	case h.consoleChan <- msg:
	default:
	}
	return nil
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}

// formatConsoleRecord renders a record as "message key=value ..."
func formatConsoleRecord(record slog.Record, attrs []slog.Attr) string {
	var b strings.Builder
	b.WriteString(record.Message)

	write := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Resolve())
		return true
	}
	for _, a := range attrs {
		write(a)
	}
	record.Attrs(write)

	return b.String()
}

func consoleLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
