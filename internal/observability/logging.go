package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type cycleKey struct{}

// WithCycleID tags ctx with a fresh poll cycle id
func WithCycleID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, cycleKey{}, id), id
}

// CycleIDFromContext returns the poll cycle id of ctx
func CycleIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(cycleKey{}).(string)
	return id, ok && id != ""
}

type cycleHandler struct {
	next slog.Handler
}

// WrapSlogHandler adds the poll cycle id of the context to every record
func WrapSlogHandler(next slog.Handler) slog.Handler {
	if next == nil {
		next = slog.NewTextHandler(io.Discard, nil)
	}
	return &cycleHandler{next: next}
}

func (h *cycleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *cycleHandler) Handle(ctx context.Context, record slog.Record) error {
	if id, ok := CycleIDFromContext(ctx); ok {
		record.AddAttrs(slog.String("cycle_id", id))
	}
	return h.next.Handle(ctx, record)
}

func (h *cycleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &cycleHandler{next: h.next.WithAttrs(attrs)}
}

func (h *cycleHandler) WithGroup(name string) slog.Handler {
	return &cycleHandler{next: h.next.WithGroup(name)}
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds the process logger. format is "json" or "text".
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(WrapSlogHandler(handler))
}
