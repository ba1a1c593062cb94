package preview

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// screenHandler writes records to the logs pane while the console handler decides levels, so
// --log-level keeps working while the screen owns the terminal. After detach it drops everything.
type screenHandler struct {
	slog.Handler
	console  slog.Handler
	detached *atomic.Bool
}

func newScreenHandler(pane, console slog.Handler) *screenHandler {
	return &screenHandler{
		Handler:  pane,
		console:  console,
		detached: &atomic.Bool{},
	}
}

func (h *screenHandler) detach() {
	h.detached.Store(true)
}

func (h *screenHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.detached.Load() {
		return nil
	}
	return h.Handler.Handle(ctx, r)
}

func (h *screenHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return !h.detached.Load() && h.console.Enabled(ctx, level)
}

func (h *screenHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &screenHandler{
		Handler:  h.Handler.WithAttrs(attrs),
		console:  h.console.WithAttrs(attrs),
		detached: h.detached,
	}
}

func (h *screenHandler) WithGroup(name string) slog.Handler {
	return &screenHandler{
		Handler:  h.Handler.WithGroup(name),
		console:  h.console.WithGroup(name),
		detached: h.detached,
	}
}
