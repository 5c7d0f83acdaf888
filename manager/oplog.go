package manager

import (
	"context"
	"log/slog"
)

// opIDAttr is the log attribute that correlates the records of one
// request across the server, manager and store.
const opIDAttr = "op_id"

type opIDKey struct{}

// ContextWithOpID returns a context carrying an operation ID.
func ContextWithOpID(ctx context.Context, opID uint64) context.Context {
	return context.WithValue(ctx, opIDKey{}, opID)
}

// OpIDFromContext returns the operation ID carried by ctx, or 0.
func OpIDFromContext(ctx context.Context) uint64 {
	id, _ := ctx.Value(opIDKey{}).(uint64)
	return id
}

// opLogHandler stamps each record logged through a *Context method with
// the op ID of its context. Records without one pass through as is.
type opLogHandler struct {
	inner slog.Handler
}

func (h opLogHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.inner.Enabled(ctx, l)
}

func (h opLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := OpIDFromContext(ctx); id != 0 {
		r.AddAttrs(slog.Uint64(opIDAttr, id))
	}
	return h.inner.Handle(ctx, r)
}

func (h opLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return opLogHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h opLogHandler) WithGroup(name string) slog.Handler {
	return opLogHandler{inner: h.inner.WithGroup(name)}
}

// WithOpIDHandler returns logger with op ID stamping. Loggers derived
// from it with With keep the stamping.
func WithOpIDHandler(logger *slog.Logger) *slog.Logger {
	if _, ok := logger.Handler().(opLogHandler); ok {
		return logger
	}
	return slog.New(opLogHandler{inner: logger.Handler()})
}
