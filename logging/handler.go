package logging

import (
	"context"
	"log/slog"
)

// componentKey is the attribute that names a logger's component, as in
// logger.With("component", "evaluator").
const componentKey = "component"

// componentHandler drops records below the level the log spec assigns to
// the logger's component. The level is resolved when the component
// attribute is attached, so Enabled is a single comparison.
type componentHandler struct {
	inner   slog.Handler
	spec    Spec
	level   slog.Level
	grouped bool
}

// NewComponentHandler filters inner by spec. Records from loggers
// without a component attribute use the base level of the log spec.
func NewComponentHandler(inner slog.Handler, spec Spec) slog.Handler {
	return &componentHandler{inner: inner, spec: spec, level: spec.Base}
}

func (h *componentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.inner.Enabled(ctx, level)
}

func (h *componentHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.level {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs re-resolves the level when a top-level component attribute
// is attached. A component inside a group names nothing.
func (h *componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.inner = h.inner.WithAttrs(attrs)
	if !h.grouped {
		for _, a := range attrs {
			if a.Key == componentKey {
				c.level = h.spec.Level(a.Value.String())
			}
		}
	}
	return &c
}

func (h *componentHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.inner = h.inner.WithGroup(name)
	c.grouped = true
	return &c
}
