package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// suppressedKey is the attribute added to the first record emitted
// after a run of suppressed duplicates.
const suppressedKey = "suppressed"

// maxTrackedMessages bounds the number of distinct messages tracked.
// When exceeded the table is reset, which at worst lets one extra copy
// of each message through.
const maxTrackedMessages = 1024

// RateLimit configures duplicate suppression: each distinct message may
// be emitted Burst times per Interval.
type RateLimit struct {
	Interval time.Duration
	Burst    int
}

// DefaultRateLimit emits each distinct message at most once every five
// seconds.
var DefaultRateLimit = RateLimit{Interval: 5 * time.Second, Burst: 1}

type limiterEntry struct {
	limiter    *rate.Limiter
	suppressed int
}

// rateState is shared by a handler and every handler derived from it
// via WithAttrs/WithGroup, so the limit is per message, not per logger.
type rateState struct {
	mu      sync.Mutex
	limit   RateLimit
	now     func() time.Time
	entries map[string]*limiterEntry
}

// rateLimitHandler is a slog.Handler that drops records whose message
// has been seen too often within the configured interval.
type rateLimitHandler struct {
	inner slog.Handler
	state *rateState
}

// NewRateLimitHandler wraps inner with per-message rate limiting. A
// record is keyed by its message text only; attributes do not make two
// records distinct. When a message is let through after suppression,
// the record carries a "suppressed" attribute counting the drops.
func NewRateLimitHandler(inner slog.Handler, limit RateLimit) slog.Handler {
	return newRateLimitHandler(inner, limit, time.Now)
}

func newRateLimitHandler(inner slog.Handler, limit RateLimit, now func() time.Time) *rateLimitHandler {
	if limit.Burst < 1 {
		limit.Burst = 1
	}
	return &rateLimitHandler{
		inner: inner,
		state: &rateState{
			limit:   limit,
			now:     now,
			entries: make(map[string]*limiterEntry),
		},
	}
}

// Enabled delegates to the inner handler.
func (h *rateLimitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle emits r unless its message is over the limit.
func (h *rateLimitHandler) Handle(ctx context.Context, r slog.Record) error {
	allowed, suppressed := h.state.allow(r.Message)
	if !allowed {
		return nil
	}
	if suppressed > 0 {
		r = r.Clone()
		r.AddAttrs(slog.Int(suppressedKey, suppressed))
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a handler sharing the same limiter state.
func (h *rateLimitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &rateLimitHandler{inner: h.inner.WithAttrs(attrs), state: h.state}
}

// WithGroup returns a handler sharing the same limiter state.
func (h *rateLimitHandler) WithGroup(name string) slog.Handler {
	return &rateLimitHandler{inner: h.inner.WithGroup(name), state: h.state}
}

// allow reports whether msg may be emitted now and, if so, how many
// copies were suppressed since it was last emitted.
func (s *rateState) allow(msg string) (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[msg]
	if !ok {
		if len(s.entries) >= maxTrackedMessages {
			clear(s.entries)
		}
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(s.limit.Interval), s.limit.Burst),
		}
		s.entries[msg] = e
	}

	if !e.limiter.AllowN(s.now(), 1) {
		e.suppressed++
		return false, 0
	}

	n := e.suppressed
	e.suppressed = 0
	return true, n
}
