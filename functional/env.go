package functional

import "log/slog"

// Logger is the diagnostic capability actions report faults through.
// Implementations are expected to suppress repeated identical messages;
// logging.NewRateLimitHandler provides that for *slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// Env is what an action sees besides its arguments and packet.
type Env struct {
	log Logger
}

var discardEnv = &Env{log: slog.New(slog.DiscardHandler)}

// NewEnv returns an Env reporting through logger. A nil logger discards.
func NewEnv(logger Logger) *Env {
	if logger == nil {
		return discardEnv
	}
	return &Env{log: logger}
}

// Diag emits a diagnostic. It is the only I/O an action may perform.
func (e *Env) Diag(msg string, args ...any) {
	if e == nil || e.log == nil {
		return
	}
	e.log.Warn(msg, args...)
}
