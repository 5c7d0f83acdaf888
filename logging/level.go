// Package logging configures slog for the pfq daemon and CLI: a log
// spec selects a level per component, and the packet path's diagnostics
// can be rate limited so a misconfigured composition cannot flood the
// log.
package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelTrace sits below slog.LevelDebug. The store uses it for
// per-statement timing.
const LevelTrace = slog.LevelDebug - 4

var levelNames = map[string]slog.Level{
	"trace":   LevelTrace,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
	"err":     slog.LevelError,
}

// ParseLevel parses trace, debug, info, warn or error, ignoring case.
func ParseLevel(s string) (slog.Level, error) {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
}

// LevelName returns the log spec name of l. Levels between the named ones
// render as slog does, e.g. "INFO+2".
func LevelName(l slog.Level) string {
	if l == LevelTrace {
		return "trace"
	}
	switch l {
	case slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError:
		return strings.ToLower(l.String())
	}
	return l.String()
}

// replaceLevel renders LevelTrace as TRACE rather than DEBUG-4.
func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}
