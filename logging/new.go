package logging

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvVar is the environment variable holding a log spec.
const EnvVar = "PFQ_LOG"

// Format selects the slog output handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses "text" or "json". Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %q", s)
	}
}

// Options configures New. The first non-empty spec of CLISpec, EnvSpec
// and ConfigSpec wins, so a flag beats $PFQ_LOG which beats the config
// file.
type Options struct {
	CLISpec    string
	EnvSpec    string
	ConfigSpec string
	Format     Format
	// Output defaults to os.Stdout.
	Output io.Writer
	// RateLimit, when Interval is non-zero, suppresses repeated
	// identical messages. See NewRateLimitHandler.
	RateLimit RateLimit
}

// Spec returns the log spec selected by precedence.
func (o Options) Spec() (Spec, error) {
	s, err := ParseSpec(cmp.Or(o.CLISpec, o.EnvSpec, o.ConfigSpec))
	if err != nil {
		return Spec{}, fmt.Errorf("invalid log spec: %w", err)
	}
	return s, nil
}

// New builds a logger: a text or JSON handler, filtered per component
// and optionally rate limited.
func New(opts Options) (*slog.Logger, error) {
	spec, err := opts.Spec()
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	// The component handler does the real filtering; the output handler
	// only has to admit the most verbose level any component may use.
	hopts := &slog.HandlerOptions{Level: spec.Min(), ReplaceAttr: replaceLevel}

	var h slog.Handler
	if opts.Format == FormatJSON {
		h = slog.NewJSONHandler(out, hopts)
	} else {
		h = slog.NewTextHandler(out, hopts)
	}

	h = NewComponentHandler(h, spec)
	if opts.RateLimit.Interval > 0 {
		h = NewRateLimitHandler(h, opts.RateLimit)
	}
	return slog.New(h), nil
}

// FromEnv creates a logger writing text to stderr at the level $PFQ_LOG
// selects.
func FromEnv() (*slog.Logger, error) {
	return New(Options{EnvSpec: os.Getenv(EnvVar), Output: os.Stderr})
}
