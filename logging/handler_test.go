package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-pfq/logging"
)

func newFiltered(t *testing.T, spec string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	s, err := logging.ParseSpec(spec)
	require.NoError(t, err)
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: logging.LevelTrace})
	return slog.New(logging.NewComponentHandler(inner, s)), &buf
}

func TestComponentHandler_Levels(t *testing.T) {
	logger, buf := newFiltered(t, "warn,evaluator=debug")
	ctx := context.Background()

	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn))

	ev := logger.With("component", "evaluator")
	assert.True(t, ev.Enabled(ctx, slog.LevelDebug))
	assert.False(t, ev.Enabled(ctx, logging.LevelTrace))

	store := logger.With("component", "store")
	store.Info("opened database")
	ev.Debug("reclassify: internal error", "class", 0)

	out := buf.String()
	assert.NotContains(t, out, "opened database")
	assert.Contains(t, out, "reclassify: internal error")
}

func TestComponentHandler_LaterComponentWins(t *testing.T) {
	logger, _ := newFiltered(t, "error,server=debug")
	l := logger.With("component", "manager").With("component", "server")
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))
}

func TestComponentHandler_GroupedComponentIgnored(t *testing.T) {
	logger, _ := newFiltered(t, "error,server=debug")
	l := logger.WithGroup("req").With("component", "server")
	assert.False(t, l.Enabled(context.Background(), slog.LevelDebug))
}

func TestNew_Precedence(t *testing.T) {
	tests := []struct {
		name string
		opts logging.Options
		want string
	}{
		{"cli wins", logging.Options{CLISpec: "error", EnvSpec: "debug", ConfigSpec: "info"}, "error"},
		{"env over config", logging.Options{EnvSpec: "debug", ConfigSpec: "warn"}, "debug"},
		{"config", logging.Options{ConfigSpec: "warn"}, "warn"},
		{"default", logging.Options{}, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := tt.opts.Spec()
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.String())
		})
	}

	_, err := logging.New(logging.Options{CLISpec: "loud"})
	assert.Error(t, err)
}

func TestNew_JSONWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{CLISpec: "warn,store=trace", Format: logging.FormatJSON, Output: &buf})
	require.NoError(t, err)

	logger.With("component", "store").Log(context.Background(), logging.LevelTrace, "statement", "msec", "0.1")
	logger.Info("dropped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "TRACE", rec["level"])
	assert.Equal(t, "store", rec["component"])
}

func TestNew_RateLimit(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Output: &buf, RateLimit: logging.DefaultRateLimit})
	require.NoError(t, err)

	for range 5 {
		logger.Warn("deliver: internal error", "group", 0)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]logging.Format{"": logging.FormatText, "TEXT": logging.FormatText, "json": logging.FormatJSON} {
		got, err := logging.ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := logging.ParseFormat("yaml")
	assert.Error(t, err)
}
