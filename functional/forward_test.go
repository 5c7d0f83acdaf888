package functional_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-pfq/functional"
	"github.com/frobware/go-pfq/logging"
	"github.com/frobware/go-pfq/skbuff"
)

// recordingLogger counts diagnostics without rate limiting.
type recordingLogger struct {
	msgs []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.msgs = append(l.msgs, msg)
}

func call(symbol string, args ...functional.Arg) functional.Descr {
	return functional.Descr{Symbol: symbol, Args: args}
}

func evaluate(t *testing.T, ev *functional.Evaluator, d functional.Descr, b *skbuff.Buff) functional.Disposition {
	t.Helper()
	disp, err := ev.Evaluate(d, b)
	require.NoError(t, err)
	require.NotNil(t, disp)
	require.Same(t, b, disp.Packet(), "disposition must carry the input packet")
	return disp
}

func TestDrop(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)
	b := skbuff.New([]byte{0xde, 0xad})
	b.SetClass(1 << 3)

	disp := evaluate(t, ev, call("drop", functional.IntArg(7)), b)

	assert.IsType(t, functional.Drop{}, disp)
	assert.Equal(t, skbuff.State{Class: 1 << 3}, b.State())
}

func TestBroadcast(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)
	b := skbuff.New(nil)

	disp := evaluate(t, ev, call("broadcast"), b)

	assert.Equal(t, functional.VerdictBroadcast, disp.Verdict())
	assert.Equal(t, skbuff.State{}, b.State())
}

func TestToHostStack(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)
	b := skbuff.New(nil)

	disp := evaluate(t, ev, call("to_host_stack"), b)

	assert.IsType(t, functional.ToHost{}, disp)
	assert.True(t, b.ToKernel())
	assert.Zero(t, b.Class())
}

func TestReclassify(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)

	for c := int64(1); c <= 63; c++ {
		b := skbuff.New(nil)
		b.SetGroups(0xf0)

		disp := evaluate(t, ev, call("reclassify", functional.IntArg(c)), b)

		require.IsType(t, functional.Forward{}, disp, "class %d", c)
		assert.Equal(t, uint64(1)<<c, b.Class(), "class %d", c)
		assert.Equal(t, uint64(0xf0), b.Groups(), "groups must not change")
		assert.False(t, b.ToKernel())
	}
}

func TestReclassify_Int32Argument(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)
	b := skbuff.New(nil)

	arg := functional.Arg{Kind: functional.ArgInt32, Int: 5}
	evaluate(t, ev, call("reclassify", arg), b)

	assert.Equal(t, uint64(1<<5), b.Class())
}

func TestDeliver(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)

	for g := int64(1); g <= 63; g++ {
		b := skbuff.New(nil)
		b.SetClass(1 << 2)

		disp := evaluate(t, ev, call("deliver", functional.IntArg(g)), b)

		deliver, ok := disp.(functional.Deliver)
		require.True(t, ok, "group %d: got %T", g, disp)
		assert.Equal(t, uint64(1)<<g, deliver.Mask)
		assert.Equal(t, uint64(1<<2), b.Class(), "class must not change")
	}
}

func TestSentinel_FailsOpen(t *testing.T) {
	tests := []struct {
		name  string
		descr functional.Descr
		diag  string
	}{
		{"reclassify zero", call("reclassify", functional.IntArg(0)), "reclassify: internal error"},
		{"reclassify missing", call("reclassify"), "reclassify: internal error"},
		{"reclassify wrong kind", call("reclassify", functional.BytesArg([]byte("x"))), "reclassify: internal error"},
		{"reclassify out of range", call("reclassify", functional.IntArg(64)), "reclassify: internal error"},
		{"reclassify negative", call("reclassify", functional.IntArg(-1)), "reclassify: internal error"},
		{"deliver zero", call("deliver", functional.IntArg(0)), "deliver: internal error"},
		{"deliver missing", call("deliver"), "deliver: internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			ev := functional.NewEvaluator(nil, log)
			b := skbuff.New(nil)
			b.SetClass(1 << 9)

			disp := evaluate(t, ev, tt.descr, b)

			assert.IsType(t, functional.Forward{}, disp)
			assert.Equal(t, skbuff.State{Class: 1 << 9}, b.State())
			assert.Equal(t, []string{tt.diag}, log.msgs)
		})
	}
}

func TestSentinel_RateLimitedDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)
	logger := slog.New(logging.NewRateLimitHandler(inner, logging.RateLimit{Interval: time.Hour, Burst: 1}))

	ev := functional.NewEvaluator(nil, logger)
	f, err := ev.Resolve(call("reclassify", functional.IntArg(0)))
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		b := skbuff.New(nil)
		disp := ev.Eval(f, b)
		require.IsType(t, functional.Forward{}, disp)
		require.Zero(t, b.Class())
	}

	out := strings.TrimSpace(buf.String())
	assert.Equal(t, 1, strings.Count(out, "reclassify: internal error"))
	assert.Len(t, strings.Split(out, "\n"), 1)
}

func TestTotality(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)
	argLists := [][]functional.Arg{
		nil,
		{functional.IntArg(0)},
		{functional.IntArg(1)},
		{functional.IntArg(63)},
		{functional.IntArg(1 << 40)},
		{functional.FloatArg(2.5)},
		{functional.BytesArg(nil)},
		{functional.IntArg(3), functional.IntArg(4), functional.IntArg(5)},
	}

	for _, symbol := range []string{"drop", "broadcast", "to_host_stack", "reclassify", "deliver"} {
		for _, args := range argLists {
			b := skbuff.New(nil)
			disp := evaluate(t, ev, call(symbol, args...), b)
			assert.Contains(t, []functional.Verdict{
				functional.VerdictForward,
				functional.VerdictDrop,
				functional.VerdictBroadcast,
				functional.VerdictDeliver,
				functional.VerdictToHost,
			}, disp.Verdict())
		}
	}
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "forward", functional.VerdictForward.String())
	assert.Equal(t, "drop", functional.VerdictDrop.String())
	assert.Equal(t, "broadcast", functional.VerdictBroadcast.String())
	assert.Equal(t, "deliver", functional.VerdictDeliver.String())
	assert.Equal(t, "to_host_stack", functional.VerdictToHost.String())
	assert.Equal(t, "Verdict(42)", functional.Verdict(42).String())
}
