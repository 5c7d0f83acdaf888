package functional_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-pfq/functional"
	"github.com/frobware/go-pfq/skbuff"
)

func TestResolve_UnknownSymbol(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)

	_, err := ev.Evaluate(call("no_such_fn"), skbuff.New(nil))
	require.Error(t, err)

	var notFound functional.ErrSymbolNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "no_such_fn", notFound.Symbol)
}

func TestResolve_UnknownNestedSymbol(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)

	d := call("seq", functional.FuncArg(call("drop")), functional.FuncArg(call("bogus")))
	_, err := ev.Resolve(d)

	var notFound functional.ErrSymbolNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "bogus", notFound.Symbol)
}

func TestResolve_TooDeep(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)

	d := call("unit")
	for i := 0; i <= functional.MaxDepth+1; i++ {
		d = call("seq", functional.FuncArg(d), functional.FuncArg(call("unit")))
	}

	_, err := ev.Resolve(d)
	var tooDeep functional.ErrTooDeep
	assert.True(t, errors.As(err, &tooDeep))
}

func TestRegistry_Register(t *testing.T) {
	r := functional.NewRegistry()

	mark := func(_ *functional.Env, args functional.Arguments, b functional.Packet) functional.Disposition {
		b.SetGroups(uint64(args.Int(0)))
		return functional.Forward{Buff: b}
	}
	require.NoError(t, r.Register("mark", mark))

	err := r.Register("mark", mark)
	var dup functional.ErrDuplicateSymbol
	require.True(t, errors.As(err, &dup))

	assert.Error(t, r.Register("", mark))
	assert.Error(t, r.Register("nil", nil))

	ev := functional.NewEvaluator(r, nil)
	b := skbuff.New(nil)
	disp, err := ev.Evaluate(call("mark", functional.IntArg(0x30)), b)
	require.NoError(t, err)
	assert.Equal(t, functional.VerdictForward, disp.Verdict())
	assert.Equal(t, uint64(0x30), b.Groups())

	_, err = ev.Evaluate(call("drop"), b)
	assert.Error(t, err, "an empty registry has no built-ins")
}

func TestRegistry_Symbols(t *testing.T) {
	symbols := functional.DefaultRegistry().Symbols()

	assert.Equal(t, []string{
		"broadcast",
		"conditional_class",
		"deliver",
		"drop",
		"reclassify",
		"seq",
		"to_host_stack",
		"unit",
		"when_class",
	}, symbols)
}

func TestArguments_Accessors(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)
	f, err := ev.Resolve(call("unit",
		functional.IntArg(7),
		functional.FloatArg(1.5),
		functional.BytesArg([]byte("eth0")),
		functional.FuncArg(call("drop")),
	))
	require.NoError(t, err)

	args := f.Args()
	assert.Equal(t, 4, args.Len())
	assert.Equal(t, int64(7), args.Int(0))
	assert.Equal(t, 1.5, args.Float(1))
	assert.Equal(t, []byte("eth0"), args.Bytes(2))
	require.NotNil(t, args.Func(3))
	assert.Equal(t, "drop", args.Func(3).Symbol())

	// Wrong kind or out of range reads as zero.
	assert.Zero(t, args.Int(1))
	assert.Zero(t, args.Float(0))
	assert.Nil(t, args.Bytes(0))
	assert.Nil(t, args.Func(0))
	assert.Zero(t, args.Int(-1))
	assert.Zero(t, args.Int(99))
	assert.Equal(t, functional.ArgKind(0), args.Kind(99))
}

func TestNilFunction_Forwards(t *testing.T) {
	var f *functional.Function
	b := skbuff.New(nil)

	disp := f.Eval(nil, b)
	assert.IsType(t, functional.Forward{}, disp)
	assert.Empty(t, f.Symbol())
}

func TestDescr_String(t *testing.T) {
	d := call("conditional_class",
		functional.IntArg(2),
		functional.FuncArg(call("deliver", functional.IntArg(3))),
		functional.FuncArg(call("drop")),
		functional.BytesArg([]byte("x")),
		functional.FloatArg(0.25),
	)
	assert.Equal(t, `conditional_class 2 (deliver 3) (drop) "x" 0.25`, d.String())
}
