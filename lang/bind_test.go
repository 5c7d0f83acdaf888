package lang_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-pfq/lang"
)

func TestBind1_PadWidthOne(t *testing.T) {
	n := lang.Bind1("reclassify", 5, lang.Pad(1, lang.Int64(0)))

	assert.Equal(t, "reclassify", n.Symbol())
	assert.Equal(t, []lang.Arg{lang.Int64(5)}, n.Args())
	assert.Equal(t, "reclassify 5", n.String())
}

func TestBind1_PadWidthThree(t *testing.T) {
	n := lang.Bind1("reclassify", 5, lang.Pad(3, lang.Int64(0)))

	assert.Equal(t, "reclassify", n.Symbol())
	assert.Equal(t, 3, n.Arity())
	assert.Equal(t, []lang.Arg{lang.Int64(5), lang.Int64(0), lang.Int64(0)}, n.Args())
}

func TestBindP_TuplePadding(t *testing.T) {
	vs := lang.Tuple(lang.Int32(5)).Pad(3, lang.Int32(0))
	require.Equal(t, 3, vs.Len())

	n := lang.BindP("reclassify", vs)
	assert.Equal(t, []lang.Arg{lang.Int32(5), lang.Int32(0), lang.Int32(0)}, n.Args())

	// Re-padding to the same width is a no-op.
	assert.Equal(t, n.Args(), lang.BindP("reclassify", vs.Pad(3, lang.Int32(0))).Args())
}

func TestPad_NeverTruncates(t *testing.T) {
	n := lang.Bind3("steer", 1, 2, 3, lang.Pad(2, lang.Int64(0)))
	assert.Equal(t, 3, n.Arity())
	assert.Equal(t, "steer 1 2 3", n.String())
}

func TestPad_NilFillIsIgnored(t *testing.T) {
	n := lang.Bind1("deliver", 4, lang.Pad(3, nil))
	assert.Equal(t, 1, n.Arity())
}

func TestBind_NoArguments(t *testing.T) {
	n := lang.Bind("drop")
	assert.Equal(t, "drop", n.Symbol())
	assert.Equal(t, 0, n.Arity())
	assert.Nil(t, n.Arg(0))
	assert.Equal(t, lang.ShapeValues, n.Shape())
}

func TestLift(t *testing.T) {
	type classID uint32

	assert.Equal(t, lang.Int32(7), lang.Lift(int32(7)))
	assert.Equal(t, lang.Int64(7), lang.Lift(7))
	assert.Equal(t, lang.Int64(9), lang.Lift(classID(9)))
	assert.Equal(t, lang.Int64(-1), lang.Lift(uint64(1<<64-1)))
	assert.Equal(t, lang.Float(0.5), lang.Lift(0.5))
	assert.Equal(t, lang.Bytes("eth0"), lang.Lift("eth0"))
	assert.Equal(t, lang.Int32(3), lang.Lift(lang.Int32(3)))

	raw := []byte{1, 2}
	lifted := lang.Lift(raw)
	raw[0] = 9
	assert.Equal(t, lang.Bytes{1, 2}, lifted, "byte slices are copied")
}

func TestShapes(t *testing.T) {
	drop := lang.Bind("drop")
	kernel := lang.Bind("to_host_stack")

	tests := []struct {
		name  string
		node  lang.Node
		shape lang.Shape
		text  string
		conts int
	}{
		{
			name:  "values",
			node:  lang.Bind2("steer_rtp", 1, "rtp"),
			shape: lang.ShapeValues,
			text:  `steer_rtp 1 "rtp"`,
		},
		{
			name:  "values+fn",
			node:  lang.BindPF("when_class", lang.Tuple(lang.Int64(2)), drop),
			shape: lang.ShapeValuesFn,
			text:  "when_class 2 (drop)",
			conts: 1,
		},
		{
			name:  "values+fn+fn",
			node:  lang.BindPFF("conditional_class", lang.Tuple(lang.Int64(2)), drop, kernel),
			shape: lang.ShapeValuesFnFn,
			text:  "conditional_class 2 (drop) (to_host_stack)",
			conts: 2,
		},
		{
			name:  "fn",
			node:  lang.BindF("tee", kernel),
			shape: lang.ShapeFn,
			text:  "tee (to_host_stack)",
			conts: 1,
		},
		{
			name:  "fn+fn",
			node:  lang.BindFF("seq", lang.Bind1("reclassify", 3), drop),
			shape: lang.ShapeFnFn,
			text:  "seq (reclassify 3) (drop)",
			conts: 2,
		},
		{
			name:  "value+fn",
			node:  lang.Bind1F("when_class", 4, kernel),
			shape: lang.ShapeValueFn,
			text:  "when_class 4 (to_host_stack)",
			conts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shape, tt.node.Shape())
			assert.Equal(t, tt.text, tt.node.String())
			assert.Len(t, tt.node.Continuations(), tt.conts)

			got, ok := lang.ParseShape(tt.shape.String())
			require.True(t, ok)
			assert.Equal(t, tt.shape, got)
		})
	}
}

func TestContinuationOrderAndPadding(t *testing.T) {
	f := lang.Bind1("reclassify", 1)
	g := lang.Bind1("deliver", 2)

	n := lang.BindPFF("conditional_class", lang.Tuple(lang.Int64(3)), f, g, lang.Pad(5, lang.Int64(0)))

	require.Equal(t, 5, n.Arity())
	assert.Equal(t, lang.Int64(3), n.Arg(0))

	ref, ok := n.Arg(1).(lang.Ref)
	require.True(t, ok)
	assert.True(t, ref.Node().Equal(f))

	ref, ok = n.Arg(2).(lang.Ref)
	require.True(t, ok)
	assert.True(t, ref.Node().Equal(g))

	assert.Equal(t, lang.Int64(0), n.Arg(3))
	assert.Equal(t, lang.Int64(0), n.Arg(4))
}

func TestNode_Immutable(t *testing.T) {
	n := lang.Bind2("steer", 1, 2)

	args := n.Args()
	args[0] = lang.Int64(99)

	assert.Equal(t, lang.Int64(1), n.Arg(0))
}

func TestNode_ImmutableBytes(t *testing.T) {
	buf := []byte("eth0")
	n := lang.BindP("tag", lang.Tuple(lang.Bytes(buf)))

	buf[0] = 'X'
	n.Args()[0].(lang.Bytes)[1] = 'Y'
	n.Arg(0).(lang.Bytes)[2] = 'Z'
	for _, a := range n.All() {
		a.(lang.Bytes)[3] = 'W'
	}

	assert.Equal(t, `tag "eth0"`, n.String())
}

func TestNode_ImmutablePadFill(t *testing.T) {
	fill := lang.Bytes("--")
	n := lang.Bind("tag", lang.Pad(2, fill))

	fill[0] = 'X'

	assert.Equal(t, lang.Bytes("--"), n.Arg(0))
	assert.Equal(t, lang.Bytes("--"), n.Arg(1))
}

func TestNode_All(t *testing.T) {
	n := lang.Bind3("x", 1, 2, 3)

	var idx []int
	for i, a := range n.All() {
		idx = append(idx, i)
		assert.Equal(t, lang.Int64(i+1), a)
	}
	assert.Equal(t, []int{0, 1, 2}, idx)
}

func TestNode_Equal(t *testing.T) {
	a := lang.BindFF("seq", lang.Bind1("reclassify", 3), lang.Bind2("tag", "x", 1.5))
	b := lang.BindFF("seq", lang.Bind1("reclassify", 3), lang.Bind2("tag", "x", 1.5))
	c := lang.BindFF("seq", lang.Bind1("reclassify", 4), lang.Bind2("tag", "x", 1.5))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(lang.Bind("seq")))
}
