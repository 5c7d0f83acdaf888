package xdp_test

import (
	"errors"
	"os"
	"testing"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-pfq/functional"
	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/skbuff"
	"github.com/frobware/go-pfq/transport"
	"github.com/frobware/go-pfq/xdp"
)

func TestLower(t *testing.T) {
	tests := []struct {
		name string
		node lang.Node
		want xdp.XDPAction
	}{
		{"drop", lang.Bind("drop"), xdp.XDPDrop},
		{"to_host_stack", lang.Bind("to_host_stack"), xdp.XDPPass},
		{"unit", lang.Bind("unit"), xdp.XDPPass},
		{"seq pass then drop", lang.BindFF("seq", lang.Bind("unit"), lang.Bind("drop")), xdp.XDPDrop},
		{"seq drop short-circuits", lang.BindFF("seq", lang.Bind("drop"), lang.Bind1("reclassify", 1)), xdp.XDPDrop},
		{"nested seq", lang.BindFF("seq",
			lang.BindFF("seq", lang.Bind("unit"), lang.Bind("to_host_stack")),
			lang.Bind("unit")), xdp.XDPPass},
		{"seq to_host_stack ends the sequence", lang.BindFF("seq", lang.Bind("to_host_stack"), lang.Bind("drop")), xdp.XDPPass},
		{"padded seq", lang.BindFF("seq", lang.Bind("unit"), lang.Bind("drop"), lang.Pad(3, lang.Int64(0))), xdp.XDPDrop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := xdp.Lower(transport.Compile(tt.node))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Lowering must pick the same outcome the evaluator reaches for every
// packet.
func TestLower_AgreesWithEvaluator(t *testing.T) {
	ev := functional.NewEvaluator(nil, nil)
	for _, n := range []lang.Node{
		lang.Bind("drop"),
		lang.Bind("unit"),
		lang.Bind("to_host_stack"),
		lang.BindFF("seq", lang.Bind("to_host_stack"), lang.Bind("drop")),
		lang.BindFF("seq", lang.Bind("unit"), lang.Bind("drop")),
		lang.BindFF("seq", lang.Bind("drop"), lang.Bind("to_host_stack")),
		lang.BindFF("seq", lang.Bind("unit"), lang.BindFF("seq", lang.Bind("to_host_stack"), lang.Bind("drop"))),
	} {
		t.Run(n.String(), func(t *testing.T) {
			d := transport.Compile(n)
			got, err := xdp.Lower(d)
			require.NoError(t, err)

			disp, err := ev.Evaluate(d, skbuff.New(nil))
			require.NoError(t, err)

			want := xdp.XDPPass
			if disp.Verdict() == functional.VerdictDrop {
				want = xdp.XDPDrop
			}
			assert.Equal(t, want, got, "evaluator verdict %v", disp.Verdict())
		})
	}
}

func TestLower_NotLowerable(t *testing.T) {
	for _, n := range []lang.Node{
		lang.Bind("broadcast"),
		lang.Bind1("reclassify", 3),
		lang.Bind1("deliver", 3),
		lang.Bind1F("when_class", 1, lang.Bind("drop")),
		lang.BindFF("seq", lang.Bind("unit"), lang.Bind1("deliver", 1)),
	} {
		t.Run(n.String(), func(t *testing.T) {
			_, err := xdp.Lower(transport.Compile(n))
			assert.True(t, errors.Is(err, xdp.ErrNotLowerable), "got %v", err)
		})
	}
}

func TestXDPAction_String(t *testing.T) {
	assert.Equal(t, "XDP_DROP", xdp.XDPDrop.String())
	assert.Equal(t, "XDP_PASS", xdp.XDPPass.String())
	assert.Equal(t, "XDPAction(9)", xdp.XDPAction(9).String())
}

func TestProceedOnMask(t *testing.T) {
	assert.Equal(t, uint32(0), xdp.ProceedOnMask())
	assert.Equal(t, uint32(1<<2|1<<1), xdp.ProceedOnMask(xdp.XDPPass, xdp.XDPDrop))
}

func TestProgramSpec(t *testing.T) {
	spec := xdp.ProgramSpec("pfq_drop", xdp.XDPDrop)
	assert.Equal(t, ebpf.XDP, spec.Type)
	require.Len(t, spec.Instructions, 2)
	assert.Equal(t, int64(xdp.XDPDrop), spec.Instructions[0].Constant)
	assert.Equal(t, asm.Return().OpCode, spec.Instructions[1].OpCode)
}

func TestAttach_Loopback(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("requires root")
	}

	a, err := xdp.Attach(xdp.ProgramSpec("pfq_pass", xdp.XDPPass), "lo")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Ifindex)
	require.NoError(t, a.Close())
}

func TestAttach_Unprivileged(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("requires non-root")
	}

	_, err := xdp.Attach(xdp.ProgramSpec("pfq_pass", xdp.XDPPass), "lo")
	assert.ErrorIs(t, err, xdp.ErrNotPrivileged)
}
