package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-pfq/cmd/pfq-lang/cli"
	"github.com/frobware/go-pfq/lock"
	"github.com/frobware/go-pfq/manager"
)

type harness struct {
	dir string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	return harness{dir: t.TempDir()}
}

// run executes one pfq-lang invocation against the harness's runtime
// directory and returns its output.
func (h harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	c := cli.CLI{Out: &out}
	parser, err := kong.New(&c, cli.KongOptions()...)
	require.NoError(t, err)

	root := []string{
		"--config", filepath.Join(h.dir, "absent.toml"),
		"--runtime-dir", filepath.Join(h.dir, "run"),
		"--log", "error",
	}
	ctx, err := parser.Parse(append(root, args...))
	if err != nil {
		return "", err
	}
	err = ctx.Run(&c)
	return out.String(), err
}

func (h harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err)
	return out
}

func TestBind(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "bind", "seq (reclassify 5) (deliver 3)")
	assert.Equal(t, "seq (reclassify 5) (deliver 3) :: fn+fn\n", out)

	out = h.mustRun(t, "bind", "-o", "json", "deliver 3")
	var wire map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &wire))
	assert.Equal(t, "deliver", wire["symbol"])

	_, err := h.run(t, "bind", "seq (")
	assert.Error(t, err)
}

func TestSaveGetListDelete(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "save", "-l", "team=net", "steer", "seq (reclassify 5) (deliver 3)")
	h.mustRun(t, "save", "blackhole", "drop")

	out := h.mustRun(t, "get", "-o", "json", "steer")
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "steer", rec["name"])
	assert.Equal(t, "seq", rec["symbol"])
	assert.Equal(t, map[string]any{"team": "net"}, rec["labels"])

	out = h.mustRun(t, "list", "-o", "jsonpath={[*].name}")
	assert.Equal(t, "blackhole steer\n", out)

	out = h.mustRun(t, "list", "-l", "team=net")
	assert.Contains(t, out, "steer")
	assert.NotContains(t, out, "blackhole")

	h.mustRun(t, "delete", "steer")
	_, err := h.run(t, "get", "steer")
	assert.Error(t, err)
}

func TestEval(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "save", "classify", "reclassify 2")
	h.mustRun(t, "save", "host", "to_host_stack")

	out := h.mustRun(t, "eval", "-o", "json", "-n", "classify", "-n", "host", "--groups", "0x4")
	var res manager.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "to_host_stack", res.Verdict)
	assert.Equal(t, uint64(1<<2), res.State.Class)
	assert.Equal(t, uint64(0x4), res.State.Groups)
	assert.True(t, res.State.ToKernel)

	out = h.mustRun(t, "eval", "deliver 7")
	assert.Equal(t, "deliver mask=0x80 skb{len=0 class=0x0 groups=0x0 to_kernel=false}\n", out)

	out = h.mustRun(t, "eval", "-o", "jsonpath={.verdict}", "-n", "classify", "-n", "host", "--proceed-on", "forward", "--proceed-on", "to_host_stack")
	assert.Equal(t, "to_host_stack\n", out)

	_, err := h.run(t, "eval")
	assert.Error(t, err)
	_, err = h.run(t, "eval", "-n", "classify", "drop")
	assert.Error(t, err)
}

func TestXDPLower(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "save", "blackhole", "seq (unit) (drop)")
	assert.Equal(t, "XDP_DROP\n", h.mustRun(t, "xdp", "blackhole"))

	h.mustRun(t, "save", "steer", "deliver 1")
	_, err := h.run(t, "xdp", "steer")
	assert.Error(t, err)
}

func TestWriteFailsWhileLocked(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "save", "x", "drop")

	lockPath := filepath.Join(h.dir, "run", ".lock")
	err := lock.TryRun(context.Background(), lockPath, func(context.Context, lock.WriterScope) error {
		_, err := h.run(t, "save", "y", "drop")
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.As(err, new(lock.ErrLocked)), "got %v", err)

	// Reads do not need the lock.
	err = lock.TryRun(context.Background(), lockPath, func(context.Context, lock.WriterScope) error {
		_, err := h.run(t, "get", "x")
		return err
	})
	assert.NoError(t, err)
}
