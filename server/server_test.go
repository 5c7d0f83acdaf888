package server_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/logging"
	"github.com/frobware/go-pfq/manager"
	"github.com/frobware/go-pfq/server"
	pb "github.com/frobware/go-pfq/server/pb"
	"github.com/frobware/go-pfq/skbuff"
	"github.com/frobware/go-pfq/store/sqlite"
	"github.com/frobware/go-pfq/transport"
)

// testLogger returns a logger for tests. By default it discards all output.
// Set PFQ_TEST_VERBOSE=1 to enable logging.
func testLogger() *slog.Logger {
	if os.Getenv("PFQ_TEST_VERBOSE") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient serves a fresh in-memory store over bufconn.
func newTestClient(t *testing.T) pb.LangClient {
	t.Helper()

	st, err := sqlite.NewInMemory(context.Background(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mgr := manager.New(st, nil, testLogger())
	grpcServer := server.New(mgr, testLogger()).Register()

	lis := bufconn.Listen(1 << 20)
	go grpcServer.Serve(lis)
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return pb.NewLangClient(conn)
}

func compile(t *testing.T, c pb.LangClient, name string, n lang.Node, labels map[string]string) *structpb.Struct {
	t.Helper()
	req := pb.CompileRequest{Name: name, Node: transport.Encode(n), Labels: labels}
	resp, err := c.Compile(context.Background(), req.Struct())
	require.NoError(t, err)
	return resp
}

func requireCode(t *testing.T, want codes.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, status.Code(err), "error: %v", err)
}

func TestCompileGetDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	n := lang.BindFF("seq", lang.Bind1("reclassify", 5), lang.Bind1("deliver", 3))
	resp := compile(t, c, "steer", n, map[string]string{"team": "net"})

	rec, err := pb.ParseRecord(resp)
	require.NoError(t, err)
	assert.Equal(t, "steer", rec.Name)
	assert.Equal(t, "seq", rec.Symbol)
	assert.Equal(t, n.String(), rec.Text)
	assert.Equal(t, map[string]string{"team": "net"}, rec.Labels)

	resp, err = c.Get(ctx, pb.NameRequest{Name: "steer"}.Struct())
	require.NoError(t, err)
	got, err := pb.ParseRecord(resp)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	d, err := transport.Unmarshal(got.Wire)
	require.NoError(t, err)
	assert.Equal(t, transport.Compile(n), d)

	_, err = c.Delete(ctx, pb.NameRequest{Name: "steer"}.Struct())
	require.NoError(t, err)

	_, err = c.Get(ctx, pb.NameRequest{Name: "steer"}.Struct())
	requireCode(t, codes.NotFound, err)

	_, err = c.Delete(ctx, pb.NameRequest{Name: "steer"}.Struct())
	requireCode(t, codes.NotFound, err)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	compile(t, c, "a", lang.Bind("drop"), map[string]string{"tier": "edge"})
	compile(t, c, "b", lang.Bind("broadcast"), nil)

	resp, err := c.List(ctx, pb.ListRequest{}.Struct())
	require.NoError(t, err)
	recs, err := pb.ParseRecords(resp)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	resp, err = c.List(ctx, pb.ListRequest{LabelKey: "tier", LabelValue: "edge"}.Struct())
	require.NoError(t, err)
	recs, err = pb.ParseRecords(resp)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].Name)
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	compile(t, c, "classify", lang.Bind1("reclassify", 2), nil)
	compile(t, c, "host", lang.Bind("to_host_stack"), nil)

	req := pb.EvaluateRequest{Names: []string{"classify", "host"}, State: skbuff.State{Groups: 0x4}}
	resp, err := c.Evaluate(ctx, req.Struct())
	require.NoError(t, err)
	res, err := pb.ParseResult(resp)
	require.NoError(t, err)
	assert.Equal(t, manager.Result{
		Verdict: "to_host_stack",
		State:   skbuff.State{Class: 1 << 2, Groups: 0x4, ToKernel: true},
	}, res)
}

func TestEvaluate_Node(t *testing.T) {
	c := newTestClient(t)

	req := pb.EvaluateRequest{Node: transport.Encode(lang.Bind1("deliver", 9))}
	resp, err := c.Evaluate(context.Background(), req.Struct())
	require.NoError(t, err)
	res, err := pb.ParseResult(resp)
	require.NoError(t, err)
	assert.Equal(t, "deliver", res.Verdict)
	assert.Equal(t, uint64(1<<9), res.Mask)
}

func TestErrorCodes(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	unknown := pb.CompileRequest{Name: "x", Node: transport.Encode(lang.BindF("seq", lang.Bind("nope")))}
	_, err := c.Compile(ctx, unknown.Struct())
	requireCode(t, codes.InvalidArgument, err)

	_, err = c.Compile(ctx, pb.CompileRequest{Name: "x"}.Struct())
	requireCode(t, codes.InvalidArgument, err)

	_, err = c.Get(ctx, pb.NameRequest{}.Struct())
	requireCode(t, codes.InvalidArgument, err)

	malformed := pb.CompileRequest{Name: "x", Node: &structpb.Struct{}}
	_, err = c.Compile(ctx, malformed.Struct())
	requireCode(t, codes.InvalidArgument, err)

	_, err = c.Evaluate(ctx, pb.EvaluateRequest{}.Struct())
	requireCode(t, codes.InvalidArgument, err)

	_, err = c.Evaluate(ctx, pb.EvaluateRequest{Names: []string{"absent"}}.Struct())
	requireCode(t, codes.NotFound, err)
}

func TestNewEvaluator_RateLimitsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ev := server.NewEvaluator(logger, logging.RateLimit{Interval: time.Hour, Burst: 1})
	d := transport.Compile(lang.Bind1("reclassify", 0))
	for range 10 {
		_, err := ev.Evaluate(d, skbuff.New(nil))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "component=evaluator")
}
