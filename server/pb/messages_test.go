package pb_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/manager"
	pb "github.com/frobware/go-pfq/server/pb"
	"github.com/frobware/go-pfq/skbuff"
	"github.com/frobware/go-pfq/store"
	"github.com/frobware/go-pfq/transport"
)

func TestState_FullWidthMasks(t *testing.T) {
	in := skbuff.State{Class: 1 << 63, Groups: ^uint64(0), ToKernel: true}
	s := pb.StateStruct(in)
	assert.Equal(t, "9223372036854775808", s.GetFields()["class"].GetStringValue())

	out, err := pb.ParseState(s)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	zero, err := pb.ParseState(nil)
	require.NoError(t, err)
	assert.Equal(t, skbuff.State{}, zero)
}

func TestParseState_Malformed(t *testing.T) {
	for name, v := range map[string]*structpb.Value{
		"number":   structpb.NewNumberValue(3),
		"negative": structpb.NewStringValue("-1"),
		"overflow": structpb.NewStringValue("18446744073709551616"),
	} {
		t.Run(name, func(t *testing.T) {
			s := &structpb.Struct{Fields: map[string]*structpb.Value{"class": v}}
			_, err := pb.ParseState(s)
			var fe pb.FieldError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, "class", fe.Field)
		})
	}
}

func TestEvaluateRequest(t *testing.T) {
	req := pb.EvaluateRequest{Names: []string{"a", "b"}, ProceedOn: 0x3, State: skbuff.State{Class: 2}}
	got, err := pb.ParseEvaluateRequest(req.Struct())
	require.NoError(t, err)
	assert.Equal(t, req, got)

	_, err = pb.ParseEvaluateRequest(pb.EvaluateRequest{}.Struct())
	assert.Error(t, err, "neither names nor node")

	both := pb.EvaluateRequest{Names: []string{"a"}, Node: transport.Encode(lang.Bind("drop"))}
	_, err = pb.ParseEvaluateRequest(both.Struct())
	assert.Error(t, err, "both names and node")
}

func TestCompileRequest(t *testing.T) {
	req := pb.CompileRequest{
		Name:   "steer",
		Node:   transport.Encode(lang.Bind1("deliver", 4)),
		Labels: map[string]string{"team": "net"},
	}
	got, err := pb.ParseCompileRequest(req.Struct())
	require.NoError(t, err)
	assert.Equal(t, "steer", got.Name)
	assert.Equal(t, req.Labels, got.Labels)

	d, err := transport.Decode(got.Node)
	require.NoError(t, err)
	assert.Equal(t, transport.Compile(lang.Bind1("deliver", 4)), d)

	_, err = pb.ParseCompileRequest(pb.CompileRequest{Name: "steer"}.Struct())
	var fe pb.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "node", fe.Field)
}

func TestRecord(t *testing.T) {
	n := lang.Bind1F("when_class", 3, lang.Bind("drop"))
	wire, err := transport.Marshal(n)
	require.NoError(t, err)

	rec := store.Record{
		ID:        uuid.New(),
		Name:      "guard",
		Symbol:    n.Symbol(),
		Kind:      n.Shape().String(),
		Wire:      wire,
		Text:      n.String(),
		Labels:    map[string]string{"env": "lab"},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
	}
	s, err := pb.RecordStruct(rec)
	require.NoError(t, err)

	got, err := pb.ParseRecord(s)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestResult(t *testing.T) {
	in := manager.Result{Verdict: "deliver", Mask: 1 << 40, State: skbuff.State{Groups: 1}}
	out, err := pb.ParseResult(pb.ResultStruct(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = pb.ParseResult(pb.Empty())
	assert.Error(t, err)
}
